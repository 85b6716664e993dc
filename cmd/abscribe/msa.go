package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/bioab/abscribe/internal/annotate"
	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/isotype"
	"github.com/bioab/abscribe/internal/logging"
	"github.com/bioab/abscribe/internal/msa"
	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/output"
	"github.com/bioab/abscribe/internal/region"
	"github.com/bioab/abscribe/internal/scheme"
)

func runMSA(args []string) int {
	fs := flag.NewFlagSet("msa", flag.ExitOnError)

	var (
		method       string
		gapOpen      float64
		gapExtend    float64
		schemeName   string
		annotateFlag bool
		outputFile   string
		numberingBin string
		hmmDir       string
		germlineDB   string
	)

	initViperDefaults()
	fs.StringVar(&method, "method", viper.GetString("method"), "Alignment method: pairwise_global, pairwise_local, muscle, mafft, clustalo")
	fs.Float64Var(&gapOpen, "gap-open", viper.GetFloat64("gap_open"), "Gap open penalty (pairwise methods only)")
	fs.Float64Var(&gapExtend, "gap-extend", viper.GetFloat64("gap_extend"), "Gap extend penalty (pairwise methods only)")
	fs.StringVar(&schemeName, "scheme", viper.GetString("scheme"), "Numbering scheme used when projecting FR/CDR overlays")
	fs.BoolVar(&annotateFlag, "annotate-regions", true, "Project FR/CDR regions onto the alignment's columns")
	fs.StringVar(&outputFile, "o", "", "Output file (default: stdout)")
	fs.StringVar(&numberingBin, "numbering-engine", "abscribe-numbering", "Numbering engine binary, used when --annotate-regions is set")
	fs.StringVar(&hmmDir, "isotype-hmms", defaultArtifactDir("hmms"), "Directory of isotype HMM profiles, used when --annotate-regions is set")
	fs.StringVar(&germlineDB, "germline-db", "", "Germline Gene Store: a .fasta[.gz] bundle or DuckDB file, used when --annotate-regions is set")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Multiple-sequence-align a FASTA file of sequences.

Usage:
  abscribe msa [options] <input-file>

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: input file argument required\n\n")
		fs.Usage()
		return ExitUsage
	}

	in, err := openInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	defer in.Close()

	named, err := readNamedSequencesFASTA(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing FASTA: %v\n", err)
		return ExitError
	}
	if len(named) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no sequences found in input\n")
		return ExitError
	}

	engine := msa.NewEngine()
	engine.GapOpen = gapOpen
	engine.GapExtend = gapExtend

	ctx := context.Background()
	result, err := engine.Align(ctx, named, msa.Method(method))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	var (
		overlays map[string][]msa.RegionOverlay
		mappings map[scheme.RegionName][]msa.RegionMapping
	)
	if annotateFlag {
		log := logging.Must(logging.New(false))
		defer log.Sync()

		detector, derr := isotype.NewDetector("hmmsearch", hmmDir, log)
		if derr != nil {
			detector, _ = isotype.NewDetector("hmmsearch", os.TempDir(), log)
		}
		assembler := domainasm.NewAssembler(region.NewAnnotator(scheme.NewTables()), detector)
		if germlineDB != "" {
			if store, gerr := openGermlineDB(germlineDB); gerr != nil {
				fmt.Fprintf(os.Stderr, "Warning: germline db unavailable: %v\n", gerr)
			} else {
				assembler.SetGermlineDB(store)
				defer store.Close()
			}
		}

		orchestrator := annotate.NewOrchestrator(
			numbering.NewAdapter(numbering.NewExecEngine(numberingBin), log),
			assembler,
		)
		msaAnnotator := msa.NewAnnotator(orchestrator)
		overlays, mappings, err = msaAnnotator.Overlays(ctx, result, scheme.Scheme(schemeName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: region annotation failed: %v\n", err)
		}
	}

	out, err := openOutput(outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		return ExitError
	}
	defer out.Close()

	if err := output.WriteMSAResult(out, "", result, overlays, mappings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	return ExitSuccess
}

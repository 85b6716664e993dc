package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bioab/abscribe/internal/annotate"
	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/isotype"
	"github.com/bioab/abscribe/internal/logging"
	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/output"
	"github.com/bioab/abscribe/internal/region"
	"github.com/bioab/abscribe/internal/scheme"
)

func defaultArtifactDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return sub
	}
	return filepath.Join(home, ".abscribe", sub)
}

func runAnnotate(args []string) int {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)

	var (
		schemeName   string
		speciesCSV   string
		outputFormat string
		outputFile   string
		numberingBin string
		hmmDir       string
		germlineDB   string
	)

	initViperDefaults()
	fs.StringVar(&schemeName, "scheme", viper.GetString("scheme"), "Numbering scheme: imgt, kabat, chothia, cgg")
	fs.StringVar(&speciesCSV, "species", strings.Join(viper.GetStringSlice("allowed_species"), ","), "Comma-separated allowed germline species")
	fs.StringVar(&outputFormat, "f", "tab", "Output format: tab, json")
	fs.StringVar(&outputFormat, "output-format", "tab", "Output format: tab, json")
	fs.StringVar(&outputFile, "o", "", "Output file (default: stdout)")
	fs.StringVar(&outputFile, "output", "", "Output file (default: stdout)")
	fs.StringVar(&numberingBin, "numbering-engine", "abscribe-numbering", "Numbering engine binary")
	fs.StringVar(&hmmDir, "isotype-hmms", defaultArtifactDir("hmms"), "Directory of isotype HMM profiles")
	fs.StringVar(&germlineDB, "germline-db", "", "Germline Gene Store: a .fasta[.gz] bundle or DuckDB file, used to validate germline calls")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Number and annotate biologics in a FASTA file.

Usage:
  abscribe annotate [options] <input-file>

Arguments:
  <input-file>  Input FASTA file, ">biologic|chain" headers (use '-' for stdin)

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  abscribe annotate input.fasta
  abscribe annotate -f json -o out.json input.fasta
  cat input.fasta | abscribe annotate -
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: input file argument required\n\n")
		fs.Usage()
		return ExitUsage
	}

	if germlineDB == "" && viper.InConfig("germline_db") {
		germlineDB = viper.GetString("germline_db")
	}

	requestedScheme := scheme.Scheme(strings.ToLower(schemeName))
	species := strings.Split(speciesCSV, ",")
	for i := range species {
		species[i] = strings.TrimSpace(species[i])
	}

	inputPath := fs.Arg(0)
	in, err := openInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	defer in.Close()

	biologics, _, err := readBiologicsFASTA(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing FASTA: %v\n", err)
		return ExitError
	}

	log := logging.Must(logging.New(false))
	defer log.Sync()

	detector, err := isotype.NewDetector("hmmsearch", hmmDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: isotype detector unavailable: %v\n", err)
		detector, _ = isotype.NewDetector("hmmsearch", os.TempDir(), log)
	}

	assembler := domainasm.NewAssembler(region.NewAnnotator(scheme.NewTables()), detector)
	if germlineDB != "" {
		store, gerr := openGermlineDB(germlineDB)
		if gerr != nil {
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
	orchestrator.SetAllowedSpecies(species)

	ctx := context.Background()
	run, err := orchestrator.AnnotateAll(ctx, biologics, requestedScheme)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	for _, chainErr := range run.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", chainErr)
	}

	out, err := openOutput(outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		return ExitError
	}
	defer out.Close()

	switch outputFormat {
	case "tab":
		tw := output.NewTabWriter(out)
		if err := tw.WriteHeader(); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing header: %v\n", err)
			return ExitError
		}
		if err := tw.WriteRun(run); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitError
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Error flushing output: %v\n", err)
			return ExitError
		}
	case "json":
		if err := output.WriteAnnotationRun(out, run); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitError
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown output format %q\n", outputFormat)
		return ExitError
	}

	return ExitSuccess
}

func openInput(path string) (namedCloser, error) {
	if path == "-" {
		return stdinCloser{os.Stdin}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func openOutput(path string) (namedCloser, error) {
	if path == "" {
		return stdoutCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

// namedCloser is the minimal io.ReadWriteCloser surface readers and
// writers in this CLI need, letting stdin/stdout stand in for a real
// file without the caller closing either of them.
type namedCloser interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

type stdinCloser struct{ *os.File }

func (stdinCloser) Close() error { return nil }

type stdoutCloser struct{ *os.File }

func (stdoutCloser) Close() error { return nil }

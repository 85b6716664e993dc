package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/bioab/abscribe/internal/msa"
	"github.com/bioab/abscribe/internal/scheme"
)

// renderRegion mirrors output.regionDocument's JSON shape, just enough
// of it to drive colored terminal rendering.
type renderRegion struct {
	Start   int    `json:"start"`
	Stop    int    `json:"stop"`
	Letters string `json:"letters"`
}

type renderVariable struct {
	ChainType string                  `json:"chain_type"`
	Species   string                  `json:"species"`
	Germline  string                  `json:"germline"`
	Regions   map[string]renderRegion `json:"regions"`
}

type renderDomain struct {
	Kind     string          `json:"kind"`
	Start    int             `json:"start"`
	Stop     int             `json:"stop"`
	Letters  string          `json:"letters"`
	Isotype  string          `json:"isotype"`
	Variable *renderVariable `json:"variable"`
}

type renderChain struct {
	Name             string         `json:"name"`
	OriginalSequence string         `json:"original_sequence"`
	Domains          []renderDomain `json:"domains"`
}

type renderBiologic struct {
	Name   string        `json:"name"`
	Chains []renderChain `json:"chains"`
}

type renderDocument struct {
	RunID      string           `json:"run_id"`
	SchemeUsed string           `json:"scheme_used"`
	Biologics  []renderBiologic `json:"biologics"`
}

func runRender(args []string) int {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Colored terminal rendering of an annotation document's FR/CDR overlays.

Usage:
  abscribe render <annotation.json>
`)
	}
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return ExitUsage
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	defer f.Close()

	var doc renderDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding annotation document: %v\n", err)
		return ExitError
	}

	for _, b := range doc.Biologics {
		fmt.Printf("== %s ==\n", b.Name)
		for _, c := range b.Chains {
			fmt.Printf("-- %s --\n", c.Name)
			for _, d := range c.Domains {
				renderDomainLine(d)
			}
		}
	}
	return ExitSuccess
}

// renderDomainLine prints one domain's residues, color-segmented by
// region for Variable domains and printed plain for Linker/Constant.
func renderDomainLine(d renderDomain) {
	if d.Kind != "variable" || d.Variable == nil || len(d.Variable.Regions) == 0 {
		fmt.Printf("  [%s] %s\n", d.Kind, d.Letters)
		return
	}

	type span struct {
		name    scheme.RegionName
		region  renderRegion
	}
	var spans []span
	for name, r := range d.Variable.Regions {
		if r.Letters == "" {
			continue
		}
		spans = append(spans, span{name: scheme.RegionName(name), region: r})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].region.Start < spans[j].region.Start })

	fmt.Printf("  [variable %s/%s]\n", d.Variable.ChainType, d.Variable.Species)
	for _, s := range spans {
		c := msa.ColorFor(s.name)
		fmt.Printf("    %-5s %s\n", s.name, c.Sprint(s.region.Letters))
	}
}

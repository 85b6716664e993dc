// Package output provides writers for the annotation and MSA result
// documents: a structured JSON form and a flattened tab-delimited form.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bioab/abscribe/internal/annotate"
	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/region"
	"github.com/bioab/abscribe/internal/scheme"
)

// orderedRegionNames returns the regions present in m in canonical
// FR1..FR4/CDR1..CDR3 order, rather than Go's randomized map order.
func orderedRegionNames(m map[scheme.RegionName]region.Region) []scheme.RegionName {
	var names []scheme.RegionName
	for _, name := range scheme.Regions {
		if _, ok := m[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// TabWriter writes one row per Region across a run's chains, for
// spreadsheet-friendly output.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"Biologic",
			"Chain",
			"ChainType",
			"Species",
			"DomainKind",
			"Isotype",
			"Germline",
			"GermlineValidated",
			"Region",
			"Start",
			"Stop",
			"Letters",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRun flattens an entire AnnotationRun into tab-delimited rows:
// one row per Region on each Variable domain, plus a summary row for
// each Linker and Constant domain.
func (tw *TabWriter) WriteRun(run *annotate.AnnotationRun) error {
	for _, biologic := range run.Result.Biologics {
		for _, chain := range biologic.Chains {
			for _, d := range chain.Domains {
				if err := tw.writeDomain(biologic.Name, chain.Name, d); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (tw *TabWriter) writeDomain(biologic, chain string, d domainasm.DomainRecord) error {
	switch d.Kind {
	case domainasm.KindVariable:
		germline := "-"
		if d.Variable.BestGermline != nil {
			germline = d.Variable.BestGermline.ID
		}
		validated := "false"
		if d.Variable.GermlineGene != nil {
			validated = "true"
		}
		for _, name := range orderedRegionNames(d.Variable.Regions) {
			r := d.Variable.Regions[name]
			letters := r.Letters
			if letters == "" {
				letters = "-"
			}
			row := []string{
				biologic, chain,
				string(d.Variable.ChainType), d.Variable.Species,
				"variable", "-", germline, validated,
				string(name), fmt.Sprintf("%d", r.Start), fmt.Sprintf("%d", r.Stop),
				letters,
			}
			if _, err := tw.w.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
				return err
			}
		}
		return nil
	case domainasm.KindConstant:
		row := []string{
			biologic, chain, "-", "-", "constant", d.Constant.Isotype, "-", "-",
			"-", fmt.Sprintf("%d", d.Start), fmt.Sprintf("%d", d.End), d.Constant.Letters,
		}
		_, err := tw.w.WriteString(strings.Join(row, "\t") + "\n")
		return err
	case domainasm.KindLinker:
		row := []string{
			biologic, chain, "-", "-", "linker", "-", "-", "-",
			"-", fmt.Sprintf("%d", d.Start), fmt.Sprintf("%d", d.End), d.Linker.Letters,
		}
		_, err := tw.w.WriteString(strings.Join(row, "\t") + "\n")
		return err
	default:
		return nil
	}
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

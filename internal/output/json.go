package output

import (
	"encoding/json"
	"io"

	"github.com/bioab/abscribe/internal/annotate"
	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/msa"
	"github.com/bioab/abscribe/internal/scheme"
)

// annotationDocument is the JSON shape of an AnnotationRun, per the
// produced-document contract: run identity/timing, per-biologic
// chains with their domain records, aggregate stats, and any
// per-chain errors.
type annotationDocument struct {
	RunID      string             `json:"run_id"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	SchemeUsed string             `json:"scheme_used"`
	Biologics  []biologicDocument `json:"biologics"`
	Stats      statsDocument      `json:"stats"`
	Errors     []string           `json:"errors,omitempty"`
}

type biologicDocument struct {
	Name   string          `json:"name"`
	Chains []chainDocument `json:"chains"`
}

type chainDocument struct {
	Name             string           `json:"name"`
	OriginalSequence string           `json:"original_sequence"`
	Domains          []domainDocument `json:"domains"`
}

type domainDocument struct {
	Kind    string            `json:"kind"`
	Start   int               `json:"start"`
	Stop    int               `json:"stop"`
	Letters string            `json:"letters,omitempty"`
	Isotype string            `json:"isotype,omitempty"`
	Variable *variableDocument `json:"variable,omitempty"`
}

type variableDocument struct {
	ChainType         string                    `json:"chain_type"`
	Species           string                    `json:"species"`
	Germline          string                    `json:"germline,omitempty"`
	GermlineValidated bool                      `json:"germline_validated,omitempty"`
	GermlineAllele    string                    `json:"germline_allele,omitempty"`
	Regions           map[string]regionDocument `json:"regions"`
}

type regionDocument struct {
	Start   int    `json:"start"`
	Stop    int    `json:"stop"`
	Letters string `json:"letters"`
}

type statsDocument struct {
	ChainTypeCounts map[string]int `json:"chain_type_counts"`
	IsotypeCounts   map[string]int `json:"isotype_counts"`
	SpeciesCounts   map[string]int `json:"species_counts"`
}

// WriteAnnotationRun writes an AnnotationRun as the structured JSON
// annotation document to w.
func WriteAnnotationRun(w io.Writer, run *annotate.AnnotationRun) error {
	doc := annotationDocument{
		RunID:      run.ID.String(),
		StartedAt:  run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		FinishedAt: run.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
		SchemeUsed: string(run.Result.SchemeUsed),
		Stats: statsDocument{
			ChainTypeCounts: run.Result.Stats.ChainTypeCounts,
			IsotypeCounts:   run.Result.Stats.IsotypeCounts,
			SpeciesCounts:   run.Result.Stats.SpeciesCounts,
		},
	}
	for _, e := range run.Errors {
		doc.Errors = append(doc.Errors, e.Error())
	}
	for _, b := range run.Result.Biologics {
		doc.Biologics = append(doc.Biologics, toBiologicDocument(b))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toBiologicDocument(b annotate.Biologic) biologicDocument {
	bd := biologicDocument{Name: b.Name}
	for _, c := range b.Chains {
		bd.Chains = append(bd.Chains, toChainDocument(c))
	}
	return bd
}

func toChainDocument(c annotate.Chain) chainDocument {
	cd := chainDocument{Name: c.Name, OriginalSequence: c.OriginalSequence}
	for _, d := range c.Domains {
		cd.Domains = append(cd.Domains, toDomainDocument(d))
	}
	return cd
}

func toDomainDocument(d domainasm.DomainRecord) domainDocument {
	dd := domainDocument{Kind: string(d.Kind), Start: d.Start, Stop: d.End}
	switch d.Kind {
	case domainasm.KindLinker:
		dd.Letters = d.Linker.Letters
	case domainasm.KindConstant:
		dd.Letters = d.Constant.Letters
		dd.Isotype = d.Constant.Isotype
	case domainasm.KindVariable:
		germline := ""
		if d.Variable.BestGermline != nil {
			germline = d.Variable.BestGermline.ID
		}
		var allele string
		if d.Variable.GermlineGene != nil {
			allele = d.Variable.GermlineGene.Allele
		}
		regions := make(map[string]regionDocument, len(d.Variable.Regions))
		for name, r := range d.Variable.Regions {
			regions[string(name)] = regionDocument{Start: r.Start, Stop: r.Stop, Letters: r.Letters}
		}
		dd.Variable = &variableDocument{
			ChainType:         string(d.Variable.ChainType),
			Species:           d.Variable.Species,
			Germline:          germline,
			GermlineValidated: d.Variable.GermlineGene != nil,
			GermlineAllele:    allele,
			Regions:           regions,
		}
	}
	return dd
}

// msaDocument is the JSON shape of an MSA Result, per spec.md §6's
// produced-document contract.
type msaDocument struct {
	MSAID        string                       `json:"msa_id"`
	Method       string                       `json:"method"`
	Sequences    []msaSequenceDocument        `json:"sequences"`
	Matrix       []string                     `json:"alignment_matrix"`
	Consensus    string                       `json:"consensus"`
	Conservation []float64                    `json:"conservation"`
	Quality      []float64                    `json:"quality,omitempty"`
	RegionMappings map[string][]regionMappingDocument `json:"region_mappings,omitempty"`
}

type msaSequenceDocument struct {
	Name     string              `json:"name"`
	Original string              `json:"original"`
	Aligned  string              `json:"aligned"`
	Gaps     []int               `json:"gaps"`
	Overlays []overlayDocument   `json:"annotations,omitempty"`
}

type overlayDocument struct {
	Name         string `json:"name"`
	AlignedStart int    `json:"aligned_start"`
	AlignedStop  int    `json:"aligned_stop"`
}

type regionMappingDocument struct {
	SequenceName string `json:"sequence_name"`
	AlignedStart int    `json:"aligned_start"`
	AlignedStop  int    `json:"aligned_stop"`
}

// WriteMSAResult writes an MSA Result, its overlays, and its aggregated
// region mappings as the structured JSON MSA document to w.
func WriteMSAResult(w io.Writer, msaID string, result *msa.Result, overlays map[string][]msa.RegionOverlay, mappings map[scheme.RegionName][]msa.RegionMapping) error {
	doc := msaDocument{
		MSAID:        msaID,
		Method:       string(result.Method),
		Consensus:    string(result.Consensus),
		Conservation: result.Conservation,
		Quality:      result.Quality,
	}
	for _, m := range result.Matrix {
		doc.Matrix = append(doc.Matrix, string(m))
	}
	for _, seq := range result.Sequences {
		sd := msaSequenceDocument{
			Name:     seq.Name,
			Original: seq.Original,
			Aligned:  seq.Aligned,
			Gaps:     seq.Gaps,
		}
		for _, o := range overlays[seq.Name] {
			sd.Overlays = append(sd.Overlays, overlayDocument{
				Name:         string(o.Name),
				AlignedStart: o.AlignedStart,
				AlignedStop:  o.AlignedStop,
			})
		}
		doc.Sequences = append(doc.Sequences, sd)
	}
	if len(mappings) > 0 {
		doc.RegionMappings = make(map[string][]regionMappingDocument, len(mappings))
		for name, ms := range mappings {
			var docs []regionMappingDocument
			for _, m := range ms {
				docs = append(docs, regionMappingDocument{
					SequenceName: m.SequenceName,
					AlignedStart: m.AlignedStart,
					AlignedStop:  m.AlignedStop,
				})
			}
			doc.RegionMappings[string(name)] = docs
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

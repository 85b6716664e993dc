// Package domainasm implements the Domain Assembler: it walks a
// sequence's numbered variable domains in sequence-position order,
// filling the gaps between and after them with linker and constant
// domain records to produce a chain's full ordered domain list.
package domainasm

import (
	"context"
	"errors"
	"sort"

	"github.com/bioab/abscribe/internal/germlinedb"
	"github.com/bioab/abscribe/internal/isotype"
	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/region"
	"github.com/bioab/abscribe/internal/scheme"
)

// DomainKind tags which payload a DomainRecord carries.
type DomainKind string

// Supported domain kinds.
const (
	KindVariable DomainKind = "variable"
	KindLinker   DomainKind = "linker"
	KindConstant DomainKind = "constant"
)

// VariableDomain is a numbered antibody variable domain, with regions
// shifted to absolute 1-based coordinates and the best germline hit
// attached, if any.
type VariableDomain struct {
	ChainType  scheme.ChainType
	Species    string
	Numbering  []numbering.NumberedResidue
	Regions    map[scheme.RegionName]region.Region
	BestGermline *numbering.GermlineRow

	// GermlineGene is the full germline gene record backing
	// BestGermline's call, resolved against the Germline Gene Store when
	// one is configured. Nil whenever no store is set or the hit table's
	// gene id has no corresponding row (e.g. a germline database that
	// hasn't been loaded for this species/chain type).
	GermlineGene *germlinedb.Gene
}

// LinkerDomain is a connecting subsequence between two variable
// domains that the numbering engine did not itself number.
type LinkerDomain struct {
	Letters string
}

// ConstantDomain is a trailing subsequence identified as a constant
// region by the Isotype Detector.
type ConstantDomain struct {
	Isotype string
	Score   float64
	EValue  float64
	Letters string
}

// DomainRecord is one entry of a chain's assembled domain list. Exactly
// one of Variable/Linker/Constant is non-nil, selected by Kind — a
// tagged variant rather than an interface hierarchy, so that callers
// switch on Kind instead of type-asserting.
type DomainRecord struct {
	Kind  DomainKind
	Start int // absolute 0-based, inclusive
	End   int // absolute 0-based, exclusive

	Variable *VariableDomain
	Linker   *LinkerDomain
	Constant *ConstantDomain
}

// Assembler builds a chain's ordered domain list from the Residue
// Numbering Adapter's output.
type Assembler struct {
	regions    *region.Annotator
	isotypes   *isotype.Detector
	germlineDB *germlinedb.Store
}

// NewAssembler builds a Domain Assembler over the given Region
// Annotator and Isotype Detector.
func NewAssembler(regions *region.Annotator, isotypes *isotype.Detector) *Assembler {
	return &Assembler{regions: regions, isotypes: isotypes}
}

// SetGermlineDB attaches a Germline Gene Store used to resolve each
// chain's best germline hit to its full gene record (sequence and
// allele). A nil store leaves BestGermline as the assembler's only
// germline output, per the numbering engine's hit table.
func (a *Assembler) SetGermlineDB(store *germlinedb.Store) {
	a.germlineDB = store
}

// numberedSpan pairs one numbering.Domain with its absolute span so the
// sort step does not need to re-derive it.
type numberedSpan struct {
	domain numbering.Domain
	start  int
	end    int
}

// Assemble runs the Domain Assembler algorithm over one chain:
// sort numbered domains by query_start, emit Linker records for any
// positive gap, emit a Variable record per numbered domain with
// absolute-shifted regions, and probe any trailing subsequence with the
// Isotype Detector for a Constant record.
func (a *Assembler) Assemble(ctx context.Context, sequence string, usedScheme scheme.Scheme, domains []numbering.Domain, bestGermlines map[string]numbering.GermlineRow) ([]DomainRecord, error) {
	if len(domains) == 0 {
		return nil, nil
	}

	spans := make([]numberedSpan, 0, len(domains))
	for _, d := range domains {
		spans = append(spans, numberedSpan{domain: d, start: d.QueryStart, end: d.QueryEnd})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var out []DomainRecord
	cursor := 0

	for _, sp := range spans {
		if sp.start > cursor && cursor > 0 {
			out = append(out, DomainRecord{
				Kind:   KindLinker,
				Start:  cursor,
				End:    sp.start,
				Linker: &LinkerDomain{Letters: sliceSafe(sequence, cursor, sp.start)},
			})
		}

		variable, err := a.buildVariable(sp, usedScheme, bestGermlines)
		if err != nil {
			return nil, err
		}
		out = append(out, DomainRecord{
			Kind:     KindVariable,
			Start:    sp.start,
			End:      sp.end,
			Variable: variable,
		})

		cursor = sp.end

		if cursor < len(sequence) {
			trailing := sequence[cursor:]
			hit, err := a.detectIsotype(ctx, trailing)
			if err != nil {
				var scoringErr *isotype.ScoringFailedError
				if !errors.As(err, &scoringErr) {
					return nil, err
				}
				// Every HMM failed to score: no constant domain.
				hit = nil
			}
			if hit != nil {
				out = append(out, DomainRecord{
					Kind:  KindConstant,
					Start: cursor,
					End:   len(sequence),
					Constant: &ConstantDomain{
						Isotype: hit.Isotype,
						Score:   hit.Score,
						EValue:  hit.EValue,
						Letters: trailing,
					},
				})
				cursor = len(sequence)
			}
		}
	}

	return out, nil
}

func (a *Assembler) detectIsotype(ctx context.Context, trailing string) (*isotype.Hit, error) {
	if a.isotypes == nil {
		return nil, nil
	}
	return a.isotypes.Detect(ctx, trailing)
}

func (a *Assembler) buildVariable(sp numberedSpan, usedScheme scheme.Scheme, bestGermlines map[string]numbering.GermlineRow) (*VariableDomain, error) {
	regions, err := a.regions.AnnotateVariable(sp.domain.Residues, usedScheme, sp.domain.ChainType)
	if err != nil {
		return nil, err
	}
	shifted := make(map[scheme.RegionName]region.Region, len(regions))
	for name, r := range regions {
		shifted[name] = shiftRegion(r, sp.start)
	}

	v := &VariableDomain{
		ChainType: sp.domain.ChainType,
		Species:   sp.domain.Species,
		Numbering: sp.domain.Residues,
		Regions:   shifted,
	}

	key := germlineKey(sp.domain.Species, sp.domain.ChainType)
	if best, ok := bestGermlines[key]; ok {
		b := best
		v.BestGermline = &b
		v.GermlineGene = a.resolveGermlineGene(sp.domain.Species, string(sp.domain.ChainType), b.ID)
	}
	return v, nil
}

// resolveGermlineGene looks up geneID's full record in the Germline
// Gene Store, scoped to species/chainType. Returns nil whenever no
// store is configured or the gene id isn't registered for that pair —
// a numbering-engine hit table built against a different germline
// reference than the one loaded into the store.
func (a *Assembler) resolveGermlineGene(species, chainType, geneID string) *germlinedb.Gene {
	if a.germlineDB == nil {
		return nil
	}
	genes, err := a.germlineDB.ForSpeciesAndChain(species, chainType)
	if err != nil {
		return nil
	}
	for i := range genes {
		if genes[i].ID == geneID {
			g := genes[i]
			return &g
		}
	}
	return nil
}

// shiftRegion converts a region's domain-local 1-based coordinates to
// absolute 1-based coordinates via abs = s + (rel - 1), where s is the
// domain's absolute (0-based) start in the parent sequence.
func shiftRegion(r region.Region, domainStart int) region.Region {
	if r.Start == 0 && r.Stop == 0 {
		// Canonical boundary absent from this domain; nothing to shift.
		return r
	}
	shifted := r
	shifted.Start = domainStart + (r.Start - 1)
	shifted.Stop = domainStart + (r.Stop - 1)
	return shifted
}

func germlineKey(species string, ct scheme.ChainType) string {
	return species + "_" + string(ct)
}

func sliceSafe(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}

// IsScFv reports whether a chain's assembled domain list matches the
// implicit scFv pattern: at least two Variable records connected by a
// Linker record.
func IsScFv(records []DomainRecord) bool {
	variableCount := 0
	hasLinker := false
	for _, r := range records {
		switch r.Kind {
		case KindVariable:
			variableCount++
		case KindLinker:
			hasLinker = true
		}
	}
	return variableCount >= 2 && hasLinker
}

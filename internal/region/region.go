// Package region implements the Region Annotator: mapping a numbered
// antibody domain's scheme positions onto FR/CDR subsequences in
// domain-local 1-based coordinates.
package region

import (
	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/scheme"
)

// Region is a single framework or CDR region, in domain-local 1-based
// inclusive coordinates. When the canonical boundary positions are
// absent from the domain's numbering, Letters is empty and Start/Stop
// are 0; StartPos/StopPos still carry the canonical scheme positions.
type Region struct {
	Name    scheme.RegionName
	Letters string
	Start   int
	Stop    int
	// StartPos/StopPos are the canonical scheme positions that define
	// this region, always populated regardless of whether they were
	// found in this domain's numbering.
	StartPos scheme.Position
	StopPos  scheme.Position
}

// Annotator computes region maps against a fixed set of Scheme Tables.
type Annotator struct {
	tables *scheme.Tables
}

// NewAnnotator builds a Region Annotator over the given Scheme Tables.
func NewAnnotator(tables *scheme.Tables) *Annotator {
	return &Annotator{tables: tables}
}

// AnnotateVariable computes domain-local region boundaries for a single
// numbered domain under the given scheme and chain type.
func (a *Annotator) AnnotateVariable(residues []numbering.NumberedResidue, s scheme.Scheme, chainType scheme.ChainType) (map[scheme.RegionName]Region, error) {
	if len(residues) == 0 {
		return map[scheme.RegionName]Region{}, nil
	}

	regions, err := a.tables.RegionsFor(s, chainType)
	if err != nil {
		return nil, err
	}

	posToIdx := buildPositionIndex(residues)

	out := make(map[scheme.RegionName]Region, len(regions))
	for name, span := range regions {
		out[name] = a.annotateOne(name, span, residues, posToIdx)
	}
	return out, nil
}

// buildPositionIndex maps each canonical scheme Position to the index
// of its residue within the domain, skipping gap ('-') letters so the
// index refers only to actual residues — this is what keeps insertion
// codes from being double-counted against their canonical position.
func buildPositionIndex(residues []numbering.NumberedResidue) map[scheme.Position]int {
	idx := make(map[scheme.Position]int, len(residues))
	for i, r := range residues {
		if r.Letter == '-' {
			continue
		}
		if _, exists := idx[r.Position]; !exists {
			idx[r.Position] = i
		}
	}
	return idx
}

func (a *Annotator) annotateOne(name scheme.RegionName, span scheme.PositionRange, residues []numbering.NumberedResidue, posToIdx map[scheme.Position]int) Region {
	startIdx, startOK := posToIdx[span.Start]
	stopIdx, stopOK := posToIdx[span.Stop]

	r := Region{Name: name, StartPos: span.Start, StopPos: span.Stop}
	if !startOK || !stopOK {
		return r
	}

	var letters []byte
	for i := startIdx; i <= stopIdx; i++ {
		if residues[i].Letter == '-' {
			continue
		}
		letters = append(letters, residues[i].Letter)
	}
	r.Letters = string(letters)
	r.Start = startIdx + 1
	r.Stop = stopIdx + 1
	return r
}

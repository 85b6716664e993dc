package msa

import (
	"context"

	"github.com/fatih/color"

	"github.com/bioab/abscribe/internal/annotate"
	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/scheme"
	"github.com/bioab/abscribe/internal/seqio"
)

// RegionOverlay is one region's projection onto an alignment's
// columns, attached to a single MSA sequence.
type RegionOverlay struct {
	Name         scheme.RegionName
	AlignedStart int
	AlignedStop  int
	Color        *color.Color
}

// RegionMapping is one sequence's contribution to the
// region_mappings aggregation: the same overlay, labeled with the
// sequence it came from.
type RegionMapping struct {
	SequenceName string
	AlignedStart int
	AlignedStop  int
	Color        *color.Color
}

// palette assigns a stable color.Attribute-backed color to each
// canonical region name: muted for frameworks, bright for CDRs —
// reused by the render CLI subcommand's printInColor-style closure.
var palette = map[scheme.RegionName]*color.Color{
	scheme.FR1:  color.New(color.FgWhite),
	scheme.FR2:  color.New(color.FgWhite),
	scheme.FR3:  color.New(color.FgWhite),
	scheme.FR4:  color.New(color.FgWhite),
	scheme.CDR1: color.New(color.FgRed, color.Bold),
	scheme.CDR2: color.New(color.FgGreen, color.Bold),
	scheme.CDR3: color.New(color.FgYellow, color.Bold),
}

// ColorFor returns the stable palette entry for a region name.
func ColorFor(name scheme.RegionName) *color.Color {
	if c, ok := palette[name]; ok {
		return c
	}
	return color.New(color.FgWhite)
}

// Annotator projects each MSA sequence's primary Variable domain
// regions onto the alignment's column space.
type Annotator struct {
	orchestrator *annotate.Orchestrator
}

// NewAnnotator builds an MSA Annotator over the given Annotation
// Orchestrator.
func NewAnnotator(orchestrator *annotate.Orchestrator) *Annotator {
	return &Annotator{orchestrator: orchestrator}
}

// Overlays runs the Annotation Orchestrator on each sequence's
// original letters and maps its primary Variable domain's regions
// through the Gap Coordinate Mapper, returning per-sequence overlays
// and the aggregated region_mappings.
func (a *Annotator) Overlays(ctx context.Context, result *Result, usedScheme scheme.Scheme) (map[string][]RegionOverlay, map[scheme.RegionName][]RegionMapping, error) {
	overlays := make(map[string][]RegionOverlay, len(result.Sequences))
	mappings := make(map[scheme.RegionName][]RegionMapping)

	for i, seq := range result.Sequences {
		sequence, err := seqio.New(seq.Name, seq.Original)
		if err != nil {
			return nil, nil, err
		}

		run, err := a.orchestrator.AnnotateAll(ctx, map[string]map[string]seqio.Sequence{
			seq.Name: {seq.Name: sequence},
		}, usedScheme)
		if err != nil {
			return nil, nil, err
		}
		if len(run.Errors) > 0 {
			continue
		}

		primary := primaryVariable(run)
		if primary == nil {
			continue
		}

		idx := NewRowIndex(string(result.Matrix[i]))

		var rowOverlays []RegionOverlay
		for name, r := range primary.Regions {
			if r.Start == 0 && r.Stop == 0 {
				continue
			}
			alignedStart, err1 := idx.UngappedToAligned(r.Start - 1)
			alignedStop, err2 := idx.UngappedToAligned(r.Stop - 1)
			if err1 != nil || err2 != nil {
				continue
			}
			c := ColorFor(name)
			rowOverlays = append(rowOverlays, RegionOverlay{
				Name:         name,
				AlignedStart: alignedStart,
				AlignedStop:  alignedStop,
				Color:        c,
			})
			mappings[name] = append(mappings[name], RegionMapping{
				SequenceName: seq.Name,
				AlignedStart: alignedStart,
				AlignedStop:  alignedStop,
				Color:        c,
			})
		}
		overlays[seq.Name] = rowOverlays
	}

	return overlays, mappings, nil
}

func primaryVariable(run *annotate.AnnotationRun) *domainasm.VariableDomain {
	for _, b := range run.Result.Biologics {
		for _, c := range b.Chains {
			for _, d := range c.Domains {
				if d.Kind == domainasm.KindVariable {
					return d.Variable
				}
			}
		}
	}
	return nil
}

package msa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioab/abscribe/internal/annotate"
	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/isotype"
	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/region"
	"github.com/bioab/abscribe/internal/scheme"
)

type fakeMSAEngine struct {
	domains []numbering.Domain
}

func (f *fakeMSAEngine) Run(ctx context.Context, req numbering.Request) ([]numbering.Domain, numbering.HitTable, error) {
	return f.domains, numbering.HitTable{}, nil
}

func heavyResiduesMSA(n int) []numbering.NumberedResidue {
	out := make([]numbering.NumberedResidue, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, numbering.NumberedResidue{
			Position: scheme.Position{Number: i, Insertion: ' '},
			Letter:   'A',
		})
	}
	return out
}

func TestOverlays_ProjectsRegionsOntoAlignedColumns(t *testing.T) {
	seqLen := 128
	eng := &fakeMSAEngine{domains: []numbering.Domain{{
		Residues:   heavyResiduesMSA(seqLen),
		QueryStart: 0,
		QueryEnd:   seqLen,
		ChainType:  scheme.Heavy,
		Species:    "human",
	}}}

	adapter := numbering.NewAdapter(eng, nil)
	assembler := domainasm.NewAssembler(region.NewAnnotator(scheme.NewTables()), (*isotype.Detector)(nil))
	orchestrator := annotate.NewOrchestrator(adapter, assembler)
	msaAnnotator := NewAnnotator(orchestrator)

	original := make([]byte, seqLen)
	for i := range original {
		original[i] = 'A'
	}
	result := &Result{
		Sequences: []AlignedSequence{
			{Name: "chainA", Original: string(original), Aligned: string(original)},
		},
		Matrix: [][]byte{original},
	}

	overlays, mappings, err := msaAnnotator.Overlays(context.Background(), result, scheme.IMGT)
	require.NoError(t, err)
	require.Contains(t, overlays, "chainA")
	assert.NotEmpty(t, overlays["chainA"])
	assert.NotEmpty(t, mappings[scheme.FR1])
}

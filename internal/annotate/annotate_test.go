package annotate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/isotype"
	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/region"
	"github.com/bioab/abscribe/internal/scheme"
	"github.com/bioab/abscribe/internal/seqio"
)

type fakeEngine struct {
	failFor map[string]error
	domains map[string][]numbering.Domain
}

func (f *fakeEngine) Run(ctx context.Context, req numbering.Request) ([]numbering.Domain, numbering.HitTable, error) {
	if err, ok := f.failFor[req.Name]; ok {
		return nil, numbering.HitTable{}, err
	}
	return f.domains[req.Name], numbering.HitTable{}, nil
}

func heavyResidues(n int) []numbering.NumberedResidue {
	out := make([]numbering.NumberedResidue, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, numbering.NumberedResidue{
			Position: scheme.Position{Number: i, Insertion: ' '},
			Letter:   'A',
		})
	}
	return out
}

func newTestOrchestrator(eng numbering.Engine) *Orchestrator {
	adapter := numbering.NewAdapter(eng, nil)
	assembler := domainasm.NewAssembler(region.NewAnnotator(scheme.NewTables()), (*isotype.Detector)(nil))
	return NewOrchestrator(adapter, assembler)
}

func TestAnnotateAll_SingleChainSucceeds(t *testing.T) {
	seq, err := seqio.New("chainA", "EVQLVESGGGLVQPGGSLRLSCAASGFTFSSYAMSWVRQAPGKGLEWVSA")
	require.NoError(t, err)

	eng := &fakeEngine{domains: map[string][]numbering.Domain{
		"chainA": {{
			Residues:   heavyResidues(seq.Len()),
			QueryStart: 0,
			QueryEnd:   seq.Len(),
			ChainType:  scheme.Heavy,
			Species:    "human",
		}},
	}}

	o := newTestOrchestrator(eng)
	biologics := map[string]map[string]seqio.Sequence{
		"biologicA": {"chainA": seq},
	}

	run, err := o.AnnotateAll(context.Background(), biologics, scheme.IMGT)
	require.NoError(t, err)
	require.Len(t, run.Result.Biologics, 1)
	require.Len(t, run.Result.Biologics[0].Chains, 1)
	assert.Empty(t, run.Errors)
	assert.Equal(t, scheme.IMGT, run.Result.SchemeUsed)
}

func TestAnnotateAll_ChainFailureDoesNotAbortRun(t *testing.T) {
	goodSeq, err := seqio.New("good", "EVQLVESGGGLVQPGGSLRLSCAASGFTFSSYAMSWVRQAPGKGLEWVSA")
	require.NoError(t, err)
	badSeq, err := seqio.New("bad", "EVQLVESGGGLVQPGGSLRLSCAASGFTFSSYAMSWVRQAPGKGLEWVSS")
	require.NoError(t, err)

	eng := &fakeEngine{
		failFor: map[string]error{"bad": errors.New("engine exploded")},
		domains: map[string][]numbering.Domain{
			"good": {{
				Residues:   heavyResidues(goodSeq.Len()),
				QueryStart: 0,
				QueryEnd:   goodSeq.Len(),
				ChainType:  scheme.Heavy,
				Species:    "human",
			}},
		},
	}

	o := newTestOrchestrator(eng)
	biologics := map[string]map[string]seqio.Sequence{
		"biologicA": {"good": goodSeq, "bad": badSeq},
	}

	run, err := o.AnnotateAll(context.Background(), biologics, scheme.IMGT)
	require.NoError(t, err)
	require.Len(t, run.Result.Biologics, 1)
	assert.Len(t, run.Result.Biologics[0].Chains, 1)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, "bad", run.Errors[0].Chain)
}

func TestComputeStats_CountsPrimaryDomain(t *testing.T) {
	records := []domainasm.DomainRecord{
		{Kind: domainasm.KindVariable, Variable: &domainasm.VariableDomain{ChainType: scheme.Heavy, Species: "human"}},
	}
	stats := computeStats([]Biologic{{Chains: []Chain{{Domains: records}}}})
	assert.Equal(t, 1, stats.ChainTypeCounts["H"])
	assert.Equal(t, 1, stats.SpeciesCounts["human"])
}

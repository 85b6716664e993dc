package annotate

import (
	"context"
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

func TestParallelAnnotate_OrderedCollectRestoresSequenceOrder(t *testing.T) {
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

	adapter := numbering.NewAdapter(eng, nil)
	assembler := domainasm.NewAssembler(region.NewAnnotator(scheme.NewTables()), (*isotype.Detector)(nil))
	o := NewOrchestrator(adapter, assembler)

	items := make(chan WorkItem, 10)
	const n = 10
	for i := 0; i < n; i++ {
		items <- WorkItem{Seq: i, Biologic: "b", Chains: map[string]seqio.Sequence{"chainA": seq}}
	}
	close(items)

	results := o.ParallelAnnotate(context.Background(), items, scheme.IMGT, 4)

	var order []int
	err = OrderedCollect(results, func(r WorkResult) error {
		order = append(order, r.Seq)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, order, n)
	for i, seqNum := range order {
		assert.Equal(t, i, seqNum)
	}
}

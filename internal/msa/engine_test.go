package msa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Align_PairwiseGlobal_TwoSequences(t *testing.T) {
	e := NewEngine()
	named := []NamedSequence{
		{Name: "a", Original: "EVQLVESGGG"},
		{Name: "b", Original: "EVQLVESGGG"},
	}
	result, err := e.Align(context.Background(), named, PairwiseGlobal)
	require.NoError(t, err)
	require.Len(t, result.Sequences, 2)
	assert.Equal(t, result.Sequences[0].Aligned, result.Sequences[1].Aligned)
	assert.Equal(t, "a", result.Sequences[0].Name)
	assert.Equal(t, "b", result.Sequences[1].Name)
}

func TestEngine_Align_RejectsEmptyInput(t *testing.T) {
	e := NewEngine()
	_, err := e.Align(context.Background(), nil, PairwiseGlobal)
	require.Error(t, err)
	var afe *AlignmentFailedError
	assert.ErrorAs(t, err, &afe)
}

func TestEngine_Align_UnsupportedMethodFailsClosed(t *testing.T) {
	e := NewEngine()
	named := []NamedSequence{{Name: "a", Original: "EVQLVESGGG"}}
	_, err := e.Align(context.Background(), named, Method("bogus"))
	require.Error(t, err)
}

func TestEngine_Align_ThreeIdenticalSequencesProgressiveMerge(t *testing.T) {
	e := NewEngine()
	named := []NamedSequence{
		{Name: "a", Original: "EVQLVESGGG"},
		{Name: "b", Original: "EVQLVESGGG"},
		{Name: "c", Original: "EVQLVESGGG"},
	}
	result, err := e.Align(context.Background(), named, PairwiseGlobal)
	require.NoError(t, err)
	require.Len(t, result.Sequences, 3)
	l := len(result.Sequences[0].Aligned)
	for _, s := range result.Sequences {
		assert.Equal(t, l, len(s.Aligned))
		assert.Equal(t, "EVQLVESGGG", stripGaps(s.Aligned))
	}
}

package msa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignGlobal_EqualLengthOutputs(t *testing.T) {
	a := NewPairwiseAligner(-10, -0.5)
	x, y := a.AlignGlobal("EVQLVESGGG", "EVQLQESGGG")
	require.Equal(t, len(x), len(y))
	assert.Equal(t, stripGaps(x), "EVQLVESGGG")
	assert.Equal(t, stripGaps(y), "EVQLQESGGG")
}

func TestAlignLocal_EqualLengthOutputs(t *testing.T) {
	a := NewPairwiseAligner(-10, -0.5)
	x, y := a.AlignLocal("EVQLVESGGGAAAA", "ZZZZEVQLVESGGG")
	require.Equal(t, len(x), len(y))
}

func stripGaps(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

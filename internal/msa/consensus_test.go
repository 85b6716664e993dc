package msa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsensus_UnanimousColumn(t *testing.T) {
	matrix := [][]byte{[]byte("AA"), []byte("AA"), []byte("AA")}
	consensus, conservation, quality := Consensus(matrix)
	require.Len(t, consensus, 2)
	assert.Equal(t, byte('A'), consensus[0])
	assert.Equal(t, 1.0, conservation[0])
	assert.InDelta(t, 1.0, quality[0], 1e-9)
}

func TestConsensus_AllGapColumnIsDash(t *testing.T) {
	matrix := [][]byte{[]byte("-"), []byte("-")}
	consensus, conservation, _ := Consensus(matrix)
	assert.Equal(t, byte('-'), consensus[0])
	assert.Equal(t, 0.0, conservation[0])
}

func TestConsensus_TieBreaksLexicographically(t *testing.T) {
	matrix := [][]byte{[]byte("A"), []byte("B")}
	consensus, conservation, _ := Consensus(matrix)
	assert.Equal(t, byte('A'), consensus[0])
	assert.Equal(t, 0.5, conservation[0])
}

func TestConsensus_EmptyMatrix(t *testing.T) {
	consensus, conservation, quality := Consensus(nil)
	assert.Nil(t, consensus)
	assert.Nil(t, conservation)
	assert.Nil(t, quality)
}

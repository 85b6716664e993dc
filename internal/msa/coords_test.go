package msa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowIndex_UngappedToAligned(t *testing.T) {
	idx := NewRowIndex("A--BC-D")
	col, err := idx.UngappedToAligned(0)
	require.NoError(t, err)
	assert.Equal(t, 0, col)

	col, err = idx.UngappedToAligned(1)
	require.NoError(t, err)
	assert.Equal(t, 3, col)

	col, err = idx.UngappedToAligned(3)
	require.NoError(t, err)
	assert.Equal(t, 6, col)
}

func TestRowIndex_UngappedToAligned_OutOfRange(t *testing.T) {
	idx := NewRowIndex("A--BC-D")
	_, err := idx.UngappedToAligned(4)
	require.Error(t, err)
	var oor *OutOfRangeError
	assert.ErrorAs(t, err, &oor)
}

func TestRowIndex_AlignedToUngapped(t *testing.T) {
	idx := NewRowIndex("A--BC-D")
	k, ok := idx.AlignedToUngapped(0)
	require.True(t, ok)
	assert.Equal(t, 0, k)

	_, ok = idx.AlignedToUngapped(1)
	assert.False(t, ok)

	k, ok = idx.AlignedToUngapped(3)
	require.True(t, ok)
	assert.Equal(t, 1, k)
}

func TestRowIndex_InverseOnNonGapColumns(t *testing.T) {
	row := "A--BC-D"
	idx := NewRowIndex(row)
	for c := 0; c < len(row); c++ {
		k, ok := idx.AlignedToUngapped(c)
		if !ok {
			continue
		}
		col, err := idx.UngappedToAligned(k)
		require.NoError(t, err)
		assert.Equal(t, c, col)
	}
}

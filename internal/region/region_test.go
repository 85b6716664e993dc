package region

import (
	"testing"

	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/scheme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func residue(n int, letter byte) numbering.NumberedResidue {
	return numbering.NumberedResidue{Position: scheme.Position{Number: n, Insertion: ' '}, Letter: letter}
}

func TestAnnotateVariable_EmptyNumbering(t *testing.T) {
	a := NewAnnotator(scheme.NewTables())
	regions, err := a.AnnotateVariable(nil, scheme.IMGT, scheme.Heavy)
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestAnnotateVariable_MissingBoundaryKeepsCanonicalPosition(t *testing.T) {
	a := NewAnnotator(scheme.NewTables())
	// Only a handful of residues, far short of covering FR1..FR4.
	residues := []numbering.NumberedResidue{residue(1, 'E'), residue(2, 'V')}

	regions, err := a.AnnotateVariable(residues, scheme.IMGT, scheme.Heavy)
	require.NoError(t, err)

	fr1 := regions[scheme.FR1]
	assert.Empty(t, fr1.Letters)
	assert.Equal(t, 1, fr1.StartPos.Number)
	assert.Equal(t, 26, fr1.StopPos.Number)
}

func TestAnnotateVariable_GapsExcludedFromIndex(t *testing.T) {
	a := NewAnnotator(scheme.NewTables())
	var residues []numbering.NumberedResidue
	for n := 1; n <= 26; n++ {
		residues = append(residues, residue(n, 'A'))
	}
	// Insert a gap residue sharing position 26 to confirm it is skipped
	// rather than shifting the index.
	residues = append(residues, numbering.NumberedResidue{Position: scheme.Position{Number: 26, Insertion: 'A'}, Letter: '-'})

	regions, err := a.AnnotateVariable(residues, scheme.IMGT, scheme.Heavy)
	require.NoError(t, err)

	fr1 := regions[scheme.FR1]
	assert.Equal(t, 26, len(fr1.Letters))
	assert.Equal(t, 1, fr1.Start)
	assert.Equal(t, 26, fr1.Stop)
}

func TestAnnotateVariable_KappaFallsBackToLambdaTable(t *testing.T) {
	a := NewAnnotator(scheme.NewTables())
	var residues []numbering.NumberedResidue
	for n := 1; n <= 23; n++ {
		residues = append(residues, residue(n, 'A'))
	}
	regionsK, err := a.AnnotateVariable(residues, scheme.Kabat, scheme.Kappa)
	require.NoError(t, err)
	regionsL, err := a.AnnotateVariable(residues, scheme.Kabat, scheme.Lambda)
	require.NoError(t, err)
	assert.Equal(t, regionsL[scheme.FR1].StopPos, regionsK[scheme.FR1].StopPos)
}

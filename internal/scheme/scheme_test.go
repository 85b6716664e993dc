package scheme

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionsFor_AllSchemesHeavy(t *testing.T) {
	tables := NewTables()
	for _, s := range []Scheme{IMGT, Kabat, Chothia, CGG} {
		regions, err := tables.RegionsFor(s, Heavy)
		require.NoError(t, err, "scheme %s", s)
		for _, name := range Regions {
			_, ok := regions[name]
			assert.True(t, ok, "scheme %s missing region %s", s, name)
		}
	}
}

func TestRegionsFor_KFallsBackToL(t *testing.T) {
	tables := NewTables()
	l, err := tables.RegionsFor(IMGT, Lambda)
	require.NoError(t, err)
	k, err := tables.RegionsFor(IMGT, Kappa)
	require.NoError(t, err)
	assert.Equal(t, l, k)
}

func TestRegionsFor_UnsupportedScheme(t *testing.T) {
	tables := NewTables()
	_, err := tables.RegionsFor(Scheme("martinus"), Heavy)
	require.Error(t, err)
	var use *UnsupportedSchemeError
	assert.True(t, errors.As(err, &use))
}

func TestPosition_Less(t *testing.T) {
	a := Position{Number: 31, Insertion: ' '}
	b := Position{Number: 31, Insertion: 'A'}
	c := Position{Number: 32, Insertion: ' '}
	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
}

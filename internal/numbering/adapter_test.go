package numbering

import (
	"context"
	"errors"
	"testing"

	"github.com/bioab/abscribe/internal/scheme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	calls   []scheme.Scheme
	failFor map[scheme.Scheme]error
	domains []Domain
	hits    HitTable
}

func (f *fakeEngine) Run(ctx context.Context, req Request) ([]Domain, HitTable, error) {
	f.calls = append(f.calls, req.Scheme)
	if err, ok := f.failFor[req.Scheme]; ok {
		return nil, HitTable{}, err
	}
	return f.domains, f.hits, nil
}

func TestAdapter_CGGSubstitutesKabatButReportsCGG(t *testing.T) {
	eng := &fakeEngine{domains: []Domain{{ChainType: scheme.Heavy}}}
	a := NewAdapter(eng, nil)

	res, err := a.Number(context.Background(), "chainA", "EVQLVESGGG", scheme.CGG, nil)
	require.NoError(t, err)
	assert.Equal(t, scheme.CGG, res.SchemeUsed)
	require.Len(t, eng.calls, 1)
	assert.Equal(t, scheme.Kabat, eng.calls[0])
}

func TestAdapter_RetriesOnceWithIMGT(t *testing.T) {
	eng := &fakeEngine{
		failFor: map[scheme.Scheme]error{
			scheme.Kabat: errors.New("engine exploded"),
		},
		domains: []Domain{{ChainType: scheme.Heavy}},
	}
	a := NewAdapter(eng, nil)

	res, err := a.Number(context.Background(), "chainA", "EVQLVESGGG", scheme.Kabat, nil)
	require.NoError(t, err)
	assert.Equal(t, scheme.IMGT, res.SchemeUsed)
	require.Len(t, eng.calls, 2)
	assert.Equal(t, scheme.Kabat, eng.calls[0])
	assert.Equal(t, scheme.IMGT, eng.calls[1])
}

func TestAdapter_NoRetryWhenAlreadyIMGT(t *testing.T) {
	eng := &fakeEngine{
		failFor: map[scheme.Scheme]error{
			scheme.IMGT: errors.New("engine exploded"),
		},
	}
	a := NewAdapter(eng, nil)

	_, err := a.Number(context.Background(), "chainA", "EVQLVESGGG", scheme.IMGT, nil)
	require.Error(t, err)
	var fe *FailedError
	require.True(t, errors.As(err, &fe))
	assert.Len(t, eng.calls, 1)
}

func TestGroupBestGermlines(t *testing.T) {
	rows := []GermlineRow{
		{ID: "human_H_IGHV1-2*01", Bitscore: 120},
		{ID: "human_H_IGHV1-3*01", Bitscore: 200},
		{ID: "human_K_IGKV1-5*01", Bitscore: 80},
	}
	best := GroupBestGermlines(rows)
	require.Len(t, best, 2)
	assert.Equal(t, "human_H_IGHV1-3*01", best["human_H"].ID)
	assert.Equal(t, "human_K_IGKV1-5*01", best["human_K"].ID)
}

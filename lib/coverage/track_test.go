package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
)

func newIndex(t *testing.T) *chrom.Index {
	idx := chrom.NewIndex()
	_, err := idx.Add("chr1", 1000)
	require.NoError(t, err)
	_, err = idx.Add("chr2", 95)
	require.NoError(t, err)
	return idx
}

func TestNewInvalidBin(t *testing.T) {
	_, err := New(newIndex(t), 0)
	assert.Error(t, err)
}

func TestTrackBins(t *testing.T) {
	idx := newIndex(t)
	tr, err := New(idx, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, tr.Bins(0))
	assert.Equal(t, 10, tr.Bins(1))
	assert.Equal(t, 10, tr.BinWidth())
}

func TestAddRangeClipping(t *testing.T) {
	idx := newIndex(t)
	tests := []struct {
		start, end, w int
		touched       int
	}{
		{100, 250, 1, 150},
		{-50, 10, 1, 10},
		{990, 1200, 1, 10},
		{1000, 1100, 1, 0},
		{-100, -1, 1, 0},
		{105, 125, 10, 3},
		{109, 110, 10, 1},
		{0, 1000, 7, 143},
	}
	for _, tt := range tests {
		tr, err := New(idx, tt.w)
		require.NoError(t, err)
		assert.Equal(t, tt.touched, tr.AddRange(0, tt.start, tt.end, Forward), "%v", tt)
		var sum int
		for b := 0; b < tr.Bins(0); b++ {
			v := tr.BinValue(0, b)
			assert.True(t, v <= 1)
			sum += int(v)
		}
		assert.Equal(t, tt.touched, sum)
		// Other chromosome untouched
		for b := 0; b < tr.Bins(1); b++ {
			assert.Equal(t, uint32(0), tr.BinValue(1, b))
		}
	}
}

func TestValueAtStrands(t *testing.T) {
	idx := newIndex(t)
	tr, err := New(idx, 1)
	require.NoError(t, err)
	tr.AddRange(1, 10, 20, Forward)
	tr.AddRange(1, 15, 25, Reverse)
	tr.Increment(1, 15, Reverse)
	tr.Increment(1, 95, Forward)
	tr.Increment(1, -1, Forward)

	assert.Equal(t, uint32(1), tr.ValueAt(1, 10))
	assert.Equal(t, uint32(3), tr.ValueAt(1, 15))
	assert.Equal(t, uint32(1), tr.StrandValueAt(1, 15, Forward))
	assert.Equal(t, uint32(2), tr.StrandValueAt(1, 15, Reverse))
	assert.Equal(t, uint32(1), tr.ValueAt(1, 24))
	assert.Equal(t, uint32(0), tr.ValueAt(1, 25))
	assert.Equal(t, uint32(0), tr.ValueAt(1, -3))
	assert.Equal(t, uint32(0), tr.ValueAt(1, 95))
	assert.Equal(t, uint32(0), tr.ValueAt(0, 15))

	values := tr.Chrom(1, nil)
	assert.Len(t, values, 95)
	assert.Equal(t, uint32(3), values[15])
}

func TestTracksAtTwoResolutions(t *testing.T) {
	idx := newIndex(t)
	fine, err := New(idx, 1)
	require.NoError(t, err)
	coarse, err := New(idx, 50)
	require.NoError(t, err)
	fine.AddRange(0, 40, 60, Forward)
	coarse.AddRange(0, 40, 60, Forward)
	assert.Equal(t, uint32(0), fine.ValueAt(0, 39))
	assert.Equal(t, uint32(1), coarse.ValueAt(0, 0))
	assert.Equal(t, uint32(1), coarse.ValueAt(0, 99))
	assert.Equal(t, uint32(0), coarse.ValueAt(0, 100))
}

func TestNormalizer(t *testing.T) {
	n, err := NewNormalizer(2000000, false, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, n.Factor(), 1e-12)
	assert.InDelta(t, 2.0, n.Normalize(4), 1e-12)
	assert.Equal(t, uint64(2000000), n.Total())

	n, err = NewNormalizer(1000000, true, 0.25)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, n.Factor(), 1e-12)
	assert.InDelta(t, 1.0, n.Normalize(4), 1e-12)

	_, err = NewNormalizer(0, false, 0)
	assert.Error(t, err)
	_, err = NewNormalizer(10, true, -1)
	assert.Error(t, err)
}

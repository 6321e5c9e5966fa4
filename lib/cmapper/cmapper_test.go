package cmapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinusStrand(t *testing.T) {
	cm := CoordMapper{Anchor: 500, Strand: -1, HalfWindow: 5, ChromLength: 1000}
	assert.Equal(t, 11, cm.Length())

	g, inside := cm.Relative2Genome(-5)
	assert.Equal(t, 505, g)
	assert.True(t, inside)
	g, _ = cm.Relative2Genome(5)
	assert.Equal(t, 495, g)

	for k := -5; k <= 5; k++ {
		g, _ := cm.Relative2Genome(k)
		r, within := cm.Genome2Relative(g)
		assert.True(t, within)
		assert.Equal(t, k, r)
	}
	_, within := cm.Genome2Relative(506)
	assert.False(t, within)
}

func TestPlusStrandBounds(t *testing.T) {
	cm := CoordMapper{Anchor: 2, Strand: 1, HalfWindow: 4, ChromLength: 5}
	tests := []struct {
		rel    int
		g      int
		inside bool
	}{
		{-4, -2, false},
		{-2, 0, true},
		{0, 2, true},
		{2, 4, true},
		{3, 5, false},
	}
	for _, tt := range tests {
		g, inside := cm.Relative2Genome(tt.rel)
		assert.Equal(t, tt.g, g)
		assert.Equal(t, tt.inside, inside)
	}
	assert.Equal(t, 0, cm.Index(-4))
	assert.Equal(t, 8, cm.Index(4))
}

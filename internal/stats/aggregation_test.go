package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator(t *testing.T) {
	var a Accumulator
	assert.Nil(t, a.Mean())
	lo, hi := a.Range()
	assert.Nil(t, lo)
	assert.Nil(t, hi)

	for _, v := range []float64{4, math.NaN(), -2, 10} {
		a.Add(v)
	}
	assert.Equal(t, 3, a.Count)
	assert.Equal(t, 12.0, a.Sum)
	require.NotNil(t, a.Mean())
	assert.InDelta(t, 4, *a.Mean(), 1e-9)
	lo, hi = a.Range()
	assert.Equal(t, -2.0, *lo)
	assert.Equal(t, 10.0, *hi)
}

func TestEqualWidthEdges(t *testing.T) {
	assert.Equal(t, []float64{0, 2.5, 5, 7.5, 10}, EqualWidthEdges(0, 10, 4))
	assert.Equal(t, []float64{3, 3, 3}, EqualWidthEdges(3, 3, 2))
	assert.Nil(t, EqualWidthEdges(0, 1, 0))
}

func TestBinIndex(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want int
	}{
		{name: "minimum", v: 0, want: 0},
		{name: "inner edge goes right", v: 2.5, want: 1},
		{name: "maximum is closed", v: 10, want: 3},
		{name: "below range", v: -1, want: 0},
		{name: "above range", v: 11, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BinIndex(tt.v, 0, 10, 4))
		})
	}
	assert.Equal(t, 0, BinIndex(5, 5, 5, 4))
}


package stats

import "math"

// Accumulator keeps running count, sum, min and max of a stream of values.
// NaN values are skipped. The zero value is ready to use.
type Accumulator struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
}

// Add feeds one value
func (a *Accumulator) Add(v float64) {
	if math.IsNaN(v) {
		return
	}
	if a.Count == 0 {
		a.Min, a.Max = v, v
	} else {
		if v < a.Min {
			a.Min = v
		}
		if v > a.Max {
			a.Max = v
		}
	}
	a.Count++
	a.Sum += v
}

// Mean returns the arithmetic mean, nil when nothing was added
func (a *Accumulator) Mean() *float64 {
	if a.Count == 0 {
		return nil
	}
	m := a.Sum / float64(a.Count)
	return &m
}

// Range returns min and max, nil when nothing was added
func (a *Accumulator) Range() (min, max *float64) {
	if a.Count == 0 {
		return nil, nil
	}
	lo, hi := a.Min, a.Max
	return &lo, &hi
}

// EqualWidthEdges splits [min, max] into bins intervals of equal width and
// returns the bins+1 edges. A zero-width range yields edges all equal to min.
func EqualWidthEdges(min, max float64, bins int) []float64 {
	if bins <= 0 {
		return nil
	}
	edges := make([]float64, bins+1)
	width := (max - min) / float64(bins)
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	edges[bins] = max
	return edges
}

// BinIndex returns the bin of v for equal-width bins over [min, max].
// The last bin is closed on the right; values outside the range are clamped.
func BinIndex(v, min, max float64, bins int) int {
	if max <= min {
		return 0
	}
	idx := int((v - min) / (max - min) * float64(bins))
	if idx < 0 {
		return 0
	}
	if idx >= bins {
		return bins - 1
	}
	return idx
}

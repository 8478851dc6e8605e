package analysis

import (
	"math"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
	"github.com/jengzang/taxi-analytics-go/internal/stats"
)

// Histogram bins metric into equal-width bins over the observed range of view.
// The last bin is closed. When every value is the same all edges are equal and
// every row lands in the first bin.
func Histogram(view dataset.FilteredView, metric string, bins int) (models.Histogram, error) {
	if bins <= 0 {
		bins = DefaultBins
	}
	h := models.Histogram{Field: metric, Bins: []models.HistogramBin{}}

	t := view.Table()
	value, err := t.Metric(metric)
	if err != nil {
		return h, err
	}
	if view.Len() == 0 {
		return h, nil
	}

	var acc stats.Accumulator
	for k := 0; k < view.Len(); k++ {
		acc.Add(value(view.Index(k)))
	}
	if acc.Count == 0 {
		return h, nil
	}

	lo, hi := acc.Min, acc.Max
	h.Min, h.Max = acc.Range()
	h.BinWidth = (hi - lo) / float64(bins)

	edges := stats.EqualWidthEdges(lo, hi, bins)
	h.Bins = make([]models.HistogramBin, bins)
	for b := range h.Bins {
		h.Bins[b].Lower = edges[b]
		h.Bins[b].Upper = edges[b+1]
	}
	for k := 0; k < view.Len(); k++ {
		v := value(view.Index(k))
		if math.IsNaN(v) {
			continue
		}
		h.Bins[stats.BinIndex(v, lo, hi, bins)].Count++
	}
	return h, nil
}

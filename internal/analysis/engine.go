package analysis

import (
	"sort"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
)

// Defaults applied when a parameter is left at zero
const (
	DefaultTopN   = 10
	DefaultBins   = 50
	DefaultMetric = models.MetricFareAmount
)

// Params carries the optional knobs of a chart
type Params struct {
	TopN   int
	Bins   int
	Metric string
}

// WithDefaults fills unset fields
func (p Params) WithDefaults() Params {
	if p.TopN <= 0 {
		p.TopN = DefaultTopN
	}
	if p.Bins <= 0 {
		p.Bins = DefaultBins
	}
	if p.Metric == "" {
		p.Metric = DefaultMetric
	}
	return p
}

// Chart computes one aggregate result over a filtered view
type Chart func(view dataset.FilteredView, zones *dataset.ZoneLookup, p Params) (interface{}, error)

// ChartRegistry maps chart names to their implementations
var ChartRegistry = make(map[string]Chart)

// RegisterChart registers a chart under name
func RegisterChart(name string, chart Chart) {
	ChartRegistry[name] = chart
}

// GetChart retrieves a chart by name
func GetChart(name string) (Chart, bool) {
	chart, ok := ChartRegistry[name]
	return chart, ok
}

// ChartNames returns the registered chart names, sorted
func ChartNames() []string {
	names := make([]string, 0, len(ChartRegistry))
	for name := range ChartRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chart names
const (
	ChartTopZones          = "top-zones"
	ChartFareByHour        = "fare-by-hour"
	ChartPaymentTypes      = "payment-types"
	ChartDayHour           = "day-hour"
	ChartDistanceHistogram = "distance-histogram"
	ChartSummary           = "summary"
)

func init() {
	RegisterChart(ChartTopZones, func(v dataset.FilteredView, z *dataset.ZoneLookup, p Params) (interface{}, error) {
		return TopZones(v, z, p.TopN), nil
	})
	RegisterChart(ChartFareByHour, func(v dataset.FilteredView, _ *dataset.ZoneLookup, p Params) (interface{}, error) {
		return MeanByHour(v, p.WithDefaults().Metric)
	})
	RegisterChart(ChartPaymentTypes, func(v dataset.FilteredView, _ *dataset.ZoneLookup, _ Params) (interface{}, error) {
		return PaymentDistribution(v), nil
	})
	RegisterChart(ChartDayHour, func(v dataset.FilteredView, _ *dataset.ZoneLookup, _ Params) (interface{}, error) {
		return DayHourCrossTab(v), nil
	})
	RegisterChart(ChartDistanceHistogram, func(v dataset.FilteredView, _ *dataset.ZoneLookup, p Params) (interface{}, error) {
		return Histogram(v, models.MetricTripDistance, p.Bins)
	})
	RegisterChart(ChartSummary, func(v dataset.FilteredView, _ *dataset.ZoneLookup, _ Params) (interface{}, error) {
		return Summarize(v), nil
	})
}

// Dashboard computes every chart of the dashboard for one view
func Dashboard(view dataset.FilteredView, zones *dataset.ZoneLookup, criteria models.FilterCriteria, p Params) (*models.Dashboard, error) {
	p = p.WithDefaults()

	byHour, err := MeanByHour(view, p.Metric)
	if err != nil {
		return nil, err
	}
	distance, err := Histogram(view, models.MetricTripDistance, p.Bins)
	if err != nil {
		return nil, err
	}

	return &models.Dashboard{
		Criteria:   criteria,
		Summary:    Summarize(view),
		TopZones:   TopZones(view, zones, p.TopN),
		FareByHour: byHour,
		Payments:   PaymentDistribution(view),
		DayHour:    DayHourCrossTab(view),
		Distance:   distance,
	}, nil
}

// Package analysis computes the grouped summaries shown on the dashboard.
// Every function is read-only over its view and safe for concurrent use.
package analysis

import (
	"sort"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
	"github.com/jengzang/taxi-analytics-go/internal/stats"
)

// TopZones counts trips per pickup zone name and returns the n busiest.
// Trips whose location id is not in zones are left out. Ties are ordered by
// zone name.
func TopZones(view dataset.FilteredView, zones *dataset.ZoneLookup, n int) []models.ZoneCount {
	if n <= 0 {
		n = DefaultTopN
	}

	// resolve each location id once
	names := make(map[int32]string)
	counts := make(map[string]int)
	t := view.Table()
	for k := 0; k < view.Len(); k++ {
		id := t.PULocationID(view.Index(k))
		name, ok := names[id]
		if !ok {
			zone, found := zones.Get(id)
			if !found {
				names[id] = ""
				continue
			}
			name = zone.Zone
			names[id] = name
		}
		if name == "" {
			continue
		}
		counts[name]++
	}

	result := make([]models.ZoneCount, 0, len(counts))
	for zone, c := range counts {
		result = append(result, models.ZoneCount{Zone: zone, TripCount: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TripCount != result[j].TripCount {
			return result[i].TripCount > result[j].TripCount
		}
		return result[i].Zone < result[j].Zone
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// MeanByHour returns the mean of metric for each pickup hour 0..23
func MeanByHour(view dataset.FilteredView, metric string) ([]models.HourlyMean, error) {
	result := make([]models.HourlyMean, 24)
	for h := range result {
		result[h].Hour = h
	}

	t := view.Table()
	value, err := t.Metric(metric)
	if err != nil {
		return nil, err
	}
	if view.Len() == 0 {
		return result, nil
	}

	var acc [24]stats.Accumulator
	for k := 0; k < view.Len(); k++ {
		i := view.Index(k)
		acc[t.PickupHour(i)].Add(value(i))
	}
	for h := range result {
		result[h].Mean = acc[h].Mean()
		result[h].Count = acc[h].Count
	}
	return result, nil
}

// PaymentDistribution returns the share of each payment code present in view,
// by count descending then code ascending
func PaymentDistribution(view dataset.FilteredView) []models.CategoryShare {
	total := view.Len()
	if total == 0 {
		return []models.CategoryShare{}
	}

	counts := make(map[int64]int)
	t := view.Table()
	for k := 0; k < total; k++ {
		counts[t.PaymentType(view.Index(k))]++
	}

	result := make([]models.CategoryShare, 0, len(counts))
	for code, c := range counts {
		result = append(result, models.CategoryShare{
			Code:       code,
			Label:      models.PaymentLabel(code),
			Count:      c,
			Proportion: float64(c) / float64(total),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Code < result[j].Code
	})
	return result
}

// DayHourCrossTab counts trips per weekday (Monday first) and pickup hour
func DayHourCrossTab(view dataset.FilteredView) models.CrossTab {
	ct := models.CrossTab{
		Rows:    models.WeekdayNames(),
		Columns: make([]int, 24),
	}
	for h := range ct.Columns {
		ct.Columns[h] = h
	}

	t := view.Table()
	for k := 0; k < view.Len(); k++ {
		i := view.Index(k)
		ct.Counts[models.WeekdayIndex(t.PickupWeekday(i))][t.PickupHour(i)]++
	}
	return ct
}

// Summarize computes the headline metrics of view
func Summarize(view dataset.FilteredView) models.TripSummary {
	var fare, total, distance, duration stats.Accumulator
	t := view.Table()
	for k := 0; k < view.Len(); k++ {
		i := view.Index(k)
		fare.Add(t.FareAmount(i))
		total.Add(t.TotalAmount(i))
		distance.Add(t.TripDistance(i))
		duration.Add(float64(t.DurationMinutes(i)))
	}

	return models.TripSummary{
		TotalTrips:         view.Len(),
		AvgFare:            fare.Mean(),
		TotalRevenue:       total.Sum,
		AvgDistanceMiles:   distance.Mean(),
		AvgDurationMinutes: duration.Mean(),
	}
}

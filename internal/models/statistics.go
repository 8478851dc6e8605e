package models

// ZoneCount is one bar of the top pickup zones chart
type ZoneCount struct {
	Zone      string `json:"zone"`
	TripCount int    `json:"trip_count"`
}

// HourlyMean is the mean of a metric for one pickup hour.
// Mean is nil when the hour has no trips.
type HourlyMean struct {
	Hour  int      `json:"hour"`
	Mean  *float64 `json:"mean"`
	Count int      `json:"count"`
}

// CategoryShare is the share of one payment type in the filtered trips
type CategoryShare struct {
	Code       int64   `json:"code"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// CrossTab is a weekday x hour trip count matrix.
// Rows are Monday..Sunday, columns are hours 0..23; missing cells are 0.
type CrossTab struct {
	Rows    []string   `json:"rows"`
	Columns []int      `json:"columns"`
	Counts  [7][24]int `json:"counts"`
}

// HistogramBin is one equal-width bin; Upper is exclusive except for the last bin
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram bins a continuous field over the observed range of the filtered trips
type Histogram struct {
	Field    string         `json:"field"`
	Min      *float64       `json:"min"`
	Max      *float64       `json:"max"`
	BinWidth float64        `json:"bin_width"`
	Bins     []HistogramBin `json:"bins"`
}

// TripSummary holds the headline metrics of the filtered trips.
// Averages are nil when there are no trips.
type TripSummary struct {
	TotalTrips         int      `json:"total_trips"`
	AvgFare            *float64 `json:"avg_fare"`
	TotalRevenue       float64  `json:"total_revenue"`
	AvgDistanceMiles   *float64 `json:"avg_distance_miles"`
	AvgDurationMinutes *float64 `json:"avg_duration_minutes"`
}

// Dashboard bundles every chart computed for one filter interaction
type Dashboard struct {
	Criteria   FilterCriteria  `json:"criteria"`
	Summary    TripSummary     `json:"summary"`
	TopZones   []ZoneCount     `json:"top_zones"`
	FareByHour []HourlyMean    `json:"fare_by_hour"`
	Payments   []CategoryShare `json:"payments"`
	DayHour    CrossTab        `json:"day_hour"`
	Distance   Histogram       `json:"distance"`
}

// Metric names accepted by hourly means and histograms
const (
	MetricFareAmount      = "fare_amount"
	MetricTotalAmount     = "total_amount"
	MetricTripDistance    = "trip_distance"
	MetricDurationMinutes = "trip_duration_minutes"
)

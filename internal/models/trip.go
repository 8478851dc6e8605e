package models

import "time"

// Validity bounds applied by the pipeline and re-asserted by the filter engine
const (
	MaxTripDistance = 100.0 // Miles
	MaxFareAmount   = 500.0 // Dollars
)

// WeekdayOrder is the fixed Monday-first row order used by day-based results
var WeekdayOrder = [7]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// WeekdayIndex returns the Monday-first position (0-6) of a weekday
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekdayNames returns the Monday-first English weekday names
func WeekdayNames() []string {
	names := make([]string, len(WeekdayOrder))
	for i, d := range WeekdayOrder {
		names[i] = d.String()
	}
	return names
}

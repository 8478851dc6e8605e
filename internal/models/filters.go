package models

import "time"

// DateLayout is the wire format of filter dates
const DateLayout = "2006-01-02"

// TripFilter represents the raw query parameters of a dashboard request
type TripFilter struct {
	StartDate string   `form:"startDate" binding:"omitempty,datetime=2006-01-02"` // YYYY-MM-DD, inclusive
	EndDate   string   `form:"endDate" binding:"omitempty,datetime=2006-01-02"`   // YYYY-MM-DD, inclusive
	StartHour *int     `form:"startHour" binding:"omitempty,min=0,max=23"`
	EndHour   *int     `form:"endHour" binding:"omitempty,min=0,max=23"`
	Payments  []string `form:"payment"` // Display labels or numeric codes
	TopN      int      `form:"topN" binding:"omitempty,min=1,max=265"`
	Bins      int      `form:"bins" binding:"omitempty,min=1,max=500"`
	Metric    string   `form:"metric" binding:"omitempty,oneof=fare_amount total_amount trip_distance trip_duration_minutes"`
}

// FilterCriteria is the validated predicate set applied to the trip table.
// Dates are UTC midnights; both ranges are inclusive.
type FilterCriteria struct {
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	StartHour    int       `json:"start_hour"`
	EndHour      int       `json:"end_hour"`
	PaymentTypes []int64   `json:"payment_types"`
}

// FilterOptions describes the selectable ranges derived from the loaded data
type FilterOptions struct {
	MinDate         string   `json:"min_date"`
	MaxDate         string   `json:"max_date"`
	MinHour         int      `json:"min_hour"`
	MaxHour         int      `json:"max_hour"`
	PaymentOptions  []string `json:"payment_options"`
	TotalTrips      int      `json:"total_trips"`
	DatasetLoadedAt string   `json:"dataset_loaded_at,omitempty"`
}

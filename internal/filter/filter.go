// Package filter applies user criteria to the trip table.
package filter

import (
	"sort"
	"time"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
)

// Apply returns the rows of table matching every predicate of c, in table order.
// Dates compare on the UTC calendar day of pickup; both ranges are inclusive.
func Apply(table *dataset.Table, c models.FilterCriteria) dataset.FilteredView {
	n := table.Len()
	if n == 0 {
		return dataset.NewView(table, nil)
	}

	startDay := dataset.DayOf(c.StartDate)
	endDay := dataset.DayOf(c.EndDate)

	var payments [256]bool
	var wide map[int64]bool
	for _, p := range c.PaymentTypes {
		if p >= 0 && p < int64(len(payments)) {
			payments[p] = true
			continue
		}
		if wide == nil {
			wide = make(map[int64]bool)
		}
		wide[p] = true
	}

	rows := make([]int32, 0, n/4)
	for i := 0; i < n; i++ {
		day := table.PickupDay(i)
		if day < startDay || day > endDay {
			continue
		}
		hour := table.PickupHour(i)
		if hour < c.StartHour || hour > c.EndHour {
			continue
		}
		code := table.PaymentType(i)
		if code >= 0 && code < int64(len(payments)) {
			if !payments[code] {
				continue
			}
		} else if !wide[code] {
			continue
		}
		d := table.TripDistance(i)
		if !(d > 0 && d <= models.MaxTripDistance) {
			continue
		}
		rows = append(rows, int32(i))
	}
	return dataset.NewView(table, rows)
}

// DataBounds describes the value ranges present in a table
type DataBounds struct {
	MinDate      time.Time
	MaxDate      time.Time
	PaymentTypes []int64
	Empty        bool
}

// Bounds scans table for its pickup date range and distinct payment codes
func Bounds(table *dataset.Table) DataBounds {
	n := table.Len()
	if n == 0 {
		return DataBounds{Empty: true}
	}

	minDay, maxDay := table.PickupDay(0), table.PickupDay(0)
	seen := make(map[int64]struct{})
	for i := 0; i < n; i++ {
		day := table.PickupDay(i)
		if day < minDay {
			minDay = day
		}
		if day > maxDay {
			maxDay = day
		}
		seen[table.PaymentType(i)] = struct{}{}
	}

	codes := make([]int64, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	return DataBounds{
		MinDate:      dataset.DayStart(minDay),
		MaxDate:      dataset.DayStart(maxDay),
		PaymentTypes: codes,
	}
}

// Full returns criteria that select every row inside b
func Full(b DataBounds) models.FilterCriteria {
	return models.FilterCriteria{
		StartDate:    b.MinDate,
		EndDate:      b.MaxDate,
		StartHour:    0,
		EndHour:      23,
		PaymentTypes: append([]int64(nil), b.PaymentTypes...),
	}
}

// Package dataset holds the materialized trip table, the zone lookup and
// the filtered views taken over them.
//
// A Table is columnar and immutable once built: the pipeline owns the Builder,
// everything downstream only reads. Views never copy column data, they carry
// row indices into the base table.
package dataset

import (
	"fmt"
	"time"

	"github.com/jengzang/taxi-analytics-go/internal/models"
)

const microsPerDay = int64(24 * time.Hour / time.Microsecond)

// Row is one projected trip as appended by the pipeline
type Row struct {
	PickupMicros    int64 // Unix microseconds, wall clock of the source
	FareAmount      float64
	TotalAmount     float64
	PULocationID    int32
	TripDistance    float64
	DurationMinutes int64
	PickupHour      uint8
	PickupWeekday   time.Weekday
	PaymentType     int64
}

// Table is the columnar, read-only trip table
type Table struct {
	pickup   []int64
	fare     []float64
	total    []float64
	location []int32
	distance []float64
	duration []int64
	hour     []uint8
	weekday  []uint8
	payment  []int64
}

// Builder accumulates rows and freezes them into a Table
type Builder struct {
	t *Table
}

// NewBuilder creates a builder with room for capacity rows
func NewBuilder(capacity int) *Builder {
	return &Builder{t: &Table{
		pickup:   make([]int64, 0, capacity),
		fare:     make([]float64, 0, capacity),
		total:    make([]float64, 0, capacity),
		location: make([]int32, 0, capacity),
		distance: make([]float64, 0, capacity),
		duration: make([]int64, 0, capacity),
		hour:     make([]uint8, 0, capacity),
		weekday:  make([]uint8, 0, capacity),
		payment:  make([]int64, 0, capacity),
	}}
}

// Append adds one row
func (b *Builder) Append(r Row) {
	t := b.t
	t.pickup = append(t.pickup, r.PickupMicros)
	t.fare = append(t.fare, r.FareAmount)
	t.total = append(t.total, r.TotalAmount)
	t.location = append(t.location, r.PULocationID)
	t.distance = append(t.distance, r.TripDistance)
	t.duration = append(t.duration, r.DurationMinutes)
	t.hour = append(t.hour, r.PickupHour)
	t.weekday = append(t.weekday, uint8(r.PickupWeekday))
	t.payment = append(t.payment, r.PaymentType)
}

// Len returns the number of rows appended so far
func (b *Builder) Len() int {
	return len(b.t.pickup)
}

// Build freezes the builder. The builder must not be used afterwards.
func (b *Builder) Build() *Table {
	t := b.t
	b.t = nil
	return t
}

// Len returns the row count
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pickup)
}

// PickupMicros returns the pickup timestamp of row i in unix microseconds
func (t *Table) PickupMicros(i int) int64 { return t.pickup[i] }

// PickupTime returns the pickup timestamp of row i
func (t *Table) PickupTime(i int) time.Time { return time.UnixMicro(t.pickup[i]).UTC() }

// PickupDay returns the pickup date of row i as days since the unix epoch
func (t *Table) PickupDay(i int) int64 { return floorDiv(t.pickup[i], microsPerDay) }

// FareAmount returns the metered fare of row i
func (t *Table) FareAmount(i int) float64 { return t.fare[i] }

// TotalAmount returns the total charged for row i, NaN when the source had none
func (t *Table) TotalAmount(i int) float64 { return t.total[i] }

// PULocationID returns the pickup zone id of row i
func (t *Table) PULocationID(i int) int32 { return t.location[i] }

// TripDistance returns the trip distance of row i in miles
func (t *Table) TripDistance(i int) float64 { return t.distance[i] }

// DurationMinutes returns the whole-minute duration of row i
func (t *Table) DurationMinutes(i int) int64 { return t.duration[i] }

// PickupHour returns the pickup hour (0-23) of row i
func (t *Table) PickupHour(i int) int { return int(t.hour[i]) }

// PickupWeekday returns the pickup weekday of row i
func (t *Table) PickupWeekday(i int) time.Weekday { return time.Weekday(t.weekday[i]) }

// PaymentType returns the payment code of row i
func (t *Table) PaymentType(i int) int64 { return t.payment[i] }

// RowAt returns row i in its append form
func (t *Table) RowAt(i int) Row {
	return Row{
		PickupMicros:    t.pickup[i],
		FareAmount:      t.fare[i],
		TotalAmount:     t.total[i],
		PULocationID:    t.location[i],
		TripDistance:    t.distance[i],
		DurationMinutes: t.duration[i],
		PickupHour:      t.hour[i],
		PickupWeekday:   time.Weekday(t.weekday[i]),
		PaymentType:     t.payment[i],
	}
}

// Metric returns an accessor for a numeric column by name
func (t *Table) Metric(name string) (func(i int) float64, error) {
	switch name {
	case models.MetricFareAmount:
		return t.FareAmount, nil
	case models.MetricTotalAmount:
		return t.TotalAmount, nil
	case models.MetricTripDistance:
		return t.TripDistance, nil
	case models.MetricDurationMinutes:
		return func(i int) float64 { return float64(t.duration[i]) }, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

// DayStart converts days since the unix epoch back to a UTC midnight
func DayStart(day int64) time.Time {
	return time.UnixMicro(day * microsPerDay).UTC()
}

// DayOf returns the days since the unix epoch of t's calendar date in UTC
func DayOf(t time.Time) int64 {
	return floorDiv(t.UTC().UnixMicro(), microsPerDay)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

package pipeline

import (
	"math"
	"time"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
)

const microsPerMinute = int64(time.Minute / time.Microsecond)

// DropReason tells why a source row was not kept
type DropReason int

const (
	Kept DropReason = iota
	DropNull
	DropDistance
	DropFare
	DropTimeOrder
)

func (r DropReason) String() string {
	switch r {
	case Kept:
		return "kept"
	case DropNull:
		return "null"
	case DropDistance:
		return "distance"
	case DropFare:
		return "fare"
	case DropTimeOrder:
		return "time_order"
	default:
		return "unknown"
	}
}

// ScanStats counts what happened to the rows of one scan
type ScanStats struct {
	FooterRows int64 // Row count declared by the file footer
	Scanned    int64
	Kept       int64
	Null       int64
	Distance   int64
	Fare       int64
	Order      int64
}

// dropReasons lists every reason a row can be dropped for
var dropReasons = [...]DropReason{DropNull, DropDistance, DropFare, DropTimeOrder}

// Dropped returns the number of rows dropped for r
func (s ScanStats) Dropped(r DropReason) int64 {
	switch r {
	case DropNull:
		return s.Null
	case DropDistance:
		return s.Distance
	case DropFare:
		return s.Fare
	case DropTimeOrder:
		return s.Order
	default:
		return 0
	}
}

func (s *ScanStats) record(r DropReason) {
	s.Scanned++
	switch r {
	case Kept:
		s.Kept++
	case DropNull:
		s.Null++
	case DropDistance:
		s.Distance++
	case DropFare:
		s.Fare++
	case DropTimeOrder:
		s.Order++
	}
}

// Classify applies the validity rules to a raw row.
// A null payment_type is not a drop reason.
func Classify(r *RawTrip) DropReason {
	for _, f := range [...]int{fieldPickup, fieldDropoff, fieldLocation, fieldDistance, fieldFare} {
		if !r.has(f) {
			return DropNull
		}
	}
	if !(r.TripDistance > 0 && r.TripDistance <= models.MaxTripDistance) {
		return DropDistance
	}
	if !(r.FareAmount > 0 && r.FareAmount <= models.MaxFareAmount) {
		return DropFare
	}
	if r.DropoffMicros < r.PickupMicros {
		return DropTimeOrder
	}
	return Kept
}

// TripDurationMinutes returns the whole minutes between pickup and dropoff, truncated
func TripDurationMinutes(pickupMicros, dropoffMicros int64) int64 {
	return (dropoffMicros - pickupMicros) / microsPerMinute
}

// TripSpeedMPH returns distance over duration in miles per hour.
// ok is false when the duration is zero and the speed is not finite.
func TripSpeedMPH(distance float64, durationMinutes int64) (float64, bool) {
	if durationMinutes <= 0 {
		return 0, false
	}
	speed := distance / (float64(durationMinutes) / 60)
	if math.IsInf(speed, 0) || math.IsNaN(speed) {
		return 0, false
	}
	return speed, true
}

// Project derives the computed columns of a kept row and reduces it to the
// stored field set
func Project(r *RawTrip) dataset.Row {
	pickup := time.UnixMicro(r.PickupMicros).UTC()
	payment := r.PaymentType
	if !r.has(fieldPayment) {
		payment = models.PaymentVoidUnknown
	}
	total := r.TotalAmount
	if !r.has(fieldTotal) {
		total = math.NaN()
	}
	return dataset.Row{
		PickupMicros:    r.PickupMicros,
		FareAmount:      r.FareAmount,
		TotalAmount:     total,
		PULocationID:    r.PULocationID,
		TripDistance:    r.TripDistance,
		DurationMinutes: TripDurationMinutes(r.PickupMicros, r.DropoffMicros),
		PickupHour:      uint8(pickup.Hour()),
		PickupWeekday:   pickup.Weekday(),
		PaymentType:     payment,
	}
}

package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

type tripFixture struct {
	Pickup   *int64   `parquet:"tpep_pickup_datetime,optional"`
	Dropoff  *int64   `parquet:"tpep_dropoff_datetime,optional"`
	Location *int32   `parquet:"PULocationID,optional"`
	Distance *float64 `parquet:"trip_distance,optional"`
	Fare     *float64 `parquet:"fare_amount,optional"`
	Total    *float64 `parquet:"total_amount,optional"`
	Payment  *int64   `parquet:"payment_type,optional"`
}

func ptr[T any](v T) *T { return &v }

func micros(s string) *int64 {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return ptr(t.UnixMicro())
}

// trip builds a fully populated fixture row
func trip(pickup, dropoff string, location int32, distance, fare float64, payment int64) tripFixture {
	return tripFixture{
		Pickup:   micros(pickup),
		Dropoff:  micros(dropoff),
		Location: ptr(location),
		Distance: ptr(distance),
		Fare:     ptr(fare),
		Total:    ptr(fare + 3.5),
		Payment:  ptr(payment),
	}
}

func writeParquet[T any](t *testing.T, path string, rows []T, opts ...parquet.WriterOption) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := parquet.NewGenericWriter[T](f, opts...)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

const zoneCSV = `"LocationID","Borough","Zone","service_zone"
1,"EWR","Newark Airport","EWR"
132,"Queens","JFK Airport","Airports"
161,"Manhattan","Midtown Center","Yellow Zone"
237,"Manhattan","Upper East Side South","Yellow Zone"
`

func writeZones(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// validRawTrip returns a decoded row that passes every validity rule
func validRawTrip() RawTrip {
	r := RawTrip{
		PickupMicros:  *micros("2024-01-15 09:00"),
		DropoffMicros: *micros("2024-01-15 09:20"),
		PULocationID:  161,
		TripDistance:  3.1,
		FareAmount:    18.4,
		TotalAmount:   24.9,
		PaymentType:   1,
	}
	for _, f := range []int{fieldPickup, fieldDropoff, fieldLocation, fieldDistance, fieldFare, fieldTotal, fieldPayment} {
		r.set(f)
	}
	return r
}

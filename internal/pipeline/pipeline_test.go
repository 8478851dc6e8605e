package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
)

func TestBuildTable_DropsInvalidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.parquet")

	nullable := func(clear func(*tripFixture)) tripFixture {
		f := trip("2024-01-15 08:00", "2024-01-15 08:10", 161, 1.2, 9, 1)
		clear(&f)
		return f
	}
	nullPayment := trip("2024-01-16 23:30", "2024-01-16 23:45", 132, 17.8, 70, 1)
	nullPayment.Payment = nil

	writeParquet(t, path, []tripFixture{
		trip("2024-01-15 09:00", "2024-01-15 09:15", 161, 2.5, 12.1, 1),
		nullable(func(f *tripFixture) { f.Pickup = nil }),
		nullable(func(f *tripFixture) { f.Dropoff = nil }),
		nullable(func(f *tripFixture) { f.Location = nil }),
		nullable(func(f *tripFixture) { f.Distance = nil }),
		nullable(func(f *tripFixture) { f.Fare = nil }),
		trip("2024-01-15 10:00", "2024-01-15 10:05", 161, 0, 5, 2),
		trip("2024-01-15 10:00", "2024-01-15 10:05", 161, 150, 5, 2),
		trip("2024-01-15 11:00", "2024-01-15 11:05", 161, 1, 0, 2),
		trip("2024-01-15 11:00", "2024-01-15 11:05", 161, 1, 650, 2),
		trip("2024-01-15 12:00", "2024-01-15 11:55", 161, 1, 8, 2),
		nullPayment,
	})

	table, stats, err := BuildTable(context.Background(), path, 3)
	require.NoError(t, err)

	assert.Equal(t, ScanStats{FooterRows: 12, Scanned: 12, Kept: 2, Null: 5, Distance: 2, Fare: 2, Order: 1}, stats)
	assert.Equal(t, int64(5), stats.Dropped(DropNull))
	assert.Equal(t, int64(1), stats.Dropped(DropTimeOrder))
	assert.Zero(t, stats.Dropped(Kept))
	require.Equal(t, 2, table.Len())

	assert.Equal(t, int64(15), table.DurationMinutes(0))
	assert.Equal(t, 9, table.PickupHour(0))
	assert.Equal(t, time.Monday, table.PickupWeekday(0))
	assert.Equal(t, int32(161), table.PULocationID(0))
	assert.InDelta(t, 15.6, table.TotalAmount(0), 1e-9)

	assert.Equal(t, 23, table.PickupHour(1))
	assert.Equal(t, time.Tuesday, table.PickupWeekday(1))
	assert.Equal(t, models.PaymentVoidUnknown, table.PaymentType(1), "null payment_type is normalized to 0")

	for i := 0; i < table.Len(); i++ {
		assert.Greater(t, table.TripDistance(i), 0.0)
		assert.LessOrEqual(t, table.TripDistance(i), models.MaxTripDistance)
		assert.Greater(t, table.FareAmount(i), 0.0)
		assert.LessOrEqual(t, table.FareAmount(i), models.MaxFareAmount)
		assert.GreaterOrEqual(t, table.DurationMinutes(i), int64(0))
		assert.True(t, table.PickupHour(i) >= 0 && table.PickupHour(i) <= 23)
	}
}

func TestBuildTable_DurationAndSpeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.parquet")
	writeParquet(t, path, []tripFixture{
		trip("2024-01-15 09:00", "2024-01-15 09:15", 161, 2.5, 12, 1),
		trip("2024-01-15 09:00", "2024-01-15 09:15", 237, 2.5, 12, 2),
	})

	table, _, err := BuildTable(context.Background(), path, 0)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	for i := 0; i < 2; i++ {
		assert.Equal(t, int64(15), table.DurationMinutes(i))
		speed, ok := TripSpeedMPH(table.TripDistance(i), table.DurationMinutes(i))
		require.True(t, ok)
		assert.InDelta(t, 10.0, speed, 1e-9)
	}
}

func TestBuildTable_SpansRowGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.parquet")
	var rows []tripFixture
	for i := 0; i < 25; i++ {
		rows = append(rows, trip("2024-01-20 14:00", "2024-01-20 14:31", 132, float64(i%5)+0.5, 20, int64(i%3)))
	}
	writeParquet(t, path, rows, parquet.MaxRowsPerRowGroup(4))

	table, stats, err := BuildTable(context.Background(), path, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(25), stats.Scanned)
	assert.Equal(t, 25, table.Len())
	assert.Equal(t, int64(31), table.DurationMinutes(24))
}

func TestBuildTable_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.parquet")
	writeParquet(t, path, []tripFixture{trip("2024-01-15 09:00", "2024-01-15 09:15", 161, 2.5, 12, 1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := BuildTable(ctx, path, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify_EachRequiredFieldNull(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*RawTrip)
	}{
		{name: "pickup", clear: func(r *RawTrip) { r.Valid &^= 1 << fieldPickup }},
		{name: "dropoff", clear: func(r *RawTrip) { r.Valid &^= 1 << fieldDropoff }},
		{name: "location", clear: func(r *RawTrip) { r.Valid &^= 1 << fieldLocation }},
		{name: "distance", clear: func(r *RawTrip) { r.Valid &^= 1 << fieldDistance }},
		{name: "fare", clear: func(r *RawTrip) { r.Valid &^= 1 << fieldFare }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRawTrip()
			require.Equal(t, Kept, Classify(&r))
			tt.clear(&r)
			assert.Equal(t, DropNull, Classify(&r))
		})
	}

	r := validRawTrip()
	r.Valid &^= 1<<fieldTotal | 1<<fieldPayment
	assert.Equal(t, Kept, Classify(&r), "total and payment may be null")
}

func TestDropReason_String(t *testing.T) {
	names := make([]string, 0, len(dropReasons))
	for _, r := range dropReasons {
		names = append(names, r.String())
	}
	assert.Equal(t, []string{"null", "distance", "fare", "time_order"}, names)
	assert.Equal(t, "kept", Kept.String())
}

func TestTripDurationMinutes_Truncates(t *testing.T) {
	pickup := *micros("2024-01-15 09:00")
	assert.Equal(t, int64(0), TripDurationMinutes(pickup, pickup+59_000_000))
	assert.Equal(t, int64(1), TripDurationMinutes(pickup, pickup+119_000_000))
}

func TestTripSpeedMPH_ZeroDuration(t *testing.T) {
	_, ok := TripSpeedMPH(3, 0)
	assert.False(t, ok)
}

func TestOpenTripFile_Missing(t *testing.T) {
	_, err := OpenTripFile(filepath.Join(t.TempDir(), "absent.parquet"))
	assert.True(t, errors.Is(err, ErrSourceFileMissing))
}

func TestOpenTripFile_SchemaErrors(t *testing.T) {
	type noFare struct {
		Pickup   int64   `parquet:"tpep_pickup_datetime"`
		Dropoff  int64   `parquet:"tpep_dropoff_datetime"`
		Location int32   `parquet:"PULocationID"`
		Distance float64 `parquet:"trip_distance"`
		Total    float64 `parquet:"total_amount"`
		Payment  int64   `parquet:"payment_type"`
	}
	type textPickup struct {
		Pickup   string  `parquet:"tpep_pickup_datetime"`
		Dropoff  int64   `parquet:"tpep_dropoff_datetime"`
		Location int32   `parquet:"PULocationID"`
		Distance float64 `parquet:"trip_distance"`
		Fare     float64 `parquet:"fare_amount"`
		Total    float64 `parquet:"total_amount"`
		Payment  int64   `parquet:"payment_type"`
	}
	type textLocation struct {
		Pickup   int64   `parquet:"tpep_pickup_datetime"`
		Dropoff  int64   `parquet:"tpep_dropoff_datetime"`
		Location string  `parquet:"PULocationID"`
		Distance float64 `parquet:"trip_distance"`
		Fare     float64 `parquet:"fare_amount"`
		Total    float64 `parquet:"total_amount"`
		Payment  int64   `parquet:"payment_type"`
	}

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.parquet")
	writeParquet(t, missing, []noFare{{Distance: 1}})
	badPickup := filepath.Join(dir, "pickup.parquet")
	writeParquet(t, badPickup, []textPickup{{Pickup: "2024-01-15 09:00"}})
	badLocation := filepath.Join(dir, "location.parquet")
	writeParquet(t, badLocation, []textLocation{{Location: "161"}})

	tests := []struct {
		name   string
		path   string
		column string
	}{
		{name: "missing column", path: missing, column: "fare_amount"},
		{name: "text timestamp", path: badPickup, column: "tpep_pickup_datetime"},
		{name: "text location", path: badLocation, column: "PULocationID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenTripFile(tt.path)
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
			assert.Equal(t, tt.column, schemaErr.Column)
			assert.Contains(t, err.Error(), tt.column)
		})
	}
}

func TestOpenTripFile_NotParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.parquet")
	writeZones(t, path, "this is not parquet")

	_, err := OpenTripFile(path)
	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestLoadZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.csv")
	writeZones(t, path, zoneCSV)

	zones, err := LoadZones(path)
	require.NoError(t, err)
	require.Len(t, zones, 4)

	lookup := dataset.NewZoneLookup(zones)
	jfk, ok := lookup.Get(132)
	require.True(t, ok)
	assert.Equal(t, "JFK Airport", jfk.Zone)
	assert.Equal(t, "Queens", jfk.Borough)
	assert.Equal(t, "Airports", jfk.ServiceZone)
}

func TestLoadZones_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadZones(filepath.Join(dir, "absent.csv"))
	assert.True(t, errors.Is(err, ErrSourceFileMissing))

	path := filepath.Join(dir, "zones.csv")
	writeZones(t, path, "LocationID,Borough\n1,EWR\n")
	_, err = LoadZones(path)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "Zone", schemaErr.Column)
}

type fakeEnsurer struct {
	calls []string
	err   error
}

func (f *fakeEnsurer) EnsureLocal(_ context.Context, url, _ string) error {
	f.calls = append(f.calls, url)
	return f.err
}

type memorySnapshots struct {
	saved *dataset.Dataset
	trip  models.SourceFingerprint
	loads int
}

func (m *memorySnapshots) LoadSnapshot(_ context.Context, trip, _ models.SourceFingerprint) (*dataset.Dataset, bool, error) {
	m.loads++
	if m.saved == nil || m.trip != trip {
		return nil, false, nil
	}
	return m.saved, true, nil
}

func (m *memorySnapshots) SaveSnapshot(_ context.Context, trip, _ models.SourceFingerprint, ds *dataset.Dataset) error {
	m.saved = ds
	m.trip = trip
	return nil
}

func testSources(t *testing.T) Sources {
	dir := t.TempDir()
	src := Sources{
		TripURL:  "https://example.test/trips.parquet",
		TripPath: filepath.Join(dir, "raw", "trips.parquet"),
		ZoneURL:  "https://example.test/zones.csv",
		ZonePath: filepath.Join(dir, "raw", "zones.csv"),
	}
	writeParquet(t, src.TripPath, []tripFixture{
		trip("2024-01-15 09:00", "2024-01-15 09:15", 161, 2.5, 12, 1),
		trip("2024-01-16 18:20", "2024-01-16 18:50", 132, 18, 70, 2),
	})
	writeZones(t, src.ZonePath, zoneCSV)
	return src
}

func TestPipelineRun(t *testing.T) {
	src := testSources(t)
	fetcher := &fakeEnsurer{}
	snapshots := &memorySnapshots{}
	p := New(src, fetcher, WithSnapshots(snapshots))

	ds, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{src.TripURL, src.ZoneURL}, fetcher.calls)
	assert.Equal(t, 2, ds.Trips.Len())
	assert.Equal(t, 4, ds.Zones.Len())
	assert.False(t, ds.LoadedAt.IsZero())
	assert.Same(t, ds, snapshots.saved)

	again, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, ds, again, "second run is served from the snapshot")
}

func TestPipelineRun_FetchError(t *testing.T) {
	src := testSources(t)
	boom := errors.New("boom")
	_, err := New(src, &fakeEnsurer{err: boom}).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

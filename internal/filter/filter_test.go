package filter

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
)

var january = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func randomTable(t *testing.T, n int, seed int64) *dataset.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	b := dataset.NewBuilder(n)
	for i := 0; i < n; i++ {
		pickup := january.Add(time.Duration(rng.Int63n(int64(31 * 24 * time.Hour))))
		b.Append(dataset.Row{
			PickupMicros:    pickup.UnixMicro(),
			FareAmount:      1 + rng.Float64()*80,
			TotalAmount:     4 + rng.Float64()*90,
			PULocationID:    int32(1 + rng.Intn(265)),
			TripDistance:    0.1 + rng.Float64()*30,
			DurationMinutes: int64(rng.Intn(90)),
			PickupHour:      uint8(pickup.Hour()),
			PickupWeekday:   pickup.Weekday(),
			PaymentType:     int64(rng.Intn(5)),
		})
	}
	return b.Build()
}

func TestApply_MaximalBoundsIsNoOp(t *testing.T) {
	table := randomTable(t, 500, 1)
	view := Apply(table, Full(Bounds(table)))

	require.Equal(t, table.Len(), view.Len())
	for k := 0; k < view.Len(); k++ {
		assert.Equal(t, k, view.Index(k))
	}
}

func TestApply_RowsAreSubsetAndMatch(t *testing.T) {
	table := randomTable(t, 2000, 7)

	criteria := []models.FilterCriteria{
		{StartDate: january.AddDate(0, 0, 4), EndDate: january.AddDate(0, 0, 10), StartHour: 7, EndHour: 9, PaymentTypes: []int64{1, 2}},
		{StartDate: january, EndDate: january, StartHour: 0, EndHour: 23, PaymentTypes: []int64{0, 1, 2, 3, 4}},
		{StartDate: january.AddDate(0, 0, 20), EndDate: january.AddDate(0, 0, 30), StartHour: 22, EndHour: 22, PaymentTypes: []int64{3}},
	}

	for _, c := range criteria {
		view := Apply(table, c)
		prev := -1
		for k := 0; k < view.Len(); k++ {
			i := view.Index(k)
			require.Greater(t, i, prev, "rows stay in table order")
			require.Less(t, i, table.Len())
			prev = i

			pickup := table.PickupTime(i)
			day := time.Date(pickup.Year(), pickup.Month(), pickup.Day(), 0, 0, 0, 0, time.UTC)
			assert.False(t, day.Before(c.StartDate) || day.After(c.EndDate))
			assert.True(t, table.PickupHour(i) >= c.StartHour && table.PickupHour(i) <= c.EndHour)
			assert.True(t, slices.Contains(c.PaymentTypes, table.PaymentType(i)))
		}

		// every row left out must fail at least one predicate
		kept := make(map[int]bool, view.Len())
		for k := 0; k < view.Len(); k++ {
			kept[view.Index(k)] = true
		}
		for i := 0; i < table.Len(); i++ {
			if kept[i] {
				continue
			}
			day := dataset.DayOf(table.PickupTime(i))
			inDate := day >= dataset.DayOf(c.StartDate) && day <= dataset.DayOf(c.EndDate)
			inHour := table.PickupHour(i) >= c.StartHour && table.PickupHour(i) <= c.EndHour
			assert.False(t, inDate && inHour && slices.Contains(c.PaymentTypes, table.PaymentType(i)), "row %d wrongly excluded", i)
		}
	}
}

func TestApply_Deterministic(t *testing.T) {
	table := randomTable(t, 1000, 3)
	c := models.FilterCriteria{
		StartDate:    january.AddDate(0, 0, 2),
		EndDate:      january.AddDate(0, 0, 15),
		StartHour:    5,
		EndHour:      18,
		PaymentTypes: []int64{1, 4},
	}

	first := Apply(table, c)
	second := Apply(table, c)
	require.Equal(t, first.Len(), second.Len())
	for k := 0; k < first.Len(); k++ {
		assert.Equal(t, first.Index(k), second.Index(k))
	}
}

func TestApply_EmptyResults(t *testing.T) {
	table := randomTable(t, 100, 5)

	none := Apply(table, models.FilterCriteria{
		StartDate: january, EndDate: january.AddDate(0, 1, 0), StartHour: 0, EndHour: 23,
	})
	assert.Equal(t, 0, none.Len(), "no payment type selected")

	outside := Apply(table, models.FilterCriteria{
		StartDate: january.AddDate(1, 0, 0), EndDate: january.AddDate(1, 0, 5), StartHour: 0, EndHour: 23,
		PaymentTypes: []int64{0, 1, 2, 3, 4},
	})
	assert.Equal(t, 0, outside.Len())

	empty := Apply(dataset.NewBuilder(0).Build(), Full(DataBounds{}))
	assert.Equal(t, 0, empty.Len())
}

func TestApply_UnusualPaymentCodes(t *testing.T) {
	b := dataset.NewBuilder(2)
	pickup := january.Add(10 * time.Hour)
	for _, code := range []int64{1, 999} {
		b.Append(dataset.Row{
			PickupMicros: pickup.UnixMicro(), FareAmount: 10, TripDistance: 1,
			PickupHour: 10, PickupWeekday: pickup.Weekday(), PaymentType: code,
		})
	}
	table := b.Build()

	view := Apply(table, models.FilterCriteria{StartDate: january, EndDate: january, EndHour: 23, PaymentTypes: []int64{999}})
	require.Equal(t, 1, view.Len())
	assert.Equal(t, 1, view.Index(0))
}

func TestBounds(t *testing.T) {
	b := dataset.NewBuilder(3)
	for _, r := range []struct {
		at   time.Time
		code int64
	}{
		{time.Date(2024, 1, 9, 23, 59, 0, 0, time.UTC), 2},
		{time.Date(2024, 1, 3, 0, 1, 0, 0, time.UTC), 1},
		{time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), 2},
	} {
		b.Append(dataset.Row{PickupMicros: r.at.UnixMicro(), TripDistance: 1, FareAmount: 5, PaymentType: r.code})
	}

	bounds := Bounds(b.Build())
	assert.False(t, bounds.Empty)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), bounds.MinDate)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), bounds.MaxDate)
	assert.Equal(t, []int64{1, 2}, bounds.PaymentTypes)

	assert.True(t, Bounds(nil).Empty)
}

package dataset

import (
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// FilteredView is a subset of a Table's rows, in base table order.
// The zero value is an empty view.
type FilteredView struct {
	table *Table
	rows  []int32
}

// NewView creates a view over rows of t. rows must be ascending indices into t.
func NewView(t *Table, rows []int32) FilteredView {
	return FilteredView{table: t, rows: rows}
}

// All returns a view over every row of t
func All(t *Table) FilteredView {
	rows := make([]int32, t.Len())
	for i := range rows {
		rows[i] = int32(i)
	}
	return FilteredView{table: t, rows: rows}
}

// Len returns the number of rows in the view
func (v FilteredView) Len() int {
	return len(v.rows)
}

// Index returns the base table index of the k-th row of the view
func (v FilteredView) Index(k int) int {
	return int(v.rows[k])
}

// Table returns the base table the view reads from
func (v FilteredView) Table() *Table {
	return v.table
}

// ExportChunkRows is the number of rows converted to a DataFrame at a time by WriteCSV
const ExportChunkRows = 50000

// Slice returns the view over rows [from, to) of v
func (v FilteredView) Slice(from, to int) FilteredView {
	return FilteredView{table: v.table, rows: v.rows[from:to]}
}

// DataFrame converts the view into a gota DataFrame with the nine trip columns.
// Only small views should be converted whole; WriteCSV works in chunks.
func (v FilteredView) DataFrame() dataframe.DataFrame {
	n := len(v.rows)
	pickup := make([]string, n)
	fare := make([]float64, n)
	total := make([]float64, n)
	location := make([]int, n)
	distance := make([]float64, n)
	duration := make([]int, n)
	hour := make([]int, n)
	weekday := make([]string, n)
	payment := make([]int, n)

	for k, idx := range v.rows {
		i := int(idx)
		t := v.table
		pickup[k] = t.PickupTime(i).Format("2006-01-02 15:04:05")
		fare[k] = t.FareAmount(i)
		total[k] = t.TotalAmount(i)
		location[k] = int(t.PULocationID(i))
		distance[k] = t.TripDistance(i)
		duration[k] = int(t.DurationMinutes(i))
		hour[k] = t.PickupHour(i)
		weekday[k] = t.PickupWeekday(i).String()
		payment[k] = int(t.PaymentType(i))
	}

	return dataframe.New(
		series.New(pickup, series.String, "tpep_pickup_datetime"),
		series.New(fare, series.Float, "fare_amount"),
		series.New(total, series.Float, "total_amount"),
		series.New(location, series.Int, "PULocationID"),
		series.New(distance, series.Float, "trip_distance"),
		series.New(duration, series.Int, "trip_duration_minutes"),
		series.New(hour, series.Int, "pickup_hour"),
		series.New(weekday, series.String, "pickup_day_of_week"),
		series.New(payment, series.Int, "payment_type"),
	)
}

// WriteCSV writes the view as CSV with a header row. Rows are converted
// ExportChunkRows at a time and w is flushed after each chunk when it can be.
func (v FilteredView) WriteCSV(w io.Writer) error {
	return v.writeCSV(w, ExportChunkRows)
}

func (v FilteredView) writeCSV(w io.Writer, chunk int) error {
	flusher, _ := w.(interface{ Flush() })
	from := 0
	for {
		to := min(from+chunk, len(v.rows))
		df := v.Slice(from, to).DataFrame()
		if df.Err != nil {
			return df.Err
		}
		if err := df.WriteCSV(w, dataframe.WriteHeader(from == 0)); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		if to == len(v.rows) {
			return nil
		}
		from = to
	}
}

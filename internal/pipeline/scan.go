package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

const defaultBatchSize = 4096

// RawTrip is one source row before cleaning. Valid has bit (1<<field) set for
// every non-null field.
type RawTrip struct {
	PickupMicros  int64
	DropoffMicros int64
	PULocationID  int32
	TripDistance  float64
	FareAmount    float64
	TotalAmount   float64
	PaymentType   int64
	Valid         uint8
}

func (r *RawTrip) has(field int) bool {
	return r.Valid&(1<<field) != 0
}

func (r *RawTrip) set(field int) {
	r.Valid |= 1 << field
}

// TripFile is an opened trip parquet file bound to TripSchema
type TripFile struct {
	path   string
	f      *os.File
	pf     *parquet.File
	schema *boundSchema
}

// OpenTripFile opens path and validates it against TripSchema
func OpenTripFile(path string) (*TripFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrSourceFileMissing, "trip file %s", path)
		}
		return nil, errors.Wrapf(err, "failed to open trip file %s", path)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to stat trip file %s", path)
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, &SchemaError{File: path, Reason: "is not a readable parquet file: " + err.Error()}
	}

	schema, err := bindSchema(path, pf.Schema())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &TripFile{path: path, f: f, pf: pf, schema: schema}, nil
}

// NumRows returns the row count recorded in the file footer
func (t *TripFile) NumRows() int64 {
	return t.pf.NumRows()
}

// Close releases the underlying file
func (t *TripFile) Close() error {
	return t.f.Close()
}

// Scan streams every row through fn, one row group and one batch at a time.
// The RawTrip passed to fn is reused between calls.
func (t *TripFile) Scan(ctx context.Context, batchSize int, fn func(*RawTrip)) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	buf := make([]parquet.Row, batchSize)
	var raw RawTrip

	for gi, rg := range t.pf.RowGroups() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.scanGroup(rg, buf, &raw, fn); err != nil {
			return errors.Wrapf(err, "row group %d of %s", gi, t.path)
		}
	}
	return nil
}

func (t *TripFile) scanGroup(rg parquet.RowGroup, buf []parquet.Row, raw *RawTrip, fn func(*RawTrip)) error {
	rows := rg.Rows()
	defer func() { _ = rows.Close() }()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			t.decode(row, raw)
			fn(raw)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (t *TripFile) decode(row parquet.Row, raw *RawTrip) {
	*raw = RawTrip{}
	for _, v := range row {
		slot, ok := t.schema.slotOf[v.Column()]
		if !ok || v.IsNull() {
			continue
		}
		raw.set(slot)
		switch slot {
		case fieldPickup:
			raw.PickupMicros = toMicros(v.Int64(), t.schema.timeUnitOf[slot])
		case fieldDropoff:
			raw.DropoffMicros = toMicros(v.Int64(), t.schema.timeUnitOf[slot])
		case fieldLocation:
			raw.PULocationID = int32(intValue(v))
		case fieldDistance:
			raw.TripDistance = floatValue(v)
		case fieldFare:
			raw.FareAmount = floatValue(v)
		case fieldTotal:
			raw.TotalAmount = floatValue(v)
		case fieldPayment:
			raw.PaymentType = int64(floatValue(v))
		}
	}
}

func toMicros(v int64, unit time.Duration) int64 {
	switch unit {
	case time.Millisecond:
		return v * 1000
	case time.Nanosecond:
		return v / 1000
	default:
		return v
	}
}

func intValue(v parquet.Value) int64 {
	switch v.Kind() {
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	default:
		return int64(floatValue(v))
	}
}

func floatValue(v parquet.Value) float64 {
	switch v.Kind() {
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	case parquet.Float:
		return float64(v.Float())
	default:
		return v.Double()
	}
}

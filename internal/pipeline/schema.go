package pipeline

import (
	"time"

	"github.com/parquet-go/parquet-go"
)

// Source fields read from the trip file, in slot order
const (
	fieldPickup = iota
	fieldDropoff
	fieldLocation
	fieldDistance
	fieldFare
	fieldTotal
	fieldPayment
	numFields
)

type columnKind int

const (
	kindTimestamp columnKind = iota
	kindInteger
	kindNumber
)

// ColumnSpec is one entry of the trip file schema contract
type ColumnSpec struct {
	Name string
	kind columnKind
	slot int
}

// TripSchema is the set of columns the pipeline requires from the trip file
var TripSchema = []ColumnSpec{
	{Name: "tpep_pickup_datetime", kind: kindTimestamp, slot: fieldPickup},
	{Name: "tpep_dropoff_datetime", kind: kindTimestamp, slot: fieldDropoff},
	{Name: "PULocationID", kind: kindInteger, slot: fieldLocation},
	{Name: "trip_distance", kind: kindNumber, slot: fieldDistance},
	{Name: "fare_amount", kind: kindNumber, slot: fieldFare},
	{Name: "total_amount", kind: kindNumber, slot: fieldTotal},
	{Name: "payment_type", kind: kindNumber, slot: fieldPayment},
}

// boundSchema maps leaf column indexes of one file to field slots
type boundSchema struct {
	slotOf     map[int]int
	kindOf     [numFields]parquet.Kind
	timeUnitOf [numFields]time.Duration
}

func bindSchema(file string, schema *parquet.Schema) (*boundSchema, error) {
	b := &boundSchema{slotOf: make(map[int]int, len(TripSchema))}
	for _, col := range TripSchema {
		leaf, ok := schema.Lookup(col.Name)
		if !ok {
			return nil, &SchemaError{File: file, Column: col.Name, Reason: "is missing"}
		}
		if leaf.MaxRepetitionLevel > 0 {
			return nil, &SchemaError{File: file, Column: col.Name, Reason: "is repeated"}
		}

		typ := leaf.Node.Type()
		kind := typ.Kind()
		switch col.kind {
		case kindTimestamp:
			if kind != parquet.Int64 {
				return nil, &SchemaError{File: file, Column: col.Name, Reason: "is not an INT64 timestamp (got " + kind.String() + ")"}
			}
			b.timeUnitOf[col.slot] = timestampUnit(typ)
		case kindInteger:
			if kind != parquet.Int32 && kind != parquet.Int64 {
				return nil, &SchemaError{File: file, Column: col.Name, Reason: "is not an integer (got " + kind.String() + ")"}
			}
		case kindNumber:
			if !isNumeric(kind) {
				return nil, &SchemaError{File: file, Column: col.Name, Reason: "is not numeric (got " + kind.String() + ")"}
			}
		}

		b.slotOf[leaf.ColumnIndex] = col.slot
		b.kindOf[col.slot] = kind
	}
	return b, nil
}

func isNumeric(k parquet.Kind) bool {
	switch k {
	case parquet.Int32, parquet.Int64, parquet.Float, parquet.Double:
		return true
	}
	return false
}

// timestampUnit reads the unit of an INT64 timestamp column.
// Columns without a timestamp logical type are taken as microseconds.
func timestampUnit(t parquet.Type) time.Duration {
	lt := t.LogicalType()
	if lt == nil || lt.Timestamp == nil {
		return time.Microsecond
	}
	switch {
	case lt.Timestamp.Unit.Millis != nil:
		return time.Millisecond
	case lt.Timestamp.Unit.Nanos != nil:
		return time.Nanosecond
	default:
		return time.Microsecond
	}
}

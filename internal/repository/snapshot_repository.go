package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jengzang/taxi-analytics-go/internal/database"
	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
)

// SnapshotRepository stores the cleaned trip table and zone lookup in SQLite.
// Only the most recent snapshot is kept.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Info returns the stored snapshot metadata, nil when there is none
func (r *SnapshotRepository) Info(ctx context.Context) (*models.SnapshotInfo, error) {
	query := `
		SELECT trip_file, trip_size, trip_mtime, zone_file, zone_size, zone_mtime,
		       row_count, loaded_at
		FROM snapshots
		ORDER BY id DESC
		LIMIT 1
	`
	var info models.SnapshotInfo
	var loadedAt int64
	err := r.db.QueryRowContext(ctx, query).Scan(
		&info.Trip.Name, &info.Trip.Size, &info.Trip.ModTime,
		&info.Zone.Name, &info.Zone.Size, &info.Zone.ModTime,
		&info.RowCount, &loadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	info.CreatedAt = time.UnixMicro(loadedAt).UTC()
	return &info, nil
}

// LoadSnapshot restores the dataset stored for the given source fingerprints.
// ok is false when no matching snapshot exists.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, trip, zone models.SourceFingerprint) (*dataset.Dataset, bool, error) {
	query := `
		SELECT id, row_count, loaded_at
		FROM snapshots
		WHERE trip_file = ? AND trip_size = ? AND trip_mtime = ?
		  AND zone_file = ? AND zone_size = ? AND zone_mtime = ?
		ORDER BY id DESC
		LIMIT 1
	`
	var id int64
	var rowCount int
	var loadedAt int64
	err := r.db.QueryRowContext(ctx, query,
		trip.Name, trip.Size, trip.ModTime,
		zone.Name, zone.Size, zone.ModTime,
	).Scan(&id, &rowCount, &loadedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query snapshot: %w", err)
	}

	table, err := r.loadTrips(ctx, id, rowCount)
	if err != nil {
		return nil, false, err
	}
	zones, err := r.loadZones(ctx, id)
	if err != nil {
		return nil, false, err
	}

	return &dataset.Dataset{
		Trips:    table,
		Zones:    dataset.NewZoneLookup(zones),
		LoadedAt: time.UnixMicro(loadedAt).UTC(),
	}, true, nil
}

func (r *SnapshotRepository) loadTrips(ctx context.Context, snapshotID int64, rowCount int) (*dataset.Table, error) {
	query := `
		SELECT pickup_us, fare_amount, total_amount, pu_location_id, trip_distance,
		       trip_duration_minutes, pickup_hour, pickup_weekday, payment_type
		FROM trips_snapshot
		WHERE snapshot_id = ?
		ORDER BY row_index
	`
	rows, err := r.db.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot trips: %w", err)
	}
	defer rows.Close()

	b := dataset.NewBuilder(rowCount)
	for rows.Next() {
		var row dataset.Row
		var total sql.NullFloat64
		var hour, weekday int
		if err := rows.Scan(
			&row.PickupMicros, &row.FareAmount, &total, &row.PULocationID, &row.TripDistance,
			&row.DurationMinutes, &hour, &weekday, &row.PaymentType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot trip: %w", err)
		}
		row.TotalAmount = math.NaN()
		if total.Valid {
			row.TotalAmount = total.Float64
		}
		row.PickupHour = uint8(hour)
		row.PickupWeekday = time.Weekday(weekday)
		b.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot trips: %w", err)
	}
	if b.Len() != rowCount {
		return nil, fmt.Errorf("snapshot is incomplete: %d of %d rows", b.Len(), rowCount)
	}
	return b.Build(), nil
}

func (r *SnapshotRepository) loadZones(ctx context.Context, snapshotID int64) ([]models.Zone, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT location_id, borough, zone, service_zone
		FROM zones_snapshot
		WHERE snapshot_id = ?
		ORDER BY location_id
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot zones: %w", err)
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var z models.Zone
		if err := rows.Scan(&z.LocationID, &z.Borough, &z.Zone, &z.ServiceZone); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// SaveSnapshot replaces any stored snapshot with ds in one transaction
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, trip, zone models.SourceFingerprint, ds *dataset.Dataset) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM trips_snapshot",
			"DELETE FROM zones_snapshot",
			"DELETE FROM snapshots",
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to clear snapshot: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (trip_file, trip_size, trip_mtime, zone_file, zone_size, zone_mtime, row_count, loaded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, trip.Name, trip.Size, trip.ModTime, zone.Name, zone.Size, zone.ModTime,
			ds.Trips.Len(), ds.LoadedAt.UnixMicro())
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get snapshot id: %w", err)
		}

		if err := insertTrips(ctx, tx, id, ds.Trips); err != nil {
			return err
		}
		return insertZones(ctx, tx, id, ds.Zones.Zones())
	})
}

func insertTrips(ctx context.Context, tx *sql.Tx, snapshotID int64, t *dataset.Table) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips_snapshot (snapshot_id, row_index, pickup_us, fare_amount, total_amount,
			pu_location_id, trip_distance, trip_duration_minutes, pickup_hour, pickup_weekday, payment_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trip insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		row := t.RowAt(i)
		var total sql.NullFloat64
		if !math.IsNaN(row.TotalAmount) {
			total = sql.NullFloat64{Float64: row.TotalAmount, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			snapshotID, i, row.PickupMicros, row.FareAmount, total,
			row.PULocationID, row.TripDistance, row.DurationMinutes,
			int(row.PickupHour), int(row.PickupWeekday), row.PaymentType,
		); err != nil {
			return fmt.Errorf("failed to insert trip %d: %w", i, err)
		}
	}
	return nil
}

func insertZones(ctx context.Context, tx *sql.Tx, snapshotID int64, zones []models.Zone) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO zones_snapshot (snapshot_id, location_id, borough, zone, service_zone)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare zone insert: %w", err)
	}
	defer stmt.Close()

	for _, z := range zones {
		if _, err := stmt.ExecContext(ctx, snapshotID, z.LocationID, z.Borough, z.Zone, z.ServiceZone); err != nil {
			return fmt.Errorf("failed to insert zone %d: %w", z.LocationID, err)
		}
	}
	return nil
}

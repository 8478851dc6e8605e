// Package pipeline turns the raw trip parquet file and the zone CSV into an
// in-memory Dataset.
//
// The trip file is never buffered whole: row groups are streamed in batches,
// rows failing the validity rules are dropped on the spot, and only the
// projected columns of kept rows reach the table builder.
package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/models"
)

// Sources locates the two raw inputs, remotely and in the local cache
type Sources struct {
	TripURL  string
	TripPath string
	ZoneURL  string
	ZonePath string
}

// Ensurer makes a remote file available at a local path
type Ensurer interface {
	EnsureLocal(ctx context.Context, url, destination string) error
}

// SnapshotStore keeps a cleaned copy of a dataset keyed by the raw file fingerprints
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, trip, zone models.SourceFingerprint) (*dataset.Dataset, bool, error)
	SaveSnapshot(ctx context.Context, trip, zone models.SourceFingerprint, ds *dataset.Dataset) error
}

// Pipeline runs fetch, scan, clean and materialize for one set of sources
type Pipeline struct {
	sources   Sources
	fetcher   Ensurer
	snapshots SnapshotStore
	batchSize int
	now       func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSnapshots enables the snapshot store
func WithSnapshots(s SnapshotStore) Option {
	return func(p *Pipeline) { p.snapshots = s }
}

// WithBatchSize sets how many rows are decoded per read
func WithBatchSize(n int) Option {
	return func(p *Pipeline) { p.batchSize = n }
}

// New creates a pipeline. fetcher may be nil when the files are already local.
func New(sources Sources, fetcher Ensurer, opts ...Option) *Pipeline {
	p := &Pipeline{
		sources:   sources,
		fetcher:   fetcher,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline and returns a new Dataset
func (p *Pipeline) Run(ctx context.Context) (*dataset.Dataset, error) {
	start := time.Now()

	if p.fetcher != nil {
		if err := p.fetcher.EnsureLocal(ctx, p.sources.TripURL, p.sources.TripPath); err != nil {
			return nil, errors.Wrap(err, "fetch trip data")
		}
		if err := p.fetcher.EnsureLocal(ctx, p.sources.ZoneURL, p.sources.ZonePath); err != nil {
			return nil, errors.Wrap(err, "fetch zone lookup")
		}
	}

	if ds, ok := p.fromSnapshot(ctx); ok {
		log.WithFields(log.Fields{
			"rows":    ds.Trips.Len(),
			"zones":   ds.Zones.Len(),
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Info("Dataset restored from snapshot")
		return ds, nil
	}

	zones, err := LoadZones(p.sources.ZonePath)
	if err != nil {
		return nil, err
	}

	table, stats, err := BuildTable(ctx, p.sources.TripPath, p.batchSize)
	if err != nil {
		return nil, err
	}

	ds := &dataset.Dataset{
		Trips:    table,
		Zones:    dataset.NewZoneLookup(zones),
		LoadedAt: p.now().UTC(),
	}

	fields := log.Fields{
		"path":         p.sources.TripPath,
		"rows_footer":  stats.FooterRows,
		"rows_scanned": stats.Scanned,
		"rows_kept":    stats.Kept,
		"zones":        ds.Zones.Len(),
		"elapsed":      time.Since(start).Round(time.Millisecond),
	}
	for _, r := range dropReasons {
		fields["drop_"+r.String()] = stats.Dropped(r)
	}
	log.WithFields(fields).Info("Dataset materialized")

	p.toSnapshot(ctx, ds)
	return ds, nil
}

// BuildTable scans the trip file at path and materializes the kept rows
func BuildTable(ctx context.Context, path string, batchSize int) (*dataset.Table, ScanStats, error) {
	var stats ScanStats

	tf, err := OpenTripFile(path)
	if err != nil {
		return nil, stats, err
	}
	defer func() { _ = tf.Close() }()

	stats.FooterRows = tf.NumRows()
	builder := dataset.NewBuilder(int(stats.FooterRows))
	err = tf.Scan(ctx, batchSize, func(r *RawTrip) {
		reason := Classify(r)
		stats.record(reason)
		if reason == Kept {
			builder.Append(Project(r))
		}
	})
	if err != nil {
		return nil, stats, errors.Wrap(err, "scan trip data")
	}
	return builder.Build(), stats, nil
}

func (p *Pipeline) fingerprints() (trip, zone models.SourceFingerprint, err error) {
	if trip, err = models.FingerprintFile(p.sources.TripPath); err != nil {
		return
	}
	zone, err = models.FingerprintFile(p.sources.ZonePath)
	return
}

func (p *Pipeline) fromSnapshot(ctx context.Context) (*dataset.Dataset, bool) {
	if p.snapshots == nil {
		return nil, false
	}
	trip, zone, err := p.fingerprints()
	if err != nil {
		return nil, false
	}
	ds, ok, err := p.snapshots.LoadSnapshot(ctx, trip, zone)
	if err != nil {
		log.WithError(err).Warn("Snapshot lookup failed, scanning source files")
		return nil, false
	}
	return ds, ok
}

func (p *Pipeline) toSnapshot(ctx context.Context, ds *dataset.Dataset) {
	if p.snapshots == nil {
		return
	}
	trip, zone, err := p.fingerprints()
	if err != nil {
		log.WithError(err).Warn("Cannot fingerprint source files, snapshot skipped")
		return
	}
	if err := p.snapshots.SaveSnapshot(ctx, trip, zone, ds); err != nil {
		log.WithError(err).Warn("Failed to save snapshot")
		return
	}
	log.WithField("rows", ds.Trips.Len()).Info("Snapshot saved")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jengzang/taxi-analytics-go/internal/analysis"
	"github.com/jengzang/taxi-analytics-go/internal/dataset"
	"github.com/jengzang/taxi-analytics-go/internal/filter"
	"github.com/jengzang/taxi-analytics-go/internal/models"
)

var (
	// ErrDatasetUnavailable wraps any failure to load the dataset
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	// ErrInvalidFilter wraps rejected filter input
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUnknownChart is returned for chart names that are not registered
	ErrUnknownChart = errors.New("unknown chart")
)

// DatasetLoader provides the memoized dataset
type DatasetLoader interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
	Loaded() *dataset.Dataset
}

// Period optionally narrows the selectable dates; zero fields are open
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod parses YYYY-MM-DD bounds; empty strings stay open
func ParsePeriod(start, end string) (Period, error) {
	var p Period
	var err error
	if start != "" {
		if p.Start, err = time.Parse(models.DateLayout, start); err != nil {
			return p, fmt.Errorf("invalid period start %q: %w", start, err)
		}
	}
	if end != "" {
		if p.End, err = time.Parse(models.DateLayout, end); err != nil {
			return p, fmt.Errorf("invalid period end %q: %w", end, err)
		}
	}
	return p, nil
}

// DashboardService turns query filters into criteria and runs the aggregations
type DashboardService struct {
	loader DatasetLoader
	period Period

	mu       sync.Mutex
	boundsOf *dataset.Dataset
	bounds   filter.DataBounds
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(loader DatasetLoader, period Period) *DashboardService {
	return &DashboardService{loader: loader, period: period}
}

// HealthStatus reports whether the dataset is ready
type HealthStatus struct {
	Status   string `json:"status"`
	Loaded   bool   `json:"dataset_loaded"`
	Trips    int    `json:"trips,omitempty"`
	Zones    int    `json:"zones,omitempty"`
	LoadedAt string `json:"loaded_at,omitempty"`
}

// Health never triggers a load
func (s *DashboardService) Health() HealthStatus {
	h := HealthStatus{Status: "ok"}
	if ds := s.loader.Loaded(); ds != nil {
		h.Loaded = true
		h.Trips = ds.Trips.Len()
		h.Zones = ds.Zones.Len()
		h.LoadedAt = ds.LoadedAt.Format(time.RFC3339)
	}
	return h
}

func (s *DashboardService) dataset(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	return ds, nil
}

// window returns the selectable bounds of ds: data bounds intersected with the period
func (s *DashboardService) window(ds *dataset.Dataset) filter.DataBounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundsOf == ds {
		return s.bounds
	}

	b := filter.Bounds(ds.Trips)
	if !b.Empty {
		lo, hi := b.MinDate, b.MaxDate
		if !s.period.Start.IsZero() && s.period.Start.After(lo) {
			lo = s.period.Start
		}
		if !s.period.End.IsZero() && s.period.End.Before(hi) {
			hi = s.period.End
		}
		if lo.After(hi) {
			log.WithFields(log.Fields{
				"data_min": b.MinDate.Format(models.DateLayout),
				"data_max": b.MaxDate.Format(models.DateLayout),
			}).Warn("Configured period does not overlap the data, using data bounds")
		} else {
			b.MinDate, b.MaxDate = lo, hi
		}
	}

	s.boundsOf, s.bounds = ds, b
	return b
}

// Options returns the selectable filter ranges
func (s *DashboardService) Options(ctx context.Context) (*models.FilterOptions, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}
	b := s.window(ds)

	opts := &models.FilterOptions{
		MinHour:         0,
		MaxHour:         23,
		PaymentOptions:  models.PaymentOptions(b.PaymentTypes),
		TotalTrips:      ds.Trips.Len(),
		DatasetLoadedAt: ds.LoadedAt.Format(time.RFC3339),
	}
	if !b.Empty {
		opts.MinDate = b.MinDate.Format(models.DateLayout)
		opts.MaxDate = b.MaxDate.Format(models.DateLayout)
	}
	return opts, nil
}

// Criteria validates f against the bounds of ds and fills defaults.
// A date range partly outside the bounds is clamped; one entirely outside is rejected.
func (s *DashboardService) Criteria(ds *dataset.Dataset, f models.TripFilter) (models.FilterCriteria, error) {
	b := s.window(ds)
	c := filter.Full(b)

	if f.StartDate != "" {
		d, err := time.Parse(models.DateLayout, f.StartDate)
		if err != nil {
			return c, fmt.Errorf("%w: startDate %q is not YYYY-MM-DD", ErrInvalidFilter, f.StartDate)
		}
		c.StartDate = d
	}
	if f.EndDate != "" {
		d, err := time.Parse(models.DateLayout, f.EndDate)
		if err != nil {
			return c, fmt.Errorf("%w: endDate %q is not YYYY-MM-DD", ErrInvalidFilter, f.EndDate)
		}
		c.EndDate = d
	}
	if c.StartDate.After(c.EndDate) {
		return c, fmt.Errorf("%w: startDate %s is after endDate %s", ErrInvalidFilter,
			c.StartDate.Format(models.DateLayout), c.EndDate.Format(models.DateLayout))
	}
	if !b.Empty {
		if c.EndDate.Before(b.MinDate) || c.StartDate.After(b.MaxDate) {
			return c, fmt.Errorf("%w: %s..%s is outside the available dates %s..%s", ErrInvalidFilter,
				c.StartDate.Format(models.DateLayout), c.EndDate.Format(models.DateLayout),
				b.MinDate.Format(models.DateLayout), b.MaxDate.Format(models.DateLayout))
		}
		c.StartDate = clampDate(c.StartDate, b.MinDate, b.MaxDate)
		c.EndDate = clampDate(c.EndDate, b.MinDate, b.MaxDate)
	}

	if f.StartHour != nil {
		c.StartHour = *f.StartHour
	}
	if f.EndHour != nil {
		c.EndHour = *f.EndHour
	}
	if c.StartHour < 0 || c.EndHour > 23 {
		return c, fmt.Errorf("%w: hours must be within 0-23", ErrInvalidFilter)
	}
	if c.StartHour > c.EndHour {
		return c, fmt.Errorf("%w: startHour %d is after endHour %d", ErrInvalidFilter, c.StartHour, c.EndHour)
	}

	if len(f.Payments) > 0 {
		codes, err := resolvePayments(f.Payments, b.PaymentTypes)
		if err != nil {
			return c, err
		}
		c.PaymentTypes = codes
	}
	return c, nil
}

func clampDate(d, lo, hi time.Time) time.Time {
	if d.Before(lo) {
		return lo
	}
	if d.After(hi) {
		return hi
	}
	return d
}

// resolvePayments maps labels to codes. A code is known when it is in the
// published dictionary or present in the data.
func resolvePayments(labels []string, present []int64) ([]int64, error) {
	known := make(map[int64]bool, len(present))
	for _, code := range present {
		known[code] = true
	}

	seen := make(map[int64]bool, len(labels))
	codes := make([]int64, 0, len(labels))
	for _, label := range labels {
		code, err := models.PaymentCode(label)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		if !known[code] && !models.IsPublishedPayment(code) {
			return nil, fmt.Errorf("%w: unknown payment type %q", ErrInvalidFilter, label)
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes, nil
}

func params(f models.TripFilter) analysis.Params {
	return analysis.Params{TopN: f.TopN, Bins: f.Bins, Metric: f.Metric}.WithDefaults()
}

// view loads the dataset, builds criteria and filters
func (s *DashboardService) view(ctx context.Context, f models.TripFilter) (*dataset.Dataset, models.FilterCriteria, dataset.FilteredView, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, models.FilterCriteria{}, dataset.FilteredView{}, err
	}
	c, err := s.Criteria(ds, f)
	if err != nil {
		return nil, c, dataset.FilteredView{}, err
	}
	return ds, c, filter.Apply(ds.Trips, c), nil
}

// Dashboard computes every chart for f
func (s *DashboardService) Dashboard(ctx context.Context, f models.TripFilter) (*models.Dashboard, error) {
	ds, c, v, err := s.view(ctx, f)
	if err != nil {
		return nil, err
	}
	return analysis.Dashboard(v, ds.Zones, c, params(f))
}

// Chart computes the registered chart name for f
func (s *DashboardService) Chart(ctx context.Context, name string, f models.TripFilter) (interface{}, error) {
	chart, ok := analysis.GetChart(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
	ds, _, v, err := s.view(ctx, f)
	if err != nil {
		return nil, err
	}
	return chart(v, ds.Zones, params(f))
}

// Export returns the filtered view for f
func (s *DashboardService) Export(ctx context.Context, f models.TripFilter) (dataset.FilteredView, error) {
	_, _, v, err := s.view(ctx, f)
	return v, err
}

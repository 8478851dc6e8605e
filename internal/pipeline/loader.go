package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
)

const loadKey = "dataset"

// Runner produces a Dataset
type Runner interface {
	Run(ctx context.Context) (*dataset.Dataset, error)
}

// Loader runs a Runner at most once per process.
// Concurrent first callers share one execution; a failed run is not kept,
// so the next call tries again.
type Loader struct {
	runner Runner
	group  singleflight.Group

	mu sync.RWMutex
	ds *dataset.Dataset
}

// NewLoader creates a loader around runner
func NewLoader(runner Runner) *Loader {
	return &Loader{runner: runner}
}

// Load returns the memoized Dataset, running the pipeline if needed.
// Cancelling ctx abandons the wait but not the shared run.
func (l *Loader) Load(ctx context.Context) (*dataset.Dataset, error) {
	if ds := l.Loaded(); ds != nil {
		return ds, nil
	}

	ch := l.group.DoChan(loadKey, func() (interface{}, error) {
		if ds := l.Loaded(); ds != nil {
			return ds, nil
		}
		ds, err := l.runner.Run(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.ds = ds
		l.mu.Unlock()
		return ds, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dataset.Dataset), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded returns the Dataset if a run already succeeded, nil otherwise
func (l *Loader) Loaded() *dataset.Dataset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ds
}

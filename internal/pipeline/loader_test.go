package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/taxi-analytics-go/internal/dataset"
)

type countingRunner struct {
	runs    int32
	release chan struct{}
	fail    int32 // number of leading runs that fail
}

func (r *countingRunner) Run(ctx context.Context) (*dataset.Dataset, error) {
	n := atomic.AddInt32(&r.runs, 1)
	if r.release != nil {
		<-r.release
	}
	if n <= atomic.LoadInt32(&r.fail) {
		return nil, errors.New("scan failed")
	}
	return &dataset.Dataset{Trips: dataset.NewBuilder(0).Build(), LoadedAt: time.Now()}, nil
}

func TestLoader_SingleFlight(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	loader := NewLoader(runner)

	const callers = 16
	results := make([]*dataset.Dataset, callers)
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			ds, err := loader.Load(context.Background())
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(runner.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.runs))
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}

	ds, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, results[0], ds)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.runs), "memoized result is reused")
}

func TestLoader_FailureIsNotMemoized(t *testing.T) {
	runner := &countingRunner{fail: 1}
	loader := NewLoader(runner)

	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, loader.Loaded())

	ds, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ds)
	assert.Same(t, ds, loader.Loaded())
	assert.Equal(t, int32(2), atomic.LoadInt32(&runner.runs))
}

func TestLoader_CallerCancelDoesNotAbortRun(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	loader := NewLoader(runner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := loader.Load(ctx)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(runner.release)
	ds, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ds)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.runs))
}

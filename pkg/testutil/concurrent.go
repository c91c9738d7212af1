package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	dErrors "clubid/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes     int32
	Errors        int32
	Conflicts     int32
	InvalidStates int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Conflicts + r.InvalidStates
}

// RunConcurrent executes fn in parallel goroutines and buckets the outcomes by domain code.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, conflicts, invalid atomic.Int32

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvalidState):
				invalid.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}
	wg.Wait()

	return &ConcurrentResult{
		Successes:     successes.Load(),
		Errors:        errs.Load(),
		Conflicts:     conflicts.Load(),
		InvalidStates: invalid.Load(),
	}
}

// RunConcurrentCtx is RunConcurrent with a shared context.
func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}

// Collect runs fn concurrently and returns every produced value in completion order.
func Collect[T any](goroutines int, fn func(idx int) (T, error)) ([]T, []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	values := make([]T, 0, goroutines)
	var errs []error

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, err := fn(idx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			values = append(values, v)
		}(i)
	}
	wg.Wait()
	return values, errs
}

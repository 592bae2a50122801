// Package utils contains helpers shared by the calibration packages.
package utils

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, at most ParallelFactor at a time, and returns the
// elapsed time and the combined error. The first failure cancels the context handed to the others.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	slots := make(chan struct{}, ParallelFactor)

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	helper := func(f SimpleFunc) {
		defer func() {
			if thePanic := recover(); thePanic != nil {
				storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				cancel()
			}
			<-slots
			wg.Done()
		}()
		if err := ctx.Err(); err != nil {
			storeError(err)
			return
		}
		err := f(ctx)
		if err != nil {
			storeError(err)
			cancel()
		}
	}

	for _, f := range fs {
		wg.Add(1)
		slots <- struct{}{}
		go helper(f)
	}

	wg.Wait()
	return time.Since(start), bigError
}

// GetInParallel runs all functions in parallel like RunInParallel and returns their results in input
// order. The result of a failed function is its zero value.
func GetInParallel[T any](ctx context.Context, fs []func(ctx context.Context) (T, error)) (time.Duration, []T, error) {
	results := make([]T, len(fs))
	simple := make([]SimpleFunc, len(fs))
	for i, f := range fs {
		i, f := i, f
		simple[i] = func(ctx context.Context) error {
			value, err := f(ctx)
			if err != nil {
				return err
			}
			results[i] = value
			return nil
		}
	}
	elapsed, err := RunInParallel(ctx, simple)
	return elapsed, results, err
}

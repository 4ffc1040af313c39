package nativesynth

import (
	"context"
	"runtime"
)

// Pool limits how many blocking Synth calls run at once to a fixed number
// of slots. Each call runs on the goroutine that calls Run; Go's runtime
// parks only that goroutine while the native DSP work blocks. A
// canceled context does not abort an in-flight native call — per the
// engine's cooperative-cancellation model, the call runs to completion
// and its result is simply discarded.
type Pool struct {
	sem chan struct{}
}

// NewPool returns a Pool with workers concurrent slots. A workers value
// of 0 defaults to runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{sem: make(chan struct{}, workers)}
}

// Run executes fn on the pool, blocking the caller's goroutine until a
// slot is free and fn returns, or ctx is canceled while waiting for a
// slot. Once fn has started it always runs to completion.
func (p *Pool) Run(ctx context.Context, fn func() []float32) ([]float32, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	return fn(), nil
}

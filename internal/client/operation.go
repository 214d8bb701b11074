package client

import (
	"context"
	"sync"
)

// Result carries the outcome of a finished call.
type Result[O any] struct {
	Value O
	Err   error
}

// Operation is a single-flight slot for one API call. Submitting while a
// call is outstanding supersedes it: the older call's result is dropped
// when it lands, never delivered. Resolve hands out a finished result
// exactly once. This suits callers that poll every tick and only ever care
// about the last thing they sent.
type Operation[I, O any] struct {
	run func(ctx context.Context, in I) (O, error)

	mu      sync.Mutex
	gen     uint64
	waiting bool
	result  *Result[O]
}

// NewOperation wraps an API call in a single-flight slot.
func NewOperation[I, O any](run func(ctx context.Context, in I) (O, error)) *Operation[I, O] {
	return &Operation[I, O]{run: run}
}

// Submit starts the call with the given input. Any outstanding call or
// undelivered result is superseded.
func (op *Operation[I, O]) Submit(ctx context.Context, in I) {
	op.mu.Lock()
	op.gen++
	gen := op.gen
	op.waiting = true
	op.result = nil
	op.mu.Unlock()

	go func() {
		value, err := op.run(ctx, in)

		op.mu.Lock()
		defer op.mu.Unlock()
		// stale response from a superseded or discarded submit
		if op.gen != gen {
			return
		}
		op.waiting = false
		op.result = &Result[O]{Value: value, Err: err}
	}()
}

// Resolve returns the finished result once. It reports false while no
// submit is outstanding or the call has not come back yet.
func (op *Operation[I, O]) Resolve() (Result[O], bool) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.result == nil {
		return Result[O]{}, false
	}
	res := *op.result
	op.result = nil
	return res, true
}

// Waiting reports whether a submitted call has not produced a result yet.
func (op *Operation[I, O]) Waiting() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.waiting
}

// Discard forgets the outstanding call and any undelivered result.
func (op *Operation[I, O]) Discard() {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.gen++
	op.waiting = false
	op.result = nil
}

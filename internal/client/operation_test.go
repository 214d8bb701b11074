package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitResolve[I, O any](t *testing.T, op *Operation[I, O]) Result[O] {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if res, ok := op.Resolve(); ok {
			return res
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for operation result")
	return Result[O]{}
}

func TestOperationDeliversResultOnce(t *testing.T) {
	op := NewOperation(func(ctx context.Context, in string) (string, error) {
		return in + "!", nil
	})

	op.Submit(context.Background(), "hello")

	res := waitResolve(t, op)
	if res.Err != nil || res.Value != "hello!" {
		t.Fatalf("result = %q, %v", res.Value, res.Err)
	}

	if _, ok := op.Resolve(); ok {
		t.Error("a consumed result must not be delivered again")
	}
}

func TestOperationReportsError(t *testing.T) {
	wantErr := errors.New("boom")
	op := NewOperation(func(ctx context.Context, in int) (int, error) {
		return 0, wantErr
	})

	op.Submit(context.Background(), 1)

	res := waitResolve(t, op)
	if !errors.Is(res.Err, wantErr) {
		t.Errorf("err = %v, want %v", res.Err, wantErr)
	}
}

// A second Submit supersedes the first: only the newest call's result may
// ever be delivered.
func TestOperationResubmitSupersedes(t *testing.T) {
	gate := make(chan struct{})
	op := NewOperation(func(ctx context.Context, in string) (string, error) {
		<-gate
		return in, nil
	})

	op.Submit(context.Background(), "first")
	op.Submit(context.Background(), "second")
	close(gate)

	res := waitResolve(t, op)
	if res.Value != "second" {
		t.Errorf("result = %q, want the superseding submit", res.Value)
	}

	// the first call's late result must have been dropped, not queued
	time.Sleep(10 * time.Millisecond)
	if _, ok := op.Resolve(); ok {
		t.Error("superseded result leaked through")
	}
}

func TestOperationWaiting(t *testing.T) {
	gate := make(chan struct{})
	op := NewOperation(func(ctx context.Context, in string) (string, error) {
		<-gate
		return in, nil
	})

	if op.Waiting() {
		t.Error("fresh operation should not be waiting")
	}

	op.Submit(context.Background(), "x")
	if !op.Waiting() {
		t.Error("operation should be waiting after submit")
	}

	close(gate)
	waitResolve(t, op)
	if op.Waiting() {
		t.Error("operation should not be waiting after the result landed")
	}
}

func TestOperationDiscard(t *testing.T) {
	gate := make(chan struct{})
	op := NewOperation(func(ctx context.Context, in string) (string, error) {
		<-gate
		return in, nil
	})

	op.Submit(context.Background(), "x")
	op.Discard()
	close(gate)

	time.Sleep(10 * time.Millisecond)
	if _, ok := op.Resolve(); ok {
		t.Error("discarded call's result leaked through")
	}
	if op.Waiting() {
		t.Error("discard must clear the waiting flag")
	}
}

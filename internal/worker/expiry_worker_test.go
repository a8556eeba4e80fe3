package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeExpirer struct {
	mu      sync.Mutex
	results []int
	err     error
	calls   int
	grace   time.Duration
}

func (f *fakeExpirer) ExpirePending(_ context.Context, grace time.Duration, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.grace = grace
	if f.err != nil {
		return 0, f.err
	}
	if len(f.results) == 0 {
		return 0, nil
	}
	n := f.results[0]
	f.results = f.results[1:]
	return n, nil
}

func (f *fakeExpirer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSweepDrainsFullBatches(t *testing.T) {
	f := &fakeExpirer{results: []int{10, 10, 3}}
	w := NewPendingExpiryWorker(f, time.Minute, time.Hour, 10)
	w.sweep(context.Background())
	assert.Equal(t, 3, f.Calls())
	assert.Equal(t, time.Hour, f.grace)
}

func TestSweepStopsOnError(t *testing.T) {
	f := &fakeExpirer{err: errors.New("db down")}
	w := NewPendingExpiryWorker(f, time.Minute, time.Hour, 10)
	w.sweep(context.Background())
	assert.Equal(t, 1, f.Calls())
}

func TestStartRunsUntilCancelled(t *testing.T) {
	f := &fakeExpirer{}
	w := NewPendingExpiryWorker(f, 10*time.Millisecond, time.Hour, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return f.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

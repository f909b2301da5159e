package client

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	var last atomic.Value
	for _, q := range []string{"c", "ca", "car", "card"} {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(q)
		})
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "card", last.Load())
}

func TestDebouncerStopAndFlush(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	d.Trigger(func() { calls.Add(10) })
	d.Flush(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncerDefaultDelay(t *testing.T) {
	assert.Equal(t, DefaultDebounce, NewDebouncer(0).delay)
	assert.Equal(t, 300*time.Millisecond, DefaultDebounce)
}

func TestDebouncerStopReportsPending(t *testing.T) {
	d := NewDebouncer(time.Hour)
	assert.False(t, d.Stop())

	d.Trigger(func() {})
	assert.True(t, d.Stop())
	assert.False(t, d.Stop())
}

func TestDebouncerFlushWaitsForFiredCall(t *testing.T) {
	d := NewDebouncer(time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	d.Trigger(func() {
		close(started)
		<-release
		record("fired")
	})
	<-started

	flushed := make(chan struct{})
	go func() {
		d.Flush(func() { record("flush") })
		close(flushed)
	}()

	select {
	case <-flushed:
		t.Fatal("flush returned while the fired call was still running")
	case <-time.After(30 * time.Millisecond):
	}
	close(release)
	<-flushed

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fired", "flush"}, order)
}

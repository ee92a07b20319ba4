package measurement

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultBufferSize = 256

// BufferOptions configures buffered stats writes.
type BufferOptions struct {
	Duration time.Duration
	Size     int
	// Aggregate merges increments for the same buckets into one write.
	Aggregate bool
	Async     bool
	// OnError receives errors from background flushes.
	OnError func(error)
}

type bufferedInc struct {
	keys   []BucketKey
	values map[string]any
}

// Buffer batches counter increments and flushes them by size and/or time.
type Buffer struct {
	driver StatsWriter

	duration  time.Duration
	size      int
	aggregate bool
	async     bool
	onError   func(error)

	mu      sync.Mutex
	bySig   map[string]*bufferedInc
	order   []string
	linear  []bufferedInc
	pending int
	closed  bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewBuffer creates a write buffer in front of driver.
func NewBuffer(driver StatsWriter, opts BufferOptions) *Buffer {
	b := &Buffer{
		driver:    driver,
		duration:  normalizeBufferDuration(opts.Duration),
		size:      normalizeBufferSize(opts.Size),
		aggregate: opts.Aggregate,
		async:     opts.Async,
		onError:   opts.OnError,
	}
	b.resetLocked()
	if b.async && b.duration > 0 {
		b.startWorker()
	}
	return b
}

// Inc enqueues an increment.
func (b *Buffer) Inc(keys []BucketKey, values map[string]any) error {
	if b == nil {
		return fmt.Errorf("buffer is nil")
	}
	if len(keys) == 0 || len(values) == 0 {
		return nil
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("buffer is closed")
	}
	b.storeLocked(keys, values)
	shouldFlush := b.pending >= b.size
	b.mu.Unlock()

	if shouldFlush {
		return b.Flush()
	}
	return nil
}

// Pending returns the number of increments waiting to be flushed.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Flush writes every queued increment to the driver.
func (b *Buffer) Flush() error {
	for _, action := range b.drain() {
		if err := b.driver.Inc(action.keys, action.values); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops the worker and flushes outstanding increments.
func (b *Buffer) Shutdown() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	stopCh := b.stopCh
	b.stopCh = nil
	b.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		b.wg.Wait()
	}
	return b.Flush()
}

func (b *Buffer) storeLocked(keys []BucketKey, values map[string]any) {
	b.pending++
	if !b.aggregate {
		b.linear = append(b.linear, bufferedInc{keys: cloneBucketKeys(keys), values: cloneCounters(values)})
		return
	}
	sig := signatureFor(keys)
	if existing, ok := b.bySig[sig]; ok {
		existing.values = mergeIncrement(existing.values, values)
		return
	}
	b.bySig[sig] = &bufferedInc{keys: cloneBucketKeys(keys), values: cloneCounters(values)}
	b.order = append(b.order, sig)
}

func (b *Buffer) drain() []bufferedInc {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == 0 {
		return nil
	}

	actions := b.linear
	if b.aggregate {
		actions = make([]bufferedInc, 0, len(b.order))
		for _, sig := range b.order {
			actions = append(actions, *b.bySig[sig])
		}
	}
	b.resetLocked()
	return actions
}

func (b *Buffer) resetLocked() {
	b.bySig = map[string]*bufferedInc{}
	b.order = nil
	b.linear = nil
	b.pending = 0
}

func (b *Buffer) startWorker() {
	stopCh := make(chan struct{})
	b.stopCh = stopCh
	b.wg.Add(1)

	go func(stop <-chan struct{}) {
		defer b.wg.Done()
		ticker := time.NewTicker(b.duration)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := b.Flush(); err != nil && b.onError != nil {
					b.onError(err)
				}
			case <-stop:
				return
			}
		}
	}(stopCh)
}

func (b *Buffer) matches(driver StatsWriter, opts BufferOptions) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.driver == driver &&
		b.duration == normalizeBufferDuration(opts.Duration) &&
		b.size == normalizeBufferSize(opts.Size) &&
		b.aggregate == opts.Aggregate &&
		b.async == opts.Async
}

func normalizeBufferDuration(value time.Duration) time.Duration {
	if value <= 0 {
		return 0
	}
	return value
}

func normalizeBufferSize(value int) int {
	if value <= 0 {
		return defaultBufferSize
	}
	return value
}

func signatureFor(keys []BucketKey) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		at := ""
		if key.At != nil {
			at = strconv.FormatInt(key.At.Unix(), 10)
		}
		parts = append(parts, strings.Join([]string{key.Prefix, key.Key, key.Granularity, at}, ":"))
	}
	return strings.Join(parts, "|")
}

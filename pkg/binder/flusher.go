package binder

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one animation frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Flusher batches visual-state writes. All writes raised during a
// validation pass are queued and applied together, so many fields
// validating at once produce one coherent update instead of interleaved
// partial states.
type Flusher interface {
	Enqueue(write func())
	// Flush applies everything queued so far immediately.
	Flush()
	Close()
}

// FrameFlusher applies queued writes once per frame tick.
type FrameFlusher struct {
	mu     sync.Mutex
	queue  []func()
	ticker *time.Ticker
	done   chan struct{}
	closed bool
}

// NewFrameFlusher starts a flusher ticking at the given interval; zero
// or negative means DefaultFrameInterval.
func NewFrameFlusher(interval time.Duration) *FrameFlusher {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	f := &FrameFlusher{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go f.loop()
	return f
}

func (f *FrameFlusher) loop() {
	for {
		select {
		case <-f.done:
			return
		case <-f.ticker.C:
			f.Flush()
		}
	}
}

func (f *FrameFlusher) Enqueue(write func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.queue = append(f.queue, write)
}

func (f *FrameFlusher) Flush() {
	f.mu.Lock()
	batch := f.queue
	f.queue = nil
	f.mu.Unlock()
	for _, write := range batch {
		write()
	}
}

// Close stops the tick loop, applying any remaining writes first.
func (f *FrameFlusher) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.ticker.Stop()
	close(f.done)
	f.Flush()
}

// SyncFlusher applies writes immediately. Used in tests and by hosts
// that already batch rendering themselves.
type SyncFlusher struct{}

func (SyncFlusher) Enqueue(write func()) { write() }
func (SyncFlusher) Flush()               {}
func (SyncFlusher) Close()               {}

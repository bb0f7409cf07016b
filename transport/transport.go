package transport

import (
	"context"
	"sync"
	"time"
)

// Config configures a Transport.
type Config struct {
	BPM float64 // quarter notes per minute (default 120)
	PPQ int     // ticks per quarter note (default 192)
}

// Transport is a monotonic tick clock with a schedule-at-tick primitive.
// It satisfies partline.Clock.
type Transport struct {
	mu      sync.Mutex
	ticks   int64
	pending scheduleHeap
	byID    map[uint64]*scheduled
	nextID  uint64 // ids start at 1
	nextSeq uint64

	bpm float64
	ppq int

	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates a stopped transport at tick zero.
func New(cfg Config) *Transport {
	if cfg.BPM <= 0 {
		cfg.BPM = 120
	}
	if cfg.PPQ <= 0 {
		cfg.PPQ = 192
	}
	return &Transport{
		byID: make(map[uint64]*scheduled),
		bpm:  cfg.BPM,
		ppq:  cfg.PPQ,
	}
}

// Ticks reports the current tick position.
func (t *Transport) Ticks() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// Schedule requests fn be invoked when the clock reaches tick. Requests at
// or before the current position fire on the next advance. The returned id
// is never zero.
func (t *Transport) Schedule(tick int64, fn func(tick int64)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.nextSeq++
	s := &scheduled{tick: tick, seq: t.nextSeq, id: t.nextID, fn: fn}
	heapPush(&t.pending, s)
	t.byID[s.id] = s
	return s.id
}

// Clear cancels a not-yet-fired schedule. Unknown ids are ignored.
func (t *Transport) Clear(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.byID[id]; ok {
		s.canceled = true
		delete(t.byID, id)
	}
}

// Advance moves the clock forward n ticks, firing due callbacks in
// (tick, sequence) order. Callbacks run without the lock held and may
// schedule further work; work scheduled at the current tick or earlier
// fires within the same advance.
func (t *Transport) Advance(n int64) {
	for i := int64(0); i < n; i++ {
		t.step()
	}
}

// step fires everything due at the current position, then moves one tick.
func (t *Transport) step() {
	for {
		t.mu.Lock()
		if t.pending.Len() == 0 || t.pending[0].tick > t.ticks {
			t.mu.Unlock()
			break
		}
		s := heapPop(&t.pending)
		if s.canceled {
			t.mu.Unlock()
			continue
		}
		delete(t.byID, s.id)
		t.mu.Unlock()
		s.fn(s.tick)
	}
	t.mu.Lock()
	t.ticks++
	t.mu.Unlock()
}

// TickDuration is the wall-clock length of one tick at the configured BPM
// and PPQ.
func (t *Transport) TickDuration() time.Duration {
	beat := time.Duration(float64(time.Minute) / t.bpm)
	return beat / time.Duration(t.ppq)
}

// Run drives the clock from a wall-clock ticker until ctx is canceled or
// Stop is called. It blocks.
func (t *Transport) Run(ctx context.Context) {
	t.mu.Lock()
	ctx, t.cancel = context.WithCancel(ctx)
	t.stopped = make(chan struct{})
	t.mu.Unlock()
	defer close(t.stopped)

	ticker := time.NewTicker(t.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.step()
		}
	}
}

// Stop halts a running Run loop and waits for it to exit. Calling Stop on a
// transport that never ran is a no-op.
func (t *Transport) Stop() {
	t.mu.Lock()
	cancel, stopped := t.cancel, t.stopped
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

package partline

import (
	"math"
	"math/rand"
)

// Loop sentinels. Positive values are an exact iteration count.
const (
	LoopOff     int64 = 0
	LoopForever int64 = -1
)

// Callback receives the tick an event fired at (humanize jitter included)
// and the event's value.
type Callback func(tick int64, value any)

// Event is a single schedulable unit owned by exactly one Part. Its loop,
// probability, humanize and rate settings are copied from the owning part
// when it is added; the part's setters keep them in sync afterwards.
type Event struct {
	value       any
	startOffset int64

	loop         int64
	loopDuration int64
	probability  float64
	humanize     int64
	playbackRate float64

	state      PlayState
	stopTick   int64 // no stop boundary when < 0
	hasPending bool
	pendingID  uint64
	pendingAt  int64
	remaining  int64

	clock    Clock
	rng      *rand.Rand
	callback Callback
	disposed bool
}

// NewEvent creates an unattached event carrying value. It becomes
// schedulable once a Part adopts it via Add, which binds the clock and the
// part's dispatch routine.
func NewEvent(value any) *Event {
	return &Event{
		value:        value,
		probability:  1,
		playbackRate: 1,
		state:        StateStopped,
		stopTick:     -1,
	}
}

// Value returns the wrapped value.
func (e *Event) Value() any {
	return e.value
}

// SetValue replaces the wrapped value.
func (e *Event) SetValue(value any) {
	e.value = value
}

// StartOffset returns the event's position in its owner's frame, in ticks.
func (e *Event) StartOffset() int64 {
	return e.startOffset
}

// State reports whether the event currently has a live schedule.
func (e *Event) State() PlayState {
	return e.state
}

// bind attaches the event to its owning part's clock, dispatch routine and
// random source.
func (e *Event) bind(clock Clock, cb Callback, rng *rand.Rand) {
	e.clock = clock
	e.callback = cb
	e.rng = rng
}

// Start schedules the event's first trigger at tick+offset. Starting an
// already-started event is a no-op, so a duplicate start cannot double a
// trigger. While looping, every trigger schedules the next one until the
// iteration budget runs out.
func (e *Event) Start(tick, offset int64) *Event {
	if e.disposed || e.clock == nil {
		return e
	}
	if e.state == StateStarted {
		if e.stopTick < 0 || tick+offset < e.stopTick {
			return e
		}
		// The current run is ending at stopTick and the new one begins at or
		// after it: supersede the old schedule.
		e.clearPending()
	}
	e.state = StateStarted
	e.stopTick = -1
	if e.loop > 0 {
		e.remaining = e.loop
	}
	e.scheduleTrigger(tick + offset)
	return e
}

// Stop ends playback at tick. An immediate stop drops the pending trigger;
// a future one records the boundary and lets triggers before it play out.
func (e *Event) Stop(tick int64) *Event {
	if e.disposed || e.state != StateStarted {
		return e
	}
	if tick <= e.clock.Ticks() {
		e.clearPending()
		e.state = StateStopped
		e.stopTick = -1
		return e
	}
	e.stopTick = tick
	if e.hasPending && e.pendingAt >= tick {
		e.clearPending()
		e.state = StateStopped
	}
	return e
}

// Cancel removes any trigger scheduled after the given tick. A trigger that
// already fired, or one due at or before the boundary, is unaffected. Safe
// to call with nothing pending.
func (e *Event) Cancel(after int64) *Event {
	if e.disposed {
		return e
	}
	if e.hasPending && e.pendingAt > after {
		e.clearPending()
		e.state = StateStopped
	}
	if e.stopTick > after {
		e.stopTick = -1
	}
	return e
}

// Dispose cancels any pending trigger and detaches the event. Calling it
// twice is harmless; the event is unusable afterwards.
func (e *Event) Dispose() {
	if e.disposed {
		return
	}
	e.clearPending()
	e.state = StateStopped
	e.disposed = true
	e.callback = nil
	e.clock = nil
	e.rng = nil
}

// scheduleNext is scheduleTrigger with the stop boundary applied: a next
// iteration that would land at or past a recorded stop ends the run instead.
func (e *Event) scheduleNext(tick int64) {
	if e.stopTick >= 0 && tick >= e.stopTick {
		e.state = StateStopped
		return
	}
	e.scheduleTrigger(tick)
}

func (e *Event) scheduleTrigger(tick int64) {
	e.pendingAt = tick
	e.pendingID = e.clock.Schedule(tick, e.trigger)
	e.hasPending = true
}

func (e *Event) clearPending() {
	if !e.hasPending {
		return
	}
	e.clock.Clear(e.pendingID)
	e.hasPending = false
}

// loopInterval is the tick distance between loop iterations, scaled by the
// playback rate. Never less than one tick.
func (e *Event) loopInterval() int64 {
	n := int64(math.Round(float64(e.loopDuration) / e.playbackRate))
	if n < 1 {
		n = 1
	}
	return n
}

// trigger runs at the scheduled tick. The next loop iteration is scheduled
// before probability is evaluated: probability gates the callback, never the
// loop. Humanize jitters only the tick reported to the callback.
func (e *Event) trigger(tick int64) {
	e.hasPending = false
	if e.disposed || e.state != StateStarted {
		return
	}
	if e.stopTick >= 0 && tick >= e.stopTick {
		e.state = StateStopped
		return
	}

	switch {
	case e.loop == LoopForever:
		e.scheduleNext(tick + e.loopInterval())
	case e.loop > 0:
		e.remaining--
		if e.remaining > 0 {
			e.scheduleNext(tick + e.loopInterval())
		} else {
			e.state = StateStopped
		}
	default:
		e.state = StateStopped
	}

	if e.probability < 1 && e.rng.Float64() >= e.probability {
		return
	}
	fireAt := tick
	if e.humanize > 0 {
		fireAt += e.rng.Int63n(2*e.humanize+1) - e.humanize
	}
	e.callback(fireAt, e.value)
}

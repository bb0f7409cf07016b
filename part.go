package partline

import (
	"math"
	"math/rand"
	"reflect"
	"time"
)

// DefaultPPQ is the tick resolution assumed by the default configuration:
// ticks per quarter note.
const DefaultPPQ = 192

// DefaultLoopEnd is one 4/4 measure at DefaultPPQ.
const DefaultLoopEnd = 4 * DefaultPPQ

// Note seeds a Part with one event at construction time.
type Note struct {
	Tick  int64
	Value any
}

// Config carries the initial settings of a Part. The zero value is usable
// but plays nothing audible per trigger (zero probability); use
// DefaultConfig for the conventional defaults.
type Config struct {
	Loop         int64 // LoopOff, LoopForever, or an iteration count
	LoopStart    int64
	LoopEnd      int64
	PlaybackRate float64
	Probability  float64
	Humanize     int64 // jitter magnitude in ticks, 0 = off
	Mute         bool
	StartOffset  int64
	Seed         int64 // random source seed; 0 = time-based
}

// DefaultConfig returns the conventional defaults: no loop, a one-measure
// loop window, rate 1, probability 1, no humanize.
func DefaultConfig() Config {
	return Config{
		LoopEnd:      DefaultLoopEnd,
		PlaybackRate: 1,
		Probability:  1,
	}
}

// Part owns an ordered list of events and a StateTimeline of its own
// start/stop history, and translates container-level operations into
// per-child scheduling actions against the clock.
type Part struct {
	clock    Clock
	callback Callback
	rng      *rand.Rand

	loop         int64
	loopStart    int64
	loopEnd      int64
	playbackRate float64
	probability  float64
	humanize     int64
	mute         bool
	startOffset  int64

	events   []*Event
	timeline *StateTimeline
	disposed bool
}

// NewPart builds a part bound to clock. Every note becomes an Add call, so
// insertion order is preserved for tie-breaks in At lookups.
func NewPart(clock Clock, callback Callback, notes []Note, cfg Config) *Part {
	if cfg.PlaybackRate <= 0 {
		cfg.PlaybackRate = 1
	}
	if cfg.Probability < 0 {
		cfg.Probability = 0
	} else if cfg.Probability > 1 {
		cfg.Probability = 1
	}
	if cfg.LoopEnd == 0 {
		cfg.LoopEnd = DefaultLoopEnd
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	p := &Part{
		clock:        clock,
		callback:     callback,
		rng:          rand.New(rand.NewSource(seed)),
		loop:         cfg.Loop,
		loopStart:    cfg.LoopStart,
		loopEnd:      cfg.LoopEnd,
		playbackRate: cfg.PlaybackRate,
		probability:  cfg.Probability,
		humanize:     cfg.Humanize,
		mute:         cfg.Mute,
		startOffset:  cfg.StartOffset,
		timeline:     NewStateTimeline(),
	}
	for _, n := range notes {
		p.Add(n.Tick, n.Value)
	}
	return p
}

// Start begins playback at tick, offset ticks into the part's content. When
// looping, an offset of zero means the loop start. A start at a tick where
// the timeline already reads started is ignored.
func (p *Part) Start(tick, offset int64) *Part {
	if p.disposed {
		return p
	}
	if p.timeline.StateAtTime(tick) == StateStarted {
		return p
	}
	if p.loop != LoopOff && offset == 0 {
		offset = p.loopStart
	}
	p.timeline.Add(StateRecord{Tick: tick, State: StateStarted, Offset: offset})
	for _, ev := range p.events {
		p.startNote(ev, tick, offset)
	}
	return p
}

// Stop ends playback at tick and propagates the stop to every child. A stop
// at a tick where the timeline does not read started is ignored.
func (p *Part) Stop(tick int64) *Part {
	if p.disposed {
		return p
	}
	if p.timeline.StateAtTime(tick) != StateStarted {
		return p
	}
	p.timeline.SetStateAtTime(StateStopped, tick)
	for _, ev := range p.events {
		ev.Stop(tick)
	}
	return p
}

// Add places value at tick. An *Event value is adopted as-is; anything else
// is wrapped in a new event. The child inherits the part's loop,
// probability, humanize and rate settings at insertion time, and is
// positioned immediately when the timeline reads started now, so no fresh
// Start call is needed.
func (p *Part) Add(tick int64, value any) *Part {
	if p.disposed {
		return p
	}
	ev, ok := value.(*Event)
	if !ok {
		ev = NewEvent(value)
	}
	ev.startOffset = tick
	ev.bind(p.clock, p.dispatch, p.rng)
	p.inherit(ev)
	p.events = append(p.events, ev)

	now := p.clock.Ticks()
	if p.timeline.StateAtTime(now) == StateStarted {
		if rec, ok := p.timeline.EventAtTime(now); ok {
			p.startNote(ev, rec.Tick, rec.Offset)
		}
	}
	return p
}

// Remove drops every child at tick whose value deep-equals value; a nil
// value matches on tick alone. Removed children are disposed. Matching
// nothing is a no-op.
func (p *Part) Remove(tick int64, value any) *Part {
	if p.disposed {
		return p
	}
	// Reverse index iteration so removal never skips an element.
	for i := len(p.events) - 1; i >= 0; i-- {
		ev := p.events[i]
		if ev.startOffset != tick {
			continue
		}
		if value != nil && !reflect.DeepEqual(ev.value, value) {
			continue
		}
		ev.Dispose()
		p.events = append(p.events[:i], p.events[i+1:]...)
	}
	return p
}

// RemoveAll disposes and drops every child.
func (p *Part) RemoveAll() *Part {
	if p.disposed {
		return p
	}
	for _, ev := range p.events {
		ev.Dispose()
	}
	p.events = nil
	return p
}

// At returns the first child whose position equals tick, or nil. With
// integer ticks the one-quantum tolerance collapses to exact equality.
func (p *Part) At(tick int64) *Event {
	for _, ev := range p.events {
		if ev.startOffset == tick {
			return ev
		}
	}
	return nil
}

// SetAt overwrites the value of the first child at tick, creating one via
// Add when none exists. Returns the affected child.
func (p *Part) SetAt(tick int64, value any) *Event {
	if p.disposed {
		return nil
	}
	if ev := p.At(tick); ev != nil {
		ev.value = value
		return ev
	}
	p.Add(tick, value)
	return p.events[len(p.events)-1]
}

// Cancel drops every timeline record and pending trigger after the given
// tick. State at or before the boundary is preserved; repeating the call is
// a no-op.
func (p *Part) Cancel(after int64) *Part {
	if p.disposed {
		return p
	}
	p.timeline.Cancel(after)
	for _, ev := range p.events {
		ev.Cancel(after)
	}
	return p
}

// Len reports the number of child events.
func (p *Part) Len() int {
	return len(p.events)
}

// State reports the timeline state at the clock's current tick.
func (p *Part) State() PlayState {
	return p.timeline.StateAtTime(p.clock.Ticks())
}

// Dispose releases every child and the timeline. Calling it twice is
// harmless; no operation on the part is valid afterwards.
func (p *Part) Dispose() *Part {
	if p.disposed {
		return p
	}
	p.disposed = true
	for _, ev := range p.events {
		ev.Dispose()
	}
	p.events = nil
	p.timeline.Dispose()
	return p
}

//
// Properties. Each setter updates the part then fans the value out to every
// child; the loop-affecting ones retest window membership.
//

func (p *Part) Loop() int64 { return p.loop }

// SetLoop switches looping mode and retests every child's loop-window
// membership.
func (p *Part) SetLoop(loop int64) {
	if p.disposed {
		return
	}
	p.loop = loop
	dur := p.loopEnd - p.loopStart
	for _, ev := range p.events {
		ev.loop = loop
		ev.loopDuration = dur
	}
	p.retestWindow()
}

func (p *Part) LoopStart() int64 { return p.loopStart }

// SetLoopStart moves the lower loop boundary.
func (p *Part) SetLoopStart(tick int64) {
	if p.disposed {
		return
	}
	p.loopStart = tick
	p.fanLoopDuration()
	p.retestWindow()
}

func (p *Part) LoopEnd() int64 { return p.loopEnd }

// SetLoopEnd moves the upper loop boundary.
func (p *Part) SetLoopEnd(tick int64) {
	if p.disposed {
		return
	}
	p.loopEnd = tick
	p.fanLoopDuration()
	p.retestWindow()
}

func (p *Part) Probability() float64 { return p.probability }

// SetProbability clamps to [0,1] and fans out.
func (p *Part) SetProbability(prob float64) {
	if p.disposed {
		return
	}
	p.probability = math.Min(1, math.Max(0, prob))
	for _, ev := range p.events {
		ev.probability = p.probability
	}
}

func (p *Part) Humanize() int64 { return p.humanize }

// SetHumanize sets the jitter magnitude in ticks (0 disables) and fans out.
func (p *Part) SetHumanize(ticks int64) {
	if p.disposed {
		return
	}
	if ticks < 0 {
		ticks = 0
	}
	p.humanize = ticks
	for _, ev := range p.events {
		ev.humanize = ticks
	}
}

func (p *Part) PlaybackRate() float64 { return p.playbackRate }

// SetPlaybackRate fans the new rate out; non-positive rates are ignored.
func (p *Part) SetPlaybackRate(rate float64) {
	if p.disposed || rate <= 0 {
		return
	}
	p.playbackRate = rate
	for _, ev := range p.events {
		ev.playbackRate = rate
	}
}

func (p *Part) Mute() bool { return p.mute }

// SetMute toggles the dispatch gate. Children keep their schedules; the
// check happens per trigger.
func (p *Part) SetMute(mute bool) {
	if p.disposed {
		return
	}
	p.mute = mute
}

func (p *Part) StartOffset() int64 { return p.startOffset }

// SetStartOffset shifts the whole group's baseline, retroactively moving
// every child's effective position.
func (p *Part) SetStartOffset(offset int64) {
	if p.disposed {
		return
	}
	p.startOffset = offset
	p.retestWindow()
}

func (p *Part) fanLoopDuration() {
	dur := p.loopEnd - p.loopStart
	for _, ev := range p.events {
		ev.loopDuration = dur
	}
}

// startNote positions one child against a started record at tick at with
// the recorded playback offset. pos is the child's place in the part's own
// frame; children outside the loop window stay dormant.
func (p *Part) startNote(ev *Event, at, offset int64) {
	pos := ev.startOffset - p.startOffset
	rel := pos - offset
	if p.loop == LoopOff {
		if rel < 0 {
			return // playback begins past this event
		}
		if at+rel < p.clock.Ticks() {
			return // slot already behind the clock, nothing to catch up to
		}
		ev.Start(at, rel)
		return
	}
	if pos < p.loopStart || pos >= p.loopEnd {
		return
	}
	interval := ev.loopInterval()
	if rel < 0 {
		rel += interval // missed this pass, first fire on the next loop
	}
	// A child added mid-flight may resolve to a tick already behind the
	// clock; push it forward whole iterations until it lands in the future.
	if now := p.clock.Ticks(); at+rel < now {
		behind := now - (at + rel)
		rel += ((behind + interval - 1) / interval) * interval
	}
	ev.Start(at, rel)
}

// inherit copies the part's settings onto a freshly added child.
func (p *Part) inherit(ev *Event) {
	ev.loop = p.loop
	ev.loopDuration = p.loopEnd - p.loopStart
	ev.probability = p.probability
	ev.humanize = p.humanize
	ev.playbackRate = p.playbackRate
}

// dispatch is every child's bound callback. The timeline is consulted at
// the clock's current tick rather than the scheduled one, so a stop
// recorded after scheduling still silences triggers that have not fired
// yet, without canceling them one by one.
func (p *Part) dispatch(tick int64, value any) {
	if p.disposed || p.mute {
		return
	}
	if p.timeline.StateAtTime(p.clock.Ticks()) != StateStarted {
		return
	}
	p.callback(tick, value)
}

// retestWindow re-evaluates loop-window membership after a loop-affecting
// write. Children that fell out of the window lose their pending trigger
// but stay in the event list; dormant children that moved inside are
// repositioned when the part is running.
func (p *Part) retestWindow() {
	if p.loop == LoopOff {
		return
	}
	now := p.clock.Ticks()
	started := p.timeline.StateAtTime(now) == StateStarted
	rec, ok := p.timeline.EventAtTime(now)
	for _, ev := range p.events {
		pos := ev.startOffset - p.startOffset
		if pos < p.loopStart || pos >= p.loopEnd {
			ev.Cancel(now)
			continue
		}
		if started && ok && ev.state == StateStopped {
			p.startNote(ev, rec.Tick, rec.Offset)
		}
	}
}

package partline

import (
	"math/rand"
	"testing"

	"github.com/partline/partline/transport"
)

func newTestEvent(tr *transport.Transport, value any, cb Callback) *Event {
	ev := NewEvent(value)
	ev.bind(tr, cb, rand.New(rand.NewSource(1)))
	return ev
}

func TestEventFiresOnce(t *testing.T) {
	tr := transport.New(transport.Config{})
	var fired []int64
	ev := newTestEvent(tr, "kick", func(tick int64, value any) {
		fired = append(fired, tick)
	})

	ev.Start(10, 5)
	tr.Advance(100)

	if len(fired) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(fired))
	}
	if fired[0] != 15 {
		t.Errorf("expected trigger at tick 15, got %d", fired[0])
	}
	if ev.State() != StateStopped {
		t.Errorf("expected stopped after a one-shot fires, got %s", ev.State())
	}
}

func TestEventDuplicateStartIsNoop(t *testing.T) {
	tr := transport.New(transport.Config{})
	var count int
	ev := newTestEvent(tr, nil, func(int64, any) { count++ })

	ev.Start(10, 0)
	ev.Start(10, 0)
	ev.Start(20, 0)
	tr.Advance(50)

	if count != 1 {
		t.Errorf("expected a single trigger from duplicate starts, got %d", count)
	}
}

func TestEventLoopForever(t *testing.T) {
	tr := transport.New(transport.Config{})
	var fired []int64
	ev := newTestEvent(tr, nil, func(tick int64, _ any) { fired = append(fired, tick) })
	ev.loop = LoopForever
	ev.loopDuration = 96

	ev.Start(0, 0)
	tr.Advance(96 * 3)

	want := []int64{0, 96, 192}
	if len(fired) != len(want) {
		t.Fatalf("expected %d triggers, got %d (%v)", len(want), len(fired), fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("trigger %d: expected tick %d, got %d", i, want[i], fired[i])
		}
	}
}

func TestEventLoopCountLimitsIterations(t *testing.T) {
	tr := transport.New(transport.Config{})
	var count int
	ev := newTestEvent(tr, nil, func(int64, any) { count++ })
	ev.loop = 3
	ev.loopDuration = 10

	ev.Start(0, 0)
	tr.Advance(200)

	if count != 3 {
		t.Errorf("expected exactly 3 triggers, got %d", count)
	}
	if ev.State() != StateStopped {
		t.Errorf("expected stopped after the loop budget, got %s", ev.State())
	}
}

func TestEventPlaybackRateScalesLoopInterval(t *testing.T) {
	tr := transport.New(transport.Config{})
	var fired []int64
	ev := newTestEvent(tr, nil, func(tick int64, _ any) { fired = append(fired, tick) })
	ev.loop = LoopForever
	ev.loopDuration = 96
	ev.playbackRate = 2

	ev.Start(0, 0)
	tr.Advance(97)

	want := []int64{0, 48, 96}
	if len(fired) != len(want) {
		t.Fatalf("expected %d triggers at double rate, got %d (%v)", len(want), len(fired), fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("trigger %d: expected tick %d, got %d", i, want[i], fired[i])
		}
	}
}

func TestEventProbabilityZeroNeverFires(t *testing.T) {
	tr := transport.New(transport.Config{})
	var count int
	ev := newTestEvent(tr, nil, func(int64, any) { count++ })
	ev.loop = LoopForever
	ev.loopDuration = 10
	ev.probability = 0

	ev.Start(0, 0)
	tr.Advance(100)

	if count != 0 {
		t.Errorf("expected no callbacks at probability 0, got %d", count)
	}
	if !ev.hasPending {
		t.Error("expected the loop to keep rescheduling regardless of probability")
	}
}

func TestEventHumanizeJittersReportedTickOnly(t *testing.T) {
	tr := transport.New(transport.Config{})
	var fired []int64
	ev := newTestEvent(tr, nil, func(tick int64, _ any) { fired = append(fired, tick) })
	ev.loop = LoopForever
	ev.loopDuration = 100
	ev.humanize = 5

	ev.Start(0, 0)
	tr.Advance(301)

	if len(fired) != 4 {
		t.Fatalf("expected 4 triggers, got %d", len(fired))
	}
	for i, tick := range fired {
		base := int64(i) * 100
		if tick < base-5 || tick > base+5 {
			t.Errorf("trigger %d: reported tick %d outside ±5 of %d", i, tick, base)
		}
	}
}

func TestEventStopDropsFutureTrigger(t *testing.T) {
	tr := transport.New(transport.Config{})
	var count int
	ev := newTestEvent(tr, nil, func(int64, any) { count++ })

	ev.Start(50, 0)
	tr.Advance(10)
	ev.Stop(20) // boundary before the pending trigger
	tr.Advance(100)

	if count != 0 {
		t.Errorf("expected no triggers after stop, got %d", count)
	}
}

func TestEventFutureStopLetsEarlierTriggersPlay(t *testing.T) {
	tr := transport.New(transport.Config{})
	var fired []int64
	ev := newTestEvent(tr, nil, func(tick int64, _ any) { fired = append(fired, tick) })
	ev.loop = LoopForever
	ev.loopDuration = 10

	ev.Start(0, 0)
	tr.Advance(5)
	ev.Stop(25) // triggers at 10 and 20 still play; 30 does not
	tr.Advance(100)

	want := []int64{0, 10, 20}
	if len(fired) != len(want) {
		t.Fatalf("expected %v, got %v", want, fired)
	}
	if ev.State() != StateStopped {
		t.Errorf("expected stopped once the boundary passed, got %s", ev.State())
	}
}

func TestEventRestartSupersedesEndingRun(t *testing.T) {
	tr := transport.New(transport.Config{})
	var fired []int64
	ev := newTestEvent(tr, nil, func(tick int64, _ any) { fired = append(fired, tick) })
	ev.loop = LoopForever
	ev.loopDuration = 100

	ev.Start(0, 0)
	tr.Advance(10)
	ev.Stop(50)
	ev.Start(60, 0) // begins at the boundary or later: adopts the new schedule
	tr.Advance(120)

	want := []int64{0, 60}
	if len(fired) != len(want) {
		t.Fatalf("expected %v, got %v", want, fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("trigger %d: expected %d, got %d", i, want[i], fired[i])
		}
	}
}

func TestEventCancelRemovesOnlyFutureTriggers(t *testing.T) {
	tr := transport.New(transport.Config{})
	var fired []int64
	ev := newTestEvent(tr, nil, func(tick int64, _ any) { fired = append(fired, tick) })
	ev.loop = LoopForever
	ev.loopDuration = 50

	ev.Start(0, 0)
	tr.Advance(60) // fires at 0 and 50; next pending at 100
	ev.Cancel(80)
	tr.Advance(200)

	if len(fired) != 2 {
		t.Errorf("expected the fired triggers to survive cancel, got %d (%v)", len(fired), fired)
	}

	ev.Cancel(80) // nothing pending: must be a no-op
}

func TestEventDisposeIsIdempotent(t *testing.T) {
	tr := transport.New(transport.Config{})
	ev := newTestEvent(tr, nil, func(int64, any) {})
	ev.Start(10, 0)
	ev.Dispose()
	ev.Dispose()
	tr.Advance(50)

	if ev.State() != StateStopped {
		t.Errorf("expected stopped after dispose, got %s", ev.State())
	}
	// Operations on a disposed event must not fault.
	ev.Start(0, 0)
	ev.Stop(0)
	ev.Cancel(0)
}

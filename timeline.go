package partline

import "sort"

// PlayState is the container-level play state recorded on a StateTimeline.
type PlayState string

const (
	StateStopped PlayState = "stopped"
	StateStarted PlayState = "started"
)

// StateRecord is one entry in a StateTimeline. Offset preserves the playback
// offset that was in effect when a started record was written; it is needed
// to position children added after the container is already playing.
type StateRecord struct {
	Tick   int64
	State  PlayState
	Offset int64
}

// StateTimeline is an ordered log of play-state changes, queried by tick.
// The implicit state before the first record is StateStopped.
type StateTimeline struct {
	records []StateRecord
}

// NewStateTimeline returns an empty timeline.
func NewStateTimeline() *StateTimeline {
	return &StateTimeline{}
}

// Add inserts rec keeping the log ordered by tick. A record already present
// at the same tick is superseded (last write wins).
func (t *StateTimeline) Add(rec StateRecord) {
	i := sort.Search(len(t.records), func(i int) bool {
		return t.records[i].Tick >= rec.Tick
	})
	if i < len(t.records) && t.records[i].Tick == rec.Tick {
		t.records[i] = rec
		return
	}
	t.records = append(t.records, StateRecord{})
	copy(t.records[i+1:], t.records[i:])
	t.records[i] = rec
}

// SetStateAtTime records a bare state change at tick.
func (t *StateTimeline) SetStateAtTime(state PlayState, tick int64) {
	t.Add(StateRecord{Tick: tick, State: state})
}

// StateAtTime returns the state of the last record with Tick <= tick, or
// StateStopped when the log is empty or every record is later.
func (t *StateTimeline) StateAtTime(tick int64) PlayState {
	if rec, ok := t.EventAtTime(tick); ok {
		return rec.State
	}
	return StateStopped
}

// EventAtTime returns the full last record with Tick <= tick. The second
// return is false when no record covers the query.
func (t *StateTimeline) EventAtTime(tick int64) (StateRecord, bool) {
	i := sort.Search(len(t.records), func(i int) bool {
		return t.records[i].Tick > tick
	})
	if i == 0 {
		return StateRecord{}, false
	}
	return t.records[i-1], true
}

// Cancel removes every record with Tick > after. Records at or before the
// boundary are never touched; calling it again with the same bound is a
// no-op.
func (t *StateTimeline) Cancel(after int64) {
	i := sort.Search(len(t.records), func(i int) bool {
		return t.records[i].Tick > after
	})
	t.records = t.records[:i]
}

// Len reports the number of records.
func (t *StateTimeline) Len() int {
	return len(t.records)
}

// Dispose releases all records. The timeline remains usable but empty.
func (t *StateTimeline) Dispose() {
	t.records = nil
}

package partline

// Clock is the master transport a Part schedules against. Scheduling is
// advisory: the clock alone decides when a callback actually runs, by
// invoking it once its position reaches the requested tick.
type Clock interface {
	// Ticks reports the clock's current tick position.
	Ticks() int64

	// Schedule requests that fn be invoked with the scheduled tick when the
	// clock reaches it. A request at or before the current position fires on
	// the next advance. The returned id can be passed to Clear.
	Schedule(tick int64, fn func(tick int64)) uint64

	// Clear cancels a not-yet-fired schedule. Unknown or already-fired ids
	// are ignored.
	Clear(id uint64)
}

// Package partline schedules collections of discrete, timed events against
// an external monotonic tick clock.
//
// The core type is Part: a container of scheduled events that can be started
// and stopped at arbitrary future ticks, looped within a configurable
// window, and mutated (add/remove) while playing. Each child event carries
// its own probability, humanize jitter, and playback rate, inherited from
// the part when it is added.
//
// A Part never owns time. All scheduling goes through the Clock interface,
// and the clock alone decides when triggers actually fire. The transport
// subpackage provides a clock implementation; any type satisfying Clock
// works.
//
// Parts are single-threaded by design: every public call and every trigger
// callback is expected to run on the same logical thread as the clock that
// drives them. See the transport package for how to funnel mutations into
// the tick loop.
package partline

// Package transport implements the master tick clock that partline parts
// schedule against.
//
// A Transport keeps a monotonic tick position and a min-heap of scheduled
// callbacks. It can be driven two ways:
//
//   - Advance(n) steps the clock manually, firing every due callback in
//     (tick, sequence) order. This is the deterministic mode used by tests.
//   - Run(ctx) drives the same step from a wall-clock ticker whose period
//     is derived from BPM and PPQ, until the context is canceled or Stop
//     is called.
//
// Callbacks run on the goroutine that advances the clock. Anything that
// mutates a Part should run there too: either before Run starts, or from a
// scheduled callback.
package transport

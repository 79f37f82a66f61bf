// internal/debounce/doc.go

// Package debounce turns noisy button samples into click and hold events.
//
// Tick-context contract: Sample is called from one goroutine at a fixed
// period. It runs in bounded time, never blocks, never allocates and takes
// no locks. The only state shared with other goroutines are the two event
// flags, which are exchanged atomically. PollClick and PollHold may be called
// from any goroutine.
//
// Events are coalesced: if a click is raised before the previous one was
// polled, the consumer sees a single click.
package debounce

package wake

import "sync/atomic"

// Flag is the single datum shared with interrupt context. Set is idempotent
// and Consume reads and clears in one step, so any number of edges before a
// poll collapse into one pending request.
type Flag struct {
	v atomic.Bool
}

// Set marks a request pending. Safe to call from an interrupt handler.
func (f *Flag) Set() { f.v.Store(true) }

// Consume clears the flag and reports whether it was set.
func (f *Flag) Consume() bool { return f.v.Swap(false) }

// Pending reports the flag without clearing it.
func (f *Flag) Pending() bool { return f.v.Load() }

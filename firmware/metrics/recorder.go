// Package metrics provides observability hooks for the device core.
//
// Components receive a Recorder and default to NoopRecorder, so the device
// build carries no metrics code. The simulator injects a PrometheusRecorder.
package metrics

import "time"

// Result labels.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Reset sources.
const (
	ResetButton  = "button"
	ResetRequest = "request"
)

// Recorder defines the device hooks. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// ObserveRender records one refresh of the given screen.
	ObserveRender(mode string, d time.Duration, ok bool)
	// IncOperation counts a core operation by outcome (ResultOK or an error
	// kind name).
	IncOperation(op, outcome string)
	// IncReset counts completed resets by source.
	IncReset(source string)
	// IncSleep counts entries into deep sleep.
	IncSleep()
	// SetScreen records the screen currently shown.
	SetScreen(mode string)
}

// NoopRecorder does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRender(string, time.Duration, bool) {}
func (NoopRecorder) IncOperation(string, string)               {}
func (NoopRecorder) IncReset(string)                           {}
func (NoopRecorder) IncSleep()                                 {}
func (NoopRecorder) SetScreen(string)                          {}

package device

import (
	"context"
	"errors"

	"todowrist/firmware/prefs"
	"todowrist/firmware/render"
	"todowrist/firmware/tasks"
)

// Kind groups errors by how the collaborator should react.
type Kind uint8

const (
	KindOK Kind = iota
	// KindInvalidIndex: index outside 0..4, nothing changed.
	KindInvalidIndex
	// KindStorageUnavailable: the write was skipped, retry later.
	KindStorageUnavailable
	// KindDisplayInitFailure: state changed but the panel kept its old
	// content.
	KindDisplayInitFailure
	// KindUnrecognizedStyleValue: a color outside white/black/red.
	KindUnrecognizedStyleValue
	// KindBusy: the main loop did not answer in time (asleep or stopped).
	KindBusy
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindInvalidIndex:
		return "invalid_index"
	case KindStorageUnavailable:
		return "storage_unavailable"
	case KindDisplayInitFailure:
		return "display_init_failure"
	case KindUnrecognizedStyleValue:
		return "unrecognized_style_value"
	case KindBusy:
		return "busy"
	default:
		return "internal"
	}
}

// ErrStopped is returned for requests made after the loop stopped.
var ErrStopped = errors.New("device: stopped")

// Classify maps err to its Kind. Storage failures of any shape count as
// unavailable storage since the mirror was left untouched.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, tasks.ErrInvalidIndex):
		return KindInvalidIndex
	case errors.Is(err, tasks.ErrUnrecognizedColor):
		return KindUnrecognizedStyleValue
	case errors.Is(err, prefs.ErrUnavailable),
		errors.Is(err, prefs.ErrCorrupt),
		errors.Is(err, prefs.ErrNoSpace):
		return KindStorageUnavailable
	case errors.Is(err, render.ErrDisplayInit):
		return KindDisplayInitFailure
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, ErrStopped):
		return KindBusy
	default:
		return KindInternal
	}
}

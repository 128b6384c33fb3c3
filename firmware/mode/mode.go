// Package mode decides what the panel shows.
package mode

import "todowrist/firmware/netinfo"

// Kind is one of the three mutually exclusive screens.
type Kind uint8

const (
	// Onboarding shows a scannable code for the setup page.
	Onboarding Kind = iota
	// Welcome shows the setup address as plain text. Only reachable on
	// explicit request, never from Select.
	Welcome
	// TaskList shows the five slots and the network status.
	TaskList
)

func (k Kind) String() string {
	switch k {
	case Onboarding:
		return "onboarding"
	case Welcome:
		return "welcome"
	case TaskList:
		return "tasklist"
	default:
		return "unknown"
	}
}

// Mode is a screen plus the connection it refers to.
type Mode struct {
	Kind Kind
	Conn netinfo.ConnectionInfo
}

// BootReason says why the control flow (re)started.
type BootReason uint8

const (
	BootPowerOn BootReason = iota
	BootWake
	BootReset
)

func (r BootReason) String() string {
	switch r {
	case BootWake:
		return "wake"
	case BootReset:
		return "reset"
	default:
		return "power-on"
	}
}

// TaskSource is the part of the task state the selector looks at.
type TaskSource interface {
	HasAnyTask() bool
}

// Select picks Onboarding until a task has text, then TaskList. The boot
// reason does not change the outcome; it is carried for logging.
func Select(state TaskSource, reason BootReason, conn netinfo.ConnectionInfo) Mode {
	_ = reason
	if state == nil || !state.HasAnyTask() {
		return Mode{Kind: Onboarding, Conn: conn}
	}
	return Mode{Kind: TaskList, Conn: conn}
}

// WelcomeFor is the explicit alternate entry point.
func WelcomeFor(conn netinfo.ConnectionInfo) Mode {
	return Mode{Kind: Welcome, Conn: conn}
}

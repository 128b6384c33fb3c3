package hal

import (
	"context"
	"errors"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var ErrNotImplemented = errors.New("not implemented")

// Flash provides raw access to non-volatile memory.
//
// It is intentionally low-level: addresses and erase blocks only.
// Writes may only clear bits; Erase sets a block back to 0xFF.
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// Network brings up the wireless link.
//
// Implementations report the address the device is reachable at.
type Network interface {
	JoinStation(ctx context.Context, ssid, password string) (addr string, err error)
	StartAccessPoint(ssid, password string) (addr string, err error)
}

// Sleeper suspends the processor.
type Sleeper interface {
	// DeepSleep powers down until wake reads level. Device implementations
	// restart the CPU on wake and never return; host implementations return
	// nil once woken so the caller can re-enter boot.
	DeepSleep(ctx context.Context, wake GPIOPin, level bool) error
}

// Pin assignments shared by every board.
const (
	PinWake = 0 // active-low button, pulled up
)

// HAL provides the only contact point between the firmware and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	GPIO() GPIO
	Panel() Panel
	Flash() Flash
	Network() Network
	Sleeper() Sleeper
}

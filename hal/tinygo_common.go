//go:build tinygo && baremetal

package hal

import (
	"context"
	"machine"
	"time"
)

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }

type machinePin struct {
	name string
	pin  machine.Pin
	mode GPIOMode
}

func newMachinePin(name string, pin machine.Pin) *machinePin {
	return &machinePin{name: name, pin: pin}
}

func (p *machinePin) Name() string { return p.name }
func (p *machinePin) Caps() GPIOCaps {
	return GPIOCapInput | GPIOCapOutput | GPIOCapPullUp | GPIOCapPullDown | GPIOCapInterrupt
}

func (p *machinePin) Configure(mode GPIOMode, pull GPIOPull) error {
	cfg := machine.PinConfig{Mode: machine.PinInput}
	switch {
	case mode == GPIOModeOutput:
		cfg.Mode = machine.PinOutput
	case pull == GPIOPullUp:
		cfg.Mode = machine.PinInputPullup
	case pull == GPIOPullDown:
		cfg.Mode = machine.PinInputPulldown
	}
	p.pin.Configure(cfg)
	p.mode = mode
	return nil
}

func (p *machinePin) Read() (bool, error) { return p.pin.Get(), nil }

func (p *machinePin) Write(level bool) error {
	if p.mode != GPIOModeOutput {
		return ErrNotImplemented
	}
	p.pin.Set(level)
	return nil
}

func (p *machinePin) SetInterrupt(change PinChange, fn func()) error {
	if fn == nil {
		return p.pin.SetInterrupt(0, nil)
	}
	var c machine.PinChange
	if change&PinFalling != 0 {
		c |= machine.PinFalling
	}
	if change&PinRising != 0 {
		c |= machine.PinRising
	}
	return p.pin.SetInterrupt(c, func(machine.Pin) { fn() })
}

// resetSleeper parks the core until the wake level and then resets it, so
// execution resumes at boot like a deep-sleep wake.
type resetSleeper struct{}

func (resetSleeper) DeepSleep(ctx context.Context, wake GPIOPin, level bool) error {
	_ = ctx
	if wake == nil {
		return ErrNotImplemented
	}
	for {
		got, err := wake.Read()
		if err == nil && got == level {
			machine.CPUReset()
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Package wake hands button presses from interrupt context to the main loop
// and puts the device into deep sleep.
package wake

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"todowrist/firmware/logger"
	"todowrist/hal"
)

// State of the controller.
type State uint8

const (
	Running State = iota
	ResetPending
	Sleeping
)

func (s State) String() string {
	switch s {
	case ResetPending:
		return "reset-pending"
	case Sleeping:
		return "sleeping"
	default:
		return "running"
	}
}

// Controller owns the wake pin. The pin is active low with a pull-up.
type Controller struct {
	pin     hal.GPIOPin
	sleeper hal.Sleeper
	log     *slog.Logger

	flag     Flag
	onEdge   func()
	sleeping atomic.Bool
}

func New(pin hal.GPIOPin, sleeper hal.Sleeper, log *slog.Logger) *Controller {
	if log == nil {
		log = logger.Discard()
	}
	c := &Controller{pin: pin, sleeper: sleeper, log: log}
	c.onEdge = c.flag.Set
	return c
}

// Arm configures the pin and installs the falling-edge handler. The handler
// only sets the flag.
func (c *Controller) Arm() error {
	if c.pin == nil {
		return fmt.Errorf("wake: no pin: %w", hal.ErrNotImplemented)
	}
	if err := c.pin.Configure(hal.GPIOModeInput, hal.GPIOPullUp); err != nil {
		return fmt.Errorf("wake: configure %s: %w", c.pin.Name(), err)
	}
	if err := c.pin.SetInterrupt(hal.PinFalling, c.onEdge); err != nil {
		return fmt.Errorf("wake: interrupt on %s: %w", c.pin.Name(), err)
	}
	c.log.Debug("wake pin armed", slog.String("pin", c.pin.Name()))
	return nil
}

// Disarm removes the handler.
func (c *Controller) Disarm() {
	if c.pin != nil {
		_ = c.pin.SetInterrupt(hal.PinFalling, nil)
	}
}

// Poll consumes a pending reset request. Call once per loop iteration.
func (c *Controller) Poll() bool { return c.flag.Consume() }

// Request sets the flag from outside interrupt context.
func (c *Controller) Request() { c.flag.Set() }

func (c *Controller) State() State {
	switch {
	case c.sleeping.Load():
		return Sleeping
	case c.flag.Pending():
		return ResetPending
	default:
		return Running
	}
}

// Sleep suspends until the wake pin goes low. On the device this does not
// return; on the host it returns once woken and the caller re-enters boot.
func (c *Controller) Sleep(ctx context.Context) error {
	if c.sleeper == nil {
		return fmt.Errorf("wake: no sleeper: %w", hal.ErrNotImplemented)
	}
	c.sleeping.Store(true)
	defer c.sleeping.Store(false)

	c.log.Info("entering deep sleep")
	if err := c.sleeper.DeepSleep(ctx, c.pin, false); err != nil {
		return fmt.Errorf("wake: deep sleep: %w", err)
	}
	// The wake edge is not a reset request.
	c.flag.Consume()
	c.log.Info("woke from deep sleep")
	return nil
}

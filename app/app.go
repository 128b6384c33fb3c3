// Package app assembles the firmware from a HAL and a configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"todowrist/firmware/device"
	"todowrist/firmware/logger"
	"todowrist/firmware/metrics"
	"todowrist/firmware/mode"
	"todowrist/firmware/render"
	"todowrist/hal"
	"todowrist/internal/buildinfo"
	"todowrist/internal/config"
)

// Options carries the pieces only the simulator provides.
type Options struct {
	Recorder metrics.Recorder
	QR       render.QREncoder
}

// System is one assembled firmware instance.
type System struct {
	h   hal.HAL
	cfg config.Config
	log *slog.Logger
	dev *device.Device
}

// NewWithConfig builds the firmware. Invalid settings are replaced by
// defaults and logged.
func NewWithConfig(h hal.HAL, cfg config.Config, opts Options) *System {
	warns := cfg.Normalize()
	log := logger.New(h.Logger(), cfg.Level())
	for _, w := range warns {
		log.Warn("config", slog.String("problem", w))
	}
	log.Info("todowrist starting", slog.String("version", buildinfo.Short()), slog.String("store", cfg.Store.Backend))

	dev := device.New(h, cfg.Device(), device.Options{
		OpenStore: storeOpener(h, cfg),
		Logger:    log,
		Recorder:  opts.Recorder,
		QR:        opts.QR,
	})
	return &System{h: h, cfg: cfg, log: log, dev: dev}
}

// New builds the firmware with the compiled-in defaults.
func New(h hal.HAL) *System {
	return NewWithConfig(h, config.Default(), Options{})
}

// Device exposes the core to the collaborator.
func (s *System) Device() *device.Device { return s.dev }

// Step runs one loop iteration. A panic is shown on the panel and the core
// reboots from the store.
func (s *System) Step(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			s.panicked(v, debug.Stack())
			s.dev.Reboot(mode.BootReset)
			err = nil
		}
	}()
	return s.dev.Step(ctx)
}

// Stepper adapts Step to the host runners.
func (s *System) Stepper(ctx context.Context) func() error {
	return func() error { return s.Step(ctx) }
}

// Run loops forever (TinyGo entrypoint).
func Run(h hal.HAL) {
	s := New(h)
	ctx := context.Background()
	delay := time.Duration(s.cfg.Loop.Delay)
	for {
		if err := s.Step(ctx); err != nil {
			s.log.Error("loop", logger.Err(err))
		}
		time.Sleep(delay)
	}
}

func (s *System) panicked(v any, stack []byte) {
	s.log.Error("panic in main loop", slog.String("value", fmt.Sprint(v)))
	drawPanic(s.h, v, stack)
}

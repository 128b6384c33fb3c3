// Package device is the core of the firmware: it boots the device, owns the
// task state, and runs the main loop that serves collaborator requests and
// button presses.
package device

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"todowrist/firmware/logger"
	"todowrist/firmware/metrics"
	"todowrist/firmware/mode"
	"todowrist/firmware/netinfo"
	"todowrist/firmware/prefs"
	"todowrist/firmware/render"
	"todowrist/firmware/tasks"
	"todowrist/firmware/wake"
	"todowrist/hal"
)

const (
	DefaultLoopDelay = 10 * time.Millisecond
	DefaultSleepAck  = time.Second
	DefaultHeartbeat = time.Second

	requestQueue = 8
)

// Config tunes the core.
type Config struct {
	Network netinfo.Config
	QRScale int
	// LoopDelay is the pause between loop iterations in Run.
	LoopDelay time.Duration
	// SleepAckDelay is the time between answering a sleep request and
	// suspending, so the reply reaches the client.
	SleepAckDelay time.Duration
	// Heartbeat is the LED toggle period.
	Heartbeat time.Duration
}

// StoreOpener opens the persistent store. It is called on every boot.
type StoreOpener func() (prefs.Store, error)

// Options are the collaborators the core does not build itself.
type Options struct {
	OpenStore StoreOpener
	Logger    *slog.Logger
	Recorder  metrics.Recorder
	QR        render.QREncoder
}

type request struct {
	op   string
	run  func() error
	done chan error
}

// Device is the main-loop owner. Step and Run must be called from a single
// goroutine; the request methods are safe from any goroutine.
type Device struct {
	h   hal.HAL
	cfg Config
	log *slog.Logger
	rec metrics.Recorder

	openStore StoreOpener
	renderer  *render.Renderer
	wake      *wake.Controller
	reqs      chan request

	// Owned by the loop goroutine.
	booted   bool
	reason   mode.BootReason
	store    prefs.Store
	state    *tasks.State
	conn     netinfo.ConnectionInfo
	screen   mode.Kind
	sleepAt  time.Time
	ledOn    bool
	lastBeat time.Time
}

// New wires the core to h. Nothing touches the hardware until the first
// Step.
func New(h hal.HAL, cfg Config, opts Options) *Device {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.SleepAckDelay < 0 {
		cfg.SleepAckDelay = 0
	}
	open := opts.OpenStore
	if open == nil {
		open = func() (prefs.Store, error) {
			return prefs.OpenFlash(h.Flash(), prefs.FlashOptions{})
		}
	}

	var pin hal.GPIOPin
	if g := h.GPIO(); g != nil {
		pin = g.Pin(hal.PinWake)
	}
	return &Device{
		h:         h,
		cfg:       cfg,
		log:       log,
		rec:       rec,
		openStore: open,
		renderer:  render.New(h.Panel(), render.Options{QRScale: cfg.QRScale, QR: opts.QR}, log.With(slog.String("component", "render"))),
		wake:      wake.New(pin, h.Sleeper(), log.With(slog.String("component", "wake"))),
		reqs:      make(chan request, requestQueue),
		reason:    mode.BootPowerOn,
	}
}

// Run boots and loops until ctx is done.
func (d *Device) Run(ctx context.Context) error {
	delay := d.cfg.LoopDelay
	if delay <= 0 {
		delay = DefaultLoopDelay
	}
	for {
		if err := d.Step(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			d.shutdown()
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Step runs one loop iteration: boot if needed, serve at most one request,
// handle a pending button press, enter sleep when due, beat the LED.
func (d *Device) Step(ctx context.Context) error {
	if !d.booted {
		d.boot(ctx)
	}

	select {
	case req := <-d.reqs:
		req.done <- d.serve(req)
	default:
	}

	if d.wake.Poll() {
		d.log.Info("button pressed, resetting")
		if err := d.reset(metrics.ResetButton); err != nil {
			d.log.Error("reset failed", logger.Err(err))
		}
	}

	if !d.sleepAt.IsZero() && !time.Now().Before(d.sleepAt) {
		if err := d.sleep(ctx); err != nil {
			return err
		}
	}

	d.heartbeat()
	return nil
}

// Reboot drops all loop state; the next Step boots again from the store.
func (d *Device) Reboot(reason mode.BootReason) {
	d.shutdown()
	d.reason = reason
}

func (d *Device) boot(ctx context.Context) {
	log := d.log.With(slog.String("reason", d.reason.String()))
	log.Info("booting")

	conn, err := netinfo.Bootstrap(ctx, d.h.Network(), d.cfg.Network, d.log)
	if err != nil {
		log.Warn("no network", logger.Err(err))
	}
	d.conn = conn

	store, err := d.openStore()
	if err != nil {
		log.Error("store unavailable", logger.Err(err))
		store = prefs.Unavailable(err)
	}
	d.store = store
	d.state = tasks.New(store, d.log.With(slog.String("component", "tasks")))
	d.state.Load()

	if err := d.wake.Arm(); err != nil {
		log.Warn("wake button unavailable", logger.Err(err))
	}

	d.booted = true
	if err := d.show(mode.Select(d.state, d.reason, d.conn)); err != nil {
		log.Error("initial render failed", logger.Err(err))
	}
}

func (d *Device) shutdown() {
	if !d.booted {
		return
	}
	d.wake.Disarm()
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.log.Warn("close store", logger.Err(err))
		}
	}
	d.store, d.state = nil, nil
	d.sleepAt = time.Time{}
	d.booted = false
}

func (d *Device) serve(req request) (err error) {
	defer func() {
		d.rec.IncOperation(req.op, Classify(err).String())
		if err != nil {
			d.log.Warn("request failed", slog.String("op", req.op), logger.Err(err))
		}
	}()
	if !d.booted {
		return ErrStopped
	}
	return req.run()
}

// show renders m with the current snapshot.
func (d *Device) show(m mode.Mode) error {
	start := time.Now()
	err := d.renderer.Render(m, d.state.Snapshot())
	d.rec.ObserveRender(m.Kind.String(), time.Since(start), err == nil)
	if err != nil {
		return err
	}
	d.screen = m.Kind
	d.rec.SetScreen(m.Kind.String())
	return nil
}

// refresh re-renders after a mutation. The mutation error wins; a render
// failure is reported only when the mutation itself succeeded.
func (d *Device) refresh(mutErr error) error {
	if errors.Is(mutErr, tasks.ErrInvalidIndex) || errors.Is(mutErr, tasks.ErrUnrecognizedColor) {
		return mutErr
	}
	renderErr := d.show(mode.Select(d.state, d.reason, d.conn))
	if mutErr != nil {
		return mutErr
	}
	return renderErr
}

func (d *Device) reset(source string) error {
	err := d.refresh(d.state.ResetAll())
	if err == nil || Classify(err) == KindDisplayInitFailure {
		d.rec.IncReset(source)
	}
	return err
}

func (d *Device) sleep(ctx context.Context) error {
	d.sleepAt = time.Time{}
	d.wake.Disarm()
	d.rec.IncSleep()
	if err := d.wake.Sleep(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.log.Error("deep sleep failed", logger.Err(err))
		if err := d.wake.Arm(); err != nil {
			d.log.Warn("wake button unavailable", logger.Err(err))
		}
		return nil
	}
	// Only reached on the host: the device restarts from reset.
	d.Reboot(mode.BootWake)
	return nil
}

func (d *Device) heartbeat() {
	led := d.h.LED()
	if led == nil {
		return
	}
	now := time.Now()
	if now.Sub(d.lastBeat) < d.cfg.Heartbeat {
		return
	}
	d.lastBeat = now
	d.ledOn = !d.ledOn
	if d.ledOn {
		led.High()
	} else {
		led.Low()
	}
}

//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// HostOptions configures the simulated board.
type HostOptions struct {
	FlashPath string

	PanelWidth  int16
	PanelHeight int16
	PageHeight  int16

	// StationAddress is the address handed out when joining a network
	// succeeds. Empty means no network is in range.
	StationAddress string
	APAddress      string
}

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	gpio   GPIO
	wake   *VirtualPin
	panel  *MemPanel
	flash  *hostFlash
	net    *hostNetwork
	sleep  *hostSleeper
}

// New returns a host HAL with default options.
func New() HAL {
	return NewHost(HostOptions{})
}

// NewHost returns a host HAL implementation.
func NewHost(opts HostOptions) HAL {
	if opts.PanelWidth <= 0 || opts.PanelHeight <= 0 {
		// 2.66" tri-color panel in landscape, as on the device.
		opts.PanelWidth, opts.PanelHeight = 296, 152
	}
	if opts.APAddress == "" {
		opts.APAddress = "192.168.4.1"
	}

	logger := &hostLogger{w: os.Stdout}
	wake := NewVirtualPin("WAKE", GPIOCapInput|GPIOCapPullUp|GPIOCapInterrupt)
	pins := []GPIOPin{wake}
	for i := 1; i < 4; i++ {
		pins = append(pins, NewVirtualPin(fmt.Sprintf("GPIO%d", i), GPIOCapInput|GPIOCapOutput|GPIOCapPullUp|GPIOCapPullDown))
	}
	return &hostHAL{
		logger: logger,
		led:    &hostLED{},
		gpio:   newVirtualGPIO(pins),
		wake:   wake,
		panel:  NewMemPanel(opts.PanelWidth, opts.PanelHeight, opts.PageHeight),
		flash:  newHostFlash(opts.FlashPath),
		net:    &hostNetwork{station: opts.StationAddress, ap: opts.APAddress},
		sleep:  &hostSleeper{logger: logger},
	}
}

func (h *hostHAL) Logger() Logger          { return h.logger }
func (h *hostHAL) LED() LED                { return h.led }
func (h *hostHAL) GPIO() GPIO              { return h.gpio }
func (h *hostHAL) Panel() Panel            { return h.panel }
func (h *hostHAL) Flash() Flash            { return h.flash }
func (h *hostHAL) Network() Network        { return h.net }
func (h *hostHAL) Sleeper() Sleeper        { return h.sleep }
func (h *hostHAL) WakeButton() *VirtualPin { return h.wake }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu sync.Mutex
	on bool
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
}

var errNoStation = errors.New("network: no station in range")

type hostNetwork struct {
	station string
	ap      string
}

func (n *hostNetwork) JoinStation(ctx context.Context, ssid, password string) (string, error) {
	_ = password
	if ssid == "" || n.station == "" {
		return "", fmt.Errorf("join %q: %w", ssid, errNoStation)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return n.station, nil
}

func (n *hostNetwork) StartAccessPoint(ssid, password string) (string, error) {
	_ = password
	if ssid == "" {
		return "", fmt.Errorf("access point: empty ssid")
	}
	return n.ap, nil
}

type hostSleeper struct {
	logger Logger
}

func (s *hostSleeper) DeepSleep(ctx context.Context, wake GPIOPin, level bool) error {
	if wake == nil {
		return fmt.Errorf("deep sleep: no wake pin")
	}
	change := PinRising
	if !level {
		change = PinFalling
	}

	// The wake edge belongs to the sleeper while suspended; boot re-arms
	// whatever handler the firmware wants afterwards.
	woke := make(chan struct{}, 1)
	if err := wake.SetInterrupt(change, func() {
		select {
		case woke <- struct{}{}:
		default:
		}
	}); err != nil {
		return fmt.Errorf("deep sleep: arm %s: %w", wake.Name(), err)
	}
	defer wake.SetInterrupt(change, nil)

	s.logger.WriteLineString("sleep: entering deep sleep, waiting for " + wake.Name())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-woke:
		s.logger.WriteLineString("sleep: woken by " + wake.Name())
		return nil
	}
}

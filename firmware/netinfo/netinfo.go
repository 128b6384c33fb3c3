// Package netinfo describes how the device is reachable and brings the link
// up: join the configured network, or host an access point when that fails.
package netinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"todowrist/firmware/logger"
	"todowrist/hal"
)

// Mode is the wireless mode the device ended up in.
type Mode uint8

const (
	// Offline means neither station nor access point came up.
	Offline Mode = iota
	// Station means the device joined an existing network.
	Station
	// AccessPoint means the device hosts its own network.
	AccessPoint
)

func (m Mode) String() string {
	switch m {
	case Station:
		return "station"
	case AccessPoint:
		return "ap"
	default:
		return "offline"
	}
}

// ConnectionInfo is read-only to the core.
type ConnectionInfo struct {
	Mode    Mode
	Address string
	// SSID is the joined network in station mode and the hosted network in
	// access-point mode.
	SSID string
}

// URL is the page address encoded into the onboarding code.
func (c ConnectionInfo) URL() string { return "http://" + c.Address }

// IsAccessPoint reports whether the device hosts its own network.
func (c ConnectionInfo) IsAccessPoint() bool { return c.Mode == AccessPoint }

// Indicator is the short status label drawn before the address.
func (c ConnectionInfo) Indicator() string {
	if c.IsAccessPoint() {
		return "AP:"
	}
	return "IP:"
}

// Description is the one-line network summary drawn under the address.
func (c ConnectionInfo) Description() string {
	switch c.Mode {
	case AccessPoint:
		return "SSID: " + c.SSID
	case Station:
		return "Connected to WiFi"
	default:
		return "No network"
	}
}

// Config holds the credentials for both modes.
type Config struct {
	SSID        string
	Password    string
	APSSID      string
	APPassword  string
	JoinTimeout time.Duration
}

const DefaultJoinTimeout = 15 * time.Second

// ErrNoLink is returned when both station and access point failed.
var ErrNoLink = errors.New("netinfo: no network link")

// Bootstrap joins cfg.SSID within cfg.JoinTimeout and falls back to an
// access point. On total failure it returns an Offline info and ErrNoLink so
// the device can still render and serve whatever it can.
func Bootstrap(ctx context.Context, n hal.Network, cfg Config, log *slog.Logger) (ConnectionInfo, error) {
	if log == nil {
		log = logger.Discard()
	}
	if n == nil {
		return ConnectionInfo{Mode: Offline}, fmt.Errorf("%w: no network device", ErrNoLink)
	}
	timeout := cfg.JoinTimeout
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}

	var joinErr error
	if cfg.SSID != "" {
		jctx, cancel := context.WithTimeout(ctx, timeout)
		addr, err := n.JoinStation(jctx, cfg.SSID, cfg.Password)
		cancel()
		if err == nil {
			log.Info("joined network", slog.String("ssid", cfg.SSID), logger.Address(addr))
			return ConnectionInfo{Mode: Station, Address: addr, SSID: cfg.SSID}, nil
		}
		joinErr = err
		log.Warn("join failed, starting access point", slog.String("ssid", cfg.SSID), logger.Err(err))
	}

	addr, err := n.StartAccessPoint(cfg.APSSID, cfg.APPassword)
	if err != nil {
		log.Error("access point failed", logger.Err(err))
		return ConnectionInfo{Mode: Offline}, fmt.Errorf("%w: %w", ErrNoLink, errors.Join(joinErr, err))
	}
	log.Info("access point up", slog.String("ssid", cfg.APSSID), logger.Address(addr))
	return ConnectionInfo{Mode: AccessPoint, Address: addr, SSID: cfg.APSSID}, nil
}

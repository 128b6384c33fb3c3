// Package config holds the device and simulator settings.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"todowrist/firmware/device"
	"todowrist/firmware/logger"
	"todowrist/firmware/netinfo"
	"todowrist/firmware/render"
)

const (
	DefaultConfigFileName = "todowrist.toml"
	DefaultFlashPath      = "todowrist.flash"
	DefaultSQLitePath     = "todowrist.db"
	DefaultAPSSID         = "Todo-Wrist"
	DefaultAPAddress      = "192.168.4.1"
	DefaultListen         = "127.0.0.1:8080"
)

// Store backends.
const (
	BackendFlash  = "flash"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Duration is a time.Duration written as "15s" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Store struct {
	Backend    string `toml:"backend"`
	FlashPath  string `toml:"flash_path"`
	SQLitePath string `toml:"sqlite_path"`
}

type Display struct {
	QRScale    int `toml:"qr_scale"`
	PageHeight int `toml:"page_height"`
}

type Network struct {
	SSID           string   `toml:"ssid"`
	Password       string   `toml:"password"`
	APSSID         string   `toml:"ap_ssid"`
	APPassword     string   `toml:"ap_password"`
	APAddress      string   `toml:"ap_address"`
	StationAddress string   `toml:"station_address"`
	JoinTimeout    Duration `toml:"join_timeout"`
}

type HTTP struct {
	Listen  string `toml:"listen"`
	Metrics bool   `toml:"metrics"`
}

type Loop struct {
	Delay         Duration `toml:"delay"`
	SleepAckDelay Duration `toml:"sleep_ack_delay"`
}

type Config struct {
	LogLevel string  `toml:"log_level"`
	Store    Store   `toml:"store"`
	Display  Display `toml:"display"`
	Network  Network `toml:"network"`
	HTTP     HTTP    `toml:"http"`
	Loop     Loop    `toml:"loop"`
}

// Default is the compiled-in configuration, also used on the device.
func Default() Config {
	return Config{
		LogLevel: "info",
		Store: Store{
			Backend:    BackendFlash,
			FlashPath:  DefaultFlashPath,
			SQLitePath: DefaultSQLitePath,
		},
		Display: Display{QRScale: render.DefaultQRScale},
		Network: Network{
			APSSID:      DefaultAPSSID,
			APAddress:   DefaultAPAddress,
			JoinTimeout: Duration(netinfo.DefaultJoinTimeout),
		},
		HTTP: HTTP{Listen: DefaultListen},
		Loop: Loop{
			Delay:         Duration(device.DefaultLoopDelay),
			SleepAckDelay: Duration(device.DefaultSleepAck),
		},
	}
}

// Normalize replaces invalid values with defaults and returns one warning
// per replacement.
func (c *Config) Normalize() []string {
	def := Default()
	var warns []string
	fix := func(field string, got, want any) {
		warns = append(warns, fmt.Sprintf("%s: invalid value %v, using %v", field, got, want))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fix("log_level", c.LogLevel, def.LogLevel)
		c.LogLevel = def.LogLevel
	}
	switch c.Store.Backend {
	case BackendFlash, BackendSQLite, BackendMemory:
	default:
		fix("store.backend", c.Store.Backend, def.Store.Backend)
		c.Store.Backend = def.Store.Backend
	}
	if c.Store.FlashPath == "" {
		c.Store.FlashPath = def.Store.FlashPath
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = def.Store.SQLitePath
	}
	if c.Display.QRScale < render.MinQRScale || c.Display.QRScale > render.MaxQRScale {
		fix("display.qr_scale", c.Display.QRScale, def.Display.QRScale)
		c.Display.QRScale = def.Display.QRScale
	}
	if c.Display.PageHeight < 0 {
		fix("display.page_height", c.Display.PageHeight, 0)
		c.Display.PageHeight = 0
	}
	if c.Network.APSSID == "" {
		fix("network.ap_ssid", `""`, def.Network.APSSID)
		c.Network.APSSID = def.Network.APSSID
	}
	if c.Network.APAddress == "" {
		c.Network.APAddress = def.Network.APAddress
	}
	if c.Network.JoinTimeout <= 0 {
		fix("network.join_timeout", time.Duration(c.Network.JoinTimeout), time.Duration(def.Network.JoinTimeout))
		c.Network.JoinTimeout = def.Network.JoinTimeout
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = def.HTTP.Listen
	}
	if c.Loop.Delay <= 0 {
		fix("loop.delay", time.Duration(c.Loop.Delay), time.Duration(def.Loop.Delay))
		c.Loop.Delay = def.Loop.Delay
	}
	if c.Loop.SleepAckDelay < 0 {
		fix("loop.sleep_ack_delay", time.Duration(c.Loop.SleepAckDelay), 0)
		c.Loop.SleepAckDelay = 0
	}
	return warns
}

// Level returns the parsed log level.
func (c Config) Level() slog.Level { return logger.ParseLevel(c.LogLevel) }

// Device returns the core settings.
func (c Config) Device() device.Config {
	return device.Config{
		Network: netinfo.Config{
			SSID:        c.Network.SSID,
			Password:    c.Network.Password,
			APSSID:      c.Network.APSSID,
			APPassword:  c.Network.APPassword,
			JoinTimeout: time.Duration(c.Network.JoinTimeout),
		},
		QRScale:       c.Display.QRScale,
		LoopDelay:     time.Duration(c.Loop.Delay),
		SleepAckDelay: time.Duration(c.Loop.SleepAckDelay),
	}
}

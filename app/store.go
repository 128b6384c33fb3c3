package app

import (
	"todowrist/firmware/device"
	"todowrist/firmware/prefs"
	"todowrist/hal"
	"todowrist/internal/config"
)

// storeOpener picks the preferences backend. The memory store is created
// once so it survives simulated sleep.
func storeOpener(h hal.HAL, cfg config.Config) device.StoreOpener {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		mem := prefs.NewMemory()
		return func() (prefs.Store, error) { return mem, nil }
	case config.BackendSQLite:
		path := cfg.Store.SQLitePath
		return func() (prefs.Store, error) { return openSQLite(path) }
	default:
		return func() (prefs.Store, error) {
			return prefs.OpenFlash(h.Flash(), prefs.FlashOptions{})
		}
	}
}

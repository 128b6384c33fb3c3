//go:build tinygo

package app

import (
	"fmt"

	"todowrist/firmware/prefs"
	"todowrist/hal"
)

func openSQLite(string) (prefs.Store, error) {
	return nil, fmt.Errorf("sqlite store: %w", hal.ErrNotImplemented)
}

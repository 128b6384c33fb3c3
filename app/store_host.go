//go:build !tinygo

package app

import "todowrist/firmware/prefs"

func openSQLite(path string) (prefs.Store, error) {
	return prefs.OpenSQLite(path)
}

package logger

import "log/slog"

// Canonical attribute keys.
const (
	KeySlot      = "slot"
	KeyMode      = "mode"
	KeyNamespace = "ns"
	KeyKey       = "key"
	KeyAddress   = "addr"
	KeyError     = "error"
)

func Slot(i int) slog.Attr          { return slog.Int(KeySlot, i) }
func Mode(name string) slog.Attr    { return slog.String(KeyMode, name) }
func Namespace(ns string) slog.Attr { return slog.String(KeyNamespace, ns) }
func Key(k string) slog.Attr        { return slog.String(KeyKey, k) }
func Address(a string) slog.Attr    { return slog.String(KeyAddress, a) }
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

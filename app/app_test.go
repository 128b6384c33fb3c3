//go:build !tinygo

package app

import (
	"context"
	"path/filepath"
	"testing"

	"todowrist/firmware/device"
	"todowrist/firmware/mode"
	"todowrist/firmware/render"
	"todowrist/firmware/tasks"
	"todowrist/hal"
	"todowrist/internal/config"
)

func newHost(t *testing.T) hal.HAL {
	t.Helper()
	return hal.NewHost(hal.HostOptions{FlashPath: filepath.Join(t.TempDir(), "flash.img")})
}

func TestStepRecoversFromPanic(t *testing.T) {
	h := newHost(t)
	panel := h.Panel().(*hal.MemPanel)

	calls := 0
	qr := func(s string) ([][]bool, error) {
		calls++
		if calls == 1 {
			panic("encoder exploded")
		}
		return render.EncodeQR(s)
	}
	sys := NewWithConfig(h, config.Default(), Options{QR: qr})

	if err := sys.Step(context.Background()); err != nil {
		t.Fatalf("Step after panic: %v", err)
	}
	if panel.Refreshes() != 1 {
		t.Fatalf("refreshes = %d, want 1 (panic screen)", panel.Refreshes())
	}
	black := 0
	for y := int16(0); y < 8; y++ {
		for x := int16(0); x < 96; x++ {
			if panel.At(x, y) == hal.PanelBlack {
				black++
			}
		}
	}
	if black == 0 {
		t.Fatal("panic screen shows no text")
	}

	// The next step boots again and renders normally.
	if err := sys.Step(context.Background()); err != nil {
		t.Fatalf("Step after reboot: %v", err)
	}
	if panel.Refreshes() != 2 {
		t.Fatalf("refreshes = %d, want 2", panel.Refreshes())
	}
}

func TestStoreBackends(t *testing.T) {
	for _, backend := range []string{config.BackendFlash, config.BackendSQLite, config.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.Backend = backend
			cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "prefs.db")

			open := storeOpener(newHost(t), cfg)
			s, err := open()
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if err := s.PutString(tasks.NamespaceTasks, "task0", "Buy milk"); err != nil {
				t.Fatalf("PutString: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			again, err := open()
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer again.Close()
			if got := again.GetString(tasks.NamespaceTasks, "task0", ""); got != "Buy milk" {
				t.Fatalf("after reopen got %q", got)
			}
		})
	}
}

func TestDefaultsBootToOnboarding(t *testing.T) {
	sys := New(newHost(t))
	ctx := context.Background()
	if err := sys.Step(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan device.View, 1)
	go func() {
		v, _ := sys.Device().GetView(ctx)
		done <- v
	}()
	for {
		select {
		case v := <-done:
			if v.Screen != mode.Onboarding {
				t.Fatalf("screen = %v, want onboarding", v.Screen)
			}
			if v.Conn.Address != config.DefaultAPAddress {
				t.Fatalf("address = %q", v.Conn.Address)
			}
			return
		default:
			if err := sys.Step(ctx); err != nil {
				t.Fatal(err)
			}
		}
	}
}

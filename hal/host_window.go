//go:build !tinygo && cgo

package hal

import (
	"context"
	"sync"

	"todowrist/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const windowScale = 3

// RunWindow opens a desktop window that shows the e-paper panel. Pressing B
// toggles the wake button the way the physical push button does.
// It blocks until the window closes.
func RunWindow(ctx context.Context, h HAL, newApp func(context.Context, HAL) func() error, cfg HeadlessConfig) error {
	host, ok := h.(*hostHAL)
	if !ok {
		return ErrNotImplemented
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := &hostGame{h: host}
	go func() {
		// The firmware loop owns its own goroutine so a deep sleep does not
		// freeze the window or the button.
		err := RunHeadless(ctx, h, newApp, HeadlessConfig{Hz: cfg.Hz, Ticks: cfg.Ticks})
		g.setErr(err)
	}()

	w, hh := host.panel.Size()
	ebiten.SetWindowTitle("todowrist (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(int(w)*windowScale, int(hh)*windowScale)
	ebiten.SetTPS(30)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h     *hostHAL
	fbImg *ebiten.Image

	mu  sync.Mutex
	err error
}

func (g *hostGame) setErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil && err != context.Canceled {
		g.err = err
	}
}

func (g *hostGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.h.wake.Drive(false)
	}
	if inpututil.IsKeyJustReleased(ebiten.KeyB) {
		g.h.wake.Drive(true)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	img := g.h.panel.Image()
	b := img.Bounds()
	if g.fbImg == nil || g.fbImg.Bounds().Dx() != b.Dx() || g.fbImg.Bounds().Dy() != b.Dy() {
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.fbImg.WritePixels(img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.h.panel.Size()
	return int(w), int(h)
}

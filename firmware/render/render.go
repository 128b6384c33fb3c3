// Package render draws the three screens onto the e-paper panel.
//
// Every call runs a complete refresh: init, full window, then fill and draw
// once per page until the panel reports no page pending, then hibernate.
// A refresh is never interrupted.
package render

import (
	"errors"
	"image/color"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"

	"todowrist/firmware/fonts/font6x8"
	"todowrist/firmware/logger"
	"todowrist/firmware/mode"
	"todowrist/firmware/netinfo"
	"todowrist/firmware/tasks"
	"todowrist/hal"
)

// ErrDisplayInit is returned when the panel did not answer. Nothing was
// drawn and the panel keeps its previous image.
var ErrDisplayInit = errors.New("display init failed")

const (
	DefaultQRScale = 4
	MinQRScale     = 1
	MaxQRScale     = 4

	// maxPages bounds the page loop against a driver that never finishes.
	maxPages = 256
)

// Task list layout.
const (
	rowX           = 2
	rowFirstBase   = 15
	rowPitch       = 20
	strikeRise     = 6
	strikeEndInset = 5

	statusLabelX    = 2
	statusAddressX  = 22
	statusTop       = 102
	statusDescTop   = 112
	captionX        = 2
	captionTop      = 30
	qrTop           = 1
	welcomeX        = 10
	welcomeFirstTop = 30
	welcomePitch    = 30
)

var (
	taskFont    = &freemono.Bold9pt7b
	welcomeFont = &freemono.Bold12pt7b
)

// Options tunes the renderer.
type Options struct {
	// QRScale is the module size in pixels, 1..4. Out of range means 4.
	QRScale int
	// QR overrides the code encoder.
	QR QREncoder
}

// Renderer owns the panel.
type Renderer struct {
	mu    sync.Mutex
	panel hal.Panel
	qr    QREncoder
	scale int16
	log   *slog.Logger
}

func New(panel hal.Panel, opts Options, log *slog.Logger) *Renderer {
	if log == nil {
		log = logger.Discard()
	}
	scale := opts.QRScale
	if scale < MinQRScale || scale > MaxQRScale {
		scale = DefaultQRScale
	}
	qr := opts.QR
	if qr == nil {
		qr = EncodeQR
	}
	return &Renderer{panel: panel, qr: qr, scale: int16(scale), log: log}
}

// Render draws m. TaskList uses snap; the other screens are always black on
// white.
func (r *Renderer) Render(m mode.Mode, snap tasks.Snapshot) error {
	var draw func()
	bg, fg := hal.PanelWhite, hal.PanelBlack

	switch m.Kind {
	case mode.TaskList:
		bg, fg = Background(snap.Style.Background), Foreground(snap.Style.Foreground)
		draw = func() { r.drawTaskList(snap, m.Conn, fg) }
	case mode.Onboarding:
		bitmap, err := r.qr(m.Conn.URL())
		if err != nil {
			return err
		}
		draw = func() { r.drawOnboarding(bitmap, m.Conn, fg) }
	case mode.Welcome:
		draw = func() { r.drawWelcome(m.Conn, fg) }
	default:
		return fmt.Errorf("render: unknown mode %d", m.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.panel.Init(); err != nil {
		r.log.Error("panel init failed", logger.Mode(m.Kind.String()), logger.Err(err))
		return fmt.Errorf("%w: %w", ErrDisplayInit, err)
	}
	r.panel.SetFullWindow()
	r.panel.FirstPage()
	for page := 0; page < maxPages; page++ {
		r.panel.FillScreen(bg)
		draw()
		if !r.panel.NextPage() {
			break
		}
	}
	r.panel.Hibernate()
	r.log.Debug("rendered", logger.Mode(m.Kind.String()))
	return nil
}

// RowLabel is the text of one task row, e.g. "3.[X]Call Bob".
func RowLabel(i int, t tasks.Task) string {
	box := "[ ]"
	if t.Completed {
		box = "[X]"
	}
	return strconv.Itoa(i+1) + "." + box + t.Text
}

func (r *Renderer) drawTaskList(snap tasks.Snapshot, conn netinfo.ConnectionInfo, fg hal.PanelColor) {
	w, _ := r.panel.Size()
	c := fg.RGBA()
	for i, t := range snap.Tasks {
		y := int16(rowFirstBase + i*rowPitch)
		tinyfont.WriteLine(r.panel, taskFont, rowX, y, RowLabel(i, t), c)
		if t.Completed {
			_, prefix := tinyfont.LineWidth(taskFont, RowLabel(i, tasks.Task{Completed: true}))
			tinydraw.Line(r.panel, rowX+int16(prefix), y-strikeRise, w-strikeEndInset, y-strikeRise, c)
		}
	}

	drawSmall(r.panel, statusLabelX, statusTop, conn.Indicator(), c)
	drawSmall(r.panel, statusAddressX, statusTop, conn.Address, c)
	drawSmall(r.panel, statusLabelX, statusDescTop, conn.Description(), c)
}

func (r *Renderer) drawOnboarding(bitmap [][]bool, conn netinfo.ConnectionInfo, fg hal.PanelColor) {
	w, _ := r.panel.Size()
	c := fg.RGBA()
	size := int16(len(bitmap)) * r.scale
	x0 := (w - size) / 2
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			_ = tinydraw.FilledRectangle(r.panel, x0+int16(x)*r.scale, qrTop+int16(y)*r.scale, r.scale, r.scale, c)
		}
	}

	caption := " Scan QR \n to connect"
	if conn.IsAccessPoint() {
		caption = " HELLO!\n\n\n AP Mode \n\n Connect \n to WiFi"
	}
	drawSmall(r.panel, captionX, captionTop, caption, c)
}

func (r *Renderer) drawWelcome(conn netinfo.ConnectionInfo, fg hal.PanelColor) {
	c := fg.RGBA()
	for i, line := range []string{"Welcome!", "Go to:", conn.Address, "to enter tasks."} {
		if line == "" {
			continue
		}
		tinyfont.WriteLine(r.panel, welcomeFont, welcomeX, int16(welcomeFirstTop+i*welcomePitch), line, c)
	}
}

// drawSmall writes text in the 6x8 font with its top-left corner at (x, top).
// Each newline moves down one glyph row.
func drawSmall(d hal.Panel, x, top int16, text string, c color.RGBA) {
	for i, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		base := top + int16(i)*font6x8.Height + font6x8.Height - 1
		tinyfont.WriteLine(d, font6x8.Font, x, base, line, c)
	}
}

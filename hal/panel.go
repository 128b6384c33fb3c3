package hal

import (
	"errors"
	"image/color"

	"tinygo.org/x/drivers"
)

// ErrPanelNoAck is returned by Panel.Init when the controller never
// releases its busy line.
var ErrPanelNoAck = errors.New("panel: no acknowledgment from controller")

// PanelColor is one entry of the tri-color e-paper palette.
type PanelColor uint8

const (
	PanelWhite PanelColor = iota
	PanelBlack
	PanelRed
)

var (
	rgbaWhite = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	rgbaBlack = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
	rgbaRed   = color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}
)

// RGBA returns the drawing color for c.
func (c PanelColor) RGBA() color.RGBA {
	switch c {
	case PanelBlack:
		return rgbaBlack
	case PanelRed:
		return rgbaRed
	default:
		return rgbaWhite
	}
}

func (c PanelColor) String() string {
	switch c {
	case PanelBlack:
		return "black"
	case PanelRed:
		return "red"
	default:
		return "white"
	}
}

// PanelColorOf quantizes an arbitrary color onto the palette.
func PanelColorOf(c color.RGBA) PanelColor {
	lum := (int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000
	switch {
	case c.R >= 0x80 && c.G < 0x80 && c.B < 0x80:
		return PanelRed
	case lum < 0x80:
		return PanelBlack
	default:
		return PanelWhite
	}
}

// Panel is a paged, bistable tri-color display.
//
// A refresh runs Init, SetFullWindow, FirstPage, then draws and calls
// NextPage until it returns false, then Hibernate. Drawing between
// FirstPage and the last NextPage is clipped to the current page.
type Panel interface {
	drivers.Displayer

	Init() error
	SetFullWindow()
	FirstPage()
	// NextPage commits the current page and reports whether another page
	// is pending.
	NextPage() bool
	FillScreen(c PanelColor)
	Hibernate()
}

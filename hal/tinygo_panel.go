//go:build tinygo && baremetal

package hal

import (
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/waveshare-epd/epd2in66b"
)

const (
	epdNativeWidth  = 152
	epdNativeHeight = 296
	epdInitTimeout  = 2 * time.Second

	epdCmdDeepSleep = 0x10
)

// epdPanel drives the tri-color panel in landscape. The driver keeps a full
// frame buffer, so a refresh is a single page.
type epdPanel struct {
	dev  epd2in66b.Device
	bus  drivers.SPI
	cs   machine.Pin
	dc   machine.Pin
	rst  machine.Pin
	busy machine.Pin

	awake bool
}

func newEPDPanel(bus drivers.SPI, cs, dc, rst, busy machine.Pin) *epdPanel {
	dev := epd2in66b.New(bus)
	_ = dev.Configure(epd2in66b.Config{
		ResetPin:      rst,
		DataPin:       dc,
		ChipSelectPin: cs,
		BusyPin:       busy,
	})
	return &epdPanel{dev: dev, bus: bus, cs: cs, dc: dc, rst: rst, busy: busy}
}

func (p *epdPanel) Size() (x, y int16) { return epdNativeHeight, epdNativeWidth }

// Init pulses reset and waits for the controller to drop BUSY (high while
// busy). A controller that never answers would hang the driver's own wait,
// so the first wait is bounded here.
func (p *epdPanel) Init() error {
	p.rst.Low()
	time.Sleep(2 * time.Millisecond)
	p.rst.High()
	time.Sleep(50 * time.Millisecond)

	deadline := time.Now().Add(epdInitTimeout)
	for p.busy.Get() {
		if time.Now().After(deadline) {
			return ErrPanelNoAck
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.dev.Reset(); err != nil {
		return err
	}
	p.awake = true
	return nil
}

func (p *epdPanel) SetFullWindow() {}

func (p *epdPanel) FirstPage() {
	p.dev.ClearBuffer()
}

// SetPixel takes landscape coordinates.
func (p *epdPanel) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= epdNativeHeight || y < 0 || y >= epdNativeWidth {
		return
	}
	p.dev.SetPixel(epdNativeWidth-1-y, x, PanelColorOf(c).RGBA())
}

func (p *epdPanel) FillScreen(c PanelColor) {
	if c == PanelWhite {
		p.dev.ClearBuffer()
		return
	}
	rgba := c.RGBA()
	for y := int16(0); y < epdNativeHeight; y++ {
		for x := int16(0); x < epdNativeWidth; x++ {
			p.dev.SetPixel(x, y, rgba)
		}
	}
}

func (p *epdPanel) Display() error {
	if !p.awake {
		return ErrPanelNoAck
	}
	return p.dev.Display()
}

func (p *epdPanel) NextPage() bool {
	_ = p.Display()
	return false
}

// Hibernate sends the deep sleep command, which the driver does not expose.
func (p *epdPanel) Hibernate() {
	if !p.awake {
		return
	}
	p.dc.Low()
	p.cs.Low()
	_, _ = p.bus.Transfer(epdCmdDeepSleep)
	p.cs.High()
	p.dc.High()
	p.cs.Low()
	_, _ = p.bus.Transfer(0x01)
	p.cs.High()
	p.awake = false
}

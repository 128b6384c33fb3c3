package hal

import (
	"image"
	"image/color"
	"sync"
)

// MemPanel is an in-memory paged panel. The host HAL shows it in a window
// and tests inspect it directly.
type MemPanel struct {
	mu sync.Mutex

	w, h       int16
	pageHeight int16

	shown []PanelColor
	page  []PanelColor
	pageN int16

	powered  bool
	initErr  error
	inits    int
	refresh  int
	sleeps   int
	onCommit func()
}

// NewMemPanel returns a w x h panel that refreshes in bands of pageHeight
// rows. pageHeight <= 0 or >= h means a single page.
func NewMemPanel(w, h, pageHeight int16) *MemPanel {
	if pageHeight <= 0 || pageHeight > h {
		pageHeight = h
	}
	p := &MemPanel{
		w:          w,
		h:          h,
		pageHeight: pageHeight,
		shown:      make([]PanelColor, int(w)*int(h)),
		page:       make([]PanelColor, int(w)*int(pageHeight)),
	}
	return p
}

// SetInitError makes subsequent Init calls fail with err (nil clears it).
func (p *MemPanel) SetInitError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initErr = err
}

// OnRefresh registers fn to run after every completed full refresh.
func (p *MemPanel) OnRefresh(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onCommit = fn
}

func (p *MemPanel) Size() (x, y int16) { return p.w, p.h }

func (p *MemPanel) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initErr != nil {
		return p.initErr
	}
	p.powered = true
	p.inits++
	return nil
}

func (p *MemPanel) SetFullWindow() {}

func (p *MemPanel) FirstPage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageN = 0
	p.clearPageLocked()
}

func (p *MemPanel) SetPixel(x, y int16, c color.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.powered || x < 0 || x >= p.w || y < 0 || y >= p.h {
		return
	}
	top := p.pageN * p.pageHeight
	if y < top || y >= top+p.pageHeight {
		return
	}
	p.page[int(y-top)*int(p.w)+int(x)] = PanelColorOf(c)
}

func (p *MemPanel) FillScreen(c PanelColor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.powered {
		return
	}
	for i := range p.page {
		p.page[i] = c
	}
}

// Display commits the current page without advancing.
func (p *MemPanel) Display() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commitLocked()
	return nil
}

func (p *MemPanel) NextPage() bool {
	p.mu.Lock()
	p.commitLocked()
	p.pageN++
	if int(p.pageN)*int(p.pageHeight) < int(p.h) {
		p.clearPageLocked()
		p.mu.Unlock()
		return true
	}
	p.refresh++
	fn := p.onCommit
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
	return false
}

func (p *MemPanel) Hibernate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.powered = false
	p.sleeps++
}

// At returns the color currently shown at (x, y).
func (p *MemPanel) At(x, y int16) PanelColor {
	p.mu.Lock()
	defer p.mu.Unlock()
	if x < 0 || x >= p.w || y < 0 || y >= p.h {
		return PanelWhite
	}
	return p.shown[int(y)*int(p.w)+int(x)]
}

// Refreshes returns the number of completed full refresh cycles.
func (p *MemPanel) Refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refresh
}

// Hibernated reports whether the controller is powered down.
func (p *MemPanel) Hibernated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.powered
}

// Image renders the shown content as an RGBA image.
func (p *MemPanel) Image() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, int(p.w), int(p.h)))
	for i, c := range p.shown {
		rgba := c.RGBA()
		j := i * 4
		img.Pix[j+0] = rgba.R
		img.Pix[j+1] = rgba.G
		img.Pix[j+2] = rgba.B
		img.Pix[j+3] = 0xFF
	}
	return img
}

func (p *MemPanel) clearPageLocked() {
	for i := range p.page {
		p.page[i] = PanelWhite
	}
}

func (p *MemPanel) commitLocked() {
	if !p.powered {
		return
	}
	top := int(p.pageN) * int(p.pageHeight)
	rows := int(p.pageHeight)
	if top+rows > int(p.h) {
		rows = int(p.h) - top
	}
	if rows <= 0 {
		return
	}
	copy(p.shown[top*int(p.w):], p.page[:rows*int(p.w)])
}

package hal

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

var ErrFlashWriteRequiresErase = errors.New("flash write requires erase")

// ErrPowerLoss is returned by MemFlash once its write budget is spent.
var ErrPowerLoss = errors.New("flash: power lost")

// MemFlash is a RAM-backed NOR flash. Writes can only clear bits.
//
// A write budget simulates power loss: once it is exhausted, writes and
// erases fail and a write that straddles the limit is torn.
type MemFlash struct {
	mu     sync.Mutex
	buf    []byte
	block  uint32
	budget int // bytes that may still be programmed; <0 means unlimited
	erases int
}

// NewMemFlash returns an erased flash of size bytes with the given erase block size.
func NewMemFlash(size, block uint32) *MemFlash {
	f := &MemFlash{buf: make([]byte, size), block: block, budget: -1}
	for i := range f.buf {
		f.buf[i] = 0xFF
	}
	return f
}

// CutPowerAfter lets n more bytes be programmed, then fails every write.
// A negative n removes the limit.
func (f *MemFlash) CutPowerAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.budget = n
}

// Erases reports how many blocks have been erased.
func (f *MemFlash) Erases() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.erases
}

func (f *MemFlash) SizeBytes() uint32       { return uint32(len(f.buf)) }
func (f *MemFlash) EraseBlockBytes() uint32 { return f.block }

func (f *MemFlash) ReadAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= uint32(len(f.buf)) {
		return 0, fmt.Errorf("flash read at %d: %w", off, os.ErrInvalid)
	}
	return copy(p, f.buf[off:]), nil
}

func (f *MemFlash) WriteAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= uint32(len(f.buf)) || int(off)+len(p) > len(f.buf) {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrInvalid)
	}
	for i := range p {
		if f.buf[int(off)+i]&p[i] != p[i] {
			return 0, ErrFlashWriteRequiresErase
		}
	}
	n := len(p)
	torn := false
	if f.budget >= 0 && n > f.budget {
		n = f.budget
		torn = true
	}
	for i := 0; i < n; i++ {
		f.buf[int(off)+i] &= p[i]
	}
	if f.budget >= 0 {
		f.budget -= n
	}
	if torn {
		return n, ErrPowerLoss
	}
	return n, nil
}

func (f *MemFlash) Erase(off, size uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if size == 0 {
		return nil
	}
	if f.budget == 0 {
		return ErrPowerLoss
	}
	if off%f.block != 0 || size%f.block != 0 || off+size > uint32(len(f.buf)) {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}
	for i := off; i < off+size; i++ {
		f.buf[i] = 0xFF
	}
	f.erases += int(size / f.block)
	return nil
}

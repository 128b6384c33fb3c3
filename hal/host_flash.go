//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	hostFlashDefaultPath      = "todowrist.flash"
	hostFlashDefaultSizeBytes = 64 * 1024
	hostFlashEraseBlockBytes  = 4096
)

// hostFlash persists the simulated NVS partition in a regular file so state
// survives simulator restarts the way it survives a power cycle.
type hostFlash struct {
	mu      sync.Mutex
	f       *os.File
	size    uint32
	erased  [hostFlashEraseBlockBytes]byte
	openErr error
}

func newHostFlash(path string) *hostFlash {
	if path == "" {
		path = os.Getenv("TODOWRIST_FLASH_PATH")
	}
	if path == "" {
		path = hostFlashDefaultPath
	}

	hf := &hostFlash{}
	for i := range hf.erased {
		hf.erased[i] = 0xFF
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		hf.openErr = fmt.Errorf("open flash image %q: %w", path, err)
		return hf
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		hf.openErr = fmt.Errorf("stat flash image %q: %w", path, err)
		return hf
	}
	if st.Size() == 0 {
		hf.f = f
		hf.size = hostFlashDefaultSizeBytes
		if err := hf.Erase(0, hf.size); err != nil {
			_ = f.Close()
			return &hostFlash{openErr: err}
		}
		return hf
	}
	if st.Size() > int64(^uint32(0)) || st.Size()%hostFlashEraseBlockBytes != 0 {
		_ = f.Close()
		hf.openErr = fmt.Errorf("flash image %q: bad size %d: %w", path, st.Size(), os.ErrInvalid)
		return hf
	}
	hf.f = f
	hf.size = uint32(st.Size())
	return hf
}

func (f *hostFlash) SizeBytes() uint32 { return f.size }
func (f *hostFlash) EraseBlockBytes() uint32 {
	return hostFlashEraseBlockBytes
}

func (f *hostFlash) ReadAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return 0, f.unavailable()
	}
	if off >= f.size {
		return 0, fmt.Errorf("flash read at %d: %w", off, os.ErrInvalid)
	}
	maxN := int(f.size - off)
	if len(p) > maxN {
		p = p[:maxN]
	}
	return f.f.ReadAt(p, int64(off))
}

func (f *hostFlash) WriteAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return 0, f.unavailable()
	}
	if off >= f.size || uint64(off)+uint64(len(p)) > uint64(f.size) {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrInvalid)
	}

	buf := make([]byte, len(p))
	if _, err := f.f.ReadAt(buf, int64(off)); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("flash read before write at %d: %w", off, err)
	}
	for i := range p {
		if buf[i]&p[i] != p[i] {
			return 0, ErrFlashWriteRequiresErase
		}
	}
	n, err := f.f.WriteAt(p, int64(off))
	if err != nil {
		return n, err
	}
	return n, f.f.Sync()
}

func (f *hostFlash) Erase(off, size uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return f.unavailable()
	}
	if size == 0 {
		return nil
	}
	if off%hostFlashEraseBlockBytes != 0 || size%hostFlashEraseBlockBytes != 0 {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}
	if off >= f.size || off+size > f.size {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}

	for size > 0 {
		if _, err := f.f.WriteAt(f.erased[:], int64(off)); err != nil {
			return fmt.Errorf("flash erase block at %d: %w", off, err)
		}
		off += hostFlashEraseBlockBytes
		size -= hostFlashEraseBlockBytes
	}
	return f.f.Sync()
}

func (f *hostFlash) unavailable() error {
	if f.openErr != nil {
		return fmt.Errorf("%w: %v", ErrNotImplemented, f.openErr)
	}
	return ErrNotImplemented
}

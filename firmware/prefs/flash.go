package prefs

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sort"
	"sync"

	"todowrist/hal"
)

type kind uint8

const (
	kindString kind = 1
	kindBool   kind = 2
	kindDelete kind = 3
)

// On-flash layout.
//
// The region is split into two banks. Each bank starts with a header
//
//	magic[4] seq[4] crc[4] 0xFF[4]
//
// followed by append-only records
//
//	0xA5 nsLen keyLen kind valLen[2] 0x00 0x00 ns key val crc[4]
//
// The valid bank with the highest seq is current. A record that is torn or
// fails its CRC ends the scan.
const (
	bankMagic    = "TDKV"
	bankHdrSize  = 16
	recMarker    = 0xA5
	recHdrSize   = 8
	recTrailSize = 4
	erasedByte   = 0xFF
)

// FlashOptions selects the flash region used by the store.
type FlashOptions struct {
	// Offset and Size bound the region. Zero Size means the whole device.
	// Both must be erase-block aligned.
	Offset uint32
	Size   uint32
}

// Flash is a log-structured Store on raw NOR flash.
type Flash struct {
	mu sync.Mutex

	dev      hal.Flash
	base     uint32
	bankSize uint32

	bank uint32 // 0 or 1
	seq  uint32
	head uint32 // next free offset inside the current bank
	// dirty means the tail of the current bank holds a partial record and
	// must be compacted away before appending.
	dirty bool

	vals map[slot]value
}

// OpenFlash mounts the store on dev, formatting it when no valid bank is
// found.
func OpenFlash(dev hal.Flash, opts FlashOptions) (*Flash, error) {
	if dev == nil {
		return nil, fmt.Errorf("open flash store: %w", ErrUnavailable)
	}
	block := dev.EraseBlockBytes()
	size := opts.Size
	if size == 0 {
		if opts.Offset >= dev.SizeBytes() {
			return nil, fmt.Errorf("open flash store: offset %d beyond device: %w", opts.Offset, ErrUnavailable)
		}
		size = dev.SizeBytes() - opts.Offset
	}
	if block == 0 || opts.Offset%block != 0 {
		return nil, fmt.Errorf("open flash store: offset %d not aligned to %d", opts.Offset, block)
	}
	blocks := size / block
	if blocks < 2 {
		return nil, fmt.Errorf("open flash store: need two erase blocks, have %d: %w", blocks, ErrNoSpace)
	}

	s := &Flash{
		dev:      dev,
		base:     opts.Offset,
		bankSize: (blocks / 2) * block,
		vals:     make(map[slot]value),
	}
	if err := s.mount(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Flash) mount() error {
	var (
		seqs  [2]uint32
		valid [2]bool
	)
	for b := uint32(0); b < 2; b++ {
		seq, ok, err := s.readHeader(b)
		if err != nil {
			return fmt.Errorf("mount flash store: %w: %v", ErrUnavailable, err)
		}
		seqs[b], valid[b] = seq, ok
	}

	switch {
	case valid[0] && valid[1]:
		s.bank = 0
		if seqs[1] > seqs[0] {
			s.bank = 1
		}
	case valid[0]:
		s.bank = 0
	case valid[1]:
		s.bank = 1
	default:
		return s.format()
	}
	s.seq = seqs[s.bank]

	if err := s.scan(); err != nil {
		return err
	}
	if s.dirty {
		return s.compact(nil)
	}
	// A completed compaction may have crashed before erasing the old bank.
	other := 1 - s.bank
	if valid[other] {
		if err := s.dev.Erase(s.bankAddr(other), s.bankSize); err != nil {
			return fmt.Errorf("mount flash store: erase stale bank: %w", err)
		}
	}
	return nil
}

func (s *Flash) format() error {
	if err := s.dev.Erase(s.bankAddr(0), s.bankSize); err != nil {
		return fmt.Errorf("format flash store: %w: %v", ErrUnavailable, err)
	}
	if err := s.writeHeader(0, 1); err != nil {
		return fmt.Errorf("format flash store: %w: %v", ErrUnavailable, err)
	}
	s.bank, s.seq, s.head = 0, 1, bankHdrSize
	return nil
}

func (s *Flash) bankAddr(b uint32) uint32 { return s.base + b*s.bankSize }

func (s *Flash) readHeader(b uint32) (seq uint32, ok bool, err error) {
	var hdr [bankHdrSize]byte
	if _, err := s.dev.ReadAt(hdr[:], s.bankAddr(b)); err != nil {
		return 0, false, err
	}
	if string(hdr[0:4]) != bankMagic {
		return 0, false, nil
	}
	if crc32.ChecksumIEEE(hdr[0:8]) != binary.LittleEndian.Uint32(hdr[8:12]) {
		return 0, false, nil
	}
	return binary.LittleEndian.Uint32(hdr[4:8]), true, nil
}

func (s *Flash) writeHeader(b, seq uint32) error {
	var hdr [bankHdrSize]byte
	copy(hdr[0:4], bankMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], seq)
	binary.LittleEndian.PutUint32(hdr[8:12], crc32.ChecksumIEEE(hdr[0:8]))
	for i := 12; i < bankHdrSize; i++ {
		hdr[i] = erasedByte
	}
	_, err := s.dev.WriteAt(hdr[:], s.bankAddr(b))
	return err
}

// scan replays the current bank into vals and positions head.
func (s *Flash) scan() error {
	addr := s.bankAddr(s.bank)
	off := uint32(bankHdrSize)
	var hdr [recHdrSize]byte
	for off+recHdrSize+recTrailSize <= s.bankSize {
		if _, err := s.dev.ReadAt(hdr[:], addr+off); err != nil {
			return fmt.Errorf("scan flash store: %w: %v", ErrUnavailable, err)
		}
		if hdr[0] == erasedByte {
			if !allErased(hdr[:]) {
				s.dirty = true
			}
			break
		}
		n := recordLen(hdr)
		if hdr[0] != recMarker || n == 0 || off+n > s.bankSize {
			s.dirty = true
			break
		}
		rec := make([]byte, n)
		if _, err := s.dev.ReadAt(rec, addr+off); err != nil {
			return fmt.Errorf("scan flash store: %w: %v", ErrUnavailable, err)
		}
		k, v, ok := decodeRecord(rec)
		if !ok {
			s.dirty = true
			break
		}
		s.apply(k, v)
		off += n
	}
	s.head = off
	return nil
}

func allErased(buf []byte) bool {
	for _, b := range buf {
		if b != erasedByte {
			return false
		}
	}
	return true
}

func (s *Flash) apply(k slot, v value) {
	if v.kind == kindDelete {
		delete(s.vals, k)
		return
	}
	s.vals[k] = v
}

func recordLen(hdr [recHdrSize]byte) uint32 {
	if hdr[0] != recMarker {
		return 0
	}
	valLen := uint32(binary.LittleEndian.Uint16(hdr[4:6]))
	return recHdrSize + uint32(hdr[1]) + uint32(hdr[2]) + valLen + recTrailSize
}

func encodeRecord(k slot, v value) []byte {
	var val []byte
	switch v.kind {
	case kindString:
		val = []byte(v.str)
	case kindBool:
		val = []byte{0}
		if v.b {
			val[0] = 1
		}
	}
	n := recHdrSize + len(k.ns) + len(k.key) + len(val) + recTrailSize
	rec := make([]byte, n)
	rec[0] = recMarker
	rec[1] = byte(len(k.ns))
	rec[2] = byte(len(k.key))
	rec[3] = byte(v.kind)
	binary.LittleEndian.PutUint16(rec[4:6], uint16(len(val)))
	p := recHdrSize
	p += copy(rec[p:], k.ns)
	p += copy(rec[p:], k.key)
	p += copy(rec[p:], val)
	binary.LittleEndian.PutUint32(rec[p:], crc32.ChecksumIEEE(rec[:p]))
	return rec
}

func decodeRecord(rec []byte) (slot, value, bool) {
	if len(rec) < recHdrSize+recTrailSize {
		return slot{}, value{}, false
	}
	body := rec[:len(rec)-recTrailSize]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(rec[len(body):]) {
		return slot{}, value{}, false
	}
	nsLen, keyLen := int(rec[1]), int(rec[2])
	p := recHdrSize
	if p+nsLen+keyLen > len(body) {
		return slot{}, value{}, false
	}
	k := slot{ns: string(body[p : p+nsLen]), key: string(body[p+nsLen : p+nsLen+keyLen])}
	val := body[p+nsLen+keyLen:]

	v := value{kind: kind(rec[3])}
	switch v.kind {
	case kindString:
		v.str = string(val)
	case kindBool:
		if len(val) != 1 {
			return slot{}, value{}, false
		}
		v.b = val[0] == 1
	case kindDelete:
	default:
		return slot{}, value{}, false
	}
	return k, v, true
}

func (s *Flash) GetString(ns, key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vals[slot{ns, key}]; ok && v.kind == kindString {
		return v.str
	}
	return def
}

func (s *Flash) GetBool(ns, key string, def bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vals[slot{ns, key}]; ok && v.kind == kindBool {
		return v.b
	}
	return def
}

func (s *Flash) PutString(ns, key, str string) error {
	if len(str) > 0xFFFF {
		return fmt.Errorf("prefs: value for %s/%s too long", ns, key)
	}
	return s.write(slot{ns, key}, value{kind: kindString, str: str})
}

func (s *Flash) PutBool(ns, key string, b bool) error {
	return s.write(slot{ns, key}, value{kind: kindBool, b: b})
}

func (s *Flash) Remove(ns, key string) error {
	return s.write(slot{ns, key}, value{kind: kindDelete})
}

func (s *Flash) write(k slot, v value) error {
	if err := validKey(k.ns, k.key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.vals[k]
	if v.kind == kindDelete && !exists {
		return nil
	}
	if exists && cur == v {
		return nil
	}

	rec := encodeRecord(k, v)
	if s.dirty || s.head+uint32(len(rec)) > s.bankSize {
		if err := s.compact(rec); err != nil {
			return err
		}
		s.apply(k, v)
		return nil
	}

	if _, err := s.dev.WriteAt(rec, s.bankAddr(s.bank)+s.head); err != nil {
		s.dirty = true
		return fmt.Errorf("write %s/%s: %w: %w", k.ns, k.key, ErrUnavailable, err)
	}
	s.head += uint32(len(rec))
	s.apply(k, v)
	return nil
}

// compact rewrites the live set, plus pending when non-nil, into the other
// bank and makes it current.
func (s *Flash) compact(pending []byte) error {
	keys := make([]slot, 0, len(s.vals))
	for k := range s.vals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ns != keys[j].ns {
			return keys[i].ns < keys[j].ns
		}
		return keys[i].key < keys[j].key
	})

	var pendingKey slot
	var hasPending bool
	if pending != nil {
		pk, _, ok := decodeRecord(pending)
		if !ok {
			return fmt.Errorf("compact: %w", ErrCorrupt)
		}
		pendingKey, hasPending = pk, true
	}

	recs := make([][]byte, 0, len(keys)+1)
	total := uint32(bankHdrSize)
	for _, k := range keys {
		if hasPending && k == pendingKey {
			continue
		}
		r := encodeRecord(k, s.vals[k])
		recs = append(recs, r)
		total += uint32(len(r))
	}
	if hasPending {
		if _, v, _ := decodeRecord(pending); v.kind != kindDelete {
			recs = append(recs, pending)
			total += uint32(len(pending))
		}
	}
	if total > s.bankSize {
		return fmt.Errorf("compact: %d bytes live, bank holds %d: %w", total, s.bankSize, ErrNoSpace)
	}

	next := 1 - s.bank
	addr := s.bankAddr(next)
	if err := s.dev.Erase(addr, s.bankSize); err != nil {
		return fmt.Errorf("compact: erase bank %d: %w: %w", next, ErrUnavailable, err)
	}
	off := uint32(bankHdrSize)
	for _, r := range recs {
		if _, err := s.dev.WriteAt(r, addr+off); err != nil {
			return fmt.Errorf("compact: copy: %w: %w", ErrUnavailable, err)
		}
		off += uint32(len(r))
	}
	// The header goes last: until it lands the old bank stays current.
	if err := s.writeHeader(next, s.seq+1); err != nil {
		return fmt.Errorf("compact: header: %w: %w", ErrUnavailable, err)
	}
	old := s.bank
	s.bank, s.seq, s.head, s.dirty = next, s.seq+1, off, false
	// A stale bank left behind here is erased on the next mount.
	_ = s.dev.Erase(s.bankAddr(old), s.bankSize)
	return nil
}

// Close is a no-op; every write is already on flash.
func (s *Flash) Close() error { return nil }

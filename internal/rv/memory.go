package rv

import (
	"encoding/binary"
	"fmt"
)

// RAM is a flat physical memory window. The page walker is its only
// client here; there is no device bus.
type RAM struct {
	base uint64
	data []byte
}

// NewRAM allocates size bytes of physical memory starting at base.
func NewRAM(base, size uint64) *RAM {
	return &RAM{base: base, data: make([]byte, size)}
}

// Base returns the first valid physical address.
func (r *RAM) Base() uint64 {
	return r.base
}

// Size returns the memory size in bytes.
func (r *RAM) Size() uint64 {
	return uint64(len(r.data))
}

func (r *RAM) slice(addr, n uint64) ([]byte, error) {
	if addr < r.base || addr+n > r.base+uint64(len(r.data)) || addr+n < addr {
		return nil, fmt.Errorf("physical access out of range: 0x%x", addr)
	}
	off := addr - r.base
	return r.data[off : off+n], nil
}

// Read32 reads a little-endian 32-bit word.
func (r *RAM) Read32(addr uint64) (uint32, error) {
	b, err := r.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Write32 writes a little-endian 32-bit word.
func (r *RAM) Write32(addr uint64, val uint32) error {
	b, err := r.slice(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, val)
	return nil
}

// Read64 reads a little-endian 64-bit word.
func (r *RAM) Read64(addr uint64) (uint64, error) {
	b, err := r.slice(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Write64 writes a little-endian 64-bit word.
func (r *RAM) Write64(addr uint64, val uint64) error {
	b, err := r.slice(addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, val)
	return nil
}

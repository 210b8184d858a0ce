package edgewasm

import (
	"encoding/binary"

	"github.com/bytecodealliance/wasmtime-go/v25"
)

// MemorySlice represents an underlying slice of memory from a wasm program.
// An implementation of MemorySlice is most often wrapped with a Memory, which provides
// convenience functions to read and write different values.
type MemorySlice interface {
	Data() []byte
}

// ByteMemory is a MemorySlice mostly used for tests, where you want to be able to write
// directly into the memory slice and read it out without a real wasm instance.
type ByteMemory []byte

func (m ByteMemory) Data() []byte { return m }

// wasmMemory is a MemorySlice implementation backed by a live wasmtime.Memory export. The
// underlying data pointer can move whenever the guest grows its memory, so it's refetched
// from the store on every access rather than cached.
type wasmMemory struct {
	store *wasmtime.Store
	mem   *wasmtime.Memory
}

func (m *wasmMemory) Data() []byte {
	return m.mem.UnsafeData(m.store)
}

// Memory is a wrapper around a MemorySlice that adds the typed accessors the ABI needs.
// Offsets and lengths arrive from the guest as i32s; callers pass them through unchanged.
type Memory struct {
	MemorySlice
}

func (m *Memory) Uint32(offset int32) uint32 {
	return binary.LittleEndian.Uint32(m.Data()[offset:])
}

func (m *Memory) PutUint32(v uint32, offset int32) {
	binary.LittleEndian.PutUint32(m.Data()[offset:], v)
}

// PutInt32 performs a write-i32: exactly four bytes, little-endian, signed. Every ABI
// out-slot documented as carrying a signed value (cursors in particular) must go through
// this and not some wider encoding.
func (m *Memory) PutInt32(v int32, offset int32) {
	binary.LittleEndian.PutUint32(m.Data()[offset:], uint32(v))
}

// ReadAt copies into p from wasm memory starting at offset.
func (m *Memory) ReadAt(p []byte, offset int32) int {
	return copy(p, m.Data()[offset:])
}

// WriteAt copies p into wasm memory starting at offset, returning the number of bytes
// actually written (bounded by the destination's remaining length).
func (m *Memory) WriteAt(p []byte, offset int32) int {
	return copy(m.Data()[offset:], p)
}

// String reads size bytes at offset and returns them as a string.
func (m *Memory) String(offset, size int32) string {
	return string(m.Data()[offset : offset+size])
}

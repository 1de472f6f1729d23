package wasm

import "encoding/binary"

// Size returns the memory's current size in bytes.
func (m *MemInst) Size() uint32 { return uint32(len(m.Data)) }

// Grow increases the memory by delta pages, returning the previous size in
// pages and whether the grow succeeded (it fails if it would exceed Type.Max
// or overflow the uint32 byte-length addressing this core uses throughout).
func (m *MemInst) Grow(delta uint32) (previousPages uint32, ok bool) {
	previousPages = m.PageCount()
	newPages := uint64(previousPages) + uint64(delta)
	if m.Type.Max != nil && newPages > uint64(*m.Type.Max) {
		return previousPages, false
	}
	newByteLen := newPages * memoryPageSize
	if newByteLen > uint64(^uint32(0)) {
		return previousPages, false
	}
	m.Data = append(m.Data, make([]byte, uint64(delta)*memoryPageSize)...)
	return previousPages, true
}

func (m *MemInst) ReadByte(offset uint32) (byte, bool) {
	if uint64(offset) >= uint64(len(m.Data)) {
		return 0, false
	}
	return m.Data[offset], true
}

func (m *MemInst) ReadUint32Le(offset uint32) (uint32, bool) {
	buf, ok := m.Read(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf), true
}

func (m *MemInst) ReadUint64Le(offset uint32) (uint64, bool) {
	buf, ok := m.Read(offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(buf), true
}

// Read returns a write-through view of byteCount bytes starting at offset,
// or false if that range is out of bounds.
func (m *MemInst) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(m.Data)) {
		return nil, false
	}
	return m.Data[offset:end], true
}

func (m *MemInst) WriteByte(offset uint32, v byte) bool {
	if uint64(offset) >= uint64(len(m.Data)) {
		return false
	}
	m.Data[offset] = v
	return true
}

func (m *MemInst) WriteUint32Le(offset, v uint32) bool {
	buf, ok := m.Read(offset, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(buf, v)
	return true
}

func (m *MemInst) WriteUint64Le(offset uint32, v uint64) bool {
	buf, ok := m.Read(offset, 8)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint64(buf, v)
	return true
}

// Write copies v into the memory starting at offset, or returns false if
// that range is out of bounds.
func (m *MemInst) Write(offset uint32, v []byte) bool {
	buf, ok := m.Read(offset, uint32(len(v)))
	if !ok {
		return false
	}
	copy(buf, v)
	return true
}

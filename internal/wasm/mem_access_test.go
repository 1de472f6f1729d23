package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newMem(minPages uint32, maxPages *uint32) *MemInst {
	return &MemInst{
		Type: &MemoryType{Min: minPages, Max: maxPages},
		Data: make([]byte, uint64(minPages)*memoryPageSize),
	}
}

func TestMemInst_GrowWithinMax(t *testing.T) {
	max := uint32(4)
	m := newMem(1, &max)

	prev, ok := m.Grow(2)
	require.True(t, ok)
	require.Equal(t, uint32(1), prev)
	require.Equal(t, uint32(3), m.PageCount())
}

func TestMemInst_GrowPastMaxRejected(t *testing.T) {
	max := uint32(2)
	m := newMem(1, &max)

	prev, ok := m.Grow(5)
	require.False(t, ok)
	require.Equal(t, uint32(1), prev)
	require.Equal(t, uint32(1), m.PageCount())
}

func TestMemInst_ReadWriteRoundTrip(t *testing.T) {
	m := newMem(1, nil)

	require.True(t, m.WriteUint32Le(8, 0xdeadbeef))
	v, ok := m.ReadUint32Le(8)
	require.True(t, ok)
	require.Equal(t, uint32(0xdeadbeef), v)

	require.True(t, m.WriteUint64Le(16, 0x0102030405060708))
	v64, ok := m.ReadUint64Le(16)
	require.True(t, ok)
	require.Equal(t, uint64(0x0102030405060708), v64)

	require.True(t, m.WriteByte(0, 0x42))
	b, ok := m.ReadByte(0)
	require.True(t, ok)
	require.Equal(t, byte(0x42), b)
}

func TestMemInst_OutOfBoundsAccessRejected(t *testing.T) {
	m := newMem(1, nil)

	_, ok := m.ReadUint32Le(memoryPageSize - 2)
	require.False(t, ok)

	ok = m.WriteUint64Le(memoryPageSize-4, 1)
	require.False(t, ok)

	_, ok = m.ReadByte(memoryPageSize)
	require.False(t, ok)
}

package wazeroir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvert_BrTable(t *testing.T) {
	// spec.md §8 scenario 3: br_table [1,2,0] (default=3).
	ops := NewSliceOperatorReader([]Operator{
		{Kind: OpcodeBrTable, BrTableDefault: 3, BrTableTargets: []uint32{1, 2, 0}},
	})

	instructions, err := Convert(ops)
	require.NoError(t, err)
	require.Equal(t, []Instruction{
		{Opcode: OpcodeBrTable, Depth: 3, Count: 3},
		{Opcode: OpcodeBrLabel, Depth: 1},
		{Opcode: OpcodeBrLabel, Depth: 2},
		{Opcode: OpcodeBrLabel, Depth: 0},
	}, instructions)
}

func TestConvert_UnsupportedOperator(t *testing.T) {
	ops := NewSliceOperatorReader([]Operator{
		{Kind: OpcodeNop},
		{Unsupported: "v128.const"},
	})

	instructions, err := Convert(ops)
	require.Nil(t, instructions)
	require.Error(t, err)
	require.Contains(t, err.Error(), "v128.const")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, ParseErrorUnsupportedOperator, parseErr.Kind)
}

func TestConvert_MultiValueBlockRejected(t *testing.T) {
	ops := NewSliceOperatorReader([]Operator{
		{Kind: OpcodeBlock, IsFuncTypeBlock: true},
	})

	_, err := Convert(ops)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multi-value")
}

func TestConvert_RoundTrip(t *testing.T) {
	// A sample of operators from each group of the §6 supported list,
	// covering every kind of immediate, plus the §4.1-supplemented
	// consts/refs, round-trips its immediates unchanged.
	ops := []Operator{
		{Kind: OpcodeUnreachable},
		{Kind: OpcodeNop},
		{Kind: OpcodeBlock, Block: BlockArgs{Kind: BlockArgsKindType, ValType: 0x7f}},
		{Kind: OpcodeLoop, Block: BlockArgs{Kind: BlockArgsKindEmpty}},
		{Kind: OpcodeIf, Block: BlockArgs{Kind: BlockArgsKindEmpty}},
		{Kind: OpcodeElse},
		{Kind: OpcodeEnd},
		{Kind: OpcodeBr, Depth: 2},
		{Kind: OpcodeBrIf, Depth: 1},
		{Kind: OpcodeReturn},
		{Kind: OpcodeCall, Index: 7},
		{Kind: OpcodeCallIndirect, Index: 3, TableIndex: 0},
		{Kind: OpcodeDrop},
		{Kind: OpcodeSelect},
		{Kind: OpcodeLocalGet, Index: 0},
		{Kind: OpcodeLocalSet, Index: 1},
		{Kind: OpcodeLocalTee, Index: 2},
		{Kind: OpcodeGlobalGet, Index: 0},
		{Kind: OpcodeGlobalSet, Index: 1},
		{Kind: OpcodeMemorySize},
		{Kind: OpcodeMemoryGrow},
		{Kind: OpcodeI32Load, Mem: MemArg{Offset: 4, Align: 2}},
		{Kind: OpcodeI64Store32, Mem: MemArg{Offset: 0, Align: 0}},
		{Kind: OpcodeI32Const, ConstI32: -42},
		{Kind: OpcodeI64Const, ConstI64: 1 << 40},
		{Kind: OpcodeF32Const, ConstF32Bits: 0x3f800000},
		{Kind: OpcodeF64Const, ConstF64Bits: 0x3ff0000000000000},
		{Kind: OpcodeRefNull, RefType: 0x70},
		{Kind: OpcodeRefFunc, Index: 5},
		{Kind: OpcodeI32Add},
		{Kind: OpcodeI64ExtendI32S},
		{Kind: OpcodeF32DemoteF64},
		{Kind: OpcodeI32ReinterpretF32},
	}

	instructions, err := Convert(NewSliceOperatorReader(ops))
	require.NoError(t, err)
	require.Len(t, instructions, len(ops))
	for i, op := range ops {
		require.Equal(t, op.Kind, instructions[i].Opcode, "index %d", i)
		require.Equal(t, op.Depth, instructions[i].Depth, "index %d", i)
		require.Equal(t, op.Index, instructions[i].Index, "index %d", i)
		require.Equal(t, op.TableIndex, instructions[i].TableIndex, "index %d", i)
		require.Equal(t, op.Block, instructions[i].Block, "index %d", i)
		require.Equal(t, op.Mem, instructions[i].Mem, "index %d", i)
		require.Equal(t, op.ConstI32, instructions[i].ConstI32, "index %d", i)
		require.Equal(t, op.ConstI64, instructions[i].ConstI64, "index %d", i)
		require.Equal(t, op.ConstF32Bits, instructions[i].ConstF32Bits, "index %d", i)
		require.Equal(t, op.ConstF64Bits, instructions[i].ConstF64Bits, "index %d", i)
		require.Equal(t, op.RefType, instructions[i].RefType, "index %d", i)
	}
}

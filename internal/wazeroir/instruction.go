package wazeroir

import "github.com/wazerolite/wazerolite/api"

// ValType is re-exported from api so callers of this package never need to
// import two packages just to read a block signature.
type ValType = api.ValueType

// BlockArgs describes the input/output signature carried by block, loop,
// and if instructions. Only the forms needed by Wasm 1.0 (Empty and a single
// ValType) are representable; FuncType block results (Wasm 2.0 multi-value,
// a non-goal) are rejected during conversion rather than silently misparsed.
type BlockArgs struct {
	// Kind discriminates Empty from Type. There is no FuncType kind: a
	// multi-value block type fails conversion (see Convert) before a
	// BlockArgs is ever constructed for it.
	Kind BlockArgsKind
	// ValType is meaningful only when Kind == BlockArgsKindType.
	ValType ValType
}

type BlockArgsKind byte

const (
	BlockArgsKindEmpty BlockArgsKind = iota
	BlockArgsKindType
)

// MemArg is the immediate attached to every load/store instruction.
type MemArg struct {
	Offset uint64
	Align  uint32
}

// Instruction is one entry in the flat, densely tagged instruction stream
// produced by Convert (the conversion pass described in spec.md §4.1). It
// is deliberately a single flat struct rather than N per-opcode struct
// types: the source format this core re-implements represents every
// operator as one tagged variant with a handful of optional immediate
// slots, and a flat struct is the direct Go rendering of that shape
// (see SPEC_FULL.md §3 for the rationale, including the BrTable Count
// field that resolves spec.md §9's open arity question).
type Instruction struct {
	Opcode Opcode

	// Depth is the relative branch depth for Br, BrIf, BrTable (the
	// default target), and BrLabel (one table case).
	Depth uint32

	// Count is populated only on BrTable: the number of BrLabel entries
	// immediately following this instruction in the stream. This is the
	// resolution of the open arity question in spec.md §9, option (a).
	Count uint32

	// Index carries, depending on Opcode: the function index for Call
	// and RefFunc, the local index for LocalGet/Set/Tee, the global
	// index for GlobalGet/Set, and the type index for CallIndirect.
	Index uint32

	// TableIndex carries the table index for CallIndirect. It is always
	// zero in Wasm 1.0 (a single table) but kept distinct from Index so
	// a future reference-types-aware caller need not repack immediates.
	TableIndex uint32

	// Block carries the blocktype for Block, Loop, and If.
	Block BlockArgs

	// Mem carries the memarg for every load/store instruction.
	Mem MemArg

	// ConstI32/ConstI64 hold signed immediates for I32Const/I64Const.
	// ConstF32Bits/ConstF64Bits hold the raw IEEE-754 bit pattern for
	// F32Const/F64Const, matching api.EncodeF32/EncodeF64.
	ConstI32     int32
	ConstI64     int64
	ConstF32Bits uint32
	ConstF64Bits uint64

	// RefType carries the reference value type for RefNull (funcref or
	// externref).
	RefType ValType
}

package wazeroir

import "fmt"

// Opcode tags an Instruction with the operation it performs. The numeric
// values are internal to this package; they intentionally do not match the
// WebAssembly binary opcode bytes, since the point of conversion is to
// leave binary-format concerns (LEB128, sign encoding, etc.) behind in the
// external decoder.
type Opcode uint16

const (
	// Control.
	OpcodeUnreachable Opcode = iota
	OpcodeNop
	OpcodeBlock
	OpcodeLoop
	OpcodeIf
	OpcodeElse
	OpcodeEnd
	OpcodeBr
	OpcodeBrIf
	OpcodeBrTable
	// OpcodeBrLabel is not a real Wasm opcode. It is the synthetic marker
	// this package emits once per br_table case, immediately following an
	// OpcodeBrTable instruction. See Instruction.Count.
	OpcodeBrLabel
	OpcodeReturn
	OpcodeCall
	OpcodeCallIndirect
	OpcodeDrop
	OpcodeSelect

	// Variable.
	OpcodeLocalGet
	OpcodeLocalSet
	OpcodeLocalTee
	OpcodeGlobalGet
	OpcodeGlobalSet

	// Memory.
	OpcodeMemorySize
	OpcodeMemoryGrow
	OpcodeI32Load
	OpcodeI64Load
	OpcodeF32Load
	OpcodeF64Load
	OpcodeI32Load8S
	OpcodeI32Load8U
	OpcodeI32Load16S
	OpcodeI32Load16U
	OpcodeI64Load8S
	OpcodeI64Load8U
	OpcodeI64Load16S
	OpcodeI64Load16U
	OpcodeI64Load32S
	OpcodeI64Load32U
	OpcodeI32Store
	OpcodeI64Store
	OpcodeF32Store
	OpcodeF64Store
	OpcodeI32Store8
	OpcodeI32Store16
	OpcodeI64Store8
	OpcodeI64Store16
	OpcodeI64Store32

	// Numeric constants. Not enumerated in spec.md §6 but required by
	// every real function body and by the constant-expression evaluator
	// in §4.5 — see SPEC_FULL.md §4.1.
	OpcodeI32Const
	OpcodeI64Const
	OpcodeF32Const
	OpcodeF64Const

	// Reference instructions, needed by constant expressions (§4.5) and
	// by element-segment initializers.
	OpcodeRefNull
	OpcodeRefFunc

	// i32 comparisons.
	OpcodeI32Eqz
	OpcodeI32Eq
	OpcodeI32Ne
	OpcodeI32LtS
	OpcodeI32LtU
	OpcodeI32GtS
	OpcodeI32GtU
	OpcodeI32LeS
	OpcodeI32LeU
	OpcodeI32GeS
	OpcodeI32GeU

	// i64 comparisons.
	OpcodeI64Eqz
	OpcodeI64Eq
	OpcodeI64Ne
	OpcodeI64LtS
	OpcodeI64LtU
	OpcodeI64GtS
	OpcodeI64GtU
	OpcodeI64LeS
	OpcodeI64LeU
	OpcodeI64GeS
	OpcodeI64GeU

	// f32/f64 comparisons.
	OpcodeF32Eq
	OpcodeF32Ne
	OpcodeF32Lt
	OpcodeF32Gt
	OpcodeF32Le
	OpcodeF32Ge
	OpcodeF64Eq
	OpcodeF64Ne
	OpcodeF64Lt
	OpcodeF64Gt
	OpcodeF64Le
	OpcodeF64Ge

	// i32 arithmetic/bitwise.
	OpcodeI32Clz
	OpcodeI32Ctz
	OpcodeI32Popcnt
	OpcodeI32Add
	OpcodeI32Sub
	OpcodeI32Mul
	OpcodeI32DivS
	OpcodeI32DivU
	OpcodeI32RemS
	OpcodeI32RemU
	OpcodeI32And
	OpcodeI32Or
	OpcodeI32Xor
	OpcodeI32Shl
	OpcodeI32ShrS
	OpcodeI32ShrU
	OpcodeI32Rotl
	OpcodeI32Rotr

	// i64 arithmetic/bitwise.
	OpcodeI64Clz
	OpcodeI64Ctz
	OpcodeI64Popcnt
	OpcodeI64Add
	OpcodeI64Sub
	OpcodeI64Mul
	OpcodeI64DivS
	OpcodeI64DivU
	OpcodeI64RemS
	OpcodeI64RemU
	OpcodeI64And
	OpcodeI64Or
	OpcodeI64Xor
	OpcodeI64Shl
	OpcodeI64ShrS
	OpcodeI64ShrU
	OpcodeI64Rotl
	OpcodeI64Rotr

	// f32 arithmetic.
	OpcodeF32Abs
	OpcodeF32Neg
	OpcodeF32Ceil
	OpcodeF32Floor
	OpcodeF32Trunc
	OpcodeF32Nearest
	OpcodeF32Sqrt
	OpcodeF32Add
	OpcodeF32Sub
	OpcodeF32Mul
	OpcodeF32Div
	OpcodeF32Min
	OpcodeF32Max
	OpcodeF32Copysign

	// f64 arithmetic.
	OpcodeF64Abs
	OpcodeF64Neg
	OpcodeF64Ceil
	OpcodeF64Floor
	OpcodeF64Trunc
	OpcodeF64Nearest
	OpcodeF64Sqrt
	OpcodeF64Add
	OpcodeF64Sub
	OpcodeF64Mul
	OpcodeF64Div
	OpcodeF64Min
	OpcodeF64Max
	OpcodeF64Copysign

	// Conversions.
	OpcodeI32WrapI64
	OpcodeI32TruncF32S
	OpcodeI32TruncF32U
	OpcodeI32TruncF64S
	OpcodeI32TruncF64U
	OpcodeI64ExtendI32S
	OpcodeI64ExtendI32U
	OpcodeI64TruncF32S
	OpcodeI64TruncF32U
	OpcodeI64TruncF64S
	OpcodeI64TruncF64U
	OpcodeF32ConvertI32S
	OpcodeF32ConvertI32U
	OpcodeF32ConvertI64S
	OpcodeF32ConvertI64U
	OpcodeF32DemoteF64
	OpcodeF64ConvertI32S
	OpcodeF64ConvertI32U
	OpcodeF64ConvertI64S
	OpcodeF64ConvertI64U
	OpcodeF64PromoteF32
	OpcodeI32ReinterpretF32
	OpcodeI64ReinterpretF64
	OpcodeF32ReinterpretI32
	OpcodeF64ReinterpretI64
)

// opcodeNames is used only for diagnostics, through Name (e.g. in
// constant-expression errors); it is not part of any wire format.
var opcodeNames = map[Opcode]string{
	OpcodeUnreachable:       "unreachable",
	OpcodeNop:                "nop",
	OpcodeBlock:              "block",
	OpcodeLoop:               "loop",
	OpcodeIf:                 "if",
	OpcodeElse:               "else",
	OpcodeEnd:                "end",
	OpcodeBr:                 "br",
	OpcodeBrIf:               "br_if",
	OpcodeBrTable:            "br_table",
	OpcodeBrLabel:            "br_table.label",
	OpcodeReturn:             "return",
	OpcodeCall:               "call",
	OpcodeCallIndirect:       "call_indirect",
	OpcodeDrop:               "drop",
	OpcodeSelect:             "select",
	OpcodeLocalGet:           "local.get",
	OpcodeLocalSet:           "local.set",
	OpcodeLocalTee:           "local.tee",
	OpcodeGlobalGet:          "global.get",
	OpcodeGlobalSet:          "global.set",
	OpcodeMemorySize:         "memory.size",
	OpcodeMemoryGrow:         "memory.grow",
	OpcodeI32Const:           "i32.const",
	OpcodeI64Const:           "i64.const",
	OpcodeF32Const:           "f32.const",
	OpcodeF64Const:           "f64.const",
	OpcodeRefNull:            "ref.null",
	OpcodeRefFunc:            "ref.func",
}

// Name returns a human-readable mnemonic for op, falling back to a numeric
// placeholder for opcodes not worth naming individually (loads/stores and
// the numeric matrix follow a regular enough naming scheme that callers
// rarely need them formatted).
func (op Opcode) Name() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("opcode(%d)", uint16(op))
}

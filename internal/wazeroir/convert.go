package wazeroir

import (
	"errors"
	"fmt"
	"io"
)

// Convert translates a decoded operator stream into the flat Instruction
// sequence this core interprets addresses against. It is the Go rendering
// of tinywasm's process_operators/process_operator (see
// original_source/crates/parser/src/conversion.rs): a single forward pass,
// no backpatching, no control-flow flattening beyond the BrTable/BrLabel
// expansion described in spec.md §3 and §4.1.
func Convert(r OperatorReader) ([]Instruction, error) {
	var out []Instruction
	for {
		op, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, &ParseError{Kind: ParseErrorOther, Description: "reading operator", Cause: err}
		}

		if op.Unsupported != "" {
			return nil, UnsupportedOperator(op.Unsupported)
		}

		if op.Kind == OpcodeBrTable {
			out = append(out, Instruction{Opcode: OpcodeBrTable, Depth: op.BrTableDefault, Count: uint32(len(op.BrTableTargets))})
			for _, target := range op.BrTableTargets {
				out = append(out, Instruction{Opcode: OpcodeBrLabel, Depth: target})
			}
			continue
		}

		inst, err := convertOne(op)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
}

// convertOne converts a single non-BrTable Operator. It is the direct
// analogue of tinywasm's process_operator: immediates are copied verbatim,
// one Instruction per supported Operator, and a Wasm 2.0 FuncType blocktype
// (multi-value) is rejected rather than silently mishandled.
func convertOne(op Operator) (Instruction, error) {
	if op.IsFuncTypeBlock {
		return Instruction{}, UnsupportedOperator("function-type (multi-value) block signature")
	}

	switch op.Kind {
	case OpcodeBlock, OpcodeLoop, OpcodeIf:
		return Instruction{Opcode: op.Kind, Block: op.Block}, nil
	case OpcodeBr, OpcodeBrIf:
		return Instruction{Opcode: op.Kind, Depth: op.Depth}, nil
	case OpcodeCall, OpcodeRefFunc:
		return Instruction{Opcode: op.Kind, Index: op.Index}, nil
	case OpcodeCallIndirect:
		return Instruction{Opcode: op.Kind, Index: op.Index, TableIndex: op.TableIndex}, nil
	case OpcodeLocalGet, OpcodeLocalSet, OpcodeLocalTee, OpcodeGlobalGet, OpcodeGlobalSet:
		return Instruction{Opcode: op.Kind, Index: op.Index}, nil
	case OpcodeI32Load, OpcodeI64Load, OpcodeF32Load, OpcodeF64Load,
		OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI32Load16S, OpcodeI32Load16U,
		OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI64Load16S, OpcodeI64Load16U,
		OpcodeI64Load32S, OpcodeI64Load32U,
		OpcodeI32Store, OpcodeI64Store, OpcodeF32Store, OpcodeF64Store,
		OpcodeI32Store8, OpcodeI32Store16, OpcodeI64Store8, OpcodeI64Store16, OpcodeI64Store32:
		return Instruction{Opcode: op.Kind, Mem: op.Mem}, nil
	case OpcodeI32Const:
		return Instruction{Opcode: op.Kind, ConstI32: op.ConstI32}, nil
	case OpcodeI64Const:
		return Instruction{Opcode: op.Kind, ConstI64: op.ConstI64}, nil
	case OpcodeF32Const:
		return Instruction{Opcode: op.Kind, ConstF32Bits: op.ConstF32Bits}, nil
	case OpcodeF64Const:
		return Instruction{Opcode: op.Kind, ConstF64Bits: op.ConstF64Bits}, nil
	case OpcodeRefNull:
		return Instruction{Opcode: op.Kind, RefType: op.RefType}, nil
	case OpcodeUnreachable, OpcodeNop, OpcodeElse, OpcodeEnd, OpcodeReturn, OpcodeDrop, OpcodeSelect,
		OpcodeMemorySize, OpcodeMemoryGrow,
		OpcodeI32Eqz, OpcodeI32Eq, OpcodeI32Ne, OpcodeI32LtS, OpcodeI32LtU, OpcodeI32GtS, OpcodeI32GtU,
		OpcodeI32LeS, OpcodeI32LeU, OpcodeI32GeS, OpcodeI32GeU,
		OpcodeI64Eqz, OpcodeI64Eq, OpcodeI64Ne, OpcodeI64LtS, OpcodeI64LtU, OpcodeI64GtS, OpcodeI64GtU,
		OpcodeI64LeS, OpcodeI64LeU, OpcodeI64GeS, OpcodeI64GeU,
		OpcodeF32Eq, OpcodeF32Ne, OpcodeF32Lt, OpcodeF32Gt, OpcodeF32Le, OpcodeF32Ge,
		OpcodeF64Eq, OpcodeF64Ne, OpcodeF64Lt, OpcodeF64Gt, OpcodeF64Le, OpcodeF64Ge,
		OpcodeI32Clz, OpcodeI32Ctz, OpcodeI32Popcnt, OpcodeI32Add, OpcodeI32Sub, OpcodeI32Mul,
		OpcodeI32DivS, OpcodeI32DivU, OpcodeI32RemS, OpcodeI32RemU, OpcodeI32And, OpcodeI32Or, OpcodeI32Xor,
		OpcodeI32Shl, OpcodeI32ShrS, OpcodeI32ShrU, OpcodeI32Rotl, OpcodeI32Rotr,
		OpcodeI64Clz, OpcodeI64Ctz, OpcodeI64Popcnt, OpcodeI64Add, OpcodeI64Sub, OpcodeI64Mul,
		OpcodeI64DivS, OpcodeI64DivU, OpcodeI64RemS, OpcodeI64RemU, OpcodeI64And, OpcodeI64Or, OpcodeI64Xor,
		OpcodeI64Shl, OpcodeI64ShrS, OpcodeI64ShrU, OpcodeI64Rotl, OpcodeI64Rotr,
		OpcodeF32Abs, OpcodeF32Neg, OpcodeF32Ceil, OpcodeF32Floor, OpcodeF32Trunc, OpcodeF32Nearest,
		OpcodeF32Sqrt, OpcodeF32Add, OpcodeF32Sub, OpcodeF32Mul, OpcodeF32Div, OpcodeF32Min, OpcodeF32Max, OpcodeF32Copysign,
		OpcodeF64Abs, OpcodeF64Neg, OpcodeF64Ceil, OpcodeF64Floor, OpcodeF64Trunc, OpcodeF64Nearest,
		OpcodeF64Sqrt, OpcodeF64Add, OpcodeF64Sub, OpcodeF64Mul, OpcodeF64Div, OpcodeF64Min, OpcodeF64Max, OpcodeF64Copysign,
		OpcodeI32WrapI64, OpcodeI32TruncF32S, OpcodeI32TruncF32U, OpcodeI32TruncF64S, OpcodeI32TruncF64U,
		OpcodeI64ExtendI32S, OpcodeI64ExtendI32U, OpcodeI64TruncF32S, OpcodeI64TruncF32U, OpcodeI64TruncF64S, OpcodeI64TruncF64U,
		OpcodeF32ConvertI32S, OpcodeF32ConvertI32U, OpcodeF32ConvertI64S, OpcodeF32ConvertI64U, OpcodeF32DemoteF64,
		OpcodeF64ConvertI32S, OpcodeF64ConvertI32U, OpcodeF64ConvertI64S, OpcodeF64ConvertI64U, OpcodeF64PromoteF32,
		OpcodeI32ReinterpretF32, OpcodeI64ReinterpretF64, OpcodeF32ReinterpretI32, OpcodeF64ReinterpretI64:
		return Instruction{Opcode: op.Kind}, nil
	default:
		return Instruction{}, UnsupportedOperator(fmt.Sprintf("opcode(%d)", op.Kind))
	}
}

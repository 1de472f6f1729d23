package wasm

import (
	"github.com/wazerolite/wazerolite/internal/wazeroir"
)

// evalConstExpr evaluates a constant initializer expression (spec.md §4.5):
// a strict subset of instructions producing exactly one Value. It is
// deliberately a standalone sub-interpreter rather than a restricted mode
// of a general Wasm interpreter — the allowed opcode set is small and
// fixed, and this evaluator must run before any general execution engine
// is wired in (this core never executes arbitrary function bodies).
//
// globals is the instance's global-address list built so far (imports
// first); only imported, immutable globals may be referenced by
// global.get here, per spec.md §4.5.
func evalConstExpr(store *Store, importedGlobalCount int, globals []Addr, funcs []Addr, expr []wazeroir.Instruction) (Value, error) {
	var stack []Value

	push := func(v Value) { stack = append(stack, v) }

	for _, inst := range expr {
		switch inst.Opcode {
		case wazeroir.OpcodeI32Const:
			push(valueFromI32(inst.ConstI32))
		case wazeroir.OpcodeI64Const:
			push(valueFromI64(inst.ConstI64))
		case wazeroir.OpcodeF32Const:
			push(valueFromF32Bits(inst.ConstF32Bits))
		case wazeroir.OpcodeF64Const:
			push(valueFromF64Bits(inst.ConstF64Bits))
		case wazeroir.OpcodeRefNull:
			push(refValue(nullRef))
		case wazeroir.OpcodeRefFunc:
			if int(inst.Index) >= len(funcs) {
				return 0, invalidConstExpr("ref.func index out of range")
			}
			push(refValue(funcs[inst.Index]))
		case wazeroir.OpcodeGlobalGet:
			idx := int(inst.Index)
			if idx >= importedGlobalCount {
				return 0, invalidConstExpr("global.get in constant expression must reference an imported global")
			}
			if idx >= len(globals) {
				return 0, invalidConstExpr("global.get index out of range")
			}
			g, err := store.Global(globals[idx])
			if err != nil {
				return 0, invalidConstExpr(err.Error())
			}
			if g.Type.Mutable {
				return 0, invalidConstExpr("global.get in constant expression must reference an immutable global")
			}
			push(g.Val)
		case wazeroir.OpcodeEnd:
			// terminator, no-op
		default:
			return 0, invalidConstExpr("unsupported opcode in constant expression: " + inst.Opcode.Name())
		}
	}

	if len(stack) != 1 {
		return 0, invalidConstExpr("constant expression must leave exactly one value on the stack")
	}
	return stack[0], nil
}

package diffcheck

import (
	"github.com/wazerolite/wazerolite/api"
	"github.com/wazerolite/wazerolite/internal/wasm"
	"github.com/wazerolite/wazerolite/internal/wazeroir"
)

// AddModuleWasm is a hand-assembled binary for a module that imports
// nothing and exports a single function, "add": (i32,i32)->i32 computed
// as local.get 0; local.get 1; i32.add. It exists so WasmtimeSignature
// and WasmerSignature have a real binary to decode: this core has no
// encoder of its own, so the bytes are laid out by hand against the
// module binary format (magic, version, then type/function/export/code
// sections by id).
var AddModuleWasm = []byte{
	// magic "\0asm", version 1
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: id=1, size=7, vec count=1, 1 functype (i32,i32)->(i32)
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	// function section: id=3, size=2, 1 func using type 0
	0x03, 0x02, 0x01, 0x00,
	// export section: id=7, size=7, 1 export "add" -> func 0
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	// code section: id=10, size=9, 1 body: no locals, local.get 0, local.get 1, i32.add, end
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

// AddModule is the internal/wasm.Module that a decoder would produce
// from AddModuleWasm. It is built by hand here rather than decoded,
// since decoding is out of scope; CompareWithModule is what checks the
// two stay in sync.
func AddModule() *wasm.Module {
	ft := &wasm.FuncType{
		Params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
		Results: []api.ValueType{api.ValueTypeI32},
	}
	body := []wazeroir.Instruction{
		{Opcode: wazeroir.OpcodeLocalGet, Index: 0},
		{Opcode: wazeroir.OpcodeLocalGet, Index: 1},
		{Opcode: wazeroir.OpcodeI32Add},
		{Opcode: wazeroir.OpcodeEnd},
	}
	return &wasm.Module{
		TypeSection:     []*wasm.FuncType{ft},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []*wasm.Code{{Body: body}},
		ExportSection:   []*wasm.Export{{Name: "add", Type: api.ExternTypeFunc, Index: 0}},
	}
}

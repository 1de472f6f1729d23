// Package wasm holds the decoded, pre-instantiation representation of a
// WebAssembly module (MOD in SPEC_FULL.md §2) together with the runtime
// Store and Instantiator that turn one into a ModuleInstance (ST and INST).
//
// Field names on Module follow the *Section convention visible throughout
// the teacher repository (tetratelabs/wazero and its inkeliz-wazero fork),
// e.g. FunctionSection holding type indices and CodeSection holding the
// corresponding bodies.
package wasm

import (
	"fmt"
	"strings"

	"github.com/wazerolite/wazerolite/api"
	"github.com/wazerolite/wazerolite/internal/wazeroir"
)

// Index is a position in one of a module's index spaces (types, funcs,
// tables, memories, globals, elements, data), imports first.
type Index = uint32

// ValueType re-exports api.ValueType so this package's own callers do not
// need to import api just to read a signature.
type ValueType = api.ValueType

// FuncType is an ordered parameter list and an ordered result list.
// Equality is structural, per spec.md §3.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// String renders a FuncType the way the teacher's FunctionType.String does,
// used as the map key for Store-wide function-type deduplication.
func (t *FuncType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteString(")->(")
	for i, r := range t.Results {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(r))
	}
	b.WriteByte(')')
	return b.String()
}

// EqualsSignature reports whether t has exactly the given params/results,
// used when resolving function imports (spec.md §4.4 step 2).
func (t *FuncType) EqualsSignature(params, results []ValueType) bool {
	return valTypesEqual(t.Params, params) && valTypesEqual(t.Results, results)
}

func valTypesEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// TableType describes a table's element type and size limits. Wasm 1.0
// allows only ValueTypeFuncref; FeatureReferenceTypes additionally allows
// ValueTypeExternref and more than one table per module.
type TableType struct {
	ElemType ValueType
	Min      uint32
	Max      *uint32
}

// MemoryType describes a memory's size limits, in 64KiB pages.
type MemoryType struct {
	Min uint32
	Max *uint32
}

// Import is one entry of a module's import section: a (module, name) pair
// together with the expected extern type and its full declared shape.
type Import struct {
	Module, Name string
	Type         api.ExternType

	// Exactly one of the following is meaningful, selected by Type.
	DescFunc   Index // index into the importing module's TypeSection
	DescTable  TableType
	DescMem    MemoryType
	DescGlobal GlobalType
}

// Export is one entry of a module's export section.
type Export struct {
	Name  string
	Type  api.ExternType
	Index Index
}

// Global is a module-local global declaration: its type and its constant
// initializer expression (evaluated at instantiation time, spec.md §4.5).
type Global struct {
	Type *GlobalType
	Init []wazeroir.Instruction
}

// Code is a function body as this core receives it: already converted from
// the binary operator stream into the internal Instruction sequence by
// wazeroir.Convert (spec.md §4.1), plus the function's expanded local
// declarations (one ValueType per local slot, run-length decoding already
// applied — see NewCode).
type Code struct {
	Locals []ValueType
	Body   []wazeroir.Instruction
}

// NewCode expands a run-length-encoded locals declaration (as produced by a
// binary decoder: groups of (count, ValueType)) into one ValueType per
// local slot, and converts the operator stream via wazeroir.Convert. This
// is the Go equivalent of tinywasm's convert_module_code.
func NewCode(localGroups []LocalGroup, declaredCount uint32, body wazeroir.OperatorReader) (*Code, error) {
	locals := make([]ValueType, 0, declaredCount)
	for _, g := range localGroups {
		for i := uint32(0); i < g.Count; i++ {
			locals = append(locals, g.Type)
		}
	}
	if uint32(len(locals)) != declaredCount {
		return nil, wazeroir.OtherParseError(fmt.Sprintf("locals count mismatch: declared %d, expanded %d", declaredCount, len(locals)))
	}

	instructions, err := wazeroir.Convert(body)
	if err != nil {
		return nil, err
	}

	return &Code{Locals: locals, Body: instructions}, nil
}

// LocalGroup is one run-length-encoded locals group: Count repetitions of
// Type, exactly as the binary format encodes them.
type LocalGroup struct {
	Count uint32
	Type  ValueType
}

// ElementMode classifies an element segment per the Wasm 2.0 bulk-memory /
// reference-types split (the distinction pre-dates those proposals in
// practice: Wasm 1.0 only ever has active segments).
type ElementMode byte

const (
	ElementModeActive ElementMode = iota
	ElementModePassive
	ElementModeDeclarative
)

// ElementSegment is one entry of a module's element section.
type ElementSegment struct {
	Type ValueType // funcref or externref
	Mode ElementMode

	// TableIndex and OffsetExpr are meaningful only when Mode == ElementModeActive.
	TableIndex Index
	OffsetExpr []wazeroir.Instruction

	// Init holds the segment's function indices, resolved to store
	// addresses during Store.init_elements.
	Init []Index
}

// DataMode classifies a data segment as active (written at instantiation)
// or passive (retained only for runtime memory.init).
type DataMode byte

const (
	DataModeActive DataMode = iota
	DataModePassive
)

// DataSegment is one entry of a module's data section.
type DataSegment struct {
	MemoryIndex Index
	Mode        DataMode
	OffsetExpr  []wazeroir.Instruction
	Init        []byte
}

// IsPassive reports whether d is a passive data segment.
func (d *DataSegment) IsPassive() bool { return d.Mode == DataModePassive }

// Module is the decoded, pre-instantiation representation of a WebAssembly
// module (spec.md §3). All interior slices are owned and, once Module is
// constructed, never mutated — construction is the job of the external
// binary decoder (out of scope here); this package only consumes the
// result.
type Module struct {
	TypeSection     []*FuncType
	ImportSection   []*Import
	FunctionSection []Index // type index per module-defined function, index-correlated with CodeSection
	CodeSection     []*Code
	TableSection    []*TableType
	MemorySection   []*MemoryType
	GlobalSection   []*Global
	ExportSection   []*Export
	StartSection    *Index
	ElementSection  []*ElementSegment
	DataSection     []*DataSegment

	// NameSection is an optional human-readable module name, used only
	// for diagnostics.
	NameSection string
}

// funcDesc renders a function reference for error messages, e.g. in start
// function failures, mirroring the teacher's Module.funcDesc helper.
func (m *Module) funcDesc(idx Index) string {
	importCount := uint32(0)
	for _, i := range m.ImportSection {
		if i.Type == api.ExternTypeFunc {
			importCount++
		}
	}
	if idx < importCount {
		return fmt.Sprintf("import[%d]", idx)
	}
	return fmt.Sprintf("func[%d]", idx-importCount)
}

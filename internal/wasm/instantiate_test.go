package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wazerolite/wazerolite/api"
	"github.com/wazerolite/wazerolite/internal/wazeroir"
)

func emptyModule() *Module {
	return &Module{}
}

// TestInstantiate_Empty covers spec.md §8 scenario 1: a module with no
// sections instantiates cleanly, with every address list empty.
func TestInstantiate_Empty(t *testing.T) {
	store := NewStore(Features20191205, nil)
	mi, err := Instantiate(store, "empty", emptyModule(), nil)
	require.NoError(t, err)
	require.False(t, mi.FailedToInstantiate)
	require.Empty(t, mi.FuncAddrs)
	require.Empty(t, mi.TableAddrs)
	require.Empty(t, mi.MemAddrs)
	require.Empty(t, mi.GlobalAddrs)
	require.Nil(t, mi.FuncStart)
}

// addFuncModule builds a module exporting a single function "add" of type
// (i32,i32)->(i32), covering spec.md §8 scenario 2.
func addFuncModule() *Module {
	ft := &FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	code := &Code{Body: []wazeroir.Instruction{{Opcode: wazeroir.OpcodeEnd}}}
	return &Module{
		TypeSection:     []*FuncType{ft},
		FunctionSection: []Index{0},
		CodeSection:     []*Code{code},
		ExportSection:   []*Export{{Name: "add", Type: api.ExternTypeFunc, Index: 0}},
	}
}

func TestInstantiate_ExportedFuncLookup(t *testing.T) {
	store := NewStore(Features20191205, nil)
	mi, err := Instantiate(store, "m", addFuncModule(), nil)
	require.NoError(t, err)

	fn, err := mi.ExportedFuncByName(store, "add")
	require.NoError(t, err)
	require.Equal(t, FuncKindWasm, fn.Kind)
	require.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, fn.Type.Params)

	_, err = mi.ExportedFuncByName(store, "missing")
	require.Error(t, err)

	_, err = mi.ExportedFuncByName(store, "add")
	require.NoError(t, err)
}

// dataTrapModule declares a 1-page memory and an active data segment that
// writes past its end, covering spec.md §8's trap-but-still-registers
// scenario.
func dataTrapModule() *Module {
	offset := []wazeroir.Instruction{{Opcode: wazeroir.OpcodeI32Const, ConstI32: int32(memoryPageSize - 4)}, {Opcode: wazeroir.OpcodeEnd}}
	return &Module{
		MemorySection: []*MemoryType{{Min: 1}},
		DataSection: []*DataSegment{
			{MemoryIndex: 0, Mode: DataModeActive, OffsetExpr: offset, Init: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		},
	}
}

func TestInstantiate_DataSegmentTrapStillRegisters(t *testing.T) {
	store := NewStore(Features20191205, nil)
	mi, err := Instantiate(store, "trapper", dataTrapModule(), nil)
	require.Error(t, err)
	require.NotNil(t, mi)
	require.True(t, mi.FailedToInstantiate)

	var trap *TrapError
	require.ErrorAs(t, err, &trap)
	require.Equal(t, TrapCodeOutOfBoundsMemoryAccess, trap.Code)

	// The instance is still registered and its addresses remain valid.
	mem, err := store.Memory(mi.MemAddrs[0])
	require.NoError(t, err)
	require.NotNil(t, mem)
}

// TestInstantiate_CrossStoreMisuse covers spec.md §8's cross-store scenario:
// a ModuleInstance handle presented to a Store that did not produce it is
// rejected, never silently misinterpreted.
func TestInstantiate_CrossStoreMisuse(t *testing.T) {
	storeA := NewStore(Features20191205, nil)
	storeB := NewStore(Features20191205, nil)

	mi, err := Instantiate(storeA, "m", addFuncModule(), nil)
	require.NoError(t, err)

	_, err = mi.ExportedFuncByName(storeB, "add")
	require.ErrorIs(t, err, ErrInvalidStore)

	_, err = mi.StartFunc(storeB)
	require.ErrorIs(t, err, ErrInvalidStore)
}

// startFuncModule declares func 0 as the start function.
func startFuncModule() *Module {
	ft := &FuncType{}
	code := &Code{Body: []wazeroir.Instruction{{Opcode: wazeroir.OpcodeEnd}}}
	start := Index(0)
	return &Module{
		TypeSection:     []*FuncType{ft},
		FunctionSection: []Index{0},
		CodeSection:     []*Code{code},
		StartSection:    &start,
	}
}

func TestInstantiate_StartFuncDeclared(t *testing.T) {
	store := NewStore(Features20191205, nil)
	mi, err := Instantiate(store, "m", startFuncModule(), nil)
	require.NoError(t, err)

	fn, err := mi.StartFunc(store)
	require.NoError(t, err)
	require.NotNil(t, fn)
}

// startFallbackModule has no start section but exports "_start", the
// resolved fallback convention (see DESIGN.md Open Question 3).
func startFallbackModule() *Module {
	ft := &FuncType{}
	code := &Code{Body: []wazeroir.Instruction{{Opcode: wazeroir.OpcodeEnd}}}
	return &Module{
		TypeSection:     []*FuncType{ft},
		FunctionSection: []Index{0},
		CodeSection:     []*Code{code},
		ExportSection:   []*Export{{Name: "_start", Type: api.ExternTypeFunc, Index: 0}},
	}
}

func TestInstantiate_StartFuncFallbackToExport(t *testing.T) {
	store := NewStore(Features20191205, nil)
	mi, err := Instantiate(store, "m", startFallbackModule(), nil)
	require.NoError(t, err)

	fn, err := mi.StartFunc(store)
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestInstantiate_NoStartFunc(t *testing.T) {
	store := NewStore(Features20191205, nil)
	mi, err := Instantiate(store, "m", emptyModule(), nil)
	require.NoError(t, err)

	fn, err := mi.StartFunc(store)
	require.NoError(t, err)
	require.Nil(t, fn)
}

// TestInstantiate_UnknownImport covers the LinkError path: an import that
// the caller's Imports set does not define.
func TestInstantiate_UnknownImport(t *testing.T) {
	store := NewStore(Features20191205, nil)
	module := &Module{
		TypeSection: []*FuncType{{}},
		ImportSection: []*Import{
			{Module: "env", Name: "missing", Type: api.ExternTypeFunc, DescFunc: 0},
		},
	}

	mi, err := Instantiate(store, "m", module, nil)
	require.Nil(t, mi)
	var linkErr *LinkError
	require.ErrorAs(t, err, &linkErr)
	require.Equal(t, LinkErrorUnknownImport, linkErr.Kind)
}

// TestInstantiate_ImportsOccupyLowIndices verifies spec.md §3/§4.4's
// ordering invariant: imported addresses precede locally defined ones in
// every address list.
func TestInstantiate_ImportsOccupyLowIndices(t *testing.T) {
	store := NewStore(Features20191205, nil)

	// Host function importable as env.imported.
	hostFn := &FuncInst{Type: &FuncType{}, Kind: FuncKindGo, GoFunc: struct{}{}}
	hostAddr := store.AddHostFunc(hostFn)

	imports := NewImports().DefineFunc("env", "imported", hostAddr)

	ft := &FuncType{}
	code := &Code{Body: []wazeroir.Instruction{{Opcode: wazeroir.OpcodeEnd}}}
	module := &Module{
		TypeSection: []*FuncType{ft},
		ImportSection: []*Import{
			{Module: "env", Name: "imported", Type: api.ExternTypeFunc, DescFunc: 0},
		},
		FunctionSection: []Index{0},
		CodeSection:     []*Code{code},
	}

	mi, err := Instantiate(store, "m", module, imports)
	require.NoError(t, err)
	require.Len(t, mi.FuncAddrs, 2)
	require.Equal(t, hostAddr, mi.FuncAddrs[0])
	require.NotEqual(t, hostAddr, mi.FuncAddrs[1])
}

// TestInstantiate_ModuleInstanceIdxMonotonic covers the "valid addresses"
// and "next_module_instance_idx monotonicity" invariants together: every
// successive instantiation (even ones that fail to link) must not reuse a
// previously issued Addr.
func TestInstantiate_ModuleInstanceIdxMonotonic(t *testing.T) {
	store := NewStore(Features20191205, nil)

	mi1, err := Instantiate(store, "a", emptyModule(), nil)
	require.NoError(t, err)

	mi2, err := Instantiate(store, "b", emptyModule(), nil)
	require.NoError(t, err)

	require.Less(t, mi1.Idx, mi2.Idx)
}

// TestInstantiate_IdempotentRelinking verifies that instantiating the same
// module twice under different names produces independent, internally
// consistent ModuleInstances (re-linking the same Module value is safe and
// does not mutate shared state).
func TestInstantiate_IdempotentRelinking(t *testing.T) {
	store := NewStore(Features20191205, nil)
	module := addFuncModule()

	mi1, err := Instantiate(store, "first", module, nil)
	require.NoError(t, err)
	mi2, err := Instantiate(store, "second", module, nil)
	require.NoError(t, err)

	require.NotEqual(t, mi1.Idx, mi2.Idx)
	require.NotEqual(t, mi1.FuncAddrs[0], mi2.FuncAddrs[0])

	fn1, err := mi1.ExportedFuncByName(store, "add")
	require.NoError(t, err)
	fn2, err := mi2.ExportedFuncByName(store, "add")
	require.NoError(t, err)
	require.Equal(t, fn1.Type.String(), fn2.Type.String())
}

// TestInstantiate_DuplicateNameRejected covers the concurrency guard:
// instantiating two modules under the same name in one Store is rejected
// outright rather than silently overwriting the earlier registration.
func TestInstantiate_DuplicateNameRejected(t *testing.T) {
	store := NewStore(Features20191205, nil)
	_, err := Instantiate(store, "dup", emptyModule(), nil)
	require.NoError(t, err)

	_, err = Instantiate(store, "dup", emptyModule(), nil)
	require.Error(t, err)
}

func TestExportResolutionEquality(t *testing.T) {
	store := NewStore(Features20191205, nil)
	mi, err := Instantiate(store, "m", addFuncModule(), nil)
	require.NoError(t, err)

	ext, ok := mi.Export("add")
	require.True(t, ok)
	require.Equal(t, ExternKindFunc, ext.Type)
	require.Equal(t, mi.FuncAddrs[0], ext.Addr)

	fn, err := mi.ExportedFuncByName(store, "add")
	require.NoError(t, err)
	again, err := store.Func(ext.Addr)
	require.NoError(t, err)
	require.Same(t, fn, again)
}

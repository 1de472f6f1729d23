package wasm

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ExternVal is a tagged reference to an imported or exported store object:
// a kind plus the store-global Addr it resolves to.
type ExternVal struct {
	Type ExternKind
	Addr Addr
}

// ExternKind mirrors api.ExternType but is defined locally so this package
// does not need to import api just to tag an ExternVal.
type ExternKind = byte

const (
	ExternKindFunc   ExternKind = 0x00
	ExternKindTable  ExternKind = 0x01
	ExternKindMemory ExternKind = 0x02
	ExternKindGlobal ExternKind = 0x03
)

// Imports is the caller-supplied set of extern values a module's imports
// resolve against, keyed by (module, name). It is built with the Define*
// methods before being passed to Instantiate, mirroring the teacher's
// builder-style ModuleBuilder API.
type Imports struct {
	entries map[importKey]ExternVal
}

type importKey struct{ module, name string }

// NewImports returns an empty import set.
func NewImports() *Imports {
	return &Imports{entries: map[importKey]ExternVal{}}
}

// DefineFunc registers a function extern value available for import under
// (module, name).
func (im *Imports) DefineFunc(module, name string, addr Addr) *Imports {
	im.entries[importKey{module, name}] = ExternVal{Type: ExternKindFunc, Addr: addr}
	return im
}

// DefineTable registers a table extern value.
func (im *Imports) DefineTable(module, name string, addr Addr) *Imports {
	im.entries[importKey{module, name}] = ExternVal{Type: ExternKindTable, Addr: addr}
	return im
}

// DefineMemory registers a memory extern value.
func (im *Imports) DefineMemory(module, name string, addr Addr) *Imports {
	im.entries[importKey{module, name}] = ExternVal{Type: ExternKindMemory, Addr: addr}
	return im
}

// DefineGlobal registers a global extern value.
func (im *Imports) DefineGlobal(module, name string, addr Addr) *Imports {
	im.entries[importKey{module, name}] = ExternVal{Type: ExternKindGlobal, Addr: addr}
	return im
}

// DefineModule registers every export of an already-instantiated module
// under its own name, the common case of linking module-to-module (as
// opposed to individual host bindings).
func (im *Imports) DefineModule(mod *ModuleInstance) *Imports {
	for name, exp := range mod.Exports {
		im.entries[importKey{mod.Name, name}] = exp
	}
	return im
}

func (im *Imports) lookup(module, name string) (ExternVal, bool) {
	v, ok := im.entries[importKey{module, name}]
	return v, ok
}

// ModuleInstance is the runtime activation of a Module: immutable after
// Instantiate returns, referencing Store objects only through Addr arrays
// per spec.md §3. Imported items occupy the low indices of each address
// space, in import-declaration order; locally defined items follow.
type ModuleInstance struct {
	StoreID uint64
	Idx     Addr
	Name    string

	Types []*FuncType

	FuncAddrs   []Addr
	TableAddrs  []Addr
	MemAddrs    []Addr
	GlobalAddrs []Addr
	ElemAddrs   []Addr
	DataAddrs   []Addr

	FuncStart *Addr // resolved start function, if any

	Exports map[string]ExternVal

	// FailedToInstantiate records whether element or data segment
	// application trapped during instantiation. Per spec.md §3, the
	// instance is still registered and its addresses remain valid, but
	// no exported function may be invoked.
	FailedToInstantiate bool
}

// storeIdentityOf returns store's process-wide unique id, used to tag
// ModuleInstance.StoreID and later reject cross-store use (spec.md's
// InvalidStore error).
func storeIdentityOf(store *Store) uint64 { return store.ID() }

// Instantiate executes the nine-step instantiation protocol of spec.md
// §4.4 against store, producing a ModuleInstance for module. imports may
// be nil, equivalent to an empty Imports set.
//
// Errors returned are either *LinkError (import resolution, constant
// expressions) or *TrapError (out-of-bounds element/data application,
// returned only after the instance has already been registered, per
// spec.md's "partial trap still registers" rule), except that a name
// already in use in store is rejected up front with a plain error.
func Instantiate(store *Store, name string, module *Module, imports *Imports) (*ModuleInstance, error) {
	log := logrus.WithFields(logrus.Fields{"component": "wasm.Instantiate", "module": name})
	if imports == nil {
		imports = NewImports()
	}

	if name != "" {
		if err := store.reserveModuleName(name); err != nil {
			return nil, err
		}
		defer store.releaseModuleName(name)
	}

	// Step 1: allocate instance index.
	idx := store.allocateModuleInstanceSlot()

	mi := &ModuleInstance{
		StoreID: storeIdentityOf(store),
		Idx:     idx,
		Name:    name,
		Types:   module.TypeSection,
		Exports: map[string]ExternVal{},
	}

	// Step 2: link imports, in declaration order, each kind accumulating
	// into its own address list.
	importedGlobalCount := 0
	for _, imp := range module.ImportSection {
		ext, ok := imports.lookup(imp.Module, imp.Name)
		if !ok {
			return nil, unknownImport(imp.Module, imp.Name)
		}
		if err := checkImportType(store, module, imp, ext); err != nil {
			return nil, err
		}
		switch imp.Type {
		case ExternKindFunc:
			mi.FuncAddrs = append(mi.FuncAddrs, ext.Addr)
		case ExternKindTable:
			mi.TableAddrs = append(mi.TableAddrs, ext.Addr)
		case ExternKindMemory:
			mi.MemAddrs = append(mi.MemAddrs, ext.Addr)
		case ExternKindGlobal:
			mi.GlobalAddrs = append(mi.GlobalAddrs, ext.Addr)
			importedGlobalCount++
		}
	}

	// Step 3: allocate local definitions.
	localFuncAddrs := store.initFuncs(module, mi)
	mi.FuncAddrs = append(mi.FuncAddrs, localFuncAddrs...)

	localTableAddrs := store.initTables(module.TableSection)
	mi.TableAddrs = append(mi.TableAddrs, localTableAddrs...)

	localMemAddrs := store.initMemories(module.MemorySection)
	mi.MemAddrs = append(mi.MemAddrs, localMemAddrs...)

	// Step 4: allocate globals (may reference imported globals/funcs in
	// constant expressions).
	localGlobalAddrs, err := store.initGlobals(module.GlobalSection, importedGlobalCount, mi.GlobalAddrs, mi.FuncAddrs)
	if err != nil {
		return nil, err
	}
	mi.GlobalAddrs = append(mi.GlobalAddrs, localGlobalAddrs...)

	// Step 5: allocate & apply elements.
	elemAddrs, elemTrap, err := store.initElements(module.ElementSection, mi.TableAddrs, mi.FuncAddrs, mi.GlobalAddrs, importedGlobalCount)
	if err != nil {
		return nil, err
	}
	mi.ElemAddrs = elemAddrs

	// Step 6: allocate & apply data.
	dataAddrs, dataTrap, err := store.initDatas(module.DataSection, mi.MemAddrs, mi.GlobalAddrs, importedGlobalCount)
	if err != nil {
		return nil, err
	}
	mi.DataAddrs = dataAddrs

	// Step 7: assemble.
	mi.FailedToInstantiate = elemTrap != nil || dataTrap != nil

	// Resolve start function and exports before registering, since the
	// instance handle we register must be the final one (array fields are
	// not mutated after this point).
	if module.StartSection != nil {
		if int(*module.StartSection) < len(mi.FuncAddrs) {
			addr := mi.FuncAddrs[*module.StartSection]
			mi.FuncStart = &addr
		} else {
			log.Warnf("start section references undefined %s", module.funcDesc(*module.StartSection))
		}
	}
	for _, exp := range module.ExportSection {
		mi.Exports[exp.Name] = ExternVal{Type: exp.Type, Addr: resolveExportAddr(mi, exp)}
	}

	// Step 8: register instance (filling in the slot allocated in step 1,
	// at the same Addr, so any address captured earlier by a concurrent
	// reader remains valid).
	store.setModuleInstance(idx, mi)
	if name != "" {
		store.bindModuleName(name, idx)
	}

	log.Debug("instantiation complete")

	// Step 9: report traps, element before data.
	if elemTrap != nil {
		return mi, elemTrap
	}
	if dataTrap != nil {
		return mi, dataTrap
	}
	return mi, nil
}

func resolveExportAddr(mi *ModuleInstance, exp *Export) Addr {
	switch exp.Type {
	case ExternKindFunc:
		return mi.FuncAddrs[exp.Index]
	case ExternKindTable:
		return mi.TableAddrs[exp.Index]
	case ExternKindMemory:
		return mi.MemAddrs[exp.Index]
	case ExternKindGlobal:
		return mi.GlobalAddrs[exp.Index]
	default:
		return 0
	}
}

// checkImportType validates that the supplied extern value matches imp's
// declared type, per spec.md §4.4 step 2.
func checkImportType(store *Store, module *Module, imp *Import, ext ExternVal) error {
	switch imp.Type {
	case ExternKindFunc:
		if ext.Type != ExternKindFunc {
			return incompatibleImport(imp.Module, imp.Name, "expected func")
		}
		fn, err := store.Func(ext.Addr)
		if err != nil {
			return incompatibleImport(imp.Module, imp.Name, err.Error())
		}
		want := module.TypeSection[imp.DescFunc]
		if !fn.Type.EqualsSignature(want.Params, want.Results) {
			return incompatibleImport(imp.Module, imp.Name, fmt.Sprintf("signature mismatch: want %s, have %s", want.String(), fn.Type.String()))
		}
	case ExternKindTable:
		if ext.Type != ExternKindTable {
			return incompatibleImport(imp.Module, imp.Name, "expected table")
		}
		tbl, err := store.Table(ext.Addr)
		if err != nil {
			return incompatibleImport(imp.Module, imp.Name, err.Error())
		}
		if tbl.Type.ElemType != imp.DescTable.ElemType {
			return incompatibleImport(imp.Module, imp.Name, "element type mismatch")
		}
		if tbl.Type.Min < imp.DescTable.Min {
			return incompatibleImport(imp.Module, imp.Name, "table too small")
		}
	case ExternKindMemory:
		if ext.Type != ExternKindMemory {
			return incompatibleImport(imp.Module, imp.Name, "expected memory")
		}
		mem, err := store.Memory(ext.Addr)
		if err != nil {
			return incompatibleImport(imp.Module, imp.Name, err.Error())
		}
		if mem.PageCount() < imp.DescMem.Min {
			return incompatibleImport(imp.Module, imp.Name, "memory too small")
		}
	case ExternKindGlobal:
		if ext.Type != ExternKindGlobal {
			return incompatibleImport(imp.Module, imp.Name, "expected global")
		}
		g, err := store.Global(ext.Addr)
		if err != nil {
			return incompatibleImport(imp.Module, imp.Name, err.Error())
		}
		if g.Type.ValType != imp.DescGlobal.ValType || g.Type.Mutable != imp.DescGlobal.Mutable {
			return incompatibleImport(imp.Module, imp.Name, "global type mismatch")
		}
	}
	return nil
}

// Export resolves a named export to its ExternVal, the export lookup of
// spec.md §4.4, by a lookup in the instance's Exports map.
func (mi *ModuleInstance) Export(name string) (ExternVal, bool) {
	v, ok := mi.Exports[name]
	return v, ok
}

// ExportedFuncByName resolves name to a FuncInst, rejecting cross-store use
// and non-function exports per spec.md §4.4.
func (mi *ModuleInstance) ExportedFuncByName(store *Store, name string) (*FuncInst, error) {
	if storeIdentityOf(store) != mi.StoreID {
		return nil, ErrInvalidStore
	}
	ext, ok := mi.Export(name)
	if !ok {
		return nil, fmt.Errorf("wasm: export %q not found", name)
	}
	if ext.Type != ExternKindFunc {
		return nil, fmt.Errorf("wasm: export %q is not a function", name)
	}
	return store.Func(ext.Addr)
}

// StartFunc resolves the module's start function: the declared
// StartSection function if present, else (as an extension convention) an
// exported function named "_start", else none. Rejects cross-store use.
func (mi *ModuleInstance) StartFunc(store *Store) (*FuncInst, error) {
	if storeIdentityOf(store) != mi.StoreID {
		return nil, ErrInvalidStore
	}
	if mi.FuncStart != nil {
		return store.Func(*mi.FuncStart)
	}
	if fn, err := mi.ExportedFuncByName(store, "_start"); err == nil {
		return fn, nil
	}
	return nil, nil
}

// Start calls the start function, if any, with no arguments, through the
// Store's configured Engine. Returns (false, nil) when there is no start
// function to call.
func (mi *ModuleInstance) Start(store *Store) (bool, error) {
	fn, err := mi.StartFunc(store)
	if err != nil {
		return false, err
	}
	if fn == nil {
		return false, nil
	}
	if store.Engine == nil {
		return false, ErrNoEngine
	}
	_, err = store.Engine.Call(&CallContext{Module: mi}, fn, nil)
	return err == nil, err
}

package wazero

import (
	"fmt"
	"reflect"

	"github.com/wazerolite/wazerolite/api"
	"github.com/wazerolite/wazerolite/internal/wasm"
)

// HostModuleBuilder defines Go functions, memory, and globals so they can
// be imported by a Wasm module (step 2 of spec.md §4.4's instantiation
// protocol needs an extern value to link against; this is how embedders
// produce one). Trimmed from the teacher's HostModuleBuilder/
// HostFunctionBuilder down to what that protocol actually consumes:
// reflect-based Go functions, one memory, and globals. There is no
// WithGoFunction/WithGoModuleFunction low-level stack-based path here,
// since this core has no Engine of its own to call through that path
// efficiently — a supplied Engine is free to add one.
type HostModuleBuilder struct {
	r       *Runtime
	name    string
	funcs   map[string]hostFunc
	globals map[string]*wasm.GlobalInst
	memory  *wasm.MemoryType
}

type hostFunc struct {
	goFunc  reflect.Value
	params  []api.ValueType
	results []api.ValueType
}

// NewHostModuleBuilder starts building a host module named name.
func (r *Runtime) NewHostModuleBuilder(name string) *HostModuleBuilder {
	return &HostModuleBuilder{
		r:       r,
		name:    name,
		funcs:   map[string]hostFunc{},
		globals: map[string]*wasm.GlobalInst{},
	}
}

// ExportFunction maps a Go func to a WebAssembly-compatible signature via
// reflection, the way the teacher's WithFunc does, and exports it under
// name.
//
//	builder.ExportFunction("add", func(x, y uint32) uint32 { return x + y })
func (b *HostModuleBuilder) ExportFunction(name string, fn interface{}) *HostModuleBuilder {
	v := reflect.ValueOf(fn)
	t := v.Type()
	params := make([]api.ValueType, t.NumIn())
	for i := range params {
		params[i] = goKindToValueType(t.In(i).Kind())
	}
	results := make([]api.ValueType, t.NumOut())
	for i := range results {
		results[i] = goKindToValueType(t.Out(i).Kind())
	}
	b.funcs[name] = hostFunc{goFunc: v, params: params, results: results}
	return b
}

// ExportGlobal exports a global of the given type and initial value.
func (b *HostModuleBuilder) ExportGlobal(name string, valType api.ValueType, mutable bool, initial uint64) *HostModuleBuilder {
	b.globals[name] = &wasm.GlobalInst{Type: &wasm.GlobalType{ValType: valType, Mutable: mutable}, Val: initial}
	return b
}

// ExportMemory exports a memory with the given page limits.
func (b *HostModuleBuilder) ExportMemory(minPages uint32, maxPages *uint32) *HostModuleBuilder {
	b.memory = &wasm.MemoryType{Min: minPages, Max: maxPages}
	return b
}

func goKindToValueType(k reflect.Kind) api.ValueType {
	switch k {
	case reflect.Int32, reflect.Uint32:
		return api.ValueTypeI32
	case reflect.Int64, reflect.Uint64:
		return api.ValueTypeI64
	case reflect.Float32:
		return api.ValueTypeF32
	case reflect.Float64:
		return api.ValueTypeF64
	case reflect.Uintptr:
		return api.ValueTypeExternref
	default:
		return api.ValueTypeI32
	}
}

// Instantiate registers the built host module directly in the Runtime's
// Store and returns the resulting Module, so its exports are immediately
// resolvable by name for wasm.Imports.DefineModule.
func (b *HostModuleBuilder) Instantiate() (*Module, error) {
	store := b.r.store

	mi := &wasm.ModuleInstance{
		StoreID: store.ID(),
		Name:    b.name,
		Exports: map[string]wasm.ExternVal{},
	}

	for name, hf := range b.funcs {
		ft := &wasm.FuncType{Params: hf.params, Results: hf.results}
		fn := &wasm.FuncInst{
			Type:      ft,
			Kind:      wasm.FuncKindGo,
			GoFunc:    hf.goFunc,
			DebugName: fmt.Sprintf("%s.%s", b.name, name),
		}
		addr := store.AddHostFunc(fn)
		mi.FuncAddrs = append(mi.FuncAddrs, addr)
		mi.Exports[name] = wasm.ExternVal{Type: wasm.ExternKindFunc, Addr: addr}
	}

	for name, g := range b.globals {
		addr := store.AddHostGlobal(g)
		mi.GlobalAddrs = append(mi.GlobalAddrs, addr)
		mi.Exports[name] = wasm.ExternVal{Type: wasm.ExternKindGlobal, Addr: addr}
	}

	if b.memory != nil {
		addr := store.AddHostMemory(b.memory)
		mi.MemAddrs = append(mi.MemAddrs, addr)
		mi.Exports["memory"] = wasm.ExternVal{Type: wasm.ExternKindMemory, Addr: addr}
	}

	idx := store.RegisterHostModuleInstance(mi, b.name)
	mi.Idx = idx

	return &Module{store: store, mi: mi}, nil
}

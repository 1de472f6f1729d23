package wazero

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/wazerolite/wazerolite/api"
	"github.com/wazerolite/wazerolite/internal/wasm"
)

// Module adapts a wasm.ModuleInstance to the public api.Module surface, the
// lookup-and-invoke surface spec.md §2 says the embedder uses after
// Instantiate returns.
type Module struct {
	store *wasm.Store
	mi    *wasm.ModuleInstance
}

var _ api.Module = (*Module)(nil)

func (m *Module) String() string { return fmt.Sprintf("Module[%s]", m.mi.Name) }

func (m *Module) Name() string { return m.mi.Name }

// Memory returns the module's sole memory, or nil if it declares/imports
// none. WebAssembly 1.0 (20191205) permits at most one.
func (m *Module) Memory() api.Memory {
	if len(m.mi.MemAddrs) == 0 {
		return nil
	}
	mem, err := m.store.Memory(m.mi.MemAddrs[0])
	if err != nil {
		return nil
	}
	return &moduleMemory{mem: mem}
}

func (m *Module) ExportedFunction(name string) api.Function {
	fn, err := m.mi.ExportedFuncByName(m.store, name)
	if err != nil {
		return nil
	}
	return &moduleFunction{store: m.store, fn: fn, mi: m.mi, name: name, definingModule: m.mi.Name}
}

func (m *Module) ExportedMemory(name string) api.Memory {
	ext, ok := m.mi.Export(name)
	if !ok || ext.Type != wasm.ExternKindMemory {
		return nil
	}
	mem, err := m.store.Memory(ext.Addr)
	if err != nil {
		return nil
	}
	return &moduleMemory{mem: mem}
}

func (m *Module) ExportedGlobal(name string) api.Global {
	ext, ok := m.mi.Export(name)
	if !ok || ext.Type != wasm.ExternKindGlobal {
		return nil
	}
	g, err := m.store.Global(ext.Addr)
	if err != nil {
		return nil
	}
	return &moduleGlobal{store: m.store, g: g}
}

// moduleFunction adapts wasm.FuncInst to api.Function.
type moduleFunction struct {
	store          *wasm.Store
	fn             *wasm.FuncInst
	mi             *wasm.ModuleInstance
	name           string
	definingModule string
}

var _ api.Function = (*moduleFunction)(nil)

func (f *moduleFunction) Definition() api.FunctionDefinition {
	return &funcDefinition{fn: f.fn, name: f.name, definingModule: f.definingModule}
}

// Call invokes the function through the Store's configured Engine. Per
// spec.md's execution Non-goal, this core ships no Engine: Call returns
// wasm.ErrNoEngine unless the embedder supplied one via
// RuntimeConfig.WithEngine.
func (f *moduleFunction) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	if f.store.Engine == nil {
		return nil, wasm.ErrNoEngine
	}
	return f.store.Engine.Call(&wasm.CallContext{Module: f.mi}, f.fn, params)
}

type funcDefinition struct {
	fn             *wasm.FuncInst
	name           string
	definingModule string
}

var _ api.FunctionDefinition = (*funcDefinition)(nil)

func (d *funcDefinition) ModuleName() string { return d.definingModule }
func (d *funcDefinition) Index() uint32      { return 0 }
func (d *funcDefinition) Name() string       { return d.name }
func (d *funcDefinition) DebugName() string {
	if d.fn.DebugName != "" {
		return d.fn.DebugName
	}
	return d.definingModule + "." + d.name
}
func (d *funcDefinition) Import() (moduleName, name string, isImport bool) {
	return "", "", false
}
func (d *funcDefinition) ExportNames() []string { return []string{d.name} }
func (d *funcDefinition) GoFunc() *reflect.Value {
	if d.fn.Kind != wasm.FuncKindGo {
		return nil
	}
	v, ok := d.fn.GoFunc.(reflect.Value)
	if !ok {
		return nil
	}
	return &v
}
func (d *funcDefinition) ParamTypes() []api.ValueType  { return d.fn.Type.Params }
func (d *funcDefinition) ParamNames() []string         { return nil }
func (d *funcDefinition) ResultTypes() []api.ValueType { return d.fn.Type.Results }

// moduleGlobal adapts wasm.GlobalInst to api.Global/api.MutableGlobal.
type moduleGlobal struct {
	store *wasm.Store
	g     *wasm.GlobalInst
}

var (
	_ api.Global        = (*moduleGlobal)(nil)
	_ api.MutableGlobal = (*moduleGlobal)(nil)
)

func (g *moduleGlobal) String() string { return fmt.Sprintf("global(%s)", api.ValueTypeName(g.g.Type.ValType)) }
func (g *moduleGlobal) Type() api.ValueType    { return g.g.Type.ValType }
func (g *moduleGlobal) Get(context.Context) uint64 { return g.g.Val }
func (g *moduleGlobal) Set(_ context.Context, v uint64) {
	g.g.Val = v
}

// moduleMemory adapts wasm.MemInst to api.Memory.
type moduleMemory struct {
	mem *wasm.MemInst
}

var _ api.Memory = (*moduleMemory)(nil)

func (m *moduleMemory) Size(context.Context) uint32 { return m.mem.Size() }

func (m *moduleMemory) Grow(_ context.Context, deltaPages uint32) (uint32, bool) {
	return m.mem.Grow(deltaPages)
}

func (m *moduleMemory) ReadByte(_ context.Context, offset uint32) (byte, bool) {
	return m.mem.ReadByte(offset)
}

func (m *moduleMemory) ReadUint16Le(_ context.Context, offset uint32) (uint16, bool) {
	buf, ok := m.mem.Read(offset, 2)
	if !ok {
		return 0, false
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, true
}

func (m *moduleMemory) ReadUint32Le(_ context.Context, offset uint32) (uint32, bool) {
	return m.mem.ReadUint32Le(offset)
}

func (m *moduleMemory) ReadFloat32Le(_ context.Context, offset uint32) (float32, bool) {
	bits, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(bits), true
}

func (m *moduleMemory) ReadUint64Le(_ context.Context, offset uint32) (uint64, bool) {
	return m.mem.ReadUint64Le(offset)
}

func (m *moduleMemory) ReadFloat64Le(_ context.Context, offset uint32) (float64, bool) {
	bits, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(bits), true
}

func (m *moduleMemory) Read(_ context.Context, offset, byteCount uint32) ([]byte, bool) {
	return m.mem.Read(offset, byteCount)
}

func (m *moduleMemory) WriteByte(_ context.Context, offset uint32, v byte) bool {
	return m.mem.WriteByte(offset, v)
}

func (m *moduleMemory) WriteUint16Le(_ context.Context, offset uint32, v uint16) bool {
	return m.mem.Write(offset, []byte{byte(v), byte(v >> 8)})
}

func (m *moduleMemory) WriteUint32Le(_ context.Context, offset, v uint32) bool {
	return m.mem.WriteUint32Le(offset, v)
}

func (m *moduleMemory) WriteFloat32Le(ctx context.Context, offset uint32, v float32) bool {
	return m.mem.WriteUint32Le(offset, math.Float32bits(v))
}

func (m *moduleMemory) WriteUint64Le(_ context.Context, offset uint32, v uint64) bool {
	return m.mem.WriteUint64Le(offset, v)
}

func (m *moduleMemory) WriteFloat64Le(ctx context.Context, offset uint32, v float64) bool {
	return m.mem.WriteUint64Le(offset, math.Float64bits(v))
}

func (m *moduleMemory) Write(_ context.Context, offset uint32, v []byte) bool {
	return m.mem.Write(offset, v)
}

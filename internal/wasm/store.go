package wasm

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// storeIDSeq assigns each Store a unique, process-wide id on creation, the
// Go counterpart of spec.md §4.3's Store.id(): cheap cross-store identity
// comparison without pinning ModuleInstance to a Store pointer.
var storeIDSeq uint64

// Addr is an opaque, monotonically increasing handle into one of a Store's
// object arrays. Unlike the teacher's pointer-based ModuleInstance (see
// DESIGN.md), spec.md §3 requires this core to model the Wasm spec's own
// address-indirection exactly: every runtime object is referenced only by
// its numeric address against the Store that allocated it, never by a
// pointer callers could smuggle across Stores.
type Addr = uint32

// FunctionTypeID uniquely identifies a structural FuncType within a Store,
// used for the fast indirect-call type check (spec.md §4.2).
type FunctionTypeID uint32

// Store is the runtime home for every object a module can be instantiated
// into: the Wasm spec's "store", holding func/table/memory/global/element/
// data instances in parallel arrays indexed by Addr. A single Store can
// host many ModuleInstances, which may reference each other's addresses
// through imports.
//
// Guarded by mux for concurrent instantiation from multiple goroutines, the
// same convention the teacher's own Store documents (though the teacher
// leaves enforcement to the caller; this core enforces it directly since
// spec.md §5 requires safe concurrent instantiation).
type Store struct {
	EnabledFeatures Features
	Engine          Engine

	id uint64

	mux sync.RWMutex

	moduleNames map[string]struct{}
	modules     map[string]Addr // module name -> ModuleInstance addr

	funcs   []*FuncInst
	tables  []*TableInst
	mems    []*MemInst
	globals []*GlobalInst
	elems   []*ElemInst
	datas   []*DataInst

	moduleInstances []*ModuleInstance

	typeIDs map[string]FunctionTypeID

	log *logrus.Entry
}

// NewStore allocates an empty Store. engine may be nil; any attempt to call
// a function then fails with ErrNoEngine, per spec.md's execution Non-goal.
func NewStore(enabledFeatures Features, engine Engine) *Store {
	return &Store{
		EnabledFeatures: enabledFeatures,
		Engine:          engine,
		id:              atomic.AddUint64(&storeIDSeq, 1),
		moduleNames:     map[string]struct{}{},
		modules:         map[string]Addr{},
		typeIDs:         map[string]FunctionTypeID{},
		log:             logrus.WithField("component", "wasm.Store"),
	}
}

// ID returns s's process-wide unique identity, used to detect a
// ModuleInstance handle used against the wrong Store (spec.md's
// InvalidStore error).
func (s *Store) ID() uint64 { return s.id }

// FuncInst is a function instance: either a Wasm-defined function (Kind ==
// FuncKindWasm, with Code set) or a host function (Kind == FuncKindGo, with
// GoFunc set). Exactly one of Code/GoFunc is meaningful.
type FuncInst struct {
	Type   *FuncType
	TypeID FunctionTypeID

	Kind FuncKind
	Code *Code
	// GoFunc holds a host-defined implementation. Its signature is
	// type-erased here; the Engine is responsible for calling it per
	// Type's params/results.
	GoFunc interface{}

	Module *ModuleInstance
	// DebugName augments trap messages and diagnostics; not used for
	// lookup.
	DebugName string
}

// FuncKind distinguishes a function instance's implementation.
type FuncKind byte

const (
	FuncKindWasm FuncKind = iota
	FuncKindGo
)

// TableInst is a table instance: a fixed-capacity, growable-within-Max
// slice of reference Values (funcref or externref, per Type.ElemType).
type TableInst struct {
	Type     *TableType
	Elements []Value // each either a Store Addr or nullRef, see refValue
}

// MemInst is a linear memory instance: Data grows in whole 64KiB pages, up
// to Type.Max pages if set.
type MemInst struct {
	Type *MemoryType
	Data []byte
}

const memoryPageSize = 65536

// PageCount reports the memory's current size in pages.
func (m *MemInst) PageCount() uint32 { return uint32(len(m.Data) / memoryPageSize) }

// GlobalInst is a global variable instance.
type GlobalInst struct {
	Type *GlobalType
	Val  Value
}

// ElemInst is an element instance: the post-instantiation materialization
// of an element segment, used by table.init and referenced directly by
// active segments during table initialization (spec.md §4.6).
type ElemInst struct {
	Type    ValueType
	Refs    []Value
	dropped bool
}

// DataInst is a data instance: the post-instantiation materialization of a
// data segment, retained for passive segments so memory.init can still
// read them after instantiation.
type DataInst struct {
	Bytes   []byte
	dropped bool
}

// registerType interns ft by structural identity, returning a stable
// FunctionTypeID for fast indirect-call checks (spec.md §4.2's "type
// identity is structural, not nominal").
func (s *Store) registerType(ft *FuncType) FunctionTypeID {
	s.mux.Lock()
	defer s.mux.Unlock()
	key := ft.String()
	if id, ok := s.typeIDs[key]; ok {
		return id
	}
	id := FunctionTypeID(len(s.typeIDs))
	s.typeIDs[key] = id
	return id
}

// reserveModuleName claims name for an in-flight instantiation, returning
// an error if it is already taken or already in-flight. This is the
// concurrency guard spec.md §5 requires: two goroutines instantiating the
// same module name must not race.
func (s *Store) reserveModuleName(name string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.moduleNames[name]; ok {
		return fmt.Errorf("wasm: module %q already instantiated in this store", name)
	}
	s.moduleNames[name] = struct{}{}
	return nil
}

func (s *Store) releaseModuleName(name string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	delete(s.moduleNames, name)
}

// module looks up an instantiated module by name, for import resolution.
func (s *Store) module(name string) (*ModuleInstance, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	addr, ok := s.modules[name]
	if !ok {
		return nil, false
	}
	return s.moduleInstances[addr], true
}

// addFunc appends fn and returns its new Addr.
func (s *Store) addFunc(fn *FuncInst) Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	addr := Addr(len(s.funcs))
	s.funcs = append(s.funcs, fn)
	return addr
}

func (s *Store) addTable(t *TableInst) Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	addr := Addr(len(s.tables))
	s.tables = append(s.tables, t)
	return addr
}

func (s *Store) addMem(m *MemInst) Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	addr := Addr(len(s.mems))
	s.mems = append(s.mems, m)
	return addr
}

func (s *Store) addGlobal(g *GlobalInst) Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	addr := Addr(len(s.globals))
	s.globals = append(s.globals, g)
	return addr
}

func (s *Store) addElem(e *ElemInst) Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	addr := Addr(len(s.elems))
	s.elems = append(s.elems, e)
	return addr
}

func (s *Store) addData(d *DataInst) Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	addr := Addr(len(s.datas))
	s.datas = append(s.datas, d)
	return addr
}

// allocateModuleInstanceSlot reserves the next ModuleInstance address,
// step 1 of spec.md §4.4 ("next_module_instance_idx"). The slot holds nil
// until setModuleInstance fills it in at step 8, so the address is stable
// even though the instance itself isn't known yet.
func (s *Store) allocateModuleInstanceSlot() Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	addr := Addr(len(s.moduleInstances))
	s.moduleInstances = append(s.moduleInstances, nil)
	return addr
}

// setModuleInstance fills in the slot reserved by allocateModuleInstanceSlot.
func (s *Store) setModuleInstance(addr Addr, mi *ModuleInstance) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.moduleInstances[addr] = mi
}

// bindModuleName makes addr resolvable by name for future import linking.
func (s *Store) bindModuleName(name string, addr Addr) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.modules[name] = addr
}

// Func looks up a function by Addr. Returns ErrInvalidStore if addr was
// never allocated by s.
func (s *Store) Func(addr Addr) (*FuncInst, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if int(addr) >= len(s.funcs) {
		return nil, ErrInvalidStore
	}
	return s.funcs[addr], nil
}

// Table looks up a table by Addr.
func (s *Store) Table(addr Addr) (*TableInst, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if int(addr) >= len(s.tables) {
		return nil, ErrInvalidStore
	}
	return s.tables[addr], nil
}

// Memory looks up a memory by Addr.
func (s *Store) Memory(addr Addr) (*MemInst, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if int(addr) >= len(s.mems) {
		return nil, ErrInvalidStore
	}
	return s.mems[addr], nil
}

// Global looks up a global by Addr.
func (s *Store) Global(addr Addr) (*GlobalInst, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if int(addr) >= len(s.globals) {
		return nil, ErrInvalidStore
	}
	return s.globals[addr], nil
}

// AddHostFunc registers a host-defined function directly, for
// HostModuleBuilder. It is the Go-function counterpart of initFuncs: the
// function never belongs to a module's CodeSection, so it is given its own
// store address without going through the instantiation protocol.
func (s *Store) AddHostFunc(fn *FuncInst) Addr {
	fn.TypeID = s.registerType(fn.Type)
	return s.addFunc(fn)
}

// AddHostGlobal registers a host-defined global directly.
func (s *Store) AddHostGlobal(g *GlobalInst) Addr { return s.addGlobal(g) }

// AddHostMemory allocates and registers a host-defined memory directly.
func (s *Store) AddHostMemory(mt *MemoryType) Addr {
	data := make([]byte, uint64(mt.Min)*memoryPageSize)
	return s.addMem(&MemInst{Type: mt, Data: data})
}

// RegisterHostModuleInstance registers a fully-built ModuleInstance for a
// host module (built directly by HostModuleBuilder rather than through
// Instantiate), returning its ModuleInstanceAddr.
func (s *Store) RegisterHostModuleInstance(mi *ModuleInstance, name string) Addr {
	addr := s.allocateModuleInstanceSlot()
	s.setModuleInstance(addr, mi)
	if name != "" {
		s.bindModuleName(name, addr)
	}
	return addr
}

package wasm

// init.go implements the Store allocation operations of spec.md §4.3:
// init_funcs, init_tables, init_memories, init_globals, init_elements,
// init_datas. Each appends newly allocated addresses and returns them, in
// order, for Instantiate to fold into the growing ModuleInstance address
// lists (spec.md §4.4 steps 3-6).

// initFuncs allocates one FuncInst per module-defined function (module's
// CodeSection, index-correlated with FunctionSection for the type index),
// owned by mi.
func (s *Store) initFuncs(module *Module, mi *ModuleInstance) []Addr {
	addrs := make([]Addr, 0, len(module.CodeSection))
	for i, code := range module.CodeSection {
		typeIdx := module.FunctionSection[i]
		ft := module.TypeSection[typeIdx]
		fn := &FuncInst{
			Type:   ft,
			TypeID: s.registerType(ft),
			Kind:   FuncKindWasm,
			Code:   code,
			Module: mi,
		}
		addrs = append(addrs, s.addFunc(fn))
	}
	return addrs
}

// initTables allocates one TableInst per declared table type, with entries
// initialized to null refs, capacity equal to the declared minimum.
func (s *Store) initTables(tableTypes []*TableType) []Addr {
	addrs := make([]Addr, 0, len(tableTypes))
	for _, tt := range tableTypes {
		elems := make([]Value, tt.Min)
		for i := range elems {
			elems[i] = defaultValue(tt.ElemType)
		}
		addrs = append(addrs, s.addTable(&TableInst{Type: tt, Elements: elems}))
	}
	return addrs
}

// initMemories allocates one MemInst per declared memory type, with
// min_pages * 64KiB zeroed bytes.
func (s *Store) initMemories(memTypes []*MemoryType) []Addr {
	addrs := make([]Addr, 0, len(memTypes))
	for _, mt := range memTypes {
		data := make([]byte, uint64(mt.Min)*memoryPageSize)
		addrs = append(addrs, s.addMem(&MemInst{Type: mt, Data: data}))
	}
	return addrs
}

// initGlobals evaluates each local global's constant initializer
// expression and allocates a GlobalInst for it. importedGlobalCount and
// importedGlobalAddrs (the ModuleInstance's GlobalAddrs so far, imports
// only) let evalConstExpr resolve global.get against already-linked
// imports. funcAddrs is the instance's full FuncAddrs (imports + locals,
// already resolved by the time globals run), used for ref.func.
func (s *Store) initGlobals(globals []*Global, importedGlobalCount int, importedGlobalAddrs []Addr, funcAddrs []Addr) ([]Addr, error) {
	addrs := make([]Addr, 0, len(globals))
	allGlobalAddrs := append([]Addr(nil), importedGlobalAddrs...)
	for _, g := range globals {
		val, err := evalConstExpr(s, importedGlobalCount, allGlobalAddrs, funcAddrs, g.Init)
		if err != nil {
			return nil, err
		}
		addr := s.addGlobal(&GlobalInst{Type: g.Type, Val: val})
		addrs = append(addrs, addr)
		allGlobalAddrs = append(allGlobalAddrs, addr)
	}
	return addrs, nil
}

// initElements allocates one ElemInst per element segment and, for active
// segments, writes the resolved refs into the target table at the offset
// computed from the segment's constant offset expression. On the first
// out-of-bounds write, returns the addresses allocated so far plus a
// *TrapError; already-applied segments remain applied, per spec.md §3 and
// §4.3's "all-or-trap at the segment level".
func (s *Store) initElements(segments []*ElementSegment, tableAddrs, funcAddrs, globalAddrs []Addr, importedGlobalCount int) ([]Addr, *TrapError, error) {
	addrs := make([]Addr, 0, len(segments))
	for _, seg := range segments {
		refs := make([]Value, len(seg.Init))
		for i, fidx := range seg.Init {
			if int(fidx) >= len(funcAddrs) {
				return addrs, nil, elementOutOfBounds("function index out of range")
			}
			refs[i] = refValue(funcAddrs[fidx])
		}
		elemAddr := s.addElem(&ElemInst{Type: seg.Type, Refs: refs})
		addrs = append(addrs, elemAddr)

		if seg.Mode != ElementModeActive {
			continue
		}

		offsetVal, err := evalConstExpr(s, importedGlobalCount, globalAddrs, funcAddrs, seg.OffsetExpr)
		if err != nil {
			return addrs, nil, err
		}
		offset := uint32(valueToI32(offsetVal))

		if int(seg.TableIndex) >= len(tableAddrs) {
			return addrs, newTrap(TrapCodeOutOfBoundsTableAccess, "active element segment references undefined table"), nil
		}
		tbl, err := s.Table(tableAddrs[seg.TableIndex])
		if err != nil {
			return addrs, nil, err
		}
		if uint64(offset)+uint64(len(refs)) > uint64(len(tbl.Elements)) {
			return addrs, newTrap(TrapCodeOutOfBoundsTableAccess, "active element segment write out of bounds"), nil
		}
		copy(tbl.Elements[offset:], refs)
	}
	return addrs, nil, nil
}

// initDatas allocates one DataInst per data segment and, for active
// segments, writes Init into the target memory at the computed offset.
// Same all-or-trap-at-the-segment-level semantics as initElements.
func (s *Store) initDatas(segments []*DataSegment, memAddrs, globalAddrs []Addr, importedGlobalCount int) ([]Addr, *TrapError, error) {
	addrs := make([]Addr, 0, len(segments))
	for _, seg := range segments {
		dataAddr := s.addData(&DataInst{Bytes: append([]byte(nil), seg.Init...)})
		addrs = append(addrs, dataAddr)

		if seg.IsPassive() {
			continue
		}

		offsetVal, err := evalConstExpr(s, importedGlobalCount, globalAddrs, nil, seg.OffsetExpr)
		if err != nil {
			return addrs, nil, err
		}
		offset := uint32(valueToI32(offsetVal))

		if int(seg.MemoryIndex) >= len(memAddrs) {
			return addrs, newTrap(TrapCodeOutOfBoundsMemoryAccess, "active data segment references undefined memory"), nil
		}
		mem, err := s.Memory(memAddrs[seg.MemoryIndex])
		if err != nil {
			return addrs, nil, err
		}
		if uint64(offset)+uint64(len(seg.Init)) > uint64(len(mem.Data)) {
			return addrs, newTrap(TrapCodeOutOfBoundsMemoryAccess, "active data segment write out of bounds"), nil
		}
		copy(mem.Data[offset:], seg.Init)
	}
	return addrs, nil, nil
}

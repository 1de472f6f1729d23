package diffcheck

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go"
	"github.com/wazerolite/wazerolite/api"
)

// WasmtimeSignature decodes wasmBytes with wasmtime-go and reports its
// import/export signature. wasmtime-go's ExternType exposes a typed,
// nil-returning getter per kind (FuncType/TableType/MemoryType/GlobalType),
// which is what lets this stay a pure decode: no Store, no instantiation,
// no host function trampolines.
func WasmtimeSignature(wasmBytes []byte) (*ModuleSignature, error) {
	engine := wasmtime.NewEngine()
	module, err := wasmtime.NewModule(engine, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("diffcheck: wasmtime decode failed: %w", err)
	}

	sig := &ModuleSignature{}
	for _, imp := range module.Imports() {
		name := ""
		if imp.Name() != nil {
			name = *imp.Name()
		}
		es, err := wasmtimeExternSig(name, imp.Type())
		if err != nil {
			return nil, err
		}
		es.Module = imp.Module()
		sig.Imports = append(sig.Imports, es)
	}
	for _, exp := range module.Exports() {
		es, err := wasmtimeExternSig(exp.Name(), exp.Type())
		if err != nil {
			return nil, err
		}
		sig.Exports = append(sig.Exports, es)
	}
	return sig, nil
}

func wasmtimeExternSig(name string, t *wasmtime.ExternType) (ExternSig, error) {
	switch {
	case t.FuncType() != nil:
		ft := t.FuncType()
		return ExternSig{
			Name:    name,
			Kind:    ExternKindFunc,
			Params:  wasmtimeValTypes(ft.Params()),
			Results: wasmtimeValTypes(ft.Results()),
		}, nil
	case t.TableType() != nil:
		return ExternSig{Name: name, Kind: ExternKindTable}, nil
	case t.MemoryType() != nil:
		return ExternSig{Name: name, Kind: ExternKindMemory}, nil
	case t.GlobalType() != nil:
		return ExternSig{Name: name, Kind: ExternKindGlobal}, nil
	default:
		return ExternSig{}, fmt.Errorf("diffcheck: wasmtime extern %q has no recognized kind", name)
	}
}

func wasmtimeValTypes(vs []*wasmtime.ValType) []api.ValueType {
	out := make([]api.ValueType, len(vs))
	for i, v := range vs {
		switch v.Kind() {
		case wasmtime.KindI32:
			out[i] = api.ValueTypeI32
		case wasmtime.KindI64:
			out[i] = api.ValueTypeI64
		case wasmtime.KindF32:
			out[i] = api.ValueTypeF32
		case wasmtime.KindF64:
			out[i] = api.ValueTypeF64
		case wasmtime.KindFuncref:
			out[i] = api.ValueTypeFuncref
		case wasmtime.KindExternref:
			out[i] = api.ValueTypeExternref
		}
	}
	return out
}

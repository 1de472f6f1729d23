package diffcheck

import (
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"
	"github.com/wazerolite/wazerolite/api"
)

// WasmerSignature decodes wasmBytes with wasmer-go and reports its
// import/export signature. Unlike wasmtimeExternSig, wasmer-go's
// ExternType exposes a Kind() discriminant rather than nil-returning
// per-kind getters, so the dispatch below switches on that instead.
func WasmerSignature(wasmBytes []byte) (*ModuleSignature, error) {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.NewModule(store, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("diffcheck: wasmer decode failed: %w", err)
	}

	sig := &ModuleSignature{}
	for _, imp := range module.Imports() {
		es, err := wasmerExternSig(imp.Name(), imp.Type())
		if err != nil {
			return nil, err
		}
		es.Module = imp.Module()
		sig.Imports = append(sig.Imports, es)
	}
	for _, exp := range module.Exports() {
		es, err := wasmerExternSig(exp.Name(), exp.Type())
		if err != nil {
			return nil, err
		}
		sig.Exports = append(sig.Exports, es)
	}
	return sig, nil
}

func wasmerExternSig(name string, t *wasmer.ExternType) (ExternSig, error) {
	switch t.Kind() {
	case wasmer.FUNCTION:
		ft := t.IntoFunctionType()
		return ExternSig{
			Name:    name,
			Kind:    ExternKindFunc,
			Params:  wasmerValTypes(ft.Params()),
			Results: wasmerValTypes(ft.Results()),
		}, nil
	case wasmer.TABLE:
		return ExternSig{Name: name, Kind: ExternKindTable}, nil
	case wasmer.MEMORY:
		return ExternSig{Name: name, Kind: ExternKindMemory}, nil
	case wasmer.GLOBAL:
		return ExternSig{Name: name, Kind: ExternKindGlobal}, nil
	default:
		return ExternSig{}, fmt.Errorf("diffcheck: wasmer extern %q has no recognized kind", name)
	}
}

func wasmerValTypes(vs []*wasmer.ValueType) []api.ValueType {
	out := make([]api.ValueType, len(vs))
	for i, v := range vs {
		switch v.Kind() {
		case wasmer.I32:
			out[i] = api.ValueTypeI32
		case wasmer.I64:
			out[i] = api.ValueTypeI64
		case wasmer.F32:
			out[i] = api.ValueTypeF32
		case wasmer.F64:
			out[i] = api.ValueTypeF64
		case wasmer.FunctionRef:
			out[i] = api.ValueTypeFuncref
		case wasmer.ExternRef:
			out[i] = api.ValueTypeExternref
		}
	}
	return out
}

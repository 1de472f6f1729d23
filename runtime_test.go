package wazero

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wazerolite/wazerolite/api"
	"github.com/wazerolite/wazerolite/internal/wasm"
	"github.com/wazerolite/wazerolite/internal/wazeroir"
)

// stubEngine is a minimal wasm.Engine used to exercise the Call/Start seam
// without pulling in a real interpreter: it records every invocation and
// returns a fixed result.
type stubEngine struct {
	calls   int
	results []uint64
}

func (e *stubEngine) Call(ctx *wasm.CallContext, fn *wasm.FuncInst, params []uint64) ([]uint64, error) {
	e.calls++
	return e.results, nil
}

func addFuncModule() *wasm.Module {
	ft := &wasm.FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	code := &wasm.Code{Body: []wazeroir.Instruction{{Opcode: wazeroir.OpcodeEnd}}}
	return &wasm.Module{
		TypeSection:     []*wasm.FuncType{ft},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []*wasm.Code{code},
		ExportSection:   []*wasm.Export{{Name: "add", Type: api.ExternTypeFunc, Index: 0}},
	}
}

func TestRuntime_CompileAndInstantiate(t *testing.T) {
	r := NewRuntime()
	compiled, err := r.CompileModule(addFuncModule())
	require.NoError(t, err)

	mod, err := r.InstantiateModule(compiled)
	require.NoError(t, err)
	require.NotNil(t, mod.ExportedFunction("add"))
	require.Nil(t, mod.ExportedFunction("missing"))
}

func TestRuntime_CallWithoutEngineFails(t *testing.T) {
	r := NewRuntime()
	compiled, _ := r.CompileModule(addFuncModule())
	mod, err := r.InstantiateModule(compiled)
	require.NoError(t, err)

	_, err = mod.ExportedFunction("add").Call(context.Background(), 1, 2)
	require.ErrorIs(t, err, wasm.ErrNoEngine)
}

func TestRuntime_CallWithEngine(t *testing.T) {
	engine := &stubEngine{results: []uint64{3}}
	cfg := NewRuntimeConfig().WithEngine(engine)
	r := NewRuntimeWithConfig(cfg)

	compiled, _ := r.CompileModule(addFuncModule())
	mod, err := r.InstantiateModule(compiled)
	require.NoError(t, err)

	results, err := mod.ExportedFunction("add").Call(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, results)
	require.Equal(t, 1, engine.calls)
}

func TestRuntime_InstantiateModuleWithConfigName(t *testing.T) {
	r := NewRuntime()
	compiled, _ := r.CompileModule(addFuncModule())

	mod, err := r.InstantiateModuleWithConfig(compiled, NewModuleConfig().WithName("custom"))
	require.NoError(t, err)
	require.Equal(t, "custom", mod.Name())
}

func TestRuntime_InstantiateModuleWithImports(t *testing.T) {
	r := NewRuntime()
	host, err := r.NewHostModuleBuilder("env").
		ExportFunction("double", func(x uint32) uint32 { return x * 2 }).
		Instantiate()
	require.NoError(t, err)
	require.NotNil(t, host.ExportedFunction("double"))

	importingModule := &wasm.Module{
		TypeSection: []*wasm.FuncType{{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}},
		ImportSection: []*wasm.Import{
			{Module: "env", Name: "double", Type: api.ExternTypeFunc, DescFunc: 0},
		},
	}

	imports := wasm.NewImports().DefineModule(host.mi)
	compiled, _ := r.CompileModule(importingModule)
	linked, err := r.InstantiateModuleWithConfig(compiled, NewModuleConfig().WithImports(imports))
	require.NoError(t, err)
	require.Len(t, linked.mi.FuncAddrs, 1)
}

package wazero

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wazerolite/wazerolite/api"
)

func TestHostModuleBuilder_ExportsFuncGlobalMemory(t *testing.T) {
	r := NewRuntime()
	maxPages := uint32(2)
	mod, err := r.NewHostModuleBuilder("env").
		ExportFunction("add", func(a, b uint32) uint32 { return a + b }).
		ExportGlobal("version", api.ValueTypeI32, false, 1).
		ExportMemory(1, &maxPages).
		Instantiate()
	require.NoError(t, err)

	fn := mod.ExportedFunction("add")
	require.NotNil(t, fn)
	def := fn.Definition()
	require.Equal(t, "env", def.ModuleName())
	require.Equal(t, "add", def.Name())
	require.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, def.ParamTypes())
	require.Equal(t, []api.ValueType{api.ValueTypeI32}, def.ResultTypes())

	g := mod.ExportedGlobal("version")
	require.NotNil(t, g)
	require.Equal(t, uint64(1), g.Get(context.Background()))

	mem := mod.ExportedMemory("memory")
	require.NotNil(t, mem)
	require.Equal(t, uint32(1), mem.Size(context.Background())/65536)
}

func TestHostModuleBuilder_MultipleFunctionsIndependentlyExported(t *testing.T) {
	r := NewRuntime()
	mod, err := r.NewHostModuleBuilder("math").
		ExportFunction("inc", func(x uint32) uint32 { return x + 1 }).
		ExportFunction("dec", func(x uint32) uint32 { return x - 1 }).
		Instantiate()
	require.NoError(t, err)

	require.NotNil(t, mod.ExportedFunction("inc"))
	require.NotNil(t, mod.ExportedFunction("dec"))
	require.Nil(t, mod.ExportedFunction("mul"))
}

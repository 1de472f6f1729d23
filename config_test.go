package wazero

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wazerolite/wazerolite/internal/wasm"
)

func TestRuntimeConfig_DefaultsToCore1(t *testing.T) {
	c := NewRuntimeConfig()
	require.True(t, c.enabledFeatures.Get(wasm.Features20191205))
	require.False(t, c.enabledFeatures.Get(wasm.FeatureReferenceTypes))
}

func TestRuntimeConfig_WithFeatureIsImmutable(t *testing.T) {
	base := NewRuntimeConfig()
	withRefTypes := base.WithFeatureReferenceTypes(true)

	require.False(t, base.enabledFeatures.Get(wasm.FeatureReferenceTypes))
	require.True(t, withRefTypes.enabledFeatures.Get(wasm.FeatureReferenceTypes))
}

func TestRuntimeConfig_WithWasmCore2(t *testing.T) {
	c := NewRuntimeConfig().WithWasmCore2()
	require.True(t, c.enabledFeatures.Get(wasm.FeatureReferenceTypes))
	require.True(t, c.enabledFeatures.Get(wasm.FeatureBulkMemoryOperations))
}

func TestModuleConfig_WithNameAndImportsAreIndependentClones(t *testing.T) {
	base := NewModuleConfig()
	named := base.WithName("foo")

	require.Equal(t, "", base.name)
	require.Equal(t, "foo", named.name)

	withImports := named.WithImports(wasm.NewImports().DefineFunc("env", "f", 0))
	require.NotSame(t, named.imports, withImports.imports)
}

package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wazerolite/wazerolite/api"
	"github.com/wazerolite/wazerolite/internal/wazeroir"
)

func TestFuncType_StringAndEquals(t *testing.T) {
	ft := &FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI64}, Results: []api.ValueType{api.ValueTypeF64}}
	require.Equal(t, "(i32,i64)->(f64)", ft.String())

	require.True(t, ft.EqualsSignature([]api.ValueType{api.ValueTypeI32, api.ValueTypeI64}, []api.ValueType{api.ValueTypeF64}))
	require.False(t, ft.EqualsSignature([]api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeF64}))
}

func TestNewCode_ExpandsLocalsAndConverts(t *testing.T) {
	groups := []LocalGroup{
		{Count: 2, Type: api.ValueTypeI32},
		{Count: 1, Type: api.ValueTypeF64},
	}
	ops := wazeroir.NewSliceOperatorReader([]wazeroir.Operator{
		{Kind: wazeroir.OpcodeEnd},
	})

	code, err := NewCode(groups, 3, ops)
	require.NoError(t, err)
	require.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeF64}, code.Locals)
	require.Len(t, code.Body, 1)
}

func TestNewCode_LocalsCountMismatch(t *testing.T) {
	groups := []LocalGroup{{Count: 2, Type: api.ValueTypeI32}}
	ops := wazeroir.NewSliceOperatorReader(nil)

	_, err := NewCode(groups, 3, ops)
	require.Error(t, err)
}

func TestDataSegment_IsPassive(t *testing.T) {
	active := &DataSegment{Mode: DataModeActive}
	passive := &DataSegment{Mode: DataModePassive}
	require.False(t, active.IsPassive())
	require.True(t, passive.IsPassive())
}

func TestModule_FuncDesc(t *testing.T) {
	module := &Module{
		ImportSection: []*Import{
			{Module: "env", Name: "a", Type: api.ExternTypeFunc},
		},
	}
	require.Equal(t, "import[0]", module.funcDesc(0))
	require.Equal(t, "func[0]", module.funcDesc(1))
	require.Equal(t, "func[2]", module.funcDesc(3))
}

package wasm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wazerolite/wazerolite/api"
)

func TestValueConversionsRoundTrip(t *testing.T) {
	require.Equal(t, int32(-123), valueToI32(valueFromI32(-123)))
	require.Equal(t, int64(-456), valueToI64(valueFromI64(-456)))
	require.Equal(t, uint32(0x3f800000), valueToF32Bits(valueFromF32Bits(math.Float32bits(1.0))))
	require.Equal(t, uint64(0x3ff0000000000000), valueToF64Bits(valueFromF64Bits(math.Float64bits(1.0))))
}

func TestDefaultValue(t *testing.T) {
	require.Equal(t, refValue(nullRef), defaultValue(api.ValueTypeFuncref))
	require.Equal(t, refValue(nullRef), defaultValue(api.ValueTypeExternref))
	require.Equal(t, Value(0), defaultValue(api.ValueTypeI32))
	require.Equal(t, Value(0), defaultValue(api.ValueTypeF64))
}

package wasm

import "github.com/wazerolite/wazerolite/api"

// Value is this core's runtime representation of a single Wasm value:
// every type (i32, i64, f32, f64, funcref, externref) is stored as its raw
// uint64 bit pattern, per SPEC_FULL.md's WasmValue design decision. i32 and
// f32 occupy the low 32 bits; funcref/externref store a Store address (or
// math.MaxUint32 for a null reference) in the low 32 bits. Conversions
// reuse api's existing Encode*/Decode* helpers so there is exactly one
// place that knows the IEEE-754 bit layout.
type Value = uint64

const nullRef uint32 = 0xffffffff

func valueFromI32(v int32) Value      { return Value(api.EncodeI32(v)) }
func valueFromI64(v int64) Value      { return Value(api.EncodeI64(v)) }
func valueFromF32Bits(b uint32) Value { return Value(b) }
func valueFromF64Bits(b uint64) Value { return b }

func valueToI32(v Value) int32      { return int32(uint32(v)) }
func valueToI64(v Value) int64      { return int64(v) }
func valueToF32Bits(v Value) uint32 { return uint32(v) }
func valueToF64Bits(v Value) uint64 { return v }

// refValue packs a Store address (or nullRef) as a Value.
func refValue(addr uint32) Value { return Value(addr) }

// defaultValue returns the zero value for t, used to initialize table
// slots.
func defaultValue(t api.ValueType) Value {
	switch t {
	case api.ValueTypeFuncref, api.ValueTypeExternref:
		return refValue(nullRef)
	default:
		return 0
	}
}

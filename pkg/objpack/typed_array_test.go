package objpack

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

func TestElementTypes(t *testing.T) {
	types := ElementTypes()
	require.Len(t, types, 11)
	for i, et := range types {
		assert.Equal(t, TagInt8Array+Tag(i), et.Tag())
		assert.True(t, et.Tag().IsTypedArray())
		assert.Equal(t, et, et.Tag().ElementType())
	}
	assert.Equal(t, 1, Uint8Clamped.Size())
	assert.Equal(t, 2, Int16.Size())
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, BigUint64.Size())
	assert.False(t, ElementType(11).Valid())
	assert.Equal(t, "Float64", Float64.String())
}

func TestNewTypedArray(t *testing.T) {
	buf := NewArrayBuffer(8)
	view, err := NewTypedArray(Int16, buf, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, view.ByteLength())
	assert.Len(t, view.Bytes(), 6)

	_, err = NewTypedArray(Int32, buf, 2, 1)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = NewTypedArray(Int32, buf, 4, 2)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = NewTypedArray(Int8, nil, 0, 0)
	assert.ErrorIs(t, err, merr.ErrParameterMissing)
	_, err = NewTypedArray(ElementType(42), buf, 0, 0)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestTypedArrayOf(t *testing.T) {
	assert.Equal(t, Int8, TypedArrayOf[int8]().Type)
	assert.Equal(t, Uint32, TypedArrayOf[uint32](1).Type)
	assert.Equal(t, BigInt64, TypedArrayOf[int64](1).Type)
	assert.Equal(t, BigUint64, TypedArrayOf[uint64](1).Type)

	i16 := TypedArrayOf[int16](-2, 300)
	assert.Equal(t, int64(-2), i16.Int(0))
	assert.Equal(t, int64(300), i16.Int(1))
	assert.Equal(t, []byte{0xfe, 0xff, 0x2c, 0x01}, i16.Bytes())

	f32 := TypedArrayOf[float32](1.5, -0.25)
	assert.Equal(t, 1.5, f32.Float(0))
	assert.Equal(t, -0.25, f32.Float(1))

	u64 := TypedArrayOf[uint64](math.MaxUint64)
	assert.Equal(t, uint64(math.MaxUint64), u64.Uint(0))
}

func TestTypedArrayConversions(t *testing.T) {
	u16 := MakeTypedArray(Uint16, 1)
	u16.SetInt(0, -2)
	assert.Equal(t, uint64(65534), u16.Uint(0))

	i8 := MakeTypedArray(Int8, 1)
	i8.SetUint(0, 255)
	assert.Equal(t, int64(-1), i8.Int(0))
	i8.SetFloat(0, math.NaN())
	assert.Equal(t, int64(0), i8.Int(0))
	i8.SetFloat(0, -7.9)
	assert.Equal(t, int64(-7), i8.Int(0))

	clamped := MakeTypedArray(Uint8Clamped, 4)
	clamped.SetFloat(0, 300)
	clamped.SetFloat(1, -5)
	clamped.SetFloat(2, 1.5)
	clamped.SetFloat(3, 2.5)
	assert.Equal(t, []byte{255, 0, 2, 2}, clamped.Bytes())
	clamped.SetInt(0, -1)
	clamped.SetUint(1, 1000)
	assert.Equal(t, []byte{0, 255}, clamped.Bytes()[:2])

	f64 := MakeTypedArray(Float64, 1)
	f64.SetInt(0, -3)
	assert.Equal(t, -3.0, f64.Float(0))
	assert.Equal(t, int64(-3), f64.Int(0))
}

func TestSubarray(t *testing.T) {
	a := TypedArrayOf[int32](0, 1, 2, 3, 4, 5, 6, 7)

	sub := a.Subarray(2, 4)
	assert.Same(t, a.Buffer, sub.Buffer)
	assert.Equal(t, 8, sub.ByteOffset)
	assert.Equal(t, 2, sub.Length)
	assert.Equal(t, int64(2), sub.Int(0))

	tail := a.Subarray(-3, -1)
	assert.Equal(t, 2, tail.Length)
	assert.Equal(t, int64(5), tail.Int(0))

	assert.Zero(t, a.Subarray(5, 2).Length)
	assert.Equal(t, 8, a.Subarray(-100, 100).Length)

	nested := sub.Subarray(1, 2)
	assert.Equal(t, int64(3), nested.Int(0))
	assert.Panics(t, func() { nested.Int(1) })
}

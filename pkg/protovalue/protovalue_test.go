package protovalue

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/objpack-go/pkg/objpack"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

func TestFromProto(t *testing.T) {
	pv, err := structpb.NewValue(map[string]any{
		"b":    1.5,
		"a":    []any{"x", true, nil},
		"nest": map[string]any{"k": "v"},
	})
	require.NoError(t, err)

	v := FromProto(pv)
	obj := v.(*objpack.Object)
	assert.Equal(t, []string{"a", "b", "nest"}, obj.Keys())
	a, _ := obj.Get("a")
	assert.Equal(t, []objpack.Value{"x", true, nil}, a.(*objpack.Array).Elems)
	assert.Nil(t, FromProto(nil))
}

func TestRoundTripThroughCodec(t *testing.T) {
	pv, err := structpb.NewValue(map[string]any{
		"name":  "objpack",
		"count": 3.0,
		"tags":  []any{"a", "b"},
	})
	require.NoError(t, err)

	data, err := objpack.Compress(context.Background(), FromProto(pv))
	require.NoError(t, err)
	decoded, err := objpack.Decompress(data)
	require.NoError(t, err)

	back, err := ToProto(decoded)
	require.NoError(t, err)
	assert.True(t, proto.Equal(pv, back))
}

func TestToProto(t *testing.T) {
	m := objpack.NewMap()
	m.Set("big", new(big.Int).Lsh(big.NewInt(1), 64))
	m.Set("date", objpack.NewDate(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)))
	m.Set("view", objpack.TypedArrayOf[uint8](7, 8))
	m.Set("set", objpack.NewSet(1, "x"))
	m.Set("undefined", objpack.Undefined{})

	pv, err := ToProto(m)
	require.NoError(t, err)
	fields := pv.GetStructValue().GetFields()
	assert.Equal(t, "18446744073709551616", fields["big"].GetStringValue())
	assert.Equal(t, "2020-01-02T03:04:05Z", fields["date"].GetStringValue())
	assert.Len(t, fields["view"].GetListValue().GetValues(), 2)
	assert.Equal(t, float64(8), fields["view"].GetListValue().GetValues()[1].GetNumberValue())
	assert.Equal(t, "x", fields["set"].GetListValue().GetValues()[1].GetStringValue())
	assert.NotNil(t, fields["undefined"].GetKind().(*structpb.Value_NullValue))
}

func TestToProtoErrors(t *testing.T) {
	cyclic := objpack.NewObject()
	cyclic.Set("self", cyclic)
	_, err := ToProto(cyclic)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	m := objpack.NewMap()
	m.Set(1, "one")
	_, err = ToProto(m)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = ToProto(objpack.NewArray(objpack.NewBlob(nil, "")))
	assert.ErrorIs(t, err, merr.ErrOperationNotSupported)

	_, err = ToProto(struct{}{})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	shared := objpack.NewArray(1)
	_, err = ToProto(objpack.NewArray(shared, shared))
	assert.NoError(t, err)
}

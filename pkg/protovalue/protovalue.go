// Package protovalue 在 google.protobuf.Value 与 objpack.Value 之间转换。
package protovalue

import (
	"math/big"
	"sort"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/objpack-go/pkg/objpack"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
	"github.com/lk2023060901/objpack-go/pkg/util/typeutil"
)

// FromProto 将 pv 转换为 objpack.Value。Struct 的字段按键名排序后写入 *objpack.Object。
func FromProto(pv *structpb.Value) objpack.Value {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return k.NumberValue
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_StructValue:
		return fromStruct(k.StructValue)
	case *structpb.Value_ListValue:
		arr := objpack.NewArray()
		for _, item := range k.ListValue.GetValues() {
			arr.Append(FromProto(item))
		}
		return arr
	default:
		return nil
	}
}

func fromStruct(s *structpb.Struct) *objpack.Object {
	fields := s.GetFields()
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	obj := objpack.NewObject()
	for _, key := range keys {
		obj.Set(key, FromProto(fields[key]))
	}
	return obj
}

// ToProto 将 v 转换为 google.protobuf.Value。
//
// 大整数与 Date 转为字符串，数值视图与缓冲区转为数值列表，Set 转为列表，
// 仅当 Map 的键全部为字符串时转为 Struct。Blob 不受支持，带环的对象图返回错误。
func ToProto(v objpack.Value) (*structpb.Value, error) {
	c := &converter{ancestors: typeutil.NewSet[objpack.Value]()}
	return c.value(v)
}

type converter struct {
	ancestors typeutil.Set[objpack.Value]
}

func (c *converter) enter(v objpack.Value) error {
	if c.ancestors.Contain(v) {
		return merr.WrapErrParameterInvalidMsg("cyclic %T cannot be converted to protobuf", v)
	}
	c.ancestors.Insert(v)
	return nil
}

func (c *converter) value(v objpack.Value) (*structpb.Value, error) {
	switch x := v.(type) {
	case nil, objpack.Undefined:
		return structpb.NewNullValue(), nil
	case bool:
		return structpb.NewBoolValue(x), nil
	case string:
		return structpb.NewStringValue(x), nil
	case *big.Int:
		if x == nil {
			return structpb.NewNullValue(), nil
		}
		return structpb.NewStringValue(x.String()), nil
	case *objpack.Date:
		if !x.Valid() {
			return structpb.NewNullValue(), nil
		}
		return structpb.NewStringValue(x.Time().UTC().Format(time.RFC3339Nano)), nil
	case *objpack.ArrayBuffer:
		return numberList(len(x.Data), func(i int) float64 { return float64(x.Data[i]) }), nil
	case *objpack.TypedArray:
		return numberList(x.Length, x.Float), nil
	case *objpack.Array:
		return c.list(x, x.Elems)
	case *objpack.Set:
		return c.list(x, x.Values())
	case *objpack.Object:
		if err := c.enter(x); err != nil {
			return nil, err
		}
		defer c.ancestors.Remove(x)
		fields := make(map[string]*structpb.Value, x.Len())
		var err error
		x.Range(func(key string, item objpack.Value) bool {
			fields[key], err = c.value(item)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	case *objpack.Map:
		if err := c.enter(x); err != nil {
			return nil, err
		}
		defer c.ancestors.Remove(x)
		fields := make(map[string]*structpb.Value, x.Len())
		for _, e := range x.Entries() {
			key, ok := e.Key.(string)
			if !ok {
				return nil, merr.WrapErrParameterInvalid("string key", e.Key, "map key")
			}
			item, err := c.value(e.Value)
			if err != nil {
				return nil, err
			}
			fields[key] = item
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	case *objpack.Blob, *objpack.File:
		return nil, merr.WrapErrOperationNotSupported("blob to protobuf")
	}
	if f, ok := number(v); ok {
		return structpb.NewNumberValue(f), nil
	}
	return nil, merr.WrapErrParameterInvalidMsg("%T cannot be converted to protobuf", v)
}

func (c *converter) list(owner objpack.Value, elems []objpack.Value) (*structpb.Value, error) {
	if err := c.enter(owner); err != nil {
		return nil, err
	}
	defer c.ancestors.Remove(owner)
	values := make([]*structpb.Value, 0, len(elems))
	for _, elem := range elems {
		item, err := c.value(elem)
		if err != nil {
			return nil, err
		}
		values = append(values, item)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
}

func numberList(n int, at func(i int) float64) *structpb.Value {
	values := make([]*structpb.Value, n)
	for i := range values {
		values[i] = structpb.NewNumberValue(at(i))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func number(v objpack.Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

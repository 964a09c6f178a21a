package objpack

import (
	"bytes"
	"context"
	"math"
	"math/big"
	"reflect"

	"github.com/lk2023060901/objpack-go/pkg/util/typeutil"
)

// Equal 判断两个对象图是否深度相等。
//
// 数值按 float64 比较且 NaN 等于 NaN，*big.Int 按数值比较，TypedArray 比较元素字节，
// Object/Map/Set 按插入顺序逐项比较。带环的图同样可以比较。
func Equal(a, b Value) bool {
	e := &equaler{seen: typeutil.NewSet[refPair]()}
	return e.equal(a, b)
}

type refPair struct {
	a, b Value
}

type equaler struct {
	seen typeutil.Set[refPair]
}

func (e *equaler) equal(a, b Value) bool {
	a, b = canonical(a), canonical(b)
	if fa, ok := a.(float64); ok {
		fb, ok := b.(float64)
		return ok && floatEqual(fa, fb)
	}
	if ia, ok := a.(*big.Int); ok {
		ib, ok := b.(*big.Int)
		return ok && ia.Cmp(ib) == 0
	}
	if !isReference(a) || !isReference(b) {
		return comparableEqual(a, b)
	}
	if a == b {
		return true
	}
	pair := refPair{a, b}
	if e.seen.Contain(pair) {
		return true
	}
	e.seen.Insert(pair)

	switch x := a.(type) {
	case *Date:
		y, ok := b.(*Date)
		return ok && floatEqual(x.Millis, y.Millis)
	case *ArrayBuffer:
		y, ok := b.(*ArrayBuffer)
		return ok && bytes.Equal(x.Data, y.Data)
	case *TypedArray:
		y, ok := b.(*TypedArray)
		return ok && x.Type == y.Type && x.Length == y.Length && bytes.Equal(x.Bytes(), y.Bytes())
	case *Blob:
		y, ok := b.(*Blob)
		return ok && blobEqual(x, y)
	case *File:
		y, ok := b.(*File)
		return ok && x.Name == y.Name && floatEqual(x.LastModified, y.LastModified) && blobEqual(&x.Blob, &y.Blob)
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := range x.Elems {
			if !e.equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, key := range x.keys {
			if y.keys[i] != key || !e.equal(x.values[key], y.values[key]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := range x.entries {
			if !e.equal(x.entries[i].Key, y.entries[i].Key) || !e.equal(x.entries[i].Value, y.entries[i].Value) {
				return false
			}
		}
		return true
	case *Set:
		y, ok := b.(*Set)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := range x.elems {
			if !e.equal(x.elems[i], y.elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// canonical 将编码前的便捷类型转换为解码后的规范类型。
func canonical(v Value) Value {
	if f, ok := AsNumber(v); ok {
		return f
	}
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil
		}
	case big.Int:
		return &x
	}
	if isNilReference(v) {
		return nil
	}
	return v
}

func comparableEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

func floatEqual(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func blobEqual(a, b *Blob) bool {
	if a.Type != b.Type {
		return false
	}
	da, errA := a.read(context.Background())
	db, errB := b.read(context.Background())
	return errA == nil && errB == nil && bytes.Equal(da, db)
}

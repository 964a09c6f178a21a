// Package jsonvalue 在 JSON 文本与 objpack.Value 之间转换。
//
// Parse 保留对象键的原始顺序，Marshal 的输出规则与浏览器的 JSON.stringify 保持一致：
// NaN 与无穷输出为 null，Date 输出为 ISO 8601 字符串，Map 输出为键值对数组，
// Set 输出为数组，对象中的 Undefined 字段被省略。
package jsonvalue

import (
	"bytes"
	"io"
	"math"
	"math/big"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lk2023060901/objpack-go/pkg/objpack"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
	"github.com/lk2023060901/objpack-go/pkg/util/typeutil"
)

const isoLayout = "2006-01-02T15:04:05.000Z"

var (
	compact  = jsoniter.Config{EscapeHTML: false}.Froze()
	indented = jsoniter.Config{EscapeHTML: false, IndentionStep: 2}.Froze()
)

// Parse 将 JSON 文本解析为 objpack.Value：对象为 *objpack.Object，数组为 *objpack.Array，
// 数值为 float64。
func Parse(data []byte) (objpack.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, merr.WrapErrParameterInvalidMsg("empty json input")
	}
	iter := compact.BorrowIterator(data)
	defer compact.ReturnIterator(iter)

	p := &parser{iter: iter}
	v := p.value()
	if p.ok() && iter.WhatIsNext() != jsoniter.InvalidValue {
		p.fail("trailing data after json value")
	}
	if p.err != nil {
		return nil, p.err
	}
	return v, nil
}

type parser struct {
	iter *jsoniter.Iterator
	err  error
}

func (p *parser) fail(reason string) {
	if p.err != nil {
		return
	}
	if p.iter.Error != nil && p.iter.Error != io.EOF {
		reason = p.iter.Error.Error()
	}
	p.err = merr.WrapErrParameterInvalidMsg("invalid json: %s", reason)
}

func (p *parser) ok() bool {
	if p.iter.Error != nil && p.iter.Error != io.EOF {
		p.fail(p.iter.Error.Error())
	}
	return p.err == nil
}

func (p *parser) value() objpack.Value {
	switch p.iter.WhatIsNext() {
	case jsoniter.StringValue:
		return p.iter.ReadString()
	case jsoniter.NumberValue:
		return p.iter.ReadFloat64()
	case jsoniter.BoolValue:
		return p.iter.ReadBool()
	case jsoniter.NilValue:
		p.iter.ReadNil()
		return nil
	case jsoniter.ArrayValue:
		arr := objpack.NewArray()
		if !p.iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			arr.Append(p.value())
			return p.ok()
		}) {
			p.fail("unterminated array")
		}
		return arr
	case jsoniter.ObjectValue:
		obj := objpack.NewObject()
		if !p.iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			obj.Set(key, p.value())
			return p.ok()
		}) {
			p.fail("unterminated object")
		}
		return obj
	default:
		p.fail("unexpected token")
		return nil
	}
}

// Marshal 将 v 输出为紧凑的 JSON 文本，带环的对象图返回 merr.ErrParameterInvalid。
func Marshal(v objpack.Value) ([]byte, error) {
	return marshal(compact, v)
}

// MarshalIndent 与 Marshal 相同，但以两个空格缩进输出。
func MarshalIndent(v objpack.Value) ([]byte, error) {
	return marshal(indented, v)
}

func marshal(api jsoniter.API, v objpack.Value) ([]byte, error) {
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	w := &writer{stream: stream, ancestors: typeutil.NewSet[objpack.Value]()}
	w.value(v)
	if w.err != nil {
		return nil, w.err
	}
	if stream.Error != nil {
		return nil, merr.WrapErrParameterInvalidMsg("marshal json: %s", stream.Error)
	}
	return bytes.Clone(stream.Buffer()), nil
}

type writer struct {
	stream *jsoniter.Stream
	// ancestors 为当前路径上的容器，用于识别环；共享但无环的子图会被重复输出。
	ancestors typeutil.Set[objpack.Value]
	err       error
}

func (w *writer) enter(v objpack.Value) bool {
	if w.ancestors.Contain(v) {
		w.err = merr.WrapErrParameterInvalidMsg("cyclic %T cannot be represented as json", v)
		return false
	}
	w.ancestors.Insert(v)
	return true
}

func (w *writer) leave(v objpack.Value) {
	w.ancestors.Remove(v)
}

func (w *writer) value(v objpack.Value) {
	if w.err != nil {
		return
	}
	s := w.stream
	switch x := v.(type) {
	case nil, objpack.Undefined:
		s.WriteNil()
	case string:
		s.WriteString(x)
	case bool:
		s.WriteBool(x)
	case float64:
		w.number(x)
	case *big.Int:
		if x == nil {
			s.WriteNil()
			return
		}
		s.WriteRaw(x.String())
	case *objpack.Date:
		if x == nil || !x.Valid() {
			s.WriteNil()
			return
		}
		s.WriteString(time.UnixMilli(int64(x.Millis)).UTC().Format(isoLayout))
	case *objpack.ArrayBuffer:
		if x == nil {
			s.WriteNil()
			return
		}
		w.numbers(len(x.Data), func(i int) float64 { return float64(x.Data[i]) })
	case *objpack.TypedArray:
		if x == nil {
			s.WriteNil()
			return
		}
		w.numbers(x.Length, x.Float)
	case *objpack.Blob:
		if x == nil {
			s.WriteNil()
			return
		}
		s.WriteEmptyObject()
	case *objpack.File:
		if x == nil {
			s.WriteNil()
			return
		}
		s.WriteEmptyObject()
	case *objpack.Array:
		if x == nil {
			s.WriteNil()
			return
		}
		w.array(x, x.Elems)
	case *objpack.Set:
		if x == nil {
			s.WriteNil()
			return
		}
		w.array(x, x.Values())
	case *objpack.Object:
		if x == nil {
			s.WriteNil()
			return
		}
		w.object(x)
	case *objpack.Map:
		if x == nil {
			s.WriteNil()
			return
		}
		w.pairs(x)
	default:
		if f, ok := objpack.AsNumber(v); ok {
			w.number(f)
			return
		}
		s.WriteNil()
	}
}

func (w *writer) number(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		w.stream.WriteNil()
		return
	}
	w.stream.WriteFloat64(f)
}

func (w *writer) numbers(n int, at func(i int) float64) {
	w.stream.WriteArrayStart()
	for i := 0; i < n; i++ {
		if i > 0 {
			w.stream.WriteMore()
		}
		w.number(at(i))
	}
	w.stream.WriteArrayEnd()
}

func (w *writer) array(owner objpack.Value, elems []objpack.Value) {
	if !w.enter(owner) {
		return
	}
	defer w.leave(owner)
	w.stream.WriteArrayStart()
	for i, elem := range elems {
		if i > 0 {
			w.stream.WriteMore()
		}
		w.value(elem)
	}
	w.stream.WriteArrayEnd()
}

func (w *writer) object(obj *objpack.Object) {
	if !w.enter(obj) {
		return
	}
	defer w.leave(obj)
	w.stream.WriteObjectStart()
	first := true
	obj.Range(func(key string, v objpack.Value) bool {
		if _, skip := v.(objpack.Undefined); skip {
			return true
		}
		if !first {
			w.stream.WriteMore()
		}
		first = false
		w.stream.WriteObjectField(key)
		w.value(v)
		return w.err == nil
	})
	w.stream.WriteObjectEnd()
}

func (w *writer) pairs(m *objpack.Map) {
	if !w.enter(m) {
		return
	}
	defer w.leave(m)
	w.stream.WriteArrayStart()
	for i, e := range m.Entries() {
		if i > 0 {
			w.stream.WriteMore()
		}
		w.stream.WriteArrayStart()
		w.value(e.Key)
		w.stream.WriteMore()
		w.value(e.Value)
		w.stream.WriteArrayEnd()
	}
	w.stream.WriteArrayEnd()
}

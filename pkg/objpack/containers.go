package objpack

import (
	"math"
	"math/big"
	"reflect"
	"slices"

	"github.com/samber/lo"
)

// Array 为有序序列。
type Array struct {
	Elems []Value
}

// NewArray 以 elems 创建序列。
func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

func (a *Array) Len() int {
	return len(a.Elems)
}

func (a *Array) At(i int) Value {
	return a.Elems[i]
}

func (a *Array) Append(elems ...Value) {
	a.Elems = append(a.Elems, elems...)
}

// Object 为按插入顺序保存的字符串键记录。零值可直接使用。
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject 创建空记录。
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set 写入键值，已存在的键保持原有顺序。
func (o *Object) Set(key string, v Value) {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Delete 删除键，返回键是否存在。
func (o *Object) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	i := slices.Index(o.keys, key)
	o.keys = slices.Delete(o.keys, i, i+1)
	return true
}

// Keys 按插入顺序返回全部键。
func (o *Object) Keys() []string {
	return slices.Clone(o.keys)
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Range 按插入顺序遍历，fn 返回 false 时停止。
func (o *Object) Range(fn func(key string, v Value) bool) {
	for _, key := range o.keys {
		if !fn(key, o.values[key]) {
			return
		}
	}
}

// MapEntry 为 Map 中的一个键值对。
type MapEntry struct {
	Key   Value
	Value Value
}

// Map 为按插入顺序保存的映射，键可以是任意 Value。
//
// 数值键按数值比较（NaN 等于 NaN，-0 等于 0），*big.Int 键按数值比较，
// 指针类型的键按身份比较。零值可直接使用。
type Map struct {
	entries []MapEntry
	index   map[any]int
}

// NewMap 创建空映射。
func NewMap() *Map {
	return &Map{}
}

func (m *Map) lookup(key Value) (int, bool) {
	k, ok := normalizeKey(key)
	if !ok {
		return -1, false
	}
	i, found := m.index[k]
	return i, found
}

// Set 写入键值，已存在的键保持原有顺序。
func (m *Map) Set(key, v Value) {
	if i, ok := m.lookup(key); ok {
		m.entries[i].Value = v
		return
	}
	m.entries = append(m.entries, MapEntry{Key: key, Value: v})
	if k, ok := normalizeKey(key); ok {
		if m.index == nil {
			m.index = make(map[any]int)
		}
		m.index[k] = len(m.entries) - 1
	}
}

func (m *Map) Get(key Value) (Value, bool) {
	if i, ok := m.lookup(key); ok {
		return m.entries[i].Value, true
	}
	return nil, false
}

func (m *Map) Has(key Value) bool {
	_, ok := m.lookup(key)
	return ok
}

// Delete 删除键，返回键是否存在。
func (m *Map) Delete(key Value) bool {
	i, ok := m.lookup(key)
	if !ok {
		return false
	}
	m.entries = slices.Delete(m.entries, i, i+1)
	m.reindex()
	return true
}

func (m *Map) reindex() {
	clear(m.index)
	for i, e := range m.entries {
		if k, ok := normalizeKey(e.Key); ok {
			m.index[k] = i
		}
	}
}

func (m *Map) Len() int {
	return len(m.entries)
}

// Entries 按插入顺序返回全部键值对。
func (m *Map) Entries() []MapEntry {
	return slices.Clone(m.entries)
}

// Keys 按插入顺序返回全部键。
func (m *Map) Keys() []Value {
	return lo.Map(m.entries, func(e MapEntry, _ int) Value { return e.Key })
}

// Range 按插入顺序遍历，fn 返回 false 时停止。
func (m *Map) Range(fn func(key, v Value) bool) {
	for _, e := range m.entries {
		if !fn(e.Key, e.Value) {
			return
		}
	}
}

// Set 为按插入顺序保存的集合，元素比较规则与 Map 的键相同。零值可直接使用。
type Set struct {
	elems []Value
	index map[any]int
}

// NewSet 以 elems 创建集合，重复元素被忽略。
func NewSet(elems ...Value) *Set {
	s := &Set{}
	for _, e := range elems {
		s.Add(e)
	}
	return s
}

// Add 加入元素，返回元素此前是否不存在。
func (s *Set) Add(v Value) bool {
	k, ok := normalizeKey(v)
	if ok {
		if _, found := s.index[k]; found {
			return false
		}
		if s.index == nil {
			s.index = make(map[any]int)
		}
		s.index[k] = len(s.elems)
	}
	s.elems = append(s.elems, v)
	return true
}

func (s *Set) Has(v Value) bool {
	k, ok := normalizeKey(v)
	if !ok {
		return false
	}
	_, found := s.index[k]
	return found
}

// Delete 删除元素，返回元素是否存在。
func (s *Set) Delete(v Value) bool {
	k, ok := normalizeKey(v)
	if !ok {
		return false
	}
	i, found := s.index[k]
	if !found {
		return false
	}
	s.elems = slices.Delete(s.elems, i, i+1)
	clear(s.index)
	for i, e := range s.elems {
		if k, ok := normalizeKey(e); ok {
			s.index[k] = i
		}
	}
	return true
}

func (s *Set) Len() int {
	return len(s.elems)
}

// Values 按插入顺序返回全部元素。
func (s *Set) Values() []Value {
	return slices.Clone(s.elems)
}

// Range 按插入顺序遍历，fn 返回 false 时停止。
func (s *Set) Range(fn func(v Value) bool) {
	for _, e := range s.elems {
		if !fn(e) {
			return
		}
	}
}

type nanKey struct{}

type bigKey string

// normalizeKey 将 Map 键与 Set 元素转换为可用作 Go map 键的形式，
// 第二个返回值为 false 表示该值不可比较，无法建立索引。
func normalizeKey(v Value) (any, bool) {
	// nil 指针与 nil 编码结果相同，需视为同一个键。
	if isNilReference(v) {
		return nil, true
	}
	if f, ok := AsNumber(v); ok {
		switch {
		case math.IsNaN(f):
			return nanKey{}, true
		case f == 0:
			return float64(0), true
		default:
			return f, true
		}
	}
	switch x := v.(type) {
	case nil:
		return nil, true
	case *big.Int:
		if x == nil {
			return nil, true
		}
		return bigKey(x.String()), true
	case big.Int:
		return bigKey(x.String()), true
	}
	if !reflect.TypeOf(v).Comparable() {
		return nil, false
	}
	return v, true
}

// AsNumber 将 Go 数值类型统一为 float64，v 不是数值时返回 false。
func AsNumber(v Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uintptr:
		return float64(x), true
	}
	return 0, false
}

package objpack

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

// ElementType 为数值视图的元素类型。
type ElementType uint8

const (
	Int8 ElementType = iota
	Uint8
	Uint8Clamped
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
	BigInt64
	BigUint64
)

var elementTypeNames = [...]string{
	Int8:         "Int8",
	Uint8:        "Uint8",
	Uint8Clamped: "Uint8Clamped",
	Int16:        "Int16",
	Uint16:       "Uint16",
	Int32:        "Int32",
	Uint32:       "Uint32",
	Float32:      "Float32",
	Float64:      "Float64",
	BigInt64:     "BigInt64",
	BigUint64:    "BigUint64",
}

// ElementTypes 返回全部元素类型。
func ElementTypes() []ElementType {
	types := make([]ElementType, 0, len(elementTypeNames))
	for t := range elementTypeNames {
		types = append(types, ElementType(t))
	}
	return types
}

func (t ElementType) Valid() bool {
	return int(t) < len(elementTypeNames)
}

func (t ElementType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ElementType(%d)", uint8(t))
	}
	return elementTypeNames[t]
}

// Size 返回单个元素的字节数。
func (t ElementType) Size() int {
	switch t {
	case Int8, Uint8, Uint8Clamped:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	default:
		return 8
	}
}

// Tag 返回该元素类型对应的记录标签。
func (t ElementType) Tag() Tag {
	return TagInt8Array + Tag(t)
}

func (t ElementType) signed() bool {
	return t == Int8 || t == Int16 || t == Int32 || t == BigInt64
}

func (t ElementType) float() bool {
	return t == Float32 || t == Float64
}

// TypedArray 为 ArrayBuffer 上的数值视图，自身不持有字节。
//
// 元素按小端序存储。多个视图可以共享同一个 Buffer，编码后仍然共享。
type TypedArray struct {
	Type       ElementType
	Buffer     *ArrayBuffer
	ByteOffset int
	Length     int
}

// NewTypedArray 在 buf 上创建视图，byteOffset 必须按元素大小对齐。
func NewTypedArray(t ElementType, buf *ArrayBuffer, byteOffset, length int) (*TypedArray, error) {
	if !t.Valid() {
		return nil, merr.WrapErrParameterInvalidMsg("unknown element type %d", t)
	}
	if buf == nil {
		return nil, merr.WrapErrParameterMissing("buffer")
	}
	size := t.Size()
	if byteOffset < 0 || byteOffset%size != 0 {
		return nil, merr.WrapErrParameterInvalidMsg("byte offset %d of %s view should be a non-negative multiple of %d", byteOffset, t, size)
	}
	if length < 0 || byteOffset+length*size > len(buf.Data) {
		return nil, merr.WrapErrParameterInvalidMsg("%s view [%d, +%d) exceeds buffer of %d bytes", t, byteOffset, length, len(buf.Data))
	}
	return &TypedArray{Type: t, Buffer: buf, ByteOffset: byteOffset, Length: length}, nil
}

// MakeTypedArray 创建一个持有独立零值缓冲区的视图。
func MakeTypedArray(t ElementType, length int) *TypedArray {
	return &TypedArray{Type: t, Buffer: NewArrayBuffer(length * t.Size()), Length: length}
}

// Element 为可直接构造视图的 Go 数值类型。
//
// int64/uint64 对应 BigInt64/BigUint64；Uint8Clamped 需通过 MakeTypedArray 构造。
type Element interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~float32 | ~float64 | ~int64 | ~uint64
}

// TypedArrayOf 以 values 创建视图，元素类型由 T 决定。
func TypedArrayOf[T Element](values ...T) *TypedArray {
	var t ElementType
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Int8:
		t = Int8
	case reflect.Uint8:
		t = Uint8
	case reflect.Int16:
		t = Int16
	case reflect.Uint16:
		t = Uint16
	case reflect.Int32:
		t = Int32
	case reflect.Uint32:
		t = Uint32
	case reflect.Float32:
		t = Float32
	case reflect.Float64:
		t = Float64
	case reflect.Int64:
		t = BigInt64
	default:
		t = BigUint64
	}
	a := MakeTypedArray(t, len(values))
	for i, v := range values {
		switch {
		case t.float():
			a.SetFloat(i, float64(v))
		case t.signed():
			a.SetInt(i, int64(v))
		default:
			a.SetUint(i, uint64(v))
		}
	}
	return a
}

// ByteLength 返回视图覆盖的字节数。
func (a *TypedArray) ByteLength() int {
	return a.Length * a.Type.Size()
}

// inBounds 判断视图的元素类型与范围是否合法，校验规则与 NewTypedArray 相同。
// Buffer 为 nil 时按空 Buffer 处理。
func (a *TypedArray) inBounds() bool {
	if !a.Type.Valid() {
		return false
	}
	size := a.Type.Size()
	if a.ByteOffset < 0 || a.ByteOffset%size != 0 || a.Length < 0 {
		return false
	}
	n := 0
	if a.Buffer != nil {
		n = len(a.Buffer.Data)
	}
	return a.ByteOffset <= n && a.Length <= (n-a.ByteOffset)/size
}

// Bytes 返回视图覆盖的字节，与 Buffer 共享底层内存。
func (a *TypedArray) Bytes() []byte {
	if a.Buffer == nil {
		return nil
	}
	return a.Buffer.Data[a.ByteOffset : a.ByteOffset+a.ByteLength()]
}

// Subarray 返回 [begin, end) 范围的新视图，与原视图共享 Buffer。
// 负数下标从末尾计算，越界下标被截断。
func (a *TypedArray) Subarray(begin, end int) *TypedArray {
	begin, end = clampIndex(begin, a.Length), clampIndex(end, a.Length)
	if end < begin {
		end = begin
	}
	return &TypedArray{
		Type:       a.Type,
		Buffer:     a.Buffer,
		ByteOffset: a.ByteOffset + begin*a.Type.Size(),
		Length:     end - begin,
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return min(max(i, 0), n)
}

func (a *TypedArray) at(i int) []byte {
	if i < 0 || i >= a.Length {
		panic(fmt.Sprintf("objpack: index %d out of range [0:%d]", i, a.Length))
	}
	size := a.Type.Size()
	off := a.ByteOffset + i*size
	return a.Buffer.Data[off : off+size]
}

func (a *TypedArray) bits(i int) uint64 {
	p := a.at(i)
	switch len(p) {
	case 1:
		return uint64(p[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(p))
	case 4:
		return uint64(binary.LittleEndian.Uint32(p))
	default:
		return binary.LittleEndian.Uint64(p)
	}
}

func (a *TypedArray) putBits(i int, v uint64) {
	p := a.at(i)
	switch len(p) {
	case 1:
		p[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(p, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(p, uint32(v))
	default:
		binary.LittleEndian.PutUint64(p, v)
	}
}

// Int 返回第 i 个元素的有符号整数值。
func (a *TypedArray) Int(i int) int64 {
	switch a.Type {
	case Int8:
		return int64(int8(a.bits(i)))
	case Int16:
		return int64(int16(a.bits(i)))
	case Int32:
		return int64(int32(a.bits(i)))
	case BigInt64:
		return int64(a.bits(i))
	case Float32, Float64:
		return int64(a.Float(i))
	default:
		return int64(a.bits(i))
	}
}

// Uint 返回第 i 个元素的无符号整数值。
func (a *TypedArray) Uint(i int) uint64 {
	switch {
	case a.Type.float():
		return uint64(a.Float(i))
	case a.Type.signed():
		return uint64(a.Int(i))
	default:
		return a.bits(i)
	}
}

// Float 返回第 i 个元素的 float64 值。
func (a *TypedArray) Float(i int) float64 {
	switch {
	case a.Type == Float32:
		return float64(math.Float32frombits(uint32(a.bits(i))))
	case a.Type == Float64:
		return math.Float64frombits(a.bits(i))
	case a.Type.signed():
		return float64(a.Int(i))
	default:
		return float64(a.bits(i))
	}
}

// SetInt 写入第 i 个元素，超出元素宽度的高位被截断。
func (a *TypedArray) SetInt(i int, v int64) {
	switch {
	case a.Type.float():
		a.SetFloat(i, float64(v))
	case a.Type == Uint8Clamped:
		a.putBits(i, uint64(min(max(v, 0), math.MaxUint8)))
	default:
		a.putBits(i, uint64(v))
	}
}

// SetUint 写入第 i 个元素，超出元素宽度的高位被截断。
func (a *TypedArray) SetUint(i int, v uint64) {
	switch {
	case a.Type.float():
		a.SetFloat(i, float64(v))
	case a.Type == Uint8Clamped:
		a.putBits(i, min(v, math.MaxUint8))
	default:
		a.putBits(i, v)
	}
}

// SetFloat 写入第 i 个元素。整数视图取截断后的值，NaN 与无穷写入 0；
// Uint8Clamped 四舍六入五取偶并截断到 [0, 255]。
func (a *TypedArray) SetFloat(i int, v float64) {
	switch a.Type {
	case Float32:
		a.putBits(i, uint64(math.Float32bits(float32(v))))
	case Float64:
		a.putBits(i, math.Float64bits(v))
	case Uint8Clamped:
		if math.IsNaN(v) {
			v = 0
		}
		a.putBits(i, uint64(math.RoundToEven(min(max(v, 0), math.MaxUint8))))
	default:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		if v < 0 {
			a.SetInt(i, int64(v))
		} else {
			a.SetUint(i, uint64(v))
		}
	}
}

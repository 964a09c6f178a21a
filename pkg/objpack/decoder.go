package objpack

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/lk2023060901/objpack-go/pkg/log"
	"github.com/lk2023060901/objpack-go/pkg/metrics"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
	"github.com/lk2023060901/objpack-go/pkg/util/varint"
)

// DecoderOption 为 Decoder 的可选配置。
type DecoderOption func(*Decoder)

// WithRecover 控制是否将解码过程中的 panic 转换为 merr.ErrMalformedStream，默认开启。
func WithRecover(enable bool) DecoderOption {
	return func(d *Decoder) {
		d.recover = enable
	}
}

// WithDecoderLogger 为 Decoder 绑定 Logger。
func WithDecoderLogger(logger *log.MLogger) DecoderOption {
	return func(d *Decoder) {
		d.SetLogger(logger)
	}
}

// Decoder 从字节流还原对象图。
//
// Decoder 只信任由 Encoder 产出的字节流，热路径上不做边界检查。
type Decoder struct {
	log.Binder

	recover bool
}

// NewDecoder 创建 Decoder。
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{recover: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode 解码 data，返回根记录对应的值。
func (d *Decoder) Decode(ctx context.Context, data []byte) (v Value, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Decode")
	start := time.Now()
	st := &decodeState{
		data:  data,
		cache: make(map[int]Value),
	}
	defer func() {
		observe(span, metrics.OpDecode, start, len(data), err)
	}()
	if d.recover {
		defer func() {
			if r := recover(); r != nil {
				v, err = nil, merr.WrapErrMalformedStream(st.pos, r)
				d.CtxLogger(ctx).Warn("objpack decode failed", log.FieldOffset(st.pos), log.FieldSize(len(data)), zap.Error(err))
			}
		}()
	}

	v, _ = st.decodeAt(0)
	d.CtxLogger(ctx).Debug("objpack decoded",
		log.FieldSize(len(data)),
		zap.Int("records", len(st.cache)))
	return v, nil
}

type decodeState struct {
	data  []byte
	cache map[int]Value
	// pos 为最近一次开始解码的记录偏移，用于错误定位。
	pos int
}

// decodeAt 解码 off 处的记录，返回值与记录之后的偏移。
func (st *decodeState) decodeAt(off int) (Value, int) {
	st.pos = off
	tag := Tag(st.data[off])
	switch {
	case tag.IsTypedArray():
		buf, ok := st.resolve(st.pointer(off + 1)).(*ArrayBuffer)
		if !ok {
			panic(fmt.Sprintf("%s view without backing buffer", tag))
		}
		byteOffset, p := st.varint(off + 1 + ptrSize)
		length, p := st.varint(p)
		view := &TypedArray{Type: tag.ElementType(), Buffer: buf, ByteOffset: byteOffset, Length: length}
		st.cache[off] = view
		return view, p
	}

	switch tag {
	case TagString:
		return st.string(off + 1)
	case TagZero:
		return float64(0), off + 1
	case TagPosInt:
		n, p := varint.Decode(st.data, off+1)
		return float64(n), p
	case TagNegInt:
		n, p := varint.Decode(st.data, off+1)
		return -float64(n), p
	case TagFloat:
		return st.float(off + 1), off + 9
	case TagNaN:
		return math.NaN(), off + 1
	case TagPosInf:
		return math.Inf(1), off + 1
	case TagNegInf:
		return math.Inf(-1), off + 1
	case TagBigZero:
		return new(big.Int), off + 1
	case TagBigPos, TagBigNeg:
		mag, p := st.bytes(off + 1)
		be := slices.Clone(mag)
		slices.Reverse(be)
		x := new(big.Int).SetBytes(be)
		if tag == TagBigNeg {
			x.Neg(x)
		}
		return x, p
	case TagTrue:
		return true, off + 1
	case TagFalse:
		return false, off + 1
	case TagUndefined:
		return Undefined{}, off + 1
	case TagNull, TagUnsupported:
		return nil, off + 1
	case TagRef:
		return st.resolve(st.pointer(off + 1)), off + 1 + ptrSize

	case TagDate:
		date := &Date{Millis: st.float(off + 1)}
		st.cache[off] = date
		return date, off + 9

	case TagArrayBuffer:
		data, p := st.bytes(off + 1)
		buf := &ArrayBuffer{Data: slices.Clone(data)}
		st.cache[off] = buf
		return buf, p

	case TagBlob:
		mediaType, p := st.string(off + 1)
		payload, p := st.bytes(p)
		blob := &Blob{Type: mediaType, Source: Bytes(slices.Clone(payload))}
		st.cache[off] = blob
		return blob, p

	case TagFile:
		name, p := st.string(off + 1)
		modified := st.float(p)
		mediaType, p := st.string(p + 8)
		payload, p := st.bytes(p)
		file := &File{
			Blob:         Blob{Type: mediaType, Source: Bytes(slices.Clone(payload))},
			Name:         name,
			LastModified: modified,
		}
		st.cache[off] = file
		return file, p

	case TagArray:
		arr := &Array{}
		st.cache[off] = arr
		p := off + 1
		for Tag(st.data[p]) != TagEnd {
			var elem Value
			elem, p = st.decodeAt(p)
			arr.Elems = append(arr.Elems, elem)
		}
		return arr, p + 1

	case TagObject:
		obj := NewObject()
		st.cache[off] = obj
		p := off + 1
		for Tag(st.data[p]) != TagEnd {
			var (
				v   Value
				key string
			)
			v, p = st.decodeAt(p)
			key, p = st.string(p)
			obj.Set(key, v)
		}
		return obj, p + 1

	case TagMap:
		m := NewMap()
		st.cache[off] = m
		p := off + 1
		for Tag(st.data[p]) != TagEnd {
			var k, v Value
			k, p = st.decodeAt(p)
			v, p = st.decodeAt(p)
			m.Set(k, v)
		}
		return m, p + 1

	case TagSet:
		set := NewSet()
		st.cache[off] = set
		p := off + 1
		for Tag(st.data[p]) != TagEnd {
			var elem Value
			elem, p = st.decodeAt(p)
			set.Add(elem)
		}
		return set, p + 1
	}
	panic(fmt.Sprintf("unknown tag 0x%02x", byte(tag)))
}

// resolve 返回 target 处记录的值，优先命中缓存以还原共享与环。
func (st *decodeState) resolve(target int) Value {
	if v, ok := st.cache[target]; ok {
		return v
	}
	if Tag(st.data[target]) == TagRef {
		panic(fmt.Sprintf("pointer at %d targets another pointer", st.pos))
	}
	v, _ := st.decodeAt(target)
	return v
}

func (st *decodeState) pointer(off int) int {
	return int(binary.LittleEndian.Uint32(st.data[off : off+ptrSize]))
}

func (st *decodeState) float(off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(st.data[off : off+8]))
}

func (st *decodeState) varint(off int) (int, int) {
	n, p := varint.Decode(st.data, off)
	return int(n), p
}

// bytes 返回 off 处 varint 长度前缀的字节，结果与输入共享内存。
func (st *decodeState) bytes(off int) ([]byte, int) {
	n, p := st.varint(off)
	return st.data[p : p+n], p + n
}

func (st *decodeState) string(off int) (string, int) {
	b, p := st.bytes(off)
	return string(b), p
}

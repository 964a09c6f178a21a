package objpack

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/lk2023060901/objpack-go/internal/pool/builderpool"
	"github.com/lk2023060901/objpack-go/pkg/buffer/builder"
	"github.com/lk2023060901/objpack-go/pkg/log"
	"github.com/lk2023060901/objpack-go/pkg/metrics"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
	"github.com/lk2023060901/objpack-go/pkg/util/varint"
)

const (
	// ptrSize 为绝对指针的固定宽度。
	ptrSize = 4

	// maxSafeInteger 为 float64 能精确表示的最大连续整数。
	maxSafeInteger = 1<<53 - 1
)

// maxStreamSize 为 4 字节绝对指针可寻址的最大流长度。
var maxStreamSize uint64 = math.MaxUint32

// EncoderOption 为 Encoder 的可选配置。
type EncoderOption func(*Encoder)

// WithBuilderPool 指定编码过程使用的 Builder 对象池。
func WithBuilderPool(pool *builderpool.Pool) EncoderOption {
	return func(e *Encoder) {
		e.pool = pool
	}
}

// WithEncoderLogger 为 Encoder 绑定 Logger。
func WithEncoderLogger(logger *log.MLogger) EncoderOption {
	return func(e *Encoder) {
		e.SetLogger(logger)
	}
}

// Encoder 将对象图编码为字节流。
//
// Encoder 本身不保存单次编码的状态，可以被多个 goroutine 同时使用。
type Encoder struct {
	log.Binder

	pool *builderpool.Pool
}

// NewEncoder 创建 Encoder。
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode 编码 v 并返回完整字节流。
//
// 仅在读取 Blob 负载失败或字节流超过 4 GiB 时返回错误。
func (e *Encoder) Encode(ctx context.Context, v Value) ([]byte, error) {
	var data []byte
	err := e.run(ctx, v, func(c *builder.Compound) error {
		data = c.Bytes()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// EncodeTo 编码 v 并写入 w，返回写入的字节数。
func (e *Encoder) EncodeTo(ctx context.Context, w io.Writer, v Value) (int64, error) {
	var n int64
	err := e.run(ctx, v, func(c *builder.Compound) error {
		var err error
		n, err = c.WriteTo(w)
		return merr.WrapErrIoFailed("writer", err)
	})
	return n, err
}

func (e *Encoder) run(ctx context.Context, v Value, emit func(c *builder.Compound) error) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Encode")
	start := time.Now()
	st := &encodeState{
		ctx:  ctx,
		enc:  e,
		refs: make(map[any]*reservation),
	}
	size := 0
	defer func() {
		st.release()
		observe(span, metrics.OpEncode, start, size, err)
	}()

	c, err := st.encode(v)
	if err != nil {
		e.CtxLogger(ctx).Warn("objpack encode failed", zap.Error(err))
		return err
	}
	size = c.Len()
	metrics.CodecSharedRefs.Add(float64(st.shared))
	e.CtxLogger(ctx).Debug("objpack encoded",
		log.FieldSize(size),
		zap.Int("records", len(st.order)+1),
		zap.Int("sharedRefs", st.shared))
	return emit(c)
}

// reservation 记录一个指针类型的值所在的 Builder 与其 4 字节指针占位符。
//
// 所有引用该值的位置追加的都是同一个 ptr 切片，拼接完成后回填一次即可。
type reservation struct {
	b   *builder.Builder
	ptr []byte
}

type encodeState struct {
	ctx context.Context
	enc *Encoder

	root *builder.Builder
	refs map[any]*reservation
	// order 为除根记录外的全部预留，按发现顺序排列。
	order  []*reservation
	shared int

	scratch [varint.MaxLen64]byte
}

func (st *encodeState) get() *builder.Builder {
	if st.enc.pool != nil {
		return st.enc.pool.Get()
	}
	return builderpool.Get()
}

func (st *encodeState) release() {
	put := builderpool.Put
	if st.enc.pool != nil {
		put = st.enc.pool.Put
	}
	if st.root != nil {
		put(st.root)
	}
	for _, res := range st.order {
		put(res.b)
	}
	st.root, st.order = nil, nil
}

func (st *encodeState) encode(v Value) (*builder.Compound, error) {
	st.root = st.get()
	if isReference(v) {
		// 根对象直接写入根 Builder，偏移恒为 0，无需额外的引用记录。
		st.refs[v] = &reservation{b: st.root, ptr: make([]byte, ptrSize)}
		if err := st.writeRecord(st.root, v); err != nil {
			return nil, err
		}
	} else if err := st.write(st.root, v); err != nil {
		return nil, err
	}

	c := builder.NewCompound(len(st.order) + 1)
	c.Append(st.root)
	offsets := make([]int, len(st.order))
	for i, res := range st.order {
		offsets[i] = c.Len()
		c.Append(res.b)
	}
	if uint64(c.Len()) > maxStreamSize {
		return nil, merr.WrapErrStreamTooLarge(c.Len(), maxStreamSize)
	}
	for i, res := range st.order {
		binary.LittleEndian.PutUint32(res.ptr, uint32(offsets[i]))
	}
	return c, nil
}

// write 将 v 写入 b：指针类型写入引用记录，其余类型直接写入完整记录。
func (st *encodeState) write(b *builder.Builder, v Value) error {
	if !isReference(v) {
		st.writePrimitive(b, v)
		return nil
	}
	res, err := st.reserve(v)
	if err != nil {
		return err
	}
	b.WriteByte(byte(TagRef))
	b.Append(res.ptr)
	return nil
}

// reserve 返回 v 的预留；首次遇到时先登记再写入记录，保证环能够终止。
func (st *encodeState) reserve(v Value) (*reservation, error) {
	if res, ok := st.refs[v]; ok {
		st.shared++
		return res, nil
	}
	res := &reservation{b: st.get(), ptr: make([]byte, ptrSize)}
	st.refs[v] = res
	st.order = append(st.order, res)
	return res, st.writeRecord(res.b, v)
}

func (st *encodeState) writeRecord(b *builder.Builder, v Value) error {
	switch x := v.(type) {
	case *Date:
		b.WriteByte(byte(TagDate))
		st.writeFloat(b, x.Millis)

	case *ArrayBuffer:
		b.WriteByte(byte(TagArrayBuffer))
		st.writeVarint(b, uint64(len(x.Data)))
		b.Append(x.Data)

	case *TypedArray:
		if !x.inBounds() {
			st.writeUnsupported(b, v)
			return nil
		}
		buf := x.Buffer
		if buf == nil {
			buf = &ArrayBuffer{}
		}
		res, err := st.reserve(buf)
		if err != nil {
			return err
		}
		b.WriteByte(byte(x.Type.Tag()))
		b.Append(res.ptr)
		st.writeVarint(b, uint64(x.ByteOffset))
		st.writeVarint(b, uint64(x.Length))

	case *Blob:
		data, err := st.readBlob(x)
		if err != nil {
			return err
		}
		b.WriteByte(byte(TagBlob))
		st.writeString(b, x.Type)
		st.writeBytes(b, data)

	case *File:
		data, err := st.readBlob(&x.Blob)
		if err != nil {
			return err
		}
		b.WriteByte(byte(TagFile))
		st.writeString(b, x.Name)
		st.writeFloat(b, x.LastModified)
		st.writeString(b, x.Type)
		st.writeBytes(b, data)

	case *Array:
		b.WriteByte(byte(TagArray))
		for _, elem := range x.Elems {
			if err := st.write(b, elem); err != nil {
				return err
			}
		}
		b.WriteByte(byte(TagEnd))

	case *Object:
		b.WriteByte(byte(TagObject))
		for _, key := range x.keys {
			// 键位于值之后，使得检查哨兵的字节总是标签字节。
			if err := st.write(b, x.values[key]); err != nil {
				return err
			}
			st.writeString(b, key)
		}
		b.WriteByte(byte(TagEnd))

	case *Map:
		b.WriteByte(byte(TagMap))
		for _, e := range x.entries {
			if err := st.write(b, e.Key); err != nil {
				return err
			}
			if err := st.write(b, e.Value); err != nil {
				return err
			}
		}
		b.WriteByte(byte(TagEnd))

	case *Set:
		b.WriteByte(byte(TagSet))
		for _, elem := range x.elems {
			if err := st.write(b, elem); err != nil {
				return err
			}
		}
		b.WriteByte(byte(TagEnd))
	}
	return nil
}

func (st *encodeState) writePrimitive(b *builder.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteByte(byte(TagNull))
	case Undefined:
		b.WriteByte(byte(TagUndefined))
	case bool:
		if x {
			b.WriteByte(byte(TagTrue))
		} else {
			b.WriteByte(byte(TagFalse))
		}
	case string:
		b.WriteByte(byte(TagString))
		st.writeString(b, x)
	case *big.Int:
		if x == nil {
			b.WriteByte(byte(TagNull))
			return
		}
		st.writeBigInt(b, x)
	case big.Int:
		st.writeBigInt(b, &x)
	default:
		if f, ok := AsNumber(v); ok {
			st.writeNumber(b, f)
			return
		}
		if isNilReference(v) {
			b.WriteByte(byte(TagNull))
			return
		}
		st.writeUnsupported(b, v)
	}
}

func (st *encodeState) writeNumber(b *builder.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		b.WriteByte(byte(TagNaN))
	case math.IsInf(f, 1):
		b.WriteByte(byte(TagPosInf))
	case math.IsInf(f, -1):
		b.WriteByte(byte(TagNegInf))
	case f == 0:
		b.WriteByte(byte(TagZero))
	case f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger:
		if f > 0 {
			b.WriteByte(byte(TagPosInt))
			st.writeVarint(b, uint64(f))
		} else {
			b.WriteByte(byte(TagNegInt))
			st.writeVarint(b, uint64(-f))
		}
	default:
		b.WriteByte(byte(TagFloat))
		st.writeFloat(b, f)
	}
}

func (st *encodeState) writeBigInt(b *builder.Builder, x *big.Int) {
	switch x.Sign() {
	case 0:
		b.WriteByte(byte(TagBigZero))
		return
	case 1:
		b.WriteByte(byte(TagBigPos))
	default:
		b.WriteByte(byte(TagBigNeg))
	}
	// Bytes 返回大端序绝对值，线格式为小端序。
	mag := x.Bytes()
	slices.Reverse(mag)
	st.writeBytes(b, mag)
}

func (st *encodeState) writeUnsupported(b *builder.Builder, v Value) {
	b.WriteByte(byte(TagUnsupported))
	kind := reflect.TypeOf(v).Kind().String()
	metrics.CodecUnsupportedValues.WithLabelValues(kind).Inc()
	st.enc.Logger().RatedDebug(1, "objpack encodes unsupported value as null",
		zap.String("type", fmt.Sprintf("%T", v)))
}

func (st *encodeState) readBlob(blob *Blob) ([]byte, error) {
	data, err := blob.read(st.ctx)
	if err != nil {
		return nil, merr.WrapErrBlobRead(blob.Type, err)
	}
	return data, nil
}

func (st *encodeState) writeVarint(b *builder.Builder, v uint64) {
	b.Write(varint.Append(st.scratch[:0], v))
}

func (st *encodeState) writeFloat(b *builder.Builder, f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	b.Write(buf[:])
}

func (st *encodeState) writeString(b *builder.Builder, s string) {
	st.writeVarint(b, uint64(len(s)))
	b.WriteString(s)
}

// writeBytes 追加 varint 长度与 p，p 在拼接前不会被拷贝。
func (st *encodeState) writeBytes(b *builder.Builder, p []byte) {
	st.writeVarint(b, uint64(len(p)))
	b.Append(p)
}

// isReference 判断 v 是否为按身份去重的指针类型。
func isReference(v Value) bool {
	switch x := v.(type) {
	case *Date:
		return x != nil
	case *ArrayBuffer:
		return x != nil
	case *TypedArray:
		return x != nil
	case *Blob:
		return x != nil
	case *File:
		return x != nil
	case *Array:
		return x != nil
	case *Object:
		return x != nil
	case *Map:
		return x != nil
	case *Set:
		return x != nil
	}
	return false
}

// isNilReference 判断 v 是否为 nil 的指针类型，这类值按 null 编码。
func isNilReference(v Value) bool {
	switch v.(type) {
	case *Date, *ArrayBuffer, *TypedArray, *Blob, *File, *Array, *Object, *Map, *Set:
		return !isReference(v)
	}
	return false
}

package objpack

import (
	"bytes"
	"context"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

type CodecSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *CodecSuite) SetupSuite() {
	s.ctx = context.Background()
}

func (s *CodecSuite) roundTrip(v Value) Value {
	data, err := Compress(s.ctx, v)
	s.Require().NoError(err)
	out, err := Decompress(data)
	s.Require().NoError(err)
	return out
}

func (s *CodecSuite) TestNumbers() {
	cases := []float64{
		0, 1, -1, 3.14, -3.14, 1e100, -1e100, 0.1,
		math.NaN(), math.Inf(1), math.Inf(-1),
		maxSafeInteger, -maxSafeInteger, maxSafeInteger + 1, -(maxSafeInteger + 1),
		math.MaxFloat64, math.SmallestNonzeroFloat64,
	}
	for _, c := range cases {
		out := s.roundTrip(c)
		f, ok := out.(float64)
		s.Require().True(ok, "%v decoded as %T", c, out)
		s.True(floatEqual(c, f), "expected %v, got %v", c, f)
	}
}

func (s *CodecSuite) TestGoIntegers() {
	s.Equal(float64(42), s.roundTrip(42))
	s.Equal(float64(-7), s.roundTrip(int64(-7)))
	s.Equal(float64(255), s.roundTrip(uint8(255)))
	s.Equal(float64(1.5), s.roundTrip(float32(1.5)))
}

func (s *CodecSuite) TestNegativeZeroCollapses() {
	data, err := Compress(s.ctx, math.Copysign(0, -1))
	s.Require().NoError(err)
	s.Equal([]byte{byte(TagZero)}, data)

	out, err := Decompress(data)
	s.Require().NoError(err)
	s.False(math.Signbit(out.(float64)))
}

func (s *CodecSuite) TestBigInts() {
	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	cases := []*big.Int{
		big.NewInt(0), big.NewInt(1), big.NewInt(-1),
		big.NewInt(1234567890), big.NewInt(-1234567890),
		huge, new(big.Int).Neg(new(big.Int).Sub(huge, big.NewInt(1))),
	}
	for _, c := range cases {
		out, ok := s.roundTrip(c).(*big.Int)
		s.Require().True(ok)
		s.Zero(c.Cmp(out), "expected %s, got %s", c, out)
	}

	out := s.roundTrip(*big.NewInt(99))
	s.Zero(big.NewInt(99).Cmp(out.(*big.Int)))
}

func (s *CodecSuite) TestStrings() {
	for _, c := range []string{"", "hello", "你好，世界", "emoji 🎉", string(make([]byte, 300))} {
		s.Equal(c, s.roundTrip(c))
	}
}

func (s *CodecSuite) TestConstants() {
	s.Equal(true, s.roundTrip(true))
	s.Equal(false, s.roundTrip(false))
	s.Nil(s.roundTrip(nil))
	s.Equal(Undefined{}, s.roundTrip(Undefined{}))
}

func (s *CodecSuite) TestDates() {
	epoch := s.roundTrip(&Date{Millis: 0}).(*Date)
	s.Equal(float64(0), epoch.Millis)
	s.True(epoch.Time().Equal(time.UnixMilli(0)))

	now := time.Now()
	out := s.roundTrip(NewDate(now)).(*Date)
	s.Equal(now.UnixMilli(), out.Time().UnixMilli())

	invalid := s.roundTrip(&Date{Millis: math.NaN()}).(*Date)
	s.False(invalid.Valid())
	s.True(invalid.Time().IsZero())
}

func (s *CodecSuite) TestTypedArrays() {
	for _, t := range ElementTypes() {
		empty := s.roundTrip(MakeTypedArray(t, 0)).(*TypedArray)
		s.Equal(t, empty.Type)
		s.Zero(empty.Length)

		pos := MakeTypedArray(t, 3)
		neg := MakeTypedArray(t, 3)
		for i := 0; i < 3; i++ {
			pos.SetFloat(i, float64(i+1))
			neg.SetFloat(i, -float64(i+1))
		}
		for _, view := range []*TypedArray{pos, neg} {
			out := s.roundTrip(view).(*TypedArray)
			s.Equal(t, out.Type)
			s.Equal(3, out.Length)
			s.True(Equal(view, out), "%s view mismatch", t)
		}
		s.Equal(float64(2), s.roundTrip(pos).(*TypedArray).Float(1))
		if t.signed() || t.float() {
			s.Equal(float64(-3), s.roundTrip(neg).(*TypedArray).Float(2))
		}
	}
}

func (s *CodecSuite) TestArrayBuffer() {
	buf := &ArrayBuffer{Data: []byte{0, 1, 2, 0xff}}
	out := s.roundTrip(buf).(*ArrayBuffer)
	s.Equal(buf.Data, out.Data)
	s.Zero(s.roundTrip(NewArrayBuffer(0)).(*ArrayBuffer).ByteLength())
}

func (s *CodecSuite) TestBlobAndFile() {
	blob := s.roundTrip(NewBlob([]byte("hello"), "text/plain")).(*Blob)
	s.Equal("text/plain", blob.Type)
	data, err := blob.Source.Bytes(s.ctx)
	s.NoError(err)
	s.Equal([]byte("hello"), data)

	empty := s.roundTrip(NewBlob(nil, "")).(*Blob)
	data, err = empty.Source.Bytes(s.ctx)
	s.NoError(err)
	s.Empty(data)

	modified := time.UnixMilli(1700000000123)
	file := NewFile([]byte(`{"a":1}`), "a.json", "application/json", modified)
	out := s.roundTrip(file).(*File)
	s.Equal("a.json", out.Name)
	s.Equal("application/json", out.Type)
	s.Equal(float64(modified.UnixMilli()), out.LastModified)
	s.True(Equal(file, out))
}

func (s *CodecSuite) TestBlobReadFailure() {
	cause := errors.New("disk gone")
	blob := &Blob{Type: "image/png", Source: BlobSourceFunc(func(context.Context) ([]byte, error) {
		return nil, cause
	})}
	_, err := Compress(s.ctx, NewArray(1, blob))
	s.ErrorIs(err, merr.ErrBlobReadFailed)
	s.Contains(err.Error(), "disk gone")
}

func (s *CodecSuite) TestUnsupported() {
	s.Nil(s.roundTrip(func() {}))
	s.Nil(s.roundTrip(struct{ A int }{1}))

	arr := s.roundTrip(NewArray(make(chan int), "ok")).(*Array)
	s.Equal(2, arr.Len())
	s.Nil(arr.At(0))
	s.Equal("ok", arr.At(1))
}

func (s *CodecSuite) TestNilReferences() {
	var arr *Array
	s.Nil(s.roundTrip(arr))
	var bi *big.Int
	s.Nil(s.roundTrip(bi))
}

func (s *CodecSuite) TestInvalidViews() {
	buf := NewArrayBuffer(8)
	views := []*TypedArray{
		{Type: 40, Buffer: buf},
		{Type: Uint8, Buffer: buf, ByteOffset: -1},
		{Type: Uint8, Buffer: buf, Length: -1},
		{Type: Uint32, Buffer: buf, ByteOffset: 4, Length: 2},
		{Type: Uint16, Buffer: buf, ByteOffset: 1, Length: 1},
		{Type: Float64, Buffer: buf, ByteOffset: 16},
		{Type: Int8, Length: 1},
	}
	for _, view := range views {
		s.Nil(s.roundTrip(view), "%+v", *view)

		out := s.roundTrip(NewArray(view, view, "tail")).(*Array)
		s.Equal(3, out.Len())
		s.Nil(out.At(0))
		s.Nil(out.At(1))
		s.Equal("tail", out.At(2))
	}

	// 合法视图的边界情况仍然保留。
	full := s.roundTrip(&TypedArray{Type: Uint32, Buffer: buf, ByteOffset: 4, Length: 1}).(*TypedArray)
	s.Equal(1, full.Length)
	empty := s.roundTrip(&TypedArray{Type: Float64, Buffer: buf, ByteOffset: 8}).(*TypedArray)
	s.Equal(0, empty.Length)
	s.Equal(8, empty.ByteOffset)
}

func (s *CodecSuite) TestNilReferenceKeys() {
	var obj *Object
	m := NewMap()
	m.Set(nil, 1)
	m.Set(obj, 2)
	s.Equal(1, m.Len())

	out := s.roundTrip(m).(*Map)
	s.Equal(1, out.Len())
	v, ok := out.Get(nil)
	s.True(ok)
	s.Equal(float64(2), v)

	set := NewSet(nil, obj, (*Array)(nil))
	s.Equal(1, set.Len())
	s.Equal(1, s.roundTrip(set).(*Set).Len())
}

func (s *CodecSuite) TestStreamTooLarge() {
	limit := maxStreamSize
	maxStreamSize = 8
	defer func() { maxStreamSize = limit }()

	_, err := Compress(s.ctx, NewArray("0123456789"))
	s.ErrorIs(err, merr.ErrStreamTooLarge)

	data, err := Compress(s.ctx, NewArray(1))
	s.Require().NoError(err)
	s.LessOrEqual(uint64(len(data)), maxStreamSize)
}

func (s *CodecSuite) TestGoldenBytes() {
	cases := []struct {
		v    Value
		want []byte
	}{
		{0, []byte{0x02}},
		{1, []byte{0x03, 0x01}},
		{-1, []byte{0x04, 0x01}},
		{300, []byte{0x03, 0xac, 0x02}},
		{"", []byte{0x01, 0x00}},
		{"hi", []byte{0x01, 0x02, 'h', 'i'}},
		{true, []byte{0x0c}},
		{nil, []byte{0x0f}},
		{Undefined{}, []byte{0x0e}},
		{big.NewInt(256), []byte{0x0a, 0x02, 0x00, 0x01}},
		{big.NewInt(-1), []byte{0x0b, 0x01, 0x01}},
		{new(big.Int), []byte{0x09}},
		{NewArray(1, "a"), []byte{0x20, 0x03, 0x01, 0x01, 0x01, 'a', 0xff}},
		{TypedArrayOf[uint8](1, 2), []byte{0x13, 0x07, 0x00, 0x00, 0x00, 0x00, 0x02, 0x1d, 0x02, 0x01, 0x02}},
	}
	for _, c := range cases {
		data, err := Compress(s.ctx, c.v)
		s.Require().NoError(err)
		s.Equal(c.want, data, "%#v", c.v)
	}

	obj := NewObject()
	obj.Set("a", 1)
	data, err := Compress(s.ctx, obj)
	s.Require().NoError(err)
	s.Equal([]byte{0x21, 0x03, 0x01, 0x01, 'a', 0xff}, data)
}

func (s *CodecSuite) TestEncodeTo() {
	v := NewArray("x", TypedArrayOf[float32](1.5), NewObject())
	want, err := Compress(s.ctx, v)
	s.Require().NoError(err)

	var buf bytes.Buffer
	n, err := CompressTo(s.ctx, &buf, v)
	s.Require().NoError(err)
	s.EqualValues(len(want), n)
	s.Equal(want, buf.Bytes())
}

func (s *CodecSuite) TestDeterministic() {
	shared := TypedArrayOf[int16](-1, 2)
	v := NewArray(shared, shared.Subarray(1, 2), NewSet("a", "b"))
	first, err := Compress(s.ctx, v)
	s.Require().NoError(err)
	second, err := Compress(s.ctx, v)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *CodecSuite) TestMalformed() {
	for _, data := range [][]byte{
		nil,
		{0xee},
		{byte(TagString), 0x05, 'a'},
		{byte(TagArray), byte(TagTrue)},
		{byte(TagRef), 0x00, 0x00, 0x00, 0x00},
		{byte(TagFloat), 0x01},
	} {
		_, err := Decompress(data)
		s.ErrorIs(err, merr.ErrMalformedStream, "% x", data)
	}

	_, err := Decompress([]byte{0xee})
	s.Contains(err.Error(), "unknown tag 0xee")
}

func (s *CodecSuite) TestRecoverDisabled() {
	dec := NewDecoder(WithRecover(false))
	s.Panics(func() {
		dec.Decode(s.ctx, []byte{0xee})
	})
}

func TestCodec(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

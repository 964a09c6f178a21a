package objpack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type GraphSuite struct {
	suite.Suite
}

func (s *GraphSuite) decode(v Value) Value {
	data, err := Compress(context.Background(), v)
	s.Require().NoError(err)
	out, err := Decompress(data)
	s.Require().NoError(err)
	return out
}

func (s *GraphSuite) TestSharedBackingBuffer() {
	a := TypedArrayOf[int8](1, 2, 3, 4, 5, 6, 7, 8)
	b := a.Subarray(2, 4)
	c, err := NewTypedArray(Int32, a.Buffer, 0, 2)
	s.Require().NoError(err)

	out := s.decode(NewArray(a, b, c)).(*Array)
	s.Require().Equal(3, out.Len())
	da := out.At(0).(*TypedArray)
	db := out.At(1).(*TypedArray)
	dc := out.At(2).(*TypedArray)

	s.Same(da.Buffer, db.Buffer)
	s.Same(da.Buffer, dc.Buffer)
	s.Equal(2, db.ByteOffset)
	s.Equal(2, db.Length)
	s.Equal(int64(3), db.Int(0))
	s.Equal(int64(0x04030201), dc.Int(0))

	// 修改共享缓冲区对所有视图可见。
	da.SetInt(2, -100)
	s.Equal(int64(-100), db.Int(0))
}

func (s *GraphSuite) TestSharedBufferStoredOnce() {
	a := TypedArrayOf[uint8](9, 9, 9, 9)
	data, err := Compress(context.Background(), NewArray(a, a.Subarray(1, 3), a.Buffer))
	s.Require().NoError(err)

	records, err := Records(data)
	s.Require().NoError(err)
	buffers := 0
	for _, r := range records {
		if r.Tag == TagArrayBuffer {
			buffers++
		}
	}
	s.Equal(1, buffers)

	out := s.decode(NewArray(a, a.Buffer)).(*Array)
	s.Same(out.At(0).(*TypedArray).Buffer, out.At(1))
}

func (s *GraphSuite) TestSiblingSharing() {
	shared := NewObject()
	shared.Set("k", "v")
	out := s.decode(NewArray(shared, shared, NewObject())).(*Array)
	s.Same(out.At(0), out.At(1))
	s.NotSame(out.At(0), out.At(2))
}

func (s *GraphSuite) TestArrayCycle() {
	a := NewArray(1)
	a.Append(a)
	out := s.decode(a).(*Array)
	s.Equal(float64(1), out.At(0))
	s.Same(out, out.At(1))
}

func (s *GraphSuite) TestObjectCycle() {
	o := NewObject()
	o.Set("a", o)
	o.Set("b", "x")
	out := s.decode(o).(*Object)
	a, ok := out.Get("a")
	s.Require().True(ok)
	s.Same(out, a)
	s.Equal([]string{"a", "b"}, out.Keys())
}

func (s *GraphSuite) TestMapCycle() {
	m := NewMap()
	m.Set(m, m)
	m.Set("self", m)
	out := s.decode(m).(*Map)
	entries := out.Entries()
	s.Require().Len(entries, 2)
	s.Same(out, entries[0].Key)
	s.Same(out, entries[0].Value)
	v, ok := out.Get(out)
	s.True(ok)
	s.Same(out, v)
	v, ok = out.Get("self")
	s.True(ok)
	s.Same(out, v)
}

func (s *GraphSuite) TestSetCycle() {
	set := NewSet()
	set.Add(set)
	set.Add(3)
	out := s.decode(set).(*Set)
	s.Equal(2, out.Len())
	s.True(out.Has(out))
	s.True(out.Has(3))
}

func (s *GraphSuite) TestNestedCycle() {
	parent := NewObject()
	child := NewObject()
	parent.Set("child", child)
	child.Set("parent", parent)
	child.Set("list", NewArray(parent, child))

	out := s.decode(NewArray(child)).(*Array)
	dc := out.At(0).(*Object)
	dp, _ := dc.Get("parent")
	back, _ := dp.(*Object).Get("child")
	s.Same(dc, back)
	list, _ := dc.Get("list")
	s.Same(dp, list.(*Array).At(0))
	s.Same(dc, list.(*Array).At(1))
	s.True(Equal(NewArray(child), out))
}

func (s *GraphSuite) TestDatesAndBlobsKeepIdentity() {
	date := &Date{Millis: 1}
	blob := NewBlob([]byte("b"), "text/plain")
	out := s.decode(NewArray(date, blob, date, blob)).(*Array)
	s.Same(out.At(0), out.At(2))
	s.Same(out.At(1), out.At(3))
}

func (s *GraphSuite) TestPrimitivesNotShared() {
	data, err := Compress(context.Background(), NewArray("same", "same"))
	s.Require().NoError(err)
	s.Equal([]byte{0x20, 0x01, 0x04, 's', 'a', 'm', 'e', 0x01, 0x04, 's', 'a', 'm', 'e', 0xff}, data)
}

func (s *GraphSuite) TestReferenceLayout() {
	shared := NewObject()
	data, err := Compress(context.Background(), NewArray(shared, shared))
	s.Require().NoError(err)
	s.Equal([]byte{
		0x20,
		0x10, 0x0c, 0x00, 0x00, 0x00,
		0x10, 0x0c, 0x00, 0x00, 0x00,
		0xff,
		0x21, 0xff,
	}, data)

	self := NewArray()
	self.Append(self)
	data, err = Compress(context.Background(), self)
	s.Require().NoError(err)
	s.Equal([]byte{0x20, 0x10, 0x00, 0x00, 0x00, 0x00, 0xff}, data)
}

func TestGraph(t *testing.T) {
	suite.Run(t, new(GraphSuite))
}

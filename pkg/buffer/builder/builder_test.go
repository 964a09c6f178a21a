package builder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BuilderSuite struct {
	suite.Suite
}

func (s *BuilderSuite) TestAppendAndBytes() {
	var b Builder
	b.Append([]byte("ab"))
	s.NoError(b.WriteByte('c'))
	_, err := b.Write([]byte("de"))
	s.NoError(err)
	_, err = b.WriteString("f")
	s.NoError(err)
	b.Append(nil)

	s.Equal(6, b.Len())
	s.Equal([]byte("abcdef"), b.Bytes())
	s.Equal("abcdef", b.String())
}

func (s *BuilderSuite) TestAppendRetainsSlice() {
	var b Builder
	b.WriteByte(0x01)
	ptr := make([]byte, 4)
	b.Append(ptr)
	b.WriteByte(0x02)

	ptr[0], ptr[3] = 0xaa, 0xbb
	s.Equal([]byte{0x01, 0xaa, 0x00, 0x00, 0xbb, 0x02}, b.Bytes())
}

func (s *BuilderSuite) TestWriteCopies() {
	var b Builder
	src := []byte("xyz")
	b.Write(src)
	src[0] = 'q'
	s.Equal([]byte("xyz"), b.Bytes())
}

func (s *BuilderSuite) TestReset() {
	b := New(4)
	b.Append([]byte("hello"))
	b.Reset()
	s.Equal(0, b.Len())
	s.Empty(b.Bytes())
	s.GreaterOrEqual(b.Cap(), 4)

	b.WriteByte('z')
	s.Equal([]byte("z"), b.Bytes())
}

func (s *BuilderSuite) TestWriteTo() {
	var b Builder
	b.Append([]byte("ab"))
	b.WriteByte('c')
	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	s.NoError(err)
	s.EqualValues(3, n)
	s.Equal("abc", out.String())
}

func (s *BuilderSuite) TestCompound() {
	first := New(0)
	first.Append([]byte("root"))
	second := New(0)
	second.WriteByte('!')
	empty := New(0)

	c := NewCompound(3)
	s.Equal(0, c.Len())
	c.Append(first)
	s.Equal(4, c.Len())
	c.Append(empty)
	c.Append(second)
	s.Equal(5, c.Len())
	s.Len(c.Builders(), 3)
	s.Equal([]byte("root!"), c.Bytes())

	var out bytes.Buffer
	n, err := c.WriteTo(&out)
	s.NoError(err)
	s.EqualValues(5, n)
	s.Equal("root!", out.String())
}

func TestBuilder(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}

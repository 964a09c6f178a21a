package varint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type VarintSuite struct {
	suite.Suite
}

func (s *VarintSuite) TestRoundTrip() {
	cases := []struct {
		v    uint64
		size int
	}{
		{0, 1},
		{1, 1},
		{127, 1},
		{128, 2},
		{255, 2},
		{16383, 2},
		{16384, 3},
		{65535, 3},
		{1<<53 - 1, 8},
		{math.MaxUint64, MaxLen64},
	}
	for _, c := range cases {
		buf := Encode(c.v)
		s.Len(buf, c.size, "value %d", c.v)
		s.Equal(c.size, Len(c.v))

		v, next := Decode(buf, 0)
		s.Equal(c.v, v)
		s.Equal(c.size, next)
	}
}

func (s *VarintSuite) TestLayout() {
	s.Equal([]byte{0x00}, Encode(0))
	s.Equal([]byte{0x7f}, Encode(127))
	s.Equal([]byte{0x80, 0x01}, Encode(128))
	s.Equal([]byte{0xff, 0x01}, Encode(255))
	s.Equal([]byte{0xff, 0xff, 0x03}, Encode(65535))
}

func (s *VarintSuite) TestDecodeAtOffset() {
	buf := []byte{0xaa, 0xbb}
	buf = Append(buf, 300)
	buf = Append(buf, 5)

	v, next := Decode(buf, 2)
	s.Equal(uint64(300), v)
	s.Equal(4, next)

	v, next = Decode(buf, next)
	s.Equal(uint64(5), v)
	s.Equal(len(buf), next)
}

func (s *VarintSuite) TestDecodeInvalid() {
	s.Panics(func() { Decode([]byte{0x80, 0x80}, 0) })
	s.Panics(func() { Decode([]byte{0x01}, 1) })

	overflow := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}
	s.Panics(func() { Decode(overflow, 0) })
}

func TestVarint(t *testing.T) {
	suite.Run(t, new(VarintSuite))
}

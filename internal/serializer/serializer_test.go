package serializer

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/objpack-go/pkg/objpack"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

type SerializerSuite struct {
	suite.Suite
}

func (s *SerializerSuite) graph() *objpack.Object {
	obj := objpack.NewObject()
	obj.Set("name", "garden")
	obj.Set("tags", objpack.NewArray("a", "b"))
	return obj
}

func (s *SerializerSuite) TestByName() {
	for _, name := range []string{FormatObjpack, FormatJSON, FormatProto} {
		ser, ok := ByName(name)
		s.True(ok, name)
		s.NotNil(ser)
	}
	_, ok := ByName("yaml")
	s.False(ok)
}

func (s *SerializerSuite) TestRoundTrip() {
	for _, name := range []string{FormatObjpack, FormatJSON, FormatProto} {
		ser, _ := ByName(name)
		data, err := ser.Marshal(s.graph())
		s.Require().NoError(err, name)

		var out objpack.Value
		s.Require().NoError(ser.Unmarshal(data, &out), name)
		s.True(objpack.Equal(s.graph(), out), name)
	}
}

func (s *SerializerSuite) TestJSONStructs() {
	type point struct {
		X int `json:"x"`
	}
	data, err := JSONSerializer{}.Marshal(point{X: 3})
	s.Require().NoError(err)
	s.JSONEq(`{"x":3}`, string(data))

	var p point
	s.Require().NoError(JSONSerializer{}.Unmarshal(data, &p))
	s.Equal(3, p.X)
}

func (s *SerializerSuite) TestProtoMessage() {
	msg, err := structpb.NewStruct(map[string]any{"k": "v"})
	s.Require().NoError(err)
	data, err := ProtoSerializer{}.Marshal(msg)
	s.Require().NoError(err)

	got := &structpb.Struct{}
	s.Require().NoError(ProtoSerializer{}.Unmarshal(data, got))
	s.Equal("v", got.GetFields()["k"].GetStringValue())
}

func (s *SerializerSuite) TestInvalidTarget() {
	var target string
	s.ErrorIs(ObjpackSerializer{}.Unmarshal([]byte{0x0f}, &target), merr.ErrParameterInvalid)
	s.ErrorIs(ProtoSerializer{}.Unmarshal(nil, &target), merr.ErrParameterInvalid)
}

func TestSerializer(t *testing.T) {
	suite.Run(t, new(SerializerSuite))
}

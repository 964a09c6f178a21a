package serializer

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/objpack-go/pkg/objpack"
	"github.com/lk2023060901/objpack-go/pkg/protovalue"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

// ProtoSerializer 使用 Protobuf 进行二进制序列化。
//
// 传入 proto.Message 时直接编解码；其余值经 protovalue 转换为
// google.protobuf.Value 后编码，*objpack.Value 作为目标时执行反向转换。
type ProtoSerializer struct{}

// 编译期断言：确保 ProtoSerializer 实现了 Serializer 接口。
var _ Serializer = (*ProtoSerializer)(nil)

func (ProtoSerializer) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return proto.Marshal(msg)
	}
	pv, err := protovalue.ToProto(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pv)
}

func (ProtoSerializer) Unmarshal(data []byte, v any) error {
	switch out := v.(type) {
	case proto.Message:
		return proto.Unmarshal(data, out)
	case *objpack.Value:
		pv := &structpb.Value{}
		if err := proto.Unmarshal(data, pv); err != nil {
			return err
		}
		*out = protovalue.FromProto(pv)
		return nil
	}
	return merr.WrapErrParameterInvalidMsg("ProtoSerializer requires proto.Message or *objpack.Value, got %T", v)
}

package serializer

import (
	"context"

	"github.com/lk2023060901/objpack-go/pkg/objpack"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

// ObjpackSerializer 使用 objpack 二进制格式序列化对象图。
//
// 注意：Unmarshal 的目标必须为 *objpack.Value。
type ObjpackSerializer struct{}

// 编译期断言：确保 ObjpackSerializer 实现了 Serializer 接口。
var _ Serializer = (*ObjpackSerializer)(nil)

func (ObjpackSerializer) Marshal(v any) ([]byte, error) {
	return objpack.Compress(context.Background(), v)
}

func (ObjpackSerializer) Unmarshal(data []byte, v any) error {
	out, ok := v.(*objpack.Value)
	if !ok {
		return merr.WrapErrParameterInvalidMsg("ObjpackSerializer requires *objpack.Value, got %T", v)
	}
	decoded, err := objpack.Decompress(data)
	if err != nil {
		return err
	}
	*out = decoded
	return nil
}

package serializer

import (
	"github.com/lk2023060901/objpack-go/internal/json"
	"github.com/lk2023060901/objpack-go/pkg/jsonvalue"
	"github.com/lk2023060901/objpack-go/pkg/objpack"
)

// JSONSerializer 实现 JSON 编解码。
//
// 目标为 *objpack.Value 时走 jsonvalue 以保留对象键顺序，其余类型交给
// internal/json（基于 bytedance/sonic）。
type JSONSerializer struct{}

// 编译期断言：确保 JSONSerializer 实现了 Serializer 接口。
var _ Serializer = (*JSONSerializer)(nil)

func (JSONSerializer) Marshal(v any) ([]byte, error) {
	if isGraph(v) {
		return jsonvalue.Marshal(v)
	}
	return json.Marshal(v)
}

func (JSONSerializer) Unmarshal(data []byte, v any) error {
	if out, ok := v.(*objpack.Value); ok {
		parsed, err := jsonvalue.Parse(data)
		if err != nil {
			return err
		}
		*out = parsed
		return nil
	}
	return json.Unmarshal(data, v)
}

func isGraph(v any) bool {
	switch v.(type) {
	case *objpack.Array, *objpack.Object, *objpack.Map, *objpack.Set,
		*objpack.Date, *objpack.ArrayBuffer, *objpack.TypedArray, *objpack.Blob, *objpack.File:
		return true
	}
	return false
}

// Package json 封装 bytedance/sonic，作为项目内统一的 JSON 编解码入口。
package json

import (
	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

// Marshal 与 encoding/json.Marshal 行为一致。
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent 与 encoding/json.MarshalIndent 行为一致。
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal 与 encoding/json.Unmarshal 行为一致。
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid 判断 data 是否为合法的 JSON。
func Valid(data []byte) bool {
	return api.Valid(data)
}

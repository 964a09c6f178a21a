package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldOffset 返回记录在字节流中的偏移量字段。
func FieldOffset(offset int) zap.Field {
	return zap.Int("offset", offset)
}

// FieldSize 返回字节流长度字段。
func FieldSize(size int) zap.Field {
	return zap.Int("size", size)
}

// FieldTag 以十六进制输出记录的类型标签。
func FieldTag(tag byte) zap.Field {
	return zap.Stringer("tag", hexByte(tag))
}

type hexByte byte

func (b hexByte) String() string {
	const digits = "0123456789abcdef"
	return string([]byte{'0', 'x', digits[b>>4], digits[b&0x0f]})
}

// FieldObject 返回一个包含可序列化对象的 zap 字段。
func FieldObject(key string, obj zapcore.ObjectMarshaler) zap.Field {
	return zap.Object(key, obj)
}

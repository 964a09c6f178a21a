package serializer

// Serializer 抽象了“对象 <-> 字节流”的序列化能力。
//
// 命令行工具通过它在 objpack 流、JSON 文档与 protobuf 消息之间转换，
// 调用方按格式名选择具体实现。
type Serializer interface {
	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error
}

// 支持的格式名。
const (
	FormatObjpack = "objpack"
	FormatJSON    = "json"
	FormatProto   = "proto"
)

// ByName 按格式名返回对应的 Serializer。
func ByName(name string) (Serializer, bool) {
	switch name {
	case FormatObjpack:
		return ObjpackSerializer{}, true
	case FormatJSON:
		return JSONSerializer{}, true
	case FormatProto:
		return ProtoSerializer{}, true
	}
	return nil, false
}

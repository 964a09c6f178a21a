package objpack

import (
	"fmt"

	"github.com/lk2023060901/objpack-go/pkg/util/typeutil"
)

// Tag 为每条记录的首字节，决定记录的类型与后续布局。
//
// 取值属于线格式的一部分，只允许在末尾追加，不允许调整已有取值。
type Tag byte

const (
	TagString    Tag = 0x01 // varint 长度 + UTF-8 字节
	TagZero      Tag = 0x02 // 数值 0，无负载
	TagPosInt    Tag = 0x03 // varint 绝对值
	TagNegInt    Tag = 0x04 // varint 绝对值
	TagFloat     Tag = 0x05 // 8 字节 IEEE-754 小端
	TagNaN       Tag = 0x06
	TagPosInf    Tag = 0x07
	TagNegInf    Tag = 0x08
	TagBigZero   Tag = 0x09
	TagBigPos    Tag = 0x0a // varint 长度 + 小端绝对值
	TagBigNeg    Tag = 0x0b // varint 长度 + 小端绝对值
	TagTrue      Tag = 0x0c
	TagFalse     Tag = 0x0d
	TagUndefined Tag = 0x0e
	TagNull      Tag = 0x0f
	TagRef       Tag = 0x10 // 4 字节小端绝对偏移
	TagDate      Tag = 0x11 // 8 字节 float64 毫秒时间戳

	// 11 种数值视图，顺序与 ElementType 一致。
	TagInt8Array         Tag = 0x12
	TagUint8Array        Tag = 0x13
	TagUint8ClampedArray Tag = 0x14
	TagInt16Array        Tag = 0x15
	TagUint16Array       Tag = 0x16
	TagInt32Array        Tag = 0x17
	TagUint32Array       Tag = 0x18
	TagFloat32Array      Tag = 0x19
	TagFloat64Array      Tag = 0x1a
	TagBigInt64Array     Tag = 0x1b
	TagBigUint64Array    Tag = 0x1c

	TagArrayBuffer Tag = 0x1d
	TagBlob        Tag = 0x1e
	TagFile        Tag = 0x1f
	TagArray       Tag = 0x20
	TagObject      Tag = 0x21
	TagMap         Tag = 0x22
	TagSet         Tag = 0x23

	// TagUnsupported 标记无法编码的值，解码为 nil。
	TagUnsupported Tag = 0x24

	// TagEnd 为 Array/Object/Map/Set 的结束哨兵。
	TagEnd Tag = 0xff
)

var tagNames = map[Tag]string{
	TagString:            "string",
	TagZero:              "zero",
	TagPosInt:            "pos_int",
	TagNegInt:            "neg_int",
	TagFloat:             "float",
	TagNaN:               "nan",
	TagPosInf:            "pos_inf",
	TagNegInf:            "neg_inf",
	TagBigZero:           "bigint_zero",
	TagBigPos:            "bigint_pos",
	TagBigNeg:            "bigint_neg",
	TagTrue:              "true",
	TagFalse:             "false",
	TagUndefined:         "undefined",
	TagNull:              "null",
	TagRef:               "ref",
	TagDate:              "date",
	TagInt8Array:         "int8_array",
	TagUint8Array:        "uint8_array",
	TagUint8ClampedArray: "uint8_clamped_array",
	TagInt16Array:        "int16_array",
	TagUint16Array:       "uint16_array",
	TagInt32Array:        "int32_array",
	TagUint32Array:       "uint32_array",
	TagFloat32Array:      "float32_array",
	TagFloat64Array:      "float64_array",
	TagBigInt64Array:     "bigint64_array",
	TagBigUint64Array:    "biguint64_array",
	TagArrayBuffer:       "array_buffer",
	TagBlob:              "blob",
	TagFile:              "file",
	TagArray:             "array",
	TagObject:            "object",
	TagMap:               "map",
	TagSet:               "set",
	TagUnsupported:       "unsupported",
	TagEnd:               "end",
}

// containerTags 为以 TagEnd 结束的开放式记录。
var containerTags = typeutil.NewSet(TagArray, TagObject, TagMap, TagSet)

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(0x%02x)", byte(t))
}

// Valid 判断 t 是否为已定义的标签。
func (t Tag) Valid() bool {
	_, ok := tagNames[t]
	return ok
}

// IsContainer 判断 t 是否为以 TagEnd 结束的容器记录。
func (t Tag) IsContainer() bool {
	return containerTags.Contain(t)
}

// IsTypedArray 判断 t 是否为数值视图记录。
func (t Tag) IsTypedArray() bool {
	return t >= TagInt8Array && t <= TagBigUint64Array
}

// ElementType 返回数值视图标签对应的元素类型，t 必须满足 IsTypedArray。
func (t Tag) ElementType() ElementType {
	return ElementType(t - TagInt8Array)
}

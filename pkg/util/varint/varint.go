// Package varint 实现了 objpack 使用的变长无符号整数编码。
//
// 编码规则：
//   - 以 7 bit 为一组，低位组在前；
//   - 除最后一个字节外，每个字节的最高位（0x80）均置 1，表示后续还有数据；
//   - 0 编码为单个 0x00 字节。
//
// 该布局与 encoding/binary 的 Uvarint 一致，这里只做偏移量形式的封装。
package varint

import (
	"encoding/binary"
	"fmt"
)

// MaxLen64 为 uint64 编码后可能占用的最大字节数。
const MaxLen64 = binary.MaxVarintLen64

// Len 返回 v 编码后占用的字节数。
func Len(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// Append 将 v 的编码追加到 dst 末尾并返回新的切片。
func Append(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// Encode 返回 v 的编码结果。
func Encode(v uint64) []byte {
	return Append(make([]byte, 0, Len(v)), v)
}

// Decode 从 buf[offset:] 读取一个变长整数。
//
// 返回解码得到的值以及紧随其后的偏移量。调用方需保证输入完整，
// 截断或溢出的输入会直接 panic（与解码器“信任输入”的约定一致）。
func Decode(buf []byte, offset int) (uint64, int) {
	v, n := binary.Uvarint(buf[offset:])
	if n <= 0 {
		panic(fmt.Sprintf("varint: invalid encoding at offset %d", offset))
	}
	return v, offset + n
}

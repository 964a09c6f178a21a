// Package objpack 将可能带环、带共享引用的对象图编码为紧凑的自描述字节流，
// 并从字节流还原出结构、身份共享与环完全一致的对象图。
//
// 字节流没有头部与版本号，根记录位于偏移 0。指针类型的值（*Array、*Object、
// *Map、*Set、*Date、*ArrayBuffer、*TypedArray、*Blob、*File）按指针身份去重，
// 同一个指针无论出现多少次都只编码一次，其余出现位置写入 4 字节绝对偏移。
package objpack

import (
	"context"
	"math"
	"time"
)

// Value 为可编码的值。
//
// 编码器接受 string、bool、nil、各类整数与浮点数、*big.Int、Undefined
// 以及本包定义的指针类型，其余类型编码为不支持标签并解码为 nil。
// 解码器总是产出规范类型：数值为 float64，大整数为 *big.Int。
type Value = any

// Undefined 表示缺失值，与 nil（null）区分。
type Undefined struct{}

// Date 为毫秒精度的时间戳，Millis 允许为 NaN（无效时间）。
type Date struct {
	Millis float64
}

// NewDate 以 t 的毫秒时间戳创建 Date。
func NewDate(t time.Time) *Date {
	return &Date{Millis: float64(t.UnixMilli())}
}

// Time 返回对应的 time.Time，无效时间返回零值。
func (d *Date) Time() time.Time {
	if math.IsNaN(d.Millis) || math.IsInf(d.Millis, 0) {
		return time.Time{}
	}
	return time.UnixMilli(int64(d.Millis))
}

// Valid 判断时间戳是否有效。
func (d *Date) Valid() bool {
	return !math.IsNaN(d.Millis) && !math.IsInf(d.Millis, 0)
}

// ArrayBuffer 为原始字节缓冲区，可被多个 TypedArray 共享。
type ArrayBuffer struct {
	Data []byte
}

// NewArrayBuffer 创建长度为 n 的零值缓冲区。
func NewArrayBuffer(n int) *ArrayBuffer {
	return &ArrayBuffer{Data: make([]byte, n)}
}

// ByteLength 返回缓冲区字节数。
func (b *ArrayBuffer) ByteLength() int {
	return len(b.Data)
}

// BlobSource 提供 Blob 的负载，编码时才会读取。
type BlobSource interface {
	Bytes(ctx context.Context) ([]byte, error)
}

// Bytes 为内存中的 BlobSource，解码得到的 Blob 总是携带该类型。
type Bytes []byte

func (b Bytes) Bytes(context.Context) ([]byte, error) {
	return b, nil
}

// BlobSourceFunc 将函数适配为 BlobSource。
type BlobSourceFunc func(ctx context.Context) ([]byte, error)

func (f BlobSourceFunc) Bytes(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Blob 为带媒体类型的二进制负载。
type Blob struct {
	Type   string
	Source BlobSource
}

// NewBlob 创建一个内存 Blob。
func NewBlob(data []byte, mediaType string) *Blob {
	return &Blob{Type: mediaType, Source: Bytes(data)}
}

func (b *Blob) read(ctx context.Context) ([]byte, error) {
	if b.Source == nil {
		return nil, nil
	}
	return b.Source.Bytes(ctx)
}

// File 为带文件名与修改时间的 Blob。
type File struct {
	Blob
	Name string
	// LastModified 为毫秒时间戳。
	LastModified float64
}

// NewFile 创建一个内存 File。
func NewFile(data []byte, name, mediaType string, modified time.Time) *File {
	return &File{
		Blob:         Blob{Type: mediaType, Source: Bytes(data)},
		Name:         name,
		LastModified: float64(modified.UnixMilli()),
	}
}

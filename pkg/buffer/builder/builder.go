// Package builder 实现了两级可增长的字节序列构造器。
//
//   - Builder：以 chunk 为单位累积字节，追加时不拷贝，只在 Bytes/WriteTo 时一次性拷贝；
//   - Compound：累积多个 Builder，最终一次遍历拼接为连续字节。
//
// 通过 Append 追加的切片会被原样持有，调用方可以在追加之后继续修改该切片的内容
// （编码器依赖这一点在最终拼接前回填 4 字节指针占位符）。
package builder

import (
	"io"
)

// minOwnedChunk 为 Builder 自有 chunk 的最小容量，用于合并小块写入。
const minOwnedChunk = 64

// Builder 为只追加的扁平字节构造器。
//
// 零值可直接使用；非并发安全。
type Builder struct {
	chunks [][]byte
	length int
	// owned 表示最后一个 chunk 归 Builder 所有，可以原地继续追加。
	owned bool
}

// New 创建一个预留 n 个 chunk 槽位的 Builder。
func New(n int) *Builder {
	if n < 0 {
		n = 0
	}
	return &Builder{chunks: make([][]byte, 0, n)}
}

// Append 追加 p，但不拷贝其内容。
//
// 在 Bytes/WriteTo 之前对 p 的修改会反映到最终结果中。
func (b *Builder) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.chunks = append(b.chunks, p)
	b.length += len(p)
	b.owned = false
}

// Write 拷贝 p 的内容后追加，实现 io.Writer。
func (b *Builder) Write(p []byte) (int, error) {
	b.copyIn(p)
	return len(p), nil
}

// WriteString 拷贝 s 的内容后追加。
func (b *Builder) WriteString(s string) (int, error) {
	b.copyIn([]byte(s))
	return len(s), nil
}

// WriteByte 追加单个字节，实现 io.ByteWriter。
func (b *Builder) WriteByte(c byte) error {
	if b.owned {
		last := len(b.chunks) - 1
		b.chunks[last] = append(b.chunks[last], c)
		b.length++
		return nil
	}
	chunk := make([]byte, 1, minOwnedChunk)
	chunk[0] = c
	b.chunks = append(b.chunks, chunk)
	b.length++
	b.owned = true
	return nil
}

func (b *Builder) copyIn(p []byte) {
	if len(p) == 0 {
		return
	}
	if b.owned {
		last := len(b.chunks) - 1
		b.chunks[last] = append(b.chunks[last], p...)
		b.length += len(p)
		return
	}
	chunk := make([]byte, 0, max(len(p), minOwnedChunk))
	chunk = append(chunk, p...)
	b.chunks = append(b.chunks, chunk)
	b.length += len(p)
	b.owned = true
}

// Len 返回已累积的字节总数。
func (b *Builder) Len() int {
	return b.length
}

// Cap 返回 chunk 槽位容量，供对象池校准使用。
func (b *Builder) Cap() int {
	return cap(b.chunks)
}

// AppendTo 将全部内容追加到 dst 并返回新的切片。
func (b *Builder) AppendTo(dst []byte) []byte {
	for _, chunk := range b.chunks {
		dst = append(dst, chunk...)
	}
	return dst
}

// Bytes 返回全部内容的连续拷贝。
func (b *Builder) Bytes() []byte {
	return b.AppendTo(make([]byte, 0, b.length))
}

// String 返回全部内容的字符串形式。
func (b *Builder) String() string {
	return string(b.Bytes())
}

// WriteTo 将全部内容依次写入 w，实现 io.WriterTo。
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, chunk := range b.chunks {
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Reset 清空内容，保留 chunk 槽位容量以便复用。
func (b *Builder) Reset() {
	clear(b.chunks)
	b.chunks = b.chunks[:0]
	b.length = 0
	b.owned = false
}

// Compound 按顺序累积多个 Builder，最终一次性拼接。
type Compound struct {
	builders []*Builder
	length   int
}

// NewCompound 创建一个预留 n 个槽位的 Compound。
func NewCompound(n int) *Compound {
	if n < 0 {
		n = 0
	}
	return &Compound{builders: make([]*Builder, 0, n)}
}

// Append 追加一个 Builder。
//
// 长度在追加时即被累计，之后不应再向该 Builder 写入数据。
func (c *Compound) Append(b *Builder) {
	c.builders = append(c.builders, b)
	c.length += b.Len()
}

// Len 返回已累积的字节总数，即下一个追加的 Builder 的起始偏移。
func (c *Compound) Len() int {
	return c.length
}

// Bytes 返回所有 Builder 内容的连续拷贝。
func (c *Compound) Bytes() []byte {
	out := make([]byte, 0, c.length)
	for _, b := range c.builders {
		out = b.AppendTo(out)
	}
	return out
}

// WriteTo 将所有 Builder 的内容依次写入 w。
func (c *Compound) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, b := range c.builders {
		n, err := b.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Builders 返回已追加的 Builder 列表。
func (c *Compound) Builders() []*Builder {
	return c.builders
}

package objpack

import (
	"fmt"
	"strings"

	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

// Record 描述字节流中的一条顶层记录。
//
// 字节流由根记录与按发现顺序拼接的子记录组成，每条顶层记录都可以被指针引用。
type Record struct {
	Offset int
	Tag    Tag
	Size   int
}

func (r Record) String() string {
	return fmt.Sprintf("%08x %-20s %d", r.Offset, r.Tag, r.Size)
}

// Scan 按顺序遍历 data 中的顶层记录，fn 返回 false 时停止。
func Scan(data []byte, fn func(Record) bool) (err error) {
	st := &decodeState{data: data}
	defer func() {
		if r := recover(); r != nil {
			err = merr.WrapErrMalformedStream(st.pos, r)
		}
	}()
	for off := 0; off < len(data); {
		end := st.skip(off)
		if !fn(Record{Offset: off, Tag: Tag(data[off]), Size: end - off}) {
			return nil
		}
		off = end
	}
	return nil
}

// Records 返回 data 中全部顶层记录。
func Records(data []byte) ([]Record, error) {
	var records []Record
	err := Scan(data, func(r Record) bool {
		records = append(records, r)
		return true
	})
	return records, err
}

// Dump 以文本形式列出 data 中的顶层记录，每行依次为偏移、标签与长度。
func Dump(data []byte) (string, error) {
	var sb strings.Builder
	err := Scan(data, func(r Record) bool {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
		return true
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// skip 返回 off 处记录之后的偏移，不构造任何值。
func (st *decodeState) skip(off int) int {
	st.pos = off
	tag := Tag(st.data[off])
	if tag.IsTypedArray() {
		_, p := st.varint(off + 1 + ptrSize)
		_, p = st.varint(p)
		return p
	}
	switch tag {
	case TagZero, TagNaN, TagPosInf, TagNegInf, TagBigZero,
		TagTrue, TagFalse, TagUndefined, TagNull, TagUnsupported:
		return off + 1
	case TagPosInt, TagNegInt:
		_, p := st.varint(off + 1)
		return p
	case TagString, TagBigPos, TagBigNeg, TagArrayBuffer:
		_, p := st.bytes(off + 1)
		return p
	case TagFloat, TagDate:
		return off + 9
	case TagRef:
		return off + 1 + ptrSize
	case TagBlob:
		_, p := st.bytes(off + 1)
		_, p = st.bytes(p)
		return p
	case TagFile:
		_, p := st.bytes(off + 1)
		_, p = st.bytes(p + 8)
		_, p = st.bytes(p)
		return p
	case TagArray, TagSet, TagMap:
		p := off + 1
		for Tag(st.data[p]) != TagEnd {
			p = st.skip(p)
		}
		return p + 1
	case TagObject:
		p := off + 1
		for Tag(st.data[p]) != TagEnd {
			p = st.skip(p)
			_, p = st.bytes(p)
		}
		return p + 1
	}
	panic(fmt.Sprintf("unknown tag 0x%02x", byte(tag)))
}

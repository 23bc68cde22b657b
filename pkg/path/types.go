package path

import (
	"fmt"
	"strings"
)

// Separator 规范化路径的段分隔符
const Separator = "."

// Segment 表示路径的一个片段
type Segment struct {
	Type  SegmentType
	Field string // 字段名，括号语法时可包含字面量 "."
}

type SegmentType int

const (
	SegmentTypeDot     SegmentType = iota // a.b 形式
	SegmentTypeBracket                    // [a][b] 形式
)

func (t SegmentType) String() string {
	switch t {
	case SegmentTypeDot:
		return "dot"
	case SegmentTypeBracket:
		return "bracket"
	default:
		return fmt.Sprintf("SegmentType(%d)", int(t))
	}
}

// Path 表示解析后的完整字段路径
type Path struct {
	Segments []*Segment
}

// String 返回规范化形式，段之间用 "." 连接，可直接作为目标字段名
func (p *Path) String() string {
	return strings.Join(p.Fields(), Separator)
}

// Fields 返回各段的字段名
func (p *Path) Fields() []string {
	fields := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		fields[i] = seg.Field
	}
	return fields
}

// Bracket 返回源方言的括号形式，如 [a][b.c]
func (p *Path) Bracket() string {
	var sb strings.Builder
	for _, seg := range p.Segments {
		sb.WriteByte('[')
		sb.WriteString(seg.Field)
		sb.WriteByte(']')
	}
	return sb.String()
}

// HasLiteralDot 是否存在包含字面量 "." 的段
func (p *Path) HasLiteralDot() bool {
	for _, seg := range p.Segments {
		if strings.Contains(seg.Field, Separator) {
			return true
		}
	}
	return false
}

// Equal 按段比较。[a][b.c] 与 a.b.c 的 String() 相同，但不是同一路径
func (p *Path) Equal(other *Path) bool {
	if other == nil || len(p.Segments) != len(other.Segments) {
		return false
	}
	for i, seg := range p.Segments {
		if seg.Field != other.Segments[i].Field {
			return false
		}
	}
	return true
}

// MalformedFieldPathError 字段引用无法解析
type MalformedFieldPathError struct {
	Input  string
	Offset int
	Reason string
}

func (e *MalformedFieldPathError) Error() string {
	return fmt.Sprintf("malformed field path %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

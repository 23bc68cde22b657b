package path

import (
	"strings"
)

// Parse 解析字段引用
// 支持语法：
//   - field
//   - nested.field
//   - [field]
//   - [nested][field]
//   - [a][b.c]   (括号内的 "." 是字段名的一部分)
//   - a[b].c     (混合形式)
func Parse(ref string) (*Path, error) {
	if ref == "" {
		return nil, malformed(ref, 0, "empty field reference")
	}

	var segments []*Segment
	var current strings.Builder
	afterBracket := false

	flush := func() {
		segments = append(segments, &Segment{Type: SegmentTypeDot, Field: current.String()})
		current.Reset()
	}

	for i := 0; i < len(ref); i++ {
		ch := ref[i]
		switch ch {
		case '[':
			if current.Len() > 0 {
				flush()
			}

			end := findClosingBracket(ref, i+1)
			if end == -1 {
				return nil, malformed(ref, i, "unterminated bracket")
			}
			field := ref[i+1 : end]
			if nested := strings.IndexByte(field, '['); nested >= 0 {
				return nil, malformed(ref, i+1+nested, "nested bracket")
			}
			if field == "" {
				return nil, malformed(ref, i, "empty segment")
			}
			segments = append(segments, &Segment{Type: SegmentTypeBracket, Field: field})

			i = end
			afterBracket = true
			// ] 之后只能接 [、. 或结束
			if i+1 < len(ref) && ref[i+1] != '[' && ref[i+1] != '.' {
				return nil, malformed(ref, i+1, "unexpected character after ']'")
			}

		case ']':
			return nil, malformed(ref, i, "unmatched ']'")

		case '.':
			if current.Len() == 0 && !afterBracket {
				return nil, malformed(ref, i, "empty segment")
			}
			if current.Len() > 0 {
				flush()
			}
			if i == len(ref)-1 {
				return nil, malformed(ref, i, "empty segment")
			}
			afterBracket = false

		default:
			current.WriteByte(ch)
			afterBracket = false
		}
	}

	if current.Len() > 0 {
		flush()
	}

	return &Path{Segments: segments}, nil
}

// Normalize 返回字段引用的规范化形式
func Normalize(ref string) (string, error) {
	p, err := Parse(ref)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// findClosingBracket 查找配对的 ]，未找到返回 -1
func findClosingBracket(s string, start int) int {
	for i := start; i < len(s); i++ {
		if s[i] == ']' {
			return i
		}
	}
	return -1
}

func malformed(ref string, offset int, reason string) *MalformedFieldPathError {
	return &MalformedFieldPathError{Input: ref, Offset: offset, Reason: reason}
}

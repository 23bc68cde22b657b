package path

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		fields []string
		types  []SegmentType
	}{
		{"bare", "field", []string{"field"}, []SegmentType{SegmentTypeDot}},
		{"dotted", "nested.field", []string{"nested", "field"}, []SegmentType{SegmentTypeDot, SegmentTypeDot}},
		{"bracket", "[field]", []string{"field"}, []SegmentType{SegmentTypeBracket}},
		{"nested bracket", "[nested][field]", []string{"nested", "field"}, []SegmentType{SegmentTypeBracket, SegmentTypeBracket}},
		{"literal dot", "[a][b.c]", []string{"a", "b.c"}, []SegmentType{SegmentTypeBracket, SegmentTypeBracket}},
		{"mixed prefix", "a[b]", []string{"a", "b"}, []SegmentType{SegmentTypeDot, SegmentTypeBracket}},
		{"mixed suffix", "[a].b", []string{"a", "b"}, []SegmentType{SegmentTypeBracket, SegmentTypeDot}},
		{"dot before bracket", "a.[b.c]", []string{"a", "b.c"}, []SegmentType{SegmentTypeDot, SegmentTypeBracket}},
		{"metadata", "[@metadata][target]", []string{"@metadata", "target"}, []SegmentType{SegmentTypeBracket, SegmentTypeBracket}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.fields, p.Fields())

			types := make([]SegmentType, len(p.Segments))
			for i, seg := range p.Segments {
				types[i] = seg.Type
			}
			assert.Equal(t, tt.types, types)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		ref    string
		offset int
		reason string
	}{
		{"", 0, "empty field reference"},
		{"[a", 0, "unterminated bracket"},
		{"[a][b", 3, "unterminated bracket"},
		{"a]", 1, "unmatched ']'"},
		{"[]", 0, "empty segment"},
		{"a..b", 2, "empty segment"},
		{".a", 0, "empty segment"},
		{"a.", 1, "empty segment"},
		{"[a].", 3, "empty segment"},
		{"[a[b]]", 2, "nested bracket"},
		{"[a]b", 3, "unexpected character after ']'"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			_, err := Parse(tt.ref)
			require.Error(t, err)

			var mErr *MalformedFieldPathError
			require.True(t, errors.As(err, &mErr), "error %T is not *MalformedFieldPathError", err)
			assert.Equal(t, tt.ref, mErr.Input)
			assert.Equal(t, tt.offset, mErr.Offset)
			assert.Equal(t, tt.reason, mErr.Reason)
		})
	}
}

func TestNormalize_DotAndBracketFormsAgree(t *testing.T) {
	pairs := [][2]string{
		{"field", "[field]"},
		{"a.b", "[a][b]"},
		{"a.b.c", "[a][b][c]"},
		{"a.b.c", "a[b][c]"},
		{"@metadata.x", "[@metadata][x]"},
	}

	for _, pair := range pairs {
		dot, err := Normalize(pair[0])
		require.NoError(t, err)
		bracket, err := Normalize(pair[1])
		require.NoError(t, err)
		assert.Equal(t, dot, bracket, "%s vs %s", pair[0], pair[1])
	}
}

func TestPath_LiteralDotSegmentIsKept(t *testing.T) {
	bracket, err := Parse("[a][b.c]")
	require.NoError(t, err)
	dotted, err := Parse("a.b.c")
	require.NoError(t, err)

	assert.Equal(t, "a.b.c", bracket.String())
	assert.Equal(t, "a.b.c", dotted.String())

	assert.Len(t, bracket.Segments, 2)
	assert.Equal(t, "b.c", bracket.Segments[1].Field)
	assert.Len(t, dotted.Segments, 3)

	assert.True(t, bracket.HasLiteralDot())
	assert.False(t, dotted.HasLiteralDot())
	assert.False(t, bracket.Equal(dotted))
}

func TestPath_Bracket(t *testing.T) {
	p, err := Parse("a.b[c.d]")
	require.NoError(t, err)
	assert.Equal(t, "[a][b][c.d]", p.Bracket())

	again, err := Parse(p.Bracket())
	require.NoError(t, err)
	assert.True(t, p.Equal(again))
}

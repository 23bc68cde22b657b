package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glesirok/filterconv/pkg/attr"
	"github.com/glesirok/filterconv/pkg/engine"
)

func renderJSON(t *testing.T, doc *Document) string {
	t.Helper()
	out, err := Render(doc, FormatJSON, 0)
	require.NoError(t, err)
	return string(out)
}

// 对应 Append / DotsInAppendField / AppendScalar 三组样例
func TestConvert_AppendFixtures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Append",
			src:  `mutate { append => { "field" => "value" } }`,
			want: `{"processors":[{"append":{"field":"field","value":["value"]}}]}` + "\n",
		},
		{
			name: "DotsInAppendField bracket form",
			src:  `mutate { append => { "[foo][bar.baz]" => ["value1", "value2"] } }`,
			want: `{"processors":[{"append":{"field":"foo.bar.baz","value":["value1","value2"]}}]}` + "\n",
		},
		{
			name: "DotsInAppendField dot form",
			src:  `mutate { append => { "foo.bar.baz" => ["value1", "value2"] } }`,
			want: `{"processors":[{"append":{"field":"foo.bar.baz","value":["value1","value2"]}}]}` + "\n",
		},
		{
			name: "AppendScalar",
			src:  `mutate { append => { "field" => 1 } }`,
			want: `{"processors":[{"append":{"field":"field","value":["1"]}}]}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Convert(tt.src, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, renderJSON(t, doc))
		})
	}
}

func TestConvert_ScalarAndListRenderIdentically(t *testing.T) {
	scalar, err := Convert(`mutate { append => { "field" => "value" } }`, Options{})
	require.NoError(t, err)
	list, err := Convert(`mutate { append => { "field" => ["value"] } }`, Options{})
	require.NoError(t, err)

	assert.Equal(t, renderJSON(t, list), renderJSON(t, scalar))
}

func TestConvert_FullFilter(t *testing.T) {
	src := `
filter {
  grok {
    match => { "message" => "%{IP:client} (?<verb>\w+)" }
  }
  date {
    match => ["timestamp", "dd/MMM/yyyy:HH:mm:ss Z"]
    target => "@timestamp"
  }
  mutate {
    rename => { "[client]" => "[source][ip]" }
    remove_field => "timestamp"
  }
}`
	doc, err := Convert(src, Options{Description: "access logs"})
	require.NoError(t, err)
	require.Equal(t, 4, doc.Len())

	want := `{"description":"access logs","processors":[` +
		`{"grok":{"field":"message","patterns":["%{IP:client} (?<verb>\\w+)"]}},` +
		`{"date":{"field":"timestamp","target_field":"@timestamp","formats":["dd/MMM/yyyy:HH:mm:ss Z"]}},` +
		`{"rename":{"field":"client","target_field":"source.ip"}},` +
		`{"remove":{"field":"timestamp"}}` +
		`]}` + "\n"
	assert.Equal(t, want, renderJSON(t, doc))
}

func TestConvert_Errors(t *testing.T) {
	doc, err := Convert("mutate { lowercase => \"a\" }\nkv { }", Options{})
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.Contains(t, err.Error(), "processor 1 (kv)")

	var uErr *engine.UnsupportedProcessorError
	assert.True(t, errors.As(err, &uErr))

	doc, err = Convert(`mutate { append => { "field" => "value" }`, Options{})
	require.Error(t, err)
	assert.Nil(t, doc)

	var bErr *attr.UnterminatedBlockError
	assert.True(t, errors.As(err, &bErr))
}

func TestConvertBlock(t *testing.T) {
	specs, err := ConvertBlock(`mutate { split => { "tags" => "," } }`)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, engine.KindSplit, specs[0].Kind)

	_, err = ConvertBlock(`mutate { split => "tags" }`)
	var tErr *attr.TypeMismatchError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "split", tErr.Key)
}

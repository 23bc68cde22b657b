package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glesirok/filterconv/pkg/attr"
	"github.com/glesirok/filterconv/pkg/engine"
)

func mustBlock(t *testing.T, src string) *attr.Block {
	t.Helper()
	block, err := attr.ParseBlock(src)
	require.NoError(t, err)
	return block
}

func TestAssembler_PreservesOrder(t *testing.T) {
	asm := NewAssembler(nil)
	require.NoError(t, asm.AddBlock(mustBlock(t, `mutate { lowercase => ["b", "a"] }`)))
	asm.Append(engine.NewSpec(engine.KindRemove, engine.Attr{Name: "field", Value: "z"}))
	require.NoError(t, asm.AddBlock(mustBlock(t, `mutate { uppercase => "c" }`)))

	doc := asm.Finalize()
	require.Equal(t, 4, doc.Len())

	var fields []string
	for _, spec := range doc.Processors() {
		fields = append(fields, spec.Field())
	}
	assert.Equal(t, []string{"b", "a", "z", "c"}, fields)
}

func TestAssembler_FailedBlockLeavesSequenceUntouched(t *testing.T) {
	asm := NewAssembler(nil)
	require.NoError(t, asm.AddBlock(mustBlock(t, `mutate { lowercase => "a" }`)))
	require.Equal(t, 1, asm.Len())

	err := asm.AddBlock(mustBlock(t, `kv { source => "message" }`))
	var uErr *engine.UnsupportedProcessorError
	require.True(t, errors.As(err, &uErr))
	assert.Equal(t, 1, asm.Len())

	// 前半部分合法、后半部分失败的块同样不留下任何输出
	err = asm.AddBlock(mustBlock(t, `mutate { lowercase => "b" convert => { "n" => "bogus" } }`))
	require.Error(t, err)
	assert.Equal(t, 1, asm.Len())
}

func TestAssembler_UseAfterFinalizePanics(t *testing.T) {
	asm := NewAssembler(nil)
	asm.Finalize()

	assert.Panics(t, func() { asm.Append() })
	assert.Panics(t, func() { _ = asm.AddBlock(mustBlock(t, `mutate { lowercase => "a" }`)) })
	assert.Panics(t, func() { asm.Finalize() })
	assert.Panics(t, func() { asm.WithDescription("x") })
}

func TestDocument_ProcessorsIsACopy(t *testing.T) {
	asm := NewAssembler(nil)
	require.NoError(t, asm.AddBlock(mustBlock(t, `mutate { lowercase => ["a", "b"] }`)))
	doc := asm.Finalize()

	procs := doc.Processors()
	procs[0] = nil
	assert.NotNil(t, doc.Processors()[0])
}

package pipeline

import (
	"github.com/glesirok/filterconv/pkg/attr"
	"github.com/glesirok/filterconv/pkg/engine"
)

// Document 翻译完成的目标流水线，Finalize 之后只读
type Document struct {
	Description string
	processors  []*engine.ProcessorSpec
}

// Processors 返回处理器序列的副本
func (d *Document) Processors() []*engine.ProcessorSpec {
	out := make([]*engine.ProcessorSpec, len(d.processors))
	copy(out, d.processors)
	return out
}

// Len 处理器数量
func (d *Document) Len() int {
	return len(d.processors)
}

// Assembler 按源文件声明顺序收集处理器，不重排、不去重、不合并
type Assembler struct {
	engine      *engine.Engine
	description string
	specs       []*engine.ProcessorSpec
	finalized   bool
}

func NewAssembler(e *engine.Engine) *Assembler {
	if e == nil {
		e = engine.NewEngine()
	}
	return &Assembler{engine: e}
}

// WithDescription 设置文档描述
func (a *Assembler) WithDescription(description string) *Assembler {
	a.mustBeOpen()
	a.description = description
	return a
}

// Append 追加已翻译的处理器
func (a *Assembler) Append(specs ...*engine.ProcessorSpec) {
	a.mustBeOpen()
	a.specs = append(a.specs, specs...)
}

// AddBlock 翻译并追加一个块。失败时序列保持不变
func (a *Assembler) AddBlock(block *attr.Block) error {
	a.mustBeOpen()

	specs, err := a.engine.TranslateBlock(block)
	if err != nil {
		return err
	}
	a.specs = append(a.specs, specs...)
	return nil
}

// Len 当前处理器数量
func (a *Assembler) Len() int {
	return len(a.specs)
}

// Finalize 冻结序列并交给调用方。之后不能再修改
func (a *Assembler) Finalize() *Document {
	a.mustBeOpen()
	a.finalized = true

	return &Document{
		Description: a.description,
		processors:  a.specs,
	}
}

// mustBeOpen Finalize 之后的修改属于编程错误
func (a *Assembler) mustBeOpen() {
	if a.finalized {
		panic("pipeline: assembler used after Finalize")
	}
}

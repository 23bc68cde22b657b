package pipeline

import (
	"fmt"

	"github.com/glesirok/filterconv/pkg/attr"
	"github.com/glesirok/filterconv/pkg/engine"
)

// Options 转换选项
type Options struct {
	Description string
	Engine      *engine.Engine // 为空时使用默认注册表
}

// Convert 解析并翻译整个 filter 配置
// 任一块失败即中止，不返回部分文档
func Convert(src string, opts Options) (*Document, error) {
	blocks, err := attr.ParseFilter(src)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}

	asm := NewAssembler(opts.Engine).WithDescription(opts.Description)
	for i, block := range blocks {
		if err := asm.AddBlock(block); err != nil {
			return nil, fmt.Errorf("processor %d (%s): %w", i, block.Name, err)
		}
	}

	return asm.Finalize(), nil
}

// ConvertBlock 翻译单个处理器定义块
func ConvertBlock(src string) ([]*engine.ProcessorSpec, error) {
	block, err := attr.ParseBlock(src)
	if err != nil {
		return nil, fmt.Errorf("parse block: %w", err)
	}

	specs, err := engine.NewEngine().TranslateBlock(block)
	if err != nil {
		return nil, fmt.Errorf("processor %s: %w", block.Name, err)
	}
	return specs, nil
}

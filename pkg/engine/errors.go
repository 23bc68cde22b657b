package engine

import (
	"errors"
	"fmt"

	"github.com/glesirok/filterconv/pkg/attr"
)

// UnsupportedProcessorError 未注册的处理器或选项
type UnsupportedProcessorError struct {
	Name   string
	Option string // 为空表示整个处理器不支持
}

func (e *UnsupportedProcessorError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("unsupported option %q for processor %q", e.Option, e.Name)
	}
	return fmt.Sprintf("unsupported processor %q", e.Name)
}

// InvalidTypeTagError convert 的目标类型不在支持列表中
type InvalidTypeTagError struct {
	Field string
	Value string
}

func (e *InvalidTypeTagError) Error() string {
	return fmt.Sprintf("invalid type %q for field %q", e.Value, e.Field)
}

// MissingAttributeError 缺少必需的选项
type MissingAttributeError struct {
	Processor string
	Name      string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("processor %q requires option %q", e.Processor, e.Name)
}

// InvalidPatternError 正则或 grok 模式无法编译
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// withKey 为形状错误补充选项名
func withKey(err error, key string) error {
	var tErr *attr.TypeMismatchError
	if errors.As(err, &tErr) && tErr.Key == "" {
		tErr.Key = key
	}
	return err
}

package attr

import "fmt"

// SyntaxError 处理器定义块语法错误
type SyntaxError struct {
	Offset   int
	Line     int
	Column   int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d (offset %d): expected %s, found %s",
		e.Line, e.Column, e.Offset, e.Expected, e.Found)
}

// UnterminatedBlockError 输入结束时仍有未闭合的 { 或 [
// Offset/Line/Column 指向未闭合的开始符号
type UnterminatedBlockError struct {
	Offset    int
	Line      int
	Column    int
	Delimiter byte
}

func (e *UnterminatedBlockError) Error() string {
	return fmt.Sprintf("unterminated block: %q opened at line %d, column %d (offset %d) is never closed",
		string(e.Delimiter), e.Line, e.Column, e.Offset)
}

// TypeMismatchError 属性值的形状与期望不符
type TypeMismatchError struct {
	Key      string // 可为空
	Expected string
	Got      string
	Offset   int
}

func (e *TypeMismatchError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("type mismatch for %q: expected %s, got %s", e.Key, e.Expected, e.Got)
	}
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// position 将字节偏移换算为行列号（均从 1 开始）
func position(src string, offset int) (line, column int) {
	line, column = 1, 1
	if offset > len(src) {
		offset = len(src)
	}
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

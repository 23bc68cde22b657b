package engine

import (
	"github.com/dlclark/regexp2"
)

var (
	// grokReference 匹配 %{NAME}、%{NAME:field}、%{NAME:field:type}
	grokReference = regexp2.MustCompile(`%\{\w+(?::[^:}]+)?(?::\w+)?\}`, regexp2.None)

	// backReference 匹配 \1 形式的反向引用
	backReference = regexp2.MustCompile(`\\(\d)`, regexp2.None)
)

// validateRegex 校验正则语法，支持命名分组、环视等 Oniguruma / Java 常用语法
func validateRegex(pattern string) error {
	if _, err := regexp2.Compile(pattern, regexp2.None); err != nil {
		return &InvalidPatternError{Pattern: pattern, Err: err}
	}
	return nil
}

// validateGrok 将 %{...} 引用替换为占位分组后校验剩余正则
func validateGrok(pattern string) error {
	expanded, err := grokReference.Replace(pattern, "(?:x)", -1, -1)
	if err != nil {
		return &InvalidPatternError{Pattern: pattern, Err: err}
	}
	if _, err := regexp2.Compile(expanded, regexp2.None); err != nil {
		return &InvalidPatternError{Pattern: pattern, Err: err}
	}
	return nil
}

// rewriteBackrefs 将替换串中的 \1 改写为目标方言的 $1
func rewriteBackrefs(replacement string) (string, error) {
	out, err := backReference.Replace(replacement, "$$$1", -1, -1)
	if err != nil {
		return "", &InvalidPatternError{Pattern: replacement, Err: err}
	}
	return out, nil
}

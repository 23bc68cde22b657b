package attr

import (
	"fmt"
	"strings"

	"github.com/glesirok/filterconv/pkg/path"
)

// filterSection 配置文件中可选的外层 filter { ... }
const filterSection = "filter"

// ParseBlock 解析单个处理器定义块
// 例如：mutate { append => { "field" => "value" } }
func ParseBlock(src string) (*Block, error) {
	p := &parser{src: src}
	p.skipSpace()
	if p.eof() {
		return nil, p.syntaxError("processor name")
	}

	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.eof() {
		return nil, p.syntaxError("end of input")
	}
	return block, nil
}

// ParseFilter 解析一组处理器定义块，按声明顺序返回
// 支持裸块序列，也支持一个或多个 filter { ... } 外层
func ParseFilter(src string) ([]*Block, error) {
	p := &parser{src: src}
	var blocks []*Block

	for {
		p.skipSpace()
		if p.eof() {
			return blocks, nil
		}

		if p.peekWord() == filterSection {
			p.pos += len(filterSection)
			p.skipSpace()
			if p.peek() != '{' {
				return nil, p.syntaxError(`"{"`)
			}
			inner, err := p.parseSection()
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, inner...)
			continue
		}

		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
}

type parser struct {
	src   string
	pos   int
	opens []int // 尚未闭合的 { 或 [ 的位置，由外到内
}

// enter 记录一个打开的定界符，返回的函数在闭合后调用
func (p *parser) enter(open int) func() {
	p.opens = append(p.opens, open)
	return func() { p.opens = p.opens[:len(p.opens)-1] }
}

// endOfInput 输入在定界符内结束时报告最内层未闭合的定界符
func (p *parser) endOfInput(expected string, offset int) error {
	if n := len(p.opens); n > 0 {
		return p.unterminated(p.opens[n-1])
	}
	return p.syntaxErrorAt(offset, expected, "end of input")
}

// parseSection 解析 filter { block* }，当前字符为 {
func (p *parser) parseSection() ([]*Block, error) {
	open := p.pos
	p.pos++
	defer p.enter(open)()

	var blocks []*Block
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.unterminated(open)
		}
		if p.peek() == '}' {
			p.pos++
			return blocks, nil
		}
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
}

// parseBlock 解析 name { body }
func (p *parser) parseBlock() (*Block, error) {
	start := p.pos
	if !isBarewordStart(p.peek()) {
		return nil, p.syntaxError("processor name")
	}
	name := p.readBareword()

	p.skipSpace()
	if p.eof() || p.peek() != '{' {
		return nil, p.syntaxError(`"{"`)
	}

	body, err := p.parseMapping()
	if err != nil {
		return nil, err
	}

	return &Block{Name: name, Body: body, Offset: start}, nil
}

// parseMapping 解析 { key => value ... }，当前字符为 {
func (p *parser) parseMapping() (*Node, error) {
	open := p.pos
	p.pos++
	defer p.enter(open)()

	node := &Node{Kind: KindMapping, Offset: open}
	seen := make(map[string]bool)

	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.unterminated(open)
		}
		if p.peek() == '}' {
			p.pos++
			return node, nil
		}

		keyOffset := p.pos
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		if seen[key] {
			return nil, p.syntaxErrorAt(keyOffset, "unique key", fmt.Sprintf("duplicate key %q", key))
		}
		seen[key] = true

		p.skipSpace()
		if p.eof() {
			return nil, p.unterminated(open)
		}
		if !strings.HasPrefix(p.src[p.pos:], "=>") {
			return nil, p.syntaxError(`"=>"`)
		}
		p.pos += 2

		p.skipSpace()
		if p.eof() {
			return nil, p.unterminated(open)
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		node.Entries = append(node.Entries, &Entry{Key: key, KeyOffset: keyOffset, Value: value})

		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
		}
	}
}

// parseSequence 解析 [v, v, ...]，当前字符为 [
func (p *parser) parseSequence() (*Node, error) {
	open := p.pos
	p.pos++
	defer p.enter(open)()

	node := &Node{Kind: KindSequence, Offset: open}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.unterminated(open)
		}
		if p.peek() == ']' {
			p.pos++
			return node, nil
		}

		if len(node.Items) > 0 {
			if p.peek() != ',' {
				return nil, p.syntaxError(`"," or "]"`)
			}
			p.pos++
			p.skipSpace()
			if p.eof() {
				return nil, p.unterminated(open)
			}
			// 允许末尾逗号
			if p.peek() == ']' {
				p.pos++
				return node, nil
			}
		}

		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		node.Items = append(node.Items, item)
	}
}

func (p *parser) parseValue() (*Node, error) {
	start := p.pos
	c := p.peek()

	switch {
	case c == '{':
		return p.parseMapping()
	case c == '[':
		return p.parseSequence()
	case c == '"' || c == '\'':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindScalar, Value: s, Quoted: true, Offset: start}, nil
	case isDigit(c) || c == '-':
		num, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindScalar, Value: num, Offset: start}, nil
	case isBarewordStart(c):
		return &Node{Kind: KindScalar, Value: p.readBareword(), Offset: start}, nil
	default:
		return nil, p.syntaxError("value")
	}
}

// parseKey 键可以是字符串、裸词、数字或字段选择器 [a][b]
func (p *parser) parseKey() (string, error) {
	c := p.peek()
	switch {
	case c == '"' || c == '\'':
		return p.parseString()
	case c == '[':
		return p.parseSelector()
	case isBarewordChar(c):
		start := p.pos
		for !p.eof() && isBarewordChar(p.peek()) {
			p.pos++
		}
		return p.src[start:p.pos], nil
	default:
		return "", p.syntaxError("key")
	}
}

// parseSelector 读取连续的 [..] 组，并用字段路径解析器校验
func (p *parser) parseSelector() (string, error) {
	start := p.pos
	for p.peek() == '[' {
		end := strings.IndexAny(p.src[p.pos:], "]\n")
		if end == -1 {
			return "", p.endOfInput(`"]"`, start)
		}
		if p.src[p.pos+end] != ']' {
			p.pos = start
			return "", p.syntaxErrorAt(start, `"]"`, "unterminated field reference")
		}
		p.pos += end + 1
	}

	ref := p.src[start:p.pos]
	if _, err := path.Parse(ref); err != nil {
		line, column := position(p.src, start)
		return "", fmt.Errorf("field reference at line %d, column %d: %w", line, column, err)
	}
	return ref, nil
}

// parseString 解析单引号或双引号字符串
// 只处理 \\ \" \' \n \t \r，其它转义原样保留（如正则中的 \d）
func (p *parser) parseString() (string, error) {
	start := p.pos
	quote := p.src[p.pos]
	p.pos++

	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.endOfInput(fmt.Sprintf("closing %q", string(quote)), start)
		}
		ch := p.src[p.pos]
		switch {
		case ch == quote:
			p.pos++
			return sb.String(), nil
		case ch == '\\' && p.pos+1 < len(p.src):
			next := p.src[p.pos+1]
			switch next {
			case '\\', '"', '\'':
				sb.WriteByte(next)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			p.pos += 2
		default:
			sb.WriteByte(ch)
			p.pos++
		}
	}
}

// parseNumber 数字按原文保留，不解释精度
func (p *parser) parseNumber() (string, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	if !isDigit(p.peek()) {
		return "", p.syntaxError("digit")
	}
	for isDigit(p.peek()) {
		p.pos++
	}
	if p.peek() == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) {
		p.pos++
		for isDigit(p.peek()) {
			p.pos++
		}
	}
	if isBarewordChar(p.peek()) {
		return "", p.syntaxError("end of number")
	}
	return p.src[start:p.pos], nil
}

func (p *parser) readBareword() string {
	start := p.pos
	for !p.eof() && isBarewordChar(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// peekWord 返回当前位置的裸词，不移动位置
func (p *parser) peekWord() string {
	end := p.pos
	for end < len(p.src) && isBarewordChar(p.src[end]) {
		end++
	}
	return p.src[p.pos:end]
}

// skipSpace 跳过空白和 # 注释
func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		case '#':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

// peek 返回当前字符，结束时返回 0
func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) syntaxError(expected string) error {
	if p.eof() {
		return p.endOfInput(expected, p.pos)
	}
	return p.syntaxErrorAt(p.pos, expected, fmt.Sprintf("%q", string(p.src[p.pos])))
}

func (p *parser) syntaxErrorAt(offset int, expected, found string) *SyntaxError {
	line, column := position(p.src, offset)
	return &SyntaxError{
		Offset:   offset,
		Line:     line,
		Column:   column,
		Expected: expected,
		Found:    found,
	}
}

func (p *parser) unterminated(open int) *UnterminatedBlockError {
	line, column := position(p.src, open)
	return &UnterminatedBlockError{
		Offset:    open,
		Line:      line,
		Column:    column,
		Delimiter: p.src[open],
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isBarewordStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '@'
}

func isBarewordChar(c byte) bool {
	return isBarewordStart(c) || isDigit(c) || c == '.' || c == '-'
}

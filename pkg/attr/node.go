package attr

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind 属性节点类型
type Kind int

const (
	KindScalar   Kind = iota // 字符串、裸词或数字
	KindSequence             // [a, b, c]
	KindMapping              // { k => v }
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node 属性树节点。Mapping 的 Entries 保持源文件中的声明顺序
type Node struct {
	Kind    Kind
	Value   string   // Scalar
	Quoted  bool     // Scalar 是否带引号
	Items   []*Node  // Sequence
	Entries []*Entry // Mapping
	Offset  int      // 源文本中的字节偏移
}

// Entry 表示 Mapping 中的一个键值对
type Entry struct {
	Key       string
	KeyOffset int
	Value     *Node
}

// Block 表示一个处理器定义块，如 mutate { ... }
type Block struct {
	Name   string
	Body   *Node
	Offset int
}

// Scalar 创建标量节点
func Scalar(value string) *Node {
	return &Node{Kind: KindScalar, Value: value, Quoted: true}
}

// Sequence 创建列表节点
func Sequence(items ...*Node) *Node {
	return &Node{Kind: KindSequence, Items: items}
}

// Mapping 创建映射节点。键重复时 panic
func Mapping(entries ...*Entry) *Node {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Key] {
			panic(fmt.Sprintf("attr: duplicate mapping key %q", e.Key))
		}
		seen[e.Key] = true
	}
	return &Node{Kind: KindMapping, Entries: entries}
}

// Pair 创建键值对
func Pair(key string, value *Node) *Entry {
	return &Entry{Key: key, Value: value}
}

// Get 查找 Mapping 中的键
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != KindMapping {
		return nil, false
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys 按声明顺序返回 Mapping 的键
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	keys := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		keys[i] = e.Key
	}
	return keys
}

// String 以源方言语法输出节点
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	switch n.Kind {
	case KindScalar:
		if n.Quoted {
			sb.WriteString(strconv.Quote(n.Value))
		} else {
			sb.WriteString(n.Value)
		}
	case KindSequence:
		sb.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.write(sb)
		}
		sb.WriteByte(']')
	case KindMapping:
		sb.WriteString("{ ")
		for _, e := range n.Entries {
			sb.WriteString(strconv.Quote(e.Key))
			sb.WriteString(" => ")
			e.Value.write(sb)
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
	}
}

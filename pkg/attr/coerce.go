package attr

import "fmt"

// 所有翻译器共享的形状转换规则：
//   - 期望列表时，标量视为单元素列表，映射报 TypeMismatchError
//   - 期望标量时，接受单元素列表
//   - 期望映射时，接受偶数长度的标量列表（键值交替）

// AsList 将节点转换为列表
func AsList(n *Node) ([]*Node, error) {
	switch n.Kind {
	case KindScalar:
		return []*Node{n}, nil
	case KindSequence:
		return n.Items, nil
	default:
		return nil, mismatch(n, "scalar-or-list", n.Kind.String())
	}
}

// AsStrings 将节点转换为字符串列表，每个元素必须是标量
func AsStrings(n *Node) ([]string, error) {
	items, err := AsList(n)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		if item.Kind != KindScalar {
			return nil, mismatch(item, "scalar", item.Kind.String())
		}
		values = append(values, item.Value)
	}
	return values, nil
}

// AsScalar 返回标量值，单元素列表也可以
func AsScalar(n *Node) (string, error) {
	switch n.Kind {
	case KindScalar:
		return n.Value, nil
	case KindSequence:
		if len(n.Items) == 1 && n.Items[0].Kind == KindScalar {
			return n.Items[0].Value, nil
		}
		return "", mismatch(n, "scalar", fmt.Sprintf("sequence of %d values", len(n.Items)))
	default:
		return "", mismatch(n, "scalar", n.Kind.String())
	}
}

// AsMapping 返回映射的键值对
// 偶数长度的标量列表按 [k1, v1, k2, v2] 解释
func AsMapping(n *Node) ([]*Entry, error) {
	switch n.Kind {
	case KindMapping:
		return n.Entries, nil
	case KindSequence:
		if len(n.Items)%2 != 0 {
			return nil, mismatch(n, "mapping", fmt.Sprintf("sequence of %d values", len(n.Items)))
		}
		entries := make([]*Entry, 0, len(n.Items)/2)
		seen := make(map[string]bool, len(n.Items)/2)
		for i := 0; i < len(n.Items); i += 2 {
			key := n.Items[i]
			if key.Kind != KindScalar {
				return nil, mismatch(key, "scalar key", key.Kind.String())
			}
			if seen[key.Value] {
				return nil, mismatch(key, "unique key", fmt.Sprintf("duplicate key %q", key.Value))
			}
			seen[key.Value] = true
			entries = append(entries, &Entry{Key: key.Value, KeyOffset: key.Offset, Value: n.Items[i+1]})
		}
		return entries, nil
	default:
		return nil, mismatch(n, "mapping", n.Kind.String())
	}
}

// AsBool 解析 true / false
func AsBool(n *Node) (bool, error) {
	v, err := AsScalar(n)
	if err != nil {
		return false, err
	}
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, mismatch(n, "boolean", fmt.Sprintf("%q", v))
	}
}

func mismatch(n *Node, expected, got string) *TypeMismatchError {
	return &TypeMismatchError{Expected: expected, Got: got, Offset: n.Offset}
}

package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iancoleman/orderedmap"
	"gopkg.in/yaml.v3"

	"github.com/glesirok/filterconv/pkg/engine"
)

// Format 输出格式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat 解析输出格式名
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// Render 按格式序列化文档
func Render(doc *Document, format Format, indent int) ([]byte, error) {
	switch format {
	case FormatJSON:
		raw, err := doc.MarshalJSON()
		if err != nil {
			return nil, err
		}
		var out bytes.Buffer
		if indent > 0 {
			err = json.Indent(&out, raw, "", strings.Repeat(" ", indent))
		} else {
			err = json.Compact(&out, raw)
		}
		if err != nil {
			return nil, fmt.Errorf("format json: %w", err)
		}
		out.WriteByte('\n')
		return out.Bytes(), nil

	case FormatYAML:
		if indent <= 0 {
			indent = 2
		}
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(indent)
		if err := encoder.Encode(doc); err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// MarshalJSON 输出 {"description": ..., "processors": [{kind: {...}}]}，保持属性顺序
func (d *Document) MarshalJSON() ([]byte, error) {
	root := newObject()
	if d.Description != "" {
		root.Set("description", d.Description)
	}

	processors, err := jsonProcessors(d.processors)
	if err != nil {
		return nil, err
	}
	root.Set("processors", processors)
	return root.MarshalJSON()
}

// newObject 有序对象，不转义 <>&，grok 命名分组 (?<name>) 保持原样
func newObject() *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.SetEscapeHTML(false)
	return o
}

func jsonProcessors(specs []*engine.ProcessorSpec) ([]*orderedmap.OrderedMap, error) {
	list := make([]*orderedmap.OrderedMap, 0, len(specs))
	for _, spec := range specs {
		attrs, err := jsonAttrs(spec.Attrs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Kind, err)
		}
		item := newObject()
		item.Set(string(spec.Kind), attrs)
		list = append(list, item)
	}
	return list, nil
}

func jsonAttrs(attrs engine.Attributes) (*orderedmap.OrderedMap, error) {
	obj := newObject()
	for _, a := range attrs {
		value, err := jsonValue(a.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		obj.Set(a.Name, value)
	}
	return obj, nil
}

func jsonValue(v any) (any, error) {
	switch val := v.(type) {
	case string, bool:
		return val, nil
	case []string:
		if val == nil {
			return []string{}, nil
		}
		return val, nil
	case engine.Attributes:
		return jsonAttrs(val)
	case []*engine.ProcessorSpec:
		return jsonProcessors(val)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// MarshalYAML 构造有序的 yaml.Node
func (d *Document) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	if d.Description != "" {
		root.Content = append(root.Content, yamlString("description"), yamlString(d.Description))
	}

	processors, err := yamlProcessors(d.processors)
	if err != nil {
		return nil, err
	}
	root.Content = append(root.Content, yamlString("processors"), processors)
	return root, nil
}

func yamlProcessors(specs []*engine.ProcessorSpec) (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, spec := range specs {
		attrs, err := yamlAttrs(spec.Attrs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Kind, err)
		}
		item := &yaml.Node{Kind: yaml.MappingNode}
		item.Content = append(item.Content, yamlString(string(spec.Kind)), attrs)
		seq.Content = append(seq.Content, item)
	}
	return seq, nil
}

func yamlAttrs(attrs engine.Attributes) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, a := range attrs {
		value, err := yamlValue(a.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		node.Content = append(node.Content, yamlString(a.Name), value)
	}
	return node, nil
}

func yamlValue(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case string:
		return yamlString(val), nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(val)}, nil
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, s := range val {
			seq.Content = append(seq.Content, yamlString(s))
		}
		return seq, nil
	case engine.Attributes:
		return yamlAttrs(val)
	case []*engine.ProcessorSpec:
		return yamlProcessors(val)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func yamlString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glesirok/filterconv/pkg/attr"
	"github.com/glesirok/filterconv/pkg/path"
)

// translateFunc 将一个处理器定义块翻译为目标处理器序列
type translateFunc func(body *attr.Node) ([]*ProcessorSpec, error)

// translators 处理器注册表。新增处理器类型只需在此登记
var translators = map[string]translateFunc{
	"mutate": translateMutate,
	"date":   translateDate,
	"grok":   translateGrok,
	"json":   translateJSON,
	"geoip":  translateGeoIP,
}

// Engine 执行处理器翻译，无内部可变状态，可并发使用
type Engine struct {
	translators map[string]translateFunc
}

func NewEngine() *Engine {
	return &Engine{
		translators: translators,
	}
}

// Translate 按处理器名分发到对应的翻译器
// 失败时不返回任何部分结果
func (e *Engine) Translate(name string, body *attr.Node) ([]*ProcessorSpec, error) {
	translate, ok := e.translators[name]
	if !ok {
		return nil, &UnsupportedProcessorError{Name: name}
	}

	if body == nil || body.Kind != attr.KindMapping {
		got := "nothing"
		if body != nil {
			got = body.Kind.String()
		}
		return nil, &attr.TypeMismatchError{Key: name, Expected: "mapping", Got: got}
	}

	specs, err := translate(body)
	if err != nil {
		return nil, err
	}
	return specs, nil
}

// TranslateBlock 翻译已解析的块
func (e *Engine) TranslateBlock(block *attr.Block) ([]*ProcessorSpec, error) {
	return e.Translate(block.Name, block.Body)
}

// Supports 是否支持该处理器
func (e *Engine) Supports(name string) bool {
	_, ok := e.translators[name]
	return ok
}

// Processors 返回已注册的处理器名
func (e *Engine) Processors() []string {
	names := make([]string, 0, len(e.translators))
	for name := range e.translators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// commonOptions 所有插件共有的选项
type commonOptions struct {
	id          string
	addField    *attr.Node
	removeField *attr.Node
	addTag      *attr.Node
}

// collect 识别公共选项，返回 false 表示不是公共选项
func (c *commonOptions) collect(e *attr.Entry) (bool, error) {
	switch e.Key {
	case "id":
		id, err := attr.AsScalar(e.Value)
		if err != nil {
			return true, withKey(err, e.Key)
		}
		c.id = id
	case "add_field":
		c.addField = e.Value
	case "remove_field":
		c.removeField = e.Value
	case "add_tag":
		c.addTag = e.Value
	case "enable_metric", "periodic_flush":
		// 仅影响运行时指标，目标方言无对应项
	default:
		return false, nil
	}
	return true, nil
}

// finish 追加公共选项产生的处理器（顺序同成功后的执行顺序：add_field、remove_field、add_tag），并打上 tag
func (c *commonOptions) finish(specs []*ProcessorSpec) ([]*ProcessorSpec, error) {
	if c.addField != nil {
		extra, err := translateAddField(c.addField)
		if err != nil {
			return nil, withKey(err, "add_field")
		}
		specs = append(specs, extra...)
	}
	if c.removeField != nil {
		extra, err := translateRemoveField(c.removeField)
		if err != nil {
			return nil, withKey(err, "remove_field")
		}
		specs = append(specs, extra...)
	}
	if c.addTag != nil {
		extra, err := translateAddTag(c.addTag)
		if err != nil {
			return nil, withKey(err, "add_tag")
		}
		specs = append(specs, extra...)
	}
	return c.tag(specs), nil
}

func (c *commonOptions) tag(specs []*ProcessorSpec) []*ProcessorSpec {
	if c.id == "" {
		return specs
	}
	for _, spec := range specs {
		spec.Attrs.Set("tag", c.id)
	}
	return specs
}

// pluginOptions 拆分插件自有选项与公共选项，未知选项报错
func pluginOptions(plugin string, body *attr.Node, known ...string) (map[string]*attr.Node, *commonOptions, error) {
	opts := make(map[string]*attr.Node, len(body.Entries))
	common := &commonOptions{}

	for _, e := range body.Entries {
		if contains(known, e.Key) {
			opts[e.Key] = e.Value
			continue
		}
		ok, err := common.collect(e)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, &UnsupportedProcessorError{Name: plugin, Option: e.Key}
		}
	}
	return opts, common, nil
}

// field 规范化字段引用
func field(ref string) (string, error) {
	return path.Normalize(ref)
}

// fieldOption 读取字段类型的选项
func fieldOption(n *attr.Node, key string) (string, error) {
	ref, err := attr.AsScalar(n)
	if err != nil {
		return "", withKey(err, key)
	}
	return field(ref)
}

// sprintf 将 %{[a][b]} 引用改写为目标方言的 {{a.b}}
// %{+FORMAT} 日期引用与未闭合的 %{ 原样保留
func sprintf(value string) (string, error) {
	if !strings.Contains(value, "%{") {
		return value, nil
	}

	var sb strings.Builder
	rest := value
	for {
		start := strings.Index(rest, "%{")
		if start == -1 {
			sb.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end == -1 {
			sb.WriteString(rest)
			break
		}
		end += start

		sb.WriteString(rest[:start])
		ref := rest[start+2 : end]
		if strings.HasPrefix(ref, "+") {
			sb.WriteString(rest[start : end+1])
		} else {
			canonical, err := field(ref)
			if err != nil {
				return "", fmt.Errorf("reference in %q: %w", value, err)
			}
			sb.WriteString("{{")
			sb.WriteString(canonical)
			sb.WriteString("}}")
		}
		rest = rest[end+1:]
	}
	return sb.String(), nil
}

func sprintfAll(values []string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		s, err := sprintf(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

package engine

// Kind 目标处理器类型
type Kind string

const (
	KindAppend    Kind = "append"
	KindConvert   Kind = "convert"
	KindDate      Kind = "date"
	KindGrok      Kind = "grok"
	KindGsub      Kind = "gsub"
	KindLowercase Kind = "lowercase"
	KindUppercase Kind = "uppercase"
	KindTrim      Kind = "trim"
	KindRemove    Kind = "remove"
	KindRename    Kind = "rename"
	KindSplit     Kind = "split"
	KindJoin      Kind = "join"
	KindSet       Kind = "set"
	KindJSON      Kind = "json"
	KindGeoIP     Kind = "geoip"
)

// Attr 目标处理器的一个属性
// Value 只能是 string、bool、[]string、Attributes 或 []*ProcessorSpec
type Attr struct {
	Name  string
	Value any
}

// Attributes 有序属性表，输出时保持插入顺序
type Attributes []Attr

// Set 设置属性，已存在时原位替换
func (a *Attributes) Set(name string, value any) {
	for i := range *a {
		if (*a)[i].Name == name {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attr{Name: name, Value: value})
}

// Get 查找属性
func (a Attributes) Get(name string) (any, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return nil, false
}

// Names 按顺序返回属性名
func (a Attributes) Names() []string {
	names := make([]string, len(a))
	for i, attr := range a {
		names[i] = attr.Name
	}
	return names
}

// ProcessorSpec 一次翻译产生的目标处理器
type ProcessorSpec struct {
	Kind  Kind
	Attrs Attributes
}

// NewSpec 创建处理器
func NewSpec(kind Kind, attrs ...Attr) *ProcessorSpec {
	return &ProcessorSpec{Kind: kind, Attrs: attrs}
}

// Field 返回 field 属性
func (s *ProcessorSpec) Field() string {
	v, _ := s.Attrs.Get("field")
	field, _ := v.(string)
	return field
}

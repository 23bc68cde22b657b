package engine

import (
	"fmt"

	"github.com/glesirok/filterconv/pkg/attr"
)

// mutateOp 翻译 mutate 的一个操作
type mutateOp func(value *attr.Node) ([]*ProcessorSpec, error)

// mutateOps mutate 支持的操作
var mutateOps = map[string]mutateOp{
	"append":       translateAppend,
	"convert":      translateConvert,
	"gsub":         translateGsub,
	"lowercase":    perField(KindLowercase),
	"uppercase":    perField(KindUppercase),
	"strip":        perField(KindTrim),
	"remove_field": translateRemoveField,
	"rename":       translateRename,
	"split":        separatorOp(KindSplit),
	"join":         separatorOp(KindJoin),
	"replace":      translateReplace,
	"add_field":    translateAddField,
	"add_tag":      translateAddTag,
}

// convertTypes convert 可接受的目标类型
var convertTypes = map[string]bool{
	"integer": true,
	"long":    true,
	"float":   true,
	"double":  true,
	"string":  true,
	"boolean": true,
	"auto":    true,
	"ip":      true,
}

// translateMutate 按声明顺序翻译 mutate 的每个操作
func translateMutate(body *attr.Node) ([]*ProcessorSpec, error) {
	var specs []*ProcessorSpec
	common := &commonOptions{}

	for _, e := range body.Entries {
		op, ok := mutateOps[e.Key]
		if !ok {
			isCommon, err := common.collect(e)
			if err != nil {
				return nil, err
			}
			if !isCommon {
				return nil, &UnsupportedProcessorError{Name: "mutate", Option: e.Key}
			}
			continue
		}

		out, err := op(e.Value)
		if err != nil {
			return nil, withKey(err, e.Key)
		}
		specs = append(specs, out...)
	}

	return common.tag(specs), nil
}

// translateAppend { "field" => "value" } 或 { "field" => ["a", "b"] }，每个字段一个处理器
func translateAppend(value *attr.Node) ([]*ProcessorSpec, error) {
	entries, err := attr.AsMapping(value)
	if err != nil {
		return nil, err
	}

	specs := make([]*ProcessorSpec, 0, len(entries))
	for _, e := range entries {
		f, err := field(e.Key)
		if err != nil {
			return nil, err
		}
		values, err := attr.AsStrings(e.Value)
		if err != nil {
			return nil, err
		}
		values, err = sprintfAll(values)
		if err != nil {
			return nil, err
		}
		specs = append(specs, NewSpec(KindAppend,
			Attr{Name: "field", Value: f},
			Attr{Name: "value", Value: values},
		))
	}
	return specs, nil
}

func translateConvert(value *attr.Node) ([]*ProcessorSpec, error) {
	entries, err := attr.AsMapping(value)
	if err != nil {
		return nil, err
	}

	specs := make([]*ProcessorSpec, 0, len(entries))
	for _, e := range entries {
		f, err := field(e.Key)
		if err != nil {
			return nil, err
		}
		typ, err := attr.AsScalar(e.Value)
		if err != nil {
			return nil, err
		}
		if !convertTypes[typ] {
			return nil, &InvalidTypeTagError{Field: f, Value: typ}
		}
		specs = append(specs, NewSpec(KindConvert,
			Attr{Name: "field", Value: f},
			Attr{Name: "type", Value: typ},
		))
	}
	return specs, nil
}

// translateGsub [field, pattern, replacement, ...] 每三个一组
func translateGsub(value *attr.Node) ([]*ProcessorSpec, error) {
	values, err := attr.AsStrings(value)
	if err != nil {
		return nil, err
	}
	if len(values)%3 != 0 {
		return nil, &attr.TypeMismatchError{
			Expected: "field/pattern/replacement triples",
			Got:      fmt.Sprintf("sequence of %d values", len(values)),
			Offset:   value.Offset,
		}
	}

	specs := make([]*ProcessorSpec, 0, len(values)/3)
	for i := 0; i < len(values); i += 3 {
		f, err := field(values[i])
		if err != nil {
			return nil, err
		}
		if err := validateRegex(values[i+1]); err != nil {
			return nil, err
		}
		replacement, err := rewriteBackrefs(values[i+2])
		if err != nil {
			return nil, err
		}
		specs = append(specs, NewSpec(KindGsub,
			Attr{Name: "field", Value: f},
			Attr{Name: "pattern", Value: values[i+1]},
			Attr{Name: "replacement", Value: replacement},
		))
	}
	return specs, nil
}

// perField 字段列表，每个字段一个处理器
func perField(kind Kind) mutateOp {
	return func(value *attr.Node) ([]*ProcessorSpec, error) {
		refs, err := attr.AsStrings(value)
		if err != nil {
			return nil, err
		}

		specs := make([]*ProcessorSpec, 0, len(refs))
		for _, ref := range refs {
			f, err := field(ref)
			if err != nil {
				return nil, err
			}
			specs = append(specs, NewSpec(kind, Attr{Name: "field", Value: f}))
		}
		return specs, nil
	}
}

func translateRemoveField(value *attr.Node) ([]*ProcessorSpec, error) {
	return perField(KindRemove)(value)
}

// translateRename { "old" => "new" }
func translateRename(value *attr.Node) ([]*ProcessorSpec, error) {
	entries, err := attr.AsMapping(value)
	if err != nil {
		return nil, err
	}

	specs := make([]*ProcessorSpec, 0, len(entries))
	for _, e := range entries {
		from, err := field(e.Key)
		if err != nil {
			return nil, err
		}
		to, err := fieldOption(e.Value, e.Key)
		if err != nil {
			return nil, err
		}
		specs = append(specs, NewSpec(KindRename,
			Attr{Name: "field", Value: from},
			Attr{Name: "target_field", Value: to},
		))
	}
	return specs, nil
}

// separatorOp { "field" => "," }，用于 split / join
func separatorOp(kind Kind) mutateOp {
	return func(value *attr.Node) ([]*ProcessorSpec, error) {
		entries, err := attr.AsMapping(value)
		if err != nil {
			return nil, err
		}

		specs := make([]*ProcessorSpec, 0, len(entries))
		for _, e := range entries {
			f, err := field(e.Key)
			if err != nil {
				return nil, err
			}
			sep, err := attr.AsScalar(e.Value)
			if err != nil {
				return nil, err
			}
			specs = append(specs, NewSpec(kind,
				Attr{Name: "field", Value: f},
				Attr{Name: "separator", Value: sep},
			))
		}
		return specs, nil
	}
}

// translateReplace 覆盖字段值，对应 set
func translateReplace(value *attr.Node) ([]*ProcessorSpec, error) {
	entries, err := attr.AsMapping(value)
	if err != nil {
		return nil, err
	}

	specs := make([]*ProcessorSpec, 0, len(entries))
	for _, e := range entries {
		f, err := field(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := attr.AsScalar(e.Value)
		if err != nil {
			return nil, err
		}
		v, err = sprintf(v)
		if err != nil {
			return nil, err
		}
		specs = append(specs, NewSpec(KindSet,
			Attr{Name: "field", Value: f},
			Attr{Name: "value", Value: v},
		))
	}
	return specs, nil
}

// translateAddField 单个值对应 set，多个值对应 append
func translateAddField(value *attr.Node) ([]*ProcessorSpec, error) {
	entries, err := attr.AsMapping(value)
	if err != nil {
		return nil, err
	}

	specs := make([]*ProcessorSpec, 0, len(entries))
	for _, e := range entries {
		// 字段名同样可以引用其它字段，如 "%{type}_id"
		name, err := sprintf(e.Key)
		if err != nil {
			return nil, err
		}
		f, err := field(name)
		if err != nil {
			return nil, err
		}
		values, err := attr.AsStrings(e.Value)
		if err != nil {
			return nil, err
		}
		values, err = sprintfAll(values)
		if err != nil {
			return nil, err
		}

		if len(values) == 1 {
			specs = append(specs, NewSpec(KindSet,
				Attr{Name: "field", Value: f},
				Attr{Name: "value", Value: values[0]},
			))
			continue
		}
		specs = append(specs, NewSpec(KindAppend,
			Attr{Name: "field", Value: f},
			Attr{Name: "value", Value: values},
		))
	}
	return specs, nil
}

// translateAddTag 追加到 tags 字段
func translateAddTag(value *attr.Node) ([]*ProcessorSpec, error) {
	tags, err := attr.AsStrings(value)
	if err != nil {
		return nil, err
	}
	tags, err = sprintfAll(tags)
	if err != nil {
		return nil, err
	}
	return []*ProcessorSpec{tagsAppend(tags)}, nil
}

func tagsAppend(tags []string) *ProcessorSpec {
	return NewSpec(KindAppend,
		Attr{Name: "field", Value: "tags"},
		Attr{Name: "value", Value: tags},
	)
}

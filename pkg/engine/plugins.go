package engine

import (
	"fmt"

	"github.com/glesirok/filterconv/pkg/attr"
)

// translateDate date { match => ["field", "format", ...] target => "..." }
func translateDate(body *attr.Node) ([]*ProcessorSpec, error) {
	opts, common, err := pluginOptions("date", body, "match", "target", "timezone", "locale", "tag_on_failure")
	if err != nil {
		return nil, err
	}

	match, ok := opts["match"]
	if !ok {
		return nil, &MissingAttributeError{Processor: "date", Name: "match"}
	}
	values, err := attr.AsStrings(match)
	if err != nil {
		return nil, withKey(err, "match")
	}
	if len(values) < 2 {
		return nil, &attr.TypeMismatchError{
			Key:      "match",
			Expected: "field followed by at least one format",
			Got:      fmt.Sprintf("sequence of %d values", len(values)),
			Offset:   match.Offset,
		}
	}

	f, err := field(values[0])
	if err != nil {
		return nil, err
	}
	spec := NewSpec(KindDate, Attr{Name: "field", Value: f})

	if target, ok := opts["target"]; ok {
		t, err := fieldOption(target, "target")
		if err != nil {
			return nil, err
		}
		spec.Attrs.Set("target_field", t)
	}
	spec.Attrs.Set("formats", values[1:])

	for _, key := range []string{"timezone", "locale"} {
		n, ok := opts[key]
		if !ok {
			continue
		}
		v, err := attr.AsScalar(n)
		if err != nil {
			return nil, withKey(err, key)
		}
		spec.Attrs.Set(key, v)
	}

	if err := setOnFailure(spec, opts); err != nil {
		return nil, err
	}
	return common.finish([]*ProcessorSpec{spec})
}

// translateGrok grok { match => { "field" => "pattern" } }，每个字段一个处理器
func translateGrok(body *attr.Node) ([]*ProcessorSpec, error) {
	opts, common, err := pluginOptions("grok", body, "match", "pattern_definitions", "tag_on_failure")
	if err != nil {
		return nil, err
	}

	match, ok := opts["match"]
	if !ok {
		return nil, &MissingAttributeError{Processor: "grok", Name: "match"}
	}
	entries, err := attr.AsMapping(match)
	if err != nil {
		return nil, withKey(err, "match")
	}

	var definitions Attributes
	if n, ok := opts["pattern_definitions"]; ok {
		defs, err := attr.AsMapping(n)
		if err != nil {
			return nil, withKey(err, "pattern_definitions")
		}
		for _, d := range defs {
			pattern, err := attr.AsScalar(d.Value)
			if err != nil {
				return nil, withKey(err, "pattern_definitions")
			}
			if err := validateGrok(pattern); err != nil {
				return nil, err
			}
			definitions = append(definitions, Attr{Name: d.Key, Value: pattern})
		}
	}

	specs := make([]*ProcessorSpec, 0, len(entries))
	for _, e := range entries {
		f, err := field(e.Key)
		if err != nil {
			return nil, err
		}
		patterns, err := attr.AsStrings(e.Value)
		if err != nil {
			return nil, withKey(err, "match")
		}
		for _, p := range patterns {
			if err := validateGrok(p); err != nil {
				return nil, err
			}
		}

		spec := NewSpec(KindGrok,
			Attr{Name: "field", Value: f},
			Attr{Name: "patterns", Value: patterns},
		)
		if len(definitions) > 0 {
			spec.Attrs.Set("pattern_definitions", definitions)
		}
		if err := setOnFailure(spec, opts); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return common.finish(specs)
}

// translateJSON json { source => "message" target => "parsed" }
// 没有 target 时解析结果写入根对象
func translateJSON(body *attr.Node) ([]*ProcessorSpec, error) {
	opts, common, err := pluginOptions("json", body, "source", "target", "skip_on_invalid_json", "tag_on_failure")
	if err != nil {
		return nil, err
	}

	source, ok := opts["source"]
	if !ok {
		return nil, &MissingAttributeError{Processor: "json", Name: "source"}
	}
	f, err := fieldOption(source, "source")
	if err != nil {
		return nil, err
	}
	spec := NewSpec(KindJSON, Attr{Name: "field", Value: f})

	if target, ok := opts["target"]; ok {
		t, err := fieldOption(target, "target")
		if err != nil {
			return nil, err
		}
		spec.Attrs.Set("target_field", t)
	} else {
		spec.Attrs.Set("add_to_root", true)
	}

	if n, ok := opts["skip_on_invalid_json"]; ok {
		skip, err := attr.AsBool(n)
		if err != nil {
			return nil, withKey(err, "skip_on_invalid_json")
		}
		if skip {
			spec.Attrs.Set("ignore_failure", true)
		}
	}

	if err := setOnFailure(spec, opts); err != nil {
		return nil, err
	}
	return common.finish([]*ProcessorSpec{spec})
}

// translateGeoIP geoip { source => "ip" target => "geo" fields => [...] }
func translateGeoIP(body *attr.Node) ([]*ProcessorSpec, error) {
	opts, common, err := pluginOptions("geoip", body, "source", "target", "fields")
	if err != nil {
		return nil, err
	}

	source, ok := opts["source"]
	if !ok {
		return nil, &MissingAttributeError{Processor: "geoip", Name: "source"}
	}
	f, err := fieldOption(source, "source")
	if err != nil {
		return nil, err
	}
	spec := NewSpec(KindGeoIP, Attr{Name: "field", Value: f})

	if target, ok := opts["target"]; ok {
		t, err := fieldOption(target, "target")
		if err != nil {
			return nil, err
		}
		spec.Attrs.Set("target_field", t)
	}

	if n, ok := opts["fields"]; ok {
		properties, err := attr.AsStrings(n)
		if err != nil {
			return nil, withKey(err, "fields")
		}
		spec.Attrs.Set("properties", properties)
	}

	return common.finish([]*ProcessorSpec{spec})
}

// setOnFailure tag_on_failure 对应 on_failure 中的一个 append tags
func setOnFailure(spec *ProcessorSpec, opts map[string]*attr.Node) error {
	n, ok := opts["tag_on_failure"]
	if !ok {
		return nil
	}
	tags, err := attr.AsStrings(n)
	if err != nil {
		return withKey(err, "tag_on_failure")
	}
	if len(tags) == 0 {
		return nil
	}
	spec.Attrs.Set("on_failure", []*ProcessorSpec{tagsAppend(tags)})
	return nil
}

package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// YAML renders the effective configuration, or the subtree under prefix
// (e.g. "models.openai"). Secrets are redacted.
func (s *ConfigSchema) YAML(prefix string) ([]byte, error) {
	var tree any = toTree(reflect.ValueOf(*s), "")
	if prefix != "" {
		for _, part := range strings.Split(strings.ToLower(prefix), ".") {
			m, ok := tree.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("no configuration under %q", prefix)
			}
			next, found := lookupFold(m, part)
			if !found {
				return nil, fmt.Errorf("no configuration under %q", prefix)
			}
			tree = next
		}
	}
	return yaml.Marshal(tree)
}

func lookupFold(m map[string]any, key string) (any, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func toTree(v reflect.Value, key string) any {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}
	switch v.Kind() {
	case reflect.Struct:
		out := make(map[string]any)
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			tag := field.Tag.Get("mapstructure")
			if !field.IsExported() || tag == "" || v.Field(i).IsZero() {
				continue
			}
			out[tag] = toTree(v.Field(i), tag)
		}
		return out
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			out[k] = toTree(iter.Value(), k)
		}
		return out
	case reflect.Slice:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = toTree(v.Index(i), key)
		}
		return out
	default:
		if isSecretKey(key) {
			return "[REDACTED]"
		}
		return v.Interface()
	}
}

package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

// GetKnownKeys returns all valid configuration keys based on the schema
func GetKnownKeys() map[string]bool {
	known := make(map[string]bool)
	addKnownKeys("", reflect.TypeOf(ConfigSchema{}), known)
	return known
}

func addKnownKeys(prefix string, t reflect.Type, known map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if !field.IsExported() || tag == "" {
			continue
		}

		key := strings.ToLower(tag)
		if prefix != "" {
			key = prefix + "." + key
		}
		known[key] = true

		switch field.Type.Kind() {
		case reflect.Struct:
			if field.Type.PkgPath() == t.PkgPath() {
				addKnownKeys(key, field.Type, known)
			}
		case reflect.Map:
			if field.Type.Elem().Kind() == reflect.Struct {
				addKnownKeys(key+".*", field.Type.Elem(), known)
			} else {
				known[key+".*"] = true
			}
		}
	}
}

// matchesWildcard checks if a key matches a pattern where * stands for one segment
func matchesWildcard(pattern, key string) bool {
	patternParts := strings.Split(strings.ToLower(pattern), ".")
	keyParts := strings.Split(strings.ToLower(key), ".")
	if len(patternParts) != len(keyParts) {
		return false
	}
	for i := range patternParts {
		if patternParts[i] != "*" && patternParts[i] != keyParts[i] {
			return false
		}
	}
	return true
}

// IsKnownKey checks if a key is known, including wildcard matches
func IsKnownKey(known map[string]bool, key string) bool {
	if known[strings.ToLower(key)] {
		return true
	}
	for pattern := range known {
		if strings.Contains(pattern, "*") && matchesWildcard(pattern, key) {
			return true
		}
	}
	return false
}

// PrintConfig writes the configuration as YAML-like text, optionally with the
// file or variable each value came from. Secrets are redacted.
func (s *ConfigSchema) PrintConfig(w io.Writer, includeSources bool) {
	s.printValue(w, reflect.ValueOf(*s), "", "", includeSources, 0)
}

func (s *ConfigSchema) printValue(w io.Writer, v reflect.Value, key, path string, includeSources bool, indent int) {
	pad := strings.Repeat("  ", indent)

	switch v.Kind() {
	case reflect.Struct:
		if key != "" {
			fmt.Fprintf(w, "%s%s:\n", pad, key)
			indent++
		}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			tag := field.Tag.Get("mapstructure")
			if !field.IsExported() || tag == "" || v.Field(i).IsZero() {
				continue
			}
			s.printValue(w, v.Field(i), tag, joinPath(path, tag), includeSources, indent)
		}

	case reflect.Map:
		fmt.Fprintf(w, "%s%s:\n", pad, key)
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			s.printValue(w, iter.Value(), k, joinPath(path, k), includeSources, indent+1)
		}

	case reflect.Slice:
		fmt.Fprintf(w, "%s%s:", pad, key)
		s.printSource(w, path, includeSources)
		fmt.Fprintln(w)
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintf(w, "%s  - %+v\n", pad, v.Index(i).Interface())
		}

	default:
		if isSecretKey(key) {
			fmt.Fprintf(w, "%s%s: [REDACTED]", pad, key)
		} else {
			fmt.Fprintf(w, "%s%s: %v", pad, key, v.Interface())
		}
		s.printSource(w, path, includeSources)
		fmt.Fprintln(w)
	}
}

func (s *ConfigSchema) printSource(w io.Writer, path string, includeSources bool) {
	if !includeSources {
		return
	}
	if sources, ok := s.sources[strings.ToLower(path)]; ok && len(sources) > 0 {
		fmt.Fprintf(w, " # (%s)", sources[len(sources)-1].source)
		return
	}
	fmt.Fprint(w, " # (default)")
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "key") ||
		strings.Contains(k, "secret") ||
		strings.Contains(k, "password")
}

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// ValidationError reports arguments that do not fit a tool's contract
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("invalid arguments for %s: %s %s", e.Tool, e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by the name the model sees
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// isFalseSchema reports whether s is the boolean schema false, which the
// reflector uses to close an object to unknown properties
func isFalseSchema(s *jsonschema.Schema) bool {
	if s == nil {
		return false
	}
	if s == jsonschema.FalseSchema {
		return true
	}
	data, err := json.Marshal(s)
	return err == nil && string(data) == "false"
}

func validateValue(tool, field string, s *jsonschema.Schema, value any) error {
	if s == nil {
		return nil
	}
	fail := func(reason string) error {
		return &ValidationError{Tool: tool, Field: field, Reason: reason}
	}

	switch s.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return fail("must be a string")
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fail("must be a number")
		}
	case "integer":
		n, ok := value.(float64)
		if !ok || n != math.Trunc(n) {
			return fail("must be an integer")
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fail("must be a boolean")
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			return fail("must be an array")
		}
		for i, item := range items {
			if err := validateValue(tool, fmt.Sprintf("%s[%d]", field, i), s.Items, item); err != nil {
				return err
			}
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fail("must be an object")
		}
		if err := validateObject(tool, field, s, obj); err != nil {
			return err
		}
	}

	if len(s.Enum) > 0 {
		for _, allowed := range s.Enum {
			if fmt.Sprint(allowed) == fmt.Sprint(value) {
				return nil
			}
		}
		return fail(fmt.Sprintf("must be one of %v", s.Enum))
	}
	return nil
}

func validateObject(tool, field string, s *jsonschema.Schema, obj map[string]any) error {
	for _, req := range s.Required {
		if v, ok := obj[req]; !ok || v == nil {
			return &ValidationError{Tool: tool, Field: joinField(field, req), Reason: "is required"}
		}
	}

	for key, v := range obj {
		var prop *jsonschema.Schema
		if s.Properties != nil {
			prop, _ = s.Properties.Get(key)
		}
		if prop == nil {
			if isFalseSchema(s.AdditionalProperties) {
				return &ValidationError{Tool: tool, Field: joinField(field, key), Reason: "is not a known parameter"}
			}
			continue
		}
		if v == nil {
			// explicit null for an optional field means absent
			continue
		}
		if err := validateValue(tool, joinField(field, key), prop, v); err != nil {
			return err
		}
	}
	return nil
}

// decodeInto re-encodes schema-checked arguments into the typed struct and
// runs its validate tags
func decodeInto(tool string, raw map[string]any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return &ValidationError{Tool: tool, Reason: err.Error()}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &ValidationError{Tool: tool, Reason: err.Error()}
	}

	if reflect.Indirect(reflect.ValueOf(dst)).Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			reason := "failed " + fe.Tag()
			if fe.Param() != "" {
				reason += "=" + fe.Param()
			}
			return &ValidationError{Tool: tool, Field: stripRoot(fe.Namespace()), Reason: reason}
		}
		return &ValidationError{Tool: tool, Reason: err.Error()}
	}
	return nil
}

// stripRoot drops the struct type name validator puts in front of a namespace
func stripRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

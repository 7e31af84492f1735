package mcpservice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Violation describes one argument that failed binding.
type Violation struct {
	Field  string
	Reason string
}

// ArgumentsError collects every violation found while binding a tool's
// arguments. Its message lists them as "field: reason" pairs.
type ArgumentsError struct {
	Violations []Violation
}

func (e *ArgumentsError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return "Invalid arguments: " + strings.Join(parts, ", ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func argValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Bind decodes raw tool arguments into A. It decodes each field on its own so
// that every type mismatch is reported, fills absent fields from the
// `default=` entry of their jsonschema tag, then runs `validate` tags through
// go-playground/validator. When strict is set, keys A does not declare are
// violations too. A required string that is present but empty is accepted;
// required only demands the key.
//
// A must be a struct type. Any failure is returned as *ArgumentsError.
func Bind[A any](raw json.RawMessage, strict bool) (A, error) {
	var a A
	rv := reflect.ValueOf(&a).Elem()
	if rv.Kind() != reflect.Struct {
		return a, fmt.Errorf("bind: %T is not a struct", a)
	}

	bag := map[string]json.RawMessage{}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &bag); err != nil {
			return a, &ArgumentsError{Violations: []Violation{{Field: "arguments", Reason: "Expected object, received " + jsonKindOf(trimmed)}}}
		}
	}

	var violations []Violation
	failed := map[string]bool{}
	known := map[string]bool{}
	supplied := map[string]bool{}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonFieldName(sf)
		if name == "" {
			continue
		}
		known[name] = true
		fv := rv.Field(i)

		val, present := bag[name]
		if present && !bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			supplied[name] = true
			if err := json.Unmarshal(val, fv.Addr().Interface()); err != nil {
				violations = append(violations, Violation{Field: name, Reason: decodeReason(sf.Type, val, err)})
				failed[name] = true
			}
			continue
		}
		if def, ok := schemaDefault(sf); ok {
			if err := applyDefault(fv, def); err != nil {
				return a, fmt.Errorf("bind: default for %s: %w", name, err)
			}
		}
	}

	if strict {
		var unknown []string
		for k := range bag {
			if !known[k] {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		for _, k := range unknown {
			violations = append(violations, Violation{Field: k, Reason: "Unrecognized key"})
		}
	}

	if err := argValidator().Struct(a); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return a, fmt.Errorf("bind: %w", err)
		}
		for _, fe := range verrs {
			field := fieldPath(fe.Namespace())
			top, _, _ := strings.Cut(field, ".")
			top, _, _ = strings.Cut(top, "[")
			if failed[top] {
				continue
			}
			if field == top && supplied[top] && fe.Tag() == "required" && fe.Kind() == reflect.String {
				continue
			}
			violations = append(violations, Violation{Field: field, Reason: validationReason(fe)})
		}
	}

	if len(violations) > 0 {
		return a, &ArgumentsError{Violations: violations}
	}
	return a, nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func schemaDefault(sf reflect.StructField) (string, bool) {
	for _, part := range strings.Split(sf.Tag.Get("jsonschema"), ",") {
		if v, ok := strings.CutPrefix(part, "default="); ok {
			return v, true
		}
	}
	return "", false
}

func applyDefault(fv reflect.Value, def string) error {
	target := fv.Type()
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	payload := def
	if target.Kind() == reflect.String {
		b, err := json.Marshal(def)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	return json.Unmarshal([]byte(payload), fv.Addr().Interface())
}

func decodeReason(t reflect.Type, val json.RawMessage, err error) string {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return "Invalid value"
	}
	if typeErr.Field != "" {
		return fmt.Sprintf("Expected %s at %s, received %s", jsonKindFor(typeErr.Type), typeErr.Field, typeErr.Value)
	}
	return fmt.Sprintf("Expected %s, received %s", jsonKindFor(t), jsonKindOf(val))
}

func jsonKindFor(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func jsonKindOf(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "undefined"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func validationReason(fe validator.FieldError) string {
	kind := fe.Kind()
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return "Required"
	case "min", "gte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("Array must contain at least %s element(s)", fe.Param())
		default:
			return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())
		}
	case "max", "lte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("Array must contain at most %s element(s)", fe.Param())
		default:
			return fmt.Sprintf("Number must be less than or equal to %s", fe.Param())
		}
	case "oneof":
		opts := strings.Fields(fe.Param())
		for i, o := range opts {
			opts[i] = "'" + o + "'"
		}
		return fmt.Sprintf("Invalid enum value. Expected %s, received '%v'", strings.Join(opts, " | "), fe.Value())
	case "url", "http_url":
		return "Invalid url"
	case "datetime":
		return "Invalid datetime, expected " + fe.Param()
	case "hexcolor":
		return "Invalid hex color"
	case "numeric":
		return "Expected a numeric ID"
	default:
		return fmt.Sprintf("Failed %q validation", fe.Tag())
	}
}

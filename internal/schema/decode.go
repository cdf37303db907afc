package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ParseError reports a model response that is not valid JSON or does not match
// the requested schema.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "parse response: " + e.Reason
	}
	return fmt.Sprintf("parse response at %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CleanJSON strips surrounding whitespace and markdown code fences.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// Decode validates text against s and unmarshals it into out.
// Empty text is reported as a ParseError.
func Decode(text string, s jsonschema.Definition, out any) error {
	clean := CleanJSON(text)
	if clean == "" {
		return &ParseError{Reason: "empty response"}
	}

	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return &ParseError{Reason: "invalid JSON", Err: err}
	}
	if err := Validate(v, s); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return &ParseError{Reason: "unmarshal", Err: err}
	}
	return nil
}

// Validate checks a decoded JSON value (as produced by a json.Decoder with
// UseNumber) against s. Unlike jsonschema.Validate it reports where the value
// diverges, and it accepts null for optional properties.
func Validate(v any, s jsonschema.Definition) error {
	return validate(v, s, "$")
}

func validate(v any, s jsonschema.Definition, path string) error {
	if v == nil {
		return &ParseError{Path: path, Reason: "null value"}
	}
	switch s.Type {
	case jsonschema.Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return mismatch(path, s.Type, v)
		}
		for _, name := range Order(s) {
			required := slices.Contains(s.Required, name)
			fv, present := obj[name]
			if !present {
				if required {
					return &ParseError{Path: path + "." + name, Reason: "missing required field"}
				}
				continue
			}
			if fv == nil && !required {
				continue
			}
			if err := validate(fv, s.Properties[name], path+"."+name); err != nil {
				return err
			}
		}
	case jsonschema.Array:
		arr, ok := v.([]any)
		if !ok {
			return mismatch(path, s.Type, v)
		}
		if s.Items == nil {
			return nil
		}
		for i, item := range arr {
			if err := validate(item, *s.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case jsonschema.String:
		str, ok := v.(string)
		if !ok {
			return mismatch(path, s.Type, v)
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return &ParseError{Path: path, Reason: fmt.Sprintf("%q is not one of %v", str, s.Enum)}
		}
	case jsonschema.Integer:
		n, ok := v.(json.Number)
		if !ok {
			return mismatch(path, s.Type, v)
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return &ParseError{Path: path, Reason: fmt.Sprintf("%s is not an integer", n)}
		}
	case jsonschema.Number:
		if _, ok := v.(json.Number); !ok {
			return mismatch(path, s.Type, v)
		}
	case jsonschema.Boolean:
		if _, ok := v.(bool); !ok {
			return mismatch(path, s.Type, v)
		}
	default:
		return &ParseError{Path: path, Reason: fmt.Sprintf("unsupported schema type %q", s.Type)}
	}
	return nil
}

func mismatch(path string, want jsonschema.DataType, got any) error {
	return &ParseError{Path: path, Reason: fmt.Sprintf("expected %s, got %s", want, kind(got))}
}

func kind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

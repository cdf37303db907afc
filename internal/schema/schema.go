// Package schema describes the JSON shapes requested from the model and checks
// responses against them.
//
// Shapes are jsonschema.Definition values from go-openai. The llm backends send
// them as the provider's response schema, and Decode validates the returned
// text against the same value before unmarshalling into a Go value.
package schema

import (
	"slices"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Property is a named field of an object schema.
type Property struct {
	Name     string
	Schema   jsonschema.Definition
	Required bool
}

// Str returns a string schema.
func Str(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description}
}

// Int returns an integer schema.
func Int(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Integer, Description: description}
}

// Bool returns a boolean schema.
func Bool(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Boolean, Description: description}
}

// Enum returns a string schema restricted to values.
func Enum(description string, values ...string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description, Enum: values}
}

// ArrayOf returns an array schema whose elements match items.
func ArrayOf(items jsonschema.Definition) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Array, Items: &items}
}

// ObjectOf returns an object schema with the given properties. Required names
// keep declaration order.
func ObjectOf(props ...Property) jsonschema.Definition {
	d := jsonschema.Definition{
		Type:       jsonschema.Object,
		Properties: make(map[string]jsonschema.Definition, len(props)),
	}
	for _, p := range props {
		d.Properties[p.Name] = p.Schema
		if p.Required {
			d.Required = append(d.Required, p.Name)
		}
	}
	return d
}

// Field declares a required property.
func Field(name string, s jsonschema.Definition) Property {
	return Property{Name: name, Schema: s, Required: true}
}

// Optional declares a property that may be absent.
func Optional(name string, s jsonschema.Definition) Property {
	return Property{Name: name, Schema: s}
}

// Order lists the property names of an object schema: required names in
// declaration order, then the optional ones sorted.
func Order(d jsonschema.Definition) []string {
	names := slices.Clone(d.Required)
	var rest []string
	for name := range d.Properties {
		if !slices.Contains(d.Required, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

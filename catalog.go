package gateway

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolFunc is the in-process implementation of a server-side tool. The
// arguments have already passed catalog validation when the function is
// invoked. The returned value is JSON-serialized into the tool result.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// ParamSpec declares a single named parameter of a tool. Type uses JSON
// Schema primitive names ("string", "number", "integer", "boolean", "object",
// "array"); an empty Type skips type checking for that parameter.
type ParamSpec struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     any
}

// ToolDescriptor describes a single registered tool. A non-nil Handler marks
// the tool as server-side and runnable in-process; a nil Handler marks it as
// client-side, to be forwarded to the workbench executor.
type ToolDescriptor struct {
	Name        string
	Description string
	Params      []ParamSpec
	Handler     ToolFunc
}

// ClientSide reports whether the tool must be forwarded to the executor.
func (d ToolDescriptor) ClientSide() bool { return d.Handler == nil }

// Catalog is the immutable registry of tool descriptors. It is populated once
// at construction and safe for concurrent reads afterwards.
type Catalog struct {
	tools []ToolDescriptor
	index map[string]int
}

// NewCatalog builds a catalog from the given descriptors. Registration order
// is preserved, so Tools always lists descriptors deterministically.
// Duplicate names are rejected.
func NewCatalog(descriptors ...ToolDescriptor) (*Catalog, error) {
	c := &Catalog{
		tools: make([]ToolDescriptor, 0, len(descriptors)),
		index: make(map[string]int, len(descriptors)),
	}
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("tool descriptor with empty name")
		}
		if _, ok := c.index[d.Name]; ok {
			return nil, fmt.Errorf("duplicate tool name: %s", d.Name)
		}
		c.index[d.Name] = len(c.tools)
		c.tools = append(c.tools, d)
	}
	return c, nil
}

// Get returns the descriptor registered under name.
func (c *Catalog) Get(name string) (ToolDescriptor, bool) {
	i, ok := c.index[name]
	if !ok {
		return ToolDescriptor{}, false
	}
	return c.tools[i], true
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int { return len(c.tools) }

// Tools returns the wire representation of every registered tool, in
// registration order.
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, 0, len(c.tools))
	for _, d := range c.tools {
		out = append(out, Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: inputSchema(d.Params),
		})
	}
	return out
}

// Validate checks the arguments of a tool call against the declared parameter
// specs. It returns nil on success, UnknownToolError for an unregistered tool
// name, or ValidationError listing every missing required field and type
// mismatch. Validation is a pure function of the catalog and its inputs.
func (c *Catalog) Validate(name string, args map[string]any) error {
	d, ok := c.Get(name)
	if !ok {
		return UnknownToolError{Tool: name}
	}

	verr := ValidationError{Tool: name, EchoedArguments: args}
	for _, p := range d.Params {
		v, present := args[p.Name]
		if !present {
			if p.Required {
				verr.MissingFields = append(verr.MissingFields, p.Name)
			}
			continue
		}
		if p.Type == "" {
			continue
		}
		if got, ok := jsonTypeOf(v); ok && !typeMatches(p.Type, got, v) {
			verr.TypeMismatches = append(verr.TypeMismatches, TypeMismatch{
				Field: p.Name,
				Want:  p.Type,
				Got:   got,
			})
		}
	}

	if len(verr.MissingFields) > 0 || len(verr.TypeMismatches) > 0 {
		return verr
	}
	return nil
}

// inputSchema renders the JSON Schema object advertised for a parameter list.
func inputSchema(params []ParamSpec) json.RawMessage {
	properties := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		prop := map[string]any{}
		if p.Type != "" {
			prop["type"] = p.Type
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	bs, err := json.Marshal(schema)
	if err != nil {
		// The schema is built from plain maps and JSON-safe defaults, so this
		// only trips on a misregistered descriptor.
		return json.RawMessage(`{"type":"object"}`)
	}
	return bs
}

// jsonTypeOf maps a decoded JSON value to its schema type name. The second
// return is false for nulls, which are accepted for any declared type.
func jsonTypeOf(v any) (string, bool) {
	switch v.(type) {
	case nil:
		return "", false
	case string:
		return "string", true
	case bool:
		return "boolean", true
	case float64, int, int64:
		return "number", true
	case map[string]any:
		return "object", true
	case []any:
		return "array", true
	default:
		return "", false
	}
}

func typeMatches(want, got string, v any) bool {
	if want == got {
		return true
	}
	if want == "integer" && got == "number" {
		// encoding/json decodes every number as float64.
		f, ok := v.(float64)
		return ok && f == float64(int64(f))
	}
	return false
}

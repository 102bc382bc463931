package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/seqconsole/seqconsole"
)

func testCatalog(t *testing.T) *gateway.Catalog {
	t.Helper()

	echo := func(_ context.Context, args map[string]any) (any, error) {
		return args, nil
	}

	c, err := gateway.NewCatalog(
		gateway.ToolDescriptor{
			Name:        "echo",
			Description: "Echo the arguments back.",
			Params: []gateway.ParamSpec{
				{Name: "text", Type: "string", Required: true},
				{Name: "repeat", Type: "integer", Default: 1},
			},
			Handler: echo,
		},
		gateway.ToolDescriptor{
			Name:        "render_chart",
			Description: "Render a chart in the workbench.",
			Params: []gateway.ParamSpec{
				{Name: "series", Type: "array", Required: true},
				{Name: "title", Type: "string"},
			},
		},
	)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return c
}

func TestCatalogTools(t *testing.T) {
	c := testCatalog(t)

	tools := c.Tools()
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(tools))
	}

	// Registration order is preserved.
	wantNames := []string{"echo", "render_chart"}
	seen := make(map[string]bool)
	for i, tool := range tools {
		if tool.Name != wantNames[i] {
			t.Errorf("tool %d: got name %q, want %q", i, tool.Name, wantNames[i])
		}
		if seen[tool.Name] {
			t.Errorf("duplicate tool name %q", tool.Name)
		}
		seen[tool.Name] = true
	}

	// The advertised schema's required list matches validator behavior.
	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
	}
	if err := json.Unmarshal(tools[0].InputSchema, &schema); err != nil {
		t.Fatalf("failed to unmarshal input schema: %v", err)
	}
	if schema.Type != "object" {
		t.Errorf("got schema type %q, want object", schema.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "text" {
		t.Errorf("got required %v, want [text]", schema.Required)
	}
	if _, ok := schema.Properties["repeat"]; !ok {
		t.Error("schema is missing the repeat property")
	}
}

func TestCatalogValidate(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name         string
		tool         string
		args         map[string]any
		wantErr      bool
		wantMissing  []string
		wantMismatch string
	}{
		{
			name: "valid arguments",
			tool: "echo",
			args: map[string]any{"text": "hello"},
		},
		{
			name: "optional parameter with declared type",
			tool: "echo",
			args: map[string]any{"text": "hello", "repeat": float64(3)},
		},
		{
			name:        "missing required field",
			tool:        "echo",
			args:        map[string]any{},
			wantErr:     true,
			wantMissing: []string{"text"},
		},
		{
			name:         "type mismatch",
			tool:         "echo",
			args:         map[string]any{"text": float64(12)},
			wantErr:      true,
			wantMismatch: "text",
		},
		{
			name:         "fractional value for integer parameter",
			tool:         "echo",
			args:         map[string]any{"text": "hello", "repeat": 1.5},
			wantErr:      true,
			wantMismatch: "repeat",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Validate(tc.tool, tc.args)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr gateway.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %T, want ValidationError", err)
			}
			if len(tc.wantMissing) > 0 {
				if len(verr.MissingFields) != len(tc.wantMissing) || verr.MissingFields[0] != tc.wantMissing[0] {
					t.Errorf("got missing fields %v, want %v", verr.MissingFields, tc.wantMissing)
				}
			}
			if tc.wantMismatch != "" {
				if len(verr.TypeMismatches) != 1 || verr.TypeMismatches[0].Field != tc.wantMismatch {
					t.Errorf("got type mismatches %v, want one on %q", verr.TypeMismatches, tc.wantMismatch)
				}
			}
		})
	}
}

func TestCatalogValidateUnknownTool(t *testing.T) {
	c := testCatalog(t)

	err := c.Validate("frobnicate", nil)
	var uerr gateway.UnknownToolError
	if !errors.As(err, &uerr) {
		t.Fatalf("got %T, want UnknownToolError", err)
	}
	if uerr.Tool != "frobnicate" {
		t.Errorf("got tool %q, want frobnicate", uerr.Tool)
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := gateway.NewCatalog(
		gateway.ToolDescriptor{Name: "echo"},
		gateway.ToolDescriptor{Name: "echo"},
	)
	if err == nil {
		t.Fatal("expected error for duplicate tool name")
	}
}

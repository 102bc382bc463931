package sequence

import (
	"context"
	"strings"
	"testing"
)

func TestAnalyzeCodonUsageTool(t *testing.T) {
	s := NewServer()

	result, err := s.AnalyzeCodonUsage(context.Background(), map[string]any{
		"sequence": "mkt av",
		"organism": "e_coli_k12",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, ok := result.(CodonUsageReport)
	if !ok {
		t.Fatalf("got result type %T, want CodonUsageReport", result)
	}
	if report.Length != 5 {
		t.Errorf("got length %d, want 5", report.Length)
	}
}

func TestAnalyzeCodonUsageToolRejectsBadInput(t *testing.T) {
	s := NewServer()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "missing sequence",
			args: map[string]any{},
			want: "invalid sequence",
		},
		{
			name: "invalid residue",
			args: map[string]any{"sequence": "MKTX"},
			want: "invalid amino acid",
		},
		{
			name: "unsupported organism",
			args: map[string]any{"sequence": "MKT", "organism": "s_cerevisiae"},
			want: "unsupported organism",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AnalyzeCodonUsage(context.Background(), tc.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.want)
			}
		})
	}
}

func TestAminoAcidCompositionTool(t *testing.T) {
	s := NewServer()

	result, err := s.AminoAcidComposition(context.Background(), map[string]any{"sequence": "MKKA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("got result type %T, want map", result)
	}
	if payload["length"] != 4 {
		t.Errorf("got length %v, want 4", payload["length"])
	}
	profile, ok := payload["composition"].([]AminoAcidCount)
	if !ok {
		t.Fatalf("got composition type %T, want []AminoAcidCount", payload["composition"])
	}
	if len(profile) != 3 {
		t.Errorf("got %d composition entries, want 3", len(profile))
	}
}

func TestExpectedCodonUsageTool(t *testing.T) {
	s := NewServer()

	result, err := s.ExpectedCodonUsage(context.Background(), map[string]any{"sequence": "K"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := result.(map[string]any)
	high := payload["highlyUsedCodons"].([]CodonExpectation)
	if len(high) != 1 || high[0].Codon != "AAA" {
		t.Errorf("got high %v, want [AAA]", high)
	}
}

func TestReverseTranslateTool(t *testing.T) {
	s := NewServer()

	result, err := s.ReverseTranslate(context.Background(), map[string]any{"sequence": "MW"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := result.(map[string]any)
	if payload["dna"] != "ATGTGG" {
		t.Errorf("got dna %v, want ATGTGG", payload["dna"])
	}
	if payload["length"] != 6 {
		t.Errorf("got length %v, want 6", payload["length"])
	}
}

func TestDescriptors(t *testing.T) {
	descriptors := Descriptors(NewServer())

	wantNames := []string{
		"analyze_codon_usage",
		"amino_acid_composition",
		"expected_codon_usage",
		"reverse_translate",
	}
	if len(descriptors) != len(wantNames) {
		t.Fatalf("got %d descriptors, want %d", len(descriptors), len(wantNames))
	}
	for i, desc := range descriptors {
		if desc.Name != wantNames[i] {
			t.Errorf("descriptor %d: got %q, want %q", i, desc.Name, wantNames[i])
		}
		if desc.Handler == nil {
			t.Errorf("descriptor %q has no handler", desc.Name)
		}
		if len(desc.Params) == 0 || desc.Params[0].Name != "sequence" {
			t.Errorf("descriptor %q is missing the sequence parameter", desc.Name)
		}
	}
}

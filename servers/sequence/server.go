// Package sequence implements the seqconsole gateway's server-side
// sequence-analysis tools: codon usage analysis against E. coli K-12
// frequency tables, amino acid composition profiling, and reverse
// translation by preferred codons. All tools are pure in-process
// computations; nothing here touches the workbench executor.
package sequence

import (
	"context"
	"fmt"
)

// defaultOrganism is the only codon frequency table currently shipped.
const defaultOrganism = "e_coli_k12"

// Server provides the in-process tool implementations. The zero value is not
// usable; construct with NewServer.
type Server struct{}

// NewServer creates a sequence-analysis tool server.
func NewServer() Server {
	return Server{}
}

// AnalyzeCodonUsage implements the analyze_codon_usage tool. It expects a
// protein sequence and an optional organism name, and returns the full codon
// usage report: composition, usage categories with expected occurrence
// counts, GC estimate, and functional class percentages.
func (s Server) AnalyzeCodonUsage(_ context.Context, args map[string]any) (any, error) {
	protein, err := proteinArg(args)
	if err != nil {
		return nil, err
	}
	if err := organismArg(args); err != nil {
		return nil, err
	}
	return analyzeCodonUsage(protein), nil
}

// AminoAcidComposition implements the amino_acid_composition tool.
func (s Server) AminoAcidComposition(_ context.Context, args map[string]any) (any, error) {
	protein, err := proteinArg(args)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"length":      len(protein),
		"composition": compositionProfile(protein),
	}, nil
}

// ExpectedCodonUsage implements the expected_codon_usage tool, returning the
// per-codon usage expectations for every residue present in the sequence.
func (s Server) ExpectedCodonUsage(_ context.Context, args map[string]any) (any, error) {
	protein, err := proteinArg(args)
	if err != nil {
		return nil, err
	}
	if err := organismArg(args); err != nil {
		return nil, err
	}
	high, moderate, rare := codonCategories(protein)
	return map[string]any{
		"highlyUsedCodons":     high,
		"moderatelyUsedCodons": moderate,
		"rarelyUsedCodons":     rare,
	}, nil
}

// ReverseTranslate implements the reverse_translate tool, producing a DNA
// sequence using each amino acid's preferred codon.
func (s Server) ReverseTranslate(_ context.Context, args map[string]any) (any, error) {
	protein, err := proteinArg(args)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"protein": protein,
		"dna":     reverseTranslate(protein),
		"length":  len(protein) * 3,
	}, nil
}

func proteinArg(args map[string]any) (string, error) {
	raw, _ := args["sequence"].(string)
	protein, err := normalizeProtein(raw)
	if err != nil {
		return "", fmt.Errorf("invalid sequence: %w", err)
	}
	return protein, nil
}

func organismArg(args map[string]any) error {
	organism, ok := args["organism"].(string)
	if !ok || organism == "" || organism == defaultOrganism {
		return nil
	}
	return fmt.Errorf("unsupported organism %q: only %s codon tables are available", organism, defaultOrganism)
}

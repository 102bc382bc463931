package sequence

import "github.com/seqconsole/seqconsole"

// Descriptors returns the server-side tool descriptors backed by the given
// server, in the order they should appear in tools/list.
func Descriptors(s Server) []gateway.ToolDescriptor {
	sequenceParam := gateway.ParamSpec{
		Name:        "sequence",
		Type:        "string",
		Description: "Protein sequence, single-letter amino acid codes",
		Required:    true,
	}
	organismParam := gateway.ParamSpec{
		Name:        "organism",
		Type:        "string",
		Description: "Codon frequency table to use",
		Default:     defaultOrganism,
	}

	return []gateway.ToolDescriptor{
		{
			Name: "analyze_codon_usage",
			Description: "Analyze codon usage of a protein sequence: amino acid composition, " +
				"expected codon usage against organism frequency tables, rare codon warnings, " +
				"GC content estimate, and functional class percentages.",
			Params:  []gateway.ParamSpec{sequenceParam, organismParam},
			Handler: s.AnalyzeCodonUsage,
		},
		{
			Name:        "amino_acid_composition",
			Description: "Count and rank the amino acids of a protein sequence.",
			Params:      []gateway.ParamSpec{sequenceParam},
			Handler:     s.AminoAcidComposition,
		},
		{
			Name: "expected_codon_usage",
			Description: "Compute expected codon usage for every residue of a protein sequence, " +
				"bucketed into highly, moderately, and rarely used codons.",
			Params:  []gateway.ParamSpec{sequenceParam, organismParam},
			Handler: s.ExpectedCodonUsage,
		},
		{
			Name:        "reverse_translate",
			Description: "Back-translate a protein sequence into DNA using each amino acid's preferred codon.",
			Params:      []gateway.ParamSpec{sequenceParam, organismParam},
			Handler:     s.ReverseTranslate,
		},
	}
}

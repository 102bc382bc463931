package sequence

import (
	"fmt"
	"sort"
	"strings"
)

// geneticCode maps each DNA codon to its single-letter amino acid, with '*'
// for stop codons.
var geneticCode = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',
	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',
	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',
	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// ecoliCodonFreq holds E. coli K-12 codon usage frequencies per amino acid,
// taken from the literature. Frequencies within one amino acid sum to ~1.
var ecoliCodonFreq = map[byte]map[string]float64{
	'F': {"TTT": 0.58, "TTC": 0.42},
	'L': {"TTA": 0.14, "TTG": 0.13, "CTT": 0.12, "CTC": 0.10, "CTA": 0.04, "CTG": 0.47},
	'S': {"TCT": 0.17, "TCC": 0.15, "TCA": 0.14, "TCG": 0.14, "AGT": 0.16, "AGC": 0.25},
	'Y': {"TAT": 0.59, "TAC": 0.41},
	'C': {"TGT": 0.46, "TGC": 0.54},
	'W': {"TGG": 1.00},
	'P': {"CCT": 0.18, "CCC": 0.13, "CCA": 0.20, "CCG": 0.49},
	'H': {"CAT": 0.57, "CAC": 0.43},
	'Q': {"CAA": 0.34, "CAG": 0.66},
	'R': {"CGT": 0.36, "CGC": 0.36, "CGA": 0.07, "CGG": 0.11, "AGA": 0.07, "AGG": 0.04},
	'I': {"ATT": 0.49, "ATC": 0.39, "ATA": 0.11},
	'M': {"ATG": 1.00},
	'T': {"ACT": 0.19, "ACC": 0.40, "ACA": 0.17, "ACG": 0.25},
	'N': {"AAT": 0.49, "AAC": 0.51},
	'K': {"AAA": 0.74, "AAG": 0.26},
	'V': {"GTT": 0.28, "GTC": 0.20, "GTA": 0.17, "GTG": 0.35},
	'A': {"GCT": 0.18, "GCC": 0.26, "GCA": 0.23, "GCG": 0.33},
	'D': {"GAT": 0.63, "GAC": 0.37},
	'E': {"GAA": 0.68, "GAG": 0.32},
	'G': {"GGT": 0.35, "GGC": 0.37, "GGA": 0.13, "GGG": 0.15},
}

// Usage-category thresholds: a codon used for more than 40% of its amino
// acid's occurrences counts as highly used, 20-40% as moderate, below 20% as
// rare.
const (
	highUsageThreshold     = 0.4
	moderateUsageThreshold = 0.2
)

// Amino acid classes used by the functional profile.
var (
	gcRichAminoAcids      = "GCAPR"
	hydrophobicAminoAcids = "AVILMFWY"
	chargedAminoAcids     = "RKDE"
	polarAminoAcids       = "NQSTY"
)

// AminoAcidCount is one entry of a composition profile.
type AminoAcidCount struct {
	AminoAcid string  `json:"aminoAcid"`
	Count     int     `json:"count"`
	Percent   float64 `json:"percent"`
}

// CodonExpectation is the expected usage of a single codon given an amino
// acid's occurrence count and the organism's frequency table.
type CodonExpectation struct {
	Codon     string  `json:"codon"`
	AminoAcid string  `json:"aminoAcid"`
	Frequency float64 `json:"frequency"`
	Expected  float64 `json:"expected"`
}

// CodonUsageReport is the full analysis produced for one protein sequence.
type CodonUsageReport struct {
	Length          int                `json:"length"`
	Composition     []AminoAcidCount   `json:"composition"`
	HighlyUsed      []CodonExpectation `json:"highlyUsedCodons"`
	ModeratelyUsed  []CodonExpectation `json:"moderatelyUsedCodons"`
	RarelyUsed      []CodonExpectation `json:"rarelyUsedCodons"`
	GCEstimate      float64            `json:"gcContentEstimate"`
	HydrophobicPct  float64            `json:"hydrophobicPercent"`
	ChargedPct      float64            `json:"chargedPercent"`
	PolarPct        float64            `json:"polarPercent"`
	MostFrequent    []AminoAcidCount   `json:"mostFrequentAminoAcids"`
}

// normalizeProtein strips whitespace and validates that every residue is one
// of the twenty standard amino acids.
func normalizeProtein(seq string) (string, error) {
	cleaned := strings.ToUpper(strings.Join(strings.Fields(seq), ""))
	if cleaned == "" {
		return "", fmt.Errorf("empty protein sequence")
	}
	for i := 0; i < len(cleaned); i++ {
		if _, ok := ecoliCodonFreq[cleaned[i]]; !ok {
			return "", fmt.Errorf("invalid amino acid %q at position %d", string(cleaned[i]), i+1)
		}
	}
	return cleaned, nil
}

func countResidues(protein string) map[byte]int {
	counts := make(map[byte]int)
	for i := 0; i < len(protein); i++ {
		counts[protein[i]]++
	}
	return counts
}

// compositionProfile returns per-residue counts sorted alphabetically, so the
// output is deterministic.
func compositionProfile(protein string) []AminoAcidCount {
	counts := countResidues(protein)
	total := len(protein)

	aas := make([]byte, 0, len(counts))
	for aa := range counts {
		aas = append(aas, aa)
	}
	sort.Slice(aas, func(i, j int) bool { return aas[i] < aas[j] })

	profile := make([]AminoAcidCount, 0, len(aas))
	for _, aa := range aas {
		profile = append(profile, AminoAcidCount{
			AminoAcid: string(aa),
			Count:     counts[aa],
			Percent:   float64(counts[aa]) / float64(total) * 100,
		})
	}
	return profile
}

// codonCategories buckets every codon of the residues present in the protein
// by usage frequency, with expected occurrence counts. Buckets are sorted by
// codon for determinism.
func codonCategories(protein string) (high, moderate, rare []CodonExpectation) {
	counts := countResidues(protein)

	for aa, count := range counts {
		for codon, freq := range ecoliCodonFreq[aa] {
			exp := CodonExpectation{
				Codon:     codon,
				AminoAcid: string(aa),
				Frequency: freq,
				Expected:  float64(count) * freq,
			}
			switch {
			case freq > highUsageThreshold:
				high = append(high, exp)
			case freq > moderateUsageThreshold:
				moderate = append(moderate, exp)
			default:
				rare = append(rare, exp)
			}
		}
	}

	byCodon := func(s []CodonExpectation) {
		sort.Slice(s, func(i, j int) bool { return s[i].Codon < s[j].Codon })
	}
	byCodon(high)
	byCodon(moderate)
	byCodon(rare)
	return high, moderate, rare
}

// classPercent returns the share of residues belonging to the given amino
// acid class.
func classPercent(counts map[byte]int, total int, class string) float64 {
	n := 0
	for i := 0; i < len(class); i++ {
		n += counts[class[i]]
	}
	return float64(n) / float64(total) * 100
}

// analyzeCodonUsage produces the full report for a protein sequence.
func analyzeCodonUsage(protein string) CodonUsageReport {
	counts := countResidues(protein)
	total := len(protein)

	high, moderate, rare := codonCategories(protein)

	profile := compositionProfile(protein)
	mostFrequent := make([]AminoAcidCount, len(profile))
	copy(mostFrequent, profile)
	sort.SliceStable(mostFrequent, func(i, j int) bool {
		return mostFrequent[i].Count > mostFrequent[j].Count
	})
	if len(mostFrequent) > 10 {
		mostFrequent = mostFrequent[:10]
	}

	return CodonUsageReport{
		Length:         total,
		Composition:    profile,
		HighlyUsed:     high,
		ModeratelyUsed: moderate,
		RarelyUsed:     rare,
		GCEstimate:     classPercent(counts, total, gcRichAminoAcids),
		HydrophobicPct: classPercent(counts, total, hydrophobicAminoAcids),
		ChargedPct:     classPercent(counts, total, chargedAminoAcids),
		PolarPct:       classPercent(counts, total, polarAminoAcids),
		MostFrequent:   mostFrequent,
	}
}

// reverseTranslate renders a protein back into DNA using each amino acid's
// most frequent codon for the organism.
func reverseTranslate(protein string) string {
	var b strings.Builder
	b.Grow(len(protein) * 3)
	for i := 0; i < len(protein); i++ {
		b.WriteString(preferredCodon(protein[i]))
	}
	return b.String()
}

// preferredCodon picks the highest-frequency codon for an amino acid,
// breaking frequency ties alphabetically so output is stable.
func preferredCodon(aa byte) string {
	best := ""
	bestFreq := -1.0
	for codon, freq := range ecoliCodonFreq[aa] {
		if freq > bestFreq || (freq == bestFreq && codon < best) {
			best = codon
			bestFreq = freq
		}
	}
	return best
}

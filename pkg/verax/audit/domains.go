package audit

import (
	"strings"
)

// DomainGeneral is the fallback domain for unmatched candidates.
const DomainGeneral = "general"

// builtinVocabulary maps each built-in domain to its keyword vocabulary.
// Matching is substring-based on lowercased text, so "boil" also covers
// "boils" and "boiling".
var builtinVocabulary = map[string][]string{
	"physics": {
		"boil", "freez", "temperature", "celsius", "°c", "fahrenheit",
		"kelvin", "gravity", "energy", "pressure", "mass", "velocity",
		"accelerat", "quantum", "photon", "speed of light", "atom",
		"electron", "magnetic", "radiation", "sea level", "density",
		"wavelength", "newton", "joule",
	},
	"biology": {
		"cell", "dna", "rna", "gene", "species", "protein", "enzyme",
		"virus", "bacteri", "evolution", "organism", "photosynthesis",
		"chromosome", "neuron", "immune", "metabolis", "habitat",
		"mammal", "ecosystem",
	},
	"history": {
		"century", "empire", "dynasty", "revolution", "founded",
		"ancient", "medieval", "treaty", "declared independence",
		"world war", "civil war", "colonial", "monarch", "reign",
		" bc", " ad ", "archaeolog", "historical",
	},
	"statistics": {
		"percent", "%", "average", "median", "mean value", "rate of",
		"survey", "population", "per capita", "statistic", "probability",
		"correlation", "sample size", "margin of error", "census",
		"million people", "billion people", "growth rate",
	},
}

// Classification is the result of domain classification for one candidate
type Classification struct {
	Domain    string
	Matches   int
	Certainty float64 // 0..1
}

// ClassifyDomain assigns a candidate statement to the best-matching domain.
// Custom domains participate with their name as a single-keyword
// vocabulary. Unmatched candidates land in general with reduced certainty.
func ClassifyDomain(candidate string, customDomains []string) Classification {
	ls := strings.ToLower(candidate)

	best := Classification{Domain: DomainGeneral, Certainty: 0.5}
	for _, domain := range []string{"physics", "biology", "history", "statistics"} {
		matches := countMatches(ls, builtinVocabulary[domain])
		if matches > best.Matches {
			best = Classification{Domain: domain, Matches: matches}
		}
	}
	for _, domain := range customDomains {
		matches := countMatches(ls, []string{strings.ToLower(domain)})
		if matches > best.Matches {
			best = Classification{Domain: domain, Matches: matches}
		}
	}

	if best.Matches > 0 {
		best.Certainty = float64(best.Matches) / 2
		if best.Certainty > 1 {
			best.Certainty = 1
		}
	}
	return best
}

func countMatches(lowered string, vocabulary []string) int {
	n := 0
	for _, kw := range vocabulary {
		if strings.Contains(lowered, kw) {
			n++
		}
	}
	return n
}

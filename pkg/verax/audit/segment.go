package audit

import (
	"strings"
	"unicode"
)

// opinionMarkers disqualify a sentence from being treated as a factual
// candidate when they appear near the start.
var opinionMarkers = []string{
	"i think", "i believe", "i feel", "in my opinion", "we believe",
	"arguably", "probably", "maybe", "perhaps", "it seems",
	"i guess", "personally", "honestly",
}

// SegmentSentences splits free-form text into candidate factual statements.
// Questions and opinion constructs are discarded; fragments shorter than
// three words carry no verifiable assertion and are dropped too.
func SegmentSentences(text string) []string {
	raw := splitSentences(text)

	candidates := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.HasSuffix(s, "?") {
			continue
		}
		if isOpinion(s) {
			continue
		}
		if len(strings.Fields(s)) < 3 {
			continue
		}
		candidates = append(candidates, s)
	}
	return candidates
}

// splitSentences performs sentence-level segmentation on terminal
// punctuation, keeping common abbreviations and decimal numbers intact.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Decimal point: digit on both sides.
		if r == '.' && i > 0 && i+1 < len(runes) &&
			unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			continue
		}

		// Abbreviations such as "Dr." or "e.g." keep the sentence open.
		if r == '.' && endsWithAbbreviation(b.String()) {
			continue
		}

		// Sentence boundary requires whitespace or end of input next.
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}

		out = append(out, b.String())
		b.Reset()
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

var abbreviations = []string{
	"dr.", "mr.", "mrs.", "ms.", "prof.", "st.", "vs.", "etc.",
	"e.g.", "i.e.", "approx.", "no.", "fig.",
}

func endsWithAbbreviation(s string) bool {
	ls := strings.ToLower(strings.TrimSpace(s))
	for _, abbr := range abbreviations {
		if strings.HasSuffix(ls, abbr) {
			return true
		}
	}
	return false
}

func isOpinion(sentence string) bool {
	ls := strings.ToLower(sentence)
	head := ls
	if len(head) > 40 {
		head = head[:40]
	}
	for _, marker := range opinionMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

package antifake

import (
	"fmt"
	"strings"
	"time"

	"github.com/verax-io/verax/pkg/verax/report"
)

// SignalDetector scans an ordered transcript for one category of
// manipulation signal. Detectors are stateless across calls and safe for
// concurrent use.
type SignalDetector interface {
	ID() string
	Scan(segments []Segment) []report.ManipulationSignal
}

// StandardDetectors returns the built-in detector set in scan order.
func StandardDetectors() []SignalDetector {
	return []SignalDetector{
		&EmotionalLoadingDetector{},
		&ContradictionDetector{},
		&EscalationDetector{},
	}
}

// EmotionalLoadingDetector flags segments saturated with emotionally
// loaded vocabulary.
type EmotionalLoadingDetector struct{}

var loadedLexicon = []string{
	"shocking", "outrageous", "unbelievable", "disaster", "catastrophe",
	"terrifying", "horrific", "devastating", "insane", "scandal",
	"corrupt", "fraud", "lies", "evil", "destroy", "urgent",
	"wake up", "they don't want you to know", "the truth about",
	"must watch", "exposed", "cover-up", "conspiracy",
}

// ID returns the detector identifier
func (d *EmotionalLoadingDetector) ID() string { return "emotional-loading" }

// Scan emits one signal per segment containing loaded vocabulary, with
// severity scaled by hit density.
func (d *EmotionalLoadingDetector) Scan(segments []Segment) []report.ManipulationSignal {
	var signals []report.ManipulationSignal

	for _, seg := range segments {
		lowered := strings.ToLower(seg.Text)
		hits := 0
		var matched []string
		for _, term := range loadedLexicon {
			if strings.Contains(lowered, term) {
				hits++
				matched = append(matched, term)
			}
		}
		if hits == 0 {
			continue
		}

		severity := report.SeverityLow
		if hits >= 3 {
			severity = report.SeverityHigh
		} else if hits == 2 {
			severity = report.SeverityMedium
		}

		confidence := float64(60 + 10*hits)
		if confidence > 95 {
			confidence = 95
		}

		signals = append(signals, report.ManipulationSignal{
			Type:           report.SignalEmotionalManipulation,
			Severity:       severity,
			TimestampStart: seg.Timestamp,
			TimestampEnd:   endOf(segments, seg.Index),
			Description:    fmt.Sprintf("Emotionally loaded language: %s", strings.Join(matched, ", ")),
			Evidence:       seg.Text,
			Confidence:     confidence,
		})
	}

	return signals
}

// ContradictionDetector flags pairs of segments that restate the same
// content with flipped negation.
type ContradictionDetector struct{}

var negationTerms = []string{"not", "never", "no", "didn't", "doesn't", "isn't", "wasn't", "won't", "can't", "nobody"}

// ID returns the detector identifier
func (d *ContradictionDetector) ID() string { return "contradiction" }

// Scan compares segment pairs for high lexical overlap with a negation
// mismatch, which is the transcript shape of "says X, later says not-X".
func (d *ContradictionDetector) Scan(segments []Segment) []report.ManipulationSignal {
	var signals []report.ManipulationSignal

	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			a, b := segments[i], segments[j]
			if !contradicts(a.Text, b.Text) {
				continue
			}

			signals = append(signals, report.ManipulationSignal{
				Type:           report.SignalContradiction,
				Severity:       report.SeverityHigh,
				TimestampStart: a.Timestamp,
				TimestampEnd:   b.Timestamp,
				Description: fmt.Sprintf("Segment %d contradicts segment %d: the same statement appears with flipped negation",
					b.Index, a.Index),
				Evidence:   fmt.Sprintf("%q vs %q", truncateText(a.Text, 80), truncateText(b.Text, 80)),
				Confidence: 80,
			})
		}
	}

	return signals
}

// contradicts reports whether two utterances share most content words while
// disagreeing on negation.
func contradicts(a, b string) bool {
	wordsA := contentWords(a)
	wordsB := contentWords(b)
	if len(wordsA) < 3 || len(wordsB) < 3 {
		return false
	}
	if jaccard(wordsA, wordsB) < 0.6 {
		return false
	}
	return hasNegation(a) != hasNegation(b)
}

// EscalationDetector flags runs of consecutive segments whose rhetorical
// intensity keeps climbing.
type EscalationDetector struct{}

var intensifiers = []string{
	"very", "extremely", "absolutely", "totally", "completely",
	"always", "never", "everyone", "nobody", "all of them", "every single",
}

// ID returns the detector identifier
func (d *EscalationDetector) ID() string { return "rhetorical-escalation" }

// Scan looks for windows of three or more segments with a non-decreasing,
// ultimately rising intensifier count.
func (d *EscalationDetector) Scan(segments []Segment) []report.ManipulationSignal {
	if len(segments) < 3 {
		return nil
	}

	counts := make([]int, len(segments))
	for i, seg := range segments {
		counts[i] = countTerms(seg.Text, intensifiers)
	}

	var signals []report.ManipulationSignal
	runStart := 0
	for i := 1; i <= len(segments); i++ {
		if i < len(segments) && counts[i] >= counts[i-1] {
			continue
		}

		// Run [runStart, i) has non-decreasing intensity.
		if i-runStart >= 3 && counts[i-1] >= 2 && counts[i-1] > counts[runStart] {
			signals = append(signals, report.ManipulationSignal{
				Type:           report.SignalRhetoricalEscalation,
				Severity:       report.SeverityMedium,
				TimestampStart: segments[runStart].Timestamp,
				TimestampEnd:   segments[i-1].Timestamp,
				Description: fmt.Sprintf("Rhetorical intensity rises across segments %d-%d (%d to %d intensifiers)",
					segments[runStart].Index, segments[i-1].Index, counts[runStart], counts[i-1]),
				Evidence:   truncateText(segments[i-1].Text, 120),
				Confidence: 70,
			})
		}
		runStart = i
	}

	return signals
}

// Helper functions

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "to": true, "of": true, "and": true, "or": true, "in": true,
	"on": true, "at": true, "it": true, "this": true, "that": true, "be": true,
	"have": true, "has": true, "had": true, "i": true, "you": true, "we": true,
	"they": true, "he": true, "she": true, "but": true, "so": true, "for": true,
}

func contentWords(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,:;!?\"'()[]")
		if w == "" || stopWords[w] {
			continue
		}
		if isNegationWord(w) {
			continue
		}
		out[w] = true
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func hasNegation(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if isNegationWord(strings.Trim(w, ".,:;!?\"'()[]")) {
			return true
		}
	}
	return false
}

func isNegationWord(w string) bool {
	for _, n := range negationTerms {
		if w == n {
			return true
		}
	}
	return false
}

func countTerms(s string, terms []string) int {
	lowered := strings.ToLower(s)
	n := 0
	for _, t := range terms {
		n += strings.Count(lowered, t)
	}
	return n
}

// endOf approximates a segment's end as the next segment's timestamp, or
// the segment's own start when it is last or untimed.
func endOf(segments []Segment, index int) time.Duration {
	if index+1 < len(segments) && segments[index+1].Timestamp != NoTimestamp {
		return segments[index+1].Timestamp
	}
	return segments[index].Timestamp
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

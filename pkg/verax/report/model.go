// Package report defines the structured verification report emitted by the
// Verax analysis core, along with risk-band classification and rendering.
package report

import (
	"time"
)

// SchemaVersion identifies the report wire format.
const SchemaVersion = "1.0"

// Mode identifies which analysis path produced a report.
type Mode string

const (
	// ModeText indicates plain-text claim analysis
	ModeText Mode = "text"
	// ModeVideo indicates timestamped-transcript analysis
	ModeVideo Mode = "video"
)

// Severity defines the severity levels for manipulation signals
type Severity string

const (
	// SeverityLow represents low severity signals
	SeverityLow Severity = "low"
	// SeverityMedium represents medium severity signals
	SeverityMedium Severity = "medium"
	// SeverityHigh represents high severity signals
	SeverityHigh Severity = "high"
)

// SignalType defines different categories of manipulation signals
type SignalType string

const (
	// SignalEmotionalManipulation represents heightened emotional language
	SignalEmotionalManipulation SignalType = "emotional-manipulation"
	// SignalContradiction represents internal contradictions across segments
	SignalContradiction SignalType = "contradiction"
	// SignalRhetoricalEscalation represents rhetorical intensity ramps
	SignalRhetoricalEscalation SignalType = "rhetorical-escalation"
)

// Evidence is one supporting or contradicting reference for a claim
type Evidence struct {
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
	Excerpt   string  `json:"excerpt,omitempty"`
}

// Claim is a single extracted factual assertion
type Claim struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	Domain         string     `json:"domain"`
	Confidence     float64    `json:"confidence"`
	RiskLevel      string     `json:"risk_level"`
	Evidence       []Evidence `json:"evidence,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
}

// ManipulationSignal is one detected anomaly in a transcript
type ManipulationSignal struct {
	Type           SignalType    `json:"type"`
	Severity       Severity      `json:"severity"`
	TimestampStart time.Duration `json:"timestamp_start_ms"`
	TimestampEnd   time.Duration `json:"timestamp_end_ms"`
	Description    string        `json:"description"`
	Evidence       string        `json:"evidence,omitempty"`
	Confidence     float64       `json:"confidence"`
}

// ProblematicSegment pairs a detected signal with an actionable recommendation
type ProblematicSegment struct {
	TimestampStart time.Duration `json:"timestamp_start_ms"`
	TimestampEnd   time.Duration `json:"timestamp_end_ms"`
	SignalType     SignalType    `json:"signal_type"`
	Recommendation string        `json:"recommendation"`
}

// SummaryStatistics aggregates the claims of a text-mode report
type SummaryStatistics struct {
	TotalClaims    int     `json:"total_claims"`
	HighRiskClaims int     `json:"high_risk_claims"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Metadata describes when and from what a report was produced
type Metadata struct {
	Timestamp        time.Time `json:"timestamp"`
	SchemaVersion    string    `json:"schema_version"`
	InputFingerprint string    `json:"input_fingerprint"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
}

// Report is the unified verification output. A Report is built once per
// dispatch and never mutated afterwards; detail pruning operates on copies.
type Report struct {
	Metadata Metadata `json:"metadata"`
	Mode     Mode     `json:"mode"`

	// Text-mode payload
	Claims  []Claim            `json:"claims,omitempty"`
	Summary *SummaryStatistics `json:"summary_statistics,omitempty"`

	// Video-mode payload
	Signals             []ManipulationSignal `json:"manipulation_signals,omitempty"`
	CoherenceScore      float64              `json:"coherence_score,omitempty"`
	IntegrityScore      float64              `json:"integrity_score,omitempty"`
	RiskLevel           string               `json:"risk_level,omitempty"`
	ProblematicSegments []ProblematicSegment `json:"problematic_segments,omitempty"`
}

// Summarize recomputes the rolled-up statistics for a set of claims.
// High-risk counts cover the critical and high bands of the supplied mapping.
func Summarize(claims []Claim, bands Bands) SummaryStatistics {
	stats := SummaryStatistics{TotalClaims: len(claims)}
	if len(claims) == 0 {
		return stats
	}

	var sum float64
	for _, c := range claims {
		sum += c.Confidence
		if bands.IsHighRisk(c.RiskLevel) {
			stats.HighRiskClaims++
		}
	}
	stats.MeanConfidence = sum / float64(len(claims))
	return stats
}

// Clone returns a deep copy of the report so that detail-level pruning
// never touches the cached original.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}

	out := *r

	if r.Claims != nil {
		out.Claims = make([]Claim, len(r.Claims))
		for i, c := range r.Claims {
			cc := c
			if c.Evidence != nil {
				cc.Evidence = make([]Evidence, len(c.Evidence))
				copy(cc.Evidence, c.Evidence)
			}
			out.Claims[i] = cc
		}
	}
	if r.Summary != nil {
		s := *r.Summary
		out.Summary = &s
	}
	if r.Signals != nil {
		out.Signals = make([]ManipulationSignal, len(r.Signals))
		copy(out.Signals, r.Signals)
	}
	if r.ProblematicSegments != nil {
		out.ProblematicSegments = make([]ProblematicSegment, len(r.ProblematicSegments))
		copy(out.ProblematicSegments, r.ProblematicSegments)
	}

	return &out
}

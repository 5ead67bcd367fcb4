package antifake

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verax-io/verax/pkg/verax/config"
	"github.com/verax-io/verax/pkg/verax/report"
)

// AgentName identifies this agent in dispatcher responses.
const AgentName = "antifake_video"

// Severity weights applied when computing the integrity score.
const (
	weightLow    = 5
	weightMedium = 12
	weightHigh   = 25
)

// Agent analyzes timestamped transcripts for manipulation signals
type Agent struct {
	detectors []SignalDetector
}

// NewAgent creates a video agent with the given detectors. An empty set
// selects the standard detectors.
func NewAgent(detectors ...SignalDetector) *Agent {
	if len(detectors) == 0 {
		detectors = StandardDetectors()
	}
	return &Agent{detectors: detectors}
}

// Analyze parses the transcript, runs every detector and computes the
// coherence and integrity scores. An empty or unparsable transcript yields
// a zero-score report at the lowest-confidence band rather than an error.
func (a *Agent) Analyze(ctx context.Context, transcript string, cfg *config.Config) (*report.Report, error) {
	start := time.Now()

	segments := ParseTranscript(transcript)
	if len(segments) == 0 {
		log.Warn().Msg("Transcript produced no segments")
		return &report.Report{
			Metadata: report.Metadata{
				Timestamp:     time.Now().UTC(),
				SchemaVersion: report.SchemaVersion,
			},
			Mode:      report.ModeVideo,
			RiskLevel: cfg.Bands.Lowest(),
		}, nil
	}

	var signals []report.ManipulationSignal
	for _, det := range a.detectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := det.Scan(segments)
		if len(found) > 0 {
			log.Debug().
				Str("detector", det.ID()).
				Int("signals", len(found)).
				Msg("Detector reported manipulation signals")
		}
		signals = append(signals, found...)
	}

	coherence := coherenceScore(segments, signals)
	integrity := integrityScore(signals)

	riskLevel, ok := cfg.Bands.Locate(integrity)
	if !ok {
		riskLevel = cfg.Bands.Lowest()
	}

	log.Info().
		Int("segments", len(segments)).
		Int("signals", len(signals)).
		Float64("coherence", coherence).
		Float64("integrity", integrity).
		Str("risk_level", riskLevel).
		Dur("elapsed", time.Since(start)).
		Msg("Completed anti-fake analysis")

	return &report.Report{
		Metadata: report.Metadata{
			Timestamp:     time.Now().UTC(),
			SchemaVersion: report.SchemaVersion,
		},
		Mode:                report.ModeVideo,
		Signals:             signals,
		CoherenceScore:      coherence,
		IntegrityScore:      integrity,
		RiskLevel:           riskLevel,
		ProblematicSegments: problematicSegments(signals),
	}, nil
}

// coherenceScore starts from 100 and penalizes contradictions and topic
// discontinuities between adjacent segments.
func coherenceScore(segments []Segment, signals []report.ManipulationSignal) float64 {
	contradictions := 0
	for _, s := range signals {
		if s.Type == report.SignalContradiction {
			contradictions++
		}
	}

	discontinuities := 0
	for i := 1; i < len(segments); i++ {
		prev := contentWords(segments[i-1].Text)
		cur := contentWords(segments[i].Text)
		if len(prev) >= 5 && len(cur) >= 5 && jaccard(prev, cur) < 0.1 {
			discontinuities++
		}
	}

	return clampScore(100 - 18*float64(contradictions) - 9*float64(discontinuities))
}

// integrityScore starts from 100 and subtracts a severity-weighted penalty
// per detected signal.
func integrityScore(signals []report.ManipulationSignal) float64 {
	penalty := 0.0
	for _, s := range signals {
		switch s.Severity {
		case report.SeverityHigh:
			penalty += weightHigh
		case report.SeverityMedium:
			penalty += weightMedium
		default:
			penalty += weightLow
		}
	}
	return clampScore(100 - penalty)
}

// problematicSegments pairs every signal with an actionable recommendation.
func problematicSegments(signals []report.ManipulationSignal) []report.ProblematicSegment {
	out := make([]report.ProblematicSegment, 0, len(signals))
	for _, s := range signals {
		out = append(out, report.ProblematicSegment{
			TimestampStart: s.TimestampStart,
			TimestampEnd:   s.TimestampEnd,
			SignalType:     s.Type,
			Recommendation: recommendationFor(s),
		})
	}
	return out
}

func recommendationFor(s report.ManipulationSignal) string {
	switch s.Type {
	case report.SignalContradiction:
		return "Review both segments and reconcile the contradictory statements before publishing"
	case report.SignalEmotionalManipulation:
		return fmt.Sprintf("Reformulate the %s-severity emotionally loaded passage in neutral language", s.Severity)
	case report.SignalRhetoricalEscalation:
		return "Break the escalating sequence with sourced, factual framing"
	default:
		return "Review the flagged segment manually"
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

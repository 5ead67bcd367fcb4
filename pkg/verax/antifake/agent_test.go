package antifake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verax-io/verax/pkg/verax/config"
	"github.com/verax-io/verax/pkg/verax/report"
)

func TestParseTranscriptInline(t *testing.T) {
	segments := ParseTranscript("[00:00:10] Speaker: welcome everyone [00:01:00] Expert: thanks for having me")

	require.Len(t, segments, 2)
	assert.Equal(t, 10*time.Second, segments[0].Timestamp)
	assert.Equal(t, "Speaker", segments[0].Speaker)
	assert.Equal(t, "welcome everyone", segments[0].Text)
	assert.Equal(t, time.Minute, segments[1].Timestamp)
	assert.Equal(t, "Expert", segments[1].Speaker)
}

func TestParseTranscriptMultiline(t *testing.T) {
	transcript := "[00:00:05] Host: the report came out today\n" +
		"[00:00:15] Guest: it covers the last decade\n" +
		"[99:99] this timestamp is malformed but the text stays\n"

	segments := ParseTranscript(transcript)
	require.Len(t, segments, 3)
	assert.Equal(t, 5*time.Second, segments[0].Timestamp)
	assert.Equal(t, NoTimestamp, segments[2].Timestamp)
	assert.Contains(t, segments[2].Text, "malformed")
}

func TestParseTranscriptNoTimestamps(t *testing.T) {
	segments := ParseTranscript("line one of plain talk\nline two follows")
	require.Len(t, segments, 2)
	for _, seg := range segments {
		assert.Equal(t, NoTimestamp, seg.Timestamp)
	}
}

func TestAnalyzeCleanTranscript(t *testing.T) {
	agent := NewAgent()
	cfg := config.Default()

	transcript := "[00:00:10] Host: the study followed two thousand participants\n" +
		"[00:00:25] Host: participants were observed by the study team for ten years\n" +
		"[00:00:40] Host: the observed participants completed the study questionnaire"

	rep, err := agent.Analyze(context.Background(), transcript, cfg)
	require.NoError(t, err)

	assert.Equal(t, report.ModeVideo, rep.Mode)
	assert.Empty(t, rep.Signals)
	assert.Equal(t, 100.0, rep.IntegrityScore)
	assert.GreaterOrEqual(t, rep.CoherenceScore, 0.0)
	assert.LessOrEqual(t, rep.CoherenceScore, 100.0)
	assert.Equal(t, "low", rep.RiskLevel)
}

func TestAnalyzeEmotionalManipulation(t *testing.T) {
	agent := NewAgent()
	cfg := config.Default()

	transcript := "[00:00:10] Host: this shocking scandal is an outrageous cover-up"

	rep, err := agent.Analyze(context.Background(), transcript, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, rep.Signals)

	signal := rep.Signals[0]
	assert.Equal(t, report.SignalEmotionalManipulation, signal.Type)
	assert.Equal(t, report.SeverityHigh, signal.Severity)
	assert.Less(t, rep.IntegrityScore, 100.0)
	require.Len(t, rep.ProblematicSegments, len(rep.Signals))
	assert.NotEmpty(t, rep.ProblematicSegments[0].Recommendation)
}

func TestAnalyzeContradiction(t *testing.T) {
	agent := NewAgent()
	cfg := config.Default()

	transcript := "[00:00:10] Host: the government report was released on Monday\n" +
		"[00:00:40] Host: the government report was not released on Monday"

	rep, err := agent.Analyze(context.Background(), transcript, cfg)
	require.NoError(t, err)

	var contradiction *report.ManipulationSignal
	for i := range rep.Signals {
		if rep.Signals[i].Type == report.SignalContradiction {
			contradiction = &rep.Signals[i]
		}
	}
	require.NotNil(t, contradiction, "expected a contradiction signal")
	assert.Equal(t, report.SeverityHigh, contradiction.Severity)
	assert.Less(t, rep.CoherenceScore, 100.0)
}

func TestAnalyzeEmptyTranscript(t *testing.T) {
	agent := NewAgent()
	cfg := config.Default()

	rep, err := agent.Analyze(context.Background(), "", cfg)
	require.NoError(t, err, "an empty transcript degrades, it does not fail")

	assert.Equal(t, 0.0, rep.CoherenceScore)
	assert.Equal(t, 0.0, rep.IntegrityScore)
	assert.Equal(t, "critical", rep.RiskLevel)
	assert.Empty(t, rep.Signals)
}

func TestAnalyzeScoresStayInRange(t *testing.T) {
	agent := NewAgent()
	cfg := config.Default()

	// Heavy manipulation load must floor at zero, never go negative.
	transcript := "[00:00:10] Host: shocking outrageous terrifying scandal fraud lies\n" +
		"[00:00:20] Host: devastating insane horrific cover-up conspiracy exposed\n" +
		"[00:00:30] Host: the report was released today\n" +
		"[00:00:40] Host: the report was not released today"

	rep, err := agent.Analyze(context.Background(), transcript, cfg)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, rep.IntegrityScore, 0.0)
	assert.LessOrEqual(t, rep.IntegrityScore, 100.0)
	assert.GreaterOrEqual(t, rep.CoherenceScore, 0.0)
	assert.LessOrEqual(t, rep.CoherenceScore, 100.0)

	name, ok := cfg.Bands.Locate(rep.IntegrityScore)
	require.True(t, ok)
	assert.Equal(t, name, rep.RiskLevel)
}

func TestEscalationDetector(t *testing.T) {
	segments := []Segment{
		{Index: 0, Timestamp: 10 * time.Second, Text: "the numbers look fine"},
		{Index: 1, Timestamp: 20 * time.Second, Text: "this is very concerning for everyone"},
		{Index: 2, Timestamp: 30 * time.Second, Text: "absolutely everyone is completely affected, always"},
	}

	signals := (&EscalationDetector{}).Scan(segments)
	require.Len(t, signals, 1)
	assert.Equal(t, report.SignalRhetoricalEscalation, signals[0].Type)
	assert.Equal(t, report.SeverityMedium, signals[0].Severity)
}

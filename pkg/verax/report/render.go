package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// DetailLevel controls how much of a report a renderer emits
type DetailLevel string

const (
	// DetailSummary keeps only aggregates
	DetailSummary DetailLevel = "summary"
	// DetailDetailed is the default middle ground: claims and signals
	// without evidence excerpts
	DetailDetailed DetailLevel = "detailed"
	// DetailFull includes every evidence field
	DetailFull DetailLevel = "full"
)

// Format identifies an output representation
type Format string

const (
	// FormatJSON is the machine-readable report
	FormatJSON Format = "json"
	// FormatMarkdown is the human-readable rendering
	FormatMarkdown Format = "markdown"
	// FormatPDF is the binary rendering
	FormatPDF Format = "pdf"
)

// ValidDetailLevel reports whether the given detail level is known.
func ValidDetailLevel(d DetailLevel) bool {
	switch d {
	case DetailSummary, DetailDetailed, DetailFull:
		return true
	}
	return false
}

// ValidFormat reports whether the given output format is known.
func ValidFormat(f Format) bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatPDF:
		return true
	}
	return false
}

// Prune returns a copy of the report reduced to the requested detail level.
// The receiver is never modified.
func (r *Report) Prune(level DetailLevel) *Report {
	out := r.Clone()

	switch level {
	case DetailFull:
		return out
	case DetailSummary:
		out.Claims = nil
		out.Signals = nil
		out.ProblematicSegments = nil
		return out
	default:
		for i := range out.Claims {
			for j := range out.Claims[i].Evidence {
				out.Claims[i].Evidence[j].Excerpt = ""
			}
		}
		for i := range out.Signals {
			out.Signals[i].Evidence = ""
		}
		return out
	}
}

// Render converts the report to the requested representation.
func (r *Report) Render(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(r, "", "  ")
	case FormatMarkdown:
		return []byte(r.Markdown()), nil
	case FormatPDF:
		return r.PDF()
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// Markdown renders the report as a human-readable markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder

	b.WriteString("# Verification Report\n\n")
	fmt.Fprintf(&b, "- Mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "- Generated: %s\n", r.Metadata.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", r.Metadata.InputFingerprint)
	fmt.Fprintf(&b, "- Processing time: %dms\n\n", r.Metadata.ProcessingTimeMS)

	if r.Mode == ModeText {
		if r.Summary != nil {
			b.WriteString("## Summary\n\n")
			fmt.Fprintf(&b, "- Total claims: %d\n", r.Summary.TotalClaims)
			fmt.Fprintf(&b, "- High-risk claims: %d\n", r.Summary.HighRiskClaims)
			fmt.Fprintf(&b, "- Mean confidence: %.1f\n\n", r.Summary.MeanConfidence)
		}
		if len(r.Claims) > 0 {
			b.WriteString("## Claims\n\n")
			for _, c := range r.Claims {
				fmt.Fprintf(&b, "### %s\n\n", c.ID)
				fmt.Fprintf(&b, "> %s\n\n", c.Text)
				fmt.Fprintf(&b, "- Domain: %s\n", c.Domain)
				fmt.Fprintf(&b, "- Confidence: %.1f\n", c.Confidence)
				fmt.Fprintf(&b, "- Risk level: %s\n", c.RiskLevel)
				if c.Recommendation != "" {
					fmt.Fprintf(&b, "- Recommendation: %s\n", c.Recommendation)
				}
				for _, ev := range c.Evidence {
					fmt.Fprintf(&b, "- Evidence: %s (relevance %.0f)", ev.Source, ev.Relevance)
					if ev.Excerpt != "" {
						fmt.Fprintf(&b, " — %s", ev.Excerpt)
					}
					b.WriteString("\n")
				}
				b.WriteString("\n")
			}
		}
		return b.String()
	}

	b.WriteString("## Scores\n\n")
	fmt.Fprintf(&b, "- Coherence: %.1f\n", r.CoherenceScore)
	fmt.Fprintf(&b, "- Integrity: %.1f\n", r.IntegrityScore)
	fmt.Fprintf(&b, "- Risk level: %s\n\n", r.RiskLevel)

	if len(r.Signals) > 0 {
		b.WriteString("## Manipulation Signals\n\n")
		for _, s := range r.Signals {
			fmt.Fprintf(&b, "- [%s → %s] %s (%s, confidence %.0f): %s\n",
				formatOffset(s.TimestampStart), formatOffset(s.TimestampEnd),
				s.Type, s.Severity, s.Confidence, s.Description)
		}
		b.WriteString("\n")
	}
	if len(r.ProblematicSegments) > 0 {
		b.WriteString("## Problematic Segments\n\n")
		for _, p := range r.ProblematicSegments {
			fmt.Fprintf(&b, "- [%s → %s] %s: %s\n",
				formatOffset(p.TimestampStart), formatOffset(p.TimestampEnd),
				p.SignalType, p.Recommendation)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// PDF renders the report into a single-column PDF document.
func (r *Report) PDF() ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Verification Report", false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, "Verification Report")
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 10)
	line := func(s string) {
		doc.MultiCell(0, 5, s, "", "L", false)
	}

	line(fmt.Sprintf("Mode: %s", r.Mode))
	line(fmt.Sprintf("Generated: %s", r.Metadata.Timestamp.Format(time.RFC3339)))
	line(fmt.Sprintf("Fingerprint: %s", r.Metadata.InputFingerprint))
	doc.Ln(4)

	if r.Mode == ModeText {
		if r.Summary != nil {
			line(fmt.Sprintf("Claims: %d (high-risk %d), mean confidence %.1f",
				r.Summary.TotalClaims, r.Summary.HighRiskClaims, r.Summary.MeanConfidence))
			doc.Ln(2)
		}
		for _, c := range r.Claims {
			doc.SetFont("Helvetica", "B", 10)
			line(fmt.Sprintf("%s [%s, confidence %.1f, risk %s]", c.ID, c.Domain, c.Confidence, c.RiskLevel))
			doc.SetFont("Helvetica", "", 10)
			line(c.Text)
			if c.Recommendation != "" {
				line("Recommendation: " + c.Recommendation)
			}
			doc.Ln(2)
		}
	} else {
		line(fmt.Sprintf("Coherence %.1f, integrity %.1f, risk %s", r.CoherenceScore, r.IntegrityScore, r.RiskLevel))
		doc.Ln(2)
		for _, s := range r.Signals {
			line(fmt.Sprintf("[%s - %s] %s (%s): %s",
				formatOffset(s.TimestampStart), formatOffset(s.TimestampEnd), s.Type, s.Severity, s.Description))
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func formatOffset(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Package audit implements the scientific audit agent: claim extraction,
// domain classification, evidence retrieval and confidence scoring for
// plain-text input.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/verax-io/verax/pkg/verax/config"
	"github.com/verax-io/verax/pkg/verax/report"
)

// AgentName identifies this agent in dispatcher responses.
const AgentName = "scientific_audit"

// Agent extracts and scores factual claims from plain text
type Agent struct {
	provider EvidenceProvider
	ranker   *SourceRanker
}

// NewAgent creates an audit agent with the given evidence provider. A nil
// provider selects the deterministic synthetic provider.
func NewAgent(provider EvidenceProvider) *Agent {
	if provider == nil {
		provider = NewSyntheticProvider()
	}
	return &Agent{
		provider: provider,
		ranker:   NewSourceRanker(),
	}
}

// Analyze extracts factual claims from text and scores each one. A single
// candidate failing classification or evidence lookup degrades to a
// zero-confidence general claim instead of aborting the analysis; only
// context cancellation stops the run.
func (a *Agent) Analyze(ctx context.Context, text string, cfg *config.Config) (*report.Report, error) {
	start := time.Now()

	candidates := SegmentSentences(text)
	log.Debug().
		Int("candidates", len(candidates)).
		Int("input_bytes", len(text)).
		Msg("Segmented input into factual candidates")

	claims := make([]report.Claim, 0, len(candidates))
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		claims = append(claims, a.scoreCandidate(ctx, candidate, cfg))
	}

	stats := report.Summarize(claims, cfg.Bands)

	log.Info().
		Int("claims", stats.TotalClaims).
		Int("high_risk", stats.HighRiskClaims).
		Float64("mean_confidence", stats.MeanConfidence).
		Dur("elapsed", time.Since(start)).
		Msg("Completed scientific audit")

	return &report.Report{
		Metadata: report.Metadata{
			Timestamp:     time.Now().UTC(),
			SchemaVersion: report.SchemaVersion,
		},
		Mode:    report.ModeText,
		Claims:  claims,
		Summary: &stats,
	}, nil
}

// scoreCandidate classifies and scores one candidate statement. Failures
// degrade rather than propagate.
func (a *Agent) scoreCandidate(ctx context.Context, candidate string, cfg *config.Config) report.Claim {
	claim := report.Claim{
		ID:   "claim-" + uuid.New().String(),
		Text: candidate,
	}

	cls := ClassifyDomain(candidate, cfg.CustomDomains)
	claim.Domain = cls.Domain

	sources := cfg.TrustedSources[cls.Domain]
	a.ranker.RegisterRanked(sources)

	evidence, err := a.provider.Lookup(ctx, candidate, sources)
	if err != nil {
		if ctx.Err() != nil {
			// Deadline handling belongs to the dispatcher; here the
			// candidate simply degrades like any other failure.
			log.Warn().Str("claim_id", claim.ID).Msg("Evidence lookup cancelled")
		} else {
			log.Warn().Err(err).Str("claim_id", claim.ID).Msg("Evidence lookup failed, degrading claim")
		}
		claim.Domain = DomainGeneral
		claim.Confidence = 0
		claim.RiskLevel = riskiestBand(cfg.Bands)
		claim.Recommendation = "Verification failed; treat this claim as unverified"
		return claim
	}

	claim.Evidence = evidence
	claim.Confidence = a.confidence(evidence, cls)

	if name, ok := cfg.Bands.Locate(claim.Confidence); ok {
		claim.RiskLevel = name
	} else {
		claim.RiskLevel = riskiestBand(cfg.Bands)
	}

	claim.Recommendation = recommendationFor(claim.RiskLevel, claim.Confidence, cfg.ConfidenceThreshold)
	return claim
}

// confidence combines source agreement, source trust ranking and
// classification certainty into a [0,100] score:
//
//	0.5 * mean evidence relevance
//	0.3 * trust score of the strongest source
//	0.2 * classification certainty (scaled to 100)
//
// Candidates with no available sources bottom out at 25 * certainty.
func (a *Agent) confidence(evidence []report.Evidence, cls Classification) float64 {
	if len(evidence) == 0 {
		return clamp(25 * cls.Certainty)
	}

	var relevanceSum float64
	topTrust := 0
	for _, ev := range evidence {
		relevanceSum += ev.Relevance
		if score := a.ranker.Score(ev.Source); score > topTrust {
			topTrust = score
		}
	}
	meanRelevance := relevanceSum / float64(len(evidence))

	return clamp(0.5*meanRelevance + 0.3*float64(topTrust) + 0.2*cls.Certainty*100)
}

func recommendationFor(riskLevel string, confidence, threshold float64) string {
	if confidence < threshold {
		return "Below the configured confidence threshold; verify against a primary source before publishing"
	}
	switch riskLevel {
	case "critical":
		return "Unverified claim; do not publish without corroboration"
	case "high":
		return "Verify against a primary source before publishing"
	case "medium":
		return "Cross-check with a second independent source"
	default:
		return "Consistent with trusted sources"
	}
}

// riskiestBand returns the band covering the bottom of the confidence
// scale, which is the failure band for degraded claims.
func riskiestBand(bands report.Bands) string {
	return bands.Lowest()
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

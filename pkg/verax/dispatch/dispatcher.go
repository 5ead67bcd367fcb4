// Package dispatch wires the verification core together: the command
// dispatcher, the batch processor and the pipeline hook adapter all route
// through the same execute path.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verax-io/verax/pkg/verax/antifake"
	"github.com/verax-io/verax/pkg/verax/audit"
	"github.com/verax-io/verax/pkg/verax/cache"
	"github.com/verax-io/verax/pkg/verax/config"
	"github.com/verax-io/verax/pkg/verax/detect"
	"github.com/verax-io/verax/pkg/verax/report"
	"github.com/verax-io/verax/pkg/verax/telemetry"
	"github.com/verax-io/verax/pkg/verax/verr"
)

// ModeAuto lets the mode detector pick the analysis path.
const ModeAuto = "auto"

// Analyzer is the capability both agents implement. The dispatcher resolves
// the input variant once and then treats agents uniformly.
type Analyzer interface {
	Analyze(ctx context.Context, content string, cfg *config.Config) (*report.Report, error)
}

// Request describes one verification call. Zero values select the spec
// defaults: auto mode, detailed output, JSON format, cache enabled.
type Request struct {
	Input               string
	Mode                string   // "auto", "text" or "video"; empty means auto
	ConfidenceThreshold *float64 // nil keeps the configured threshold
	DetailLevel         report.DetailLevel
	OutputFormat        report.Format
	DisableCache        bool
}

// Response is the result of one verification call. Errors are structured;
// Status is "error" exactly when Error is set.
type Response struct {
	Status           string         `json:"status"`
	Mode             report.Mode    `json:"mode,omitempty"`
	Agent            string         `json:"agent,omitempty"`
	Report           *report.Report `json:"report,omitempty"`
	Summary          string         `json:"summary,omitempty"`
	Rendered         []byte         `json:"-"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	Cached           bool           `json:"cached"`
	Error            *verr.Error    `json:"error,omitempty"`
}

// RiskLevel returns the overall risk of the response. Video reports carry
// it directly; text reports derive it from the mean claim confidence.
func (r *Response) RiskLevel(bands report.Bands) string {
	if r.Report == nil {
		return bands.Lowest()
	}
	if r.Report.RiskLevel != "" {
		return r.Report.RiskLevel
	}
	if r.Report.Summary != nil && r.Report.Summary.TotalClaims > 0 {
		if name, ok := bands.Locate(r.Report.Summary.MeanConfidence); ok {
			return name
		}
	}
	return bands.Lowest()
}

// Dispatcher resolves the mode, applies configuration, invokes the right
// agent and assembles the unified report.
type Dispatcher struct {
	cfg        *config.Config
	cache      *cache.Cache
	textAgent  Analyzer
	videoAgent Analyzer
	metrics    telemetry.Recorder
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTextAgent replaces the scientific audit agent.
func WithTextAgent(a Analyzer) Option { return func(d *Dispatcher) { d.textAgent = a } }

// WithVideoAgent replaces the anti-fake video agent.
func WithVideoAgent(a Analyzer) Option { return func(d *Dispatcher) { d.videoAgent = a } }

// WithRecorder attaches a telemetry recorder.
func WithRecorder(r telemetry.Recorder) Option { return func(d *Dispatcher) { d.metrics = r } }

// WithCache injects a cache, which tests use to control TTL behavior.
func WithCache(c *cache.Cache) Option { return func(d *Dispatcher) { d.cache = c } }

// NewDispatcher builds a dispatcher with its own cache and the standard
// agents.
func NewDispatcher(cfg *config.Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:        cfg,
		cache:      cache.New(time.Duration(cfg.CacheTTLSeconds) * time.Second),
		textAgent:  audit.NewAgent(nil),
		videoAgent: antifake.NewAgent(),
		metrics:    telemetry.NopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config exposes the dispatcher's configuration to its wrapping surfaces.
func (d *Dispatcher) Config() *config.Config { return d.cfg }

// Execute runs one verification call end to end. It never returns a Go
// error: every failure becomes a structured error response.
func (d *Dispatcher) Execute(ctx context.Context, req Request) *Response {
	start := time.Now()

	resp := d.execute(ctx, req, start)
	resp.ProcessingTimeMS = time.Since(start).Milliseconds()

	status := resp.Status
	d.metrics.RecordVerification(string(resp.Mode), status, time.Since(start))

	if resp.Error != nil {
		log.Warn().
			Str("kind", string(resp.Error.Kind)).
			Str("message", resp.Error.Message).
			Msg("Verification call failed")
	}

	return resp
}

func (d *Dispatcher) execute(ctx context.Context, req Request, start time.Time) *Response {
	content, vErr := d.resolveInput(req.Input)
	if vErr != nil {
		return errorResponse(vErr)
	}

	cfg := d.cfg
	if req.ConfidenceThreshold != nil {
		t := *req.ConfidenceThreshold
		if t < 0 || t > 100 {
			return errorResponse(verr.Validation(
				"confidence threshold must be within [0,100]",
				verr.FieldIssue{Field: "confidence_threshold", Issue: fmt.Sprintf("%g outside [0,100]", t)},
			))
		}
		override := *d.cfg
		override.ConfidenceThreshold = t
		cfg = &override
	}

	detail := req.DetailLevel
	if detail == "" {
		detail = report.DetailDetailed
	}
	if !report.ValidDetailLevel(detail) {
		return errorResponse(verr.Validation("unknown detail level",
			verr.FieldIssue{Field: "detail_level", Issue: fmt.Sprintf("unknown value %q", req.DetailLevel)}))
	}

	format := req.OutputFormat
	if format == "" {
		format = report.FormatJSON
	}
	if !report.ValidFormat(format) {
		return errorResponse(verr.Validation("unknown output format",
			verr.FieldIssue{Field: "output_format", Issue: fmt.Sprintf("unknown value %q", req.OutputFormat)}))
	}

	mode, vErr := d.resolveMode(req.Mode, content)
	if vErr != nil {
		return errorResponse(vErr)
	}

	agentName := audit.AgentName
	agent := d.textAgent
	if mode == report.ModeVideo {
		agentName = antifake.AgentName
		agent = d.videoAgent
	}

	// The cache key is content and mode only. Per-call threshold overrides
	// do not partition the cache: identical content reuses whichever report
	// was computed first, threshold or not.
	fingerprint := cache.Fingerprint(content)
	cacheKey := fingerprint + ":" + string(mode)
	useCache := cfg.CacheEnabled && !req.DisableCache

	if useCache {
		if cached, ok := d.cache.Get(cacheKey); ok {
			d.metrics.RecordCacheHit()
			log.Debug().Str("fingerprint", fingerprint).Msg("Serving verification report from cache")
			return d.finish(cached, mode, agentName, detail, format, true)
		}
		d.metrics.RecordCacheMiss()
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	rep, err := agent.Analyze(callCtx, content, cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errorResponse(verr.Timeout(
				fmt.Sprintf("analysis exceeded the %ds deadline", cfg.TimeoutSeconds)))
		}
		return errorResponse(verr.From(err))
	}

	rep.Metadata.InputFingerprint = fingerprint
	rep.Metadata.ProcessingTimeMS = time.Since(start).Milliseconds()

	if mode == report.ModeText {
		if rep.Summary != nil {
			d.metrics.RecordClaims(rep.Summary.TotalClaims)
		}
	} else {
		d.metrics.RecordSignals(len(rep.Signals))
	}

	if useCache {
		d.cache.Put(cacheKey, rep)
	}

	return d.finish(rep, mode, agentName, detail, format, false)
}

// finish prunes, renders and wraps a completed report.
func (d *Dispatcher) finish(rep *report.Report, mode report.Mode, agentName string, detail report.DetailLevel, format report.Format, cached bool) *Response {
	pruned := rep.Prune(detail)

	rendered, err := pruned.Render(format)
	if err != nil {
		return errorResponse(verr.Processing("failed to render report", err))
	}

	return &Response{
		Status:   "success",
		Mode:     mode,
		Agent:    agentName,
		Report:   pruned,
		Summary:  summarize(pruned),
		Rendered: rendered,
		Cached:   cached,
	}
}

// resolveInput validates the raw input and reads it from disk when it is
// path-shaped. A path-shaped input that does not resolve is an error; plain
// content is passed through untouched.
func (d *Dispatcher) resolveInput(input string) (string, *verr.Error) {
	if strings.TrimSpace(input) == "" {
		return "", verr.Validation("input must not be empty",
			verr.FieldIssue{Field: "input_data", Issue: "empty"})
	}

	if !looksLikePath(input) {
		return input, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return "", verr.NotFound(fmt.Sprintf("input file not found: %s", input))
		}
		return "", verr.NotFound(fmt.Sprintf("input file not readable: %s", input))
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", verr.Validation("input file is empty",
			verr.FieldIssue{Field: "input_data", Issue: "file contains no content"})
	}
	return string(data), nil
}

// looksLikePath distinguishes file-path inputs from raw content. Anything
// with a newline or over path length is content; otherwise a path separator
// prefix or a known text extension marks a path.
func looksLikePath(input string) bool {
	if strings.ContainsAny(input, "\n\r") || len(input) > 512 {
		return false
	}
	if strings.HasPrefix(input, "./") || strings.HasPrefix(input, "../") ||
		strings.HasPrefix(input, "/") || strings.HasPrefix(input, "~/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(input)) {
	case ".txt", ".md", ".srt", ".vtt", ".log", ".transcript":
		return !strings.Contains(input, " ")
	}
	return false
}

func (d *Dispatcher) resolveMode(mode, content string) (report.Mode, *verr.Error) {
	switch mode {
	case "", ModeAuto:
		return detect.DetectMode(content), nil
	case string(report.ModeText):
		return report.ModeText, nil
	case string(report.ModeVideo):
		return report.ModeVideo, nil
	default:
		return "", verr.Validation("unknown mode",
			verr.FieldIssue{Field: "mode", Issue: fmt.Sprintf("unknown value %q", mode)})
	}
}

// summarize produces the one-line human summary of a report.
func summarize(rep *report.Report) string {
	if rep.Mode == report.ModeText {
		if rep.Summary == nil || rep.Summary.TotalClaims == 0 {
			return "No verifiable claims found"
		}
		return fmt.Sprintf("%d claims analyzed, %d high-risk, mean confidence %.1f",
			rep.Summary.TotalClaims, rep.Summary.HighRiskClaims, rep.Summary.MeanConfidence)
	}
	return fmt.Sprintf("coherence %.1f, integrity %.1f, risk %s, %d manipulation signals",
		rep.CoherenceScore, rep.IntegrityScore, rep.RiskLevel, len(rep.Signals))
}

func errorResponse(e *verr.Error) *Response {
	return &Response{Status: "error", Error: e}
}

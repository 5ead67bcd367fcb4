package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/verax-io/verax/pkg/verax/config"
	"github.com/verax-io/verax/pkg/verax/verr"
)

// Pipeline lifecycle stages at which verification may run.
const (
	StageBeforeGenerate = "before_generate"
	StageAfterGenerate  = "after_generate"
	StageOnPublish      = "on_publish"
)

// Hook result statuses.
const (
	// HookCompleted means the analysis ran to completion
	HookCompleted = "completed"
	// HookProcessing means a non-blocking stage is completing off the
	// caller's critical path
	HookProcessing = "processing"
	// HookSkipped means the stage is disabled
	HookSkipped = "skipped"
)

// Event is delivered to registered event callbacks
type Event struct {
	Type      string `json:"type"`
	Stage     string `json:"stage"`
	Summary   string `json:"summary"`
	RiskLevel string `json:"risk_level"`
}

// EventCallback receives pipeline events such as high-risk warnings
type EventCallback func(Event)

// HookResult is the outcome of one pipeline hook invocation. For
// non-blocking stages the initial result reports "processing"; Wait
// resolves the completed result.
type HookResult struct {
	Status      string      `json:"status"`
	ShouldBlock bool        `json:"should_block"`
	Summary     string      `json:"summary,omitempty"`
	RiskLevel   string      `json:"risk_level,omitempty"`
	Error       *verr.Error `json:"error,omitempty"`

	done  chan struct{}
	final *HookResult
}

// Wait blocks until a pending non-blocking hook completes and returns the
// final result. Completed and skipped results return themselves at once.
func (h *HookResult) Wait(ctx context.Context) (*HookResult, error) {
	if h.done == nil {
		return h, nil
	}
	select {
	case <-h.done:
		return h.final, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HookAdapter wraps the dispatcher for invocation from an external content
// pipeline. Stage behavior (enabled, blocking, high-risk policy) comes from
// configuration; warning callbacks fire outside the caller's critical path.
type HookAdapter struct {
	dispatcher *Dispatcher

	mu        sync.RWMutex
	callbacks map[string][]EventCallback
}

// NewHookAdapter wraps a dispatcher for pipeline use.
func NewHookAdapter(d *Dispatcher) *HookAdapter {
	return &HookAdapter{
		dispatcher: d,
		callbacks:  make(map[string][]EventCallback),
	}
}

// RegisterEventCallback subscribes to an event type. The "warning" event
// carries high-risk detections from non-blocking stages.
func (h *HookAdapter) RegisterEventCallback(event string, fn EventCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks[event] = append(h.callbacks[event], fn)
}

// ExecuteHook runs verification for a pipeline stage. Blocking stages await
// the full analysis and may request a block; non-blocking stages return
// immediately with a pending handle and complete in the background.
func (h *HookAdapter) ExecuteHook(ctx context.Context, stage, content string) *HookResult {
	switch stage {
	case StageBeforeGenerate, StageAfterGenerate, StageOnPublish:
	default:
		return &HookResult{
			Status: "error",
			Error: verr.Validation("unknown hook stage",
				verr.FieldIssue{Field: "stage", Issue: fmt.Sprintf("unknown value %q", stage)}),
		}
	}

	sc := h.dispatcher.Config().StageConfig(stage)
	if !sc.Enabled {
		return &HookResult{Status: HookSkipped}
	}

	if sc.Blocking {
		return h.run(ctx, stage, content, sc)
	}

	pending := &HookResult{
		Status: HookProcessing,
		done:   make(chan struct{}),
	}

	// The analysis completes off the caller's critical path. The caller's
	// context does not bound the background work; cancelling a pending
	// hook has no side effects since nothing external is mutated until
	// the report is final.
	go func() {
		pending.final = h.run(context.Background(), stage, content, sc)
		close(pending.done)
	}()

	return pending
}

// run performs the dispatch and applies the stage's high-risk policy.
func (h *HookAdapter) run(ctx context.Context, stage, content string, sc config.HookStageConfig) *HookResult {
	resp := h.dispatcher.Execute(ctx, Request{Input: content})
	if resp.Error != nil {
		return &HookResult{Status: "error", Error: resp.Error}
	}

	bands := h.dispatcher.Config().Bands
	risk := resp.RiskLevel(bands)
	highRisk := bands.IsHighRisk(risk)

	result := &HookResult{
		Status:    HookCompleted,
		Summary:   resp.Summary,
		RiskLevel: risk,
	}

	if !highRisk || sc.OnHighRisk == config.PolicyIgnore {
		return result
	}

	if sc.OnHighRisk == config.PolicyBlock && sc.Blocking {
		result.ShouldBlock = true
	}

	// A blocking stage reports through the returned result; a non-blocking
	// stage cannot stop the pipeline, so the warning event is its only
	// signal and fires for both the warn and block policies.
	if !sc.Blocking {
		h.emit(Event{
			Type:      "warning",
			Stage:     stage,
			Summary:   resp.Summary,
			RiskLevel: risk,
		})
	}

	log.Warn().
		Str("stage", stage).
		Str("risk_level", risk).
		Bool("should_block", result.ShouldBlock).
		Msg("High-risk content detected by pipeline hook")

	return result
}

func (h *HookAdapter) emit(event Event) {
	h.mu.RLock()
	callbacks := append([]EventCallback(nil), h.callbacks[event.Type]...)
	h.mu.RUnlock()

	for _, fn := range callbacks {
		fn(event)
	}
}

package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verax-io/verax/pkg/verax/config"
	"github.com/verax-io/verax/pkg/verax/verr"
)

// highRiskTranscript carries one heavily loaded segment and a flat
// contradiction, which drives the integrity score into the high-risk bands.
const highRiskTranscript = "[00:00:10] Host: The government report was released on Monday.\n" +
	"[00:00:20] Host: This is a shocking scandal, an outrageous cover-up.\n" +
	"[00:00:30] Host: The government report was not released on Monday."

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestExecuteHookBlocksOnPublish(t *testing.T) {
	h := NewHookAdapter(newTestDispatcher(t))
	rec := &eventRecorder{}
	h.RegisterEventCallback("warning", rec.record)

	result := h.ExecuteHook(context.Background(), StageOnPublish, highRiskTranscript)

	assert.Equal(t, HookCompleted, result.Status)
	assert.True(t, result.ShouldBlock)
	assert.NotEmpty(t, result.RiskLevel)

	// Blocking stages report through the result, not the warning callback.
	assert.Empty(t, rec.all())
}

func TestExecuteHookPassesCleanContentOnPublish(t *testing.T) {
	h := NewHookAdapter(newTestDispatcher(t))
	rec := &eventRecorder{}
	h.RegisterEventCallback("warning", rec.record)

	result := h.ExecuteHook(context.Background(), StageOnPublish, "Water boils at 100°C at sea level.")

	assert.Equal(t, HookCompleted, result.Status)
	assert.False(t, result.ShouldBlock)
	assert.Empty(t, rec.all())
}

func TestExecuteHookNonBlockingStage(t *testing.T) {
	h := NewHookAdapter(newTestDispatcher(t))
	rec := &eventRecorder{}
	h.RegisterEventCallback("warning", rec.record)

	result := h.ExecuteHook(context.Background(), StageBeforeGenerate, highRiskTranscript)
	require.Equal(t, HookProcessing, result.Status)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	final, err := result.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, HookCompleted, final.Status)
	assert.False(t, final.ShouldBlock, "a non-blocking stage never blocks the pipeline")

	events := rec.all()
	require.Len(t, events, 1, "the warn policy surfaces a warning event")
	assert.Equal(t, StageBeforeGenerate, events[0].Stage)
}

func TestExecuteHookDisabledStage(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks[StageBeforeGenerate] = config.HookStageConfig{Enabled: false}

	h := NewHookAdapter(NewDispatcher(cfg))

	result := h.ExecuteHook(context.Background(), StageBeforeGenerate, highRiskTranscript)
	assert.Equal(t, HookSkipped, result.Status)
	assert.False(t, result.ShouldBlock)
}

func TestExecuteHookUnknownStage(t *testing.T) {
	h := NewHookAdapter(newTestDispatcher(t))

	result := h.ExecuteHook(context.Background(), "on_delete", "some content")
	assert.Equal(t, "error", result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, verr.KindValidation, result.Error.Kind)
}

func TestExecuteHookPropagatesDispatchErrors(t *testing.T) {
	h := NewHookAdapter(newTestDispatcher(t))

	result := h.ExecuteHook(context.Background(), StageOnPublish, "   ")
	assert.Equal(t, "error", result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, verr.KindValidation, result.Error.Kind)
}

func TestWaitOnCompletedResultReturnsItself(t *testing.T) {
	h := NewHookAdapter(newTestDispatcher(t))

	result := h.ExecuteHook(context.Background(), StageOnPublish, "Water boils at 100°C at sea level.")
	require.Equal(t, HookCompleted, result.Status)

	final, err := result.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, result, final)
}

func TestHighRiskPolicyIgnore(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks[StageOnPublish] = config.HookStageConfig{
		Enabled:    true,
		Blocking:   true,
		OnHighRisk: config.PolicyIgnore,
	}

	h := NewHookAdapter(NewDispatcher(cfg))
	rec := &eventRecorder{}
	h.RegisterEventCallback("warning", rec.record)

	result := h.ExecuteHook(context.Background(), StageOnPublish, highRiskTranscript)

	assert.Equal(t, HookCompleted, result.Status)
	assert.False(t, result.ShouldBlock)
	assert.Empty(t, rec.all())
}

package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verax-io/verax/pkg/verax/report"
	"github.com/verax-io/verax/pkg/verax/verr"
)

func TestProcessBatchPositionalResults(t *testing.T) {
	d := newTestDispatcher(t)

	requests := []Request{
		{Input: "Water boils at 100°C at sea level."},
		{Input: ""},
		{Input: transcriptInput},
		{Input: "The Roman empire fell in the fifth century."},
	}

	results := d.ProcessBatch(context.Background(), requests)
	require.Len(t, results, len(requests))

	assert.Equal(t, "success", results[0].Status)
	assert.Equal(t, report.ModeText, results[0].Mode)

	require.NotNil(t, results[1].Error, "the empty item fails without aborting its siblings")
	assert.Equal(t, verr.KindValidation, results[1].Error.Kind)

	assert.Equal(t, "success", results[2].Status)
	assert.Equal(t, report.ModeVideo, results[2].Mode)

	assert.Equal(t, "success", results[3].Status)
	assert.Equal(t, report.ModeText, results[3].Mode)
}

func TestProcessBatchEmpty(t *testing.T) {
	d := newTestDispatcher(t)
	assert.Empty(t, d.ProcessBatch(context.Background(), nil))
}

func TestExecuteAll(t *testing.T) {
	d := newTestDispatcher(t)

	results := d.ExecuteAll(context.Background(), []string{
		"Water boils at 100°C at sea level.",
		"About 60 percent of the population voted in the survey.",
	})

	require.Len(t, results, 2)
	for _, resp := range results {
		assert.Equal(t, "success", resp.Status)
		assert.Equal(t, report.ModeText, resp.Mode)
	}
}

func TestProcessBatchRespectsConcurrencyCap(t *testing.T) {
	d := newTestDispatcher(t)
	d.cfg.MaxConcurrentVerifications = 2

	inputs := make([]Request, 8)
	for i := range inputs {
		inputs[i] = Request{Input: "Water boils at 100°C at sea level.", DisableCache: true}
	}

	results := d.ProcessBatch(context.Background(), inputs)
	require.Len(t, results, 8)
	for _, resp := range results {
		assert.Equal(t, "success", resp.Status)
	}
}

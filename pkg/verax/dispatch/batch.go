package dispatch

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ProcessBatch runs many verification calls under the configured
// concurrency cap. Results are positionally aligned with the inputs
// regardless of completion order, and one item failing never aborts its
// siblings: failures occupy their position as error-shaped responses.
func (d *Dispatcher) ProcessBatch(ctx context.Context, requests []Request) []*Response {
	results := make([]*Response, len(requests))
	if len(requests) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxConcurrentVerifications)

	for i, req := range requests {
		g.Go(func() error {
			results[i] = d.Execute(gctx, req)
			return nil
		})
	}

	// Worker funcs never return errors; failures live inside the responses.
	_ = g.Wait()

	log.Info().
		Int("items", len(requests)).
		Int("max_concurrent", d.cfg.MaxConcurrentVerifications).
		Msg("Completed batch verification")

	return results
}

// ExecuteAll is a convenience wrapper for plain-string batch inputs using
// default request options.
func (d *Dispatcher) ExecuteAll(ctx context.Context, inputs []string) []*Response {
	requests := make([]Request, len(inputs))
	for i, input := range inputs {
		requests[i] = Request{Input: input}
	}
	return d.ProcessBatch(ctx, requests)
}

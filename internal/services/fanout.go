package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// fanoutCall is one upstream call of a request. run stores its own result; fallback resets
// that result to the degraded default when a best-effort call fails.
type fanoutCall struct {
	name     string
	required bool
	run      func(ctx context.Context) error
	fallback func()
}

// fanout runs every call concurrently and waits for all of them. A failing call never cancels
// its siblings. Best-effort failures are logged and replaced by their fallback; the first
// required failure, in declaration order, is returned unchanged.
func fanout(ctx context.Context, logger *slog.Logger, calls ...fanoutCall) error {
	var g errgroup.Group
	errs := make([]error, len(calls))

	for i, call := range calls {
		g.Go(func() error {
			errs[i] = call.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var firstRequired error
	for i, call := range calls {
		err := errs[i]
		if err == nil {
			continue
		}

		if call.required {
			if firstRequired == nil {
				firstRequired = err
			}
			continue
		}

		logger.WarnContext(ctx, "upstream call degraded",
			slog.String("call", call.name),
			slog.String("error", err.Error()),
		)
		if call.fallback != nil {
			call.fallback()
		}
	}

	return firstRequired
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agilboard/internal/shared/testutil"
)

func TestFanout(t *testing.T) {
	errUsers := errors.New("users down")
	errOther := errors.New("other down")

	t.Run("all calls succeed", func(t *testing.T) {
		logger, logs := testutil.NewTestLogger(t)
		var a, b int
		err := fanout(context.Background(), logger,
			fanoutCall{name: "a", required: true, run: func(context.Context) error { a = 1; return nil }},
			fanoutCall{name: "b", run: func(context.Context) error { b = 2; return nil }},
		)
		require.NoError(t, err)
		assert.Equal(t, 1, a)
		assert.Equal(t, 2, b)
		assert.Zero(t, logs.Count())
	})

	t.Run("best-effort failure applies fallback and logs", func(t *testing.T) {
		logger, logs := testutil.NewTestLogger(t)
		items := []string{"stale"}
		err := fanout(context.Background(), logger,
			fanoutCall{name: "required", required: true, run: func(context.Context) error { return nil }},
			fanoutCall{
				name:     "items",
				run:      func(context.Context) error { return errOther },
				fallback: func() { items = []string{} },
			},
		)
		require.NoError(t, err)
		assert.Empty(t, items)
		testutil.AssertLogContains(t, logs, slog.LevelWarn, "upstream call degraded")
		assert.True(t, logs.ContainsAttr("call", "items"))
	})

	t.Run("required failure is returned unchanged", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		err := fanout(context.Background(), logger,
			fanoutCall{name: "users", required: true, run: func(context.Context) error { return errUsers }},
		)
		assert.Same(t, errUsers, err)
	})

	t.Run("first required failure in declaration order wins", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		err := fanout(context.Background(), logger,
			fanoutCall{name: "slow", required: true, run: func(context.Context) error {
				time.Sleep(20 * time.Millisecond)
				return errUsers
			}},
			fanoutCall{name: "fast", required: true, run: func(context.Context) error { return errOther }},
		)
		assert.ErrorIs(t, err, errUsers)
	})

	t.Run("a failure does not cancel siblings", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		var finished atomic.Bool
		err := fanout(context.Background(), logger,
			fanoutCall{name: "users", required: true, run: func(context.Context) error { return errUsers }},
			fanoutCall{name: "slow", run: func(ctx context.Context) error {
				select {
				case <-time.After(30 * time.Millisecond):
					finished.Store(true)
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}},
		)
		require.Error(t, err)
		assert.True(t, finished.Load())
	})
}

package indexer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/qubic-markets/qx-indexer/internal/eventlog"
	"github.com/qubic-markets/qx-indexer/internal/rpc"
)

// fetchTickEvents wraps the remote fetch with the rate-limit retry policy:
// 429 responses are retried after the server's hint (or a fixed default) up
// to the attempt budget; every other error surfaces immediately.
func (e *Engine) fetchTickEvents(ctx context.Context, tick uint64) (*eventlog.TickEvents, error) {
	var events *eventlog.TickEvents
	var rateLimit *rpc.RateLimitError

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			&rateLimitBackOff{fallback: e.rateLimitDelay, last: &rateLimit},
			uint64(e.maxAttempts-1),
		),
		ctx,
	)

	err := backoff.RetryNotify(
		func() error {
			var err error
			events, err = e.client.GetTickEvents(ctx, tick)
			if err == nil {
				return nil
			}
			if errors.As(err, &rateLimit) {
				return err
			}
			return backoff.Permanent(err)
		},
		policy,
		func(err error, d time.Duration) {
			e.log.Warnw("tick events fetch rate limited", "tick", tick, "retry_in", d)
		},
	)
	if err != nil {
		return nil, err
	}

	return events, nil
}

// rateLimitBackOff waits the server-suggested delay when the last error
// carried one, otherwise a fixed default.
type rateLimitBackOff struct {
	fallback time.Duration
	last     **rpc.RateLimitError
}

func (b *rateLimitBackOff) NextBackOff() time.Duration {
	if rl := *b.last; rl != nil && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return b.fallback
}

func (b *rateLimitBackOff) Reset() {}

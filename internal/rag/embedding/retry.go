package embedding

import (
	"context"
	"time"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/pkg/logger_i"
)

// RetryPolicy bounds how a provider client retries transient upstream
// failures. Non-retryable errors (bad credentials, oversized input)
// surface immediately.
type RetryPolicy struct {
	Attempts    int
	BaseDelay   time.Duration
	CallTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:    config.EmbedRetryAttempts,
		BaseDelay:   config.EmbedRetryBaseDelay,
		CallTimeout: config.EmbedCallTimeout,
	}
}

// Do runs op with a per-call timeout, retrying with exponential
// backoff while the error stays retryable.
func (p RetryPolicy) Do(ctx context.Context, log *logger_i.Logger, op func(context.Context) error) error {
	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.CallTimeout)
		lastErr = op(callCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if !faults.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.Attempts {
			break
		}

		log.Warn("embedding call failed, backing off", "attempt", attempt, "delay", delay.String(), "error", lastErr)
		select {
		case <-ctx.Done():
			return faults.Wrap(faults.EmbeddingProvider, "embedding aborted while backing off", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}

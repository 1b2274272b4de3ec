package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/statebot/go-statebot/internal/metrics"
)

// backoffBase is the unit for exponential backoff between attempts:
// attempt N waits 2^N * backoffBase before attempt N+1. Variable so tests
// can shrink the waits.
var backoffBase = 500 * time.Millisecond

// #region determine-with-retry

// determineWithRetry drives the shared attempt loop for every provider:
// build the prompt once, call the provider's single-shot completion, parse
// and validate. Transport and parse failures share the same retry budget;
// the last error is returned after exhaustion.
func determineWithRetry(
	ctx context.Context,
	provider string,
	attempts int,
	states StateSet,
	facts []string,
	complete func(ctx context.Context, prompt string) (string, error),
) (Determination, error) {
	prompt := BuildPrompt(states, facts)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			log.Printf("[LLM] %s attempt %d/%d after error: %v", provider, attempt, attempts, lastErr)
			metrics.BackendRetries.WithLabelValues(provider).Inc()
			if err := sleepBackoff(ctx, attempt-1); err != nil {
				return Determination{}, err
			}
		}

		response, err := complete(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}

		det, err := ParseDetermination(response, states)
		if err != nil {
			lastErr = err
			continue
		}
		return det, nil
	}

	return Determination{}, fmt.Errorf("%s: %d attempts exhausted: %w", provider, attempts, lastErr)
}

// sleepBackoff waits 2^attempt * backoffBase or until ctx is done.
func sleepBackoff(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * backoffBase
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// #endregion determine-with-retry

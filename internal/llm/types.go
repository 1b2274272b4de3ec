package llm

import (
	"context"
	"time"
)

// #region state-set

// StateSet maps each state name to the ordered list of fact descriptions
// that qualify a caller as being in that state. Immutable after construction.
type StateSet map[string][]string

// #endregion state-set

// #region determination

// Determination is the structured verdict returned by a backend.
type Determination struct {
	State      string  `json:"state"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// #endregion determination

// #region client-interface

// Client abstracts an LLM backend so the bot can be tested without network
// access and providers can be swapped at construction time.
type Client interface {
	DetermineState(ctx context.Context, states StateSet, facts []string) (Determination, error)
}

// #endregion client-interface

// #region config

// Config holds common tuning knobs shared by all provider clients.
type Config struct {
	APIKey     string
	BaseURL    string        // empty means provider default
	Model      string        // empty means provider default
	Timeout    time.Duration // per-attempt HTTP timeout
	RetryCount int           // total attempts, including the first
}

// DefaultTimeout is the per-attempt HTTP timeout applied when Config.Timeout
// is zero.
const DefaultTimeout = 60 * time.Second

// DefaultRetryCount is the total number of attempts applied when
// Config.RetryCount is zero.
const DefaultRetryCount = 3

func (c Config) retryCount() int {
	if c.RetryCount > 0 {
		return c.RetryCount
	}
	return DefaultRetryCount
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// #endregion config

package bot

import (
	"time"

	"github.com/statebot/go-statebot/internal/llm"
)

// #region fact

// Fact carries one piece of textual evidence with optional provenance.
// Identity for dedup and removal is Content alone; two facts with the same
// text are interchangeable.
type Fact struct {
	Content string    `json:"content"`
	Source  string    `json:"source,omitempty"`
	At      time.Time `json:"at,omitempty"`
}

// #endregion fact

// #region transition

// Transition is an immutable audit record of one state change.
type Transition struct {
	ID    string    `json:"id"`
	From  string    `json:"from,omitempty"` // empty when transitioning out of the initial null state
	To    string    `json:"to"`
	At    time.Time `json:"at"`
	Facts []string  `json:"facts"` // snapshot of facts active at the instant of transition
}

// #endregion transition

// #region state-record

// StateRecord is the single mutable aggregate: current and previous state
// (empty string means none), active facts in insertion order with duplicates
// preserved, confidence of the latest determination, and the append-only
// transition history. All mutation goes through the owning Bot's mutex.
type StateRecord struct {
	CurrentState  string       `json:"currentState,omitempty"`
	PreviousState string       `json:"previousState,omitempty"`
	Facts         []string     `json:"facts"`
	Confidence    float64      `json:"confidence"`
	LastUpdated   time.Time    `json:"lastUpdated"`
	Transitions   []Transition `json:"transitions"`
	LastError     string       `json:"lastError,omitempty"`
}

// #endregion state-record

// #region trigger

// Trigger names the path that started a determination cycle.
type Trigger string

const (
	TriggerDebounce Trigger = "debounce"
	TriggerExplicit Trigger = "explicit"
)

// #endregion trigger

// #region recorder

// DeterminationAudit describes one completed determination cycle for the
// journal.
type DeterminationAudit struct {
	Trigger    Trigger
	State      string
	Confidence float64
	CacheHit   bool
	Error      string
	Duration   time.Duration
	At         time.Time
}

// Recorder persists transitions and determination audits. The journal
// package provides the SQLite implementation; a nil recorder disables
// persistence.
type Recorder interface {
	RecordTransition(t Transition) error
	RecordDetermination(a DeterminationAudit) error
}

// #endregion recorder

// #region options

// Options configures a Bot.
type Options struct {
	Provider llm.Provider // backend identifier; ignored when Client is set
	APIKey   string       // opaque credential passed through to the provider
	States   llm.StateSet // required, non-empty

	CacheExpiry   time.Duration // default 5 minutes
	CacheCapacity int           // default cache.DefaultCapacity
	DebounceTime  time.Duration // default 500ms
	RetryCount    int           // default 3 attempts total

	// DeterminationThreshold is the minimum confidence for a result to
	// change the current state. Zero selects the default of 0.7; set a
	// negative value to accept results at any confidence.
	DeterminationThreshold float64

	Client   llm.Client // optional injected backend, e.g. for tests
	Recorder Recorder   // optional journal
}

const (
	defaultCacheExpiry  = 5 * time.Minute
	defaultDebounceTime = 500 * time.Millisecond
	defaultThreshold    = 0.7
)

// #endregion options

package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/statebot/go-statebot/internal/cache"
	"github.com/statebot/go-statebot/internal/debounce"
	"github.com/statebot/go-statebot/internal/llm"
	"github.com/statebot/go-statebot/internal/metrics"
)

// #region bot-struct

// Bot owns one StateRecord and drives the determination cycle: fact
// mutations arm the debounce scheduler; after the quiet period (or on an
// explicit call) the cycle consults the cache, asks the backend on a miss,
// applies the result, and notifies subscribers.
type Bot struct {
	states    llm.StateSet
	client    llm.Client
	cache     *cache.Cache
	sched     *debounce.Scheduler
	recorder  Recorder
	threshold float64

	mu     sync.Mutex
	record StateRecord

	subMu  sync.Mutex
	subs   []subscriber
	nextID int

	// cycleMu serializes determination cycles. Each caller runs its own
	// cycle and snapshots the fact list after acquiring, so an explicit call
	// issued while a debounced cycle is in flight waits for it and then
	// determines against the facts as they stand, not the in-flight set.
	cycleMu sync.Mutex
}

type subscriber struct {
	id int
	fn func(StateRecord)
}

// #endregion bot-struct

// #region constructor

// New validates the options, selects the backend, and returns a Bot with an
// empty record and no current state.
func New(opts Options) (*Bot, error) {
	if len(opts.States) == 0 {
		return nil, fmt.Errorf("states must be non-empty")
	}

	client := opts.Client
	if client == nil {
		var err error
		client, err = llm.NewClient(opts.Provider, llm.Config{
			APIKey:     opts.APIKey,
			RetryCount: opts.RetryCount,
		})
		if err != nil {
			return nil, err
		}
	}

	expiry := opts.CacheExpiry
	if expiry <= 0 {
		expiry = defaultCacheExpiry
	}
	memo, err := cache.New(expiry, opts.CacheCapacity)
	if err != nil {
		return nil, err
	}

	quiet := opts.DebounceTime
	if quiet <= 0 {
		quiet = defaultDebounceTime
	}
	threshold := opts.DeterminationThreshold
	if threshold == 0 {
		threshold = defaultThreshold
	}

	b := &Bot{
		states:    opts.States,
		client:    client,
		cache:     memo,
		recorder:  opts.Recorder,
		threshold: threshold,
	}
	b.sched = debounce.New(quiet, b.debouncedFire)
	return b, nil
}

// Cache exposes the determination cache. Tests only.
func (b *Bot) Cache() *cache.Cache {
	return b.cache
}

// #endregion constructor

// #region fact-mutations

// AddFact appends one fact and arms the debounce scheduler.
func (b *Bot) AddFact(content string) {
	b.AddFacts([]string{content})
}

// AddFacts appends facts in order, duplicates preserved, and arms the
// debounce scheduler once for the whole batch.
func (b *Bot) AddFacts(contents []string) {
	b.mu.Lock()
	b.record.Facts = append(b.record.Facts, contents...)
	b.record.LastUpdated = time.Now()
	metrics.ActiveFacts.Set(float64(len(b.record.Facts)))
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(snap)
	b.sched.Trigger()
}

// AddFactRecords unwraps Fact values to their content and applies them as
// one batch. Source labels and timestamps ride along to the journal only.
func (b *Bot) AddFactRecords(facts []Fact) {
	contents := make([]string, len(facts))
	for i, f := range facts {
		contents[i] = f.Content
	}
	b.AddFacts(contents)
}

// RemoveFact removes every occurrence equal to content and arms the debounce
// scheduler. Removing an absent fact still counts as a mutation.
func (b *Bot) RemoveFact(content string) {
	b.mu.Lock()
	kept := b.record.Facts[:0]
	for _, f := range b.record.Facts {
		if f != content {
			kept = append(kept, f)
		}
	}
	b.record.Facts = kept
	b.record.LastUpdated = time.Now()
	metrics.ActiveFacts.Set(float64(len(b.record.Facts)))
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(snap)
	b.sched.Trigger()
}

// ClearFacts synchronously empties the fact list, nulls the current state,
// and zeroes confidence. The determination path is bypassed entirely: no
// backend call, and any pending debounced cycle is dropped.
func (b *Bot) ClearFacts() {
	b.sched.Cancel()

	b.mu.Lock()
	b.record.Facts = nil
	b.record.CurrentState = ""
	b.record.Confidence = 0
	b.record.LastUpdated = time.Now()
	metrics.ActiveFacts.Set(0)
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(snap)
}

// #endregion fact-mutations

// #region state-query

// State returns a defensive snapshot of the record.
func (b *Bot) State() StateRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// snapshotLocked copies the record so callers cannot mutate internal state.
// Transition fact slices are immutable once appended, so the top-level copies
// are sufficient. The copies are never nil, so an empty record serializes
// with facts and transitions as empty lists rather than null.
func (b *Bot) snapshotLocked() StateRecord {
	snap := b.record
	snap.Facts = append([]string{}, b.record.Facts...)
	snap.Transitions = append([]Transition{}, b.record.Transitions...)
	return snap
}

// #endregion state-query

// #region determine

// DetermineState cancels any pending debounced cycle and runs one cycle
// synchronously, returning the resulting state name. With zero facts this is
// a no-op that returns the existing current state without contacting the
// backend.
func (b *Bot) DetermineState(ctx context.Context) (string, error) {
	b.sched.Cancel()
	return b.runCycle(ctx, TriggerExplicit)
}

// debouncedFire runs the cycle on the scheduler goroutine. Errors are
// already attached to the record by the cycle; nobody awaits this path, so
// they are swallowed here.
func (b *Bot) debouncedFire() {
	if _, err := b.runCycle(context.Background(), TriggerDebounce); err != nil {
		log.Printf("[BOT] debounced determination failed: %v", err)
	}
}

func (b *Bot) runCycle(ctx context.Context, trigger Trigger) (string, error) {
	b.cycleMu.Lock()
	defer b.cycleMu.Unlock()
	return b.cycle(ctx, trigger)
}

func (b *Bot) cycle(ctx context.Context, trigger Trigger) (string, error) {
	start := time.Now()

	b.mu.Lock()
	facts := append([]string(nil), b.record.Facts...)
	current := b.record.CurrentState
	b.mu.Unlock()

	if len(facts) == 0 {
		metrics.Determinations.WithLabelValues("noop").Inc()
		return current, nil
	}

	if entry, ok := b.cache.Get(facts); ok {
		state := b.apply(llm.Determination{State: entry.State, Confidence: entry.Confidence}, facts, trigger, true, time.Since(start))
		return state, nil
	}

	det, err := b.client.DetermineState(ctx, b.states, facts)
	if err != nil {
		b.applyFailure(err, trigger, time.Since(start))
		return "", err
	}

	b.cache.Put(facts, det.State, det.Confidence)
	state := b.apply(det, facts, trigger, false, time.Since(start))
	return state, nil
}

// #endregion determine

// #region apply

// apply writes a determination into the record: a transition is appended iff
// the determined state differs from the current one and confidence meets the
// threshold; below-threshold results refresh confidence and timestamp only.
func (b *Bot) apply(det llm.Determination, facts []string, trigger Trigger, cacheHit bool, took time.Duration) string {
	now := time.Now()

	b.mu.Lock()
	b.record.LastError = ""
	b.record.Confidence = det.Confidence
	b.record.LastUpdated = now

	var transition *Transition
	switch {
	case det.Confidence < b.threshold && det.State != b.record.CurrentState:
		log.Printf("[BOT] confidence %.2f below threshold %.2f, keeping state %q over %q",
			det.Confidence, b.threshold, b.record.CurrentState, det.State)
	case det.State != b.record.CurrentState:
		t := Transition{
			ID:    uuid.New().String(),
			From:  b.record.CurrentState,
			To:    det.State,
			At:    now,
			Facts: facts,
		}
		b.record.Transitions = append(b.record.Transitions, t)
		b.record.PreviousState = b.record.CurrentState
		b.record.CurrentState = det.State
		transition = &t
		metrics.Transitions.Inc()
	}
	resulting := b.record.CurrentState
	snap := b.snapshotLocked()
	b.mu.Unlock()

	metrics.Determinations.WithLabelValues("success").Inc()
	metrics.DeterminationDuration.Observe(took.Seconds())

	b.notify(snap)

	if b.recorder != nil {
		if transition != nil {
			if err := b.recorder.RecordTransition(*transition); err != nil {
				log.Printf("[BOT] record transition: %v", err)
			}
		}
		audit := DeterminationAudit{
			Trigger:    trigger,
			State:      det.State,
			Confidence: det.Confidence,
			CacheHit:   cacheHit,
			Duration:   took,
			At:         now,
		}
		if err := b.recorder.RecordDetermination(audit); err != nil {
			log.Printf("[BOT] record determination: %v", err)
		}
	}
	return resulting
}

// applyFailure records the error message without discarding the current
// state. The stale state stays visible until a later cycle succeeds.
func (b *Bot) applyFailure(err error, trigger Trigger, took time.Duration) {
	now := time.Now()

	b.mu.Lock()
	b.record.LastError = err.Error()
	b.record.LastUpdated = now
	snap := b.snapshotLocked()
	b.mu.Unlock()

	metrics.Determinations.WithLabelValues("error").Inc()
	metrics.DeterminationDuration.Observe(took.Seconds())

	b.notify(snap)

	if b.recorder != nil {
		audit := DeterminationAudit{
			Trigger:  trigger,
			Error:    err.Error(),
			Duration: took,
			At:       now,
		}
		if recErr := b.recorder.RecordDetermination(audit); recErr != nil {
			log.Printf("[BOT] record determination: %v", recErr)
		}
	}
}

// #endregion apply

// #region reset

// Reset restores the record to its initial empty form and purges the cache.
// Subscribers are kept and receive the reset snapshot.
func (b *Bot) Reset() {
	b.sched.Cancel()
	b.cache.Purge()

	b.mu.Lock()
	b.record = StateRecord{LastUpdated: time.Now()}
	metrics.ActiveFacts.Set(0)
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(snap)
}

// #endregion reset

// #region subscribe

// Subscribe registers fn for synchronous delivery of a snapshot on every
// mutation, starting with the current state right now. The returned function
// unsubscribes.
func (b *Bot) Subscribe(fn func(StateRecord)) func() {
	b.subMu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.subMu.Unlock()

	deliver(fn, b.State())

	return func() {
		b.subMu.Lock()
		defer b.subMu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// notify delivers the snapshot to every subscriber in registration order. A
// panicking subscriber must not break delivery to the rest.
func (b *Bot) notify(snap StateRecord) {
	b.subMu.Lock()
	subs := append([]subscriber(nil), b.subs...)
	b.subMu.Unlock()

	for _, s := range subs {
		deliver(s.fn, snap)
	}
}

func deliver(fn func(StateRecord), snap StateRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[BOT] subscriber panic: %v", r)
		}
	}()
	fn(snap)
}

// #endregion subscribe

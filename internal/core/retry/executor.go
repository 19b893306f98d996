package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/europeana/metis-tools/internal/metrics"
)

// State is a step of the retry state machine.
type State int

const (
	StateAttempting State = iota
	StateWaiting
	StateSucceeded
	StateExhausted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateWaiting:
		return "waiting"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted || s == StateCancelled
}

// Transition describes one move of the state machine.
// Attempt is the number of attempts started so far.
type Transition struct {
	From    State
	To      State
	Attempt int
	Err     error
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger failed attempts are reported to.
func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.base = log
		}
	}
}

// WithObserver registers a callback invoked on every state transition.
func WithObserver(fn func(Transition)) Option {
	return func(e *Executor) {
		e.observe = fn
	}
}

// WithSleep replaces the context-aware wait between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// Executor retries a fallible operation under a fixed Policy.
// It holds no per-call state and may be shared.
type Executor struct {
	name    string
	policy  Policy
	base    *slog.Logger
	log     *slog.Logger
	observe func(Transition)
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates an Executor. name labels logs and metrics.
func New(name string, policy Policy, opts ...Option) *Executor {
	e := &Executor{
		name:   name,
		policy: policy,
		base:   slog.Default(),
		sleep:  sleepWithContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.base.With("operation", name)
	return e
}

// Named returns a copy of e reporting under a different operation name.
func (e *Executor) Named(name string) *Executor {
	c := *e
	c.name = name
	c.log = e.base.With("operation", name)
	return &c
}

// Name returns the operation name.
func (e *Executor) Name() string {
	return e.name
}

// Policy returns the retry policy.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Run executes op until it succeeds, the retry budget runs out, or ctx ends.
func (e *Executor) Run(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do executes op until it succeeds, the retry budget runs out, or ctx ends.
//
// On success the result is returned immediately. After more than
// Policy.Limit failures an *ExhaustedError wrapping the last failure is
// returned. If ctx ends while waiting between attempts a *CancelledError is
// returned and op is not called again.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero     T
		state    = StateAttempting
		attempts int
		lastErr  error
		cause    error
		delays   = e.policy.backOff()
	)

	for {
		switch state {
		case StateAttempting:
			if err := ctx.Err(); err != nil {
				cause = context.Cause(ctx)
				state = e.transition(state, StateCancelled, attempts, cause)
				continue
			}

			attempts++
			result, err := op(ctx)
			if err == nil {
				e.transition(state, StateSucceeded, attempts, nil)
				return result, nil
			}

			lastErr = err
			metrics.RetryFailedAttempts.WithLabelValues(e.name).Inc()

			if e.policy.exhausted(attempts) {
				e.log.Error("Operation failed, retry budget exhausted",
					"attempt", attempts,
					"retry_limit", e.policy.Limit.String(),
					"error", err)
				state = e.transition(state, StateExhausted, attempts, err)
				continue
			}

			e.log.Warn("Operation failed, retrying",
				"attempt", attempts,
				"retry_limit", e.policy.Limit.String(),
				"error", err)
			state = e.transition(state, StateWaiting, attempts, err)

		case StateWaiting:
			delay := delays.NextBackOff()
			if delay == backoff.Stop {
				e.log.Error("Operation failed, retry wait budget exhausted",
					"attempt", attempts,
					"max_elapsed", e.policy.MaxElapsed,
					"error", lastErr)
				state = e.transition(state, StateExhausted, attempts, lastErr)
				continue
			}
			e.log.Debug("Waiting before next attempt", "attempt", attempts, "delay", delay)
			if err := e.sleep(ctx, delay); err != nil {
				cause = context.Cause(ctx)
				if cause == nil {
					cause = err
				}
				state = e.transition(state, StateCancelled, attempts, cause)
				continue
			}
			state = e.transition(state, StateAttempting, attempts, nil)

		case StateExhausted:
			metrics.RetryExhausted.WithLabelValues(e.name).Inc()
			return zero, &ExhaustedError{Operation: e.name, Attempts: attempts, Err: lastErr}

		case StateCancelled:
			metrics.RetryCancelled.WithLabelValues(e.name).Inc()
			e.log.Info("Retry cancelled", "attempts", attempts, "cause", cause)
			return zero, &CancelledError{Operation: e.name, Attempts: attempts, Cause: cause}

		default:
			panic("retry: unreachable state " + state.String())
		}
	}
}

func (e *Executor) transition(from, to State, attempt int, err error) State {
	if e.observe != nil {
		e.observe(Transition{From: from, To: to, Attempt: attempt, Err: err})
	}
	return to
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

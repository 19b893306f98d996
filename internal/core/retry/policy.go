package retry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Limit is the number of retries allowed after the first failed attempt.
// A negative value means retries never run out.
type Limit int

// Unbounded retries until the operation succeeds or the context ends.
const Unbounded Limit = -1

// Bounded reports whether l is a finite retry budget.
func (l Limit) Bounded() bool {
	return l >= 0
}

func (l Limit) String() string {
	if !l.Bounded() {
		return "unbounded"
	}
	return strconv.Itoa(int(l))
}

// UnmarshalYAML accepts either a non-negative integer or "unbounded".
func (l *Limit) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseLimit(raw)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLimit parses a retry limit as written in configuration or flags.
func ParseLimit(s string) (Limit, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unbounded") {
		return Unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid retry limit %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid retry limit %q: must be non-negative or \"unbounded\"", s)
	}
	return Limit(n), nil
}

// Strategy selects how the wait between attempts evolves.
type Strategy string

const (
	// StrategyConstant waits Delay between every pair of attempts.
	StrategyConstant Strategy = "constant"
	// StrategyExponential starts at Delay and doubles up to MaxDelay.
	StrategyExponential Strategy = "exponential"
)

// Policy controls how an Executor retries a failing operation.
type Policy struct {
	Limit   Limit         `yaml:"limit"`
	Delay   time.Duration `yaml:"delay"`
	Backoff Strategy      `yaml:"backoff"` // constant (default) or exponential
	// MaxDelay caps exponential waits. Zero keeps the backoff default of 60s.
	MaxDelay time.Duration `yaml:"max_delay"`
	// MaxElapsed bounds the total time spent waiting. Zero means no bound.
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

// DefaultPolicy survives short infrastructure outages: it never gives up and
// waits a few seconds between attempts.
func DefaultPolicy() Policy {
	return Policy{
		Limit: Unbounded,
		Delay: 5 * time.Second,
	}
}

// Validate checks that the policy can be executed.
func (p Policy) Validate() error {
	if p.Delay < 0 {
		return fmt.Errorf("invalid retry delay %s: must not be negative", p.Delay)
	}
	switch p.Backoff {
	case "", StrategyConstant, StrategyExponential:
	default:
		return fmt.Errorf("invalid retry backoff %q: must be %q or %q", p.Backoff, StrategyConstant, StrategyExponential)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("invalid retry max_delay %s: must not be negative", p.MaxDelay)
	}
	if p.MaxDelay > 0 && p.MaxDelay < p.Delay {
		return fmt.Errorf("invalid retry max_delay %s: must not be below delay %s", p.MaxDelay, p.Delay)
	}
	if p.MaxElapsed < 0 {
		return fmt.Errorf("invalid retry max_elapsed %s: must not be negative", p.MaxElapsed)
	}
	return nil
}

func (p Policy) strategy() Strategy {
	if p.Backoff == "" {
		return StrategyConstant
	}
	return p.Backoff
}

func (p Policy) String() string {
	s := fmt.Sprintf("limit=%s delay=%s backoff=%s", p.Limit, p.Delay, p.strategy())
	if p.MaxDelay > 0 {
		s += fmt.Sprintf(" max_delay=%s", p.MaxDelay)
	}
	if p.MaxElapsed > 0 {
		s += fmt.Sprintf(" max_elapsed=%s", p.MaxElapsed)
	}
	return s
}

// exhausted reports whether failures has used up the retry budget.
func (p Policy) exhausted(failures int) bool {
	return p.Limit.Bounded() && failures > int(p.Limit)
}

// backOff builds a fresh delay schedule for one Do call.
// It returns backoff.Stop once MaxElapsed would be exceeded.
func (p Policy) backOff() backoff.BackOff {
	var b backoff.BackOff
	switch p.strategy() {
	case StrategyExponential:
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = p.Delay
		exp.RandomizationFactor = 0
		exp.Multiplier = 2
		if p.MaxDelay > 0 {
			exp.MaxInterval = p.MaxDelay
		}
		exp.Reset()
		b = exp
	default:
		b = backoff.NewConstantBackOff(p.Delay)
	}

	if p.MaxElapsed > 0 {
		return &waitBudget{BackOff: b, budget: p.MaxElapsed, remaining: p.MaxElapsed}
	}
	return b
}

// waitBudget stops a schedule once the summed waits would pass budget.
type waitBudget struct {
	backoff.BackOff
	budget    time.Duration
	remaining time.Duration
}

func (w *waitBudget) NextBackOff() time.Duration {
	d := w.BackOff.NextBackOff()
	if d == backoff.Stop || d > w.remaining {
		return backoff.Stop
	}
	w.remaining -= d
	return d
}

func (w *waitBudget) Reset() {
	w.BackOff.Reset()
	w.remaining = w.budget
}

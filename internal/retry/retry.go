// Package retry runs operations with bounded attempts and a delay schedule.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/clock"
)

// Backoff selects how the delay grows between attempts.
type Backoff int

const (
	// Linear waits Delay × attempt after each failed attempt.
	Linear Backoff = iota
	// Fixed waits Delay after every failed attempt.
	Fixed
)

func (b Backoff) String() string {
	if b == Fixed {
		return "fixed"
	}
	return "linear"
}

// ParseBackoff converts "linear" or "fixed" to a Backoff.
func ParseBackoff(s string) (Backoff, error) {
	switch s {
	case "", "linear":
		return Linear, nil
	case "fixed":
		return Fixed, nil
	}
	return Linear, fmt.Errorf("unknown backoff %q (expected linear or fixed)", s)
}

// Policy defines the retry budget for one operation.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     Backoff
	// Timeout bounds the whole run including delays. Zero means no bound.
	Timeout time.Duration
}

// Once is a policy that makes exactly one attempt.
var Once = Policy{MaxAttempts: 1}

// DelayAfter returns how long to wait after the given failed attempt (1-based).
func (p Policy) DelayAfter(attempt int) time.Duration {
	if p.Backoff == Fixed {
		return p.Delay
	}
	return p.Delay * time.Duration(attempt)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Op is the operation being retried. attempt is 1-based.
type Op func(ctx context.Context, attempt int) error

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable: Run returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// ExhaustedError is returned when every attempt failed. It unwraps to the
// last attempt's cause.
type ExhaustedError struct {
	Name     string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Name, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Runner executes policies against a clock, logging each failed attempt.
type Runner struct {
	Clock clock.Clock
	Log   *zap.Logger
}

// NewRunner returns a Runner. A nil logger is replaced with a no-op logger.
func NewRunner(c clock.Clock, log *zap.Logger) *Runner {
	if c == nil {
		c = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Clock: c, Log: log}
}

// Run calls op until it succeeds, returns a Permanent error, the policy is
// exhausted, the timeout elapses or ctx is done. op is always called at
// least once and never more than p.MaxAttempts times.
func (r *Runner) Run(ctx context.Context, name string, p Policy, op Op) (int, error) {
	limit := p.attempts()
	var deadline time.Time
	if p.Timeout > 0 {
		deadline = r.Clock.Now().Add(p.Timeout)
	}

	var last error
	attempt := 0
	for attempt < limit {
		attempt++
		err := op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		last = err

		log := r.Log.With(
			zap.String("op", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", limit),
			zap.Error(err),
		)

		var perm *permanentError
		if errors.As(err, &perm) {
			log.Warn("non-retryable error")
			return attempt, perm.err
		}
		if attempt == limit {
			log.Warn("attempt failed, no more retries")
			break
		}

		wait := p.DelayAfter(attempt)
		if !deadline.IsZero() {
			remaining := deadline.Sub(r.Clock.Now())
			if remaining <= 0 {
				log.Warn("attempt failed, retry timeout reached")
				break
			}
			if wait > remaining {
				wait = remaining
			}
		}
		log.Warn("attempt failed, retrying", zap.Duration("retry_delay", wait))
		if err := r.Clock.Sleep(ctx, wait); err != nil {
			return attempt, &ExhaustedError{Name: name, Attempts: attempt, Last: last}
		}
	}
	return attempt, &ExhaustedError{Name: name, Attempts: attempt, Last: last}
}

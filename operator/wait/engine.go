// Package wait implements bounded polling against the device: evaluate a
// predicate, suspend for the poll interval, repeat until satisfied, deadline,
// or cancellation.
package wait

import (
	"context"
	"errors"
	"time"

	"github.com/spance/android-operator/operator/faults"
)

type Status string

const (
	Satisfied Status = "satisfied"
	TimedOut  Status = "timed_out"
	Cancelled Status = "cancelled"
	Ambiguous Status = "ambiguous_match"
)

// MinPoll is the floor for poll intervals; anything shorter busy-spins.
const MinPoll = 10 * time.Millisecond

const (
	DefaultTimeout = 10 * time.Second
	DefaultPoll    = 500 * time.Millisecond
)

type Spec struct {
	Timeout time.Duration
	Poll    time.Duration
}

// normalize clamps the spec to its invariants: timeout >= poll >= MinPoll,
// both strictly positive.
func (s Spec) normalize() Spec {
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.Poll <= 0 {
		s.Poll = DefaultPoll
	}
	if s.Poll < MinPoll {
		s.Poll = MinPoll
	}
	if s.Timeout < s.Poll {
		s.Timeout = s.Poll
	}
	return s
}

// Predicate evaluates the target condition once. A true result carries the
// satisfying observation (matched element, toast text, current activity). An
// AmbiguousMatch fault aborts the loop with a distinct outcome; any other
// error aborts it as a failure.
type Predicate func(ctx context.Context) (bool, any, error)

type Outcome struct {
	Status      Status `json:"status"`
	Observation any    `json:"observation,omitempty"`
	Attempts    int    `json:"attempts"`
	Elapsed     time.Duration
}

// For runs the poll loop. Timeout is an outcome, not an error; callers decide
// whether it is a failure. Cancellation is observed within one poll interval.
func For(ctx context.Context, spec Spec, pred Predicate) (Outcome, error) {
	spec = spec.normalize()
	start := time.Now()
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{Status: Cancelled, Attempts: attempts, Elapsed: time.Since(start)}, nil
		}

		attempts++
		ok, observation, err := pred(ctx)
		if err != nil {
			if errors.Is(err, &faults.Fault{Kind: faults.AmbiguousMatch}) {
				return Outcome{
					Status:      Ambiguous,
					Observation: err.Error(),
					Attempts:    attempts,
					Elapsed:     time.Since(start),
				}, nil
			}
			return Outcome{Attempts: attempts, Elapsed: time.Since(start)}, err
		}
		if ok {
			return Outcome{
				Status:      Satisfied,
				Observation: observation,
				Attempts:    attempts,
				Elapsed:     time.Since(start),
			}, nil
		}

		elapsed := time.Since(start)
		if elapsed+spec.Poll >= spec.Timeout {
			// Not enough budget for another round; wait out the remainder so
			// the caller-visible duration matches the requested timeout.
			if remaining := spec.Timeout - elapsed; remaining > 0 {
				select {
				case <-ctx.Done():
					return Outcome{Status: Cancelled, Attempts: attempts, Elapsed: time.Since(start)}, nil
				case <-time.After(remaining):
				}
			}
			return Outcome{Status: TimedOut, Attempts: attempts, Elapsed: time.Since(start)}, nil
		}

		select {
		case <-ctx.Done():
			return Outcome{Status: Cancelled, Attempts: attempts, Elapsed: time.Since(start)}, nil
		case <-time.After(spec.Poll):
		}
	}
}

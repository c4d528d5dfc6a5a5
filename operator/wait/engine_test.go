package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spance/android-operator/operator/faults"
)

func TestForSatisfiedImmediately(t *testing.T) {
	outcome, err := For(context.Background(), Spec{Timeout: time.Second, Poll: 50 * time.Millisecond},
		func(ctx context.Context) (bool, any, error) {
			return true, "seen", nil
		})
	require.NoError(t, err)
	assert.Equal(t, Satisfied, outcome.Status)
	assert.Equal(t, "seen", outcome.Observation)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Less(t, outcome.Elapsed, 100*time.Millisecond)
}

func TestForTimesOutNearDeadline(t *testing.T) {
	start := time.Now()
	outcome, err := For(context.Background(), Spec{Timeout: 500 * time.Millisecond, Poll: 100 * time.Millisecond},
		func(ctx context.Context) (bool, any, error) {
			return false, nil, nil
		})
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, TimedOut, outcome.Status)
	assert.GreaterOrEqual(t, elapsed, 450*time.Millisecond)
	assert.Less(t, elapsed, 700*time.Millisecond)
	assert.GreaterOrEqual(t, outcome.Attempts, 4)
	assert.LessOrEqual(t, outcome.Attempts, 6)
}

func TestForSatisfiedMidway(t *testing.T) {
	calls := 0
	start := time.Now()
	outcome, err := For(context.Background(), Spec{Timeout: time.Second, Poll: 50 * time.Millisecond},
		func(ctx context.Context) (bool, any, error) {
			calls++
			return calls == 3, calls, nil
		})
	require.NoError(t, err)

	assert.Equal(t, Satisfied, outcome.Status)
	assert.Equal(t, 3, outcome.Attempts)
	// Two sleeps of 50ms each, well short of the 1s budget.
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestForCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(80 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	outcome, err := For(ctx, Spec{Timeout: 5 * time.Second, Poll: 100 * time.Millisecond},
		func(ctx context.Context) (bool, any, error) {
			return false, nil, nil
		})
	require.NoError(t, err)

	assert.Equal(t, Cancelled, outcome.Status)
	// Observed within roughly one poll interval of the cancel.
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}

func TestForAmbiguousMatchAborts(t *testing.T) {
	calls := 0
	outcome, err := For(context.Background(), Spec{Timeout: time.Second, Poll: 20 * time.Millisecond},
		func(ctx context.Context) (bool, any, error) {
			calls++
			return false, nil, faults.New(faults.AmbiguousMatch, "2 elements match")
		})
	require.NoError(t, err)

	assert.Equal(t, Ambiguous, outcome.Status)
	assert.Equal(t, 1, calls)
}

func TestForPredicateErrorAborts(t *testing.T) {
	boom := errors.New("adb gone")
	_, err := For(context.Background(), Spec{Timeout: time.Second, Poll: 20 * time.Millisecond},
		func(ctx context.Context) (bool, any, error) {
			return false, nil, boom
		})
	assert.ErrorIs(t, err, boom)
}

func TestSpecNormalize(t *testing.T) {
	s := Spec{}.normalize()
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, DefaultPoll, s.Poll)

	s = Spec{Timeout: time.Second, Poll: time.Nanosecond}.normalize()
	assert.Equal(t, MinPoll, s.Poll)

	// Timeout shorter than poll is raised to one full poll.
	s = Spec{Timeout: 5 * time.Millisecond, Poll: 50 * time.Millisecond}.normalize()
	assert.Equal(t, 50*time.Millisecond, s.Timeout)
}

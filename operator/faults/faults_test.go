package faults

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKeepsClassifiedKind(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{New(NoDevice, "no reachable device"), NoDevice},
		{New(TimedOut, "element not found within 5.0s"), TimedOut},
		{New(AmbiguousMatch, "2 elements match"), AmbiguousMatch},
		{New(PreconditionUnmet, "screen is locked"), PreconditionUnmet},
		{New(InvalidArgument, "missing required argument %q", "selector"), InvalidArgument},
		{New(UnknownTool, "unknown tool: fly"), UnknownTool},
	}
	for _, c := range cases {
		f := Normalize(c.err)
		assert.Equal(t, c.kind, f.Kind)
		assert.NotEmpty(t, f.Message)
	}
}

func TestNormalizeWrappedFault(t *testing.T) {
	cause := errors.New("adb: device offline")
	err := fmt.Errorf("during tap: %w", Wrap(DeviceOperation, cause, "input tap failed"))

	f := Normalize(err)
	assert.Equal(t, DeviceOperation, f.Kind)
	assert.Contains(t, f.Message, "input tap failed")
	assert.Contains(t, f.Message, "device offline")
}

func TestNormalizeContextErrors(t *testing.T) {
	assert.Equal(t, Cancelled, Normalize(context.Canceled).Kind)
	assert.Equal(t, TimedOut, Normalize(context.DeadlineExceeded).Kind)

	wrapped := fmt.Errorf("polling: %w", context.Canceled)
	assert.Equal(t, Cancelled, Normalize(wrapped).Kind)
}

func TestNormalizeUnclassified(t *testing.T) {
	f := Normalize(errors.New("exit status 1"))
	assert.Equal(t, DeviceOperation, f.Kind)
	assert.Equal(t, "exit status 1", f.Message)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	a := Normalize(New(TimedOut, "t"))
	b := Normalize(New(TimedOut, "t"))
	assert.Equal(t, a.Kind, b.Kind)
}

func TestIsMatchesOnKind(t *testing.T) {
	err := Wrap(AmbiguousMatch, errors.New("details"), "2 elements match")

	assert.True(t, errors.Is(err, &Fault{Kind: AmbiguousMatch}))
	assert.False(t, errors.Is(err, &Fault{Kind: TimedOut}))

	wrapped := fmt.Errorf("while waiting: %w", err)
	assert.True(t, errors.Is(wrapped, &Fault{Kind: AmbiguousMatch}))
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(New(NoDevice, "gone"))
	require.True(t, ok)
	assert.Equal(t, NoDevice, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(DeviceOperation, cause, "dumping hierarchy")

	assert.Contains(t, err.Error(), "device_operation")
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, cause, errors.Unwrap(err))
}

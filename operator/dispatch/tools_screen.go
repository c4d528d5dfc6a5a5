package dispatch

import (
	"context"

	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
	"github.com/spance/android-operator/operator/wait"
)

func (s *service) screenTools() []*Tool {
	return []*Tool{
		{
			Name:        "screen_on",
			Description: "Turn the device screen on",
			Handler: func(ctx context.Context, args Args) (any, error) {
				return s.setScreen(ctx, true)
			},
		},
		{
			Name:        "screen_off",
			Description: "Turn the device screen off",
			Handler: func(ctx context.Context, args Args) (any, error) {
				return s.setScreen(ctx, false)
			},
		},
		{
			Name:        "unlock_screen",
			Description: "Wake the device and dismiss a swipe lockscreen. PIN, pattern, and biometric locks cannot be bypassed.",
			Handler:     s.handleUnlockScreen,
		},
		{
			Name:        "wait_for_screen_on",
			Description: "Wait until the device screen is on, up to the timeout",
			Params:      []Param{timeoutParam("timeout", 30.0)},
			Handler:     s.handleWaitForScreenOn,
		},
	}
}

func (s *service) setScreen(ctx context.Context, on bool) (any, error) {
	err := s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.SetScreen(ctx, h, on)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"screen_on": on}, nil
}

// handleUnlockScreen is a two phase composite: wake the screen, probe the
// keyguard, and only when still locked run the unlock gesture and probe
// again. No compensation is attempted when the second probe still reports
// locked.
func (s *service) handleUnlockScreen(ctx context.Context, args Args) (any, error) {
	var unlocked bool
	err := s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		on, err := s.driver.ScreenOn(ctx, h)
		if err != nil {
			return err
		}
		if !on {
			if err := s.driver.SetScreen(ctx, h, true); err != nil {
				return err
			}
		}

		locked, err := s.driver.Locked(ctx, h)
		if err != nil {
			return err
		}
		if !locked {
			unlocked = true
			return nil
		}

		if err := s.driver.UnlockGesture(ctx, h); err != nil {
			return err
		}
		locked, err = s.driver.Locked(ctx, h)
		if err != nil {
			return err
		}
		unlocked = !locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, faults.New(faults.PreconditionUnmet,
			"device is still locked after unlock gesture, a secure lockscreen may be active")
	}
	return map[string]any{"unlocked": true}, nil
}

type timeoutRequest struct {
	Timeout float64 `mapstructure:"timeout"`
}

func (s *service) handleWaitForScreenOn(ctx context.Context, args Args) (any, error) {
	req, err := decode[timeoutRequest](args)
	if err != nil {
		return nil, err
	}

	outcome, err := wait.For(ctx, waitSpec(seconds(req.Timeout)),
		wait.ScreenOn(s.sessions, s.driver))
	if err != nil {
		return nil, err
	}
	if err := outcomeError(outcome); err != nil {
		return nil, err
	}
	return map[string]any{
		"screen_on":  outcome.Status == wait.Satisfied,
		"status":     outcome.Status,
		"elapsed_ms": outcome.Elapsed.Milliseconds(),
	}, nil
}

package dispatch

import (
	"context"

	"github.com/spance/android-operator/operator/faults"
	"github.com/spance/android-operator/operator/wait"
)

func (s *service) advancedTools() []*Tool {
	return []*Tool{
		{
			Name:        "get_toast",
			Description: "Capture the most recent toast message, waiting up to the timeout for one to appear",
			Params: []Param{
				timeoutParam("timeout", 10.0),
			},
			Handler: s.handleGetToast,
		},
		{
			Name:        "wait_activity",
			Description: "Wait for a specific activity to come to the foreground",
			Params: []Param{
				{Name: "activity", Type: TypeString, Required: true,
					Description: "Activity name to wait for, fully qualified or dot-prefixed shorthand"},
				timeoutParam("timeout", 10.0),
			},
			Handler: s.handleWaitActivity,
		},
	}
}

func (s *service) handleGetToast(ctx context.Context, args Args) (any, error) {
	req, err := decode[timeoutRequest](args)
	if err != nil {
		return nil, err
	}

	outcome, err := wait.For(ctx, waitSpec(seconds(req.Timeout)),
		wait.ToastShown(s.sessions, s.driver))
	if err != nil {
		return nil, err
	}
	if err := outcomeError(outcome); err != nil {
		return nil, err
	}

	result := map[string]any{
		"status":     outcome.Status,
		"elapsed_ms": outcome.Elapsed.Milliseconds(),
	}
	if outcome.Status == wait.Satisfied {
		result["toast"] = outcome.Observation
	} else {
		result["toast"] = ""
	}
	return result, nil
}

type waitActivityRequest struct {
	Activity string  `mapstructure:"activity"`
	Timeout  float64 `mapstructure:"timeout"`
}

func (s *service) handleWaitActivity(ctx context.Context, args Args) (any, error) {
	req, err := decode[waitActivityRequest](args)
	if err != nil {
		return nil, err
	}

	outcome, err := wait.For(ctx, waitSpec(seconds(req.Timeout)),
		wait.ActivityCurrent(s.sessions, s.driver, req.Activity))
	if err != nil {
		return nil, err
	}
	if err := outcomeError(outcome); err != nil {
		return nil, err
	}
	if outcome.Status == wait.TimedOut {
		return nil, faults.New(faults.TimedOut,
			"activity %s not in foreground within %.1fs", req.Activity, req.Timeout)
	}
	return map[string]any{
		"activity":   req.Activity,
		"status":     outcome.Status,
		"elapsed_ms": outcome.Elapsed.Milliseconds(),
	}, nil
}

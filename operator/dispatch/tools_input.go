package dispatch

import (
	"context"

	"github.com/spance/android-operator/operator/adb"
	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
	"github.com/spance/android-operator/operator/wait"
)

func (s *service) inputTools() []*Tool {
	return []*Tool{
		{
			Name:        "press_key",
			Description: "Press a hardware or software key. Common keys: home, back, menu, volume_up, volume_down, power, enter, delete",
			Params: []Param{
				{Name: "key", Type: TypeString, Required: true,
					Description: "Key name, or a raw KEYCODE_* constant"},
			},
			Handler: s.handlePressKey,
		},
		{
			Name:        "click",
			Description: "Click a UI element found by text, resource ID, or content description. The first match is used when several elements match.",
			Params: append(locatorParams(),
				timeoutParam("timeout", 10.0)),
			Handler: s.handleClick,
		},
		{
			Name:        "long_click",
			Description: "Press and hold a UI element. The locator must match exactly one element.",
			Params: append(locatorParams(),
				Param{Name: "duration", Type: TypeNumber, Default: 1.0,
					Description: "Hold duration in seconds (default: 1.0)"}),
			Handler: s.handleLongClick,
		},
		{
			Name:        "send_text",
			Description: "Type text into the currently focused input field, optionally clearing it first. Focus the field with click before using this.",
			Params: []Param{
				{Name: "text", Type: TypeString, Required: true, Description: "The text to type"},
				{Name: "clear", Type: TypeBoolean, Default: true,
					Description: "Clear existing text first (default: true)"},
			},
			Handler: s.handleSendText,
		},
		{
			Name:        "swipe",
			Description: "Swipe from one coordinate to another. Used for scrolling, paging, and custom gestures.",
			Params: []Param{
				{Name: "x1", Type: TypeInteger, Required: true, Description: "Start X"},
				{Name: "y1", Type: TypeInteger, Required: true, Description: "Start Y"},
				{Name: "x2", Type: TypeInteger, Required: true, Description: "End X"},
				{Name: "y2", Type: TypeInteger, Required: true, Description: "End Y"},
				{Name: "duration", Type: TypeNumber, Default: 0.5,
					Description: "Swipe duration in seconds (default: 0.5)"},
			},
			Handler: s.handleSwipe,
		},
		{
			Name:        "drag",
			Description: "Drag a UI element to a target coordinate. The locator must match exactly one element.",
			Params: append(locatorParams(),
				Param{Name: "x", Type: TypeInteger, Required: true, Description: "Target X"},
				Param{Name: "y", Type: TypeInteger, Required: true, Description: "Target Y"}),
			Handler: s.handleDrag,
		},
	}
}

func (s *service) handlePressKey(ctx context.Context, args Args) (any, error) {
	req, err := decode[struct {
		Key string `mapstructure:"key"`
	}](args)
	if err != nil {
		return nil, err
	}
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.PressKey(ctx, h, req.Key)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"pressed": req.Key}, nil
}

type clickRequest struct {
	locatorRequest `mapstructure:",squash"`
	Timeout        float64 `mapstructure:"timeout"`
}

// resolveElement waits for the locator to yield an element, honoring the
// per-tool first-match policy.
func (s *service) resolveElement(ctx context.Context, loc definitions.Locator, firstMatch bool, timeout float64) (*definitions.ElementInfo, error) {
	if err := loc.Validate(); err != nil {
		return nil, faults.Wrap(faults.InvalidArgument, err, "invalid locator")
	}

	outcome, err := wait.For(ctx, waitSpec(seconds(timeout)),
		wait.ElementPresent(s.sessions, s.driver, loc, firstMatch))
	if err != nil {
		return nil, err
	}
	if err := outcomeError(outcome); err != nil {
		return nil, err
	}
	if outcome.Status == wait.TimedOut {
		return nil, faults.New(faults.TimedOut, "element %s not found within %.1fs", loc, timeout)
	}
	element, ok := outcome.Observation.(definitions.ElementInfo)
	if !ok {
		return nil, faults.New(faults.DeviceOperation, "unexpected wait observation for %s", loc)
	}
	return &element, nil
}

func (s *service) handleClick(ctx context.Context, args Args) (any, error) {
	req, err := decode[clickRequest](args)
	if err != nil {
		return nil, err
	}

	element, err := s.resolveElement(ctx, req.locator(), true, req.Timeout)
	if err != nil {
		return nil, err
	}

	x, y := element.Bounds.Center()
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.Tap(ctx, h, x, y)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"clicked": true, "x": x, "y": y}, nil
}

type longClickRequest struct {
	locatorRequest `mapstructure:",squash"`
	Duration       float64 `mapstructure:"duration"`
}

func (s *service) handleLongClick(ctx context.Context, args Args) (any, error) {
	req, err := decode[longClickRequest](args)
	if err != nil {
		return nil, err
	}

	// Strict-unique match: holding the wrong element is worse than failing.
	element, err := s.findUnique(ctx, req.locator())
	if err != nil {
		return nil, err
	}

	x, y := element.Bounds.Center()
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.Swipe(ctx, h, x, y, x, y, seconds(req.Duration))
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"long_clicked": true, "x": x, "y": y}, nil
}

// findUnique resolves a locator against the current screen only, requiring
// exactly one match.
func (s *service) findUnique(ctx context.Context, loc definitions.Locator) (*definitions.ElementInfo, error) {
	if err := loc.Validate(); err != nil {
		return nil, faults.Wrap(faults.InvalidArgument, err, "invalid locator")
	}

	var element *definitions.ElementInfo
	err := s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		dump, err := s.driver.DumpHierarchy(ctx, h, false)
		if err != nil {
			return err
		}
		matches, err := adb.FindElements(dump, loc)
		if err != nil {
			return err
		}
		switch {
		case len(matches) == 0:
			return faults.New(faults.DeviceOperation, "element %s not found", loc)
		case len(matches) > 1:
			return faults.New(faults.AmbiguousMatch,
				"locator %s matched %d elements, expected exactly one", loc, len(matches))
		}
		element = &matches[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return element, nil
}

func (s *service) handleSendText(ctx context.Context, args Args) (any, error) {
	req, err := decode[struct {
		Text  string `mapstructure:"text"`
		Clear bool   `mapstructure:"clear"`
	}](args)
	if err != nil {
		return nil, err
	}
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.InputText(ctx, h, req.Text, req.Clear)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"sent": true}, nil
}

type swipeRequest struct {
	X1       int     `mapstructure:"x1"`
	Y1       int     `mapstructure:"y1"`
	X2       int     `mapstructure:"x2"`
	Y2       int     `mapstructure:"y2"`
	Duration float64 `mapstructure:"duration"`
}

func (s *service) handleSwipe(ctx context.Context, args Args) (any, error) {
	req, err := decode[swipeRequest](args)
	if err != nil {
		return nil, err
	}
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.Swipe(ctx, h, req.X1, req.Y1, req.X2, req.Y2, seconds(req.Duration))
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"swiped": true}, nil
}

type dragRequest struct {
	locatorRequest `mapstructure:",squash"`
	X              int `mapstructure:"x"`
	Y              int `mapstructure:"y"`
}

func (s *service) handleDrag(ctx context.Context, args Args) (any, error) {
	req, err := decode[dragRequest](args)
	if err != nil {
		return nil, err
	}

	element, err := s.findUnique(ctx, req.locator())
	if err != nil {
		return nil, err
	}

	x, y := element.Bounds.Center()
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		// A slow swipe approximates press-and-drag.
		return s.driver.Swipe(ctx, h, x, y, req.X, req.Y, seconds(1.0))
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"dragged": true, "to_x": req.X, "to_y": req.Y}, nil
}

package dispatch

import (
	"context"
	"fmt"

	"github.com/spance/android-operator/operator/adb"
	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
	"github.com/spance/android-operator/operator/wait"
)

const defaultScrollAttempts = 5

func (s *service) inspectionTools() []*Tool {
	return []*Tool{
		{
			Name:        "get_element_info",
			Description: "Get detailed properties of a UI element: text, resource ID, class, bounds, and interaction capabilities. The first match is used when several elements match.",
			Params: append(locatorParams(),
				timeoutParam("timeout", 10.0)),
			Handler: s.handleElementInfo,
		},
		{
			Name:        "wait_for_element",
			Description: "Wait for a UI element to appear on screen, up to the timeout. The first match is reported when several elements match.",
			Params: append(locatorParams(),
				timeoutParam("timeout", 10.0)),
			Handler: s.handleWaitForElement,
		},
		{
			Name:        "scroll_to",
			Description: "Scroll until an element becomes visible, with a bounded number of scroll gestures. The first match stops the scan.",
			Params: append(locatorParams(),
				Param{Name: "max_attempts", Type: TypeInteger, Default: defaultScrollAttempts,
					Description: "Maximum scroll gestures before giving up (default: 5)"}),
			Handler: s.handleScrollTo,
		},
		{
			Name:        "screenshot",
			Description: "Capture a screenshot and save it to the given path, or a temp file when no path is given",
			Params: []Param{
				{Name: "path", Type: TypeString,
					Description: "Destination file path; a temp file is used when omitted"},
			},
			Handler: s.handleScreenshot,
		},
		{
			Name:        "dump_hierarchy",
			Description: "Dump the complete UI hierarchy of the current screen as XML",
			Params: []Param{
				{Name: "compressed", Type: TypeBoolean, Default: false,
					Description: "Exclude layout-only nodes for smaller output (default: false)"},
			},
			Handler: s.handleDumpHierarchy,
		},
	}
}

func (s *service) handleElementInfo(ctx context.Context, args Args) (any, error) {
	req, err := decode[clickRequest](args)
	if err != nil {
		return nil, err
	}
	element, err := s.resolveElement(ctx, req.locator(), true, req.Timeout)
	if err != nil {
		return nil, err
	}
	return element, nil
}

func (s *service) handleWaitForElement(ctx context.Context, args Args) (any, error) {
	req, err := decode[clickRequest](args)
	if err != nil {
		return nil, err
	}
	loc := req.locator()
	if err := loc.Validate(); err != nil {
		return nil, faults.Wrap(faults.InvalidArgument, err, "invalid locator")
	}

	outcome, err := wait.For(ctx, waitSpec(seconds(req.Timeout)),
		wait.ElementPresent(s.sessions, s.driver, loc, true))
	if err != nil {
		return nil, err
	}
	if err := outcomeError(outcome); err != nil {
		return nil, err
	}

	result := map[string]any{
		"found":      outcome.Status == wait.Satisfied,
		"status":     outcome.Status,
		"elapsed_ms": outcome.Elapsed.Milliseconds(),
	}
	if outcome.Status == wait.Satisfied {
		result["element"] = outcome.Observation
	}
	return result, nil
}

type scrollToRequest struct {
	locatorRequest `mapstructure:",squash"`
	MaxAttempts    int `mapstructure:"max_attempts"`
}

// handleScrollTo interleaves presence probes with scroll gestures: probe
// first, then exactly max_attempts scroll-and-probe rounds before giving up.
func (s *service) handleScrollTo(ctx context.Context, args Args) (any, error) {
	req, err := decode[scrollToRequest](args)
	if err != nil {
		return nil, err
	}
	loc := req.locator()
	if err := loc.Validate(); err != nil {
		return nil, faults.Wrap(faults.InvalidArgument, err, "invalid locator")
	}
	if req.MaxAttempts <= 0 {
		return nil, faults.New(faults.InvalidArgument, "argument %q: must be positive", "max_attempts")
	}

	probe := func() (*definitions.ElementInfo, error) {
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
			if len(matches) > 0 {
				element = &matches[0]
			}
			return nil
		})
		return element, err
	}

	element, err := probe()
	if err != nil {
		return nil, err
	}

	scrolls := 0
	for element == nil && scrolls < req.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, faults.Wrap(faults.Cancelled, err, "scroll_to cancelled")
		}
		err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
			w, hg, err := s.scrollGeometry(ctx, h)
			if err != nil {
				return err
			}
			return s.driver.Swipe(ctx, h, w/2, hg*2/3, w/2, hg/3, seconds(0.3))
		})
		if err != nil {
			return nil, err
		}
		scrolls++

		element, err = probe()
		if err != nil {
			return nil, err
		}
	}

	if element == nil {
		return nil, faults.New(faults.PreconditionUnmet,
			"element %s not visible after %d scroll attempts", loc, scrolls)
	}
	return map[string]any{"found": true, "scrolls": scrolls, "element": element}, nil
}

// scrollGeometry returns the screen size used to plot a scroll gesture.
func (s *service) scrollGeometry(ctx context.Context, h *definitions.Handle) (int, int, error) {
	info, err := s.driver.DeviceInfo(ctx, h)
	if err != nil {
		return 0, 0, err
	}
	var w, hg int
	if _, err := fmt.Sscanf(info.Resolution, "%dx%d", &w, &hg); err != nil || w == 0 || hg == 0 {
		// Sane fallback when wm size is unparsable.
		return 1080, 1920, nil
	}
	return w, hg, nil
}

func (s *service) handleScreenshot(ctx context.Context, args Args) (any, error) {
	req, err := decode[struct {
		Path string `mapstructure:"path"`
	}](args)
	if err != nil {
		return nil, err
	}

	var saved string
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		var err error
		saved, err = s.driver.Screenshot(ctx, h, req.Path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": saved}, nil
}

func (s *service) handleDumpHierarchy(ctx context.Context, args Args) (any, error) {
	req, err := decode[struct {
		Compressed bool `mapstructure:"compressed"`
	}](args)
	if err != nil {
		return nil, err
	}

	var xml string
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		var err error
		xml, err = s.driver.DumpHierarchy(ctx, h, req.Compressed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"hierarchy": xml}, nil
}

package dispatch

import (
	"time"

	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
	"github.com/spance/android-operator/operator/wait"
)

// locatorParams is the shared parameter triple for element-addressing tools.
func locatorParams() []Param {
	return []Param{
		{Name: "selector", Type: TypeString, Required: true,
			Description: "Value to search for: visible text, resource ID, or content description"},
		{Name: "selector_type", Type: TypeString, Default: "text",
			Enum:        []string{"text", "resourceId", "description"},
			Description: "How to interpret the selector (default: text)"},
	}
}

type locatorRequest struct {
	Selector     string `mapstructure:"selector"`
	SelectorType string `mapstructure:"selector_type"`
}

func (r locatorRequest) locator() definitions.Locator {
	return definitions.Locator{
		Selector: r.Selector,
		Type:     definitions.LocatorType(r.SelectorType),
	}
}

func timeoutParam(name string, def float64) Param {
	return Param{Name: name, Type: TypeNumber, Default: def,
		Description: "Maximum time in seconds to wait"}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// waitSpec builds the engine spec for a caller-supplied timeout, keeping the
// poll interval well under it for short timeouts.
func waitSpec(timeout time.Duration) wait.Spec {
	poll := wait.DefaultPoll
	if timeout < 5*poll {
		poll = timeout / 5
	}
	return wait.Spec{Timeout: timeout, Poll: poll}
}

// outcomeError converts the two outcome statuses that are always failures.
// Satisfied and TimedOut are left to the individual tool's policy.
func outcomeError(o wait.Outcome) error {
	switch o.Status {
	case wait.Cancelled:
		return faults.New(faults.Cancelled, "wait cancelled after %d attempts", o.Attempts)
	case wait.Ambiguous:
		msg, _ := o.Observation.(string)
		if msg == "" {
			msg = "locator matched more than one element"
		}
		return faults.New(faults.AmbiguousMatch, "%s", msg)
	}
	return nil
}

package wait

import (
	"context"
	"strings"

	"github.com/spance/android-operator/operator"
	"github.com/spance/android-operator/operator/adb"
	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
)

// DeviceRunner is the slice of the session manager predicates need: each
// evaluation re-acquires the session so reconnects stay transparent, and each
// holds the device-command lock only for its own single query.
type DeviceRunner interface {
	WithDevice(ctx context.Context, fn func(h *definitions.Handle) error) error
}

func ScreenOn(r DeviceRunner, d operator.Driver) Predicate {
	return func(ctx context.Context) (bool, any, error) {
		var on bool
		err := r.WithDevice(ctx, func(h *definitions.Handle) error {
			var err error
			on, err = d.ScreenOn(ctx, h)
			return err
		})
		return on, nil, err
	}
}

// ElementPresent resolves the locator against a fresh hierarchy dump. With
// firstMatch false, more than one match is an ambiguity rather than a silent
// pick.
func ElementPresent(r DeviceRunner, d operator.Driver, loc definitions.Locator, firstMatch bool) Predicate {
	return func(ctx context.Context) (bool, any, error) {
		var element *definitions.ElementInfo
		err := r.WithDevice(ctx, func(h *definitions.Handle) error {
			dump, err := d.DumpHierarchy(ctx, h, false)
			if err != nil {
				return err
			}
			matches, err := adb.FindElements(dump, loc)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return nil
			}
			if len(matches) > 1 && !firstMatch {
				return faults.New(faults.AmbiguousMatch,
					"locator %s matched %d elements", loc, len(matches))
			}
			element = &matches[0]
			return nil
		})
		if err != nil || element == nil {
			return false, nil, err
		}
		return true, *element, nil
	}
}

// ActivityCurrent matches the foreground activity against a fully qualified
// name or a dot-prefixed name relative to the foreground package.
func ActivityCurrent(r DeviceRunner, d operator.Driver, activity string) Predicate {
	return func(ctx context.Context) (bool, any, error) {
		var app *definitions.AppInfo
		err := r.WithDevice(ctx, func(h *definitions.Handle) error {
			var err error
			app, err = d.ForegroundApp(ctx, h)
			return err
		})
		if err != nil || app == nil {
			return false, nil, err
		}
		current := app.Activity
		matched := current == activity ||
			(strings.HasPrefix(activity, ".") && strings.HasSuffix(current, activity)) ||
			app.Package+"/"+current == activity
		if !matched {
			return false, nil, nil
		}
		return true, app, nil
	}
}

// AppForeground reports whether pkg owns the foreground window.
func AppForeground(r DeviceRunner, d operator.Driver, pkg string) Predicate {
	return func(ctx context.Context) (bool, any, error) {
		var app *definitions.AppInfo
		err := r.WithDevice(ctx, func(h *definitions.Handle) error {
			var err error
			app, err = d.ForegroundApp(ctx, h)
			return err
		})
		if err != nil || app == nil {
			return false, nil, err
		}
		if app.Package != pkg {
			return false, nil, nil
		}
		return true, app, nil
	}
}

// ToastShown captures the first toast text that appears in the log buffer.
func ToastShown(r DeviceRunner, d operator.Driver) Predicate {
	return func(ctx context.Context) (bool, any, error) {
		var text string
		err := r.WithDevice(ctx, func(h *definitions.Handle) error {
			var err error
			text, err = d.ReadToast(ctx, h)
			return err
		})
		if err != nil {
			return false, nil, err
		}
		return text != "", text, nil
	}
}

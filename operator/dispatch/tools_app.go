package dispatch

import (
	"context"

	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/wait"
)

const appForegroundTimeout = 20.0 // seconds

func packageParam() Param {
	return Param{Name: "package", Type: TypeString, Required: true,
		Description: "Application package name, e.g. com.android.settings"}
}

func (s *service) appTools() []*Tool {
	return []*Tool{
		{
			Name:        "get_installed_apps",
			Description: "List every installed package on the device, system and user apps alike",
			Handler:     s.handleInstalledApps,
		},
		{
			Name:        "get_current_app",
			Description: "Get the package and activity of the current foreground application",
			Handler:     s.handleCurrentApp,
		},
		{
			Name:        "start_app",
			Description: "Launch an application by package name, optionally waiting for it to reach the foreground",
			Params: []Param{
				packageParam(),
				{Name: "wait", Type: TypeBoolean, Default: true,
					Description: "Wait for the app to come to the foreground (default: true)"},
			},
			Handler: s.handleStartApp,
		},
		{
			Name:        "stop_app",
			Description: "Force stop an application by package name",
			Params:      []Param{packageParam()},
			Handler:     s.handleStopApp,
		},
		{
			Name:        "stop_all_apps",
			Description: "Force stop all third party applications",
			Handler:     s.handleStopAllApps,
		},
		{
			Name:        "clear_app_data",
			Description: "Clear all data and cache for an app, resetting it to its freshly installed state. Irreversible.",
			Params:      []Param{packageParam()},
			Handler:     s.handleClearAppData,
		},
	}
}

func (s *service) handleInstalledApps(ctx context.Context, args Args) (any, error) {
	var pkgs []string
	err := s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		var err error
		pkgs, err = s.driver.InstalledPackages(ctx, h)
		return err
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"apps": pkgs, "count": len(pkgs)}, nil
}

func (s *service) handleCurrentApp(ctx context.Context, args Args) (any, error) {
	var app *definitions.AppInfo
	err := s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		var err error
		app, err = s.driver.ForegroundApp(ctx, h)
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

type startAppRequest struct {
	Package string `mapstructure:"package"`
	Wait    bool   `mapstructure:"wait"`
}

func (s *service) handleStartApp(ctx context.Context, args Args) (any, error) {
	req, err := decode[startAppRequest](args)
	if err != nil {
		return nil, err
	}

	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.StartApp(ctx, h, req.Package)
	})
	if err != nil {
		return nil, err
	}
	if !req.Wait {
		return map[string]any{"started": true}, nil
	}

	outcome, err := wait.For(ctx, waitSpec(seconds(appForegroundTimeout)),
		wait.AppForeground(s.sessions, s.driver, req.Package))
	if err != nil {
		return nil, err
	}
	if err := outcomeError(outcome); err != nil {
		return nil, err
	}
	return map[string]any{
		"started":    true,
		"foreground": outcome.Status == wait.Satisfied,
		"status":     outcome.Status,
	}, nil
}

func (s *service) handleStopApp(ctx context.Context, args Args) (any, error) {
	req, err := decode[struct {
		Package string `mapstructure:"package"`
	}](args)
	if err != nil {
		return nil, err
	}
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.StopApp(ctx, h, req.Package)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"stopped": true, "package": req.Package}, nil
}

func (s *service) handleStopAllApps(ctx context.Context, args Args) (any, error) {
	err := s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.StopAllApps(ctx, h)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"stopped": true}, nil
}

func (s *service) handleClearAppData(ctx context.Context, args Args) (any, error) {
	req, err := decode[struct {
		Package string `mapstructure:"package"`
	}](args)
	if err != nil {
		return nil, err
	}
	err = s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		return s.driver.ClearAppData(ctx, h, req.Package)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"cleared": true, "package": req.Package}, nil
}

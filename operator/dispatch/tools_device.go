package dispatch

import (
	"context"
	"os/exec"

	"github.com/samber/lo"

	"github.com/spance/android-operator/operator/definitions"
)

const healthMessage = "Android Device Operator server is running."

func (s *service) deviceTools() []*Tool {
	return []*Tool{
		{
			Name:        "mcp_health",
			Description: "Simple health check tool to verify the server is running",
			Handler: func(ctx context.Context, args Args) (any, error) {
				return map[string]any{"status": "ok", "message": healthMessage}, nil
			},
		},
		{
			Name:        "check_adb",
			Description: "Check that adb is available in PATH and list connected devices with their state",
			Handler:     s.handleCheckADB,
		},
		{
			Name:        "connect_device",
			Description: "Connect to an Android device and return basic device information. Connects to the first available device when no serial was configured.",
			Handler:     s.handleConnectDevice,
		},
		{
			Name:        "get_device_info",
			Description: "Get comprehensive device information: serial, resolution, Android version, SDK level, battery level, WiFi IP, manufacturer, model, and screen state",
			Handler:     s.handleDeviceInfo,
		},
	}
}

func (s *service) handleCheckADB(ctx context.Context, args Args) (any, error) {
	if _, err := exec.LookPath(s.adbPath); err != nil {
		return map[string]any{
			"adb_available": false,
			"devices":       []string{},
			"error":         "adb command not found in PATH",
		}, nil
	}

	devices, err := s.driver.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	ready := lo.FilterMap(devices, func(d definitions.DeviceInfo, _ int) (string, bool) {
		return d.Serial, d.Status == "device"
	})
	return map[string]any{
		"adb_available": true,
		"devices":       ready,
	}, nil
}

func (s *service) handleConnectDevice(ctx context.Context, args Args) (any, error) {
	var info *definitions.DeviceInfo
	err := s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		var err error
		info, err = s.driver.DeviceInfo(ctx, h)
		return err
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"serial":       info.Serial,
		"manufacturer": info.Manufacturer,
		"model":        info.Model,
		"version":      info.Version,
		"sdk":          info.SDK,
	}, nil
}

func (s *service) handleDeviceInfo(ctx context.Context, args Args) (any, error) {
	var info *definitions.DeviceInfo
	err := s.sessions.WithDevice(ctx, func(h *definitions.Handle) error {
		var err error
		info, err = s.driver.DeviceInfo(ctx, h)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

package definitions

import "time"

// Handle represents one live connection to a physical or emulated device.
// It is created by the driver and owned by the session manager; callers
// receive it only for the duration of a device call.
type Handle struct {
	Serial      string    `json:"serial"`
	ConnectedAt time.Time `json:"connected_at"`
}

type DeviceInfo struct {
	Serial       string `json:"serial"`
	Status       string `json:"status,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Version      string `json:"version,omitempty"`
	SDK          int    `json:"sdk,omitempty"`
	Resolution   string `json:"resolution,omitempty"`
	Battery      int    `json:"battery,omitempty"`
	WifiIP       string `json:"wifi_ip,omitempty"`
	ScreenOn     bool   `json:"is_screen_on"`
}

// AppInfo describes the current foreground application.
type AppInfo struct {
	Package  string `json:"package"`
	Activity string `json:"activity,omitempty"`
}

package operator

import (
	"context"
	"time"

	"github.com/spance/android-operator/operator/definitions"
)

// Driver is the capability surface over the external automation toolchain.
// It performs no retries and no caching; each method issues a single-shot
// command or query against the device identified by the handle. Policy
// (connection caching, serialization, polling) lives above it.
type Driver interface {
	// Connect establishes a connection. An empty serial picks the first
	// device in "device" state.
	Connect(ctx context.Context, serial string) (*definitions.Handle, error)
	// Alive is a cheap liveness probe for a previously connected handle.
	Alive(ctx context.Context, h *definitions.Handle) bool
	// Disconnect releases the handle. Idempotent.
	Disconnect(ctx context.Context, h *definitions.Handle) error
	ListDevices(ctx context.Context) ([]definitions.DeviceInfo, error)

	DeviceInfo(ctx context.Context, h *definitions.Handle) (*definitions.DeviceInfo, error)
	ForegroundApp(ctx context.Context, h *definitions.Handle) (*definitions.AppInfo, error)
	InstalledPackages(ctx context.Context, h *definitions.Handle) ([]string, error)
	ScreenOn(ctx context.Context, h *definitions.Handle) (bool, error)
	Locked(ctx context.Context, h *definitions.Handle) (bool, error)
	DumpHierarchy(ctx context.Context, h *definitions.Handle, compressed bool) (string, error)
	ReadToast(ctx context.Context, h *definitions.Handle) (string, error)

	PressKey(ctx context.Context, h *definitions.Handle, key string) error
	Tap(ctx context.Context, h *definitions.Handle, x, y int) error
	Swipe(ctx context.Context, h *definitions.Handle, x1, y1, x2, y2 int, duration time.Duration) error
	InputText(ctx context.Context, h *definitions.Handle, text string, clear bool) error
	StartApp(ctx context.Context, h *definitions.Handle, pkg string) error
	StopApp(ctx context.Context, h *definitions.Handle, pkg string) error
	StopAllApps(ctx context.Context, h *definitions.Handle) error
	ClearAppData(ctx context.Context, h *definitions.Handle, pkg string) error
	SetScreen(ctx context.Context, h *definitions.Handle, on bool) error
	UnlockGesture(ctx context.Context, h *definitions.Handle) error
	Screenshot(ctx context.Context, h *definitions.Handle, path string) (string, error)
}

package adb

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spance/android-operator/constants"
	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
)

var focusRe = regexp.MustCompile(`([A-Za-z0-9_.]+)/([A-Za-z0-9_.$]+)`)

func (d *Driver) PressKey(ctx context.Context, h *definitions.Handle, key string) error {
	keycode, ok := constants.GetKeycodeByName(key)
	if !ok {
		// Allow raw KEYCODE_* names through unchanged.
		if !strings.HasPrefix(key, "KEYCODE_") {
			return faults.New(faults.DeviceOperation, "unknown key %q, accepted: %s",
				key, strings.Join(constants.KeyNames(), ", "))
		}
		keycode = key
	}
	_, err := d.run(ctx, h, "shell", "input", "keyevent", keycode)
	return err
}

func (d *Driver) Tap(ctx context.Context, h *definitions.Handle, x, y int) error {
	_, err := d.run(ctx, h, "shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

func (d *Driver) Swipe(ctx context.Context, h *definitions.Handle, x1, y1, x2, y2 int, duration time.Duration) error {
	if duration <= 0 {
		duration = 500 * time.Millisecond
	}
	_, err := d.run(ctx, h, "shell", "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1),
		strconv.Itoa(x2), strconv.Itoa(y2),
		strconv.Itoa(int(duration.Milliseconds())),
	)
	return err
}

// InputText types through the ADB Keyboard broadcast surface, which handles
// unicode that plain `input text` cannot. Requires the ADB Keyboard IME to be
// installed on the device.
func (d *Driver) InputText(ctx context.Context, h *definitions.Handle, text string, clear bool) error {
	if clear {
		if _, err := d.run(ctx, h, "shell", "am", "broadcast", "-a", "ADB_CLEAR_TEXT"); err != nil {
			return err
		}
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	_, err := d.run(ctx, h, "shell", "am", "broadcast",
		"-a", "ADB_INPUT_B64", "--es", "msg", encoded)
	return err
}

func (d *Driver) StartApp(ctx context.Context, h *definitions.Handle, pkg string) error {
	output, err := d.run(ctx, h, "shell", "monkey",
		"-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return err
	}
	if strings.Contains(output, "No activities found") || strings.Contains(output, "monkey aborted") {
		return faults.New(faults.DeviceOperation, "no launchable activity for package %s", pkg)
	}
	return nil
}

func (d *Driver) StopApp(ctx context.Context, h *definitions.Handle, pkg string) error {
	_, err := d.run(ctx, h, "shell", "am", "force-stop", pkg)
	return err
}

// StopAllApps force-stops every third party package. System packages are left
// alone.
func (d *Driver) StopAllApps(ctx context.Context, h *definitions.Handle) error {
	output, err := d.run(ctx, h, "shell", "pm", "list", "packages", "-3")
	if err != nil {
		return err
	}
	for _, line := range strings.Split(output, "\n") {
		pkg := strings.TrimSpace(strings.TrimPrefix(line, "package:"))
		if pkg == "" {
			continue
		}
		if err := d.StopApp(ctx, h, pkg); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) ClearAppData(ctx context.Context, h *definitions.Handle, pkg string) error {
	output, err := d.run(ctx, h, "shell", "pm", "clear", pkg)
	if err != nil {
		return err
	}
	if !strings.Contains(output, "Success") {
		return faults.New(faults.DeviceOperation, "pm clear %s: %s", pkg, strings.TrimSpace(output))
	}
	return nil
}

func (d *Driver) SetScreen(ctx context.Context, h *definitions.Handle, on bool) error {
	keycode := "KEYCODE_SLEEP"
	if on {
		keycode = "KEYCODE_WAKEUP"
	}
	_, err := d.run(ctx, h, "shell", "input", "keyevent", keycode)
	return err
}

func (d *Driver) ScreenOn(ctx context.Context, h *definitions.Handle) (bool, error) {
	output, err := d.run(ctx, h, "shell", "dumpsys", "power")
	if err != nil {
		return false, err
	}
	return strings.Contains(output, "mWakefulness=Awake"), nil
}

func (d *Driver) Locked(ctx context.Context, h *definitions.Handle) (bool, error) {
	output, err := d.run(ctx, h, "shell", "dumpsys", "window")
	if err != nil {
		return false, err
	}
	return strings.Contains(output, "mDreamingLockscreen=true") ||
		strings.Contains(output, "mKeyguardShowing=true"), nil
}

// UnlockGesture dismisses a swipe lockscreen: menu key first, then a swipe up
// across the lower half of the screen. PIN/pattern/biometric locks are out of
// reach from here.
func (d *Driver) UnlockGesture(ctx context.Context, h *definitions.Handle) error {
	if _, err := d.run(ctx, h, "shell", "input", "keyevent", "KEYCODE_MENU"); err != nil {
		return err
	}
	w, hg, err := d.windowSize(ctx, h)
	if err != nil {
		return err
	}
	return d.Swipe(ctx, h, w/2, hg*3/4, w/2, hg/4, 300*time.Millisecond)
}

func (d *Driver) ForegroundApp(ctx context.Context, h *definitions.Handle) (*definitions.AppInfo, error) {
	output, err := d.run(ctx, h, "shell", "dumpsys", "window")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "mCurrentFocus") && !strings.Contains(line, "mFocusedApp") {
			continue
		}
		if m := focusRe.FindStringSubmatch(line); m != nil {
			return &definitions.AppInfo{Package: m[1], Activity: m[2]}, nil
		}
	}
	return nil, faults.New(faults.DeviceOperation, "no focused window in dumpsys output")
}

func (d *Driver) InstalledPackages(ctx context.Context, h *definitions.Handle) ([]string, error) {
	output, err := d.run(ctx, h, "shell", "pm", "list", "packages")
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for _, line := range strings.Split(output, "\n") {
		pkg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "package:"))
		if pkg != "" {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

func (d *Driver) DeviceInfo(ctx context.Context, h *definitions.Handle) (*definitions.DeviceInfo, error) {
	info := &definitions.DeviceInfo{Serial: h.Serial}

	props := map[string]*string{
		"ro.product.manufacturer":  &info.Manufacturer,
		"ro.product.model":         &info.Model,
		"ro.build.version.release": &info.Version,
	}
	for prop, target := range props {
		output, err := d.run(ctx, h, "shell", "getprop", prop)
		if err != nil {
			return nil, err
		}
		*target = strings.TrimSpace(output)
	}

	if output, err := d.run(ctx, h, "shell", "getprop", "ro.build.version.sdk"); err == nil {
		info.SDK, _ = strconv.Atoi(strings.TrimSpace(output))
	}

	if w, hg, err := d.windowSize(ctx, h); err == nil {
		info.Resolution = fmt.Sprintf("%dx%d", w, hg)
	}

	if output, err := d.run(ctx, h, "shell", "dumpsys", "battery"); err == nil {
		for _, line := range strings.Split(output, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "level:") {
				info.Battery, _ = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "level:")))
				break
			}
		}
	}

	if ip, err := d.deviceIP(ctx, h); err == nil {
		info.WifiIP = ip
	}

	on, err := d.ScreenOn(ctx, h)
	if err != nil {
		return nil, err
	}
	info.ScreenOn = on

	return info, nil
}

func (d *Driver) windowSize(ctx context.Context, h *definitions.Handle) (int, int, error) {
	output, err := d.run(ctx, h, "shell", "wm", "size")
	if err != nil {
		return 0, 0, err
	}
	// "Physical size: 1080x2400"; an Override line, when present, wins.
	var w, hg int
	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, ":"); idx >= 0 {
			dims := strings.Split(strings.TrimSpace(line[idx+1:]), "x")
			if len(dims) != 2 {
				continue
			}
			pw, err1 := strconv.Atoi(dims[0])
			ph, err2 := strconv.Atoi(dims[1])
			if err1 == nil && err2 == nil {
				w, hg = pw, ph
			}
		}
	}
	if w == 0 || hg == 0 {
		return 0, 0, faults.New(faults.DeviceOperation, "cannot parse wm size output: %s", strings.TrimSpace(output))
	}
	return w, hg, nil
}

func (d *Driver) deviceIP(ctx context.Context, h *definitions.Handle) (string, error) {
	output, err := d.run(ctx, h, "shell", "ip", "route")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "src") {
			continue
		}
		parts := strings.Fields(line)
		for i, part := range parts {
			if part == "src" && i+1 < len(parts) {
				return parts[i+1], nil
			}
		}
	}
	return "", nil
}

func (d *Driver) Screenshot(ctx context.Context, h *definitions.Handle, path string) (string, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("screenshot_%s.png", uuid.New().String()))
	}

	remote := fmt.Sprintf("/sdcard/screenshot_%s.png", uuid.New().String())
	defer func() {
		_, _ = d.run(ctx, h, "shell", "rm", "-f", remote)
	}()

	output, err := d.run(ctx, h, "shell", "screencap", "-p", remote)
	if err != nil {
		return "", err
	}
	if strings.Contains(output, "Status: -1") || strings.Contains(output, "Failed") {
		return "", faults.New(faults.DeviceOperation, "screencap failed: %s", strings.TrimSpace(output))
	}

	if _, err := d.run(ctx, h, "pull", remote, path); err != nil {
		return "", err
	}
	return path, nil
}

const hierarchyRemotePath = "/sdcard/window_dump.xml"

func (d *Driver) DumpHierarchy(ctx context.Context, h *definitions.Handle, compressed bool) (string, error) {
	args := []string{"shell", "uiautomator", "dump"}
	if compressed {
		args = append(args, "--compressed")
	}
	args = append(args, hierarchyRemotePath)
	if _, err := d.run(ctx, h, args...); err != nil {
		return "", err
	}

	output, err := d.run(ctx, h, "shell", "cat", hierarchyRemotePath)
	if err != nil {
		return "", err
	}
	if !strings.Contains(output, "<hierarchy") {
		return "", faults.New(faults.DeviceOperation, "uiautomator dump produced no hierarchy: %s",
			strings.TrimSpace(output))
	}
	return strings.TrimSpace(output), nil
}

// ReadToast scans the recent log buffer for a toast entry. Toast logging
// varies by ROM; an empty string means none was observed, which the wait
// engine treats as "not yet".
func (d *Driver) ReadToast(ctx context.Context, h *definitions.Handle) (string, error) {
	output, err := d.run(ctx, h, "logcat", "-d", "-t", "100", "-s", "Toast:*", "NotificationService:*")
	if err != nil {
		return "", err
	}

	var last string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "---") {
			continue
		}
		// "MM-DD HH:MM:SS.mmm  PID  TID L Toast: <text>"
		if idx := strings.Index(line, "Toast: "); idx >= 0 {
			last = strings.TrimSpace(line[idx+len("Toast: "):])
		}
	}
	if last == "" {
		log.Trace().Msg("no toast entry in log buffer")
	}
	return last, nil
}

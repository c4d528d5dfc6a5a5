package constants

import "strings"

// Key names accepted by the press_key tool, mapped to Android keycodes.
var keycodes = map[string]string{
	"home":        "KEYCODE_HOME",
	"back":        "KEYCODE_BACK",
	"menu":        "KEYCODE_MENU",
	"power":       "KEYCODE_POWER",
	"volume_up":   "KEYCODE_VOLUME_UP",
	"volume_down": "KEYCODE_VOLUME_DOWN",
	"volume_mute": "KEYCODE_VOLUME_MUTE",
	"enter":       "KEYCODE_ENTER",
	"delete":      "KEYCODE_DEL",
	"tab":         "KEYCODE_TAB",
	"space":       "KEYCODE_SPACE",
	"escape":      "KEYCODE_ESCAPE",
	"search":      "KEYCODE_SEARCH",
	"camera":      "KEYCODE_CAMERA",
	"app_switch":  "KEYCODE_APP_SWITCH",
	"wakeup":      "KEYCODE_WAKEUP",
	"sleep":       "KEYCODE_SLEEP",
}

// GetKeycodeByName returns the keycode for a friendly key name,
// case-insensitively.
func GetKeycodeByName(name string) (string, bool) {
	code, ok := keycodes[strings.ToLower(name)]
	return code, ok
}

// KeyNames returns all accepted key names, for error messages.
func KeyNames() []string {
	names := make([]string, 0, len(keycodes))
	for name := range keycodes {
		names = append(names, name)
	}
	return names
}

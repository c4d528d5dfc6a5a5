package definitions

import "fmt"

type LocatorType string

const (
	ByText        LocatorType = "text"
	ByResourceID  LocatorType = "resourceId"
	ByDescription LocatorType = "description"
)

// Locator describes how to find a UI element on screen.
type Locator struct {
	Selector string      `json:"selector"`
	Type     LocatorType `json:"selector_type"`
}

func (l Locator) Validate() error {
	if l.Selector == "" {
		return fmt.Errorf("selector must not be empty")
	}
	switch l.Type {
	case ByText, ByResourceID, ByDescription:
		return nil
	default:
		return fmt.Errorf("invalid selector_type: %s", l.Type)
	}
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.Type, l.Selector)
}

type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Center returns the midpoint of the bounds, the tap target for gestures.
func (b Bounds) Center() (int, int) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

type ElementInfo struct {
	Text        string `json:"text"`
	ResourceID  string `json:"resourceId"`
	Description string `json:"description"`
	ClassName   string `json:"className"`
	Enabled     bool   `json:"enabled"`
	Clickable   bool   `json:"clickable"`
	Bounds      Bounds `json:"bounds"`
	Selected    bool   `json:"selected"`
	Focused     bool   `json:"focused"`
}

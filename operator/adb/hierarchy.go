package adb

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spance/android-operator/operator/definitions"
)

// node mirrors one <node> element of a uiautomator dump.
type node struct {
	Text        string `xml:"text,attr"`
	ResourceID  string `xml:"resource-id,attr"`
	ContentDesc string `xml:"content-desc,attr"`
	Class       string `xml:"class,attr"`
	Enabled     string `xml:"enabled,attr"`
	Clickable   string `xml:"clickable,attr"`
	Selected    string `xml:"selected,attr"`
	Focused     string `xml:"focused,attr"`
	Bounds      string `xml:"bounds,attr"`
	Children    []node `xml:"node"`
}

type hierarchy struct {
	XMLName xml.Name `xml:"hierarchy"`
	Nodes   []node   `xml:"node"`
}

var boundsRe = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

func parseBounds(s string) (definitions.Bounds, error) {
	m := boundsRe.FindStringSubmatch(s)
	if m == nil {
		return definitions.Bounds{}, fmt.Errorf("cannot parse bounds %q", s)
	}
	atoi := func(v string) int { n, _ := strconv.Atoi(v); return n }
	return definitions.Bounds{
		Left:   atoi(m[1]),
		Top:    atoi(m[2]),
		Right:  atoi(m[3]),
		Bottom: atoi(m[4]),
	}, nil
}

func (n *node) toElementInfo() definitions.ElementInfo {
	bounds, _ := parseBounds(n.Bounds)
	return definitions.ElementInfo{
		Text:        n.Text,
		ResourceID:  n.ResourceID,
		Description: n.ContentDesc,
		ClassName:   n.Class,
		Enabled:     n.Enabled == "true",
		Clickable:   n.Clickable == "true",
		Bounds:      bounds,
		Selected:    n.Selected == "true",
		Focused:     n.Focused == "true",
	}
}

func (n *node) matches(loc definitions.Locator) bool {
	switch loc.Type {
	case definitions.ByText:
		return n.Text == loc.Selector
	case definitions.ByResourceID:
		return n.ResourceID == loc.Selector
	case definitions.ByDescription:
		return n.ContentDesc == loc.Selector
	default:
		return false
	}
}

func collectMatches(nodes []node, loc definitions.Locator, out *[]definitions.ElementInfo) {
	for i := range nodes {
		if nodes[i].matches(loc) {
			*out = append(*out, nodes[i].toElementInfo())
		}
		collectMatches(nodes[i].Children, loc, out)
	}
}

// FindElements parses a uiautomator dump and returns every element matching
// the locator, in document order.
func FindElements(dump string, loc definitions.Locator) ([]definitions.ElementInfo, error) {
	// uiautomator prefixes the XML with a status line on some devices.
	if idx := strings.Index(dump, "<?xml"); idx > 0 {
		dump = dump[idx:]
	} else if idx := strings.Index(dump, "<hierarchy"); idx > 0 && !strings.HasPrefix(dump, "<?xml") {
		dump = dump[idx:]
	}

	var h hierarchy
	if err := xml.Unmarshal([]byte(dump), &h); err != nil {
		return nil, fmt.Errorf("parsing ui hierarchy: %w", err)
	}

	var matches []definitions.ElementInfo
	collectMatches(h.Nodes, loc, &matches)
	return matches, nil
}

package adb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spance/android-operator/operator/definitions"
)

const sampleDump = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node text="" resource-id="" content-desc="" class="android.widget.FrameLayout" enabled="true" clickable="false" selected="false" focused="false" bounds="[0,0][1080,1920]">
    <node text="Settings" resource-id="com.android.settings:id/title" content-desc="" class="android.widget.TextView" enabled="true" clickable="true" selected="false" focused="false" bounds="[48,120][400,180]"/>
    <node text="" resource-id="com.android.settings:id/search" content-desc="Search settings" class="android.widget.ImageButton" enabled="true" clickable="true" selected="false" focused="false" bounds="[900,100][1040,200]"/>
    <node text="" resource-id="" content-desc="" class="android.widget.LinearLayout" enabled="true" clickable="false" selected="false" focused="false" bounds="[0,200][1080,1920]">
      <node text="Network" resource-id="com.android.settings:id/item" content-desc="" class="android.widget.TextView" enabled="true" clickable="true" selected="false" focused="true" bounds="[48,240][1032,360]"/>
      <node text="Display" resource-id="com.android.settings:id/item" content-desc="" class="android.widget.TextView" enabled="false" clickable="true" selected="false" focused="false" bounds="[48,380][1032,500]"/>
    </node>
  </node>
</hierarchy>`

func TestFindElementsByText(t *testing.T) {
	matches, err := FindElements(sampleDump, definitions.Locator{
		Selector: "Settings", Type: definitions.ByText,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "Settings", m.Text)
	assert.Equal(t, "com.android.settings:id/title", m.ResourceID)
	assert.Equal(t, "android.widget.TextView", m.ClassName)
	assert.True(t, m.Enabled)
	assert.True(t, m.Clickable)
	assert.Equal(t, definitions.Bounds{Left: 48, Top: 120, Right: 400, Bottom: 180}, m.Bounds)
}

func TestFindElementsByResourceID(t *testing.T) {
	matches, err := FindElements(sampleDump, definitions.Locator{
		Selector: "com.android.settings:id/item", Type: definitions.ByResourceID,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	// Document order: nested nodes are walked depth first.
	assert.Equal(t, "Network", matches[0].Text)
	assert.Equal(t, "Display", matches[1].Text)
	assert.True(t, matches[0].Focused)
	assert.False(t, matches[1].Enabled)
}

func TestFindElementsByDescription(t *testing.T) {
	matches, err := FindElements(sampleDump, definitions.Locator{
		Selector: "Search settings", Type: definitions.ByDescription,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "android.widget.ImageButton", matches[0].ClassName)
}

func TestFindElementsNoMatch(t *testing.T) {
	matches, err := FindElements(sampleDump, definitions.Locator{
		Selector: "Nonexistent", Type: definitions.ByText,
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindElementsStripsStatusPrefix(t *testing.T) {
	prefixed := "UI hierchary dumped to: /sdcard/window_dump.xml\n" + sampleDump
	matches, err := FindElements(prefixed, definitions.Locator{
		Selector: "Settings", Type: definitions.ByText,
	})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestFindElementsBadXML(t *testing.T) {
	_, err := FindElements("<hierarchy><node", definitions.Locator{
		Selector: "x", Type: definitions.ByText,
	})
	assert.Error(t, err)
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("[-10,20][30,40]")
	require.NoError(t, err)
	assert.Equal(t, definitions.Bounds{Left: -10, Top: 20, Right: 30, Bottom: 40}, b)

	x, y := b.Center()
	assert.Equal(t, 10, x)
	assert.Equal(t, 30, y)

	_, err = parseBounds("garbage")
	assert.Error(t, err)
}

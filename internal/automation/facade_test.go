package automation

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDriver records calls instead of touching the desktop.
type fakeDriver struct {
	calls  []string
	mouseX int
	mouseY int
	frame  image.Image
	keyErr error
}

func (d *fakeDriver) MoveMouse(x, y int)       { d.calls = append(d.calls, "move") }
func (d *fakeDriver) Click(b string, dbl bool) { d.calls = append(d.calls, "click:"+b) }
func (d *fakeDriver) Drag(x, y int)            { d.calls = append(d.calls, "drag") }
func (d *fakeDriver) Scroll(dx, dy int)        { d.calls = append(d.calls, "scroll") }
func (d *fakeDriver) TypeText(text string)     { d.calls = append(d.calls, "type:"+text) }
func (d *fakeDriver) KeyTap(key string, mods ...string) error {
	d.calls = append(d.calls, "tap:"+key)
	return d.keyErr
}
func (d *fakeDriver) KeyToggle(key, dir string) error {
	d.calls = append(d.calls, "toggle:"+key+":"+dir)
	return d.keyErr
}
func (d *fakeDriver) MouseLocation() (int, int)  { return d.mouseX, d.mouseY }
func (d *fakeDriver) ScreenSize() (int, int)     { return 1920, 1080 }
func (d *fakeDriver) CaptureScreen() image.Image { return d.frame }
func (d *fakeDriver) ActiveWindowTitle() string  { return "terminal" }
func (d *fakeDriver) ActivateWindow(title string) error {
	d.calls = append(d.calls, "activate:"+title)
	return d.keyErr
}
func (d *fakeDriver) Processes() ([]ProcessInfo, error) {
	return []ProcessInfo{{PID: 1, Name: "init"}, {PID: 42, Name: "editor"}}, nil
}

func fastController(d Driver) *Controller {
	c := NewController(d, zap.NewNop())
	c.SetEnabled(true)
	return c
}

func TestDisabledIsNoOp(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500}
	c := NewController(d, zap.NewNop())

	assert.False(t, c.MoveMouse(10, 10))
	assert.False(t, c.ClickMouse("left", false))
	assert.False(t, c.TypeText("hi"))
	assert.False(t, c.Sleep(time.Millisecond))
	assert.Empty(t, d.calls)
}

func TestEnabledActionsReachDriver(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500}
	c := fastController(d)

	assert.True(t, c.MoveMouse(10, 10))
	assert.True(t, c.ClickMouse("", false))
	assert.True(t, c.Drag(50, 50))
	assert.True(t, c.Scroll(0, 3))
	assert.True(t, c.TypeText("hi"))
	assert.True(t, c.PressKey("enter"))

	assert.Equal(t, []string{"move", "click:left", "drag", "scroll", "type:hi", "tap:enter"}, d.calls)
}

func TestFailsafeCornerDisables(t *testing.T) {
	d := &fakeDriver{mouseX: 0, mouseY: 0}
	c := fastController(d)

	assert.False(t, c.MoveMouse(10, 10))
	assert.False(t, c.Enabled())
	assert.Empty(t, d.calls)

	// Moving the cursor away does not re-enable anything.
	d.mouseX, d.mouseY = 500, 500
	assert.False(t, c.ClickMouse("left", false))
}

func TestKeyErrorReturnsFalse(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500, keyErr: errors.New("no display")}
	c := fastController(d)

	assert.False(t, c.PressKey("a"))
	assert.False(t, c.HoldKey("shift", "down"))
}

func TestTypeTextViaClipboard(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500}
	c := fastController(d)

	var copied string
	c.writeClipboard = func(s string) error {
		copied = s
		return nil
	}

	require.True(t, c.TypeTextViaClipboard("héllo"))
	assert.Equal(t, "héllo", copied)
	assert.Equal(t, []string{"tap:v"}, d.calls)
}

func TestTypeTextViaClipboardWriteFailure(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500}
	c := fastController(d)
	c.writeClipboard = func(string) error { return errors.New("no clipboard") }

	assert.False(t, c.TypeTextViaClipboard("x"))
	assert.Empty(t, d.calls)
}

func TestFindImageOnScreen(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 40, 40))
	needle := image.NewRGBA(image.Rect(0, 0, 4, 4))
	red := color.RGBA{R: 255, A: 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			frame.Set(10+x, 20+y, red)
			needle.Set(x, y, red)
		}
	}

	d := &fakeDriver{mouseX: 500, mouseY: 500, frame: frame}
	c := fastController(d)

	x, y, found := c.FindImageOnScreen(needle)
	require.True(t, found)
	assert.Equal(t, 12, x)
	assert.Equal(t, 22, y)
}

func TestFindImageNotFound(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 20, 20))
	needle := image.NewRGBA(image.Rect(0, 0, 2, 2))
	needle.Set(0, 0, color.RGBA{G: 255, A: 255})

	d := &fakeDriver{mouseX: 500, mouseY: 500, frame: frame}
	c := fastController(d)

	_, _, found := c.FindImageOnScreen(needle)
	assert.False(t, found)
}

func TestClickAtMovesFirst(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500}
	c := fastController(d)

	assert.True(t, c.ClickAt(30, 40, "right", false))
	assert.Equal(t, []string{"move", "click:right"}, d.calls)
}

func TestHoldKeyFor(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500}
	c := fastController(d)

	assert.True(t, c.HoldKeyFor("shift", 10*time.Millisecond))
	assert.Equal(t, []string{"toggle:shift:down", "toggle:shift:up"}, d.calls)
}

func TestListAndActivateWindows(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500}
	c := fastController(d)

	assert.Equal(t, []string{"init", "editor"}, c.ListWindows())
	assert.True(t, c.ActivateWindow("editor"))
	assert.Equal(t, []string{"activate:editor"}, d.calls)

	c.SetEnabled(false)
	assert.False(t, c.ActivateWindow("editor"))
}

func TestSystemInfo(t *testing.T) {
	d := &fakeDriver{mouseX: 500, mouseY: 500}
	c := fastController(d)

	info := c.SystemInfo()
	assert.Equal(t, "1920x1080", info["screen"])
	assert.Equal(t, "terminal", info["active_window"])
	assert.NotEmpty(t, info["os"])
}

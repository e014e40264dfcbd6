package automation

import (
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

const (
	minPause = 100 * time.Millisecond
	maxPause = 5 * time.Second

	// failsafeMargin is the size in pixels of the top-left corner that
	// aborts automation when the cursor enters it.
	failsafeMargin = 10
)

// Controller gates every desktop action behind an enable flag and a corner
// failsafe. Disabled calls are silent no-ops returning false; they never
// error, so model-driven scripts degrade instead of crashing.
type Controller struct {
	driver Driver
	log    *zap.Logger

	enabled atomic.Bool

	mu             sync.Mutex
	pause          time.Duration
	writeClipboard func(string) error
}

// NewController wraps a driver. The controller starts disabled.
func NewController(driver Driver, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		driver:         driver,
		log:            log,
		pause:          minPause,
		writeClipboard: clipboard.WriteAll,
	}
}

// SetEnabled toggles the whole facade.
func (c *Controller) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
	c.log.Info("automation toggled", zap.Bool("enabled", enabled))
}

// Enabled reports whether desktop actions are currently allowed.
func (c *Controller) Enabled() bool {
	return c.enabled.Load()
}

// SetPause sets the settle delay after each action, clamped to a safe range.
func (c *Controller) SetPause(d time.Duration) {
	if d < minPause {
		d = minPause
	}
	if d > maxPause {
		d = maxPause
	}
	c.mu.Lock()
	c.pause = d
	c.mu.Unlock()
}

// allowed runs the failsafe check before every action. A cursor parked in
// the top-left corner force-disables the facade.
func (c *Controller) allowed() bool {
	if !c.enabled.Load() {
		return false
	}
	x, y := c.driver.MouseLocation()
	if x <= failsafeMargin && y <= failsafeMargin {
		c.enabled.Store(false)
		c.log.Warn("failsafe corner hit, automation disabled")
		return false
	}
	return true
}

func (c *Controller) settle() {
	c.mu.Lock()
	d := c.pause
	c.mu.Unlock()
	time.Sleep(d)
}

// MoveMouse moves the pointer to absolute screen coordinates.
func (c *Controller) MoveMouse(x, y int) bool {
	if !c.allowed() {
		return false
	}
	c.driver.MoveMouse(x, y)
	c.settle()
	return true
}

// ClickMouse clicks button ("left", "right", "center") at the current
// position, optionally double.
func (c *Controller) ClickMouse(button string, double bool) bool {
	if !c.allowed() {
		return false
	}
	if button == "" {
		button = "left"
	}
	c.driver.Click(button, double)
	c.settle()
	return true
}

// ClickAt moves the pointer to x, y and clicks there.
func (c *Controller) ClickAt(x, y int, button string, double bool) bool {
	if !c.allowed() {
		return false
	}
	if button == "" {
		button = "left"
	}
	c.driver.MoveMouse(x, y)
	c.driver.Click(button, double)
	c.settle()
	return true
}

// Drag presses the left button and drags the pointer to x, y.
func (c *Controller) Drag(x, y int) bool {
	if !c.allowed() {
		return false
	}
	c.driver.Drag(x, y)
	c.settle()
	return true
}

// Scroll scrolls by dx, dy wheel steps.
func (c *Controller) Scroll(dx, dy int) bool {
	if !c.allowed() {
		return false
	}
	c.driver.Scroll(dx, dy)
	c.settle()
	return true
}

// TypeText types text with synthetic key events.
func (c *Controller) TypeText(text string) bool {
	if !c.allowed() {
		return false
	}
	c.driver.TypeText(text)
	c.settle()
	return true
}

// TypeTextViaClipboard puts text on the clipboard and pastes it. Reliable
// for non-ASCII text that per-key synthesis mangles.
func (c *Controller) TypeTextViaClipboard(text string) bool {
	if !c.allowed() {
		return false
	}
	c.mu.Lock()
	write := c.writeClipboard
	c.mu.Unlock()
	if err := write(text); err != nil {
		c.log.Warn("clipboard write failed", zap.Error(err))
		return false
	}
	pasteMod := "ctrl"
	if runtime.GOOS == "darwin" {
		pasteMod = "cmd"
	}
	if err := c.driver.KeyTap("v", pasteMod); err != nil {
		c.log.Warn("paste failed", zap.Error(err))
		return false
	}
	c.settle()
	return true
}

// PressKey taps a key with optional modifiers.
func (c *Controller) PressKey(key string, modifiers ...string) bool {
	if !c.allowed() {
		return false
	}
	if err := c.driver.KeyTap(key, modifiers...); err != nil {
		c.log.Warn("key tap failed", zap.String("key", key), zap.Error(err))
		return false
	}
	c.settle()
	return true
}

// HoldKey presses or releases a key. direction is "down" or "up".
func (c *Controller) HoldKey(key, direction string) bool {
	if !c.allowed() {
		return false
	}
	if err := c.driver.KeyToggle(key, direction); err != nil {
		c.log.Warn("key toggle failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// HoldKeyFor presses a key, keeps it down for d and releases it.
func (c *Controller) HoldKeyFor(key string, d time.Duration) bool {
	if !c.HoldKey(key, "down") {
		return false
	}
	if d < 0 {
		d = 0
	}
	if d > maxPause {
		d = maxPause
	}
	time.Sleep(d)
	return c.HoldKey(key, "up")
}

// ListWindows enumerates running process names as window candidates for
// ActivateWindow. Reading state is allowed even while disabled.
func (c *Controller) ListWindows() []string {
	procs, err := c.driver.Processes()
	if err != nil {
		c.log.Warn("process listing failed", zap.Error(err))
		return nil
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names
}

// ActivateWindow brings the window whose title matches to the front.
func (c *Controller) ActivateWindow(title string) bool {
	if !c.allowed() {
		return false
	}
	if err := c.driver.ActivateWindow(title); err != nil {
		c.log.Warn("window activation failed", zap.String("title", title), zap.Error(err))
		return false
	}
	c.settle()
	return true
}

// MousePosition returns the pointer position. Works even while disabled;
// reading state is harmless.
func (c *Controller) MousePosition() (x, y int) {
	return c.driver.MouseLocation()
}

// ScreenSize returns the primary display dimensions.
func (c *Controller) ScreenSize() (w, h int) {
	return c.driver.ScreenSize()
}

// FindImageOnScreen captures the screen and searches it for needle.
// Returns the center of the first match.
func (c *Controller) FindImageOnScreen(needle image.Image) (x, y int, found bool) {
	if !c.allowed() || needle == nil {
		return 0, 0, false
	}
	frame := c.driver.CaptureScreen()
	if frame == nil {
		return 0, 0, false
	}
	px, py, ok := locate(frame, needle)
	if !ok {
		return 0, 0, false
	}
	nb := needle.Bounds()
	return px + nb.Dx()/2, py + nb.Dy()/2, true
}

// CaptureFrame returns a raw screen frame. Reading the screen is harmless,
// so it is not gated by the enable flag.
func (c *Controller) CaptureFrame() image.Image {
	return c.driver.CaptureScreen()
}

// SystemInfo reports the host environment for the model's benefit.
func (c *Controller) SystemInfo() map[string]string {
	w, h := c.driver.ScreenSize()
	host, _ := os.Hostname()
	return map[string]string{
		"os":            runtime.GOOS,
		"arch":          runtime.GOARCH,
		"hostname":      host,
		"screen":        fmt.Sprintf("%dx%d", w, h),
		"active_window": c.driver.ActiveWindowTitle(),
	}
}

// Sleep pauses the calling script, clamped to the same range as the settle
// delay.
func (c *Controller) Sleep(d time.Duration) bool {
	if !c.allowed() {
		return false
	}
	if d < minPause {
		d = minPause
	}
	if d > maxPause {
		d = maxPause
	}
	time.Sleep(d)
	return true
}

// locate scans haystack for an exact pixel match of needle. Both images are
// compared through their RGBA values at full opacity.
func locate(haystack, needle image.Image) (x, y int, found bool) {
	hb := haystack.Bounds()
	nb := needle.Bounds()
	if nb.Dx() == 0 || nb.Dy() == 0 || nb.Dx() > hb.Dx() || nb.Dy() > hb.Dy() {
		return 0, 0, false
	}
	for oy := hb.Min.Y; oy <= hb.Max.Y-nb.Dy(); oy++ {
		for ox := hb.Min.X; ox <= hb.Max.X-nb.Dx(); ox++ {
			if matchAt(haystack, needle, ox, oy) {
				return ox - hb.Min.X, oy - hb.Min.Y, true
			}
		}
	}
	return 0, 0, false
}

func matchAt(haystack, needle image.Image, ox, oy int) bool {
	nb := needle.Bounds()
	for dy := 0; dy < nb.Dy(); dy++ {
		for dx := 0; dx < nb.Dx(); dx++ {
			hr, hg, hbl, _ := haystack.At(ox+dx, oy+dy).RGBA()
			nr, ng, nbl, _ := needle.At(nb.Min.X+dx, nb.Min.Y+dy).RGBA()
			if hr != nr || hg != ng || hbl != nbl {
				return false
			}
		}
	}
	return true
}

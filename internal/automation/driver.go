package automation

import "image"

// ProcessInfo describes one running process.
type ProcessInfo struct {
	PID  int
	Name string
}

// Driver abstracts the OS input layer so the facade can be exercised
// without a display server.
type Driver interface {
	MoveMouse(x, y int)
	Click(button string, double bool)
	Drag(x, y int)
	Scroll(dx, dy int)
	TypeText(text string)
	KeyTap(key string, modifiers ...string) error
	KeyToggle(key, direction string) error
	MouseLocation() (x, y int)
	ScreenSize() (w, h int)
	CaptureScreen() image.Image
	ActiveWindowTitle() string
	ActivateWindow(title string) error
	Processes() ([]ProcessInfo, error)
}

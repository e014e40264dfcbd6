package automation

import (
	"image"

	"github.com/go-vgo/robotgo"
)

// robotgoDriver drives the real desktop.
type robotgoDriver struct{}

// NewRobotgoDriver returns the production input driver.
func NewRobotgoDriver() Driver {
	return robotgoDriver{}
}

func (robotgoDriver) MoveMouse(x, y int) {
	robotgo.MoveSmooth(x, y)
}

func (robotgoDriver) Click(button string, double bool) {
	robotgo.Click(button, double)
}

func (robotgoDriver) Drag(x, y int) {
	robotgo.DragSmooth(x, y)
}

func (robotgoDriver) Scroll(dx, dy int) {
	robotgo.Scroll(dx, dy)
}

func (robotgoDriver) TypeText(text string) {
	robotgo.TypeStr(text)
}

func (robotgoDriver) KeyTap(key string, modifiers ...string) error {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	return robotgo.KeyTap(key, args...)
}

func (robotgoDriver) KeyToggle(key, direction string) error {
	return robotgo.KeyToggle(key, direction)
}

func (robotgoDriver) MouseLocation() (int, int) {
	return robotgo.Location()
}

func (robotgoDriver) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

func (robotgoDriver) CaptureScreen() image.Image {
	return robotgo.CaptureImg()
}

func (robotgoDriver) ActiveWindowTitle() string {
	return robotgo.GetTitle()
}

func (robotgoDriver) ActivateWindow(title string) error {
	return robotgo.ActiveName(title)
}

func (robotgoDriver) Processes() ([]ProcessInfo, error) {
	nps, err := robotgo.Process()
	if err != nil {
		return nil, err
	}
	out := make([]ProcessInfo, 0, len(nps))
	for _, p := range nps {
		out = append(out, ProcessInfo{PID: int(p.Pid), Name: p.Name})
	}
	return out, nil
}

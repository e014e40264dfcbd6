package automation

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrRefused reports an action the controller would not perform, either
// because automation is disabled or because the failsafe corner triggered.
var ErrRefused = errors.New("automation is disabled or the failsafe triggered")

// Run interprets one action line against c and returns its printable result.
// This is the surface generated code reaches through `oxbot auto`; every
// action goes through the controller, so the enable gate and the failsafe
// apply to scripted calls the same as to in-process ones.
func Run(c *Controller, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("missing action")
	}
	action, rest := args[0], args[1:]
	switch action {
	case "move":
		x, y, err := twoInts(rest)
		if err != nil {
			return "", err
		}
		return okOr(c.MoveMouse(x, y))

	case "click":
		button, double := clickArgs(rest)
		return okOr(c.ClickMouse(button, double))

	case "clickat":
		if len(rest) < 2 {
			return "", errors.New("usage: clickat X Y [button] [double]")
		}
		x, y, err := twoInts(rest[:2])
		if err != nil {
			return "", err
		}
		button, double := clickArgs(rest[2:])
		return okOr(c.ClickAt(x, y, button, double))

	case "drag":
		x, y, err := twoInts(rest)
		if err != nil {
			return "", err
		}
		return okOr(c.Drag(x, y))

	case "scroll":
		dx, dy, err := twoInts(rest)
		if err != nil {
			return "", err
		}
		return okOr(c.Scroll(dx, dy))

	case "type":
		if len(rest) == 0 {
			return "", errors.New("usage: type TEXT")
		}
		return okOr(c.TypeText(strings.Join(rest, " ")))

	case "paste":
		if len(rest) == 0 {
			return "", errors.New("usage: paste TEXT")
		}
		return okOr(c.TypeTextViaClipboard(strings.Join(rest, " ")))

	case "key":
		if len(rest) == 0 {
			return "", errors.New("usage: key KEY [MOD...]")
		}
		return okOr(c.PressKey(rest[0], rest[1:]...))

	case "hold":
		if len(rest) != 2 {
			return "", errors.New("usage: hold KEY MS")
		}
		ms, err := strconv.Atoi(rest[1])
		if err != nil {
			return "", fmt.Errorf("bad duration %q", rest[1])
		}
		return okOr(c.HoldKeyFor(rest[0], time.Duration(ms)*time.Millisecond))

	case "windows":
		return strings.Join(c.ListWindows(), "\n"), nil

	case "activate":
		if len(rest) == 0 {
			return "", errors.New("usage: activate TITLE")
		}
		return okOr(c.ActivateWindow(strings.Join(rest, " ")))

	case "find":
		if len(rest) != 1 {
			return "", errors.New("usage: find IMAGE_PATH")
		}
		needle, err := loadImage(rest[0])
		if err != nil {
			return "", err
		}
		x, y, found := c.FindImageOnScreen(needle)
		if !found {
			if !c.Enabled() {
				return "", ErrRefused
			}
			return "", errors.New("image not found on screen")
		}
		return fmt.Sprintf("%d %d", x, y), nil

	case "pos":
		x, y := c.MousePosition()
		return fmt.Sprintf("%d %d", x, y), nil

	case "screen":
		w, h := c.ScreenSize()
		return fmt.Sprintf("%dx%d", w, h), nil

	case "info":
		info := c.SystemInfo()
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+": "+info[k])
		}
		return strings.Join(lines, "\n"), nil

	case "sleep":
		if len(rest) != 1 {
			return "", errors.New("usage: sleep MS")
		}
		ms, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", fmt.Errorf("bad duration %q", rest[0])
		}
		return okOr(c.Sleep(time.Duration(ms) * time.Millisecond))

	default:
		return "", fmt.Errorf("unknown action %q", action)
	}
}

func okOr(done bool) (string, error) {
	if !done {
		return "", ErrRefused
	}
	return "ok", nil
}

func twoInts(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("expected two integers")
	}
	a, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad integer %q", args[0])
	}
	b, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad integer %q", args[1])
	}
	return a, b, nil
}

// clickArgs picks the button name and the double marker out of trailing
// arguments in either order.
func clickArgs(args []string) (button string, double bool) {
	for _, a := range args {
		if a == "double" {
			double = true
		} else {
			button = a
		}
	}
	return button, double
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

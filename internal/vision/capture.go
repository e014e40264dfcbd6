package vision

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	maxWidth  = 1280
	maxHeight = 720
	quality   = 60
)

// ErrDisabled is returned by Capture while vision is off.
var ErrDisabled = errors.New("vision is disabled")

// Grabber produces a raw screen frame.
type Grabber func() (image.Image, error)

// Capturer turns screen frames into compact base64 JPEG payloads suitable
// for a vision model, and holds at most one pending screenshot for the next
// submission.
type Capturer struct {
	grab Grabber
	log  *zap.Logger

	mu      sync.Mutex
	enabled bool
	pending string
}

func NewCapturer(grab Grabber, log *zap.Logger) *Capturer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Capturer{grab: grab, log: log}
}

// SetEnabled toggles capture.
func (c *Capturer) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Enabled reports whether capture is allowed.
func (c *Capturer) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Capture grabs one frame, downscales it to fit 1280x720 and returns it as
// a base64 JPEG string.
func (c *Capturer) Capture() (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if c.grab == nil {
		return "", errors.New("no screen grabber available")
	}
	frame, err := c.grab()
	if err != nil {
		return "", err
	}
	if frame == nil {
		return "", errors.New("empty frame")
	}

	frame = scaleDown(frame)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: quality}); err != nil {
		return "", err
	}
	payload := base64.StdEncoding.EncodeToString(buf.Bytes())
	c.log.Debug("screenshot captured",
		zap.Int("width", frame.Bounds().Dx()),
		zap.Int("height", frame.Bounds().Dy()),
		zap.Int("bytes", buf.Len()))
	return payload, nil
}

// SetPending stores a screenshot for the next submission, replacing any
// previous one.
func (c *Capturer) SetPending(payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = payload
}

// TakePending returns and clears the stored screenshot.
func (c *Capturer) TakePending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	c.pending = ""
	return p, p != ""
}

// scaleDown shrinks img to fit within maxWidth x maxHeight preserving
// aspect ratio. Frames already within bounds pass through untouched.
func scaleDown(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth && h <= maxHeight {
		return img
	}
	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

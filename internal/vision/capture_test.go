package vision

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func grabberFor(w, h int) Grabber {
	return func() (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, w, h)), nil
	}
}

func decodePayload(t *testing.T, payload string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestCaptureDisabled(t *testing.T) {
	c := NewCapturer(grabberFor(100, 100), zap.NewNop())
	_, err := c.Capture()
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCaptureProducesJPEG(t *testing.T) {
	c := NewCapturer(grabberFor(640, 480), zap.NewNop())
	c.SetEnabled(true)

	payload, err := c.Capture()
	require.NoError(t, err)

	img := decodePayload(t, payload)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestCaptureDownscalesLargeFrames(t *testing.T) {
	c := NewCapturer(grabberFor(3840, 2160), zap.NewNop())
	c.SetEnabled(true)

	payload, err := c.Capture()
	require.NoError(t, err)

	img := decodePayload(t, payload)
	assert.LessOrEqual(t, img.Bounds().Dx(), maxWidth)
	assert.LessOrEqual(t, img.Bounds().Dy(), maxHeight)
	// Aspect ratio survives the resize.
	assert.Equal(t, 1280, img.Bounds().Dx())
	assert.Equal(t, 720, img.Bounds().Dy())
}

func TestCaptureKeepsAspectForTallFrames(t *testing.T) {
	c := NewCapturer(grabberFor(1080, 1920), zap.NewNop())
	c.SetEnabled(true)

	payload, err := c.Capture()
	require.NoError(t, err)

	img := decodePayload(t, payload)
	assert.Equal(t, 720, img.Bounds().Dy())
	assert.Less(t, img.Bounds().Dx(), 720)
}

func TestCaptureGrabberFailure(t *testing.T) {
	boom := errors.New("no display")
	c := NewCapturer(func() (image.Image, error) { return nil, boom }, zap.NewNop())
	c.SetEnabled(true)

	_, err := c.Capture()
	assert.ErrorIs(t, err, boom)
}

func TestPendingSlotHoldsOne(t *testing.T) {
	c := NewCapturer(nil, zap.NewNop())

	_, ok := c.TakePending()
	assert.False(t, ok)

	c.SetPending("first")
	c.SetPending("second")

	got, ok := c.TakePending()
	require.True(t, ok)
	assert.Equal(t, "second", got)

	_, ok = c.TakePending()
	assert.False(t, ok)
}

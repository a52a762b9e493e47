package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"
)

// ErrNotReady means no frame is available right now. Callers skip the tick.
var ErrNotReady = errors.New("camera not ready")

// Frame is one captured still image
type Frame struct {
	Data       []byte
	Camera     string
	CapturedAt time.Time
	Width      int
	Height     int
}

// Device is a camera that can be acquired for the duration of a session
type Device interface {
	Open(ctx context.Context) (Source, error)
}

// Source yields frames from an acquired camera
type Source interface {
	// Capture returns the next frame or ErrNotReady.
	Capture(ctx context.Context) (*Frame, error)
	Close() error
}

// newFrame checks that data decodes as an image and records its dimensions.
// Anything undecodable is treated as the camera not being ready yet.
func newFrame(name string, data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, ErrNotReady
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a decodable image: %v", ErrNotReady, name, err)
	}
	return &Frame{
		Data:       data,
		Camera:     name,
		CapturedAt: time.Now(),
		Width:      cfg.Width,
		Height:     cfg.Height,
	}, nil
}

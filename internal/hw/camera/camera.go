package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cjeanneret/skyscan/internal/config"
	"github.com/cjeanneret/skyscan/internal/hw/gpio"
)

// ErrUnsupportedType is returned by New for an unknown camera.type.
var ErrUnsupportedType = errors.New("unsupported camera type")

// Camera is the high-level interface used by the rest of the application.
// It represents an abstract "camera", regardless of how it's controlled
// (GPIO, USB, network protocol, etc.).
type Camera interface {
	// Shoot triggers a single photo capture (simple mode).
	Shoot() error
}

// New selects a camera implementation from the camera section of the config.
func New(g gpio.Driver, cfg *config.Config) (Camera, error) {
	switch cfg.Camera.Type {
	case "nikon_d90_gpio", "remote_gpio":
		return NewRemoteRelease(g, cfg.Camera.FocusPin, cfg.Camera.ShutterPin, cfg.FocusDelay(), cfg.ShutterDelay()), nil
	case "mock":
		return &Recorder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, cfg.Camera.Type)
	}
}

// Recorder is a Camera that only counts shots. It stands in for a body
// when running without hardware. If Err is set, Shoot returns it.
type Recorder struct {
	mu    sync.Mutex
	shots int
	Err   error
}

// Shoot records a shot.
func (r *Recorder) Shoot() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.shots++
	return nil
}

// Shots returns the number of successful shots so far.
func (r *Recorder) Shots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shots
}

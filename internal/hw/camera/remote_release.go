package camera

import (
	"time"

	"github.com/cjeanneret/skyscan/internal/debug"
	"github.com/cjeanneret/skyscan/internal/hw/gpio"
)

// RemoteRelease fires a camera through a wired two-line remote connector
// (Nikon D90 MC-DC1 style, and most three-pin release cables):
//   - GND: shared with the Raspberry Pi
//   - FOCUS: half-press, active LOW
//   - SHUTTER: full press, active LOW
//
// Both lines idle HIGH. A shot is FOCUS low, wait for AF, SHUTTER low,
// hold, then release SHUTTER and FOCUS in that order.
type RemoteRelease struct {
	gpio         gpio.Driver
	focusPin     int
	shutterPin   int
	focusDelay   time.Duration
	shutterDelay time.Duration
}

// NewRemoteRelease configures both lines as outputs and parks them HIGH.
func NewRemoteRelease(g gpio.Driver, focusPin, shutterPin int, focusDelay, shutterDelay time.Duration) *RemoteRelease {
	_ = g.SetupPin(focusPin, gpio.Output)
	_ = g.SetupPin(shutterPin, gpio.Output)
	_ = g.WritePin(focusPin, gpio.High)
	_ = g.WritePin(shutterPin, gpio.High)

	return &RemoteRelease{
		gpio:         g,
		focusPin:     focusPin,
		shutterPin:   shutterPin,
		focusDelay:   focusDelay,
		shutterDelay: shutterDelay,
	}
}

// Shoot runs one focus/shutter cycle. FOCUS is released if SHUTTER fails.
func (r *RemoteRelease) Shoot() error {
	debug.Printf("Camera: triggering shot (focus=%d, shutter=%d)", r.focusPin, r.shutterPin)

	debug.Verbose("Camera: FOCUS pin %d -> LOW", r.focusPin)
	if err := r.gpio.WritePin(r.focusPin, gpio.Low); err != nil {
		return err
	}
	time.Sleep(r.focusDelay)

	debug.Verbose("Camera: SHUTTER pin %d -> LOW", r.shutterPin)
	if err := r.gpio.WritePin(r.shutterPin, gpio.Low); err != nil {
		_ = r.gpio.WritePin(r.focusPin, gpio.High)
		return err
	}
	time.Sleep(r.shutterDelay)

	if err := r.gpio.WritePin(r.shutterPin, gpio.High); err != nil {
		return err
	}
	if err := r.gpio.WritePin(r.focusPin, gpio.High); err != nil {
		return err
	}

	debug.Verbose("Camera: shot released")
	return nil
}

package geometry

import (
	"errors"
	"fmt"
)

var (
	// ErrRange is returned when a motor range (total steps on an axis) is not positive.
	ErrRange = errors.New("motor range must be positive")
	// ErrOutOfRange is returned when a step value lies outside [-total/2, total/2].
	ErrOutOfRange = errors.New("step value out of range")
	// ErrInvalidInitialPosition is returned when the initial tilt is outside the upper hemisphere.
	ErrInvalidInitialPosition = errors.New("initial position must be in the upper hemisphere")
	// ErrInvalidFOV is returned when a field of view is not in (0, 360] degrees
	// or is narrower than one motor step.
	ErrInvalidFOV = errors.New("field of view must be in (0, 360] degrees and span at least one motor step")
)

// MotorRange is the number of discrete steps covering one full turn of each axis.
type MotorRange struct {
	H int `json:"h"` // pan
	V int `json:"v"` // tilt
}

// Validate checks that both axes have a positive step count.
func (r MotorRange) Validate() error {
	if r.H <= 0 || r.V <= 0 {
		return fmt.Errorf("%w: got h=%d v=%d", ErrRange, r.H, r.V)
	}
	return nil
}

// MotorPosition is a signed step offset from the mechanical center.
// H wraps modulo the pan range, V is the elevation in [0, range.V/2].
type MotorPosition struct {
	H int `json:"h"`
	V int `json:"v"`
}

func (p MotorPosition) String() string {
	return fmt.Sprintf("(h=%d, v=%d)", p.H, p.V)
}

// InUpperHemisphere reports whether p.V lies in [0, r.V/2].
func (r MotorRange) InUpperHemisphere(p MotorPosition) bool {
	return p.V >= 0 && p.V <= r.V/2
}

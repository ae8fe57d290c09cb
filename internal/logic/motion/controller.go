package motion

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjeanneret/skyscan/internal/debug"
	"github.com/cjeanneret/skyscan/internal/hw/stepper"
	"github.com/cjeanneret/skyscan/internal/logic/geometry"
)

// ErrUnreachable is returned by MoveTo for a target below the horizon or
// past the zenith.
var ErrUnreachable = errors.New("target outside the upper hemisphere")

// StepRecorder receives the number of steps each axis actually moved.
type StepRecorder interface {
	AddMotorSteps(axis string, steps int)
}

// Controller orchestrates pan/tilt movements via two stepper motors.
// It's an intermediate layer between business logic (scan sequences)
// and low-level (GPIO), and keeps the head's absolute motor position.
type Controller struct {
	pan      *stepper.Stepper
	tilt     *stepper.Stepper
	rng      geometry.MotorRange
	origin   geometry.MotorPosition // head position when the steppers were created
	recorder StepRecorder
}

// NewController builds a controller for a head that currently sits at origin.
func NewController(pan, tilt *stepper.Stepper, r geometry.MotorRange, origin geometry.MotorPosition) (*Controller, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !r.InUpperHemisphere(origin) {
		return nil, fmt.Errorf("origin %s: %w", origin, ErrUnreachable)
	}
	origin.H = geometry.NormalizeSteps(origin.H, r.H)
	return &Controller{
		pan:    pan,
		tilt:   tilt,
		rng:    r,
		origin: origin,
	}, nil
}

// SetRecorder installs rec to be told about every completed axis move.
func (c *Controller) SetRecorder(rec StepRecorder) {
	c.recorder = rec
}

// Range returns the motor range the controller wraps pan moves against.
func (c *Controller) Range() geometry.MotorRange {
	return c.rng
}

// Position returns the current head position. Pan is wrapped into
// [-H/2, H/2), tilt is absolute.
func (c *Controller) Position() geometry.MotorPosition {
	return geometry.MotorPosition{
		H: geometry.NormalizeSteps(c.origin.H+c.pan.Position(), c.rng.H),
		V: c.origin.V + c.tilt.Position(),
	}
}

// MoveTo drives the head to target. Pan takes the shorter way around,
// tilt moves directly. Pan moves first.
func (c *Controller) MoveTo(ctx context.Context, target geometry.MotorPosition) error {
	if !c.rng.InUpperHemisphere(target) {
		return fmt.Errorf("move to %s: %w", target, ErrUnreachable)
	}
	from := c.Position()
	dh := geometry.HorizontalDelta(from.H, geometry.NormalizeSteps(target.H, c.rng.H), c.rng)
	dv := target.V - from.V

	debug.Verbose("Motion: %s -> %s (pan %+d, tilt %+d)", from, target, dh, dv)
	if err := c.drive(ctx, "pan", c.pan, dh); err != nil {
		return err
	}
	return c.drive(ctx, "tilt", c.tilt, dv)
}

func (c *Controller) MovePan(steps int) error {
	return c.drive(context.Background(), "pan", c.pan, steps)
}

func (c *Controller) MoveTilt(steps int) error {
	return c.drive(context.Background(), "tilt", c.tilt, steps)
}

// MovePanTilt performs a combined relative movement (sequential).
func (c *Controller) MovePanTilt(panSteps, tiltSteps int) error {
	if err := c.MovePan(panSteps); err != nil {
		return err
	}
	return c.MoveTilt(tiltSteps)
}

// EnableMotors powers both drivers so the head holds position.
func (c *Controller) EnableMotors() error {
	return errors.Join(c.pan.Enable(), c.tilt.Enable())
}

// DisableMotors releases both drivers. Used while the shutter is open.
func (c *Controller) DisableMotors() error {
	return errors.Join(c.pan.Disable(), c.tilt.Disable())
}

func (c *Controller) drive(ctx context.Context, axis string, s *stepper.Stepper, steps int) error {
	if steps == 0 {
		return nil
	}
	direction := "forward"
	if steps < 0 {
		direction = "backward"
	}
	debug.Move(axis, abs(steps), direction)

	before := s.Position()
	err := s.MoveStepsContext(ctx, steps)
	if moved := abs(s.Position() - before); moved > 0 && c.recorder != nil {
		c.recorder.AddMotorSteps(axis, moved)
	}
	return err
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

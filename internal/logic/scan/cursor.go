// Package scan turns the hemisphere geometry into an endless, cyclic stream
// of motor positions for the capture loop.
package scan

import (
	"fmt"
	"slices"

	"github.com/cjeanneret/skyscan/internal/debug"
	"github.com/cjeanneret/skyscan/internal/logic/geometry"
)

// Cursor walks an ordered scan sequence forever, wrapping at the end.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	rng       geometry.MotorRange
	positions []geometry.MotorPosition
	index     int
}

// New computes the snake-ordered hemisphere scan for the given motor range
// and field of view, and positions the cursor on the sample closest to initial.
func New(r geometry.MotorRange, hFOVDeg, vFOVDeg float64, initial geometry.MotorPosition) (*Cursor, error) {
	rings, err := geometry.Rings(r, hFOVDeg, vFOVDeg)
	if err != nil {
		return nil, err
	}
	return NewFromRings(r, rings, initial)
}

// NewFromRings is New for callers that already hold the rings from
// geometry.Rings. The pan value of initial may lie outside the motor range;
// it is wrapped before the start sample is chosen.
func NewFromRings(r geometry.MotorRange, rings []geometry.Ring, initial geometry.MotorPosition) (*Cursor, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !r.InUpperHemisphere(initial) {
		return nil, fmt.Errorf("%w: v=%d not in [0, %d]", geometry.ErrInvalidInitialPosition, initial.V, r.V/2)
	}
	raw, err := geometry.RingPositions(r, rings)
	if err != nil {
		return nil, err
	}
	positions := geometry.SnakeOrder(raw)
	initial.H = geometry.NormalizeSteps(initial.H, r.H)
	start := geometry.NearestIndex(initial, positions, r)

	debug.Verbose("Scan: %d positions, start index %d (closest to %v)", len(positions), start, initial)

	c := &Cursor{rng: r, positions: positions}
	if len(positions) > 0 {
		c.index = start
	}
	return c, nil
}

// NewCursor wraps a copy of an existing sequence. start is reduced modulo the
// sequence length; an empty sequence gives a cursor that never yields a position.
func NewCursor(sequence []geometry.MotorPosition, start int) *Cursor {
	c := &Cursor{positions: slices.Clone(sequence)}
	if n := len(sequence); n > 0 {
		c.index = ((start % n) + n) % n
	}
	return c
}

// Current returns the position under the cursor, or false if the sequence is empty.
func (c *Cursor) Current() (geometry.MotorPosition, bool) {
	if len(c.positions) == 0 {
		return geometry.MotorPosition{}, false
	}
	return c.positions[c.index], true
}

// Advance moves to the next position, wrapping to the first one after the last.
// It returns false only when the sequence is empty.
func (c *Cursor) Advance() bool {
	if len(c.positions) == 0 {
		return false
	}
	c.index = (c.index + 1) % len(c.positions)
	return true
}

// Index returns the current index in the sequence.
func (c *Cursor) Index() int { return c.index }

// Len returns the number of positions in one full pass.
func (c *Cursor) Len() int { return len(c.positions) }

// Range returns the motor range the sequence was computed for.
// It is zero for cursors built with NewCursor.
func (c *Cursor) Range() geometry.MotorRange { return c.rng }

// Positions returns a copy of the full ordered sequence.
func (c *Cursor) Positions() []geometry.MotorPosition {
	return slices.Clone(c.positions)
}

package geometry

import (
	"fmt"
	"math"
)

// Ring describes one elevation ring of the hemisphere scan.
type Ring struct {
	Step         int     `json:"step"`          // tilt step of the ring
	ElevationRad float64 `json:"elevation_rad"` // tilt angle of the ring
	Radius       float64 `json:"radius"`        // cos(elevation), relative circumference
	Count        int     `json:"count"`         // azimuth samples on the ring
}

// RingStepSize returns the tilt distance, in steps, between two consecutive rings.
// One vertical field of view is covered per ring, with a minimum of one step.
func RingStepSize(r MotorRange, vFOVDeg float64) int {
	size := int(math.Round(float64(r.V) * DegToRad(vFOVDeg) / (2 * math.Pi)))
	if size < 1 {
		size = 1
	}
	return size
}

// AzimuthCount returns the number of pan samples needed on a ring of the given
// radius so that adjacent samples are never further apart than hFOVRad.
func AzimuthCount(radius, hFOVRad float64) int {
	count := int(math.Ceil(2 * math.Pi * radius / hFOVRad))
	if count < 1 {
		count = 1
	}
	return count
}

// Rings lists the elevation rings from the horizon (step 0) up to range.V/2.
func Rings(r MotorRange, hFOVDeg, vFOVDeg float64) ([]Ring, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := validateFOV(hFOVDeg, r.H); err != nil {
		return nil, fmt.Errorf("horizontal: %w", err)
	}
	if err := validateFOV(vFOVDeg, r.V); err != nil {
		return nil, fmt.Errorf("vertical: %w", err)
	}

	hFOVRad := DegToRad(hFOVDeg)
	stepSize := RingStepSize(r, vFOVDeg)
	maxStep := r.V / 2

	rings := make([]Ring, 0, maxStep/stepSize+1)
	for s := 0; s <= maxStep; s += stepSize {
		elevation, err := StepsToRadians(s, r.V)
		if err != nil {
			return nil, err
		}
		radius := math.Cos(elevation)
		rings = append(rings, Ring{
			Step:         s,
			ElevationRad: elevation,
			Radius:       radius,
			Count:        AzimuthCount(radius, hFOVRad),
		})
	}
	return rings, nil
}

// SampleRings enumerates the raw scan positions of the upper hemisphere:
// ring by ring from the horizon upwards, azimuth ascending within a ring.
// initial is only checked to lie in the upper hemisphere.
func SampleRings(r MotorRange, hFOVDeg, vFOVDeg float64, initial MotorPosition) ([]MotorPosition, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !r.InUpperHemisphere(initial) {
		return nil, fmt.Errorf("%w: v=%d not in [0, %d]", ErrInvalidInitialPosition, initial.V, r.V/2)
	}

	rings, err := Rings(r, hFOVDeg, vFOVDeg)
	if err != nil {
		return nil, err
	}
	return RingPositions(r, rings)
}

// RingPositions expands rings computed by Rings into motor positions,
// azimuth ascending within each ring.
func RingPositions(r MotorRange, rings []Ring) ([]MotorPosition, error) {
	total := 0
	for _, ring := range rings {
		total += ring.Count
	}
	positions := make([]MotorPosition, 0, total)
	for _, ring := range rings {
		for i := 0; i < ring.Count; i++ {
			azimuth := 2 * math.Pi * float64(i) / float64(ring.Count)
			h, err := RadiansToSteps(azimuth, r.H)
			if err != nil {
				return nil, err
			}
			positions = append(positions, MotorPosition{H: NormalizeSteps(h, r.H), V: ring.Step})
		}
	}
	return positions, nil
}

// validateFOV rejects non-finite angles, angles outside (0, 360] and angles
// narrower than one motor step on an axis of the given size.
func validateFOV(deg float64, steps int) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) || deg <= 0 || deg > 360 {
		return fmt.Errorf("%w, got %g", ErrInvalidFOV, deg)
	}
	if minDeg := 360 / float64(steps); deg < minDeg {
		return fmt.Errorf("%w, got %g (one step is %g deg)", ErrInvalidFOV, deg, minDeg)
	}
	return nil
}

package geometry

import (
	"fmt"
	"math"
)

// StepsToRadians converts a signed step offset to an angle in radians.
// steps must lie in [-totalSteps/2, totalSteps/2]; the upper bound maps to π.
// Formula: angle = π × steps / (totalSteps/2), with integer halving.
func StepsToRadians(steps, totalSteps int) (float64, error) {
	if totalSteps <= 0 {
		return 0, fmt.Errorf("%w: total steps %d", ErrRange, totalSteps)
	}
	half := totalSteps / 2
	if steps < -half || steps > half {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, steps, -half, half)
	}
	if half == 0 {
		return 0, nil
	}
	return math.Pi * float64(steps) / float64(half), nil
}

// RadiansToSteps converts an angle in radians to the nearest motor step.
// The angle is first wrapped into [-π, π), so any finite input is accepted.
// Halfway values are rounded away from zero.
func RadiansToSteps(radians float64, totalSteps int) (int, error) {
	if totalSteps <= 0 {
		return 0, fmt.Errorf("%w: total steps %d", ErrRange, totalSteps)
	}
	if math.IsNaN(radians) || math.IsInf(radians, 0) {
		return 0, fmt.Errorf("%w: angle %v is not finite", ErrOutOfRange, radians)
	}
	half := totalSteps / 2
	return int(math.Round(WrapRadians(radians) * float64(half) / math.Pi)), nil
}

// WrapRadians wraps an angle into [-π, π).
func WrapRadians(radians float64) float64 {
	m := math.Mod(radians+math.Pi, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	if m >= 2*math.Pi {
		m -= 2 * math.Pi
	}
	return m - math.Pi
}

// NormalizeSteps wraps a pan step value into [-totalSteps/2, totalSteps/2).
// totalSteps must be positive.
func NormalizeSteps(steps, totalSteps int) int {
	half := totalSteps / 2
	m := (steps + half) % totalSteps
	if m < 0 {
		m += totalSteps
	}
	return m - half
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

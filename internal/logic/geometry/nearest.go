package geometry

import "math"

// Distance is the step distance between two positions. The pan axis wraps
// around (shortest of the direct and wraparound paths), the tilt axis does not.
func Distance(a, b MotorPosition, r MotorRange) float64 {
	dh := float64(panDistance(a.H, b.H, r.H))
	dv := math.Abs(float64(a.V - b.V))
	return math.Sqrt(dh*dh + dv*dv)
}

// NearestIndex returns the index of the candidate closest to target.
// Ties resolve to the lowest index. An empty slice returns 0; callers
// must check for emptiness before using the result.
func NearestIndex(target MotorPosition, candidates []MotorPosition, r MotorRange) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range candidates {
		if d := Distance(target, c, r); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// HorizontalDelta returns the signed pan move, in steps, that reaches `to`
// from `from` along the shorter way around the pan axis.
func HorizontalDelta(from, to int, r MotorRange) int {
	d := to - from
	if r.H <= 0 {
		return d
	}
	d %= r.H
	if d > r.H/2 {
		d -= r.H
	} else if d < -r.H/2 {
		d += r.H
	}
	return d
}

// panDistance is the unsigned shortest distance between two pan values on an
// axis of total steps. Inputs need not be normalised.
func panDistance(a, b, total int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if total <= 0 {
		return d
	}
	d %= total
	if w := total - d; w < d {
		return w
	}
	return d
}

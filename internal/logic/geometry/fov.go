package geometry

import (
	"fmt"
	"math"

	"github.com/cjeanneret/skyscan/internal/config"
)

// FOVCalculator resolves the camera field of view from configuration:
// an explicit fov section wins, otherwise it is derived from lens and sensor.
type FOVCalculator struct {
	cfg *config.Config
}

// NewFOVCalculator creates a new FOV calculator.
// Returns an error if neither an explicit FOV nor sensor information is available.
func NewFOVCalculator(cfg *config.Config) (*FOVCalculator, error) {
	if cfg.FOV == nil && cfg.Sensor == nil {
		return nil, fmt.Errorf("fov or sensor configuration is required for FOV calculations")
	}
	if cfg.FOV == nil && cfg.Lens.FocalLengthMm <= 0 {
		return nil, fmt.Errorf("lens focal length must be > 0, got %g", cfg.Lens.FocalLengthMm)
	}
	return &FOVCalculator{cfg: cfg}, nil
}

// HorizontalFOV returns the horizontal field of view in degrees.
// Formula: FOV = 2 × arctan(sensor_width / (2 × focal_length))
func (f *FOVCalculator) HorizontalFOV() float64 {
	if f.cfg.FOV != nil {
		return f.cfg.FOV.HorizontalDeg
	}
	return lensFOV(f.cfg.Sensor.WidthMm, f.cfg.Lens.FocalLengthMm)
}

// VerticalFOV returns the vertical field of view in degrees.
// Formula: FOV = 2 × arctan(sensor_height / (2 × focal_length))
func (f *FOVCalculator) VerticalFOV() float64 {
	if f.cfg.FOV != nil {
		return f.cfg.FOV.VerticalDeg
	}
	return lensFOV(f.cfg.Sensor.HeightMm, f.cfg.Lens.FocalLengthMm)
}

// ScanHorizontalFOV is the horizontal FOV handed to the hemisphere sampler,
// shrunk by the configured overlap so that neighbouring shots share content.
// Angle = FOV_horizontal × (1 - overlap_ratio)
func (f *FOVCalculator) ScanHorizontalFOV() float64 {
	return f.HorizontalFOV() * (1.0 - f.cfg.OverlapRatio())
}

// ScanVerticalFOV is the vertical counterpart of ScanHorizontalFOV.
func (f *FOVCalculator) ScanVerticalFOV() float64 {
	return f.VerticalFOV() * (1.0 - f.cfg.OverlapRatio())
}

func lensFOV(sensorMm, focalMm float64) float64 {
	return RadToDeg(2.0 * math.Atan(sensorMm/(2.0*focalMm)))
}

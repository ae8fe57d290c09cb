package geometry

import (
	"math"
	"testing"

	"github.com/cjeanneret/skyscan/internal/config"
)

const epsilon = 0.01 // tolerance for float comparisons (degrees)

func newFOVConfig(focalMm, sensorW, sensorH, overlapPct float64) *config.Config {
	return &config.Config{
		Lens:   config.LensConfig{FocalLengthMm: focalMm},
		Sensor: &config.SensorConfig{WidthMm: sensorW, HeightMm: sensorH},
		Defaults: config.DefaultsConfig{
			OverlapPercent: overlapPct,
		},
	}
}

func TestNewFOVCalculator_NoSource(t *testing.T) {
	cfg := &config.Config{Lens: config.LensConfig{FocalLengthMm: 35}}
	if _, err := NewFOVCalculator(cfg); err == nil {
		t.Error("expected error without sensor or fov, got nil")
	}
}

func TestNewFOVCalculator_SensorWithoutFocalLength(t *testing.T) {
	cfg := newFOVConfig(0, 23.6, 15.8, 0)
	if _, err := NewFOVCalculator(cfg); err == nil {
		t.Error("expected error for zero focal length, got nil")
	}
}

// Reference: Nikon APS-C (23.6 x 15.8 mm) with 35mm lens
// HorizontalFOV = 2 * atan(23.6 / (2*35)) * 180/pi ~ 37.22 deg
// VerticalFOV   = 2 * atan(15.8 / (2*35)) * 180/pi ~ 25.43 deg
func TestFOVCalculator_NikonAPSC_35mm(t *testing.T) {
	fov, err := NewFOVCalculator(newFOVConfig(35, 23.6, 15.8, 0))
	if err != nil {
		t.Fatal(err)
	}

	wantH := 2.0 * math.Atan(23.6/(2.0*35.0)) * 180.0 / math.Pi
	if got := fov.HorizontalFOV(); math.Abs(got-wantH) > epsilon {
		t.Errorf("HorizontalFOV() = %v, want ~%v", got, wantH)
	}
	wantV := 2.0 * math.Atan(15.8/(2.0*35.0)) * 180.0 / math.Pi
	if got := fov.VerticalFOV(); math.Abs(got-wantV) > epsilon {
		t.Errorf("VerticalFOV() = %v, want ~%v", got, wantV)
	}
}

func TestFOVCalculator_ExplicitFOVWins(t *testing.T) {
	cfg := newFOVConfig(35, 23.6, 15.8, 0)
	cfg.FOV = &config.FOVConfig{HorizontalDeg: 34.16, VerticalDeg: 25.72}
	fov, err := NewFOVCalculator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := fov.HorizontalFOV(); got != 34.16 {
		t.Errorf("HorizontalFOV() = %v, want 34.16", got)
	}
	if got := fov.VerticalFOV(); got != 25.72 {
		t.Errorf("VerticalFOV() = %v, want 25.72", got)
	}
}

func TestFOVCalculator_FOV_DecreasesWithFocalLength(t *testing.T) {
	fov18, _ := NewFOVCalculator(newFOVConfig(18, 23.6, 15.8, 0))
	fov200, _ := NewFOVCalculator(newFOVConfig(200, 23.6, 15.8, 0))

	if fov18.HorizontalFOV() <= fov200.HorizontalFOV() {
		t.Errorf("18mm FOV (%v) should be larger than 200mm FOV (%v)",
			fov18.HorizontalFOV(), fov200.HorizontalFOV())
	}
	if fov18.VerticalFOV() <= fov200.VerticalFOV() {
		t.Errorf("18mm vertical FOV (%v) should be larger than 200mm vertical FOV (%v)",
			fov18.VerticalFOV(), fov200.VerticalFOV())
	}
}

func TestFOVCalculator_ScanFOV_Overlap(t *testing.T) {
	cases := []struct {
		name    string
		overlap float64
		factor  float64
	}{
		{"none", 0, 1.0},
		{"30pct", 30, 0.7},
		{"50pct", 50, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fov, _ := NewFOVCalculator(newFOVConfig(35, 23.6, 15.8, tc.overlap))
			if got, want := fov.ScanHorizontalFOV(), fov.HorizontalFOV()*tc.factor; math.Abs(got-want) > epsilon {
				t.Errorf("ScanHorizontalFOV() = %v, want %v", got, want)
			}
			if got, want := fov.ScanVerticalFOV(), fov.VerticalFOV()*tc.factor; math.Abs(got-want) > epsilon {
				t.Errorf("ScanVerticalFOV() = %v, want %v", got, want)
			}
		})
	}
}

package main

import (
	"fmt"
	"math"

	"github.com/cjeanneret/skyscan/internal/config"
	"github.com/cjeanneret/skyscan/internal/logic/geometry"
	"github.com/cjeanneret/skyscan/internal/web"
)

// validateCLIOverrides checks that non-zero CLI overrides are within valid ranges.
// Zero values are ignored (they mean "use config default").
func validateCLIOverrides(hfov, vfov float64, o web.Overrides) error {
	if hfov != 0 && !validFOV(hfov) {
		return fmt.Errorf("hfov must be in (0, 360], got %g", hfov)
	}
	if vfov != 0 && !validFOV(vfov) {
		return fmt.Errorf("vfov must be in (0, 360], got %g", vfov)
	}
	return web.ValidateOverrides(o)
}

func validFOV(deg float64) bool {
	return !math.IsNaN(deg) && !math.IsInf(deg, 0) && deg > 0 && deg <= 360
}

// applyOverrides mutates cfg with overrides. Only non-zero override values are applied.
// A focal length override makes the lens the FOV source again when a sensor
// is configured, otherwise an explicit fov section would hide it.
func applyOverrides(cfg *config.Config, o web.Overrides) {
	if o.FocalLengthMm > 0 {
		cfg.Lens.FocalLengthMm = o.FocalLengthMm
		if cfg.Sensor != nil {
			cfg.FOV = nil
		}
	}
	if o.OverlapPercent > 0 {
		cfg.Defaults.OverlapPercent = o.OverlapPercent
	}
	if o.Shots > 0 {
		cfg.Scan.Shots = o.Shots
	}
}

// applyOverridesToCopy returns a new config with overrides applied.
// Zero values in overrides mean "use base config".
func applyOverridesToCopy(base *config.Config, o web.Overrides) *config.Config {
	cfg := *base
	applyOverrides(&cfg, o)
	return &cfg
}

// applyFOVOverride replaces the field of view with explicit values. A zero
// axis keeps the value the config resolves to.
func applyFOVOverride(cfg *config.Config, hfov, vfov float64) error {
	if hfov == 0 && vfov == 0 {
		return nil
	}
	if hfov == 0 || vfov == 0 {
		fovCalc, err := geometry.NewFOVCalculator(cfg)
		if err != nil {
			return fmt.Errorf("cannot complete partial FOV override: %w", err)
		}
		if hfov == 0 {
			hfov = fovCalc.HorizontalFOV()
		}
		if vfov == 0 {
			vfov = fovCalc.VerticalFOV()
		}
	}
	cfg.FOV = &config.FOVConfig{HorizontalDeg: hfov, VerticalDeg: vfov}
	return nil
}

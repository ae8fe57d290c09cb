package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes caps the size of a config file accepted by Load.
const MaxConfigFileBytes = 1 << 20

// StepperConfig holds the configuration for a stepper motor.
type StepperConfig struct {
	StepPin       int `yaml:"step_pin"`
	DirPin        int `yaml:"dir_pin"`
	EnablePin     int `yaml:"enable_pin"` // A4988 ENABLE pin (BCM). 0 = not used. Active LOW.
	StepsPerRev   int `yaml:"steps_per_rev"`
	Microstepping int `yaml:"microstepping"`
}

// RangeSteps returns the number of microsteps in one full turn of the axis.
func (s StepperConfig) RangeSteps() int {
	return s.StepsPerRev * s.Microstepping
}

// CameraConfig describes how to communicate with the camera.
// Type selects a concrete implementation (e.g., "nikon_d90_gpio").
type CameraConfig struct {
	Type            string `yaml:"type"`               // e.g., "nikon_d90_gpio"
	FocusPin        int    `yaml:"focus_pin"`          // GPIO pin for FOCUS line
	ShutterPin      int    `yaml:"shutter_pin"`        // GPIO pin for SHUTTER line
	FocusDelayMs    int    `yaml:"focus_delay_ms"`     // autofocus delay (ms)
	ShutterDelayMs  int    `yaml:"shutter_delay_ms"`   // shutter hold time (ms)
	PostShotDelayMs int    `yaml:"post_shot_delay_ms"` // delay after shot before movement (ms)
}

// LensConfig describes the mounted lens.
type LensConfig struct {
	Name          string  `yaml:"name"`
	FocalLengthMm float64 `yaml:"focal_length_mm"`
}

// SensorConfig is optional: physical sensor size in mm.
type SensorConfig struct {
	WidthMm  float64 `yaml:"width_mm"`  // e.g., 23.6 for Nikon APS-C
	HeightMm float64 `yaml:"height_mm"` // e.g., 15.8
}

// FOVConfig is optional: explicit field of view in degrees.
// When set it takes precedence over the lens/sensor computation.
type FOVConfig struct {
	HorizontalDeg float64 `yaml:"horizontal_deg"`
	VerticalDeg   float64 `yaml:"vertical_deg"`
}

// ScanConfig drives the hemisphere scan.
type ScanConfig struct {
	InitialPanSteps  int `yaml:"initial_pan_steps"`  // pointing at startup, from center
	InitialTiltSteps int `yaml:"initial_tilt_steps"` // 0 = horizon
	Shots            int `yaml:"shots"`              // 0 = one full pass over the hemisphere
	SettleMs         int `yaml:"settle_ms"`          // wait after each move before shooting
}

// Coordinate is a geographic position in degrees.
type Coordinate struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// SiteConfig is optional: where the head stands and what it looks at.
type SiteConfig struct {
	Camera Coordinate  `yaml:"camera"`
	Target *Coordinate `yaml:"target,omitempty"`
}

// DefaultsConfig contains generic parameters (speed, etc.).
type DefaultsConfig struct {
	MoveSpeedMs    int     `yaml:"move_speed_ms"`   // delay between motor steps
	OverlapPercent float64 `yaml:"overlap_percent"` // overlap between neighbouring shots (0-90)
	DebugLevel     int     `yaml:"debug_level"`     // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO       bool    `yaml:"mock_gpio"`       // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	PanStepper  StepperConfig  `yaml:"pan_stepper"`
	TiltStepper StepperConfig  `yaml:"tilt_stepper"`
	Camera      CameraConfig   `yaml:"camera"`
	Lens        LensConfig     `yaml:"lens"`
	Sensor      *SensorConfig  `yaml:"sensor,omitempty"` // optional
	FOV         *FOVConfig     `yaml:"fov,omitempty"`    // optional
	Scan        ScanConfig     `yaml:"scan"`
	Site        *SiteConfig    `yaml:"site,omitempty"` // optional
	Defaults    DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath rejects paths that do not point to a .yaml file
// inside a "configs" directory, or that contain "..".
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if strings.Contains(filepath.ToSlash(path), "..") {
		return fmt.Errorf("config path %q must not contain '..'", path)
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	if err := ValidateConfigPath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file is %d bytes, limit is %d", info.Size(), MaxConfigFileBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	// Basic validation
	if c.Camera.Type == "" {
		return fmt.Errorf("camera.type is required")
	}
	if c.FOV == nil && c.Lens.FocalLengthMm <= 0 {
		return fmt.Errorf("lens.focal_length_mm must be > 0 when fov is not set")
	}
	if c.FOV != nil {
		if !validAngle(c.FOV.HorizontalDeg, 360) {
			return fmt.Errorf("fov.horizontal_deg must be in (0, 360], got %.2f", c.FOV.HorizontalDeg)
		}
		if !validAngle(c.FOV.VerticalDeg, 360) {
			return fmt.Errorf("fov.vertical_deg must be in (0, 360], got %.2f", c.FOV.VerticalDeg)
		}
	}

	// Steppers: 200 full steps with 16 microsteps is the stock A4988 head.
	for _, s := range []*StepperConfig{&c.PanStepper, &c.TiltStepper} {
		if s.StepsPerRev <= 0 {
			s.StepsPerRev = 200
		}
		if s.Microstepping <= 0 {
			s.Microstepping = 16
		}
	}

	if c.Defaults.MoveSpeedMs <= 0 {
		c.Defaults.MoveSpeedMs = 2 // reasonable default
	}
	if c.Defaults.OverlapPercent < 0 || c.Defaults.OverlapPercent >= 90 {
		return fmt.Errorf("overlap_percent must be in [0, 90), got %.2f", c.Defaults.OverlapPercent)
	}

	if c.Scan.InitialTiltSteps < 0 || c.Scan.InitialTiltSteps > c.TiltStepper.RangeSteps()/2 {
		return fmt.Errorf("scan.initial_tilt_steps must be in [0, %d], got %d",
			c.TiltStepper.RangeSteps()/2, c.Scan.InitialTiltSteps)
	}
	if c.Scan.Shots < 0 {
		return fmt.Errorf("scan.shots must be >= 0, got %d", c.Scan.Shots)
	}
	if c.Scan.SettleMs <= 0 {
		c.Scan.SettleMs = 500
	}

	if c.Site != nil {
		if err := validateCoordinate("site.camera", c.Site.Camera); err != nil {
			return err
		}
		if c.Site.Target != nil {
			if err := validateCoordinate("site.target", *c.Site.Target); err != nil {
				return err
			}
		}
	}

	// Default values for camera delays
	if c.Camera.FocusDelayMs <= 0 {
		c.Camera.FocusDelayMs = 500 // 500ms for autofocus
	}
	if c.Camera.ShutterDelayMs <= 0 {
		c.Camera.ShutterDelayMs = 200 // 200ms shutter hold
	}
	if c.Camera.PostShotDelayMs <= 0 {
		c.Camera.PostShotDelayMs = 300 // 300ms after shot before movement
	}
	return nil
}

func validAngle(v, max float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v <= max
}

func validateCoordinate(name string, c Coordinate) error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%s.latitude must be in [-90, 90], got %g", name, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%s.longitude must be in [-180, 180], got %g", name, c.Longitude)
	}
	return nil
}

// MoveSpeed returns the duration between two motor steps.
func (c *Config) MoveSpeed() time.Duration {
	return time.Duration(c.Defaults.MoveSpeedMs) * time.Millisecond
}

// OverlapRatio returns the overlap as a ratio (0.0 to 1.0).
// For example, 30% becomes 0.3.
func (c *Config) OverlapRatio() float64 {
	return c.Defaults.OverlapPercent / 100.0
}

// PanRangeSteps returns the number of pan microsteps in a full turn.
func (c *Config) PanRangeSteps() int {
	return c.PanStepper.RangeSteps()
}

// TiltRangeSteps returns the number of tilt microsteps in a full turn.
func (c *Config) TiltRangeSteps() int {
	return c.TiltStepper.RangeSteps()
}

// SettleDelay returns the wait after a move, before the shot.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Scan.SettleMs) * time.Millisecond
}

// FocusDelay returns the autofocus delay duration.
func (c *Config) FocusDelay() time.Duration {
	return time.Duration(c.Camera.FocusDelayMs) * time.Millisecond
}

// ShutterDelay returns the shutter hold duration.
func (c *Config) ShutterDelay() time.Duration {
	return time.Duration(c.Camera.ShutterDelayMs) * time.Millisecond
}

// PostShotDelay returns the delay after shot before movement.
func (c *Config) PostShotDelay() time.Duration {
	return time.Duration(c.Camera.PostShotDelayMs) * time.Millisecond
}

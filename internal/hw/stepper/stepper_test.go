package stepper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cjeanneret/skyscan/internal/hw/gpio"
)

// recordingDriver records every GPIO write.
type recordingDriver struct {
	setups []int
	writes []pinWrite
}

type pinWrite struct {
	pin   int
	level gpio.Level
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.setups = append(d.setups, pin)
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	d.writes = append(d.writes, pinWrite{pin: pin, level: level})
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) { return gpio.Low, nil }

func (d *recordingDriver) Close() error { return nil }

func (d *recordingDriver) reset() {
	d.setups = nil
	d.writes = nil
}

func (d *recordingDriver) on(pin int) []gpio.Level {
	var levels []gpio.Level
	for _, w := range d.writes {
		if w.pin == pin {
			levels = append(levels, w.level)
		}
	}
	return levels
}

// pulses counts rising edges on the step pin.
func (d *recordingDriver) pulses(pin int) int {
	n := 0
	for _, l := range d.on(pin) {
		if l == gpio.High {
			n++
		}
	}
	return n
}

func testConfig() Config {
	return Config{
		StepPin:       17,
		DirPin:        27,
		EnablePin:     5,
		StepsPerRev:   200,
		Microstepping: 4,
		StepDelay:     1 * time.Microsecond,
	}
}

func TestNewStepper_SetsUpPinsAndEnables(t *testing.T) {
	drv := &recordingDriver{}
	NewStepper(drv, testConfig())

	if len(drv.setups) != 3 {
		t.Errorf("set up %d pins, want 3 (step, dir, enable)", len(drv.setups))
	}
	if got := drv.on(5); len(got) != 1 || got[0] != gpio.Low {
		t.Errorf("enable pin writes = %v, want [Low]", got)
	}
}

func TestStepper_MoveSteps(t *testing.T) {
	tests := []struct {
		name    string
		steps   int
		wantDir gpio.Level
		pulses  int
	}{
		{"forward", 10, gpio.High, 10},
		{"backward", -5, gpio.Low, 5},
		{"single", 1, gpio.High, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := &recordingDriver{}
			cfg := testConfig()
			s := NewStepper(drv, cfg)
			drv.reset()

			if err := s.MoveSteps(tt.steps); err != nil {
				t.Fatalf("MoveSteps(%d): %v", tt.steps, err)
			}
			if len(drv.writes) == 0 || drv.writes[0].pin != cfg.DirPin || drv.writes[0].level != tt.wantDir {
				t.Fatalf("first write should set dir pin to %v, got %+v", tt.wantDir, drv.writes)
			}
			if got := drv.pulses(cfg.StepPin); got != tt.pulses {
				t.Errorf("step pulses = %d, want %d", got, tt.pulses)
			}
			if got := len(drv.on(cfg.StepPin)); got != 2*tt.pulses {
				t.Errorf("step pin writes = %d, want %d (high+low per pulse)", got, 2*tt.pulses)
			}
		})
	}
}

func TestStepper_MoveStepsZero(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, testConfig())
	drv.reset()

	if err := s.MoveSteps(0); err != nil {
		t.Fatalf("MoveSteps(0): %v", err)
	}
	if len(drv.writes) != 0 {
		t.Errorf("zero steps wrote %d times, want 0", len(drv.writes))
	}
}

func TestStepper_EnableDisable(t *testing.T) {
	t.Run("with enable pin", func(t *testing.T) {
		drv := &recordingDriver{}
		s := NewStepper(drv, testConfig())
		drv.reset()

		if err := s.Disable(); err != nil {
			t.Fatalf("Disable: %v", err)
		}
		if err := s.Enable(); err != nil {
			t.Fatalf("Enable: %v", err)
		}
		got := drv.on(5)
		if len(got) != 2 || got[0] != gpio.High || got[1] != gpio.Low {
			t.Errorf("enable pin writes = %v, want [High Low]", got)
		}
	})

	t.Run("without enable pin", func(t *testing.T) {
		drv := &recordingDriver{}
		cfg := testConfig()
		cfg.EnablePin = 0
		s := NewStepper(drv, cfg)
		drv.reset()

		if err := s.Enable(); err != nil {
			t.Fatalf("Enable: %v", err)
		}
		if err := s.Disable(); err != nil {
			t.Fatalf("Disable: %v", err)
		}
		if len(drv.writes) != 0 {
			t.Errorf("EnablePin=0 wrote %d times, want 0", len(drv.writes))
		}
	})
}

func TestStepper_DefaultStepDelay(t *testing.T) {
	cfg := testConfig()
	cfg.StepDelay = 0
	s := NewStepper(&recordingDriver{}, cfg)
	if s.delay != 1*time.Millisecond {
		t.Errorf("default delay = %v, want 1ms", s.delay)
	}
}

func TestStepper_TracksPosition(t *testing.T) {
	s := NewStepper(&recordingDriver{}, testConfig())
	if s.Position() != 0 {
		t.Fatalf("initial position = %d, want 0", s.Position())
	}

	moves := []struct {
		steps int
		want  int
	}{
		{10, 10},
		{-25, -15},
		{0, -15},
		{15, 0},
	}
	for _, m := range moves {
		if err := s.MoveSteps(m.steps); err != nil {
			t.Fatalf("MoveSteps(%d): %v", m.steps, err)
		}
		if s.Position() != m.want {
			t.Errorf("after MoveSteps(%d) position = %d, want %d", m.steps, s.Position(), m.want)
		}
	}
}

func TestStepper_StepsPerTurn(t *testing.T) {
	s := NewStepper(&recordingDriver{}, testConfig())
	if got := s.StepsPerTurn(); got != 800 {
		t.Errorf("StepsPerTurn() = %d, want 800", got)
	}
}

func TestStepper_MoveStepsContextCancelled(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, testConfig())
	drv.reset()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.MoveStepsContext(ctx, 50)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("MoveStepsContext error = %v, want context.Canceled", err)
	}
	if s.Position() != 0 {
		t.Errorf("position after cancelled move = %d, want 0", s.Position())
	}
	if n := drv.pulses(17); n != 0 {
		t.Errorf("cancelled move issued %d pulses, want 0", n)
	}
}

// failingDriver fails every write to failPin.
type failingDriver struct {
	recordingDriver
	failPin int
}

func (d *failingDriver) WritePin(pin int, level gpio.Level) error {
	if pin == d.failPin {
		return errors.New("gpio write failed")
	}
	return d.recordingDriver.WritePin(pin, level)
}

func TestStepper_WriteErrorStopsMove(t *testing.T) {
	drv := &failingDriver{failPin: 17}
	s := NewStepper(drv, testConfig())

	if err := s.MoveSteps(3); err == nil {
		t.Fatal("expected error from failing step pin, got nil")
	}
	if s.Position() != 0 {
		t.Errorf("position after failed move = %d, want 0", s.Position())
	}
}

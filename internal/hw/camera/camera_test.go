package camera

import (
	"errors"
	"testing"
	"time"

	"github.com/cjeanneret/skyscan/internal/config"
	"github.com/cjeanneret/skyscan/internal/hw/gpio"
)

// recordingDriver records GPIO calls for verification.
type recordingDriver struct {
	calls []gpioCall
}

type gpioCall struct {
	op    string
	pin   int
	level gpio.Level
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.calls = append(d.calls, gpioCall{op: "setup", pin: pin})
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	d.calls = append(d.calls, gpioCall{op: "write", pin: pin, level: level})
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) {
	return gpio.Low, nil
}

func (d *recordingDriver) Close() error { return nil }

func (d *recordingDriver) writeCalls() []gpioCall {
	var result []gpioCall
	for _, c := range d.calls {
		if c.op == "write" {
			result = append(result, c)
		}
	}
	return result
}

func TestRemoteRelease_PinsInitializedHigh(t *testing.T) {
	drv := &recordingDriver{}
	NewRemoteRelease(drv, 24, 25, 500*time.Millisecond, 200*time.Millisecond)

	// After construction, both pins should have been set to HIGH (inactive)
	writes := drv.writeCalls()
	focusHigh := false
	shutterHigh := false
	for _, c := range writes {
		if c.pin == 24 && c.level == gpio.High {
			focusHigh = true
		}
		if c.pin == 25 && c.level == gpio.High {
			shutterHigh = true
		}
	}
	if !focusHigh {
		t.Error("focus pin should be initialized to HIGH")
	}
	if !shutterHigh {
		t.Error("shutter pin should be initialized to HIGH")
	}
}

func TestRemoteRelease_ShootSequence(t *testing.T) {
	drv := &recordingDriver{}
	cam := NewRemoteRelease(drv, 24, 25, 1*time.Microsecond, 1*time.Microsecond)
	drv.calls = nil // reset after init

	if err := cam.Shoot(); err != nil {
		t.Fatalf("Shoot: %v", err)
	}

	writes := drv.writeCalls()
	// Expected sequence:
	// 1. Focus LOW (activate autofocus)
	// 2. Shutter LOW (trigger)
	// 3. Shutter HIGH (release)
	// 4. Focus HIGH (release)

	expected := []struct {
		pin   int
		level gpio.Level
		desc  string
	}{
		{24, gpio.Low, "focus LOW (activate AF)"},
		{25, gpio.Low, "shutter LOW (trigger)"},
		{25, gpio.High, "shutter HIGH (release)"},
		{24, gpio.High, "focus HIGH (release)"},
	}

	if len(writes) != len(expected) {
		t.Fatalf("expected %d writes, got %d: %v", len(expected), len(writes), writes)
	}

	for i, exp := range expected {
		if writes[i].pin != exp.pin || writes[i].level != exp.level {
			t.Errorf("step %d (%s): pin=%d level=%v, want pin=%d level=%v",
				i, exp.desc, writes[i].pin, writes[i].level, exp.pin, exp.level)
		}
	}
}

// shutterFailDriver rejects the first LOW write to the shutter pin.
type shutterFailDriver struct {
	recordingDriver
	shutterPin int
}

func (d *shutterFailDriver) WritePin(pin int, level gpio.Level) error {
	if pin == d.shutterPin && level == gpio.Low {
		return errors.New("shutter line stuck")
	}
	return d.recordingDriver.WritePin(pin, level)
}

func TestRemoteRelease_ShutterErrorReleasesFocus(t *testing.T) {
	drv := &shutterFailDriver{shutterPin: 25}
	cam := NewRemoteRelease(drv, 24, 25, 1*time.Microsecond, 1*time.Microsecond)
	drv.calls = nil

	if err := cam.Shoot(); err == nil {
		t.Fatal("expected shutter error, got nil")
	}
	writes := drv.writeCalls()
	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d: %v", len(writes), writes)
	}
	last := writes[len(writes)-1]
	if last.pin != 24 || last.level != gpio.High {
		t.Errorf("last write = pin %d level %v, want focus released HIGH", last.pin, last.level)
	}
}

func TestRemoteRelease_ImplementsCamera(t *testing.T) {
	drv := &recordingDriver{}
	cam := NewRemoteRelease(drv, 24, 25, time.Millisecond, time.Millisecond)
	var _ Camera = cam // compile-time check
}

func TestNew_SelectsImplementation(t *testing.T) {
	cases := []struct {
		typ     string
		wantErr bool
	}{
		{"nikon_d90_gpio", false},
		{"remote_gpio", false},
		{"mock", false},
		{"canon_usb", true},
		{"", true},
	}
	for _, tc := range cases {
		t.Run(tc.typ, func(t *testing.T) {
			cfg := &config.Config{Camera: config.CameraConfig{Type: tc.typ, FocusPin: 24, ShutterPin: 25}}
			cam, err := New(&gpio.MockDriver{}, cfg)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Errorf("New(%q) error = %v, want ErrUnsupportedType", tc.typ, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q): %v", tc.typ, err)
			}
			if cam == nil {
				t.Fatalf("New(%q) returned nil camera", tc.typ)
			}
		})
	}
}

func TestRecorder_CountsShots(t *testing.T) {
	r := &Recorder{}
	for i := 0; i < 3; i++ {
		if err := r.Shoot(); err != nil {
			t.Fatalf("Shoot: %v", err)
		}
	}
	if r.Shots() != 3 {
		t.Errorf("Shots() = %d, want 3", r.Shots())
	}

	boom := errors.New("card full")
	r.Err = boom
	if err := r.Shoot(); !errors.Is(err, boom) {
		t.Errorf("Shoot error = %v, want %v", err, boom)
	}
	if r.Shots() != 3 {
		t.Errorf("failed shot counted: Shots() = %d, want 3", r.Shots())
	}
}

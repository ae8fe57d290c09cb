package debug

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, lvl int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Init(lvl)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		Init(LevelOff)
	})
	return &buf
}

func TestInit_OffIsSilent(t *testing.T) {
	buf := capture(t, LevelOff)
	Info("hello")
	Summary("plan")
	Error(errors.New("boom"))
	GPIO("write", 17, 1)
	if buf.Len() != 0 {
		t.Errorf("expected no output at level 0, got %q", buf.String())
	}
}

func TestLevelGating(t *testing.T) {
	buf := capture(t, LevelLive)
	Info("info line")
	Shot(1, 10, 100, 20)
	Ring(200, 45, 12)
	GPIO("write", 17, 1)

	out := buf.String()
	if !strings.Contains(out, "[INFO] info line") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "Photo 1/10 taken at position (pan=100, tilt=20)") {
		t.Errorf("missing shot line in %q", out)
	}
	if strings.Contains(out, "Ring") || strings.Contains(out, "[GPIO]") {
		t.Errorf("verbose/trace lines leaked at level 2: %q", out)
	}
}

func TestIsEnabled(t *testing.T) {
	capture(t, LevelVerbose)
	if !IsEnabled(LevelInfo) || !IsEnabled(LevelVerbose) {
		t.Error("levels up to verbose should be enabled")
	}
	if IsEnabled(LevelTrace) {
		t.Error("trace should not be enabled at level 3")
	}
}

func TestSetOutput_AfterInit(t *testing.T) {
	capture(t, LevelInfo)
	var other bytes.Buffer
	SetOutput(&other)
	Error(errors.New("boom"))
	if !strings.Contains(other.String(), "[ERROR] boom") {
		t.Errorf("expected error on redirected output, got %q", other.String())
	}
}

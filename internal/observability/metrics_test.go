package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector(t *testing.T) (*ScanCollector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewScanCollector(reg)
	if err != nil {
		t.Fatalf("NewScanCollector: %v", err)
	}
	return c, reg
}

func TestScanCollectorRecordsPlanAndCursor(t *testing.T) {
	c, _ := newTestCollector(t)

	c.SetPlan(8, 52)
	c.SetCursorIndex(3)
	c.CursorAdvanced(4)
	c.CursorAdvanced(5)

	if got := testutil.ToFloat64(c.PlanRings); got != 8 {
		t.Errorf("skyscan_plan_rings = %v, want 8", got)
	}
	if got := testutil.ToFloat64(c.PlanPositions); got != 52 {
		t.Errorf("skyscan_plan_positions = %v, want 52", got)
	}
	if got := testutil.ToFloat64(c.CursorIndex); got != 5 {
		t.Errorf("skyscan_cursor_index = %v, want 5", got)
	}
	if got := testutil.ToFloat64(c.CursorAdvances); got != 2 {
		t.Errorf("skyscan_cursor_advances_total = %v, want 2", got)
	}
}

func TestScanCollectorRecordsShotsAndSteps(t *testing.T) {
	c, reg := newTestCollector(t)

	c.ShotTaken(300 * time.Millisecond)
	c.ShotTaken(400 * time.Millisecond)
	c.CaptureFailed()
	c.AddMotorSteps("pan", 100)
	c.AddMotorSteps("pan", 23)
	c.AddMotorSteps("tilt", 57)
	c.AddMotorSteps("tilt", 0)

	if got := testutil.ToFloat64(c.Shots); got != 2 {
		t.Errorf("skyscan_shots_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.CaptureErrors); got != 1 {
		t.Errorf("skyscan_capture_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.MotorSteps.WithLabelValues("pan")); got != 123 {
		t.Errorf("pan steps = %v, want 123", got)
	}
	if got := testutil.ToFloat64(c.MotorSteps.WithLabelValues("tilt")); got != 57 {
		t.Errorf("tilt steps = %v, want 57", got)
	}
	if n := testutil.CollectAndCount(reg, "skyscan_shot_duration_seconds"); n != 1 {
		t.Errorf("shot duration series = %d, want 1", n)
	}
}

func TestScanCollectorNilSafe(t *testing.T) {
	var c *ScanCollector
	c.SetPlan(1, 1)
	c.SetCursorIndex(0)
	c.CursorAdvanced(1)
	c.ShotTaken(time.Second)
	c.CaptureFailed()
	c.AddMotorSteps("pan", 10)
	if c.Handler() == nil {
		t.Fatal("nil collector Handler() returned nil")
	}
}

func TestNewScanCollectorReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewScanCollector(reg)
	if err != nil {
		t.Fatalf("first NewScanCollector: %v", err)
	}
	second, err := NewScanCollector(reg)
	if err != nil {
		t.Fatalf("second NewScanCollector: %v", err)
	}

	first.ShotTaken(time.Millisecond)
	if got := testutil.ToFloat64(second.Shots); got != 1 {
		t.Errorf("second collector shots = %v, want 1 (shared counter)", got)
	}
}

func TestMetricsHandlerExposesScanMetrics(t *testing.T) {
	c, _ := newTestCollector(t)
	c.SetPlan(8, 52)
	c.AddMotorSteps("pan", 10)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	for _, want := range []string{
		"skyscan_plan_positions 52",
		"skyscan_plan_rings 8",
		`skyscan_motor_steps_total{axis="pan"} 10`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

// Package observability exposes Prometheus metrics for scan planning and
// scan execution.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScanCollector bundles the scan metrics. All methods are safe on a nil
// receiver so callers never need to check whether metrics are enabled.
type ScanCollector struct {
	gatherer prometheus.Gatherer

	PlanPositions prometheus.Gauge
	PlanRings     prometheus.Gauge
	CursorIndex   prometheus.Gauge

	CursorAdvances prometheus.Counter
	Shots          prometheus.Counter
	CaptureErrors  prometheus.Counter
	MotorSteps     *prometheus.CounterVec
	ShotDurations  prometheus.Histogram
}

// NewScanCollector registers the scan metrics against reg, defaulting to
// the global Prometheus registry when nil. Registering twice against the
// same registry returns the existing collectors.
func NewScanCollector(reg prometheus.Registerer) (*ScanCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &ScanCollector{gatherer: gatherer}
	var err error

	if c.PlanPositions, err = registerGauge(reg, "skyscan_plan_positions",
		"Number of positions in the current hemisphere scan plan."); err != nil {
		return nil, err
	}
	if c.PlanRings, err = registerGauge(reg, "skyscan_plan_rings",
		"Number of elevation rings in the current hemisphere scan plan."); err != nil {
		return nil, err
	}
	if c.CursorIndex, err = registerGauge(reg, "skyscan_cursor_index",
		"Index of the scan cursor within the snake-ordered plan."); err != nil {
		return nil, err
	}
	if c.CursorAdvances, err = registerCounter(reg, "skyscan_cursor_advances_total",
		"Total number of scan cursor advances."); err != nil {
		return nil, err
	}
	if c.Shots, err = registerCounter(reg, "skyscan_shots_total",
		"Total number of photos taken."); err != nil {
		return nil, err
	}
	if c.CaptureErrors, err = registerCounter(reg, "skyscan_capture_errors_total",
		"Total number of failed shots or moves during a scan."); err != nil {
		return nil, err
	}

	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyscan_motor_steps_total",
		Help: "Total number of motor steps issued, labeled by axis.",
	}, []string{"axis"})
	if err := reg.Register(steps); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("collector skyscan_motor_steps_total already registered with incompatible type")
		}
		steps = existing
	}
	c.MotorSteps = steps

	shotDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyscan_shot_duration_seconds",
		Help:    "Time from the end of the move to the end of the shot, settle included.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
	if err := reg.Register(shotDur); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(prometheus.Histogram)
		if !ok {
			return nil, fmt.Errorf("collector skyscan_shot_duration_seconds already registered with incompatible type")
		}
		shotDur = existing
	}
	c.ShotDurations = shotDur

	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ScanCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetPlan records the size of a freshly built plan.
func (c *ScanCollector) SetPlan(rings, positions int) {
	if c == nil {
		return
	}
	c.PlanRings.Set(float64(rings))
	c.PlanPositions.Set(float64(positions))
}

// SetCursorIndex records the cursor's current index.
func (c *ScanCollector) SetCursorIndex(i int) {
	if c == nil {
		return
	}
	c.CursorIndex.Set(float64(i))
}

// CursorAdvanced counts one cursor advance and records the new index.
func (c *ScanCollector) CursorAdvanced(newIndex int) {
	if c == nil {
		return
	}
	c.CursorAdvances.Inc()
	c.CursorIndex.Set(float64(newIndex))
}

// ShotTaken counts a successful shot and how long it took.
func (c *ScanCollector) ShotTaken(d time.Duration) {
	if c == nil {
		return
	}
	c.Shots.Inc()
	c.ShotDurations.Observe(d.Seconds())
}

// CaptureFailed counts a failed shot or move.
func (c *ScanCollector) CaptureFailed() {
	if c == nil {
		return
	}
	c.CaptureErrors.Inc()
}

// AddMotorSteps adds steps to the per-axis step counter.
func (c *ScanCollector) AddMotorSteps(axis string, steps int) {
	if c == nil || steps <= 0 {
		return
	}
	c.MotorSteps.WithLabelValues(axis).Add(float64(steps))
}

func registerGauge(reg prometheus.Registerer, name, help string) (prometheus.Gauge, error) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}

func registerCounter(reg prometheus.Registerer, name, help string) (prometheus.Counter, error) {
	ctr := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	if err := reg.Register(ctr); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return ctr, nil
}

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cjeanneret/skyscan/internal/logic/geometry"
)

const (
	// MaxRequestBytes caps the POST /run body.
	MaxRequestBytes = 1 << 20
	// DefaultRunCooldown is the minimum gap between the end of a run and the next start.
	DefaultRunCooldown = 5 * time.Second

	maxFocalLengthMm = 500
	maxOverlapPct    = 90
	maxShots         = 100000
)

// Overrides holds scan parameters that replace config values for one run.
// Zero values keep the configured value.
type Overrides struct {
	FocalLengthMm  float64 `json:"focal_length_mm"`
	OverlapPercent float64 `json:"overlap_percent"`
	Shots          int     `json:"shots"`
}

// ValidateOverrides rejects non-finite or out-of-range values.
func ValidateOverrides(o Overrides) error {
	if math.IsNaN(o.FocalLengthMm) || math.IsInf(o.FocalLengthMm, 0) {
		return errors.New("focal_length_mm must be a finite number")
	}
	if o.FocalLengthMm < 0 || o.FocalLengthMm > maxFocalLengthMm {
		return fmt.Errorf("focal_length_mm must be between 0 and %d (0 keeps the configured lens)", maxFocalLengthMm)
	}
	if math.IsNaN(o.OverlapPercent) || math.IsInf(o.OverlapPercent, 0) {
		return errors.New("overlap_percent must be a finite number")
	}
	if o.OverlapPercent < 0 || o.OverlapPercent >= maxOverlapPct {
		return fmt.Errorf("overlap_percent must be in [0, %d)", maxOverlapPct)
	}
	if o.Shots < 0 || o.Shots > maxShots {
		return fmt.Errorf("shots must be between 0 and %d (0 is one full pass)", maxShots)
	}
	return nil
}

// RunScanFunc runs a scan with the given overrides. It is called from the
// POST /run handler in a goroutine and must return when ctx is cancelled.
type RunScanFunc func(ctx context.Context, runID string, overrides Overrides) error

// RingInfo summarises one elevation ring of a plan.
type RingInfo struct {
	Step         int     `json:"step"`
	ElevationDeg float64 `json:"elevation_deg"`
	Count        int     `json:"count"`
}

// Plan is the GET /plan response: the snake-ordered scan and where the cursor is.
type Plan struct {
	Range            geometry.MotorRange      `json:"range"`
	HorizontalFOVDeg float64                  `json:"hfov_deg"`
	VerticalFOVDeg   float64                  `json:"vfov_deg"`
	Rings            []RingInfo               `json:"rings"`
	Positions        []geometry.MotorPosition `json:"positions"`
	CurrentIndex     int                      `json:"current_index"`
}

// PlanFunc computes the plan that a run with the given overrides would follow.
type PlanFunc func(overrides Overrides) (*Plan, error)

// FormConfig holds default values for the scan form (from config).
type FormConfig struct {
	FocalLengthMm    float64 `json:"focal_length_mm"`
	OverlapPercent   float64 `json:"overlap_percent"`
	Shots            int     `json:"shots"`
	HorizontalFOVDeg float64 `json:"hfov_deg"`
	VerticalFOVDeg   float64 `json:"vfov_deg"`
}

// Options are the dependencies of the web surface. Nil funcs disable the
// corresponding endpoint with 503.
type Options struct {
	Broadcaster  *StatusBroadcaster
	RunScan      RunScanFunc
	Plan         PlanFunc
	FormDefaults FormConfig
	Metrics      http.Handler
	RunCooldown  time.Duration // 0 uses DefaultRunCooldown, negative disables
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	opts     Options
	staticFS fs.FS
	baseCtx  context.Context

	runningMu    sync.Mutex
	running      bool
	runID        string
	cancelRun    context.CancelFunc
	lastFinished time.Time
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(opts Options, staticFS fs.FS) *Handlers {
	if opts.Broadcaster == nil {
		opts.Broadcaster = NewStatusBroadcaster()
	}
	if opts.RunCooldown == 0 {
		opts.RunCooldown = DefaultRunCooldown
	}
	return &Handlers{
		opts:     opts,
		staticFS: staticFS,
		baseCtx:  context.Background(),
	}
}

// HandleConfig returns the form default values (from config) as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.FormDefaults)
}

// HandlePlan returns the scan plan. Query parameters focal_length_mm and
// overlap_percent override the configured values.
func (h *Handlers) HandlePlan(w http.ResponseWriter, r *http.Request) {
	if h.opts.Plan == nil {
		http.Error(w, "plan not configured", http.StatusServiceUnavailable)
		return
	}
	var o Overrides
	q := r.URL.Query()
	for name, dst := range map[string]*float64{
		"focal_length_mm": &o.FocalLengthMm,
		"overlap_percent": &o.OverlapPercent,
	} {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				http.Error(w, name+" must be a number", http.StatusBadRequest)
				return
			}
			*dst = f
		}
	}
	if err := ValidateOverrides(o); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := h.opts.Plan(o)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleRun handles POST /run to start a scan.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var overrides Overrides
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&overrides); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := ValidateOverrides(overrides); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.opts.RunScan == nil {
		http.Error(w, "scan not configured", http.StatusServiceUnavailable)
		return
	}

	h.runningMu.Lock()
	if h.running {
		h.runningMu.Unlock()
		http.Error(w, "scan already in progress", http.StatusConflict)
		return
	}
	if h.opts.RunCooldown > 0 && !h.lastFinished.IsZero() && time.Since(h.lastFinished) < h.opts.RunCooldown {
		h.runningMu.Unlock()
		http.Error(w, "scan finished recently, try again shortly", http.StatusTooManyRequests)
		return
	}
	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(h.baseCtx)
	h.running = true
	h.runID = runID
	h.cancelRun = cancel
	h.runningMu.Unlock()

	go func() {
		defer func() {
			cancel()
			h.runningMu.Lock()
			h.running = false
			h.runID = ""
			h.cancelRun = nil
			h.lastFinished = time.Now()
			h.runningMu.Unlock()
		}()

		b := h.opts.Broadcaster
		b.Publish(StatusEvent{Level: "info", RunID: runID, Msg: "Scan started"})
		err := h.opts.RunScan(ctx, runID, overrides)
		switch {
		case errors.Is(err, context.Canceled):
			b.Publish(StatusEvent{Level: "warn", RunID: runID, Msg: "Scan stopped"})
		case err != nil:
			b.Publish(StatusEvent{Level: "error", RunID: runID, Msg: "Scan failed: " + err.Error()})
			log.Printf("scan %s failed: %v", runID, err)
		default:
			b.Publish(StatusEvent{Level: "info", RunID: runID, Msg: "Scan complete"})
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "run_id": runID})
}

// HandleStop handles POST /stop: it cancels the running scan, if any.
func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.runningMu.Lock()
	running, runID, cancel := h.running, h.runID, h.cancelRun
	h.runningMu.Unlock()

	if !running || cancel == nil {
		http.Error(w, "no scan in progress", http.StatusConflict)
		return
	}
	cancel()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping", "run_id": runID})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.opts.Broadcaster.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// Running reports whether a scan is in progress and its run ID.
func (h *Handlers) Running() (bool, string) {
	h.runningMu.Lock()
	defer h.runningMu.Unlock()
	return h.running, h.runID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cjeanneret/skyscan/internal/config"
	"github.com/cjeanneret/skyscan/internal/debug"
	"github.com/cjeanneret/skyscan/internal/logic/bearing"
	"github.com/cjeanneret/skyscan/internal/logic/capture"
	"github.com/cjeanneret/skyscan/internal/logic/geometry"
	"github.com/cjeanneret/skyscan/internal/logic/motion"
	"github.com/cjeanneret/skyscan/internal/logic/scan"
	"github.com/cjeanneret/skyscan/internal/observability"
	"github.com/cjeanneret/skyscan/internal/web"
)

// scanPlan is a computed hemisphere scan ready to be walked.
type scanPlan struct {
	hfov, vfov float64 // scan FOV in degrees, overlap applied
	rng        geometry.MotorRange
	rings      []geometry.Ring
	cursor     *scan.Cursor
}

// buildPlan resolves the scan FOV from cfg and builds a cursor over the
// hemisphere, starting on the sample closest to at.
func buildPlan(cfg *config.Config, r geometry.MotorRange, at geometry.MotorPosition) (*scanPlan, error) {
	fovCalc, err := geometry.NewFOVCalculator(cfg)
	if err != nil {
		return nil, fmt.Errorf("create FOV calculator: %w", err)
	}
	h, v := fovCalc.ScanHorizontalFOV(), fovCalc.ScanVerticalFOV()

	rings, err := geometry.Rings(r, h, v)
	if err != nil {
		return nil, err
	}
	cur, err := scan.NewFromRings(r, rings, at)
	if err != nil {
		return nil, err
	}
	return &scanPlan{hfov: h, vfov: v, rng: r, rings: rings, cursor: cur}, nil
}

func logPlan(p *scanPlan) {
	debug.Summary("Scan Plan Summary")
	debug.Plan(len(p.rings), p.cursor.Len(), p.cursor.Index())
	debug.Info("Scan FOV: %.2f x %.2f deg, motor range %d x %d steps", p.hfov, p.vfov, p.rng.H, p.rng.V)
	if !debug.IsEnabled(debug.LevelVerbose) {
		return
	}
	for _, ring := range p.rings {
		debug.Ring(ring.Step, geometry.RadToDeg(ring.ElevationRad), ring.Count)
	}
}

func (p *scanPlan) webPlan() *web.Plan {
	rings := make([]web.RingInfo, len(p.rings))
	for i, ring := range p.rings {
		rings[i] = web.RingInfo{
			Step:         ring.Step,
			ElevationDeg: geometry.RadToDeg(ring.ElevationRad),
			Count:        ring.Count,
		}
	}
	return &web.Plan{
		Range:            p.rng,
		HorizontalFOVDeg: p.hfov,
		VerticalFOVDeg:   p.vfov,
		Rings:            rings,
		Positions:        p.cursor.Positions(),
		CurrentIndex:     p.cursor.Index(),
	}
}

// listPositions prints n positions of the cyclic stream starting with the one
// under cur, advancing cur after each line.
func listPositions(w io.Writer, cur *scan.Cursor, n int) {
	for i := 0; i < n; i++ {
		pos, ok := cur.Current()
		if !ok {
			return
		}
		fmt.Fprintf(w, "%4d  [%3d]  h=%5d  v=%4d\n", i, cur.Index(), pos.H, pos.V)
		cur.Advance()
	}
}

// scanRunner binds the hardware to scan runs started from the CLI or the web UI.
// Each run replans from the head's current position.
type scanRunner struct {
	cfg         *config.Config
	motion      *motion.Controller
	seq         *capture.Sequence
	metrics     *observability.ScanCollector
	broadcaster *web.StatusBroadcaster // nil without -web
}

func (r *scanRunner) run(ctx context.Context, runID string, overrides web.Overrides) error {
	cfg := applyOverridesToCopy(r.cfg, overrides)

	debug.Step(4, "Calculating scan plan")
	plan, err := buildPlan(cfg, r.motion.Range(), r.motion.Position())
	if err != nil {
		return err
	}
	logPlan(plan)
	r.metrics.SetPlan(len(plan.rings), plan.cursor.Len())

	params := capture.HemisphereScanParams{
		Cursor:        plan.cursor,
		Shots:         cfg.Scan.Shots,
		Settle:        cfg.SettleDelay(),
		PostShotDelay: cfg.PostShotDelay(),
	}
	if r.broadcaster != nil {
		params.OnShot = func(e capture.ShotEvent) {
			r.broadcaster.BroadcastShot(runID, web.ShotStatus{
				N:        e.N,
				Total:    e.Total,
				Index:    e.Index,
				Position: e.Position,
			})
		}
	}

	debug.Step(5, "Running hemisphere scan")
	if err := r.seq.RunHemisphereScan(ctx, params); err != nil {
		return err
	}
	debug.Section("Sequence Complete")
	return nil
}

func (r *scanRunner) plan(overrides web.Overrides) (*web.Plan, error) {
	plan, err := buildPlan(applyOverridesToCopy(r.cfg, overrides), r.motion.Range(), r.motion.Position())
	if err != nil {
		return nil, err
	}
	return plan.webPlan(), nil
}

// formDefaults fills the web form from config. FOV fields stay zero when the
// config cannot resolve one.
func formDefaults(cfg *config.Config) web.FormConfig {
	fc := web.FormConfig{
		FocalLengthMm:  cfg.Lens.FocalLengthMm,
		OverlapPercent: cfg.Defaults.OverlapPercent,
		Shots:          cfg.Scan.Shots,
	}
	if fovCalc, err := geometry.NewFOVCalculator(cfg); err == nil {
		fc.HorizontalFOVDeg = fovCalc.HorizontalFOV()
		fc.VerticalFOVDeg = fovCalc.VerticalFOV()
	}
	return fc
}

// printBearing writes the angle between north and the configured target as
// seen from the camera.
func printBearing(w io.Writer, site *config.SiteConfig) error {
	if site == nil || site.Target == nil {
		return fmt.Errorf("site.camera and site.target must be configured")
	}
	cam := bearing.Coordinate{Latitude: site.Camera.Latitude, Longitude: site.Camera.Longitude}
	target := bearing.Coordinate{Latitude: site.Target.Latitude, Longitude: site.Target.Longitude}

	angle := bearing.Angle(cam, target)
	b := bearing.Bearing(cam, target)
	fmt.Fprintf(w, "Camera:   %s\n", cam)
	fmt.Fprintf(w, "Target:   %s\n", target)
	fmt.Fprintf(w, "Distance: %.3f km\n", bearing.DistanceKm(cam, target))
	fmt.Fprintf(w, "Bearing:  %.2f deg (%s)\n", b, bearing.CompassPoint(b))
	fmt.Fprintf(w, "Angle:    %.4f rad (%.2f deg off north)\n", angle, geometry.RadToDeg(angle))
	return nil
}

package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cjeanneret/skyscan/internal/debug"
	"github.com/cjeanneret/skyscan/internal/hw/camera"
	"github.com/cjeanneret/skyscan/internal/logic/geometry"
	"github.com/cjeanneret/skyscan/internal/logic/motion"
	"github.com/cjeanneret/skyscan/internal/logic/scan"
	"github.com/cjeanneret/skyscan/internal/observability"
)

// ErrEmptyPlan is returned when the scan cursor has no positions.
var ErrEmptyPlan = errors.New("scan plan is empty")

// Sequence contains high-level logic for photo capture: it walks a scan
// cursor, moving the head and firing the camera at each position.
type Sequence struct {
	motion  *motion.Controller
	camera  camera.Camera
	metrics *observability.ScanCollector
}

func NewSequence(m *motion.Controller, c camera.Camera) *Sequence {
	return &Sequence{
		motion: m,
		camera: c,
	}
}

// SetMetrics attaches a collector to the sequence and its motion controller.
// A nil collector disables metrics.
func (s *Sequence) SetMetrics(c *observability.ScanCollector) {
	s.metrics = c
	if c == nil {
		s.motion.SetRecorder(nil)
		return
	}
	s.motion.SetRecorder(c)
}

// ShotEvent describes a completed shot.
type ShotEvent struct {
	N        int                    // 1-based shot number within the run
	Total    int                    // shots planned for the run
	Index    int                    // cursor index the shot was taken at
	Position geometry.MotorPosition // where the head was
}

// HemisphereScanParams defines one capture run over a scan cursor.
type HemisphereScanParams struct {
	Cursor *scan.Cursor

	Shots         int           // shots to take; 0 means one full pass
	Settle        time.Duration // wait after the move, motors off, before the shot
	PostShotDelay time.Duration // wait after the shot before moving again

	OnShot func(ShotEvent) // optional progress hook
}

// RunHemisphereScan takes p.Shots photos starting at the cursor's current
// position. For each shot: move, disable motors, settle, shoot, re-enable,
// advance. The cursor is left on the position after the last shot, so a
// following run picks up where this one stopped.
func (s *Sequence) RunHemisphereScan(ctx context.Context, p HemisphereScanParams) error {
	if p.Cursor == nil || p.Cursor.Len() == 0 {
		return ErrEmptyPlan
	}
	if p.Shots < 0 {
		return fmt.Errorf("shots must be >= 0, got %d", p.Shots)
	}
	total := p.Shots
	if total == 0 {
		total = p.Cursor.Len()
	}

	debug.Section("Hemisphere Scan")
	debug.Value("Positions per pass", p.Cursor.Len())
	debug.Value("Shots this run", total)
	debug.Value("Starting index", p.Cursor.Index())
	s.metrics.SetCursorIndex(p.Cursor.Index())

	_ = s.motion.EnableMotors()

	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pos, _ := p.Cursor.Current()
		if err := s.motion.MoveTo(ctx, pos); err != nil {
			if ctx.Err() == nil {
				s.metrics.CaptureFailed()
			}
			return fmt.Errorf("shot %d/%d: %w", n, total, err)
		}

		start := time.Now()
		_ = s.motion.DisableMotors()
		if err := sleep(ctx, p.Settle); err != nil {
			_ = s.motion.EnableMotors()
			return err
		}
		if err := s.camera.Shoot(); err != nil {
			_ = s.motion.EnableMotors()
			s.metrics.CaptureFailed()
			err = fmt.Errorf("shot %d/%d at %s: %w", n, total, pos, err)
			debug.Error(err)
			return err
		}
		s.metrics.ShotTaken(time.Since(start))
		debug.Shot(n, total, pos.H, pos.V)
		if p.OnShot != nil {
			p.OnShot(ShotEvent{N: n, Total: total, Index: p.Cursor.Index(), Position: pos})
		}

		err := sleep(ctx, p.PostShotDelay)
		_ = s.motion.EnableMotors()
		p.Cursor.Advance()
		s.metrics.CursorAdvanced(p.Cursor.Index())
		if err != nil {
			return err
		}
	}

	debug.Live("Scan complete: %d shots", total)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

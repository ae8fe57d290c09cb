package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cjeanneret/skyscan/internal/config"
	"github.com/cjeanneret/skyscan/internal/debug"
	"github.com/cjeanneret/skyscan/internal/hw/camera"
	"github.com/cjeanneret/skyscan/internal/hw/gpio"
	"github.com/cjeanneret/skyscan/internal/hw/stepper"
	"github.com/cjeanneret/skyscan/internal/logic/capture"
	"github.com/cjeanneret/skyscan/internal/logic/geometry"
	"github.com/cjeanneret/skyscan/internal/logic/motion"
	"github.com/cjeanneret/skyscan/internal/observability"
	"github.com/cjeanneret/skyscan/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	list := &listFlag{defaultCount: 100}
	flag.Var(list, "list", "print the first N positions of the scan stream and exit; -list alone prints 100")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	hfov := flag.Float64("hfov", 0, "override horizontal field of view in degrees (0-360]")
	vfov := flag.Float64("vfov", 0, "override vertical field of view in degrees (0-360]")
	focalLengthMm := flag.Float64("focal_length_mm", 0, "override focal length in mm")
	overlapPct := flag.Float64("overlap_percent", 0, "override overlap between shots in percent [0-90)")
	shots := flag.Int("shots", 0, "override number of shots; 0 keeps the config value")
	showBearing := flag.Bool("bearing", false, "print the camera to target angle from the site section and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	overrides := web.Overrides{FocalLengthMm: *focalLengthMm, OverlapPercent: *overlapPct, Shots: *shots}
	if err := validateCLIOverrides(*hfov, *vfov, overrides); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, overrides)
	if err := applyFOVOverride(cfg, *hfov, *vfov); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}

	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	if *showBearing {
		if err := printBearing(os.Stdout, cfg.Site); err != nil {
			log.Fatalf("bearing: %v", err)
		}
		return
	}

	if n := list.count(); n > 0 {
		r := geometry.MotorRange{H: cfg.PanRangeSteps(), V: cfg.TiltRangeSteps()}
		plan, err := buildPlan(cfg, r, initialPosition(cfg))
		if err != nil {
			log.Fatalf("build plan: %v", err)
		}
		logPlan(plan)
		listPositions(os.Stdout, plan.cursor, n)
		return
	}

	// Initialize GPIO driver
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	// Initialize stepper motors
	debug.Step(2, "Initializing stepper motors")
	stepDelay := cfg.MoveSpeed() / 2
	panMotor := stepper.NewStepper(gpioDriver, stepperConfig(cfg.PanStepper, stepDelay))
	debug.PrintStruct("Pan stepper config", cfg.PanStepper)
	tiltMotor := stepper.NewStepper(gpioDriver, stepperConfig(cfg.TiltStepper, stepDelay))
	debug.PrintStruct("Tilt stepper config", cfg.TiltStepper)

	r := geometry.MotorRange{H: panMotor.StepsPerTurn(), V: tiltMotor.StepsPerTurn()}
	motionCtrl, err := motion.NewController(panMotor, tiltMotor, r, initialPosition(cfg))
	if err != nil {
		log.Fatalf("init motion controller failed: %v", err)
	}
	debug.Value("Motor range", fmt.Sprintf("%d x %d steps", r.H, r.V))

	// Initialize camera
	debug.Step(3, "Initializing camera")
	cam, err := camera.New(gpioDriver, cfg)
	if err != nil {
		log.Fatalf("init camera failed: %v", err)
	}
	debug.Value("Camera type", cfg.Camera.Type)
	debug.Value("Focus pin", cfg.Camera.FocusPin)
	debug.Value("Shutter pin", cfg.Camera.ShutterPin)

	metrics, err := observability.NewScanCollector(nil)
	if err != nil {
		log.Fatalf("init metrics failed: %v", err)
	}
	captureSeq := capture.NewSequence(motionCtrl, cam)
	captureSeq.SetMetrics(metrics)

	runner := &scanRunner{
		cfg:     cfg,
		motion:  motionCtrl,
		seq:     captureSeq,
		metrics: metrics,
	}

	if port := webPort.port(); port > 0 {
		webAddr := fmt.Sprintf(":%d", port)
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
		runner.broadcaster = broadcaster

		srv, err := web.NewServer(webAddr, web.Options{
			Broadcaster:  broadcaster,
			RunScan:      runner.run,
			Plan:         runner.plan,
			FormDefaults: formDefaults(cfg),
			Metrics:      metrics.Handler(),
		})
		if err != nil {
			log.Fatalf("web server: %v", err)
		}
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("web server: %v", err)
		}
		return
	}

	// Run one scan with current config (already has CLI overrides applied)
	if err := runner.run(ctx, "", web.Overrides{}); err != nil {
		log.Fatalf("scan failed: %v", err)
	}
}

func stepperConfig(s config.StepperConfig, stepDelay time.Duration) stepper.Config {
	return stepper.Config{
		StepPin:       s.StepPin,
		DirPin:        s.DirPin,
		EnablePin:     s.EnablePin,
		StepsPerRev:   s.StepsPerRev,
		Microstepping: s.Microstepping,
		StepDelay:     stepDelay,
	}
}

func initialPosition(cfg *config.Config) geometry.MotorPosition {
	return geometry.MotorPosition{H: cfg.Scan.InitialPanSteps, V: cfg.Scan.InitialTiltSteps}
}

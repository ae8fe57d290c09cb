package gpio

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/skyscan/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver drives the head's BCM pins through go-rpio's /dev/gpiomem mapping.
type RPiDriver struct {
	mu    sync.Mutex
	modes map[int]PinMode
}

// NewRPiRealDriver maps GPIO memory. It fails off a Raspberry Pi or without
// access to /dev/gpiomem.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}
	debug.Verbose("GPIO memory mapped")
	return &RPiDriver{modes: make(map[int]PinMode)}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setup(pin, mode)
}

func (r *RPiDriver) setup(pin int, mode PinMode) error {
	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("pin %d: unknown mode %d", pin, mode)
	}
	r.modes[pin] = mode
	return nil
}

// claim returns pin, configuring it as mode on first use.
func (r *RPiDriver) claim(pin int, mode PinMode) (rpio.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modes[pin]; !ok {
		if err := r.setup(pin, mode); err != nil {
			return 0, err
		}
	}
	return rpio.Pin(pin), nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	p, err := r.claim(pin, Output)
	if err != nil {
		return err
	}
	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)
	p, err := r.claim(pin, Input)
	if err != nil {
		return Low, err
	}
	return Level(p.Read() == rpio.High), nil
}

// Close pulls every output low, returns all claimed pins to input so the
// stepper drivers and shutter lines float safely, then unmaps GPIO memory.
func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")
	r.mu.Lock()
	for pin, mode := range r.modes {
		p := rpio.Pin(pin)
		if mode == Output {
			p.Low()
		}
		p.Input()
		debug.Verbose("Released pin %d", pin)
	}
	r.modes = make(map[int]PinMode)
	r.mu.Unlock()

	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close GPIO: %w", err)
	}
	return nil
}

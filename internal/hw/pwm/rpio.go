package pwm

import (
	"fmt"
	"math"
	"time"

	"github.com/cjeanneret/ptzgo/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// connectGrace is how long to wait before the single reconnect attempt
// when the PWM hardware cannot be acquired on the first try.
const connectGrace = 200 * time.Millisecond

// RPiDriver is the real implementation for Raspberry Pi using go-rpio
// hardware PWM. BCM 12 and 13 sit on the two hardware PWM blocks.
type RPiDriver struct {
	pins map[Channel]rpio.Pin
}

// NewRPiDriver acquires the PWM hardware. One reconnect attempt is made
// after a short grace period; a second failure is fatal for the caller.
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
func NewRPiDriver(pins Pins) (*RPiDriver, error) {
	debug.Info("Initializing real PWM driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		debug.Verbose("GPIO open failed (%v), retrying in %v", err, connectGrace)
		time.Sleep(connectGrace)
		if err := rpio.Open(); err != nil {
			return nil, fmt.Errorf("%w: %w (are you running on a Raspberry Pi?)", ErrActuatorUnavailable, err)
		}
	}

	debug.Verbose("GPIO memory mapped successfully")

	return &RPiDriver{
		pins: map[Channel]rpio.Pin{
			Pan:  rpio.Pin(pins.Pan),
			Tilt: rpio.Pin(pins.Tilt),
		},
	}, nil
}

func (r *RPiDriver) Configure(ch Channel) error {
	p, ok := r.pins[ch]
	if !ok {
		return fmt.Errorf("unknown channel: %s", ch)
	}
	debug.Trace("PWM Configure: channel=%s pin=%d freq=%dHz range=%d", ch, uint8(p), FrequencyHz, RangeUnits)

	p.Mode(rpio.Pwm)
	// go-rpio takes the PWM clock frequency: frame rate times cycle length.
	p.Freq(FrequencyHz * RangeUnits)
	return nil
}

func (r *RPiDriver) SetLevel(ch Channel, duty float64) error {
	p, ok := r.pins[ch]
	if !ok {
		return fmt.Errorf("unknown channel: %s", ch)
	}

	// The duty register is unsigned and capped at the cycle length, so
	// extrapolated angles saturate here rather than wrapping.
	d := math.Round(duty)
	if d < 0 {
		d = 0
	}
	if d > RangeUnits {
		d = RangeUnits
	}
	debug.Trace("PWM SetLevel: channel=%s pin=%d duty=%.0f", ch, uint8(p), d)

	p.DutyCycle(uint32(d), RangeUnits)
	return nil
}

// Close releases the GPIO memory mapping. The PWM blocks keep running,
// so the servos hold their last commanded position.
func (r *RPiDriver) Close() error {
	debug.Trace("PWM Close (real driver)")
	return rpio.Close()
}

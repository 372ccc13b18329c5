package pwm

import (
	"errors"

	"github.com/cjeanneret/ptzgo/internal/debug"
)

// Channel is one of the two logical actuator outputs.
type Channel string

const (
	Pan  Channel = "pan"
	Tilt Channel = "tilt"
)

// Fixed PWM parameters for hobby servos: 50Hz frame rate with a
// 10000-unit duty range, so one duty unit is 2µs of pulse width.
const (
	FrequencyHz = 50
	RangeUnits  = 10000
)

// ErrActuatorUnavailable is returned when the PWM hardware cannot be
// acquired, after the single bootstrap retry.
var ErrActuatorUnavailable = errors.New("actuator unavailable")

// Pins maps the logical channels to BCM pin numbers.
type Pins struct {
	Pan  int
	Tilt int
}

// DefaultPins are the head's wiring: both are hardware PWM capable.
var DefaultPins = Pins{Pan: 13, Tilt: 12}

// Driver defines the abstract interface for driving the servo outputs.
// This allows plugging in the real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	// Configure sets up a channel at FrequencyHz with RangeUnits resolution.
	Configure(ch Channel) error
	// SetLevel writes a duty value (out of RangeUnits) to a channel.
	SetLevel(ch Channel, duty float64) error
	Close() error
}

// MockDriver is a test implementation that simply logs actions.
// Used for development on PC or testing.
type MockDriver struct{}

// NewDriver creates a PWM driver based on the chosen mode.
// If mock is true, returns a MockDriver (for dev/test).
// If mock is false, returns a real RPiDriver (for Raspberry Pi).
func NewDriver(mock bool, pins Pins) (Driver, error) {
	if mock {
		debug.Info("Using MOCK PWM driver (development mode)")
		return &MockDriver{}, nil
	}
	return NewRPiDriver(pins)
}

func (m *MockDriver) Configure(ch Channel) error {
	debug.Trace("PWM Configure (mock): channel=%s freq=%dHz range=%d", ch, FrequencyHz, RangeUnits)
	return nil
}

func (m *MockDriver) SetLevel(ch Channel, duty float64) error {
	debug.Trace("PWM SetLevel (mock): channel=%s duty=%.1f", ch, duty)
	return nil
}

func (m *MockDriver) Close() error {
	debug.Trace("PWM Close (mock)")
	return nil
}

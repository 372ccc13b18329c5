package servo

import (
	"github.com/cjeanneret/ptzgo/internal/debug"
	"github.com/cjeanneret/ptzgo/internal/hw/pwm"
)

// Angle-to-duty mapping for the installed servos: -90..90 degrees maps
// linearly onto duty 250..1250 (0.5ms..2.5ms pulse at 50Hz). The mapping
// is fixed hardware calibration, independent of any configured soft
// bounds; angles outside the nominal range extrapolate on the same line.
const (
	angleMin = -90.0
	angleMax = 90.0
	dutyMin  = 250.0
	dutyMax  = 1250.0
)

// DutyForAngle converts an angle in degrees to a PWM duty value.
func DutyForAngle(angle float64) float64 {
	return (angle-angleMin)*(dutyMax-dutyMin)/(angleMax-angleMin) + dutyMin
}

// Servo provides a simple angle-based API for one axis.
// It's an intermediate layer between business logic (moves, trajectories)
// and low-level (PWM duty values).
type Servo struct {
	drv pwm.Driver
	ch  pwm.Channel
}

// New binds a servo to a driver channel. Configure must have been called
// on the channel before the first SetAngle.
func New(drv pwm.Driver, ch pwm.Channel) *Servo {
	return &Servo{drv: drv, ch: ch}
}

// Channel returns the driver channel this servo is bound to.
func (s *Servo) Channel() pwm.Channel {
	return s.ch
}

// SetAngle commands the servo to the given angle in degrees.
func (s *Servo) SetAngle(angle float64) error {
	duty := DutyForAngle(angle)
	debug.Servo(string(s.ch), angle, duty)
	return s.drv.SetLevel(s.ch, duty)
}

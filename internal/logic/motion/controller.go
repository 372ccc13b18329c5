package motion

import (
	"math"
	"time"

	"github.com/cjeanneret/ptzgo/internal/debug"
	"github.com/cjeanneret/ptzgo/internal/hw/pwm"
	"github.com/cjeanneret/ptzgo/internal/hw/servo"
	"github.com/cjeanneret/ptzgo/internal/state"
)

// tick is the actuator update cadence: one duty write per axis per tick.
const tick = 20 * time.Millisecond

// Request describes one move. A nil axis target leaves that axis
// unchanged. The bounds replace the stored bounds wholesale; they are
// never merged with what was persisted before.
type Request struct {
	Pan      *float64 // degrees; delta when Relative
	Tilt     *float64
	Relative bool
	SmoothMs int
	Bounds   state.Bounds
}

// Controller converts a target position into a bounded, time-smoothed
// trajectory of servo updates and persists the reached position.
// It's an intermediate layer between the command surface and the
// low-level PWM driver.
//
// The driver is owned only for the duration of one move: the connect
// factory acquires it and it is released on every exit path.
type Controller struct {
	connect func() (pwm.Driver, error)
	store   *state.Store
	sleep   func(time.Duration)
}

func NewController(connect func() (pwm.Driver, error), store *state.Store) *Controller {
	return &Controller{
		connect: connect,
		store:   store,
		sleep:   time.Sleep,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Steps returns the trajectory length for a smoothing duration:
// one update per 20ms tick, never fewer than one update.
func Steps(smoothMs int) int {
	steps := smoothMs / 20
	if steps < 1 {
		steps = 1
	}
	return steps
}

// Move resolves the request against the stored position, drives the
// trajectory, and persists the new position only if every step
// succeeded. A persist failure after a completed trajectory is
// surfaced; the physical position and the stored one then disagree
// until the next successful move.
func (c *Controller) Move(req Request) (state.Position, error) {
	cur := c.store.Load()

	pan, tilt := cur.Pan, cur.Tilt
	if req.Pan != nil {
		if req.Relative {
			pan += *req.Pan
		} else {
			pan = *req.Pan
		}
	}
	if req.Tilt != nil {
		if req.Relative {
			tilt += *req.Tilt
		} else {
			tilt = *req.Tilt
		}
	}

	pan = clamp(pan, req.Bounds.PanMin, req.Bounds.PanMax)
	tilt = clamp(tilt, req.Bounds.TiltMin, req.Bounds.TiltMax)

	steps := Steps(req.SmoothMs)
	debug.Move(pan, tilt, steps)

	if err := c.run(cur, pan, tilt, steps); err != nil {
		return cur, err
	}

	next := state.Position{Pan: pan, Tilt: tilt, Bounds: req.Bounds}
	if err := c.store.Save(next); err != nil {
		return next, err
	}
	return next, nil
}

// run acquires the driver and walks the linear trajectory. Step
// i == steps computes start + (target-start)*1, so the final update
// lands exactly on the clamped target.
func (c *Controller) run(cur state.Position, pan, tilt float64, steps int) error {
	drv, err := c.connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := drv.Close(); err != nil {
			debug.Error(err)
		}
	}()

	for _, ch := range []pwm.Channel{pwm.Pan, pwm.Tilt} {
		if err := drv.Configure(ch); err != nil {
			return err
		}
	}

	panServo := servo.New(drv, pwm.Pan)
	tiltServo := servo.New(drv, pwm.Tilt)

	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		p := cur.Pan + (pan-cur.Pan)*f
		tv := cur.Tilt + (tilt-cur.Tilt)*f
		debug.Verbose("step %d/%d: pan=%.3f tilt=%.3f", i, steps, p, tv)

		if err := panServo.SetAngle(p); err != nil {
			return err
		}
		if err := tiltServo.SetAngle(tv); err != nil {
			return err
		}
		c.sleep(tick)
	}
	return nil
}

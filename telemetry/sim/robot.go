// Package sim publishes telemetry for a simulated swerve robot, so the dashboard can run
// without a robot on the network.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/thunderstorm509/dashboard/kinematics/swerve"
	"github.com/thunderstorm509/dashboard/logging"
	"github.com/thunderstorm509/dashboard/telemetry"
	"github.com/thunderstorm509/dashboard/utils"
)

// DefaultRateHz is how often a simulated robot publishes when no rate is configured.
const DefaultRateHz = 50

// Segment holds a chassis velocity for a duration.
type Segment struct {
	Duration time.Duration
	Velocity swerve.ChassisVelocity
}

// Profile is a looping sequence of segments.
type Profile []Segment

// DefaultProfile drives forward, strafes left, spins, drives an arc and rests.
func DefaultProfile() Profile {
	return Profile{
		{2 * time.Second, swerve.ChassisVelocity{VxMPS: 2}},
		{2 * time.Second, swerve.ChassisVelocity{VyMPS: 2}},
		{2 * time.Second, swerve.ChassisVelocity{OmegaRadPerSec: 1.5}},
		{2 * time.Second, swerve.ChassisVelocity{VxMPS: 1.5, OmegaRadPerSec: 1}},
		{2 * time.Second, swerve.ChassisVelocity{VxMPS: -1, VyMPS: -1}},
		{time.Second, swerve.ChassisVelocity{}},
	}
}

// Duration is the length of one pass through the profile.
func (p Profile) Duration() time.Duration {
	var total time.Duration
	for _, seg := range p {
		total += seg.Duration
	}
	return total
}

// At returns the commanded velocity elapsed into the profile, wrapping around at the end.
func (p Profile) At(elapsed time.Duration) swerve.ChassisVelocity {
	total := p.Duration()
	if total <= 0 {
		return swerve.ChassisVelocity{}
	}
	elapsed %= total
	if elapsed < 0 {
		elapsed += total
	}
	for _, seg := range p {
		if elapsed < seg.Duration {
			return seg.Velocity
		}
		elapsed -= seg.Duration
	}
	return p[len(p)-1].Velocity
}

// Options configure a simulated Robot.
type Options struct {
	Prefix  string
	Offsets []r2.Point
	Profile Profile
	RateHz  float64
	// FlipEvery publishes every nth sample with the reversed representation of each module
	// (heading + 180°, negated speed), like a module controller that settles either way.
	// Zero never flips.
	FlipEvery int
	Clock     clock.Clock
}

// Robot publishes module telemetry for a chassis following a Profile.
type Robot struct {
	opts   Options
	writer telemetry.Writer
	logger logging.Logger

	mu      sync.Mutex
	start   time.Time
	samples int
	workers *utils.StoppableWorkers
}

// NewRobot returns a simulated robot writing into writer. Unset options take defaults.
func NewRobot(opts Options, writer telemetry.Writer, logger logging.Logger) (*Robot, error) {
	if opts.Prefix == "" {
		return nil, errors.New("simulated robot needs a telemetry prefix")
	}
	if len(opts.Offsets) == 0 {
		return nil, errors.New("simulated robot needs at least one module")
	}
	if opts.FlipEvery < 0 {
		return nil, errors.Errorf("flip interval cannot be negative, got %d", opts.FlipEvery)
	}
	if opts.Profile == nil {
		opts.Profile = DefaultProfile()
	}
	if opts.RateHz <= 0 {
		opts.RateHz = DefaultRateHz
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Robot{opts: opts, writer: writer, logger: logger, start: opts.Clock.Now()}, nil
}

// Step publishes the module states for elapsed time into the profile and returns them.
func (r *Robot) Step(elapsed time.Duration) []swerve.ModuleState {
	r.mu.Lock()
	defer r.mu.Unlock()

	chassis := r.opts.Profile.At(elapsed)
	states := swerve.ModuleStatesFor(r.opts.Offsets, chassis)
	r.samples++
	flip := r.opts.FlipEvery > 0 && r.samples%r.opts.FlipEvery == 0
	for i, state := range states {
		angleDeg, speed := utils.NormalizeDeg(state.HeadingDeg()), state.SpeedMPS
		if flip {
			angleDeg, speed = utils.NormalizeDeg(angleDeg+180), -speed
			states[i] = swerve.ModuleStateFromDegrees(speed, angleDeg)
		}
		telemetry.WriteModule(r.writer, r.opts.Prefix, i, angleDeg, speed)
	}
	return states
}

// Samples is how many times the robot has published.
func (r *Robot) Samples() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples
}

// Start publishes in the background at the configured rate until Stop.
func (r *Robot) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.workers != nil {
		return
	}
	r.start = r.opts.Clock.Now()
	period := time.Duration(float64(time.Second) / r.opts.RateHz)
	r.logger.Infow("simulated robot started", "prefix", r.opts.Prefix, "rate_hz", r.opts.RateHz,
		"profile_length", r.opts.Profile.Duration())
	// created before the worker runs so a tick right after Start is not missed
	ticker := r.opts.Clock.Ticker(period)
	r.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.Step(now.Sub(r.start))
			}
		}
	})
}

// Stop halts background publishing.
func (r *Robot) Stop() {
	r.mu.Lock()
	workers := r.workers
	r.workers = nil
	r.mu.Unlock()
	if workers != nil {
		workers.Stop()
	}
}

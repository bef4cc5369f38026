// Package dashboard turns raw module telemetry into display frames: optimized per-module
// states, the estimated chassis velocity, and running statistics over a session.
package dashboard

import (
	"math"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/thunderstorm509/dashboard/config"
	"github.com/thunderstorm509/dashboard/kinematics/swerve"
	"github.com/thunderstorm509/dashboard/logging"
	"github.com/thunderstorm509/dashboard/telemetry"
	"github.com/thunderstorm509/dashboard/utils"
)

// Drive reads one frame of telemetry at a time for a configured chassis.
type Drive struct {
	store     telemetry.Store
	logger    logging.Logger
	prefix    string
	names     []string
	maxSpeed  float64
	estimator swerve.ChassisEstimator
	// set when the estimator can also report a fit residual
	solver *swerve.Solver

	mu         sync.Mutex
	optimizers []*swerve.HeadingOptimizer
	missing    []bool
	// chassis speed over the last second of frames
	speedAvg *utils.RollingAverage

	frames atomic.Uint64
}

// NewDrive validates cfg and builds its estimator and one heading optimizer per module.
func NewDrive(cfg *config.Config, store telemetry.Store, logger logging.Logger) (*Drive, error) {
	if cfg == nil {
		return nil, errors.New("drive needs a config")
	}
	if store == nil {
		return nil, errors.New("drive needs a telemetry store")
	}
	if err := cfg.Validate("dashboard"); err != nil {
		return nil, err
	}
	estimator, err := cfg.NewEstimator()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build %s estimator", cfg.SolverName())
	}

	d := &Drive{
		store:      store,
		logger:     logger,
		prefix:     cfg.Telemetry.Prefix,
		names:      cfg.ModuleNames(),
		maxSpeed:   cfg.MaxSpeedMPS,
		estimator:  estimator,
		optimizers: swerve.NewHeadingOptimizers(estimator.NumModules()),
		missing:    make([]bool, estimator.NumModules()),
		speedAvg:   utils.NewRollingAverage(int(math.Round(cfg.FrameRateHz))),
	}
	if solver, ok := estimator.(*swerve.Solver); ok {
		d.solver = solver
	}
	logger.Debugw("drive ready", "modules", estimator.NumModules(), "solver", cfg.SolverName(),
		"prefix", d.prefix)
	return d, nil
}

// NumModules is the number of modules read per frame.
func (d *Drive) NumModules() int {
	return len(d.names)
}

// Frames is how many frames have been produced.
func (d *Drive) Frames() uint64 {
	return d.frames.Load()
}

// Update reads every module, optimizes its heading against the previous frame and estimates
// the chassis velocity. The chassis estimate uses the observed states since optimizing a
// module never changes its velocity vector.
func (d *Drive) Update() (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	samples := telemetry.ReadModules(d.store, d.prefix, len(d.names))
	observed := make([]swerve.ModuleState, len(samples))
	frame := Frame{Modules: make([]ModuleFrame, len(samples))}
	for i, sample := range samples {
		d.noteMissing(i, sample)
		observed[i] = swerve.ModuleStateFromDegrees(sample.VelocityMPS, sample.AngleDeg)
		speed, heading := d.optimizers[i].OptimizeDegrees(sample.VelocityMPS, sample.AngleDeg)
		frame.Modules[i] = ModuleFrame{
			Name:          d.names[i],
			Raw:           sample,
			Adjusted:      swerve.ModuleStateFromDegrees(speed, heading),
			SpeedFraction: speed / d.maxSpeed,
		}
	}

	chassis, err := d.estimator.ToChassisVelocity(observed)
	if err != nil {
		return Frame{}, errors.Wrap(err, "cannot estimate chassis velocity")
	}
	frame.Chassis = chassis
	frame.ChassisFraction = r2.Point{X: chassis.VxMPS / d.maxSpeed, Y: chassis.VyMPS / d.maxSpeed}
	if speed := chassis.Speed(); utils.IsFinite(speed) {
		d.speedAvg.Add(speed)
	}
	frame.AverageSpeedMPS = d.speedAvg.Average()
	if d.solver != nil {
		residual, err := d.solver.ResidualOf(observed, chassis)
		if err != nil {
			return Frame{}, errors.Wrap(err, "cannot compute residual")
		}
		frame.Residual = residual
		frame.HasResidual = true
	}
	frame.Arm = telemetry.ReadArm(d.store, d.prefix)
	frame.Index = d.frames.Inc() - 1
	return frame, nil
}

// noteMissing logs once when a module's entries disappear and once when they come back.
func (d *Drive) noteMissing(i int, sample telemetry.Sample) {
	if sample.Present == !d.missing[i] {
		return
	}
	d.missing[i] = !sample.Present
	if sample.Present {
		d.logger.Debugw("module telemetry present", "module", d.names[i])
		return
	}
	d.logger.Debugw("module telemetry missing, reading as zero", "module", d.names[i],
		"angle_key", telemetry.ModuleAngleKey(d.prefix, i),
		"velocity_key", telemetry.ModuleVelocityKey(d.prefix, i))
}

// Reset seeds every optimizer with a heading of 0, as at startup.
func (d *Drive) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, opt := range d.optimizers {
		opt.Reset(0)
	}
}

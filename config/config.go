// Package config defines the structures to configure the swerve dashboard.
package config

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/thunderstorm509/dashboard/kinematics/swerve"
	"github.com/thunderstorm509/dashboard/logging"
	"github.com/thunderstorm509/dashboard/utils"
)

// Supported chassis estimators.
const (
	SolverLeastSquares = "least_squares"
	SolverMean         = "mean"
)

// Defaults of the robot the dashboard was first written for.
const (
	DefaultTelemetryPrefix   = "/Thunderstorm"
	DefaultChassisSideMeters = 0.7112
	DefaultModuleInsetMeters = 0.0776
	DefaultMaxSpeedMPS       = 4.96824
	DefaultFrameRateHz       = 60
)

// Config is how you configure the dashboard.
type Config struct {
	Telemetry   Telemetry      `json:"telemetry"`
	Chassis     Chassis        `json:"chassis"`
	Modules     []ModuleConfig `json:"modules,omitempty"`
	MaxSpeedMPS float64        `json:"max_speed_mps"`
	FrameRateHz float64        `json:"frame_rate_hz"`
	Solver      string         `json:"solver,omitempty"`
	LogLevel    logging.Level  `json:"log_level,omitempty"`
	// LogFile also writes logs to a size-rotated file when set.
	LogFile string `json:"log_file,omitempty"`

	ConfigFilePath string `json:"-"`
}

// Telemetry describes where module entries are read from.
type Telemetry struct {
	Prefix    string  `json:"prefix"`
	File      string  `json:"file,omitempty"`
	Simulate  bool    `json:"simulate,omitempty"`
	SimRateHz float64 `json:"sim_rate_hz,omitempty"`
	// SimFlipEvery makes the simulator publish every nth sample reversed. Zero never does.
	SimFlipEvery int `json:"sim_flip_every,omitempty"`
}

// Chassis gives the dimensions module offsets are derived from when Modules is empty.
type Chassis struct {
	WidthMeters       float64 `json:"width_m"`
	LengthMeters      float64 `json:"length_m"`
	ModuleInsetMeters float64 `json:"module_inset_m"`
}

// ModuleConfig places one module explicitly, in meters from the center of rotation.
// X points forward and Y to the left.
type ModuleConfig struct {
	Name    string  `json:"name"`
	XMeters float64 `json:"x_m"`
	YMeters float64 `json:"y_m"`
}

// Default returns the configuration of a 0.7112 m square chassis with modules 0.2780 m from
// the center on each axis.
func Default() *Config {
	return &Config{
		Telemetry: Telemetry{Prefix: DefaultTelemetryPrefix, Simulate: true},
		Chassis: Chassis{
			WidthMeters:       DefaultChassisSideMeters,
			LengthMeters:      DefaultChassisSideMeters,
			ModuleInsetMeters: DefaultModuleInsetMeters,
		},
		MaxSpeedMPS: DefaultMaxSpeedMPS,
		FrameRateHz: DefaultFrameRateHz,
		Solver:      SolverLeastSquares,
		LogLevel:    logging.INFO,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error

	if cfg.Telemetry.Prefix == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path+".telemetry", "prefix"))
	}
	if cfg.Telemetry.SimRateHz < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path+".telemetry",
			errors.New("sim_rate_hz cannot be negative")))
	}
	if cfg.Telemetry.SimFlipEvery < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path+".telemetry",
			errors.New("sim_flip_every cannot be negative")))
	}
	if cfg.MaxSpeedMPS <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "max_speed_mps"))
	}
	if cfg.FrameRateHz <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "frame_rate_hz"))
	}
	switch cfg.Solver {
	case "", SolverLeastSquares, SolverMean:
	default:
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("unknown solver %q, expected %q or %q", cfg.Solver, SolverLeastSquares, SolverMean)))
	}

	if len(cfg.Modules) == 0 {
		errs = multierr.Append(errs, cfg.Chassis.Validate(path+".chassis"))
	}
	names := make(map[string]struct{}, len(cfg.Modules))
	for i, module := range cfg.Modules {
		modulePath := fmt.Sprintf("%s.modules.%d", path, i)
		if module.Name == "" {
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(modulePath, "name"))
			continue
		}
		if _, ok := names[module.Name]; ok {
			errs = multierr.Append(errs, utils.NewConfigValidationError(modulePath,
				errors.Errorf("duplicate module name %q", module.Name)))
		}
		names[module.Name] = struct{}{}
	}
	return errs
}

// Validate ensures the chassis can produce four module offsets.
func (c Chassis) Validate(path string) error {
	var errs error
	if c.WidthMeters <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "width_m"))
	}
	if c.LengthMeters <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "length_m"))
	}
	if c.ModuleInsetMeters < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("module_inset_m cannot be negative")))
	}
	if errs != nil {
		return errs
	}
	if 2*c.ModuleInsetMeters >= c.WidthMeters || 2*c.ModuleInsetMeters >= c.LengthMeters {
		return utils.NewConfigValidationError(path,
			errors.Errorf("module_inset_m %.4f leaves no room between modules", c.ModuleInsetMeters))
	}
	return nil
}

// SolverName returns the configured solver, defaulting to least squares.
func (cfg *Config) SolverName() string {
	if cfg.Solver == "" {
		return SolverLeastSquares
	}
	return cfg.Solver
}

// ModuleOffsets returns the module offsets in telemetry order: the explicit modules if any
// were given, else the corners of the chassis as front left, back left, back right, front right.
func (cfg *Config) ModuleOffsets() []r2.Point {
	if len(cfg.Modules) > 0 {
		offsets := make([]r2.Point, len(cfg.Modules))
		for i, module := range cfg.Modules {
			offsets[i] = r2.Point{X: module.XMeters, Y: module.YMeters}
		}
		return offsets
	}
	return swerve.RectangularLayout(
		cfg.Chassis.LengthMeters/2-cfg.Chassis.ModuleInsetMeters,
		cfg.Chassis.WidthMeters/2-cfg.Chassis.ModuleInsetMeters,
	)
}

// ModuleNames returns a display name per module offset.
func (cfg *Config) ModuleNames() []string {
	if len(cfg.Modules) > 0 {
		names := make([]string, len(cfg.Modules))
		for i, module := range cfg.Modules {
			names[i] = module.Name
		}
		return names
	}
	return append([]string(nil), swerve.ModuleNames[:]...)
}

// NewEstimator builds the chassis estimator selected by Solver.
func (cfg *Config) NewEstimator() (swerve.ChassisEstimator, error) {
	offsets := cfg.ModuleOffsets()
	if cfg.SolverName() == SolverMean {
		mean, err := swerve.NewMeanSolver(offsets)
		if err != nil {
			return nil, err
		}
		return mean, nil
	}
	solver, err := swerve.NewSolver(offsets)
	if err != nil {
		return nil, err
	}
	return solver, nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/thunderstorm509/dashboard/kinematics/swerve"
	"github.com/thunderstorm509/dashboard/logging"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate("dashboard"), test.ShouldBeNil)

	offsets := cfg.ModuleOffsets()
	test.That(t, len(offsets), test.ShouldEqual, 4)
	test.That(t, offsets[swerve.FrontLeft].X, test.ShouldAlmostEqual, 0.2780)
	test.That(t, offsets[swerve.FrontLeft].Y, test.ShouldAlmostEqual, 0.2780)
	test.That(t, offsets[swerve.BackLeft].X, test.ShouldAlmostEqual, -0.2780)
	test.That(t, offsets[swerve.BackRight].Y, test.ShouldAlmostEqual, -0.2780)
	test.That(t, offsets[swerve.FrontRight].X, test.ShouldAlmostEqual, 0.2780)
	test.That(t, cfg.ModuleNames(), test.ShouldResemble, []string{"front_left", "back_left", "back_right", "front_right"})

	estimator, err := cfg.NewEstimator()
	test.That(t, err, test.ShouldBeNil)
	_, ok := estimator.(*swerve.Solver)
	test.That(t, ok, test.ShouldBeTrue)

	cfg.Solver = SolverMean
	estimator, err = cfg.NewEstimator()
	test.That(t, err, test.ShouldBeNil)
	_, ok = estimator.(*swerve.MeanSolver)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.Prefix = ""
	cfg.MaxSpeedMPS = 0
	cfg.Solver = "magic"
	cfg.Telemetry.SimFlipEvery = -2
	err := cfg.Validate("dashboard")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"prefix" is required`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"max_speed_mps" is required`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown solver "magic"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sim_flip_every cannot be negative")

	cfg = Default()
	cfg.Chassis.ModuleInsetMeters = 0.4
	err = cfg.Validate("dashboard")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "leaves no room")

	// explicit modules take over from the chassis
	cfg.Modules = []ModuleConfig{{Name: "a", XMeters: 0.1}, {Name: "a", XMeters: -0.1}, {XMeters: 0.2}}
	err = cfg.Validate("dashboard")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldNotContainSubstring, "leaves no room")
	test.That(t, err.Error(), test.ShouldContainSubstring, `duplicate module name "a"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `dashboard.modules.2`)
}

func TestExplicitModules(t *testing.T) {
	cfg := Default()
	cfg.Modules = []ModuleConfig{
		{Name: "left", XMeters: 0, YMeters: 0.3},
		{Name: "right", XMeters: 0, YMeters: -0.3},
	}
	test.That(t, cfg.Validate("dashboard"), test.ShouldBeNil)
	test.That(t, cfg.ModuleNames(), test.ShouldResemble, []string{"left", "right"})
	test.That(t, cfg.ModuleOffsets()[1].Y, test.ShouldEqual, -0.3)

	estimator, err := cfg.NewEstimator()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, estimator.NumModules(), test.ShouldEqual, 2)

	cfg.Modules = cfg.Modules[:1]
	_, err = cfg.NewEstimator()
	var geomErr *swerve.DegenerateGeometryError
	test.That(t, errors.As(err, &geomErr), test.ShouldBeTrue)
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("DASH_PREFIX", "/Lightning")

	path := filepath.Join(t.TempDir(), "dash.json")
	contents := `{
		"telemetry": {"prefix": "${DASH_PREFIX}", "file": "/tmp/telemetry.json"},
		"chassis": {"width_m": 0.6, "length_m": 0.8, "module_inset_m": 0.05},
		"max_speed_mps": 4.0,
		"frame_rate_hz": 30,
		"solver": "mean",
		"log_level": "debug"
	}`
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.Telemetry.Prefix, test.ShouldEqual, "/Lightning")
	test.That(t, cfg.Telemetry.File, test.ShouldEqual, "/tmp/telemetry.json")
	// defaults survive fields the file sets partially
	test.That(t, cfg.Telemetry.Simulate, test.ShouldBeTrue)
	test.That(t, cfg.FrameRateHz, test.ShouldEqual, 30.0)
	test.That(t, cfg.SolverName(), test.ShouldEqual, SolverMean)
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.DEBUG)

	offsets := cfg.ModuleOffsets()
	test.That(t, offsets[swerve.FrontLeft].X, test.ShouldAlmostEqual, 0.35)
	test.That(t, offsets[swerve.FrontLeft].Y, test.ShouldAlmostEqual, 0.25)

	t.Run("unknown field", func(t *testing.T) {
		_, err := FromReader("inline", strings.NewReader(`{"wheels": 4}`), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `cannot parse config "inline"`)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := FromReader("inline", strings.NewReader(`{"frame_rate_hz": -1}`), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "frame_rate_hz")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Read(filepath.Join(t.TempDir(), "nope.json"), logger)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

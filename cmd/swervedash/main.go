// Package main runs the swerve dashboard headless, printing a frame table once a second.
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/thunderstorm509/dashboard/config"
	"github.com/thunderstorm509/dashboard/dashboard"
	"github.com/thunderstorm509/dashboard/logging"
	"github.com/thunderstorm509/dashboard/telemetry"
	"github.com/thunderstorm509/dashboard/telemetry/sim"
)

var logger = logging.NewLogger("swervedash")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile    string `flag:"config,usage=dashboard config file"`
	Simulate      bool   `flag:"simulate,usage=read from a simulated robot"`
	TelemetryFile string `flag:"telemetry-file,usage=JSON telemetry snapshot to watch"`
	Frames        int    `flag:"frames,usage=stop after this many frames (0 runs until interrupted)"`
	Debug         bool   `flag:"debug,usage=log every frame"`
}

// rotation limits for log_file
const (
	logFileMaxSizeMB  = 16
	logFileMaxBackups = 3
)

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	cfg, err := loadConfig(argsParsed, logger)
	if err != nil {
		return err
	}
	if argsParsed.Debug {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(cfg.LogLevel)
	}
	if cfg.LogFile != "" {
		appender := logging.NewFileAppender(cfg.LogFile, logFileMaxSizeMB, logFileMaxBackups)
		logger.AddAppender(appender)
		defer func() {
			err = multierr.Combine(err, appender.Close())
		}()
	}
	return runDashboard(ctx, cfg, argsParsed.Frames, clock.New(), os.Stdout, logger)
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(args Arguments, logger logging.Logger) (*config.Config, error) {
	if args.Frames < 0 {
		return nil, errors.Errorf("frames cannot be negative, got %d", args.Frames)
	}
	if args.Simulate && args.TelemetryFile != "" {
		return nil, errors.New("--simulate and --telemetry-file cannot be used together")
	}

	cfg := config.Default()
	if args.ConfigFile != "" {
		var err error
		if cfg, err = config.Read(args.ConfigFile, logger); err != nil {
			return nil, err
		}
	}
	switch {
	case args.Simulate:
		cfg.Telemetry.Simulate = true
		cfg.Telemetry.File = ""
	case args.TelemetryFile != "":
		cfg.Telemetry.Simulate = false
		cfg.Telemetry.File = args.TelemetryFile
	}
	if cfg.Telemetry.File == "" && !cfg.Telemetry.Simulate {
		return nil, errors.New("no telemetry source, set telemetry.file or telemetry.simulate")
	}
	return cfg, nil
}

// openTelemetry returns the store frames are read from and a func that releases it. A
// telemetry file takes precedence over simulation.
func openTelemetry(cfg *config.Config, clk clock.Clock, logger logging.Logger) (telemetry.Store, func() error, error) {
	if cfg.Telemetry.File != "" {
		store, err := telemetry.NewFileStore(cfg.Telemetry.File, logger.Sublogger("telemetry"))
		if err != nil {
			return nil, nil, err
		}
		logger.Infow("reading telemetry file", "path", cfg.Telemetry.File)
		return store, store.Close, nil
	}

	store := telemetry.NewMemoryStore()
	robot, err := sim.NewRobot(sim.Options{
		Prefix:    cfg.Telemetry.Prefix,
		Offsets:   cfg.ModuleOffsets(),
		RateHz:    cfg.Telemetry.SimRateHz,
		FlipEvery: cfg.Telemetry.SimFlipEvery,
		Clock:     clk,
	}, store, logger.Sublogger("sim"))
	if err != nil {
		return nil, nil, err
	}
	// publish once so the first frame is not empty
	robot.Step(0)
	robot.Start()
	return store, func() error {
		robot.Stop()
		return nil
	}, nil
}

func runDashboard(
	ctx context.Context,
	cfg *config.Config,
	frames int,
	clk clock.Clock,
	out io.Writer,
	logger logging.Logger,
) (err error) {
	store, closeStore, err := openTelemetry(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeStore())
	}()

	drive, err := dashboard.NewDrive(cfg, store, logger.Sublogger("drive"))
	if err != nil {
		return err
	}
	var stats dashboard.Stats
	defer logSummary(&stats, logger)

	printEvery := uint64(math.Max(1, math.Round(cfg.FrameRateHz)))
	ticker := clk.Ticker(time.Duration(float64(time.Second) / cfg.FrameRateHz))
	defer ticker.Stop()

	utils.ContextMainReadyFunc(ctx)()
	for frames == 0 || drive.Frames() < uint64(frames) {
		if !utils.SelectContextOrWaitChan(ctx, ticker.C) {
			return nil
		}
		frame, err := drive.Update()
		if err != nil {
			return err
		}
		stats.Add(frame)
		logger.Debugw("frame", "index", frame.Index, "chassis", frame.Chassis.String(),
			"residual", frame.Residual)
		if frame.Index%printEvery == 0 {
			if _, err := fmt.Fprintln(out, frame); err != nil {
				return errors.Wrap(err, "cannot print frame")
			}
		}
	}
	return nil
}

func logSummary(stats *dashboard.Stats, logger logging.Logger) {
	summary, err := stats.Summary()
	if err != nil {
		logger.Infow("session ended", "error", err)
		return
	}
	logger.Infow("session summary", "frames", summary.Frames, "summary", summary.String())
}

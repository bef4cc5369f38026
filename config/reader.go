package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"github.com/thunderstorm509/dashboard/logging"
)

// Read reads a config from the given file, expanding ${VAR} references from the environment.
// Fields missing from the file keep their Default values.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %q", filePath)
	}

	cfg, err := FromReader(filePath, bytes.NewReader(buf), logger)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = filePath
	return cfg, nil
}

// FromReader reads and validates a config. originalPath is only used in errors and logs.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Default()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}

	if err := cfg.Validate("dashboard"); err != nil {
		return nil, err
	}
	logger.Debugw("config loaded",
		"path", originalPath,
		"solver", cfg.SolverName(),
		"modules", len(cfg.ModuleOffsets()),
		"simulate", cfg.Telemetry.Simulate,
	)
	return cfg, nil
}

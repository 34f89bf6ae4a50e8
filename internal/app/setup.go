// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/relabs-tech/geonet_beacon/internal/config"
)

// DefaultConfigPath is read by every command unless -config says otherwise.
const DefaultConfigPath = "shb_config.txt"

// NewLogger builds the JSON logger for level ("debug", "info", "warn" or
// "error").
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// Setup loads the global config, builds the logger tagged with role and
// sizes GOMAXPROCS to the container quota.
func Setup(configPath, role string, w io.Writer) (*config.Config, *slog.Logger, error) {
	if err := config.InitGlobal(configPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()

	logger, err := NewLogger(w, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With("role", role)

	if _, err := maxprocs.Set(maxprocs.Logger(func(message string, args ...any) {
		logger.Info(fmt.Sprintf(message, args...))
	})); err != nil {
		logger.Error("could not set GOMAXPROCS", "error", err)
	}
	return cfg, logger, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/geonet_beacon/internal/app"
	"github.com/relabs-tech/geonet_beacon/internal/metrics"
)

func main() {
	configPath := flag.String("config", app.DefaultConfigPath, "path to the KEY=VALUE config file")
	flag.Parse()

	cfg, logger, err := app.Setup(*configPath, "console", os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting SHB console (beacon subscriber)")
	if err := app.RunConsole(ctx, cfg, logger, metrics.NewBeaconMetrics(nil)); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

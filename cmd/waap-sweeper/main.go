package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/waap-dev/waap/internal/config"
	"github.com/waap-dev/waap/internal/logger"
	"github.com/waap-dev/waap/internal/setup"
)

// waap-sweeper runs a single expiration sweep and prints the report as JSON.
// Intended for cron or a Kubernetes CronJob. Exit code is non-zero only when
// the sweep could not start; per-record failures land in the report.
func main() {
	var configFolder string
	var dryRun bool
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.BoolVar(&dryRun, "dry-run", false, "report what would be anonymized without mutating anything")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	ctx := context.Background()
	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Storage.Cleanup()

	report, err := deps.Sweeper.Run(ctx, dryRun)
	if err != nil {
		logger.Log.Error("sweep failed to start", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Log.Error("failed to encode report", "error", err)
		os.Exit(1)
	}

	if len(report.Errors) > 0 {
		logger.Log.Warn("sweep finished with record-level errors", "count", len(report.Errors))
	}
}

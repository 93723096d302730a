// Command populate runs a single cache populate and exits.
// The exit status is non-zero when the dataset could not be read or any
// device failed to update.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/device-locations/internal/constants"
	"github.com/benmeehan/device-locations/internal/service_registry"
	"github.com/benmeehan/device-locations/internal/services"
	"github.com/benmeehan/device-locations/internal/utils"
	"github.com/benmeehan/device-locations/pkg/file"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := utils.LoadEnvFiles(); err != nil {
		logger.Error().Err(err).Msg("Failed to load environment files")
		return 1
	}

	fileClient := file.NewFileService()
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Error().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
		return 1
	}
	logger = utils.NewLogger(config.Logging.Level, config.Logging.JSON).
		With().Str("service", constants.ServiceName).Str("command", "populate").Logger()

	if err := config.RequireSharedCache(); err != nil {
		fmt.Fprintf(os.Stderr, "Error populating cache: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, config.Populator.Timeout)
	defer cancel()

	deps, err := service_registry.BuildDependencies(ctx, config, fileClient, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize dependencies")
		return 1
	}
	defer deps.Close()

	populator := services.NewPopulatorService(
		config.Populator.Schedule,
		false,
		config.Populator.Workers,
		config.Populator.Timeout,
		deps.Source,
		deps.Cache,
		deps.Publisher,
		logger,
	)

	report, err := populator.Populate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error populating cache: %v\n", err)
		return 1
	}

	if failures := report.FailureErr(); failures != nil {
		fmt.Fprintf(os.Stderr, "Cache populated with errors: %d updated, %d failed, %d samples skipped\n%v\n",
			report.Updated, report.Failed, report.Skipped, failures)
		return 1
	}

	fmt.Printf("Cache populated successfully: %d devices updated, %d samples skipped in %s\n",
		report.Updated, report.Skipped, report.Duration)
	return 0
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/rs/zerolog"

	"roomcast/internal/app"
	"roomcast/internal/config"
	"roomcast/internal/logging"
)

func main() {
	os.Exit(run(os.Stdout))
}

// run starts the server and blocks until SIGINT or SIGTERM has been handled.
// It returns the process exit code.
func run(out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "roomcast: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.Log, out)

	application, err := newApplication(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return 1
	}

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.HTTP.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"roomcast": func(ctx context.Context) error {
				return application.Stop(ctx)
			},
		},
	)

	code := <-wait
	logger.Info().Int("exit_code", code).Msg("exited")
	return code
}

func newApplication(cfg *config.Config, logger zerolog.Logger) (*app.Application, error) {
	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	if err := application.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to start application: %w", err)
	}
	return application, nil
}

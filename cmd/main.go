package main

import (
	"context"
	"log/slog"
	"os"

	"roomstay/cmd/bootstrap"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"

	"go.uber.org/fx"
)

// readiness logs once the booking core is wired; the binary then idles until
// it receives a signal. The core is consumed as a library, this entrypoint
// exists to run migrations and smoke the full dependency graph.
func readiness(lc fx.Lifecycle, _ commands.ReservationCommands, _ queries.AvailabilityQueries, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("booking core ready")
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("booking core stopped")
			return nil
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.Module,
		fx.Invoke(
			readiness,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("failed to stop application", "error", err)
	}
}

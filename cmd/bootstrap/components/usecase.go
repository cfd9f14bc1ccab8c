package components

import (
	"roomstay/internal/pkg/clock"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		queries.NewAvailabilityQueries,
		queries.NewReservationQueries,
		commands.NewReservationCommands,
	),
)

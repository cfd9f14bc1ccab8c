package bootstrap

import (
	"roomstay/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	components.RepositoryModule,
	components.UseCaseModule,
)

package bootstrap

import (
	"roomstay/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.DBConfig { return cfg.DB },
		func(cfg config.Config) config.BookingConfig { return cfg.Booking },
	),
)

package components

import (
	"roomstay/internal/infra/db"
	"roomstay/internal/infra/readstore"
	"roomstay/internal/infra/uow"
	"roomstay/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		func(pool *pgxpool.Pool) db.DBTX { return pool },
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(queries.ReservationReadStore)),
		),
		fx.Annotate(
			readstore.NewRoomReadStore,
			fx.As(new(queries.RoomReadStore)),
		),
	),
)

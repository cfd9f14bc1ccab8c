package repository

import (
	"context"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/infra"
	"roomstay/internal/infra/db"

	"github.com/google/uuid"
)

// ReservationRepository is the write side of the reservation store. It always
// runs on the transaction's DBTX; the schema-level unique index and exclusion
// constraint back it up when two transactions race past the availability
// check.
type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(dbtx db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: dbtx}
}

func (r *ReservationRepository) Insert(ctx context.Context, res *reservation.Reservation) (uuid.UUID, error) {
	const stmt = `
INSERT INTO reservations (id, room_id, user_id, start_date, end_date, total_nights)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, stmt,
		res.ID(),
		res.RoomID(),
		res.UserID(),
		res.Stay().Start(),
		res.Stay().End(),
		res.TotalNights(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to insert reservation", err)
	}

	return id, nil
}

func (r *ReservationRepository) UpdateRange(ctx context.Context, res *reservation.Reservation) error {
	const stmt = `
UPDATE reservations
SET start_date = $2, end_date = $3, total_nights = $4, updated_at = now()
WHERE id = $1 AND NOT deleted`

	tag, err := r.db.Exec(ctx, stmt,
		res.ID(),
		res.Stay().Start(),
		res.Stay().End(),
		res.TotalNights(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation range", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found or canceled", nil, infra.KindNotFound)
	}
	return nil
}

// SoftDelete flags the row; it is never physically removed because
// historical occupancy reporting reads canceled stays too.
func (r *ReservationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const stmt = `
UPDATE reservations
SET deleted = TRUE, updated_at = now()
WHERE id = $1 AND NOT deleted`

	tag, err := r.db.Exec(ctx, stmt, id)
	if err != nil {
		return infra.WrapRepoErr("failed to soft delete reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found or already canceled", nil, infra.KindNotFound)
	}
	return nil
}

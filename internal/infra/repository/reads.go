package repository

import (
	"context"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/infra"
	"roomstay/internal/infra/db"
	"roomstay/internal/usecase/shared"

	"github.com/google/uuid"
)

// CommandReads serves the lookups a booking command performs inside its own
// transaction. Keeping them on the transaction's DBTX is what makes the
// availability check and the subsequent write one consistent snapshot.
type CommandReads struct {
	db db.DBTX
}

func NewCommandReads(dbtx db.DBTX) *CommandReads {
	return &CommandReads{db: dbtx}
}

func (r *CommandReads) RoomByID(ctx context.Context, id uuid.UUID) (*shared.RoomSnapshot, error) {
	const query = `
SELECT id, name, category, capacity, price_cents_night, deleted
FROM rooms
WHERE id = $1`

	var snap shared.RoomSnapshot
	err := r.db.QueryRow(ctx, query, id).Scan(
		&snap.ID, &snap.Name, &snap.Category, &snap.Capacity, &snap.PriceCentsNight, &snap.Deleted,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("room not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find room by ID", err)
	}
	return &snap, nil
}

func (r *CommandReads) ReservationByID(ctx context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	const query = `
SELECT id, room_id, user_id, start_date, end_date, total_nights, deleted, created_at, updated_at
FROM reservations
WHERE id = $1`

	snap, err := scanReservationSnapshot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return snap, nil
}

// FindOverlapping returns the active stays for the room sharing at least one
// night with the requested range. Half-open semantics: an abutting stay
// (end = requested start) is not returned.
func (r *CommandReads) FindOverlapping(
	ctx context.Context,
	roomID uuid.UUID,
	stay reservation.DateRange,
	excludeID *uuid.UUID,
) ([]shared.ReservationSnapshot, error) {
	const query = `
SELECT id, room_id, user_id, start_date, end_date, total_nights, deleted, created_at, updated_at
FROM reservations
WHERE room_id = $1
  AND NOT deleted
  AND start_date < $3
  AND end_date > $2
  AND ($4::uuid IS NULL OR id <> $4)
ORDER BY start_date`

	rows, err := r.db.Query(ctx, query, roomID, stay.Start(), stay.End(), excludeID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find overlapping reservations", err)
	}
	defer rows.Close()

	var result []shared.ReservationSnapshot
	for rows.Next() {
		snap, err := scanReservationSnapshot(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan overlapping reservation", err)
		}
		result = append(result, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read overlapping reservations", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservationSnapshot(row rowScanner) (*shared.ReservationSnapshot, error) {
	var snap shared.ReservationSnapshot
	err := row.Scan(
		&snap.ID, &snap.RoomID, &snap.UserID,
		&snap.StartDate, &snap.EndDate, &snap.TotalNights,
		&snap.Deleted, &snap.CreatedAt, &snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

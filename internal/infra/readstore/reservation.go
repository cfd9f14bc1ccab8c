package readstore

import (
	"context"
	"time"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/infra"
	"roomstay/internal/infra/db"
	"roomstay/internal/usecase/queries"

	"github.com/google/uuid"
)

const reservationViewColumns = `
r.id, r.room_id, rm.name, r.user_id,
r.start_date, r.end_date, r.total_nights,
r.total_nights * rm.price_cents_night,
r.deleted, r.created_at, r.updated_at`

type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(dbtx db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: dbtx}
}

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	const query = `
SELECT ` + reservationViewColumns + `
FROM reservations r
JOIN rooms rm ON rm.id = r.room_id
WHERE r.id = $1`

	view, err := scanReservationView(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return view, nil
}

func (r *ReservationReadStore) FindOverlapping(
	ctx context.Context,
	roomID uuid.UUID,
	stay reservation.DateRange,
	excludeID *uuid.UUID,
) ([]*queries.ReservationView, error) {
	const query = `
SELECT ` + reservationViewColumns + `
FROM reservations r
JOIN rooms rm ON rm.id = r.room_id
WHERE r.room_id = $1
  AND NOT r.deleted
  AND r.start_date < $3
  AND r.end_date > $2
  AND ($4::uuid IS NULL OR r.id <> $4)
ORDER BY r.start_date`

	return r.queryViews(ctx, "failed to find overlapping reservations", query,
		roomID, stay.Start(), stay.End(), excludeID)
}

func (r *ReservationReadStore) DistinctRoomIDsBookedDuring(ctx context.Context, stay reservation.DateRange) ([]uuid.UUID, error) {
	const query = `
SELECT DISTINCT room_id
FROM reservations
WHERE NOT deleted
  AND start_date < $2
  AND end_date > $1`

	rows, err := r.db.Query(ctx, query, stay.Start(), stay.End())
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list booked room IDs", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booked room ID", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read booked room IDs", err)
	}
	return ids, nil
}

func (r *ReservationReadStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter queries.StayFilter,
	now time.Time,
) ([]*queries.ReservationView, error) {
	query := `
SELECT ` + reservationViewColumns + `
FROM reservations r
JOIN rooms rm ON rm.id = r.room_id
WHERE r.user_id = $1
  AND NOT r.deleted`

	args := []any{userID}
	switch filter {
	case queries.StayFilterActive:
		query += ` AND r.end_date > $2::date`
		args = append(args, now)
	case queries.StayFilterPast:
		query += ` AND r.end_date <= $2::date`
		args = append(args, now)
	case queries.StayFilterUpcoming:
		query += ` AND r.start_date > $2::date`
		args = append(args, now)
	}
	query += ` ORDER BY r.start_date DESC`

	return r.queryViews(ctx, "failed to list user reservations", query, args...)
}

// ListByRoom includes canceled stays when asked: historical occupancy
// reporting reads through soft-deleted rows.
func (r *ReservationReadStore) ListByRoom(ctx context.Context, roomID uuid.UUID, includeCanceled bool) ([]*queries.ReservationView, error) {
	const query = `
SELECT ` + reservationViewColumns + `
FROM reservations r
JOIN rooms rm ON rm.id = r.room_id
WHERE r.room_id = $1
  AND ($2 OR NOT r.deleted)
ORDER BY r.start_date`

	return r.queryViews(ctx, "failed to list room reservations", query, roomID, includeCanceled)
}

// SumBookedNights counts the active room-nights falling inside the range,
// clipping stays that extend past either bound.
func (r *ReservationReadStore) SumBookedNights(ctx context.Context, stay reservation.DateRange) (int64, error) {
	const query = `
SELECT COALESCE(SUM(LEAST(end_date, $2::date) - GREATEST(start_date, $1::date)), 0)
FROM reservations
WHERE NOT deleted
  AND start_date < $2
  AND end_date > $1`

	var nights int64
	if err := r.db.QueryRow(ctx, query, stay.Start(), stay.End()).Scan(&nights); err != nil {
		return 0, infra.WrapRepoErr("failed to sum booked nights", err)
	}
	return nights, nil
}

func (r *ReservationReadStore) queryViews(ctx context.Context, msg, query string, args ...any) ([]*queries.ReservationView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(msg, err)
	}
	defer rows.Close()

	var views []*queries.ReservationView
	for rows.Next() {
		view, err := scanReservationView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(msg, err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(msg, err)
	}
	return views, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservationView(row rowScanner) (*queries.ReservationView, error) {
	var view queries.ReservationView
	err := row.Scan(
		&view.ID, &view.RoomID, &view.RoomName, &view.UserID,
		&view.StartDate, &view.EndDate, &view.TotalNights,
		&view.TotalPriceCents,
		&view.Canceled, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

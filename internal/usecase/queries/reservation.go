package queries

import (
	"context"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/infra"
	"roomstay/internal/pkg/clock"
	"roomstay/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrReservationNotFound = errs.New("reservation not found")

// ReservationQueries serves the reporting side: individual stays, per-user
// and per-room listings, and occupancy. Listings read through canceled rows
// where the caller asks for them; only availability math filters them out.
type ReservationQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter StayFilter) ([]*ReservationView, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID, includeCanceled bool) ([]*ReservationView, error)
	OccupancyRate(ctx context.Context, stay reservation.DateRange) (float64, error)
}

type reservationQueriesImpl struct {
	reservations ReservationReadStore
	rooms        RoomReadStore
	clock        clock.Clock
}

func NewReservationQueries(reservations ReservationReadStore, rooms RoomReadStore, clk clock.Clock) ReservationQueries {
	return &reservationQueriesImpl{
		reservations: reservations,
		rooms:        rooms,
		clock:        clk,
	}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	view, err := q.reservations.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	return view, nil
}

func (q *reservationQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID, filter StayFilter) ([]*ReservationView, error) {
	if filter == "" {
		filter = StayFilterAll
	}
	if !filter.IsValid() {
		return nil, ErrInvalidFilter
	}

	views, err := q.reservations.ListByUser(ctx, userID, filter, q.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	return views, nil
}

func (q *reservationQueriesImpl) ListByRoom(ctx context.Context, roomID uuid.UUID, includeCanceled bool) ([]*ReservationView, error) {
	exists, err := q.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	if !exists {
		return nil, ErrRoomNotFound
	}

	views, err := q.reservations.ListByRoom(ctx, roomID, includeCanceled)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	return views, nil
}

// OccupancyRate is booked room-nights over available room-nights for the
// period. Canceled stays contribute nothing.
func (q *reservationQueriesImpl) OccupancyRate(ctx context.Context, stay reservation.DateRange) (float64, error) {
	totalRooms, err := q.rooms.CountActive(ctx)
	if err != nil {
		return 0, errs.Mark(err, ErrQueryFailed)
	}
	if totalRooms == 0 {
		return 0, nil
	}

	bookedNights, err := q.reservations.SumBookedNights(ctx, stay)
	if err != nil {
		return 0, errs.Mark(err, ErrQueryFailed)
	}

	capacityNights := totalRooms * int64(stay.Nights())
	return float64(bookedNights) / float64(capacityNights), nil
}

package queries

import (
	"context"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/domain/room"
	"roomstay/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrRoomNotFound  = errs.New("room not found")
	ErrQueryFailed   = errs.New("availability query failed")
	ErrInvalidFilter = errs.New("invalid stay filter")
)

// AvailabilityQueries answers "is this room free" questions. It holds no
// state of its own: every answer is a pure derivation over the store
// snapshot read within the call, and any number of calls may run in
// parallel. Callers cancel long bulk queries through ctx.
type AvailabilityQueries interface {
	CheckAvailability(ctx context.Context, roomID uuid.UUID, stay reservation.DateRange, excludeID *uuid.UUID) (*AvailabilityResult, error)
	ConflictingReservations(ctx context.Context, roomID uuid.UUID, stay reservation.DateRange, excludeID *uuid.UUID) ([]*ReservationView, error)
	FreeRoomIDs(ctx context.Context, stay reservation.DateRange) ([]uuid.UUID, error)
	ListFreeRooms(ctx context.Context, stay reservation.DateRange, category *room.Category) ([]*RoomView, error)
}

type availabilityQueriesImpl struct {
	reservations ReservationReadStore
	rooms        RoomReadStore
}

func NewAvailabilityQueries(reservations ReservationReadStore, rooms RoomReadStore) AvailabilityQueries {
	return &availabilityQueriesImpl{
		reservations: reservations,
		rooms:        rooms,
	}
}

func (q *availabilityQueriesImpl) CheckAvailability(
	ctx context.Context,
	roomID uuid.UUID,
	stay reservation.DateRange,
	excludeID *uuid.UUID,
) (*AvailabilityResult, error) {
	exists, err := q.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	if !exists {
		return nil, ErrRoomNotFound
	}

	conflicts, err := q.reservations.FindOverlapping(ctx, roomID, stay, excludeID)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}

	return &AvailabilityResult{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

func (q *availabilityQueriesImpl) ConflictingReservations(
	ctx context.Context,
	roomID uuid.UUID,
	stay reservation.DateRange,
	excludeID *uuid.UUID,
) ([]*ReservationView, error) {
	conflicts, err := q.reservations.FindOverlapping(ctx, roomID, stay, excludeID)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	return conflicts, nil
}

// FreeRoomIDs is the set difference between all active rooms and the rooms
// with at least one overlapping active reservation.
func (q *availabilityQueriesImpl) FreeRoomIDs(ctx context.Context, stay reservation.DateRange) ([]uuid.UUID, error) {
	rooms, err := q.rooms.ListActive(ctx, nil)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}

	booked, err := q.reservations.DistinctRoomIDsBookedDuring(ctx, stay)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}

	bookedSet := make(map[uuid.UUID]struct{}, len(booked))
	for _, id := range booked {
		bookedSet[id] = struct{}{}
	}

	free := make([]uuid.UUID, 0, len(rooms))
	for _, r := range rooms {
		if _, taken := bookedSet[r.ID]; !taken {
			free = append(free, r.ID)
		}
	}
	return free, nil
}

func (q *availabilityQueriesImpl) ListFreeRooms(
	ctx context.Context,
	stay reservation.DateRange,
	category *room.Category,
) ([]*RoomView, error) {
	rooms, err := q.rooms.ListActive(ctx, category)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}

	booked, err := q.reservations.DistinctRoomIDsBookedDuring(ctx, stay)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}

	bookedSet := make(map[uuid.UUID]struct{}, len(booked))
	for _, id := range booked {
		bookedSet[id] = struct{}{}
	}

	free := make([]*RoomView, 0, len(rooms))
	for _, r := range rooms {
		if _, taken := bookedSet[r.ID]; !taken {
			free = append(free, r)
		}
	}
	return free, nil
}

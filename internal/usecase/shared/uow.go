package shared

import (
	"context"
	"time"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/domain/room"
	"roomstay/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry on transient
	// serialization failures. The booking race itself is never retried here;
	// the caller must re-check availability first.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Reservations() ReservationRepository
	Reads() CommandReads
	// LockRoom serializes check-then-commit per room for the rest of the
	// transaction (advisory lock, released at commit/rollback).
	LockRoom(ctx context.Context, roomID uuid.UUID) error
	DB() db.DBTX
}

// CommandReads are the lookups a command needs inside its own transaction,
// so the availability check and the write observe one store snapshot.
type CommandReads interface {
	RoomByID(ctx context.Context, id uuid.UUID) (*RoomSnapshot, error)
	ReservationByID(ctx context.Context, id uuid.UUID) (*ReservationSnapshot, error)
	FindOverlapping(ctx context.Context, roomID uuid.UUID, stay reservation.DateRange, excludeID *uuid.UUID) ([]ReservationSnapshot, error)
}

type ReservationRepository interface {
	Insert(ctx context.Context, res *reservation.Reservation) (uuid.UUID, error)
	UpdateRange(ctx context.Context, res *reservation.Reservation) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type RoomSnapshot struct {
	ID              uuid.UUID
	Name            string
	Category        room.Category
	Capacity        int
	PriceCentsNight int64
	Deleted         bool
}

type ReservationSnapshot struct {
	ID          uuid.UUID
	RoomID      uuid.UUID
	UserID      uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	TotalNights int
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stay rebuilds the snapshot's date range value object.
func (s ReservationSnapshot) Stay() (reservation.DateRange, error) {
	return reservation.NewDateRange(s.StartDate, s.EndDate)
}

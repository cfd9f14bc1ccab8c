package queries

import (
	"context"
	"time"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/domain/room"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type ReservationView struct {
	ID              uuid.UUID `json:"id"`
	RoomID          uuid.UUID `json:"room_id"`
	RoomName        string    `json:"room_name"`
	UserID          uuid.UUID `json:"user_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalNights     int       `json:"total_nights"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Canceled        bool      `json:"canceled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type RoomView struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Category        room.Category `json:"category"`
	Capacity        int           `json:"capacity"`
	PriceCentsNight int64         `json:"price_cents_night"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type AvailabilityResult struct {
	Available bool               `json:"available"`
	Conflicts []*ReservationView `json:"conflicts,omitempty"`
}

// StayFilter selects user reservations relative to the current date.
type StayFilter string

const (
	StayFilterAll      StayFilter = "all"
	StayFilterActive   StayFilter = "active"   // end date still ahead
	StayFilterPast     StayFilter = "past"     // already checked out
	StayFilterUpcoming StayFilter = "upcoming" // check-in still ahead
)

func (f StayFilter) IsValid() bool {
	switch f {
	case StayFilterAll, StayFilterActive, StayFilterPast, StayFilterUpcoming:
		return true
	default:
		return false
	}
}

// ReservationReadStore is the store-facing port for the read side. The single
// FindOverlapping contract keeps the half-open overlap semantics defined in
// one place for create, update, and listing paths alike.
type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	FindOverlapping(ctx context.Context, roomID uuid.UUID, stay reservation.DateRange, excludeID *uuid.UUID) ([]*ReservationView, error)
	DistinctRoomIDsBookedDuring(ctx context.Context, stay reservation.DateRange) ([]uuid.UUID, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter StayFilter, now time.Time) ([]*ReservationView, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID, includeCanceled bool) ([]*ReservationView, error)
	SumBookedNights(ctx context.Context, stay reservation.DateRange) (int64, error)
}

type RoomReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RoomView, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListActive(ctx context.Context, category *room.Category) ([]*RoomView, error)
	CountActive(ctx context.Context) (int64, error)
}

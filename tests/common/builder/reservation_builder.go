//go:build unit

package builder

import (
	"time"

	domreservation "roomstay/internal/domain/reservation"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"

	"github.com/google/uuid"
)

// Defaults describe a four-night stay booked well in the future so the
// not-in-the-past guard never trips unless a test asks for it.
type ReservationBuilder struct {
	RoomID        uuid.UUID
	UserID        uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	Today         time.Time
	MaxStayNights int
	Deleted       bool
	RoomName      string
	PriceCents    int64
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		RoomID:        uuid.New(),
		UserID:        uuid.New(),
		StartDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Today:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		MaxStayNights: 90,
		RoomName:      "Room 101",
		PriceCents:    12000,
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) WithDates(start, end time.Time) *ReservationBuilder {
	b.StartDate = start
	b.EndDate = end
	return b
}

func (b *ReservationBuilder) WithRoom(roomID uuid.UUID) *ReservationBuilder {
	b.RoomID = roomID
	return b
}

func (b *ReservationBuilder) WithUser(userID uuid.UUID) *ReservationBuilder {
	b.UserID = userID
	return b
}

func (b *ReservationBuilder) BuildStay() (domreservation.DateRange, error) {
	return domreservation.NewDateRange(b.StartDate, b.EndDate)
}

func (b *ReservationBuilder) BuildDomain() (*domreservation.Reservation, error) {
	stay, err := b.BuildStay()
	if err != nil {
		return nil, err
	}
	return domreservation.NewReservation(b.RoomID, b.UserID, stay, b.Today, b.MaxStayNights)
}

func (b *ReservationBuilder) BuildSnapshot() shared.ReservationSnapshot {
	now := b.Today
	return shared.ReservationSnapshot{
		ID:          uuid.New(),
		RoomID:      b.RoomID,
		UserID:      b.UserID,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		TotalNights: int(b.EndDate.Sub(b.StartDate).Hours() / 24),
		Deleted:     b.Deleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (b *ReservationBuilder) BuildView() *queries.ReservationView {
	nights := int(b.EndDate.Sub(b.StartDate).Hours() / 24)
	return &queries.ReservationView{
		ID:              uuid.New(),
		RoomID:          b.RoomID,
		RoomName:        b.RoomName,
		UserID:          b.UserID,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		TotalNights:     nights,
		TotalPriceCents: int64(nights) * b.PriceCents,
		Canceled:        b.Deleted,
		CreatedAt:       b.Today,
		UpdatedAt:       b.Today,
	}
}

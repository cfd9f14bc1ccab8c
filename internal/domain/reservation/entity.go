package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyCanceled = errors.New("reservation is already canceled")
	ErrNotOwner        = errors.New("reservation belongs to another user")
	ErrStayTooLong     = errors.New("stay exceeds the maximum allowed length")
)

// Reservation is a stay booked for one room. Cancellation is logical: the
// deleted flag is set and the row retained, because historical occupancy
// reporting reads through canceled stays.
type Reservation struct {
	id          uuid.UUID
	roomID      uuid.UUID
	userID      uuid.UUID
	stay        DateRange
	totalNights int
	deleted     bool
	createdAt   time.Time
	updatedAt   time.Time
}

func NewReservation(roomID, userID uuid.UUID, stay DateRange, today time.Time, maxStayNights int) (*Reservation, error) {
	if err := stay.ValidateNotPast(today); err != nil {
		return nil, err
	}
	if maxStayNights > 0 && stay.Nights() > maxStayNights {
		return nil, ErrStayTooLong
	}

	return &Reservation{
		id:          uuid.New(),
		roomID:      roomID,
		userID:      userID,
		stay:        stay,
		totalNights: stay.Nights(),
	}, nil
}

func ReconstructReservation(
	id, roomID, userID uuid.UUID,
	stay DateRange,
	deleted bool,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:          id,
		roomID:      roomID,
		userID:      userID,
		stay:        stay,
		totalNights: stay.Nights(),
		deleted:     deleted,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Reschedule moves the stay to a new range. The conflict check against other
// stays happens at the storage boundary; only intrinsic validation runs here.
func (r *Reservation) Reschedule(stay DateRange, today time.Time, maxStayNights int) error {
	if r.deleted {
		return ErrAlreadyCanceled
	}
	if err := stay.ValidateNotPast(today); err != nil {
		return err
	}
	if maxStayNights > 0 && stay.Nights() > maxStayNights {
		return ErrStayTooLong
	}
	r.stay = stay
	r.totalNights = stay.Nights()
	return nil
}

// Cancel marks the stay canceled. Canceling twice is an error, not a crash.
func (r *Reservation) Cancel() error {
	if r.deleted {
		return ErrAlreadyCanceled
	}
	r.deleted = true
	return nil
}

func (r *Reservation) VerifyOwnedBy(userID uuid.UUID) error {
	if r.userID != userID {
		return ErrNotOwner
	}
	return nil
}

func (r *Reservation) ConflictsWith(other *Reservation) bool {
	if r.deleted || other.deleted {
		return false
	}
	return r.roomID == other.roomID && r.id != other.id && r.stay.Overlaps(other.stay)
}

func (r *Reservation) IsActive() bool   { return !r.deleted }
func (r *Reservation) IsCanceled() bool { return r.deleted }

func (r *Reservation) ID() uuid.UUID        { return r.id }
func (r *Reservation) RoomID() uuid.UUID    { return r.roomID }
func (r *Reservation) UserID() uuid.UUID    { return r.userID }
func (r *Reservation) Stay() DateRange      { return r.stay }
func (r *Reservation) TotalNights() int     { return r.totalNights }
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }

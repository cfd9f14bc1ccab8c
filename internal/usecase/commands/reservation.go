package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/infra"
	"roomstay/internal/pkg/clock"
	"roomstay/internal/pkg/config"
	"roomstay/internal/pkg/errs"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidDateRange        = errs.New("invalid date range")
	ErrRoomNotFound            = errs.New("room not found")
	ErrReservationNotFound     = errs.New("reservation not found")
	ErrRoomUnavailable         = errs.New("room unavailable for the requested dates")
	ErrStorageConflict         = errs.New("booking race lost at commit time")
	ErrNotOwner                = errs.New("reservation belongs to another user")
	ErrAlreadyCanceled         = errs.New("reservation is already canceled")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

// RoomUnavailableError reports a conflicting set of stays. AtCommit marks the
// rarer shape: the application-level check passed but the store's constraint
// rejected the write because a concurrent booking won the race. The remedy is
// the same either way, so it satisfies errors.Is for ErrRoomUnavailable too;
// the caller must re-query availability and resubmit.
type RoomUnavailableError struct {
	RoomID    uuid.UUID
	Conflicts []shared.ReservationSnapshot
	AtCommit  bool
}

func (e *RoomUnavailableError) Error() string {
	if e.AtCommit {
		return fmt.Sprintf("room %s: booking race lost at commit time", e.RoomID)
	}
	return fmt.Sprintf("room %s: %d conflicting reservation(s)", e.RoomID, len(e.Conflicts))
}

func (e *RoomUnavailableError) Is(target error) bool {
	if target == ErrRoomUnavailable {
		return true
	}
	return e.AtCommit && target == ErrStorageConflict
}

type CreateReservationParams struct {
	RoomID    uuid.UUID
	UserID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

type UpdateReservationParams struct {
	ReservationID uuid.UUID
	UserID        uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
}

type ReservationCommands interface {
	CreateReservation(ctx context.Context, params CreateReservationParams) (*queries.ReservationView, error)
	UpdateReservation(ctx context.Context, params UpdateReservationParams) (*queries.ReservationView, error)
	CancelReservation(ctx context.Context, reservationID, userID uuid.UUID) error
	// AdminCancelReservation skips the ownership check; it still goes through
	// the same soft-delete path, never a physical delete.
	AdminCancelReservation(ctx context.Context, reservationID uuid.UUID) error
}

type reservationCommandsImpl struct {
	uow                shared.UnitOfWork
	reservationQueries queries.ReservationQueries
	clock              clock.Clock
	maxStayNights      int
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	reservationQueries queries.ReservationQueries,
	clk clock.Clock,
	cfg config.BookingConfig,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:                uow,
		reservationQueries: reservationQueries,
		clock:              clk,
		maxStayNights:      cfg.MaxStayNights,
	}
}

// CreateReservation is one booking attempt: validate, confirm the room,
// check availability, then commit. All but validation runs inside one
// transaction holding the per-room lock, so the check and the commit observe
// the same store state. There is no partial outcome: the attempt either
// commits or reports why it was rejected.
func (c *reservationCommandsImpl) CreateReservation(
	ctx context.Context,
	params CreateReservationParams,
) (*queries.ReservationView, error) {
	stay, err := reservation.NewDateRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidDateRange)
	}

	entity, err := reservation.NewReservation(params.RoomID, params.UserID, stay, clock.Today(c.clock), c.maxStayNights)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidDateRange)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.LockRoom(ctx, params.RoomID); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := c.verifyRoom(ctx, tx, params.RoomID); err != nil {
			return err
		}

		conflicts, err := tx.Reads().FindOverlapping(ctx, params.RoomID, stay, nil)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if len(conflicts) > 0 {
			return &RoomUnavailableError{RoomID: params.RoomID, Conflicts: conflicts}
		}

		if _, err := tx.Reservations().Insert(ctx, entity); err != nil {
			return c.classifyWriteError(err, params.RoomID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.readBack(ctx, entity.ID())
}

func (c *reservationCommandsImpl) UpdateReservation(
	ctx context.Context,
	params UpdateReservationParams,
) (*queries.ReservationView, error) {
	stay, err := reservation.NewDateRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidDateRange)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := c.loadOwned(ctx, tx, params.ReservationID, params.UserID)
		if err != nil {
			return err
		}

		if err := entity.Reschedule(stay, clock.Today(c.clock), c.maxStayNights); err != nil {
			return c.classifyDomainError(err)
		}

		if err := tx.LockRoom(ctx, entity.RoomID()); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		// The reservation being edited must not conflict with itself.
		excludeID := entity.ID()
		conflicts, err := tx.Reads().FindOverlapping(ctx, entity.RoomID(), stay, &excludeID)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if len(conflicts) > 0 {
			return &RoomUnavailableError{RoomID: entity.RoomID(), Conflicts: conflicts}
		}

		if err := tx.Reservations().UpdateRange(ctx, entity); err != nil {
			return c.classifyWriteError(err, entity.RoomID())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.readBack(ctx, params.ReservationID)
}

// CancelReservation frees an interval, which cannot create a conflict, so no
// availability check runs: ownership and liveness are the only guards.
func (c *reservationCommandsImpl) CancelReservation(ctx context.Context, reservationID, userID uuid.UUID) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := c.loadOwned(ctx, tx, reservationID, userID)
		if err != nil {
			return err
		}
		return c.softDelete(ctx, tx, entity)
	})
}

func (c *reservationCommandsImpl) AdminCancelReservation(ctx context.Context, reservationID uuid.UUID) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := c.load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		return c.softDelete(ctx, tx, entity)
	})
}

func (c *reservationCommandsImpl) softDelete(ctx context.Context, tx shared.Tx, entity *reservation.Reservation) error {
	if err := entity.Cancel(); err != nil {
		return c.classifyDomainError(err)
	}
	if err := tx.Reservations().SoftDelete(ctx, entity.ID()); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

func (c *reservationCommandsImpl) verifyRoom(ctx context.Context, tx shared.Tx, roomID uuid.UUID) error {
	snap, err := tx.Reads().RoomByID(ctx, roomID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrRoomNotFound
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if snap.Deleted {
		return ErrRoomNotFound
	}
	return nil
}

func (c *reservationCommandsImpl) load(ctx context.Context, tx shared.Tx, reservationID uuid.UUID) (*reservation.Reservation, error) {
	snap, err := tx.Reads().ReservationByID(ctx, reservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	stay, err := snap.Stay()
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return reservation.ReconstructReservation(
		snap.ID, snap.RoomID, snap.UserID,
		stay, snap.Deleted, snap.CreatedAt, snap.UpdatedAt,
	), nil
}

func (c *reservationCommandsImpl) loadOwned(ctx context.Context, tx shared.Tx, reservationID, userID uuid.UUID) (*reservation.Reservation, error) {
	entity, err := c.load(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := entity.VerifyOwnedBy(userID); err != nil {
		return nil, ErrNotOwner
	}
	return entity, nil
}

// classifyWriteError turns a storage rejection into the caller-facing
// taxonomy. A unique-index or exclusion-constraint violation here means a
// concurrent booking won the race after our check passed; it is reported,
// never retried, because the set of free slots has changed.
func (c *reservationCommandsImpl) classifyWriteError(err error, roomID uuid.UUID) error {
	if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindDuplicateKey) {
		return &RoomUnavailableError{RoomID: roomID, AtCommit: true}
	}
	if infra.IsKind(err, infra.KindForeignKeyViolated) {
		return ErrRoomNotFound
	}
	return errs.Mark(err, ErrDatabaseOperationFailed)
}

func (c *reservationCommandsImpl) classifyDomainError(err error) error {
	switch {
	case errors.Is(err, reservation.ErrAlreadyCanceled):
		return ErrAlreadyCanceled
	case errors.Is(err, reservation.ErrInvalidDateRange),
		errors.Is(err, reservation.ErrStartDateInPast),
		errors.Is(err, reservation.ErrStayTooLong):
		return errs.Mark(err, ErrInvalidDateRange)
	default:
		return err
	}
}

// Read-after-write: return the committed view from the read store.
func (c *reservationCommandsImpl) readBack(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	view, err := c.reservationQueries.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

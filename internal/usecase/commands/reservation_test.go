//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roomstay/internal/domain/reservation"
	"roomstay/internal/infra"
	"roomstay/internal/infra/db"
	"roomstay/internal/pkg/clock"
	"roomstay/internal/pkg/config"
	"roomstay/internal/usecase/commands"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"
	"roomstay/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore backs a hand-written UnitOfWork so the full booking workflow can
// run in memory. It mirrors the store's two defenses: LockRoom serializes
// whole attempts per room, and Insert/UpdateRange enforce the no-overlap
// constraint atomically even when the per-room lock is switched off.
type fakeStore struct {
	mu           sync.Mutex
	rooms        map[uuid.UUID]shared.RoomSnapshot
	reservations map[uuid.UUID]shared.ReservationSnapshot
	roomLocks    map[uuid.UUID]*sync.Mutex

	noRoomLocks bool // simulate a workflow that skips the advisory lock
	blindReads  bool // FindOverlapping reports the room free regardless
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:        make(map[uuid.UUID]shared.RoomSnapshot),
		reservations: make(map[uuid.UUID]shared.ReservationSnapshot),
		roomLocks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *fakeStore) addRoom(snap shared.RoomSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[snap.ID] = snap
}

func (s *fakeStore) addReservation(snap shared.ReservationSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[snap.ID] = snap
}

func (s *fakeStore) activeCount(roomID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.RoomID == roomID && !r.Deleted {
			n++
		}
	}
	return n
}

func (s *fakeStore) roomLock(roomID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.roomLocks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.roomLocks[roomID] = l
	}
	return l
}

func overlapsSnapshot(snap shared.ReservationSnapshot, start, end time.Time) bool {
	return snap.StartDate.Before(end) && start.Before(snap.EndDate)
}

// findConflicts must be called with s.mu held.
func (s *fakeStore) findConflicts(roomID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) []shared.ReservationSnapshot {
	var out []shared.ReservationSnapshot
	for _, r := range s.reservations {
		if r.RoomID != roomID || r.Deleted {
			continue
		}
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if overlapsSnapshot(r, start, end) {
			out = append(out, r)
		}
	}
	return out
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	tx := &fakeTx{store: u.store}
	defer tx.releaseLocks()
	return fn(ctx, tx)
}

type fakeTx struct {
	store  *fakeStore
	locked []*sync.Mutex
}

func (t *fakeTx) Reservations() shared.ReservationRepository { return &fakeRepo{store: t.store} }
func (t *fakeTx) Reads() shared.CommandReads                 { return &fakeReads{store: t.store} }
func (t *fakeTx) DB() db.DBTX                                { return nil }

func (t *fakeTx) LockRoom(_ context.Context, roomID uuid.UUID) error {
	if t.store.noRoomLocks {
		return nil
	}
	l := t.store.roomLock(roomID)
	l.Lock()
	t.locked = append(t.locked, l)
	return nil
}

func (t *fakeTx) releaseLocks() {
	for _, l := range t.locked {
		l.Unlock()
	}
	t.locked = nil
}

type fakeReads struct {
	store *fakeStore
}

func (r *fakeReads) RoomByID(_ context.Context, id uuid.UUID) (*shared.RoomSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snap, ok := r.store.rooms[id]
	if !ok {
		return nil, infra.WrapRepoErr("room not found", nil, infra.KindNotFound)
	}
	return &snap, nil
}

func (r *fakeReads) ReservationByID(_ context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snap, ok := r.store.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return &snap, nil
}

func (r *fakeReads) FindOverlapping(_ context.Context, roomID uuid.UUID, stay reservation.DateRange, excludeID *uuid.UUID) ([]shared.ReservationSnapshot, error) {
	if r.store.blindReads {
		return nil, nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.findConflicts(roomID, stay.Start(), stay.End(), excludeID), nil
}

type fakeRepo struct {
	store *fakeStore
}

func (r *fakeRepo) Insert(_ context.Context, res *reservation.Reservation) (uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.rooms[res.RoomID()]; !ok {
		return uuid.Nil, infra.WrapRepoErr("insert reservation", errors.New("room missing"), infra.KindForeignKeyViolated)
	}
	if len(r.store.findConflicts(res.RoomID(), res.Stay().Start(), res.Stay().End(), nil)) > 0 {
		return uuid.Nil, infra.WrapRepoErr("insert reservation", errors.New("overlapping stay"), infra.KindConflict)
	}

	r.store.reservations[res.ID()] = shared.ReservationSnapshot{
		ID:          res.ID(),
		RoomID:      res.RoomID(),
		UserID:      res.UserID(),
		StartDate:   res.Stay().Start(),
		EndDate:     res.Stay().End(),
		TotalNights: res.TotalNights(),
	}
	return res.ID(), nil
}

func (r *fakeRepo) UpdateRange(_ context.Context, res *reservation.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap, ok := r.store.reservations[res.ID()]
	if !ok || snap.Deleted {
		return infra.WrapRepoErr("update reservation", nil, infra.KindNotFound)
	}
	excludeID := res.ID()
	if len(r.store.findConflicts(res.RoomID(), res.Stay().Start(), res.Stay().End(), &excludeID)) > 0 {
		return infra.WrapRepoErr("update reservation", errors.New("overlapping stay"), infra.KindConflict)
	}

	snap.StartDate = res.Stay().Start()
	snap.EndDate = res.Stay().End()
	snap.TotalNights = res.TotalNights()
	r.store.reservations[res.ID()] = snap
	return nil
}

func (r *fakeRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap, ok := r.store.reservations[id]
	if !ok {
		return infra.WrapRepoErr("soft delete reservation", nil, infra.KindNotFound)
	}
	snap.Deleted = true
	r.store.reservations[id] = snap
	return nil
}

// fakeReservationQueries serves the read-after-write lookup from the same
// in-memory store.
type fakeReservationQueries struct {
	store *fakeStore
}

func (q *fakeReservationQueries) GetByID(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	snap, ok := q.store.reservations[id]
	if !ok {
		return nil, queries.ErrReservationNotFound
	}
	roomSnap := q.store.rooms[snap.RoomID]
	return &queries.ReservationView{
		ID:              snap.ID,
		RoomID:          snap.RoomID,
		RoomName:        roomSnap.Name,
		UserID:          snap.UserID,
		StartDate:       snap.StartDate,
		EndDate:         snap.EndDate,
		TotalNights:     snap.TotalNights,
		TotalPriceCents: int64(snap.TotalNights) * roomSnap.PriceCentsNight,
		Canceled:        snap.Deleted,
	}, nil
}

func (q *fakeReservationQueries) ListByUser(context.Context, uuid.UUID, queries.StayFilter) ([]*queries.ReservationView, error) {
	return nil, nil
}

func (q *fakeReservationQueries) ListByRoom(context.Context, uuid.UUID, bool) ([]*queries.ReservationView, error) {
	return nil, nil
}

func (q *fakeReservationQueries) OccupancyRate(context.Context, reservation.DateRange) (float64, error) {
	return 0, nil
}

func newCommands(store *fakeStore) commands.ReservationCommands {
	return commands.NewReservationCommands(
		&fakeUow{store: store},
		&fakeReservationQueries{store: store},
		clock.NewMockClock(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)),
		config.BookingConfig{MaxStayNights: 90},
	)
}

func seedRoom(store *fakeStore) uuid.UUID {
	roomSnap := builder.NewRoomBuilder().BuildSnapshot()
	store.addRoom(roomSnap)
	return roomSnap.ID
}

func createParams(roomID uuid.UUID, startDay, endDay int) commands.CreateReservationParams {
	return commands.CreateReservationParams{
		RoomID:    roomID,
		UserID:    uuid.New(),
		StartDate: time.Date(2024, 3, startDay, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, endDay, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("books a free room", func(t *testing.T) {
		store := newFakeStore()
		roomID := seedRoom(store)
		cmd := newCommands(store)

		view, err := cmd.CreateReservation(ctx, createParams(roomID, 1, 5))
		require.NoError(t, err)
		assert.Equal(t, roomID, view.RoomID)
		assert.Equal(t, 4, view.TotalNights)
		assert.Equal(t, int64(48000), view.TotalPriceCents)
		assert.False(t, view.Canceled)
	})

	t.Run("invalid date range", func(t *testing.T) {
		store := newFakeStore()
		roomID := seedRoom(store)
		cmd := newCommands(store)

		_, err := cmd.CreateReservation(ctx, createParams(roomID, 5, 1))
		assert.ErrorIs(t, err, commands.ErrInvalidDateRange)
	})

	t.Run("stay starting in the past", func(t *testing.T) {
		store := newFakeStore()
		roomID := seedRoom(store)
		cmd := newCommands(store)

		params := createParams(roomID, 1, 5)
		params.StartDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		params.EndDate = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		_, err := cmd.CreateReservation(ctx, params)
		assert.ErrorIs(t, err, commands.ErrInvalidDateRange)
	})

	t.Run("unknown room", func(t *testing.T) {
		store := newFakeStore()
		cmd := newCommands(store)

		_, err := cmd.CreateReservation(ctx, createParams(uuid.New(), 1, 5))
		assert.ErrorIs(t, err, commands.ErrRoomNotFound)
	})

	t.Run("deleted room", func(t *testing.T) {
		store := newFakeStore()
		roomSnap := builder.NewRoomBuilder().BuildSnapshot()
		roomSnap.Deleted = true
		store.addRoom(roomSnap)
		cmd := newCommands(store)

		_, err := cmd.CreateReservation(ctx, createParams(roomSnap.ID, 1, 5))
		assert.ErrorIs(t, err, commands.ErrRoomNotFound)
	})

	t.Run("overlapping stay is rejected with the conflict set", func(t *testing.T) {
		store := newFakeStore()
		roomID := seedRoom(store)
		cmd := newCommands(store)

		_, err := cmd.CreateReservation(ctx, createParams(roomID, 1, 5))
		require.NoError(t, err)

		_, err = cmd.CreateReservation(ctx, createParams(roomID, 4, 6))
		require.ErrorIs(t, err, commands.ErrRoomUnavailable)
		assert.NotErrorIs(t, err, commands.ErrStorageConflict)

		var unavailable *commands.RoomUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, roomID, unavailable.RoomID)
		assert.Len(t, unavailable.Conflicts, 1)
		assert.False(t, unavailable.AtCommit)
	})

	t.Run("abutting stay is accepted", func(t *testing.T) {
		store := newFakeStore()
		roomID := seedRoom(store)
		cmd := newCommands(store)

		_, err := cmd.CreateReservation(ctx, createParams(roomID, 1, 5))
		require.NoError(t, err)

		_, err = cmd.CreateReservation(ctx, createParams(roomID, 5, 9))
		require.NoError(t, err)
		assert.Equal(t, 2, store.activeCount(roomID))
	})

	t.Run("same dates on another room are accepted", func(t *testing.T) {
		store := newFakeStore()
		roomA := seedRoom(store)
		roomB := seedRoom(store)
		cmd := newCommands(store)

		_, err := cmd.CreateReservation(ctx, createParams(roomA, 1, 5))
		require.NoError(t, err)
		_, err = cmd.CreateReservation(ctx, createParams(roomB, 1, 5))
		require.NoError(t, err)
	})

	t.Run("constraint rejection at commit time surfaces as a storage conflict", func(t *testing.T) {
		store := newFakeStore()
		store.blindReads = true
		store.noRoomLocks = true
		roomID := seedRoom(store)
		cmd := newCommands(store)

		first, err := reservation.NewDateRange(
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		)
		require.NoError(t, err)
		existing := builder.NewReservationBuilder().
			WithRoom(roomID).
			WithDates(first.Start(), first.End()).
			BuildSnapshot()
		store.addReservation(existing)

		_, err = cmd.CreateReservation(ctx, createParams(roomID, 4, 6))
		require.ErrorIs(t, err, commands.ErrStorageConflict)
		assert.ErrorIs(t, err, commands.ErrRoomUnavailable)

		var unavailable *commands.RoomUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.True(t, unavailable.AtCommit)
	})
}

func TestUpdateReservation(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*fakeStore, commands.ReservationCommands, uuid.UUID, *queries.ReservationView) {
		t.Helper()
		store := newFakeStore()
		roomID := seedRoom(store)
		cmd := newCommands(store)
		view, err := cmd.CreateReservation(ctx, createParams(roomID, 1, 5))
		require.NoError(t, err)
		return store, cmd, roomID, view
	}

	t.Run("moves the stay", func(t *testing.T) {
		_, cmd, _, view := seed(t)

		updated, err := cmd.UpdateReservation(ctx, commands.UpdateReservationParams{
			ReservationID: view.ID,
			UserID:        view.UserID,
			StartDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.TotalNights)
	})

	t.Run("shifting within the current stay does not conflict with itself", func(t *testing.T) {
		_, cmd, _, view := seed(t)

		_, err := cmd.UpdateReservation(ctx, commands.UpdateReservationParams{
			ReservationID: view.ID,
			UserID:        view.UserID,
			StartDate:     time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		})
		assert.NoError(t, err)
	})

	t.Run("conflicting target dates are rejected", func(t *testing.T) {
		_, cmd, roomID, view := seed(t)

		_, err := cmd.CreateReservation(ctx, createParams(roomID, 10, 12))
		require.NoError(t, err)

		_, err = cmd.UpdateReservation(ctx, commands.UpdateReservationParams{
			ReservationID: view.ID,
			UserID:        view.UserID,
			StartDate:     time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, commands.ErrRoomUnavailable)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		_, cmd, _, view := seed(t)

		_, err := cmd.UpdateReservation(ctx, commands.UpdateReservationParams{
			ReservationID: uuid.New(),
			UserID:        view.UserID,
			StartDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, commands.ErrReservationNotFound)
	})

	t.Run("another user's reservation", func(t *testing.T) {
		_, cmd, _, view := seed(t)

		_, err := cmd.UpdateReservation(ctx, commands.UpdateReservationParams{
			ReservationID: view.ID,
			UserID:        uuid.New(),
			StartDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, commands.ErrNotOwner)
	})

	t.Run("canceled reservation cannot be moved", func(t *testing.T) {
		_, cmd, _, view := seed(t)
		require.NoError(t, cmd.CancelReservation(ctx, view.ID, view.UserID))

		_, err := cmd.UpdateReservation(ctx, commands.UpdateReservationParams{
			ReservationID: view.ID,
			UserID:        view.UserID,
			StartDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, commands.ErrAlreadyCanceled)
	})
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*fakeStore, commands.ReservationCommands, uuid.UUID, *queries.ReservationView) {
		t.Helper()
		store := newFakeStore()
		roomID := seedRoom(store)
		cmd := newCommands(store)
		view, err := cmd.CreateReservation(ctx, createParams(roomID, 1, 5))
		require.NoError(t, err)
		return store, cmd, roomID, view
	}

	t.Run("frees the interval for a new booking", func(t *testing.T) {
		store, cmd, roomID, view := seed(t)

		require.NoError(t, cmd.CancelReservation(ctx, view.ID, view.UserID))
		assert.Equal(t, 0, store.activeCount(roomID))

		// The canceled row stays behind; the dates are bookable again.
		_, err := cmd.CreateReservation(ctx, createParams(roomID, 1, 5))
		assert.NoError(t, err)
	})

	t.Run("cancel is not idempotent", func(t *testing.T) {
		_, cmd, _, view := seed(t)

		require.NoError(t, cmd.CancelReservation(ctx, view.ID, view.UserID))
		err := cmd.CancelReservation(ctx, view.ID, view.UserID)
		assert.ErrorIs(t, err, commands.ErrAlreadyCanceled)
	})

	t.Run("another user's reservation", func(t *testing.T) {
		_, cmd, _, view := seed(t)
		err := cmd.CancelReservation(ctx, view.ID, uuid.New())
		assert.ErrorIs(t, err, commands.ErrNotOwner)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		_, cmd, _, _ := seed(t)
		err := cmd.CancelReservation(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, commands.ErrReservationNotFound)
	})

	t.Run("admin cancel skips the ownership check", func(t *testing.T) {
		store, cmd, roomID, view := seed(t)
		require.NoError(t, cmd.AdminCancelReservation(ctx, view.ID))
		assert.Equal(t, 0, store.activeCount(roomID))
	})
}

// Many goroutines race for the same room and dates; exactly one booking may
// commit no matter which defense catches the rest.
func TestCreateReservation_ConcurrentAttempts(t *testing.T) {
	ctx := context.Background()

	run := func(t *testing.T, store *fakeStore) {
		t.Helper()
		roomID := seedRoom(store)
		cmd := newCommands(store)

		const attempts = 16
		errsCh := make(chan error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := cmd.CreateReservation(ctx, createParams(roomID, 1, 5))
				errsCh <- err
			}()
		}
		wg.Wait()
		close(errsCh)

		wins, losses := 0, 0
		for err := range errsCh {
			if err == nil {
				wins++
				continue
			}
			losses++
			assert.ErrorIs(t, err, commands.ErrRoomUnavailable)
		}
		assert.Equal(t, 1, wins, "exactly one attempt must win")
		assert.Equal(t, attempts-1, losses)
		assert.Equal(t, 1, store.activeCount(roomID))
	}

	t.Run("serialized by the per-room lock", func(t *testing.T) {
		run(t, newFakeStore())
	})

	t.Run("caught by the store constraint without the lock", func(t *testing.T) {
		store := newFakeStore()
		store.noRoomLocks = true
		run(t, store)
	})
}

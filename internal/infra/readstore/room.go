package readstore

import (
	"context"

	"roomstay/internal/domain/room"
	"roomstay/internal/infra"
	"roomstay/internal/infra/db"
	"roomstay/internal/usecase/queries"

	"github.com/google/uuid"
)

// RoomReadStore answers the room collaborator contract: existence, category
// filtering, metadata. Room mutation belongs to an external system.
type RoomReadStore struct {
	db db.DBTX
}

func NewRoomReadStore(dbtx db.DBTX) *RoomReadStore {
	return &RoomReadStore{db: dbtx}
}

func (r *RoomReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.RoomView, error) {
	const query = `
SELECT id, name, category, capacity, price_cents_night, created_at, updated_at
FROM rooms
WHERE id = $1 AND NOT deleted`

	var view queries.RoomView
	err := r.db.QueryRow(ctx, query, id).Scan(
		&view.ID, &view.Name, &view.Category, &view.Capacity,
		&view.PriceCentsNight, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("room not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find room by ID", err)
	}
	return &view, nil
}

func (r *RoomReadStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1 AND NOT deleted)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr("failed to check room existence", err)
	}
	return exists, nil
}

func (r *RoomReadStore) ListActive(ctx context.Context, category *room.Category) ([]*queries.RoomView, error) {
	query := `
SELECT id, name, category, capacity, price_cents_night, created_at, updated_at
FROM rooms
WHERE NOT deleted`

	args := []any{}
	if category != nil {
		query += ` AND category = $1`
		args = append(args, *category)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list rooms", err)
	}
	defer rows.Close()

	var views []*queries.RoomView
	for rows.Next() {
		var view queries.RoomView
		err := rows.Scan(
			&view.ID, &view.Name, &view.Category, &view.Capacity,
			&view.PriceCentsNight, &view.CreatedAt, &view.UpdatedAt,
		)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan room", err)
		}
		views = append(views, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read rooms", err)
	}
	return views, nil
}

func (r *RoomReadStore) CountActive(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM rooms WHERE NOT deleted`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count rooms", err)
	}
	return count, nil
}

//go:build unit

package builder

import (
	"time"

	domroom "roomstay/internal/domain/room"
	"roomstay/internal/usecase/queries"
	"roomstay/internal/usecase/shared"

	"github.com/google/uuid"
)

type RoomBuilder struct {
	ID              uuid.UUID
	Name            string
	Category        domroom.Category
	Capacity        int
	PriceCentsNight int64
	Deleted         bool
}

func NewRoomBuilder() *RoomBuilder {
	return &RoomBuilder{
		ID:              uuid.New(),
		Name:            "Room 101",
		Category:        domroom.CategoryStandard,
		Capacity:        2,
		PriceCentsNight: 12000,
	}
}

func (b *RoomBuilder) With(mutate func(*RoomBuilder)) *RoomBuilder {
	mutate(b)
	return b
}

func (b *RoomBuilder) BuildDomain() (*domroom.Room, error) {
	return domroom.NewRoom(b.ID, b.Name, b.Category, b.Capacity, b.PriceCentsNight)
}

func (b *RoomBuilder) BuildSnapshot() shared.RoomSnapshot {
	return shared.RoomSnapshot{
		ID:              b.ID,
		Name:            b.Name,
		Category:        b.Category,
		Capacity:        b.Capacity,
		PriceCentsNight: b.PriceCentsNight,
		Deleted:         b.Deleted,
	}
}

func (b *RoomBuilder) BuildView() *queries.RoomView {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &queries.RoomView{
		ID:              b.ID,
		Name:            b.Name,
		Category:        b.Category,
		Capacity:        b.Capacity,
		PriceCentsNight: b.PriceCentsNight,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

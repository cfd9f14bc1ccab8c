package room

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyRoomName   = errors.New("room name cannot be empty")
	ErrRoomNameTooLong = errors.New("room name is too long (max 255 characters)")
	ErrInvalidCategory = errors.New("invalid room category")
	ErrNegativePrice   = errors.New("nightly price cannot be negative")
	ErrInvalidCapacity = errors.New("room capacity must be positive")
)

const MaxRoomNameLength = 255

// Room is owned by an external collaborator; the booking core only needs an
// existence check, the category filter, and the nightly price for the
// nights x price total.
type Room struct {
	id              uuid.UUID
	name            string
	category        Category
	capacity        int
	priceCentsNight int64
	deleted         bool
	createdAt       time.Time
	updatedAt       time.Time
}

func NewRoom(id uuid.UUID, name string, category Category, capacity int, priceCentsNight int64) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyRoomName
	}
	if len(name) > MaxRoomNameLength {
		return nil, ErrRoomNameTooLong
	}
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if priceCentsNight < 0 {
		return nil, ErrNegativePrice
	}

	return &Room{
		id:              id,
		name:            name,
		category:        category,
		capacity:        capacity,
		priceCentsNight: priceCentsNight,
	}, nil
}

// TotalPriceCents is the only pricing rule this core carries: nights times
// the nightly rate.
func (r *Room) TotalPriceCents(nights int) int64 {
	return int64(nights) * r.priceCentsNight
}

func (r *Room) ID() uuid.UUID          { return r.id }
func (r *Room) Name() string           { return r.name }
func (r *Room) Category() Category     { return r.category }
func (r *Room) Capacity() int          { return r.capacity }
func (r *Room) PriceCentsNight() int64 { return r.priceCentsNight }
func (r *Room) IsDeleted() bool        { return r.deleted }
func (r *Room) CreatedAt() time.Time   { return r.createdAt }
func (r *Room) UpdatedAt() time.Time   { return r.updatedAt }

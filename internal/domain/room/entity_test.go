//go:build unit

package room_test

import (
	"strings"
	"testing"

	"roomstay/internal/domain/room"
	"roomstay/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoom(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewRoomBuilder().BuildDomain()
		require.NoError(t, err)
		assert.Equal(t, "Room 101", actual.Name())
		assert.Equal(t, room.CategoryStandard, actual.Category())
		assert.False(t, actual.IsDeleted())
	})

	testCases := []struct {
		name   string
		mutate func(*builder.RoomBuilder)
		errIs  error
	}{
		{
			name:   "empty name",
			mutate: func(b *builder.RoomBuilder) { b.Name = "   " },
			errIs:  room.ErrEmptyRoomName,
		},
		{
			name:   "name too long",
			mutate: func(b *builder.RoomBuilder) { b.Name = strings.Repeat("a", room.MaxRoomNameLength+1) },
			errIs:  room.ErrRoomNameTooLong,
		},
		{
			name:   "unknown category",
			mutate: func(b *builder.RoomBuilder) { b.Category = "penthouse" },
			errIs:  room.ErrInvalidCategory,
		},
		{
			name:   "zero capacity",
			mutate: func(b *builder.RoomBuilder) { b.Capacity = 0 },
			errIs:  room.ErrInvalidCapacity,
		},
		{
			name:   "negative price",
			mutate: func(b *builder.RoomBuilder) { b.PriceCentsNight = -1 },
			errIs:  room.ErrNegativePrice,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.NewRoomBuilder().With(tc.mutate).BuildDomain()
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestRoom_TotalPriceCents(t *testing.T) {
	r, err := builder.NewRoomBuilder().With(func(b *builder.RoomBuilder) {
		b.PriceCentsNight = 12000
	}).BuildDomain()
	require.NoError(t, err)

	assert.Equal(t, int64(48000), r.TotalPriceCents(4))
	assert.Equal(t, int64(0), r.TotalPriceCents(0))
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range []room.Category{room.CategoryStandard, room.CategoryDeluxe, room.CategorySuite, room.CategoryFamily} {
		assert.True(t, c.IsValid(), c)
	}
	assert.False(t, room.Category("").IsValid())
	assert.False(t, room.Category("penthouse").IsValid())
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatGrid(t *testing.T) {
	grid := SeatGrid(8)
	assert.Equal(t, []string{"A1", "A2", "B1", "B2", "C1", "C2", "D1", "D2"}, grid)
}

func TestSeatGridHundredSeats(t *testing.T) {
	grid := SeatGrid(100)
	assert.Len(t, grid, 100)
	assert.Equal(t, "A1", grid[0])
	assert.Equal(t, "A25", grid[24])
	assert.Equal(t, "D25", grid[99])
}

func TestSeatGridTooSmall(t *testing.T) {
	assert.Nil(t, SeatGrid(3))
	assert.Nil(t, SeatGrid(0))
}

func TestSeatGridDropsRemainder(t *testing.T) {
	// 10 seats over 4 rows gives 2 per row; the remainder is not laid out.
	assert.Len(t, SeatGrid(10), 8)
}

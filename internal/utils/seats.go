package utils

import "strconv"

// seatRows are the cabin rows used when materializing a flight's seat grid.
var seatRows = []string{"A", "B", "C", "D"}

// SeatGrid generates the seat labels for a flight with the given capacity:
// the seats are spread evenly over rows A-D, numbered from 1 within each row
// ("A1".."A25", "B1"..). When totalSeats is not divisible by the row count
// the remainder is dropped to keep rows uniform, matching how capacity is
// partitioned at flight creation.
func SeatGrid(totalSeats int) []string {
	if totalSeats < len(seatRows) {
		return nil
	}
	perRow := totalSeats / len(seatRows)
	labels := make([]string, 0, perRow*len(seatRows))
	for _, row := range seatRows {
		for n := 1; n <= perRow; n++ {
			labels = append(labels, row+strconv.Itoa(n))
		}
	}
	return labels
}

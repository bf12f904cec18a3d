// Package seatmap describes the seat layout of a screen. Seats are laid out
// twelve to a row, rows are lettered from A, and the last row holds whatever
// remains of the capacity.
package seatmap

import (
	"fmt"
	"strconv"
	"strings"

	"cinebook/pkg/utils"
)

const (
	SeatsPerRow     = 12
	DefaultCapacity = 84
	MaxCapacity     = 26 * SeatsPerRow
)

// Screen is the layout-relevant part of a theatre screen.
type Screen struct {
	ScreenNumber int
	Capacity     int
}

// CapacityFor returns the capacity of screenNumber or nil when it is not listed.
func CapacityFor(screens []Screen, screenNumber int) *int {
	for _, s := range screens {
		if s.ScreenNumber == screenNumber {
			c := s.Capacity
			return &c
		}
	}
	return nil
}

// EffectiveCapacity applies DefaultCapacity to an undefined capacity.
func EffectiveCapacity(capacity *int) int {
	if capacity == nil || *capacity <= 0 {
		return DefaultCapacity
	}
	return *capacity
}

// RowCount is ceil(capacity / SeatsPerRow).
func RowCount(capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return (capacity + SeatsPerRow - 1) / SeatsPerRow
}

// Parse splits "C7" into row index 2 and number 7.
func Parse(seat string) (row, number int, ok bool) {
	if len(seat) < 2 || seat[0] < 'A' || seat[0] > 'Z' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(seat[1:])
	if err != nil || n < 1 || n > SeatsPerRow || seat[1] == '0' || seat[1] == '+' {
		return 0, 0, false
	}
	return int(seat[0] - 'A'), n, true
}

// Contains reports whether seat exists in a screen of the given capacity.
func Contains(seat string, capacity int) bool {
	row, number, ok := Parse(seat)
	if !ok {
		return false
	}
	return row < RowCount(capacity) && row*SeatsPerRow+number <= capacity
}

// Normalize trims and upper-cases the requested seats, keeping their order.
// Empty input, malformed identifiers and repeats are validation errors.
func Normalize(seats []string) ([]string, error) {
	if len(seats) == 0 {
		return nil, utils.Invalid("seats", "No seats provided")
	}

	out := make([]string, 0, len(seats))
	seen := make(map[string]struct{}, len(seats))
	for _, raw := range seats {
		seat := strings.ToUpper(strings.TrimSpace(raw))
		if _, _, ok := Parse(seat); !ok {
			return nil, utils.Invalid("seats", fmt.Sprintf("Invalid seat %q", raw))
		}
		if _, dup := seen[seat]; dup {
			return nil, utils.Invalid("seats", fmt.Sprintf("Seat %s requested more than once", seat))
		}
		seen[seat] = struct{}{}
		out = append(out, seat)
	}
	return out, nil
}

// Validate checks that every seat lies inside a screen of the given capacity.
func Validate(seats []string, capacity int) error {
	for _, seat := range seats {
		if !Contains(seat, capacity) {
			return utils.Invalid("seats", fmt.Sprintf("Seat %s does not exist on this screen", seat))
		}
	}
	return nil
}

// Rows returns every seat identifier grouped by row.
func Rows(capacity int) [][]string {
	rows := make([][]string, 0, RowCount(capacity))
	for r := 0; r < RowCount(capacity); r++ {
		letter := string(rune('A' + r))
		var row []string
		for n := 1; n <= SeatsPerRow && r*SeatsPerRow+n <= capacity; n++ {
			row = append(row, letter+strconv.Itoa(n))
		}
		rows = append(rows, row)
	}
	return rows
}

package model

import (
	"fmt"
	"sort"
	"time"
)

// startMinuteGrid is the set of minute offsets a room may legally declare.
var startMinuteGrid = map[int]bool{0: true, 15: true, 30: true, 45: true}

// RoomAvailability is one room's raw set of bookable intervals for a date,
// plus the start-minute grid the room books against. Slots need not be sorted
// or merged; the matching engine owns that.
type RoomAvailability struct {
	RoomName       string
	Date           time.Time
	Slots          []TimeSlot
	StartMinutes   []int
	AllowsHalfHour bool
}

// NewRoomAvailability validates the start-minute grid and returns a value
// with defensive copies of both slices.
func NewRoomAvailability(roomName string, date time.Time, slots []TimeSlot, startMinutes []int, allowsHalfHour bool) (RoomAvailability, error) {
	if len(startMinutes) == 0 {
		return RoomAvailability{}, fmt.Errorf("%w: room %q declares no start minutes", ErrValidation, roomName)
	}
	seen := make(map[int]bool, len(startMinutes))
	minutes := make([]int, 0, len(startMinutes))
	for _, m := range startMinutes {
		if !startMinuteGrid[m] {
			return RoomAvailability{}, fmt.Errorf("%w: room %q declares invalid start minute %d", ErrValidation, roomName, m)
		}
		if !seen[m] {
			seen[m] = true
			minutes = append(minutes, m)
		}
	}
	sort.Ints(minutes)

	copied := make([]TimeSlot, len(slots))
	copy(copied, slots)

	return RoomAvailability{
		RoomName:       roomName,
		Date:           date,
		Slots:          copied,
		StartMinutes:   minutes,
		AllowsHalfHour: allowsHalfHour,
	}, nil
}

// WithSlots returns a copy of the availability carrying a different slot list.
func (a RoomAvailability) WithSlots(slots []TimeSlot) RoomAvailability {
	out := a
	out.Slots = make([]TimeSlot, len(slots))
	copy(out.Slots, slots)
	out.StartMinutes = make([]int, len(a.StartMinutes))
	copy(out.StartMinutes, a.StartMinutes)
	return out
}

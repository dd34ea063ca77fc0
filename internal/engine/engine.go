// Package engine implements the availability matching algorithm: it takes
// raw per-room slot sets, reconciles them against each room's start-minute
// grid, merges contiguous windows and trims them to the caller's desired
// range. It performs no I/O and is safe to call from any goroutine.
package engine

import (
	"fmt"
	"math"
	"sort"

	"studio-availability-backend/internal/model"
)

// span is a half-open interval in minutes since midnight.
type span struct {
	start int
	end   int
}

// FindAvailable returns, for each room, the merged windows of at least
// durationHours that fit inside rng and respect the room's start-minute
// grid. Rooms with no qualifying window are omitted; the rest keep their
// input order.
func FindAvailable(rooms []model.RoomAvailability, rng model.DesiredRange, durationHours float64) ([]model.RoomAvailability, error) {
	if durationHours <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %v", model.ErrValidation, durationHours)
	}
	required := int(math.Round(durationHours * 60))

	rangeStart := rng.Start.Minutes(false)
	rangeEnd := rng.End.Minutes(true)

	var result []model.RoomAvailability
	for _, room := range rooms {
		windows, err := matchRoom(room, rangeStart, rangeEnd, required)
		if err != nil {
			return nil, err
		}
		if len(windows) > 0 {
			result = append(result, room.WithSlots(windows))
		}
	}
	return result, nil
}

func matchRoom(room model.RoomAvailability, rangeStart, rangeEnd, required int) ([]model.TimeSlot, error) {
	// Sub-hour rooms book in 30-minute units, so short raw granules survive
	// to the merge step; hour-unit rooms must hold the full duration.
	minUnit := required
	if room.AllowsHalfHour {
		minUnit = 30
	}

	merged := mergeSpans(qualifySlots(room, minUnit))

	var out []model.TimeSlot
	for _, w := range merged {
		start := w.start
		if rangeStart > start {
			start = rangeStart
		}
		end := w.end
		if rangeEnd < end {
			end = rangeEnd
		}
		if start >= end {
			continue
		}

		// The effective booking start inside the window must still land on
		// the room's grid; push it up to the earliest qualifying offset.
		start = alignToGrid(start, room.StartMinutes)
		if end-start < required {
			continue
		}

		slot, err := model.NewTimeSlot(
			model.TimeOfDayFromMinutes(start),
			model.TimeOfDayFromMinutes(end),
		)
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, nil
}

// qualifySlots applies the per-offset eligibility rule: for every declared
// start-minute offset, a raw slot contributes the interval from its aligned
// effective start to its end, provided at least one bookable unit fits.
// The same interval reached through several offsets is kept once.
func qualifySlots(room model.RoomAvailability, minUnit int) []span {
	seen := make(map[span]bool)
	var qualified []span

	for _, offset := range room.StartMinutes {
		for _, slot := range room.Slots {
			start := slot.Start.Minutes(false)
			end := slot.End.Minutes(true)

			aligned := alignUp(start, offset)
			if end-aligned < minUnit {
				continue
			}
			sp := span{start: aligned, end: end}
			if !seen[sp] {
				seen[sp] = true
				qualified = append(qualified, sp)
			}
		}
	}
	return qualified
}

// mergeSpans sorts by start and folds overlapping or touching spans into
// maximal contiguous windows. Merging an already-merged list is a no-op.
func mergeSpans(spans []span) []span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end < sorted[j].end
	})

	merged := []span{sorted[0]}
	for _, next := range sorted[1:] {
		current := &merged[len(merged)-1]
		if next.start <= current.end {
			if next.end > current.end {
				current.end = next.end
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// alignUp returns the smallest minute value >= m whose offset within the
// hour equals offset.
func alignUp(m, offset int) int {
	aligned := (m/60)*60 + offset
	if aligned < m {
		aligned += 60
	}
	return aligned
}

// alignToGrid returns the earliest minute value >= m landing on any of the
// room's declared offsets.
func alignToGrid(m int, offsets []int) int {
	best := -1
	for _, offset := range offsets {
		aligned := alignUp(m, offset)
		if best == -1 || aligned < best {
			best = aligned
		}
	}
	if best == -1 {
		return m
	}
	return best
}

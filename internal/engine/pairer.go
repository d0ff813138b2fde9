package engine

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
)

// Interval is one continuous stretch of presence.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// PairResult holds the intervals derived from a day's punches. Unpaired is the
// trailing punch of an odd count; it never contributes worked time.
type PairResult struct {
	Intervals  []Interval
	Unpaired   *punch.Event
	Kept       []punch.Event
	Duplicates int
}

// SortEvents orders events by timestamp. Equal timestamps are ordered by
// device and ID so the result does not depend on input order.
func SortEvents(events []punch.Event) []punch.Event {
	sorted := make([]punch.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		return a.ID < b.ID
	})
	return sorted
}

// Debounce collapses reads from the same device that arrive less than window
// after the previous read from that device. A burst of reads counts as one
// event, the first of the burst.
func Debounce(events []punch.Event, window time.Duration) ([]punch.Event, int) {
	sorted := SortEvents(events)
	if window <= 0 {
		return sorted, 0
	}

	lastSeen := make(map[string]time.Time)
	kept := make([]punch.Event, 0, len(sorted))
	dropped := 0
	for _, e := range sorted {
		prev, ok := lastSeen[e.DeviceID]
		lastSeen[e.DeviceID] = e.Timestamp
		if ok && e.Timestamp.Sub(prev) < window {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	return kept, dropped
}

// PairPunches debounces then pairs punches greedily by time: the first event
// opens an interval, the next closes it. Declared kinds are ignored.
func PairPunches(events []punch.Event, debounce time.Duration) PairResult {
	kept, dropped := Debounce(events, debounce)

	result := PairResult{Kept: kept, Duplicates: dropped}
	for i := 0; i+1 < len(kept); i += 2 {
		result.Intervals = append(result.Intervals, Interval{
			Start: kept[i].Timestamp,
			End:   kept[i+1].Timestamp,
		})
	}
	if len(kept)%2 == 1 {
		last := kept[len(kept)-1]
		result.Unpaired = &last
	}
	return result
}

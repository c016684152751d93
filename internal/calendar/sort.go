package calendar

import "sort"

// sortPlaced orders events for layout. The four comparison levels guarantee
// a total order, so identical input sets always lay out identically no
// matter the order they arrived in:
//
//  1. start date ascending
//  2. start time ascending, a missing time counting as "00:00"
//  3. duration category: short-multiday, then long-multiday, then single-day
//  4. title ascending
func sortPlaced(events []placedEvent) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		// HH:MM strings are fixed-width, so string comparison is
		// chronological once the empty value is normalized.
		at, bt := a.StartTime, b.StartTime
		if at == "" {
			at = "00:00"
		}
		if bt == "" {
			bt = "00:00"
		}
		if at != bt {
			return at < bt
		}
		if a.cat != b.cat {
			return a.cat < b.cat
		}
		return a.Title < b.Title
	})
}

// SortEvents returns a copy of events in deterministic layout order. Events
// with malformed dates are dropped, mirroring how layout treats them.
func SortEvents(events []Event) []Event {
	placed := normalize(events)
	sortPlaced(placed)
	out := make([]Event, len(placed))
	for i, pe := range placed {
		out[i] = pe.Event
	}
	return out
}

package calendar

import "time"

// DateLayout is the wire format for calendar dates throughout the app.
//
// Because the format is fixed-width and zero-padded, lexicographic comparison
// of two date strings happens to agree with chronological comparison. The
// layout code still parses dates before comparing them so that malformed
// input is detected instead of silently mis-sorted.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for optional time-of-day fields.
const TimeLayout = "15:04"

// Event is the view of an event the layout engine needs. Records coming from
// the store are normalized into this shape at the ingestion boundary;
// anything missing required fields never reaches the engine.
type Event struct {
	ID        string
	Title     string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD, empty means same as StartDate
	StartTime string // HH:MM, optional
	EndTime   string // HH:MM, optional
	Shared    bool
	CreatedBy string
}

// DurationCategory buckets an event by its span length. The category drives
// layout order (multi-day spans are placed before single-day pills) and is
// always derived, never stored.
type DurationCategory int

const (
	CategoryShortMultiDay DurationCategory = iota + 1 // 2-3 days
	CategoryLongMultiDay                              // 4+ days
	CategorySingleDay
)

func (c DurationCategory) String() string {
	switch c {
	case CategoryShortMultiDay:
		return "short-multiday"
	case CategoryLongMultiDay:
		return "long-multiday"
	case CategorySingleDay:
		return "single-day"
	}
	return "unknown"
}

// Categorize derives the duration category from the event's date range.
// Events with unparseable dates are treated as single-day; they are dropped
// by normalization before layout anyway.
func Categorize(e Event) DurationCategory {
	start, err := time.Parse(DateLayout, e.StartDate)
	if err != nil {
		return CategorySingleDay
	}
	end := start
	if e.EndDate != "" {
		if parsed, err := time.Parse(DateLayout, e.EndDate); err == nil {
			end = parsed
		}
	}
	days := int(end.Sub(start).Hours()/24) + 1
	switch {
	case days <= 1:
		return CategorySingleDay
	case days <= 3:
		return CategoryShortMultiDay
	default:
		return CategoryLongMultiDay
	}
}

// placedEvent is an Event with its dates parsed once up front.
type placedEvent struct {
	Event
	start time.Time
	end   time.Time
	days  int
	cat   DurationCategory
}

// normalize parses dates, defaults a missing end date to the start date, and
// drops events whose dates cannot be parsed or whose range is inverted. A bad
// record must not blank the whole calendar, so normalization never fails.
func normalize(events []Event) []placedEvent {
	out := make([]placedEvent, 0, len(events))
	for _, e := range events {
		start, err := time.Parse(DateLayout, e.StartDate)
		if err != nil {
			continue
		}
		end := start
		if e.EndDate != "" {
			end, err = time.Parse(DateLayout, e.EndDate)
			if err != nil {
				continue
			}
		}
		if end.Before(start) {
			continue
		}
		days := int(end.Sub(start).Hours()/24) + 1
		cat := CategorySingleDay
		switch {
		case days >= 4:
			cat = CategoryLongMultiDay
		case days >= 2:
			cat = CategoryShortMultiDay
		}
		out = append(out, placedEvent{Event: e, start: start, end: end, days: days, cat: cat})
	}
	return out
}

// EventsForDate returns the events whose inclusive [start, end] range covers
// the given date. Comparison is done on parsed dates; events with malformed
// dates are excluded rather than propagated.
func EventsForDate(date string, events []Event) []Event {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil
	}
	var out []Event
	for _, pe := range normalize(events) {
		if !day.Before(pe.start) && !day.After(pe.end) {
			out = append(out, pe.Event)
		}
	}
	return out
}

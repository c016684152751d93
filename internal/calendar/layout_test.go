package calendar

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func marchGrid(t *testing.T) []DayCell {
	t.Helper()
	return ComputeMonthGrid(2024, time.March, time.Time{})
}

func TestEventsForDateInclusiveRange(t *testing.T) {
	ev := Event{ID: "1", Title: "Trip", StartDate: "2024-03-10", EndDate: "2024-03-13"}

	tests := []struct {
		date string
		want bool
	}{
		{"2024-03-09", false},
		{"2024-03-10", true},
		{"2024-03-11", true},
		{"2024-03-13", true},
		{"2024-03-14", false},
	}
	for _, tt := range tests {
		got := EventsForDate(tt.date, []Event{ev})
		if (len(got) == 1) != tt.want {
			t.Errorf("EventsForDate(%s): got %d events, want match=%v", tt.date, len(got), tt.want)
		}
	}
}

func TestEventsForDateSingleDay(t *testing.T) {
	ev := Event{ID: "1", Title: "Dinner", StartDate: "2024-03-10", EndDate: "2024-03-10"}
	for _, date := range []string{"2024-03-09", "2024-03-11"} {
		if got := EventsForDate(date, []Event{ev}); len(got) != 0 {
			t.Errorf("event leaked onto %s", date)
		}
	}
	if got := EventsForDate("2024-03-10", []Event{ev}); len(got) != 1 {
		t.Fatalf("event missing from its own date")
	}
}

func TestEventsForDateAcrossMonthBoundary(t *testing.T) {
	ev := Event{ID: "1", Title: "Ski week", StartDate: "2024-01-31", EndDate: "2024-02-02"}
	for _, date := range []string{"2024-01-31", "2024-02-01", "2024-02-02"} {
		if got := EventsForDate(date, []Event{ev}); len(got) != 1 {
			t.Errorf("expected match on %s", date)
		}
	}
	if got := EventsForDate("2024-02-03", []Event{ev}); len(got) != 0 {
		t.Error("matched past end date")
	}
}

func TestEventsForDateMalformed(t *testing.T) {
	events := []Event{
		{ID: "bad", Title: "Broken", StartDate: "not-a-date"},
		{ID: "ok", Title: "Fine", StartDate: "2024-03-10"},
	}
	got := EventsForDate("2024-03-10", events)
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("expected only the valid event, got %+v", got)
	}
	if got := EventsForDate("garbage", events); got != nil {
		t.Fatalf("malformed query date should return nil, got %+v", got)
	}
}

func TestSortEventsDeterministic(t *testing.T) {
	events := []Event{
		{ID: "a", Title: "Brunch", StartDate: "2024-03-10", StartTime: "11:00"},
		{ID: "b", Title: "Anniversary trip", StartDate: "2024-03-10", EndDate: "2024-03-12"},
		{ID: "c", Title: "Conference", StartDate: "2024-03-10", EndDate: "2024-03-15"},
		{ID: "d", Title: "Dentist", StartDate: "2024-03-10"},
		{ID: "e", Title: "Early call", StartDate: "2024-03-09", StartTime: "08:00"},
		{ID: "f", Title: "Apple picking", StartDate: "2024-03-10"},
	}

	want := SortEvents(events)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]Event(nil), events...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := SortEvents(shuffled)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("sort not deterministic:\n got %+v\nwant %+v", got, want)
		}
	}

	// Earlier date first, then untimed (00:00) before timed, then category
	// (short before long before single-day), then title.
	wantIDs := []string{"e", "b", "c", "f", "d", "a"}
	for i, id := range wantIDs {
		if want[i].ID != id {
			t.Fatalf("position %d: got %s, want %s (full order %+v)", i, want[i].ID, id, want)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  DurationCategory
	}{
		{"same day", Event{StartDate: "2024-03-10", EndDate: "2024-03-10"}, CategorySingleDay},
		{"no end date", Event{StartDate: "2024-03-10"}, CategorySingleDay},
		{"two days", Event{StartDate: "2024-03-10", EndDate: "2024-03-11"}, CategoryShortMultiDay},
		{"three days", Event{StartDate: "2024-03-10", EndDate: "2024-03-12"}, CategoryShortMultiDay},
		{"four days", Event{StartDate: "2024-03-10", EndDate: "2024-03-13"}, CategoryLongMultiDay},
		{"across months", Event{StartDate: "2024-01-30", EndDate: "2024-02-05"}, CategoryLongMultiDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.event); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayoutSingleDayStacking(t *testing.T) {
	grid := marchGrid(t)
	events := []Event{
		{ID: "1", Title: "A", StartDate: "2024-03-10"},
		{ID: "2", Title: "B", StartDate: "2024-03-10"},
		{ID: "3", Title: "C", StartDate: "2024-03-10"},
	}
	opts := DefaultOptions()
	layout := LayoutEvents(events, grid, opts)

	idx := cellFor(t, grid, "2024-03-10")
	pills := layout.Cells[idx].Pills
	if len(pills) != 3 {
		t.Fatalf("expected 3 pills, got %d", len(pills))
	}
	for i, p := range pills {
		wantTop := opts.TopOffset + i*(opts.PillHeight+opts.Spacing)
		if p.Top != wantTop {
			t.Errorf("pill %d: top %d, want %d", i, p.Top, wantTop)
		}
	}
}

func TestLayoutNoOverlappingIntervals(t *testing.T) {
	grid := marchGrid(t)
	events := []Event{
		{ID: "1", Title: "A", StartDate: "2024-03-10"},
		{ID: "2", Title: "B", StartDate: "2024-03-10", StartTime: "09:00"},
		{ID: "3", Title: "C", StartDate: "2024-03-10", StartTime: "09:00"},
		{ID: "4", Title: "Span", StartDate: "2024-03-09", EndDate: "2024-03-11"},
		{ID: "5", Title: "Long span", StartDate: "2024-03-08", EndDate: "2024-03-14"},
	}
	layout := LayoutEvents(events, grid, DefaultOptions())

	idx := cellFor(t, grid, "2024-03-10")
	type iv struct{ top, bottom int }
	var occupied []iv
	for _, s := range layout.Spans {
		first := s.Week*DaysPerWeek + s.StartCol
		if idx >= first && idx < first+s.Days {
			occupied = append(occupied, iv{s.Top, s.Top + s.Height})
		}
	}
	for _, p := range layout.Cells[idx].Pills {
		occupied = append(occupied, iv{p.Top, p.Top + p.Height})
	}
	if len(occupied) != 5 {
		t.Fatalf("expected 5 placed items in cell, got %d", len(occupied))
	}
	for i := 0; i < len(occupied); i++ {
		for j := i + 1; j < len(occupied); j++ {
			a, b := occupied[i], occupied[j]
			if a.top < b.bottom && a.bottom > b.top {
				t.Errorf("items %d and %d overlap: %+v vs %+v", i, j, a, b)
			}
		}
	}
}

func TestLayoutMultiDaySpansWeekBoundary(t *testing.T) {
	// March 2024 grid: week rows run Sunday through Saturday. March 10 is a
	// Sunday, so an event through the 13th stays in one row; one spanning
	// the 15th-19th crosses from the week of the 10th into the week of the
	// 17th and must split into two spans.
	grid := marchGrid(t)
	events := []Event{
		{ID: "x", Title: "Crossing", StartDate: "2024-03-15", EndDate: "2024-03-19"},
	}
	layout := LayoutEvents(events, grid, DefaultOptions())

	if len(layout.Spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(layout.Spans), layout.Spans)
	}

	first, second := layout.Spans[0], layout.Spans[1]
	// March 15 2024 is a Friday: column 5, two days to the Saturday.
	if first.StartCol != 5 || first.Days != 2 {
		t.Errorf("first span: col %d days %d, want col 5 days 2", first.StartCol, first.Days)
	}
	if !first.Start || first.End {
		t.Errorf("first span flags: start=%v end=%v, want start only", first.Start, first.End)
	}
	// Remainder starts the next row at Sunday, three days through Tuesday.
	if second.StartCol != 0 || second.Days != 3 {
		t.Errorf("second span: col %d days %d, want col 0 days 3", second.StartCol, second.Days)
	}
	if second.Start || !second.End {
		t.Errorf("second span flags: start=%v end=%v, want end only", second.Start, second.End)
	}
	if second.Week != first.Week+1 {
		t.Errorf("spans should occupy consecutive weeks, got %d and %d", first.Week, second.Week)
	}
}

func TestLayoutSingleRowSpan(t *testing.T) {
	grid := marchGrid(t)
	events := []Event{
		{ID: "x", Title: "Staycation", StartDate: "2024-03-10", EndDate: "2024-03-13"},
	}
	layout := LayoutEvents(events, grid, DefaultOptions())

	if len(layout.Spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(layout.Spans))
	}
	s := layout.Spans[0]
	if s.StartCol != 0 || s.Days != 4 {
		t.Errorf("span col %d days %d, want col 0 days 4", s.StartCol, s.Days)
	}
	if !s.Start || !s.End {
		t.Errorf("span should carry both start and end flags, got %+v", s)
	}
}

func TestLayoutOverflow(t *testing.T) {
	grid := marchGrid(t)
	var events []Event
	titles := []string{"A", "B", "C", "D", "E", "F"}
	for _, title := range titles {
		events = append(events, Event{ID: title, Title: title, StartDate: "2024-03-10"})
	}
	opts := DefaultOptions()
	layout := LayoutEvents(events, grid, opts)

	cell := layout.Cells[cellFor(t, grid, "2024-03-10")]
	if !cell.Overflow {
		t.Fatal("expected cell to overflow")
	}
	if cell.HiddenCount != len(titles)-opts.MaxVisiblePills {
		t.Errorf("hidden count %d, want %d", cell.HiddenCount, len(titles)-opts.MaxVisiblePills)
	}
	visible := 0
	for _, p := range cell.Pills {
		if !p.Hidden {
			visible++
		}
	}
	if visible != opts.MaxVisiblePills {
		t.Errorf("visible pills %d, want %d", visible, opts.MaxVisiblePills)
	}
}

func TestLayoutMalformedEventExcluded(t *testing.T) {
	grid := marchGrid(t)
	events := []Event{
		{ID: "bad", Title: "Broken", StartDate: "03/10/2024"},
		{ID: "inverted", Title: "Backwards", StartDate: "2024-03-12", EndDate: "2024-03-10"},
		{ID: "ok", Title: "Fine", StartDate: "2024-03-10"},
	}
	layout := LayoutEvents(events, grid, DefaultOptions())

	total := 0
	for _, cell := range layout.Cells {
		total += len(cell.Pills)
	}
	if total != 1 || len(layout.Spans) != 0 {
		t.Fatalf("expected exactly one placed pill, got %d pills %d spans", total, len(layout.Spans))
	}
}

func TestLayoutEventOutsideGrid(t *testing.T) {
	grid := marchGrid(t)
	events := []Event{
		{ID: "past", Title: "Old", StartDate: "2023-11-01"},
		{ID: "future", Title: "Later", StartDate: "2024-08-01", EndDate: "2024-08-04"},
	}
	layout := LayoutEvents(events, grid, DefaultOptions())
	for _, cell := range layout.Cells {
		if len(cell.Pills) != 0 {
			t.Fatal("out-of-range events must not place pills")
		}
	}
	if len(layout.Spans) != 0 {
		t.Fatal("out-of-range events must not place spans")
	}
}

func TestLayoutSpanClampedToGrid(t *testing.T) {
	// Event begins before the visible grid; its first span starts at the
	// grid's first cell without the start flag.
	grid := marchGrid(t)
	events := []Event{
		{ID: "x", Title: "Sabbatical", StartDate: "2024-02-20", EndDate: "2024-02-27"},
	}
	layout := LayoutEvents(events, grid, DefaultOptions())

	if len(layout.Spans) != 1 {
		t.Fatalf("expected 1 clamped span, got %d", len(layout.Spans))
	}
	s := layout.Spans[0]
	if s.Week != 0 || s.StartCol != 0 {
		t.Errorf("clamped span should start at the grid origin, got %+v", s)
	}
	if s.Start {
		t.Error("clamped span must not carry the start flag")
	}
	if !s.End {
		t.Error("span covering the event's final day must carry the end flag")
	}
	if s.Days != 3 { // Feb 25, 26, 27
		t.Errorf("clamped span days %d, want 3", s.Days)
	}
}

func cellFor(t *testing.T, grid []DayCell, date string) int {
	t.Helper()
	for i, c := range grid {
		if c.Date == date {
			return i
		}
	}
	t.Fatalf("date %s not in grid", date)
	return -1
}

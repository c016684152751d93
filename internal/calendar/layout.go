package calendar

import "time"

// Options control the pixel geometry of the layout. The defaults match the
// CSS of the month grid; tests use them as-is.
type Options struct {
	PillHeight      int // height of a single-day pill
	SpanHeight      int // height of a multi-day span bar
	Spacing         int // vertical gap between stacked items
	TopOffset       int // space reserved for the day number at the top of a cell
	CellHeight      int // visible height of a day cell
	MaxVisiblePills int // single-day pills shown before the cell overflows
}

// DefaultOptions returns the geometry used by the month view.
func DefaultOptions() Options {
	return Options{
		PillHeight:      20,
		SpanHeight:      20,
		Spacing:         4,
		TopOffset:       28,
		CellHeight:      120,
		MaxVisiblePills: 4,
	}
}

// Pill is a single-day event placed inside one day cell.
type Pill struct {
	Event  Event
	Top    int // vertical offset within the cell, px
	Height int
	Hidden bool // beyond the visible cap; the cell reports the count
}

// Span is the portion of a multi-day event rendered within one week row.
// Rows never merge across week boundaries; an event crossing into a new week
// produces a fresh span starting at column zero.
type Span struct {
	Event    Event
	Week     int // 0-based week row in the grid
	StartCol int // 0-based day-of-week column
	Days     int // columns covered in this row
	Top      int // vertical offset within the row, px
	Height   int
	Start    bool // covers the event's first day
	End      bool // covers the event's last day
}

// CellLayout is the per-cell result: stacked pills plus overflow state.
// Rendering the "more" indicator is the presentation layer's concern; the
// engine only reports that the cell overflows and by how much.
type CellLayout struct {
	Pills       []Pill
	Overflow    bool
	HiddenCount int
}

// MonthLayout is the full placement result for one month grid.
type MonthLayout struct {
	Cells []CellLayout // parallel to the 42-cell grid
	Spans []Span
}

// interval is an occupied [Top, Bottom) vertical slice of a cell or row.
type interval struct {
	top    int
	bottom int
}

// placeBelow finds the lowest non-colliding top offset at or below candidate.
// Each collision pushes the item just past the colliding bottom plus spacing;
// offsets only ever move down, so the scan terminates.
func placeBelow(occupied []interval, candidate, height, spacing int) int {
	for {
		moved := false
		for _, iv := range occupied {
			if candidate < iv.bottom && candidate+height > iv.top {
				candidate = iv.bottom + spacing
				moved = true
			}
		}
		if !moved {
			return candidate
		}
	}
}

// LayoutEvents places events onto the grid. Events are normalized and sorted
// first, so the output is deterministic for identical input. Multi-day
// events claim vertical space in every cell they cover; single-day pills in
// those cells stack below them.
func LayoutEvents(events []Event, grid []DayCell, opts Options) MonthLayout {
	layout := MonthLayout{Cells: make([]CellLayout, len(grid))}
	if len(grid) == 0 {
		return layout
	}

	cellIndex := make(map[string]int, len(grid))
	for i, cell := range grid {
		cellIndex[cell.Date] = i
	}
	gridStart, err := time.Parse(DateLayout, grid[0].Date)
	if err != nil {
		return layout
	}
	gridEnd := gridStart.AddDate(0, 0, len(grid)-1)

	placed := normalize(events)
	sortPlaced(placed)

	rowOccupied := make([][]interval, (len(grid)+DaysPerWeek-1)/DaysPerWeek)
	cellOccupied := make([][]interval, len(grid))

	for _, pe := range placed {
		if pe.cat == CategorySingleDay {
			idx, ok := cellIndex[pe.StartDate]
			if !ok {
				continue
			}
			top := placeBelow(cellOccupied[idx], opts.TopOffset, opts.PillHeight, opts.Spacing)
			cellOccupied[idx] = append(cellOccupied[idx], interval{top: top, bottom: top + opts.PillHeight})
			layout.Cells[idx].Pills = append(layout.Cells[idx].Pills, Pill{
				Event:  pe.Event,
				Top:    top,
				Height: opts.PillHeight,
			})
			continue
		}

		// Multi-day: walk day by day, closing the running span whenever the
		// walk crosses into a new week row.
		day := pe.start
		if day.Before(gridStart) {
			day = gridStart
		}
		last := pe.end
		if last.After(gridEnd) {
			last = gridEnd
		}
		spanStart := -1 // grid index where the current span began
		prevWeek := -1
		var spanTop int
		for !day.After(last) {
			idx, ok := cellIndex[day.Format(DateLayout)]
			if !ok {
				day = day.AddDate(0, 0, 1)
				continue
			}
			week := idx / DaysPerWeek
			if week != prevWeek {
				if spanStart >= 0 {
					layout.Spans = append(layout.Spans, finishSpan(pe, spanStart, idx-1, spanTop, opts, gridStart))
				}
				spanStart = idx
				spanTop = placeBelow(rowOccupied[week], opts.TopOffset, opts.SpanHeight, opts.Spacing)
				rowOccupied[week] = append(rowOccupied[week], interval{top: spanTop, bottom: spanTop + opts.SpanHeight})
				prevWeek = week
			}
			// Reserve the span's slice in each covered cell so single-day
			// pills stack below it.
			cellOccupied[idx] = append(cellOccupied[idx], interval{top: spanTop, bottom: spanTop + opts.SpanHeight})
			day = day.AddDate(0, 0, 1)
		}
		if spanStart >= 0 {
			endIdx := int(last.Sub(gridStart).Hours() / 24)
			layout.Spans = append(layout.Spans, finishSpan(pe, spanStart, endIdx, spanTop, opts, gridStart))
		}
	}

	for i := range layout.Cells {
		cell := &layout.Cells[i]
		if len(cell.Pills) <= opts.MaxVisiblePills {
			continue
		}
		cell.Overflow = true
		cell.HiddenCount = len(cell.Pills) - opts.MaxVisiblePills
		for j := opts.MaxVisiblePills; j < len(cell.Pills); j++ {
			cell.Pills[j].Hidden = true
		}
	}

	return layout
}

// finishSpan closes a running span covering grid cells [startIdx, endIdx].
func finishSpan(pe placedEvent, startIdx, endIdx, top int, opts Options, gridStart time.Time) Span {
	startDate := gridStart.AddDate(0, 0, startIdx)
	endDate := gridStart.AddDate(0, 0, endIdx)
	return Span{
		Event:    pe.Event,
		Week:     startIdx / DaysPerWeek,
		StartCol: startIdx % DaysPerWeek,
		Days:     endIdx - startIdx + 1,
		Top:      top,
		Height:   opts.SpanHeight,
		Start:    startDate.Equal(pe.start),
		End:      endDate.Equal(pe.end),
	}
}

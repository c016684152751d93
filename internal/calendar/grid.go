package calendar

import "time"

const (
	// DaysPerWeek and WeeksPerGrid fix the month view at a 42-cell grid,
	// including leading and trailing days from the adjacent months.
	DaysPerWeek  = 7
	WeeksPerGrid = 6
	GridSize     = DaysPerWeek * WeeksPerGrid
)

// DayCell describes one cell of the month grid.
type DayCell struct {
	Date    string // YYYY-MM-DD
	Day     int    // day of month, for display
	InMonth bool   // false for leading/trailing days of adjacent months
	Today   bool
}

// ComputeMonthGrid returns the 42 day cells for a month view, starting on
// the Sunday on or before the first of the month. Exactly one cell is
// flagged Today when today falls inside the grid and the displayed month.
func ComputeMonthGrid(year int, month time.Month, today time.Time) []DayCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]DayCell, 0, GridSize)
	for i := 0; i < GridSize; i++ {
		d := start.AddDate(0, 0, i)
		inMonth := d.Month() == month && d.Year() == year
		cells = append(cells, DayCell{
			Date:    d.Format(DateLayout),
			Day:     d.Day(),
			InMonth: inMonth,
			Today: inMonth &&
				d.Year() == today.Year() &&
				d.Month() == today.Month() &&
				d.Day() == today.Day(),
		})
	}
	return cells
}

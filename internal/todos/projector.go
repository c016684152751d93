// Package todos filters, orders, and summarizes a workspace's task list for
// display.
package todos

import (
	"math"
	"sort"
)

// AssigneeShared is the assignee value for tasks belonging to both members.
const AssigneeShared = "shared"

// Todo is the view of a task the projector needs. Assignee is either a
// member's user id or AssigneeShared.
type Todo struct {
	ID        string
	Title     string
	Notes     string
	Assignee  string
	DueDate   string // YYYY-MM-DD, optional
	Completed bool
	CreatedAt int64 // unix seconds, tiebreaker for ordering
}

// Tab selects which slice of the task list is shown.
type Tab string

const (
	TabMine    Tab = "mine"
	TabPartner Tab = "partner"
	TabShared  Tab = "shared"
)

// ParseTab maps a query value to a Tab, defaulting to TabMine.
func ParseTab(s string) Tab {
	switch Tab(s) {
	case TabPartner:
		return TabPartner
	case TabShared:
		return TabShared
	default:
		return TabMine
	}
}

// FilterByTab returns the todos visible on a tab. The three tabs partition
// the list: each task appears on exactly one of them. A task assigned to
// neither member nor shared appears nowhere.
func FilterByTab(list []Todo, tab Tab, viewerID, partnerID string) []Todo {
	var want string
	switch tab {
	case TabMine:
		want = viewerID
	case TabPartner:
		want = partnerID
	case TabShared:
		want = AssigneeShared
	default:
		return nil
	}
	if want == "" {
		return nil
	}
	var out []Todo
	for _, td := range list {
		if td.Assignee == want {
			out = append(out, td)
		}
	}
	return out
}

// SortForView orders todos for display: incomplete before completed, then
// by due date ascending with undated tasks last, then oldest-created first,
// then title. The order is total, so rendering is stable across refreshes.
func SortForView(list []Todo) []Todo {
	out := append([]Todo(nil), list...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.DueDate != b.DueDate {
			// Fixed-width dates compare chronologically; the empty
			// string must sort after every real date, not before.
			if a.DueDate == "" {
				return false
			}
			if b.DueDate == "" {
				return true
			}
			return a.DueDate < b.DueDate
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.Title < b.Title
	})
	return out
}

// Progress summarizes completion for one tab's task list.
type Progress struct {
	Percent   int
	Completed int
	Total     int
}

// ComputeProgress reports the completed share of the list, rounded to the
// nearest whole percent. An empty list counts as fully done, so a cleared
// tab shows 100% rather than an alarming zero.
func ComputeProgress(list []Todo) Progress {
	if len(list) == 0 {
		return Progress{Percent: 100}
	}
	done := 0
	for _, td := range list {
		if td.Completed {
			done++
		}
	}
	pct := int(math.Round(float64(done) / float64(len(list)) * 100))
	return Progress{Percent: pct, Completed: done, Total: len(list)}
}

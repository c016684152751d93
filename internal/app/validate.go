package app

import (
	"strings"
	"time"

	"tandem/internal/calendar"
	"tandem/internal/todos"
)

// EventInput is the submitted form data for creating or updating an event.
type EventInput struct {
	Title       string
	Description string
	Location    string
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string
	Shared      bool
}

// ValidateEvent checks an event submission. The end date defaults to the
// start date when omitted; times must come in pairs so a rendered event
// never shows a start without an end.
func ValidateEvent(in *EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	start, err := time.Parse(calendar.DateLayout, in.StartDate)
	if err != nil {
		return &ValidationError{Field: "startDate", Reason: "start date must be YYYY-MM-DD"}
	}
	if in.EndDate == "" {
		in.EndDate = in.StartDate
	}
	end, err := time.Parse(calendar.DateLayout, in.EndDate)
	if err != nil {
		return &ValidationError{Field: "endDate", Reason: "end date must be YYYY-MM-DD"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "endDate", Reason: "end date must not be before start date"}
	}

	if (in.StartTime == "") != (in.EndTime == "") {
		return &ValidationError{Field: "startTime", Reason: "start and end time must be set together"}
	}
	if in.StartTime != "" {
		st, err := time.Parse(calendar.TimeLayout, in.StartTime)
		if err != nil {
			return &ValidationError{Field: "startTime", Reason: "start time must be HH:MM"}
		}
		et, err := time.Parse(calendar.TimeLayout, in.EndTime)
		if err != nil {
			return &ValidationError{Field: "endTime", Reason: "end time must be HH:MM"}
		}
		if start.Equal(end) && !st.Before(et) {
			return &ValidationError{Field: "endTime", Reason: "end time must be after start time"}
		}
	}
	return nil
}

// TodoInput is the submitted form data for creating a task.
type TodoInput struct {
	Title    string
	Notes    string
	Assignee string
	DueDate  string
}

// ValidateTodo checks a task submission. Assignee must be one of the
// workspace's member ids or the shared marker.
func ValidateTodo(in *TodoInput, memberIDs []string) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if in.Assignee != todos.AssigneeShared {
		found := false
		for _, id := range memberIDs {
			if id == in.Assignee {
				found = true
				break
			}
		}
		if !found {
			return &ValidationError{Field: "assignee", Reason: "assignee must be a workspace member or shared"}
		}
	}
	if in.DueDate != "" {
		if _, err := time.Parse(calendar.DateLayout, in.DueDate); err != nil {
			return &ValidationError{Field: "dueDate", Reason: "due date must be YYYY-MM-DD"}
		}
	}
	return nil
}

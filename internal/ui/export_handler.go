package ui

import (
	"fmt"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"

	"tandem/internal/auth"
	"tandem/internal/calendar"
	httperrors "tandem/internal/http/errors"
	"tandem/internal/store"
)

// ExportICS serves the whole workspace calendar as an iCalendar feed so
// events can be pulled into an external calendar app.
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	events, err := h.store.Events.ListAll(r.Context(), ws.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "export events")
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Tandem//Calendar//EN")
	cal.SetXWRCalName(ws.Name)

	for _, ev := range events {
		if verr := addICSEvent(cal, ev); verr != nil {
			httperrors.LogError(r, "skipping event in ics export", verr)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tandem.ics"`)
	if _, err := fmt.Fprint(w, cal.Serialize()); err != nil {
		httperrors.LogError(r, "write ics export", err)
	}
}

func addICSEvent(cal *ical.Calendar, ev store.Event) error {
	start, err := time.Parse(calendar.DateLayout, ev.StartDate)
	if err != nil {
		return fmt.Errorf("event %d: bad start date: %w", ev.ID, err)
	}
	end, err := time.Parse(calendar.DateLayout, ev.EndDate)
	if err != nil {
		return fmt.Errorf("event %d: bad end date: %w", ev.ID, err)
	}

	ve := cal.AddEvent(fmt.Sprintf("event-%d@tandem", ev.ID))
	ve.SetDtStampTime(time.Now().UTC())
	ve.SetSummary(ev.Title)
	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}

	if ev.StartTime == nil || ev.EndTime == nil {
		// All-day: DTEND is exclusive, so it points at the day after.
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(end.AddDate(0, 0, 1))
		return nil
	}

	st, err := time.Parse(calendar.TimeLayout, *ev.StartTime)
	if err != nil {
		return fmt.Errorf("event %d: bad start time: %w", ev.ID, err)
	}
	et, err := time.Parse(calendar.TimeLayout, *ev.EndTime)
	if err != nil {
		return fmt.Errorf("event %d: bad end time: %w", ev.ID, err)
	}

	ve.SetStartAt(time.Date(start.Year(), start.Month(), start.Day(), st.Hour(), st.Minute(), 0, 0, time.UTC))
	ve.SetEndAt(time.Date(end.Year(), end.Month(), end.Day(), et.Hour(), et.Minute(), 0, 0, time.UTC))
	return nil
}

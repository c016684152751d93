package ui

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tandem/internal/app"
	"tandem/internal/auth"
	"tandem/internal/calendar"
	"tandem/internal/colors"
	httperrors "tandem/internal/http/errors"
	"tandem/internal/metrics"
	"tandem/internal/store"
)

// Home sends signed-in users to the calendar.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/calendar", http.StatusFound)
}

// layoutEvent converts a stored event into the layout engine's shape.
func layoutEvent(e store.Event) calendar.Event {
	ev := calendar.Event{
		ID:        strconv.FormatInt(e.ID, 10),
		Title:     e.Title,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		Shared:    e.Shared,
		CreatedBy: strconv.FormatInt(e.CreatedBy, 10),
	}
	if e.StartTime != nil {
		ev.StartTime = *e.StartTime
	}
	if e.EndTime != nil {
		ev.EndTime = *e.EndTime
	}
	return ev
}

type pillView struct {
	ID     string
	Title  string
	Time   string
	Top    int
	Height int
	Color  string
	Shared bool
	Hidden bool
}

type spanView struct {
	ID          string
	Title       string
	Top         int
	Height      int
	Color       string
	Shared      bool
	Start       bool
	End         bool
	LeftPercent string
	// Each column is one seventh of the row.
	WidthPercent string
}

type cellView struct {
	Date        string
	Day         int
	InMonth     bool
	Today       bool
	Pills       []pillView
	Overflow    bool
	HiddenCount int
}

type weekView struct {
	Cells []cellView
	Spans []spanView
}

func colPercent(cols int) string {
	return strconv.FormatFloat(float64(cols)*100/7, 'f', 2, 64) + "%"
}

// Calendar renders the month grid.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, members, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	now := time.Now()
	year, month := parseMonth(r, now)
	grid := calendar.ComputeMonthGrid(year, month, now)

	stored, err := h.store.Events.ListForRange(r.Context(), ws.ID, grid[0].Date, grid[len(grid)-1].Date)
	if err != nil {
		httperrors.InternalError(w, r, err, "load events")
		return
	}
	events := make([]calendar.Event, len(stored))
	for i, e := range stored {
		events[i] = layoutEvent(e)
	}

	layoutStart := time.Now()
	layout := calendar.LayoutEvents(events, grid, calendar.DefaultOptions())
	metrics.ObserveLayout(layoutStart)

	viewerID := strconv.FormatInt(user.ID, 10)
	ids := memberIDs(members)
	prefs := h.kv.ColorPrefs(r)
	colorFor := func(e calendar.Event) string {
		return colors.Resolve(e.Shared, e.CreatedBy, viewerID, ids, prefs)
	}

	weeks := make([]weekView, calendar.WeeksPerGrid)
	for wk := range weeks {
		weeks[wk].Cells = make([]cellView, calendar.DaysPerWeek)
		for d := range weeks[wk].Cells {
			idx := wk*calendar.DaysPerWeek + d
			cell := grid[idx]
			cl := layout.Cells[idx]
			cv := cellView{
				Date:        cell.Date,
				Day:         cell.Day,
				InMonth:     cell.InMonth,
				Today:       cell.Today,
				Overflow:    cl.Overflow,
				HiddenCount: cl.HiddenCount,
			}
			for _, p := range cl.Pills {
				cv.Pills = append(cv.Pills, pillView{
					ID:     p.Event.ID,
					Title:  p.Event.Title,
					Time:   p.Event.StartTime,
					Top:    p.Top,
					Height: p.Height,
					Color:  colorFor(p.Event),
					Shared: p.Event.Shared,
					Hidden: p.Hidden,
				})
			}
			weeks[wk].Cells[d] = cv
		}
	}
	for _, s := range layout.Spans {
		weeks[s.Week].Spans = append(weeks[s.Week].Spans, spanView{
			ID:           s.Event.ID,
			Title:        s.Event.Title,
			Top:          s.Top,
			Height:       s.Height,
			Color:        colorFor(s.Event),
			Shared:       s.Event.Shared,
			Start:        s.Start,
			End:          s.End,
			LeftPercent:  colPercent(s.StartCol),
			WidthPercent: colPercent(s.Days),
		})
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	defaults := colors.Defaults()
	user1Color, user2Color := defaults[colors.SlotUser1], defaults[colors.SlotUser2]
	if c, ok := prefs[colors.SlotUser1]; ok {
		user1Color = c
	}
	if c, ok := prefs[colors.SlotUser2]; ok {
		user2Color = c
	}

	data := h.withFlash(r, map[string]any{
		"Title":      first.Format("January 2006"),
		"User":       user,
		"Workspace":  ws,
		"Members":    members,
		"MonthLabel": first.Format("January 2006"),
		"PrevMonth":  first.AddDate(0, -1, 0).Format("2006-01"),
		"NextMonth":  first.AddDate(0, 1, 0).Format("2006-01"),
		"Weeks":      weeks,
		"CellHeight": calendar.DefaultOptions().CellHeight,
		"User1Color": user1Color,
		"User2Color": user2Color,
	})
	h.render(w, r, "calendar.html", data)
}

// Day renders a single day's events.
func (h *Handler) Day(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, members, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	date := chi.URLParam(r, "date")
	if _, err := time.Parse(calendar.DateLayout, date); err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	stored, err := h.store.Events.ListForRange(r.Context(), ws.ID, date, date)
	if err != nil {
		httperrors.InternalError(w, r, err, "load events")
		return
	}

	events := make([]calendar.Event, len(stored))
	byID := make(map[string]store.Event, len(stored))
	for i, e := range stored {
		events[i] = layoutEvent(e)
		byID[events[i].ID] = e
	}
	events = calendar.SortEvents(calendar.EventsForDate(date, events))

	viewerID := strconv.FormatInt(user.ID, 10)
	ids := memberIDs(members)
	prefs := h.kv.ColorPrefs(r)

	type dayEventView struct {
		Event         store.Event
		Color         string
		Tint          template.CSS
		Shared        bool
		CanEdit       bool
		HasAttachment bool
	}
	var items []dayEventView
	for _, e := range events {
		rec := byID[e.ID]
		color := colors.Resolve(e.Shared, e.CreatedBy, viewerID, ids, prefs)
		item := dayEventView{
			Event:         rec,
			Color:         color,
			Shared:        e.Shared,
			CanEdit:       rec.CreatedBy == user.ID || rec.Shared,
			HasAttachment: rec.AttachmentName != nil,
		}
		// Soft wash of the owner's color behind the card.
		if hsl, ok := colors.HexToHSL(color); ok {
			item.Tint = template.CSS("background: " + hsl.HSLA(0.12))
		}
		items = append(items, item)
	}

	parsed, _ := time.Parse(calendar.DateLayout, date)
	data := h.withFlash(r, map[string]any{
		"Title":    parsed.Format("Monday, January 2"),
		"User":     user,
		"Members":  members,
		"Date":     date,
		"DayLabel": parsed.Format("Monday, January 2, 2006"),
		"Month":    parsed.Format("2006-01"),
		"Events":   items,
	})
	h.render(w, r, "day.html", data)
}

func eventInputFromForm(r *http.Request) app.EventInput {
	return app.EventInput{
		Title:       r.FormValue("title"),
		Description: strings.TrimSpace(r.FormValue("description")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		StartDate:   r.FormValue("startDate"),
		EndDate:     r.FormValue("endDate"),
		StartTime:   r.FormValue("startTime"),
		EndTime:     r.FormValue("endTime"),
		Shared:      r.FormValue("shared") == "on" || r.FormValue("shared") == "true",
	}
}

func dayPath(date string) string {
	return "/calendar/day/" + date
}

// CreateEvent adds an event to the workspace calendar.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/calendar", map[string]string{"error": "invalid form"})
		return
	}

	in := eventInputFromForm(r)
	if err := app.ValidateEvent(&in); err != nil {
		h.redirectErr(w, r, "/calendar", err, "invalid event")
		return
	}

	ev := store.Event{
		WorkspaceID: ws.ID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Shared:      in.Shared,
		CreatedBy:   user.ID,
	}
	if in.StartTime != "" {
		ev.StartTime, ev.EndTime = &in.StartTime, &in.EndTime
	}

	created, err := h.store.Events.Create(r.Context(), ev)
	if err != nil {
		httperrors.InternalError(w, r, err, "create event")
		return
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, dayPath(created.StartDate), map[string]string{"status": "event created"})
}

// loadOwnedEvent fetches an event and checks the user may modify it:
// their own events always, the partner's only when shared.
func (h *Handler) loadOwnedEvent(r *http.Request, ws *store.Workspace, userID int64) (*store.Event, error) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, &app.ValidationError{Field: "id", Reason: "invalid event"}
	}
	ev, err := h.store.Events.GetByID(r.Context(), ws.ID, id)
	if err != nil {
		return nil, err
	}
	if ev.CreatedBy != userID && !ev.Shared {
		return nil, &app.AuthorizationError{Reason: "you cannot modify your partner's private events"}
	}
	return ev, nil
}

// UpdateEvent edits an event.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/calendar", map[string]string{"error": "invalid form"})
		return
	}

	ev, err := h.loadOwnedEvent(r, ws, user.ID)
	if err != nil {
		h.redirectErr(w, r, "/calendar", err, "load event")
		return
	}

	in := eventInputFromForm(r)
	if err := app.ValidateEvent(&in); err != nil {
		h.redirectErr(w, r, dayPath(ev.StartDate), err, "invalid event")
		return
	}

	ev.Title = in.Title
	ev.Description = in.Description
	ev.Location = in.Location
	ev.StartDate = in.StartDate
	ev.EndDate = in.EndDate
	ev.Shared = in.Shared
	ev.StartTime, ev.EndTime = nil, nil
	if in.StartTime != "" {
		ev.StartTime, ev.EndTime = &in.StartTime, &in.EndTime
	}

	updated, err := h.store.Events.Update(r.Context(), *ev)
	if err != nil {
		httperrors.InternalError(w, r, err, "update event")
		return
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, dayPath(updated.StartDate), map[string]string{"status": "event updated"})
}

// DeleteEvent removes an event and its attachment blob.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	ev, err := h.loadOwnedEvent(r, ws, user.ID)
	if err != nil {
		h.redirectErr(w, r, "/calendar", err, "load event")
		return
	}

	if err := h.store.Events.Delete(r.Context(), ws.ID, ev.ID); err != nil {
		h.redirectErr(w, r, "/calendar", err, "delete event")
		return
	}
	if ev.AttachmentPath != nil {
		if err := h.blobs.Remove(*ev.AttachmentPath); err != nil {
			httperrors.LogError(r, "remove attachment blob", err)
		}
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, dayPath(ev.StartDate), map[string]string{"status": "event deleted"})
}

// maxAttachmentSize caps uploads at 10 MiB.
const maxAttachmentSize = 10 << 20

// UploadAttachment stores a file against an event.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	ev, err := h.loadOwnedEvent(r, ws, user.ID)
	if err != nil {
		h.redirectErr(w, r, "/calendar", err, "load event")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.redirect(w, r, dayPath(ev.StartDate), map[string]string{"error": "attachment upload failed"})
		return
	}
	defer file.Close()

	key, err := h.blobs.Save(file)
	if err != nil {
		httperrors.InternalError(w, r, err, "save attachment")
		return
	}

	// Replace any previous attachment.
	old := ev.AttachmentPath
	name := header.Filename
	if err := h.store.Events.SetAttachment(r.Context(), ws.ID, ev.ID, &name, &key); err != nil {
		_ = h.blobs.Remove(key)
		httperrors.InternalError(w, r, err, "record attachment")
		return
	}
	if old != nil {
		if err := h.blobs.Remove(*old); err != nil {
			httperrors.LogError(r, "remove old attachment blob", err)
		}
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, dayPath(ev.StartDate), map[string]string{"status": "attachment uploaded"})
}

// DownloadAttachment streams an event's attachment.
func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}
	ev, err := h.store.Events.GetByID(r.Context(), ws.ID, id)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if ev.AttachmentPath == nil || ev.AttachmentName == nil {
		http.Error(w, "no attachment", http.StatusNotFound)
		return
	}

	rc, err := h.blobs.Open(*ev.AttachmentPath)
	if err != nil {
		httperrors.InternalError(w, r, err, "open attachment")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", *ev.AttachmentName))
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		httperrors.LogError(r, "stream attachment", err)
	}
}

// DeleteAttachment removes an event's attachment.
func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	ev, err := h.loadOwnedEvent(r, ws, user.ID)
	if err != nil {
		h.redirectErr(w, r, "/calendar", err, "load event")
		return
	}
	if ev.AttachmentPath == nil {
		h.redirect(w, r, dayPath(ev.StartDate), map[string]string{"error": "no attachment to remove"})
		return
	}

	key := *ev.AttachmentPath
	if err := h.store.Events.SetAttachment(r.Context(), ws.ID, ev.ID, nil, nil); err != nil {
		httperrors.InternalError(w, r, err, "clear attachment")
		return
	}
	if err := h.blobs.Remove(key); err != nil {
		httperrors.LogError(r, "remove attachment blob", err)
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, dayPath(ev.StartDate), map[string]string{"status": "attachment removed"})
}

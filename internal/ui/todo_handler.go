package ui

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tandem/internal/app"
	"tandem/internal/auth"
	httperrors "tandem/internal/http/errors"
	"tandem/internal/store"
	"tandem/internal/todos"
)

func projectTodo(td store.Todo) todos.Todo {
	out := todos.Todo{
		ID:        strconv.FormatInt(td.ID, 10),
		Title:     td.Title,
		Notes:     td.Notes,
		Assignee:  td.Assignee,
		Completed: td.Completed,
		CreatedAt: td.CreatedAt.Unix(),
	}
	if td.DueDate != nil {
		out.DueDate = *td.DueDate
	}
	return out
}

// Tasks renders the task list for one tab with its progress bar.
func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, members, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	stored, err := h.store.Todos.List(r.Context(), ws.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load todos")
		return
	}

	all := make([]todos.Todo, len(stored))
	for i, td := range stored {
		all[i] = projectTodo(td)
	}

	tab := todos.ParseTab(r.URL.Query().Get("tab"))
	viewerID := strconv.FormatInt(user.ID, 10)
	partner := partnerID(members, user.ID)

	visible := todos.SortForView(todos.FilterByTab(all, tab, viewerID, partner))
	progress := todos.ComputeProgress(visible)

	nameFor := make(map[string]string, len(members)+1)
	for _, m := range members {
		nameFor[strconv.FormatInt(m.UserID, 10)] = m.DisplayName
	}
	nameFor[todos.AssigneeShared] = "Both of us"

	data := h.withFlash(r, map[string]any{
		"Title":      "Tasks",
		"User":       user,
		"Workspace":  ws,
		"Members":    members,
		"Tab":        string(tab),
		"HasPartner": partner != "",
		"Todos":      visible,
		"Progress":   progress,
		"NameFor":    nameFor,
		"ViewerID":   viewerID,
		"SharedKey":  todos.AssigneeShared,
	})
	h.render(w, r, "tasks.html", data)
}

func tasksPath(tab string) string {
	if tab == "" {
		return "/tasks"
	}
	return "/tasks?tab=" + tab
}

// CreateTodo adds a task.
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, members, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/tasks", map[string]string{"error": "invalid form"})
		return
	}

	tab := r.FormValue("tab")
	in := app.TodoInput{
		Title:    r.FormValue("title"),
		Notes:    strings.TrimSpace(r.FormValue("notes")),
		Assignee: r.FormValue("assignee"),
		DueDate:  r.FormValue("dueDate"),
	}
	if err := app.ValidateTodo(&in, memberIDs(members)); err != nil {
		h.redirectErr(w, r, tasksPath(tab), err, "invalid task")
		return
	}

	td := store.Todo{
		WorkspaceID: ws.ID,
		Title:       in.Title,
		Notes:       in.Notes,
		Assignee:    in.Assignee,
		CreatedBy:   user.ID,
	}
	if in.DueDate != "" {
		td.DueDate = &in.DueDate
	}

	if _, err := h.store.Todos.Create(r.Context(), td); err != nil {
		httperrors.InternalError(w, r, err, "create todo")
		return
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, tasksPath(tab), map[string]string{"status": "task added"})
}

// ToggleTodo flips a task's completed flag.
func (h *Handler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}
	tab := r.URL.Query().Get("tab")

	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.redirect(w, r, tasksPath(tab), map[string]string{"error": "invalid task"})
		return
	}
	td, err := h.store.Todos.GetByID(r.Context(), ws.ID, id)
	if err != nil {
		h.redirectErr(w, r, tasksPath(tab), err, "load task")
		return
	}

	if err := h.store.Todos.SetCompleted(r.Context(), ws.ID, id, !td.Completed); err != nil {
		h.redirectErr(w, r, tasksPath(tab), err, "update task")
		return
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, tasksPath(tab), nil)
}

// DeleteTodo removes a task.
func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}
	tab := r.URL.Query().Get("tab")

	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.redirect(w, r, tasksPath(tab), map[string]string{"error": "invalid task"})
		return
	}
	if err := h.store.Todos.Delete(r.Context(), ws.ID, id); err != nil {
		h.redirectErr(w, r, tasksPath(tab), err, "delete task")
		return
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, tasksPath(tab), map[string]string{"status": "task deleted"})
}

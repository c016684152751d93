package ui

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tandem/internal/app"
	"tandem/internal/http/csrf"
	httperrors "tandem/internal/http/errors"
	"tandem/internal/store"
)

// parseMonth reads a ?month=YYYY-MM query value, defaulting to the current
// month when absent or malformed.
func parseMonth(r *http.Request, now time.Time) (int, time.Month) {
	if m := r.URL.Query().Get("month"); m != "" {
		if parsed, err := time.Parse("2006-01", m); err == nil {
			return parsed.Year(), parsed.Month()
		}
	}
	return now.Year(), now.Month()
}

// withFlash adds flash messages and the CSRF token to template data.
func (h *Handler) withFlash(r *http.Request, data map[string]any) map[string]any {
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		data["FlashMessage"] = status
	}
	if err := q.Get("error"); err != "" {
		data["FlashError"] = err
	}
	if csrfToken := csrf.TokenFromContext(r.Context()); csrfToken != "" {
		data["CSRFToken"] = csrfToken
	}
	return data
}

// redirect redirects to a path with query parameters.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string, params map[string]string) {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	location := path
	if encoded := q.Encode(); encoded != "" {
		location += "?" + encoded
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// redirectErr redirects with the user-facing message for validation and
// authorization failures, and a generic one otherwise.
func (h *Handler) redirectErr(w http.ResponseWriter, r *http.Request, path string, err error, fallback string) {
	var verr *app.ValidationError
	var aerr *app.AuthorizationError
	msg := fallback
	switch {
	case errors.As(err, &verr):
		msg = verr.Reason
	case errors.As(err, &aerr):
		msg = aerr.Reason
	case errors.Is(err, store.ErrNotFound):
		msg = "not found"
	default:
		httperrors.LogError(r, fallback, err)
	}
	h.redirect(w, r, path, map[string]string{"error": msg})
}

// render executes a template and writes the response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := h.templates[name]
	if !ok {
		httperrors.InternalError(w, r, fmt.Errorf("template not found"), fmt.Sprintf("template %q not found", name))
		return
	}

	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		httperrors.InternalError(w, r, err, fmt.Sprintf("template render error for %q", name))
	}
}

// currentWorkspace loads the signed-in user's workspace and members. When
// the user has no workspace yet, it redirects to the setup page and returns
// false.
func (h *Handler) currentWorkspace(w http.ResponseWriter, r *http.Request, userID int64) (*store.Workspace, []store.Member, bool) {
	ws, err := h.store.Workspaces.GetForUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Redirect(w, r, "/workspace", http.StatusSeeOther)
			return nil, nil, false
		}
		httperrors.InternalError(w, r, err, "load workspace")
		return nil, nil, false
	}
	members, err := h.store.Workspaces.ListMembers(r.Context(), ws.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load workspace members")
		return nil, nil, false
	}
	return ws, members, true
}

// memberIDs returns the members' user ids in join order as decimal strings,
// the form the layout and todo code works with.
func memberIDs(members []store.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = strconv.FormatInt(m.UserID, 10)
	}
	return ids
}

// partnerID returns the other member's id as a decimal string, or "" while
// the user is alone in the workspace.
func partnerID(members []store.Member, userID int64) string {
	for _, m := range members {
		if m.UserID != userID {
			return strconv.FormatInt(m.UserID, 10)
		}
	}
	return ""
}

// pathID parses a numeric {id} path parameter.
func pathID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

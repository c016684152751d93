package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"tandem/internal/auth"
	httperrors "tandem/internal/http/errors"
)

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := h.withFlash(r, map[string]any{
		"Title":         "Sign in",
		"GoogleEnabled": h.authService.GoogleEnabled(),
	})
	h.render(w, r, "login.html", data)
}

// Login handles the password sign-in form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/login", map[string]string{"error": "invalid form"})
		return
	}
	user, err := h.authService.SignIn(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.redirect(w, r, "/login", map[string]string{"error": err.Error()})
			return
		}
		httperrors.InternalError(w, r, err, "sign in")
		return
	}
	if err := h.authService.StartSession(r.Context(), w, r, user.ID); err != nil {
		httperrors.InternalError(w, r, err, "start session")
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// SignupPage renders the account creation form.
func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	data := h.withFlash(r, map[string]any{
		"Title":         "Create account",
		"GoogleEnabled": h.authService.GoogleEnabled(),
	})
	h.render(w, r, "signup.html", data)
}

// Signup handles the account creation form.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/signup", map[string]string{"error": "invalid form"})
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	password := r.FormValue("password")
	switch {
	case email == "" || !strings.Contains(email, "@"):
		h.redirect(w, r, "/signup", map[string]string{"error": "a valid email is required"})
		return
	case name == "":
		h.redirect(w, r, "/signup", map[string]string{"error": "name is required"})
		return
	case len(password) < 8:
		h.redirect(w, r, "/signup", map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	user, err := h.authService.SignUp(r.Context(), email, name, password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			h.redirect(w, r, "/signup", map[string]string{"error": err.Error()})
			return
		}
		httperrors.InternalError(w, r, err, "sign up")
		return
	}
	if err := h.authService.StartSession(r.Context(), w, r, user.ID); err != nil {
		httperrors.InternalError(w, r, err, "start session")
		return
	}
	http.Redirect(w, r, "/workspace", http.StatusFound)
}

// Logout ends the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearSession(r.Context(), w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// BeginGoogle starts the Google sign-in flow.
func (h *Handler) BeginGoogle(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.BeginGoogle(w, r); err != nil {
		h.redirect(w, r, "/login", map[string]string{"error": "google sign-in is not available"})
	}
}

// GoogleCallback completes the Google sign-in flow.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.HandleGoogleCallback(w, r)
	if err != nil {
		httperrors.LogError(r, "google callback", err)
		h.redirect(w, r, "/login", map[string]string{"error": "google sign-in failed"})
		return
	}
	if err := h.authService.StartSession(r.Context(), w, r, user.ID); err != nil {
		httperrors.InternalError(w, r, err, "start session")
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Sessions displays the user's active sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	sessions, err := h.store.Sessions.ListForUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load sessions")
		return
	}

	// Highlight the session making this request
	currentSessionID := auth.SessionIDFromContext(r.Context())

	var sessionData []map[string]any
	for _, s := range sessions {
		sessionData = append(sessionData, map[string]any{
			"ID":         s.ID,
			"UserAgent":  s.UserAgent,
			"CreatedAt":  s.CreatedAt,
			"ExpiresAt":  s.ExpiresAt,
			"LastSeenAt": s.LastSeenAt,
			"IsCurrent":  s.ID == currentSessionID,
		})
	}

	data := h.withFlash(r, map[string]any{
		"Title":    "Active Sessions",
		"User":     user,
		"Sessions": sessionData,
	})
	h.render(w, r, "sessions.html", data)
}

// RevokeSession revokes a single session.
func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	sessionID := chi.URLParam(r, "id")

	// Verify the session belongs to the user
	session, err := h.store.Sessions.Get(r.Context(), sessionID)
	if err != nil || session.UserID != user.ID {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if err := h.store.Sessions.Delete(r.Context(), sessionID); err != nil {
		httperrors.InternalError(w, r, err, "revoke session")
		return
	}

	h.redirect(w, r, "/sessions", map[string]string{"status": "session revoked"})
}

// RevokeAllSessions revokes every session except the current one.
func (h *Handler) RevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	currentSessionID := auth.SessionIDFromContext(r.Context())

	if err := h.store.Sessions.DeleteForUser(r.Context(), user.ID, currentSessionID); err != nil {
		httperrors.InternalError(w, r, err, "revoke sessions")
		return
	}

	h.redirect(w, r, "/sessions", map[string]string{"status": "other sessions revoked"})
}

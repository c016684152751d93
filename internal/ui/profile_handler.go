package ui

import (
	"net/http"
	"strings"
	"time"

	"tandem/internal/auth"
	"tandem/internal/calendar"
	"tandem/internal/colors"
	httperrors "tandem/internal/http/errors"
)

var themes = map[string]bool{"light": true, "dark": true}

// Profile renders account settings: theme and event color preferences.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	prefs := h.kv.ColorPrefs(r)
	defaults := colors.Defaults()

	user1 := defaults[colors.SlotUser1]
	if c, ok := prefs[colors.SlotUser1]; ok {
		user1 = c
	}
	user2 := defaults[colors.SlotUser2]
	if c, ok := prefs[colors.SlotUser2]; ok {
		user2 = c
	}

	data := h.withFlash(r, map[string]any{
		"Title":      "Profile",
		"User":       user,
		"Theme":      user.Theme,
		"User1Color": user1,
		"User2Color": user2,
	})
	h.render(w, r, "profile.html", data)
}

// UpdateProfile saves the about-me fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/profile", map[string]string{"error": "invalid form"})
		return
	}

	name := strings.TrimSpace(r.FormValue("displayName"))
	if name == "" {
		h.redirect(w, r, "/profile", map[string]string{"error": "display name is required"})
		return
	}
	bio := strings.TrimSpace(r.FormValue("bio"))

	var birthday *string
	if raw := strings.TrimSpace(r.FormValue("birthday")); raw != "" {
		if _, err := time.Parse(calendar.DateLayout, raw); err != nil {
			h.redirect(w, r, "/profile", map[string]string{"error": "birthday must be YYYY-MM-DD"})
			return
		}
		birthday = &raw
	}

	if err := h.store.Users.UpdateProfile(r.Context(), user.ID, name, birthday, bio); err != nil {
		httperrors.InternalError(w, r, err, "update profile")
		return
	}
	h.redirect(w, r, "/profile", map[string]string{"status": "profile updated"})
}

// SetTheme stores the user's light/dark preference.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/profile", map[string]string{"error": "invalid form"})
		return
	}
	theme := r.FormValue("theme")
	if !themes[theme] {
		h.redirect(w, r, "/profile", map[string]string{"error": "unknown theme"})
		return
	}
	if err := h.store.Users.SetTheme(r.Context(), user.ID, theme); err != nil {
		httperrors.InternalError(w, r, err, "set theme")
		return
	}
	h.redirect(w, r, "/profile", map[string]string{"status": "theme updated"})
}

// SaveColors merges submitted event colors into the browser's preferences.
// Invalid entries are dropped and reported; valid ones still apply.
func (h *Handler) SaveColors(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/profile", map[string]string{"error": "invalid form"})
		return
	}

	updates := map[string]string{}
	if v := r.FormValue("user1"); v != "" {
		updates["user1"] = v
	}
	if v := r.FormValue("user2"); v != "" {
		updates["user2"] = v
	}

	merged, rejected, err := colors.Merge(h.kv.ColorPrefs(r), updates)
	if err != nil {
		h.redirect(w, r, "/profile", map[string]string{"error": "no valid colors submitted"})
		return
	}
	if err := h.kv.SaveColorPrefs(w, merged); err != nil {
		httperrors.InternalError(w, r, err, "save color prefs")
		return
	}

	if len(rejected) > 0 {
		h.redirect(w, r, "/profile", map[string]string{
			"status": "colors saved",
			"error":  "some colors were not valid hex values and were skipped",
		})
		return
	}
	h.redirect(w, r, "/profile", map[string]string{"status": "colors saved"})
}

// ResetColors drops the browser's color preferences back to the defaults.
func (h *Handler) ResetColors(w http.ResponseWriter, r *http.Request) {
	h.kv.ClearColorPrefs(w)
	h.redirect(w, r, "/profile", map[string]string{"status": "colors reset"})
}

package ui

import (
	"crypto/sha256"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"

	"tandem/internal/colors"
	"tandem/internal/config"
)

const colorsCookieName = "tandem_event_colors"

// BrowserKV keeps per-browser preferences in a signed cookie. Event color
// choices are personal to the device, so they live client-side rather than
// in the workspace.
type BrowserKV struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewBrowserKV(cfg *config.Config) *BrowserKV {
	hash := sha256.Sum256([]byte("kv:" + cfg.Session.Secret))
	sc := securecookie.New(hash[:], hash[:])
	sc.MaxAge(86400 * 365)
	sc.SetSerializer(securecookie.JSONEncoder{})

	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}
	return &BrowserKV{codec: sc, secure: secure}
}

// ColorPrefs reads the saved event colors, dropping anything invalid a
// stale cookie might carry.
func (kv *BrowserKV) ColorPrefs(r *http.Request) map[colors.Slot]string {
	c, err := r.Cookie(colorsCookieName)
	if err != nil {
		return nil
	}
	var raw map[string]string
	if err := kv.codec.Decode(colorsCookieName, c.Value, &raw); err != nil {
		return nil
	}
	return colors.Sanitize(raw)
}

// SaveColorPrefs writes the merged color prefs back to the cookie.
func (kv *BrowserKV) SaveColorPrefs(w http.ResponseWriter, prefs map[colors.Slot]string) error {
	raw := make(map[string]string, len(prefs))
	for k, v := range prefs {
		raw[string(k)] = v
	}
	encoded, err := kv.codec.Encode(colorsCookieName, raw)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     colorsCookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   kv.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearColorPrefs drops the cookie, restoring the default colors.
func (kv *BrowserKV) ClearColorPrefs(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     colorsCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   kv.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

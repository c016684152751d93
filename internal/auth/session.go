package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"

	"tandem/internal/config"
)

// SessionTTL is how long a browser session stays valid without re-login.
const SessionTTL = 30 * 24 * time.Hour

// SessionManager issues and reads the session cookie. The cookie carries
// only an opaque session id; the session itself lives in the database so it
// can be listed and revoked from the sessions page.
type SessionManager struct {
	cookieName string
	codec      *securecookie.SecureCookie
	secure     bool
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	hash := sha256.Sum256([]byte(cfg.Session.Secret))
	hashKey := hash[:]

	// Derive an AES-256 sized block key to avoid invalid key length errors.
	blockKey := hash[:]
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(SessionTTL / time.Second))
	sc.SetSerializer(securecookie.JSONEncoder{})

	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}

	return &SessionManager{
		cookieName: "tandem_session",
		codec:      sc,
		secure:     secure,
	}
}

// NewSessionID returns a fresh random session token.
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Issue sets the session cookie for a session id.
func (m *SessionManager) Issue(w http.ResponseWriter, sessionID string) error {
	encoded, err := m.codec.Encode(m.cookieName, sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  time.Now().Add(SessionTTL),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionIDFromRequest extracts the session id from the request cookie.
func (m *SessionManager) SessionIDFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	var id string
	if err := m.codec.Decode(m.cookieName, c.Value, &id); err != nil {
		return "", false
	}
	if id == "" {
		return "", false
	}
	return id, true
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"tandem/internal/config"
	"tandem/internal/store"
)

// ErrInvalidCredentials is returned for a wrong email/password pair. The
// handler shows the same message for both cases so the form does not reveal
// which emails have accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned when signing up with an email that already has
// an account.
var ErrEmailTaken = errors.New("an account with this email already exists")

// Service handles password and Google sign-in and session lifecycle.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	sessions *SessionManager

	oauthConf *oauth2.Config
	verifier  *oidc.IDTokenVerifier
}

func NewService(ctx context.Context, cfg *config.Config, st *store.Store, sessions *SessionManager) (*Service, error) {
	s := &Service{cfg: cfg, store: st, sessions: sessions}

	if cfg.GoogleEnabled() {
		provider, err := oidc.NewProvider(ctx, cfg.Google.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("google oidc discovery: %w", err)
		}
		s.oauthConf = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + cfg.Google.RedirectPath,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		}
		s.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Google.ClientID})
	}
	return s, nil
}

// GoogleEnabled reports whether the Google sign-in flow is available.
func (s *Service) GoogleEnabled() bool {
	return s.oauthConf != nil
}

// SignUp creates a password account.
func (s *Service) SignUp(ctx context.Context, email, displayName, password string) (*store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.store.Users.CreatePassword(ctx, email, displayName, string(hash))
}

// SignIn verifies a password and returns the user.
func (s *Service) SignIn(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.store.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// StartSession creates a database session for the user and sets the cookie.
func (s *Service) StartSession(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := NewSessionID()
	if err != nil {
		return fmt.Errorf("new session id: %w", err)
	}
	sess := store.Session{
		ID:        id,
		UserID:    userID,
		UserAgent: r.UserAgent(),
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := s.store.Sessions.Create(ctx, sess); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := s.store.Users.TouchLogin(ctx, userID); err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return s.sessions.Issue(w, id)
}

// ClearSession deletes the database session and the cookie.
func (s *Service) ClearSession(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if id, ok := s.sessions.SessionIDFromRequest(r); ok {
		_ = s.store.Sessions.Delete(ctx, id)
	}
	s.sessions.Clear(w)
}

// RequireSession loads the session's user into the request context or
// redirects to the login page.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessions.SessionIDFromRequest(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		sess, err := s.store.Sessions.Get(r.Context(), id)
		if err != nil {
			s.sessions.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		user, err := s.store.Users.GetByID(r.Context(), sess.UserID)
		if err != nil {
			s.sessions.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		_ = s.store.Sessions.Touch(r.Context(), id)

		ctx := WithUser(r.Context(), user)
		ctx = WithSessionID(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BeginGoogle redirects to Google's consent screen. The state parameter is
// a nonce kept in a short-lived cookie and checked on callback.
func (s *Service) BeginGoogle(w http.ResponseWriter, r *http.Request) error {
	if s.oauthConf == nil {
		return errors.New("google sign-in is not configured")
	}
	state, err := NewSessionID()
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "tandem_oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.oauthConf.AuthCodeURL(state), http.StatusSeeOther)
	return nil
}

// HandleGoogleCallback completes the flow and returns the signed-in user.
func (s *Service) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) (*store.User, error) {
	if s.oauthConf == nil {
		return nil, errors.New("google sign-in is not configured")
	}
	stateCookie, err := r.Cookie("tandem_oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		return nil, errors.New("oauth state mismatch")
	}
	http.SetCookie(w, &http.Cookie{Name: "tandem_oauth_state", Value: "", Path: "/", MaxAge: -1})

	token, err := s.oauthConf.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("token response missing id_token")
	}
	idToken, err := s.verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return nil, errors.New("google account has no verified email")
	}
	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return s.store.Users.UpsertGoogle(r.Context(), idToken.Subject, strings.ToLower(claims.Email), name)
}

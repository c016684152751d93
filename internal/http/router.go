package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"tandem/internal/auth"
	"tandem/internal/blob"
	"tandem/internal/config"
	"tandem/internal/http/csrf"
	"tandem/internal/http/ratelimit"
	"tandem/internal/metrics"
	"tandem/internal/store"
	"tandem/internal/ui"
	"tandem/internal/watch"
)

// NewRouter wires all HTTP routes.
func NewRouter(cfg *config.Config, st *store.Store, authService *auth.Service, hub *watch.Hub, blobs *blob.Store) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(overrideMethod)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	uiHandler := ui.NewHandler(cfg, st, authService, hub, blobs)

	r.Group(func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Get("/login", uiHandler.LoginPage)
		r.Post("/login", uiHandler.Login)
		r.Get("/signup", uiHandler.SignupPage)
		r.Post("/signup", uiHandler.Signup)
		r.Get("/auth/google", uiHandler.BeginGoogle)
		r.Get("/auth/google/callback", uiHandler.GoogleCallback)
	})

	r.With(authService.RequireSession, csrf.Middleware(cfg)).Post("/logout", uiHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(authService.RequireSession)
		r.Use(csrf.Middleware(cfg))

		r.Get("/", uiHandler.Home)
		r.Get("/calendar", uiHandler.Calendar)
		r.Get("/calendar/day/{date}", uiHandler.Day)
		r.Get("/calendar/export.ics", uiHandler.ExportICS)
		r.Get("/stream", uiHandler.Stream)

		// Event CRUD
		r.Post("/events", uiHandler.CreateEvent)
		r.Put("/events/{id}", uiHandler.UpdateEvent)
		r.Delete("/events/{id}", uiHandler.DeleteEvent)
		r.Post("/events/{id}/delete", uiHandler.DeleteEvent) // HTML form fallback
		r.Post("/events/{id}/attachment", uiHandler.UploadAttachment)
		r.Get("/events/{id}/attachment", uiHandler.DownloadAttachment)
		r.Post("/events/{id}/attachment/delete", uiHandler.DeleteAttachment)

		// Tasks
		r.Get("/tasks", uiHandler.Tasks)
		r.Post("/todos", uiHandler.CreateTodo)
		r.Post("/todos/{id}/toggle", uiHandler.ToggleTodo)
		r.Delete("/todos/{id}", uiHandler.DeleteTodo)
		r.Post("/todos/{id}/delete", uiHandler.DeleteTodo) // HTML form fallback

		// Workspace
		r.Get("/workspace", uiHandler.Workspace)
		r.Post("/workspace", uiHandler.CreateWorkspace)
		r.Post("/workspace/join", uiHandler.JoinWorkspace)
		r.Post("/workspace/invite", uiHandler.RegenerateInvite)
		r.Post("/workspace/members/{id}/remove", uiHandler.RemoveMember)

		// Profile and preferences
		r.Get("/profile", uiHandler.Profile)
		r.Post("/profile", uiHandler.UpdateProfile)
		r.Post("/profile/theme", uiHandler.SetTheme)
		r.Post("/colors", uiHandler.SaveColors)
		r.Post("/colors/reset", uiHandler.ResetColors)

		r.Get("/sessions", uiHandler.Sessions)
		r.Post("/sessions/{id}/revoke", uiHandler.RevokeSession)
		r.Post("/sessions/revoke-all", uiHandler.RevokeAllSessions)
	})

	return r
}

func overrideMethod(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if r.Method == http.MethodPost {
			if m := strings.TrimSpace(r.PostFormValue("_method")); m != "" {
				method = m
			} else if m := strings.TrimSpace(r.URL.Query().Get("_method")); m != "" {
				method = m
			}
		}
		switch strings.ToUpper(method) {
		case http.MethodPut, http.MethodDelete:
			r.Method = strings.ToUpper(method)
		}
		next.ServeHTTP(w, r)
	})
}

package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"tandem/internal/auth"
	"tandem/internal/config"
	"tandem/internal/store"
)

// Fakes override just the methods a test exercises; the embedded interface
// panics loudly if a handler reaches for anything else.

type fakeWorkspaceRepo struct {
	store.WorkspaceRepository
	workspace *store.Workspace
	members   []store.Member
	err       error
}

func (f *fakeWorkspaceRepo) GetForUser(ctx context.Context, userID int64) (*store.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.workspace, nil
}

func (f *fakeWorkspaceRepo) ListMembers(ctx context.Context, workspaceID int64) ([]store.Member, error) {
	return f.members, nil
}

type fakeEventRepo struct {
	store.EventRepository
	events []store.Event
}

func (f *fakeEventRepo) ListForRange(ctx context.Context, workspaceID int64, from, to string) ([]store.Event, error) {
	return f.events, nil
}

type fakeTodoRepo struct {
	store.TodoRepository
	todos []store.Todo
}

func (f *fakeTodoRepo) List(ctx context.Context, workspaceID int64) ([]store.Todo, error) {
	return f.todos, nil
}

func testHandler(t *testing.T, st *store.Store) *Handler {
	t.Helper()
	cfg := &config.Config{BaseURL: "http://localhost:8080"}
	cfg.Session.Secret = strings.Repeat("s", 32)
	return NewHandler(cfg, st, nil, nil, nil)
}

func authedRequest(method, target string, user *store.User) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	return r.WithContext(auth.WithUser(r.Context(), user))
}

func strptr(s string) *string { return &s }

func TestCalendarPage(t *testing.T) {
	user := &store.User{ID: 7, DisplayName: "Ada", Theme: "light"}
	st := &store.Store{
		Workspaces: &fakeWorkspaceRepo{
			workspace: &store.Workspace{ID: 1, Name: "Our space", OwnerID: 7},
			members: []store.Member{
				{UserID: 7, DisplayName: "Ada"},
				{UserID: 12, DisplayName: "Grace"},
			},
		},
		Events: &fakeEventRepo{
			events: []store.Event{
				{
					ID: 1, WorkspaceID: 1, Title: "Dentist",
					StartDate: "2024-03-10", EndDate: "2024-03-10",
					StartTime: strptr("09:00"), EndTime: strptr("10:00"),
					CreatedBy: 7,
				},
				{
					ID: 2, WorkspaceID: 1, Title: "Road trip",
					StartDate: "2024-03-15", EndDate: "2024-03-19",
					Shared: true, CreatedBy: 12,
				},
			},
		},
	}

	h := testHandler(t, st)
	w := httptest.NewRecorder()
	h.Calendar(w, authedRequest(http.MethodGet, "/calendar?month=2024-03", user))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{"March 2024", "Dentist", "Road trip", "2024-02", "2024-04"} {
		if !strings.Contains(body, want) {
			t.Errorf("calendar page missing %q", want)
		}
	}
}

func TestCalendarRedirectsWithoutWorkspace(t *testing.T) {
	user := &store.User{ID: 7, DisplayName: "Ada"}
	st := &store.Store{
		Workspaces: &fakeWorkspaceRepo{err: store.ErrNotFound},
	}

	h := testHandler(t, st)
	w := httptest.NewRecorder()
	h.Calendar(w, authedRequest(http.MethodGet, "/calendar", user))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/workspace" {
		t.Errorf("Location = %q, want /workspace", loc)
	}
}

func TestDayPage(t *testing.T) {
	user := &store.User{ID: 7, DisplayName: "Ada"}
	st := &store.Store{
		Workspaces: &fakeWorkspaceRepo{
			workspace: &store.Workspace{ID: 1, Name: "Our space", OwnerID: 7},
			members:   []store.Member{{UserID: 7, DisplayName: "Ada"}},
		},
		Events: &fakeEventRepo{
			events: []store.Event{
				{
					ID: 3, WorkspaceID: 1, Title: "Groceries",
					StartDate: "2024-03-10", EndDate: "2024-03-10",
					CreatedBy: 7,
				},
			},
		},
	}

	h := testHandler(t, st)
	w := httptest.NewRecorder()
	r := authedRequest(http.MethodGet, "/calendar/day/2024-03-10", user)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("date", "2024-03-10")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	h.Day(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Groceries") {
		t.Errorf("day page missing event title")
	}
}

func TestDayRejectsBadDate(t *testing.T) {
	user := &store.User{ID: 7, DisplayName: "Ada"}
	st := &store.Store{
		Workspaces: &fakeWorkspaceRepo{
			workspace: &store.Workspace{ID: 1, OwnerID: 7},
			members:   []store.Member{{UserID: 7, DisplayName: "Ada"}},
		},
	}

	h := testHandler(t, st)
	w := httptest.NewRecorder()
	r := authedRequest(http.MethodGet, "/calendar/day/yesterday", user)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("date", "yesterday")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	h.Day(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestTasksPageFiltersByTab(t *testing.T) {
	user := &store.User{ID: 7, DisplayName: "Ada"}
	st := &store.Store{
		Workspaces: &fakeWorkspaceRepo{
			workspace: &store.Workspace{ID: 1, Name: "Our space", OwnerID: 7},
			members: []store.Member{
				{UserID: 7, DisplayName: "Ada"},
				{UserID: 12, DisplayName: "Grace"},
			},
		},
		Todos: &fakeTodoRepo{
			todos: []store.Todo{
				{ID: 1, WorkspaceID: 1, Title: "Buy milk", Assignee: "7", CreatedBy: 7},
				{ID: 2, WorkspaceID: 1, Title: "Call plumber", Assignee: "12", CreatedBy: 12},
				{ID: 3, WorkspaceID: 1, Title: "Plan vacation", Assignee: "shared", CreatedBy: 7},
			},
		},
	}

	h := testHandler(t, st)

	tests := []struct {
		tab      string
		want     string
		excluded []string
	}{
		{tab: "mine", want: "Buy milk", excluded: []string{"Call plumber", "Plan vacation"}},
		{tab: "partner", want: "Call plumber", excluded: []string{"Buy milk", "Plan vacation"}},
		{tab: "shared", want: "Plan vacation", excluded: []string{"Buy milk", "Call plumber"}},
	}

	for _, tc := range tests {
		t.Run(tc.tab, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Tasks(w, authedRequest(http.MethodGet, "/tasks?tab="+tc.tab, user))

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			body := w.Body.String()
			if !strings.Contains(body, tc.want) {
				t.Errorf("tab %s missing %q", tc.tab, tc.want)
			}
			for _, ex := range tc.excluded {
				if strings.Contains(body, ex) {
					t.Errorf("tab %s unexpectedly shows %q", tc.tab, ex)
				}
			}
		})
	}
}

package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records the SQL issued by a repository and returns canned results.
type fakeDB struct {
	lastSQL  string
	lastArgs []any

	rowErr  error
	execTag string
	execErr error
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL = sql
	f.lastArgs = args
	return errRow{err: f.rowErr}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.lastSQL = sql
	f.lastArgs = arguments
	tag := f.execTag
	if tag == "" {
		tag = "UPDATE 1"
	}
	return pgconn.NewCommandTag(tag), f.execErr
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL = sql
	f.lastArgs = args
	if f.rowErr != nil {
		return nil, f.rowErr
	}
	return emptyRows{}, nil
}

func (f *fakeDB) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("unexpected begin tx")
}

func (f *fakeDB) Ping(ctx context.Context) error { return nil }

type emptyRows struct{}

func (emptyRows) Close()                                       {}
func (emptyRows) Err() error                                   { return nil }
func (emptyRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (emptyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (emptyRows) Next() bool                                   { return false }
func (emptyRows) Scan(dest ...any) error                       { return errors.New("no rows") }
func (emptyRows) Values() ([]any, error)                       { return nil, nil }
func (emptyRows) RawValues() [][]byte                          { return nil }
func (emptyRows) Conn() *pgx.Conn                              { return nil }

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return errors.New("no canned row data")
}

func TestGetByIDMapsNoRows(t *testing.T) {
	db := &fakeDB{rowErr: pgx.ErrNoRows}
	s := New(db)

	if _, err := s.Events.GetByID(context.Background(), 1, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("events: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Todos.GetByID(context.Background(), 1, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("todos: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Users.GetByID(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("users: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Invitations.FindActiveByCode(context.Background(), "ABC123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("invitations: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Sessions.Get(context.Background(), "tok"); !errors.Is(err, ErrNotFound) {
		t.Errorf("sessions: err = %v, want ErrNotFound", err)
	}
}

func TestWritesScopedToWorkspace(t *testing.T) {
	db := &fakeDB{}
	s := New(db)
	ctx := context.Background()

	checks := []struct {
		name string
		call func() error
	}{
		{"event delete", func() error { return s.Events.Delete(ctx, 7, 1) }},
		{"event attachment", func() error { return s.Events.SetAttachment(ctx, 7, 1, nil, nil) }},
		{"todo delete", func() error { return s.Todos.Delete(ctx, 7, 1) }},
		{"todo toggle", func() error { return s.Todos.SetCompleted(ctx, 7, 1, true) }},
	}
	for _, c := range checks {
		if err := c.call(); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !strings.Contains(db.lastSQL, "workspace_id = $1") {
			t.Errorf("%s: statement not scoped to workspace: %s", c.name, db.lastSQL)
		}
	}
}

func TestAffectedZeroRowsIsNotFound(t *testing.T) {
	db := &fakeDB{execTag: "UPDATE 0"}
	s := New(db)
	ctx := context.Background()

	checks := []struct {
		name string
		call func() error
	}{
		{"event delete", func() error { return s.Events.Delete(ctx, 7, 99) }},
		{"todo toggle", func() error { return s.Todos.SetCompleted(ctx, 7, 99, true) }},
		{"remove member", func() error { return s.Workspaces.RemoveMember(ctx, 7, 99) }},
		{"invite code", func() error { return s.Workspaces.SetInviteCode(ctx, 99, nil) }},
		{"set theme", func() error { return s.Users.SetTheme(ctx, 99, "dark") }},
		{"accept invitation", func() error { return s.Invitations.Accept(ctx, 99, 1) }},
	}
	for _, c := range checks {
		if err := c.call(); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", c.name, err)
		}
	}
}

func TestListForRangeOverlapQuery(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	_, _ = s.Events.ListForRange(context.Background(), 7, "2024-03-01", "2024-03-31")
	if !strings.Contains(db.lastSQL, "start_date <= $3::date AND end_date >= $2::date") {
		t.Errorf("range query must match overlapping events: %s", db.lastSQL)
	}
	if len(db.lastArgs) != 3 || db.lastArgs[1] != "2024-03-01" || db.lastArgs[2] != "2024-03-31" {
		t.Errorf("unexpected args: %v", db.lastArgs)
	}
}

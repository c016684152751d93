package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// userRepo implements UserRepository.
type userRepo struct {
	db DB
}

const userColumns = `id, email, display_name, password_hash, google_subject, theme, birthday::text, bio, created_at, last_login_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.GoogleSubject, &u.Theme, &u.Birthday, &u.Bio, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

func (r *userRepo) CreatePassword(ctx context.Context, email, displayName, passwordHash string) (*User, error) {
	defer observeDB(ctx, "users.create_password")()
	const q = `INSERT INTO users (email, display_name, password_hash)
VALUES ($1, $2, $3)
RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, q, email, displayName, passwordHash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *userRepo) UpsertGoogle(ctx context.Context, subject, email, displayName string) (*User, error) {
	defer observeDB(ctx, "users.upsert_google")()
	// Link the Google identity to an existing password account with the
	// same email rather than creating a duplicate.
	const q = `INSERT INTO users (email, display_name, google_subject)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET google_subject = EXCLUDED.google_subject
RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, q, email, displayName, subject))
	if err != nil {
		return nil, fmt.Errorf("upsert google user: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	defer observeDB(ctx, "users.get_by_id")()
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	defer observeDB(ctx, "users.get_by_email")()
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRow(ctx, q, email))
}

func (r *userRepo) TouchLogin(ctx context.Context, id int64) error {
	defer observeDB(ctx, "users.touch_login")()
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *userRepo) UpdateProfile(ctx context.Context, id int64, displayName string, birthday *string, bio string) error {
	defer observeDB(ctx, "users.update_profile")()
	tag, err := r.db.Exec(ctx, `UPDATE users SET display_name = $2, birthday = $3::date, bio = $4 WHERE id = $1`,
		id, displayName, birthday, bio)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) SetTheme(ctx context.Context, id int64, theme string) error {
	defer observeDB(ctx, "users.set_theme")()
	tag, err := r.db.Exec(ctx, `UPDATE users SET theme = $2 WHERE id = $1`, id, theme)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// workspaceRepo implements WorkspaceRepository.
type workspaceRepo struct {
	db DB
}

const workspaceColumns = `id, name, owner_id, invite_code, created_at`

func scanWorkspace(row pgx.Row) (*Workspace, error) {
	var w Workspace
	err := row.Scan(&w.ID, &w.Name, &w.OwnerID, &w.InviteCode, &w.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &w, nil
}

func (r *workspaceRepo) Create(ctx context.Context, name string, ownerID int64) (*Workspace, error) {
	defer observeDB(ctx, "workspaces.create")()
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer tx.Rollback(ctx)

	var w Workspace
	err = tx.QueryRow(ctx, `INSERT INTO workspaces (name, owner_id) VALUES ($1, $2) RETURNING `+workspaceColumns, name, ownerID).
		Scan(&w.ID, &w.Name, &w.OwnerID, &w.InviteCode, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO workspace_members (workspace_id, user_id) VALUES ($1, $2)`, w.ID, ownerID); err != nil {
		return nil, fmt.Errorf("add owner membership: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &w, nil
}

func (r *workspaceRepo) GetByID(ctx context.Context, id int64) (*Workspace, error) {
	defer observeDB(ctx, "workspaces.get_by_id")()
	const q = `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`
	return scanWorkspace(r.db.QueryRow(ctx, q, id))
}

func (r *workspaceRepo) GetForUser(ctx context.Context, userID int64) (*Workspace, error) {
	defer observeDB(ctx, "workspaces.get_for_user")()
	const q = `SELECT w.id, w.name, w.owner_id, w.invite_code, w.created_at
FROM workspaces w
JOIN workspace_members m ON m.workspace_id = w.id
WHERE m.user_id = $1
ORDER BY m.joined_at
LIMIT 1`
	return scanWorkspace(r.db.QueryRow(ctx, q, userID))
}

func (r *workspaceRepo) ListMembers(ctx context.Context, workspaceID int64) ([]Member, error) {
	defer observeDB(ctx, "workspaces.list_members")()
	const q = `SELECT m.workspace_id, m.user_id, u.display_name, u.email, m.joined_at
FROM workspace_members m
JOIN users u ON u.id = m.user_id
WHERE m.workspace_id = $1
ORDER BY m.joined_at, m.user_id`
	rows, err := r.db.Query(ctx, q, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.DisplayName, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *workspaceRepo) AddMember(ctx context.Context, workspaceID, userID int64) error {
	defer observeDB(ctx, "workspaces.add_member")()
	const q = `INSERT INTO workspace_members (workspace_id, user_id) VALUES ($1, $2)
ON CONFLICT (workspace_id, user_id) DO NOTHING`
	_, err := r.db.Exec(ctx, q, workspaceID, userID)
	return err
}

func (r *workspaceRepo) RemoveMember(ctx context.Context, workspaceID, userID int64) error {
	defer observeDB(ctx, "workspaces.remove_member")()
	tag, err := r.db.Exec(ctx, `DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *workspaceRepo) SetInviteCode(ctx context.Context, workspaceID int64, code *string) error {
	defer observeDB(ctx, "workspaces.set_invite_code")()
	tag, err := r.db.Exec(ctx, `UPDATE workspaces SET invite_code = $2 WHERE id = $1`, workspaceID, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// eventRepo implements EventRepository.
type eventRepo struct {
	db DB
}

const eventColumns = `id, workspace_id, title, description, location, start_date::text, end_date::text,
start_time, end_time, shared, created_by, attachment_name, attachment_path, created_at, updated_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.WorkspaceID, &e.Title, &e.Description, &e.Location, &e.StartDate, &e.EndDate,
		&e.StartTime, &e.EndTime, &e.Shared, &e.CreatedBy, &e.AttachmentName, &e.AttachmentPath,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &e, nil
}

func (r *eventRepo) Create(ctx context.Context, ev Event) (*Event, error) {
	defer observeDB(ctx, "events.create")()
	const q = `INSERT INTO events (workspace_id, title, description, location, start_date, end_date, start_time, end_time, shared, created_by)
VALUES ($1, $2, $3, $4, $5::date, $6::date, $7, $8, $9, $10)
RETURNING ` + eventColumns
	e, err := scanEvent(r.db.QueryRow(ctx, q, ev.WorkspaceID, ev.Title, ev.Description, ev.Location,
		ev.StartDate, ev.EndDate, ev.StartTime, ev.EndTime, ev.Shared, ev.CreatedBy))
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

func (r *eventRepo) Update(ctx context.Context, ev Event) (*Event, error) {
	defer observeDB(ctx, "events.update")()
	const q = `UPDATE events
SET title = $3, description = $4, location = $5, start_date = $6::date, end_date = $7::date,
    start_time = $8, end_time = $9, shared = $10, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2
RETURNING ` + eventColumns
	e, err := scanEvent(r.db.QueryRow(ctx, q, ev.WorkspaceID, ev.ID, ev.Title, ev.Description, ev.Location,
		ev.StartDate, ev.EndDate, ev.StartTime, ev.EndTime, ev.Shared))
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepo) Delete(ctx context.Context, workspaceID, id int64) error {
	defer observeDB(ctx, "events.delete")()
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, workspaceID, id int64) (*Event, error) {
	defer observeDB(ctx, "events.get_by_id")()
	const q = `SELECT ` + eventColumns + ` FROM events WHERE workspace_id = $1 AND id = $2`
	return scanEvent(r.db.QueryRow(ctx, q, workspaceID, id))
}

func (r *eventRepo) listEvents(ctx context.Context, q string, args ...any) ([]Event, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.Title, &e.Description, &e.Location, &e.StartDate, &e.EndDate,
			&e.StartTime, &e.EndTime, &e.Shared, &e.CreatedBy, &e.AttachmentName, &e.AttachmentPath,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepo) ListForRange(ctx context.Context, workspaceID int64, from, to string) ([]Event, error) {
	defer observeDB(ctx, "events.list_for_range")()
	// Any event whose inclusive [start, end] range touches [from, to].
	const q = `SELECT ` + eventColumns + ` FROM events
WHERE workspace_id = $1 AND start_date <= $3::date AND end_date >= $2::date
ORDER BY start_date, id`
	return r.listEvents(ctx, q, workspaceID, from, to)
}

func (r *eventRepo) ListAll(ctx context.Context, workspaceID int64) ([]Event, error) {
	defer observeDB(ctx, "events.list_all")()
	const q = `SELECT ` + eventColumns + ` FROM events WHERE workspace_id = $1 ORDER BY start_date, id`
	return r.listEvents(ctx, q, workspaceID)
}

func (r *eventRepo) SetAttachment(ctx context.Context, workspaceID, id int64, name, path *string) error {
	defer observeDB(ctx, "events.set_attachment")()
	const q = `UPDATE events SET attachment_name = $3, attachment_path = $4, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, q, workspaceID, id, name, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// todoRepo implements TodoRepository.
type todoRepo struct {
	db DB
}

const todoColumns = `id, workspace_id, title, notes, assignee, due_date::text, completed, created_by, created_at, updated_at`

func scanTodo(row pgx.Row) (*Todo, error) {
	var td Todo
	err := row.Scan(&td.ID, &td.WorkspaceID, &td.Title, &td.Notes, &td.Assignee, &td.DueDate,
		&td.Completed, &td.CreatedBy, &td.CreatedAt, &td.UpdatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &td, nil
}

func (r *todoRepo) Create(ctx context.Context, td Todo) (*Todo, error) {
	defer observeDB(ctx, "todos.create")()
	const q = `INSERT INTO todos (workspace_id, title, notes, assignee, due_date, created_by)
VALUES ($1, $2, $3, $4, $5::date, $6)
RETURNING ` + todoColumns
	out, err := scanTodo(r.db.QueryRow(ctx, q, td.WorkspaceID, td.Title, td.Notes, td.Assignee, td.DueDate, td.CreatedBy))
	if err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return out, nil
}

func (r *todoRepo) Delete(ctx context.Context, workspaceID, id int64) error {
	defer observeDB(ctx, "todos.delete")()
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *todoRepo) GetByID(ctx context.Context, workspaceID, id int64) (*Todo, error) {
	defer observeDB(ctx, "todos.get_by_id")()
	const q = `SELECT ` + todoColumns + ` FROM todos WHERE workspace_id = $1 AND id = $2`
	return scanTodo(r.db.QueryRow(ctx, q, workspaceID, id))
}

func (r *todoRepo) List(ctx context.Context, workspaceID int64) ([]Todo, error) {
	defer observeDB(ctx, "todos.list")()
	const q = `SELECT ` + todoColumns + ` FROM todos WHERE workspace_id = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, q, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []Todo
	for rows.Next() {
		var td Todo
		if err := rows.Scan(&td.ID, &td.WorkspaceID, &td.Title, &td.Notes, &td.Assignee, &td.DueDate,
			&td.Completed, &td.CreatedBy, &td.CreatedAt, &td.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, td)
	}
	return todos, rows.Err()
}

func (r *todoRepo) SetCompleted(ctx context.Context, workspaceID, id int64, completed bool) error {
	defer observeDB(ctx, "todos.set_completed")()
	const q = `UPDATE todos SET completed = $3, updated_at = NOW() WHERE workspace_id = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, q, workspaceID, id, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// invitationRepo implements InvitationRepository.
type invitationRepo struct {
	db DB
}

const invitationColumns = `id, workspace_id, code, created_by, expires_at, accepted_by, accepted_at, created_at`

func scanInvitation(row pgx.Row) (*Invitation, error) {
	var inv Invitation
	err := row.Scan(&inv.ID, &inv.WorkspaceID, &inv.Code, &inv.CreatedBy, &inv.ExpiresAt,
		&inv.AcceptedBy, &inv.AcceptedAt, &inv.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &inv, nil
}

func (r *invitationRepo) Create(ctx context.Context, inv Invitation) (*Invitation, error) {
	defer observeDB(ctx, "invitations.create")()
	const q = `INSERT INTO invitations (workspace_id, code, created_by, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + invitationColumns
	out, err := scanInvitation(r.db.QueryRow(ctx, q, inv.WorkspaceID, inv.Code, inv.CreatedBy, inv.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return out, nil
}

func (r *invitationRepo) FindActiveByCode(ctx context.Context, code string) (*Invitation, error) {
	defer observeDB(ctx, "invitations.find_active")()
	const q = `SELECT ` + invitationColumns + ` FROM invitations
WHERE upper(code) = upper($1) AND accepted_at IS NULL AND expires_at > NOW()`
	return scanInvitation(r.db.QueryRow(ctx, q, code))
}

func (r *invitationRepo) Accept(ctx context.Context, id, userID int64) error {
	defer observeDB(ctx, "invitations.accept")()
	const q = `UPDATE invitations SET accepted_by = $2, accepted_at = NOW()
WHERE id = $1 AND accepted_at IS NULL`
	tag, err := r.db.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invitationRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	defer observeDB(ctx, "invitations.delete_expired")()
	tag, err := r.db.Exec(ctx, `DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// sessionRepo implements SessionRepository.
type sessionRepo struct {
	db DB
}

const sessionColumns = `id, user_id, user_agent, created_at, last_seen_at, expires_at`

func (r *sessionRepo) Create(ctx context.Context, sess Session) error {
	defer observeDB(ctx, "sessions.create")()
	const q = `INSERT INTO sessions (id, user_id, user_agent, expires_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, q, sess.ID, sess.UserID, sess.UserAgent, sess.ExpiresAt)
	return err
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	defer observeDB(ctx, "sessions.get")()
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND expires_at > NOW()`
	var s Session
	err := r.db.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.UserAgent, &s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &s, nil
}

func (r *sessionRepo) Touch(ctx context.Context, id string) error {
	defer observeDB(ctx, "sessions.touch")()
	_, err := r.db.Exec(ctx, `UPDATE sessions SET last_seen_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "sessions.delete")()
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *sessionRepo) DeleteForUser(ctx context.Context, userID int64, exceptID string) error {
	defer observeDB(ctx, "sessions.delete_for_user")()
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1 AND id <> $2`, userID, exceptID)
	return err
}

func (r *sessionRepo) ListForUser(ctx context.Context, userID int64) ([]Session, error) {
	defer observeDB(ctx, "sessions.list_for_user")()
	const q = `SELECT ` + sessionColumns + ` FROM sessions
WHERE user_id = $1 AND expires_at > NOW()
ORDER BY last_seen_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	defer observeDB(ctx, "sessions.delete_expired")()
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

package store

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	CreatePassword(ctx context.Context, email, displayName, passwordHash string) (*User, error)
	UpsertGoogle(ctx context.Context, subject, email, displayName string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	TouchLogin(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, id int64, displayName string, birthday *string, bio string) error
	SetTheme(ctx context.Context, id int64, theme string) error
}

// WorkspaceRepository handles workspaces and their memberships.
type WorkspaceRepository interface {
	Create(ctx context.Context, name string, ownerID int64) (*Workspace, error)
	GetByID(ctx context.Context, id int64) (*Workspace, error)
	GetForUser(ctx context.Context, userID int64) (*Workspace, error)
	ListMembers(ctx context.Context, workspaceID int64) ([]Member, error)
	AddMember(ctx context.Context, workspaceID, userID int64) error
	RemoveMember(ctx context.Context, workspaceID, userID int64) error
	SetInviteCode(ctx context.Context, workspaceID int64, code *string) error
}

// EventRepository handles calendar entries.
type EventRepository interface {
	Create(ctx context.Context, ev Event) (*Event, error)
	Update(ctx context.Context, ev Event) (*Event, error)
	Delete(ctx context.Context, workspaceID, id int64) error
	GetByID(ctx context.Context, workspaceID, id int64) (*Event, error)
	ListForRange(ctx context.Context, workspaceID int64, from, to string) ([]Event, error)
	ListAll(ctx context.Context, workspaceID int64) ([]Event, error)
	SetAttachment(ctx context.Context, workspaceID, id int64, name, path *string) error
}

// TodoRepository handles tasks.
type TodoRepository interface {
	Create(ctx context.Context, td Todo) (*Todo, error)
	Delete(ctx context.Context, workspaceID, id int64) error
	GetByID(ctx context.Context, workspaceID, id int64) (*Todo, error)
	List(ctx context.Context, workspaceID int64) ([]Todo, error)
	SetCompleted(ctx context.Context, workspaceID, id int64, completed bool) error
}

// InvitationRepository handles workspace join codes.
type InvitationRepository interface {
	Create(ctx context.Context, inv Invitation) (*Invitation, error)
	FindActiveByCode(ctx context.Context, code string) (*Invitation, error)
	Accept(ctx context.Context, id, userID int64) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionRepository handles browser sessions.
type SessionRepository interface {
	Create(ctx context.Context, sess Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteForUser(ctx context.Context, userID int64, exceptID string) error
	ListForUser(ctx context.Context, userID int64) ([]Session, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

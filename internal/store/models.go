package store

import "time"

// User is an account. PasswordHash is nil for Google-only accounts and
// GoogleSubject nil for password-only ones; at least one is always set.
type User struct {
	ID            int64
	Email         string
	DisplayName   string
	PasswordHash  *string
	GoogleSubject *string
	Theme         string
	Birthday      *string
	Bio           string
	CreatedAt     time.Time
	LastLoginAt   *time.Time
}

// Workspace is the shared space a couple works in. InviteCode is the
// currently active join code, nil when none is outstanding.
type Workspace struct {
	ID         int64
	Name       string
	OwnerID    int64
	InviteCode *string
	CreatedAt  time.Time
}

// Member is a user's membership in a workspace, in join order.
type Member struct {
	WorkspaceID int64
	UserID      int64
	DisplayName string
	Email       string
	JoinedAt    time.Time
}

// Event is a calendar entry. Dates are stored as DATE columns and exposed
// as YYYY-MM-DD strings; times are optional HH:MM strings.
type Event struct {
	ID             int64
	WorkspaceID    int64
	Title          string
	Description    string
	Location       string
	StartDate      string
	EndDate        string
	StartTime      *string
	EndTime        *string
	Shared         bool
	CreatedBy      int64
	AttachmentName *string
	AttachmentPath *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Todo is a task. Assignee is a member's user id in decimal form or the
// literal "shared".
type Todo struct {
	ID          int64
	WorkspaceID int64
	Title       string
	Notes       string
	Assignee    string
	DueDate     *string
	Completed   bool
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Invitation is a pending or accepted join code for a workspace.
type Invitation struct {
	ID          int64
	WorkspaceID int64
	Code        string
	CreatedBy   int64
	ExpiresAt   time.Time
	AcceptedBy  *int64
	AcceptedAt  *time.Time
	CreatedAt   time.Time
}

// Session is a signed-in browser session; the id is the random token kept
// in the session cookie.
type Session struct {
	ID         string
	UserID     int64
	UserAgent  string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

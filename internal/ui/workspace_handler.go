package ui

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tandem/internal/app"
	"tandem/internal/auth"
	httperrors "tandem/internal/http/errors"
	"tandem/internal/store"
)

// inviteTTL is how long a join code stays usable.
const inviteTTL = 7 * 24 * time.Hour

// maxMembers caps a workspace at a couple.
const maxMembers = 2

// Workspace shows the setup page (create or join) for users without a
// workspace, and the members page for users with one.
func (h *Handler) Workspace(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	ws, err := h.store.Workspaces.GetForUser(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			data := h.withFlash(r, map[string]any{
				"Title": "Set up your workspace",
				"User":  user,
			})
			h.render(w, r, "setup.html", data)
			return
		}
		httperrors.InternalError(w, r, err, "load workspace")
		return
	}

	members, err := h.store.Workspaces.ListMembers(r.Context(), ws.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load workspace members")
		return
	}

	inviteCode := ""
	if ws.InviteCode != nil && len(members) < maxMembers {
		inviteCode = *ws.InviteCode
	}

	data := h.withFlash(r, map[string]any{
		"Title":      "Workspace",
		"User":       user,
		"Workspace":  ws,
		"Members":    members,
		"IsOwner":    ws.OwnerID == user.ID,
		"InviteCode": inviteCode,
		"HasRoom":    len(members) < maxMembers,
	})
	h.render(w, r, "workspace.html", data)
}

// CreateWorkspace creates a workspace with the user as owner and issues the
// first invite code.
func (h *Handler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if _, err := h.store.Workspaces.GetForUser(r.Context(), user.ID); err == nil {
		h.redirect(w, r, "/workspace", map[string]string{"error": "you already have a workspace"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		httperrors.InternalError(w, r, err, "load workspace")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/workspace", map[string]string{"error": "invalid form"})
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = user.DisplayName + "'s workspace"
	}

	ws, err := h.store.Workspaces.Create(r.Context(), name, user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "create workspace")
		return
	}
	if err := h.issueInvite(r, ws.ID, user.ID); err != nil {
		httperrors.LogError(r, "issue initial invite", err)
	}
	h.redirect(w, r, "/workspace", map[string]string{"status": "workspace created"})
}

// JoinWorkspace adds the user to a workspace via invite code.
func (h *Handler) JoinWorkspace(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if _, err := h.store.Workspaces.GetForUser(r.Context(), user.ID); err == nil {
		h.redirect(w, r, "/workspace", map[string]string{"error": "you already have a workspace"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		httperrors.InternalError(w, r, err, "load workspace")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/workspace", map[string]string{"error": "invalid form"})
		return
	}
	code := strings.ToUpper(strings.TrimSpace(r.FormValue("code")))
	if code == "" {
		h.redirect(w, r, "/workspace", map[string]string{"error": "an invite code is required"})
		return
	}

	inv, err := h.store.Invitations.FindActiveByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.redirect(w, r, "/workspace", map[string]string{"error": "that invite code is not valid"})
			return
		}
		httperrors.InternalError(w, r, err, "look up invitation")
		return
	}

	members, err := h.store.Workspaces.ListMembers(r.Context(), inv.WorkspaceID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load workspace members")
		return
	}
	if len(members) >= maxMembers {
		h.redirect(w, r, "/workspace", map[string]string{"error": "that workspace is already full"})
		return
	}

	if err := h.store.Workspaces.AddMember(r.Context(), inv.WorkspaceID, user.ID); err != nil {
		httperrors.InternalError(w, r, err, "join workspace")
		return
	}
	if err := h.store.Invitations.Accept(r.Context(), inv.ID, user.ID); err != nil {
		httperrors.LogError(r, "mark invitation accepted", err)
	}
	// The workspace is full now, so retire the code.
	if err := h.store.Workspaces.SetInviteCode(r.Context(), inv.WorkspaceID, nil); err != nil {
		httperrors.LogError(r, "clear invite code", err)
	}

	h.hub.Publish(r.Context(), inv.WorkspaceID)
	h.redirect(w, r, "/", map[string]string{"status": "welcome to the workspace"})
}

// RegenerateInvite replaces the workspace's invite code. Owner only.
func (h *Handler) RegenerateInvite(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, members, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}
	if ws.OwnerID != user.ID {
		h.redirect(w, r, "/workspace", map[string]string{"error": "only the owner can manage invites"})
		return
	}
	if len(members) >= maxMembers {
		h.redirect(w, r, "/workspace", map[string]string{"error": "the workspace is already full"})
		return
	}

	if err := h.issueInvite(r, ws.ID, user.ID); err != nil {
		httperrors.InternalError(w, r, err, "issue invite")
		return
	}
	h.redirect(w, r, "/workspace", map[string]string{"status": "new invite code issued"})
}

func (h *Handler) issueInvite(r *http.Request, workspaceID, userID int64) error {
	code, err := app.GenerateInviteCode()
	if err != nil {
		return err
	}
	if _, err := h.store.Invitations.Create(r.Context(), store.Invitation{
		WorkspaceID: workspaceID,
		Code:        code,
		CreatedBy:   userID,
		ExpiresAt:   time.Now().Add(inviteTTL),
	}); err != nil {
		return err
	}
	return h.store.Workspaces.SetInviteCode(r.Context(), workspaceID, &code)
}

// RemoveMember removes a member from the workspace. Only the owner may do
// this, and never to themselves.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ws, _, ok := h.currentWorkspace(w, r, user.ID)
	if !ok {
		return
	}

	targetID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.redirect(w, r, "/workspace", map[string]string{"error": "invalid member"})
		return
	}
	if err := app.CanRemoveMember(ws.OwnerID, user.ID, targetID); err != nil {
		h.redirectErr(w, r, "/workspace", err, "cannot remove member")
		return
	}

	if err := h.store.Workspaces.RemoveMember(r.Context(), ws.ID, targetID); err != nil {
		h.redirectErr(w, r, "/workspace", err, "remove member")
		return
	}

	h.hub.Publish(r.Context(), ws.ID)
	h.redirect(w, r, "/workspace", map[string]string{"status": "member removed"})
}

package app

import (
	"crypto/rand"
	"fmt"
)

// inviteAlphabet omits easily confused characters (0/O, 1/I/L).
const inviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// InviteCodeLength is the length of workspace invite codes.
const InviteCodeLength = 6

// GenerateInviteCode returns a random code a partner types in to join a
// workspace. Codes are short because they are single-use and expire; the
// store enforces uniqueness among active codes.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, InviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf), nil
}

// CanRemoveMember decides whether actor may remove target from a workspace.
// Only the workspace owner removes members, and owners cannot remove
// themselves; they delete the workspace instead.
func CanRemoveMember(ownerID, actorID, targetID int64) error {
	if actorID != ownerID {
		return &AuthorizationError{Reason: "only the workspace owner can remove members"}
	}
	if targetID == ownerID {
		return &AuthorizationError{Reason: "the owner cannot be removed from the workspace"}
	}
	return nil
}

// Package colors resolves the display color for calendar events and
// validates user color customizations.
package colors

import (
	"errors"
	"regexp"
)

// Slot identifies which member of the workspace an event color belongs to.
// Slots are relative to the viewer: the viewer is always user1, their
// partner user2.
type Slot string

const (
	SlotUser1 Slot = "user1"
	SlotUser2 Slot = "user2"
)

// SharedGradient is the fixed style for shared events. It is intentionally
// not a hex color and cannot be customized; saved preferences never change
// how shared events render.
const SharedGradient = "var(--secondary-gradient)"

// Defaults returns the out-of-the-box color per slot.
func Defaults() map[Slot]string {
	return map[Slot]string{
		SlotUser1: "#667eea",
		SlotUser2: "#ff9a8b",
	}
}

var hexPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidHex reports whether s is a six-digit hex color with a leading hash.
func ValidHex(s string) bool {
	return hexPattern.MatchString(s)
}

// ErrNoValidColors is returned by Merge when every submitted color was
// rejected, so there is nothing to save.
var ErrNoValidColors = errors.New("colors: no valid colors to save")

// SlotFor maps an event creator to a slot relative to the viewer. Members
// lists a workspace's user ids in join order. An unknown creator falls back
// to user1 so the event still renders with a real color.
func SlotFor(createdBy, viewerID string, members []string) Slot {
	if createdBy == viewerID {
		return SlotUser1
	}
	for _, m := range members {
		if m == createdBy {
			return SlotUser2
		}
	}
	return SlotUser1
}

// Resolve returns the display color for an event. Shared events always get
// the gradient regardless of prefs; personal events take the viewer's saved
// color for the creator's slot, falling back to the defaults.
func Resolve(shared bool, createdBy, viewerID string, members []string, prefs map[Slot]string) string {
	if shared {
		return SharedGradient
	}
	slot := SlotFor(createdBy, viewerID, members)
	if c, ok := prefs[slot]; ok && ValidHex(c) {
		return c
	}
	return Defaults()[slot]
}

// Sanitize returns a copy of prefs keeping only known slots with valid hex
// values. Any "shared" key a stale client might have stored is dropped along
// with everything else unrecognized.
func Sanitize(prefs map[string]string) map[Slot]string {
	out := make(map[Slot]string)
	for k, v := range prefs {
		slot := Slot(k)
		if slot != SlotUser1 && slot != SlotUser2 {
			continue
		}
		if !ValidHex(v) {
			continue
		}
		out[slot] = v
	}
	return out
}

// Validate splits submitted colors into accepted and rejected. Rejected maps
// each refused key to its submitted value so the caller can report exactly
// what was thrown away.
func Validate(submitted map[string]string) (valid map[Slot]string, rejected map[string]string) {
	valid = make(map[Slot]string)
	rejected = make(map[string]string)
	for k, v := range submitted {
		slot := Slot(k)
		if (slot == SlotUser1 || slot == SlotUser2) && ValidHex(v) {
			valid[slot] = v
			continue
		}
		rejected[k] = v
	}
	return valid, rejected
}

// Merge validates submitted colors and merges the accepted ones over the
// existing saved prefs, leaving untouched slots as they were. It returns the
// merged prefs, the rejected entries, and ErrNoValidColors when nothing
// survived validation.
func Merge(existing map[Slot]string, submitted map[string]string) (map[Slot]string, map[string]string, error) {
	valid, rejected := Validate(submitted)
	if len(valid) == 0 {
		return nil, rejected, ErrNoValidColors
	}
	merged := make(map[Slot]string, len(existing)+len(valid))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range valid {
		merged[k] = v
	}
	return merged, rejected, nil
}

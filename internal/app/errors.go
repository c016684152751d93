// Package app holds domain validation rules shared by the HTTP layer.
package app

import "fmt"

// ValidationError reports a user-correctable problem with submitted input.
// Handlers surface Reason to the user as a flash message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AuthorizationError reports an operation the signed-in user is not allowed
// to perform, as opposed to one that merely failed.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

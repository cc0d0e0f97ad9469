// Package roster holds rules shared by the instructor and client rosters.
package roster

import (
	"errors"
	"strings"
)

// StatusInactive is the text stored in the status column for inactive entries.
// An empty status means active.
const StatusInactive = "לא פעיל"

// MaxNameLength bounds user-editable names.
const MaxNameLength = 100

// Domain errors
var (
	ErrNameRequired = errors.New("name cannot be empty")
	ErrNameTooLong  = errors.New("name cannot exceed 100 characters")
	ErrInvalidEmail = errors.New("email must be valid")
)

// ParseStatus reports whether a status text means active.
func ParseStatus(text string) bool {
	return strings.TrimSpace(text) != StatusInactive
}

// StatusText returns the status column text for the active flag.
func StatusText(active bool) string {
	if active {
		return ""
	}
	return StatusInactive
}

// ValidateName checks a required display name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if len([]rune(name)) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// ValidateEmail accepts an empty email or one containing '@'.
func ValidateEmail(email string) error {
	if email != "" && !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

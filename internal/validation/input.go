// Package validation provides field-level input validation used by the
// service layer before anything touches storage. The database keeps its own
// constraints (lengths, checks, unique indexes) as the authoritative guard;
// the checks here exist to produce precise client-facing messages.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// Field length limits, matching the column definitions.
const (
	TitleMaxLen    = 150
	FullNameMaxLen = 100
	EmailMaxLen    = 100
	UsernameMinLen = 3
	UsernameMaxLen = 50
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidateEmail checks that the address parses per RFC 5322 and fits the
// column. Addresses are matched case-sensitively throughout the system, so no
// normalisation happens here.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > EmailMaxLen {
		return fmt.Errorf("email must be at most %d characters", EmailMaxLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateUsername checks username length and character set.
func ValidateUsername(username string) error {
	if len(username) < UsernameMinLen {
		return fmt.Errorf("username must be at least %d characters", UsernameMinLen)
	}
	if len(username) > UsernameMaxLen {
		return fmt.Errorf("username must be at most %d characters", UsernameMaxLen)
	}
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username may contain only letters, digits, '.', '-', and '_'")
	}
	return nil
}

// ValidateFullName checks the display name is present and fits the column.
func ValidateFullName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("full name is required")
	}
	if len(name) > FullNameMaxLen {
		return fmt.Errorf("full name must be at most %d characters", FullNameMaxLen)
	}
	return nil
}

// ValidatePassword enforces a minimum password length. Composition rules are
// deliberately not enforced; length is the only requirement.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// ValidateTitle checks a resource title is present and fits the column.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > TitleMaxLen {
		return fmt.Errorf("title must be at most %d characters", TitleMaxLen)
	}
	return nil
}

// ValidateFileURL checks the opaque file reference is present. The reference
// is never dereferenced by this service, so no URL parsing is applied.
func ValidateFileURL(fileURL string) error {
	if strings.TrimSpace(fileURL) == "" {
		return fmt.Errorf("file reference is required")
	}
	return nil
}

package store

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxUsernameLength bounds usernames so they stay usable as directory
// names and database keys.
const MaxUsernameLength = 64

// CleanUsername normalizes a username to its canonical stored form and
// validates it. Normalization applies Unicode NFC so composed and
// decomposed spellings of the same name cannot enroll as two distinct
// users. Returns ErrInvalidUsername for anything that is empty, too
// long, or unsafe to use as a path element.
func CleanUsername(username string) (string, error) {
	username = norm.NFC.String(strings.TrimSpace(username))

	if username == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, MaxUsernameLength)
	}
	// Leading dots are rejected so usernames can never resolve to ".",
	// "..", or the store's hidden staging directories.
	if strings.HasPrefix(username, ".") {
		return "", fmt.Errorf("%w: must not start with a dot", ErrInvalidUsername)
	}

	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case ' ', '-', '_', '.':
			continue
		}
		return "", fmt.Errorf("%w: character %q not allowed", ErrInvalidUsername, r)
	}

	return username, nil
}

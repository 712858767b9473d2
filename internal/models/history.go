package models

import (
	"fmt"
	"strings"
)

// HistoryRecord is a logged (user, query, response preview) triple.
type HistoryRecord struct {
	ID       int64  `json:"id" db:"id"`
	User     string `json:"user" db:"user"`
	Query    string `json:"query" db:"query"`
	Response string `json:"response" db:"response"`
}

// ValidateUser checks that user can be stored and embedded in an export file name.
func ValidateUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("%w: user cannot be empty", ErrInvalidUser)
	}
	if strings.ContainsAny(user, `/\`) || strings.Contains(user, "..") || strings.ContainsRune(user, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidUser, user)
	}
	return nil
}

package db

import "strings"

// IsUniqueViolation reports whether err is a unique constraint violation from
// either registry backend. When constraintName is provided, the helper looks
// for that name in the error message instead.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsDuplicateColumn reports SQLite's "duplicate column name" failure.
func IsDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

// Package core defines the fundamental types and errors for GlassDesk.
package core

import (
	"errors"
	"fmt"
)

// Core errors that can occur across the system
var (
	// Storage errors
	ErrRecordNotFound = errors.New("record not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrTokenNotFound  = errors.New("token not found")

	// Auth errors
	ErrInvalidState         = errors.New("oauth state mismatch")
	ErrUnknownProvider      = errors.New("unknown provider")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrDecryptionFailed     = errors.New("decryption failed")

	// Sync errors
	ErrSyncFailed = errors.New("sync failed")

	// Query errors
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)

// NormalizationError reports a raw provider record that could not be
// normalized. It is per-record and non-fatal: ingestion skips the
// offending record and continues with the rest of the batch.
type NormalizationError struct {
	Source Source
	ID     string // provider record ID, may be empty if that too was missing
	Field  string // the missing or malformed field
	Reason string
}

func (e *NormalizationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("normalize %s record: %s field %q", e.Source, e.Reason, e.Field)
	}
	return fmt.Sprintf("normalize %s record %s: %s field %q", e.Source, e.ID, e.Reason, e.Field)
}

// Is makes NormalizationError match ErrMissingRequired so callers can
// test with errors.Is without knowing the concrete type.
func (e *NormalizationError) Is(target error) bool {
	return target == ErrMissingRequired
}

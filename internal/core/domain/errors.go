// internal/core/domain/errors.go
package domain

import "errors"

// Errores de dominio comunes.
var (
	// Job errors
	ErrEmptyTarget        = errors.New("target cannot be empty")
	ErrInvalidTarget      = errors.New("invalid target format")
	ErrEmptyWorkspace     = errors.New("workspace cannot be empty")
	ErrNoModulesRequested = errors.New("job requests no modules")
	ErrInvalidScope       = errors.New("invalid scope pattern")
	ErrJobTerminal        = errors.New("job already reached a terminal status")

	// Result errors
	ErrMissingResultField = errors.New("required result field missing")
	ErrNegativeDuration   = errors.New("result end time precedes start time")
	ErrMissingSummary     = errors.New("successful result without summary")
	ErrNegativeCount      = errors.New("summary count must be a non-negative integer")

	// Record errors
	ErrRecordTerminal = errors.New("module record already terminal")
)

package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig matches every *ValidationError via errors.Is.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMissingSection is returned when a settings section is absent from the document.
	ErrMissingSection = errors.New("configuration section missing")
	// ErrNotLoaded is returned when settings are requested before Load.
	ErrNotLoaded = errors.New("configuration not loaded")
	// ErrRemoteUnavailable is returned when no remote source is connected or it reports itself unavailable.
	ErrRemoteUnavailable = errors.New("remote configuration unavailable")
)

// Violation describes one failed constraint.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every constraint a settings section violates.
type ValidationError struct {
	Section    string      `json:"section"`
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s %s", v.Field, v.Message))
	}
	return fmt.Sprintf("invalid %s settings: %s", e.Section, strings.Join(parts, "; "))
}

// Is reports ErrInvalidConfig so callers can branch without a type assertion.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

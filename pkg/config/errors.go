package config

import "strconv"

// LoadError describes a configuration loading failure.
type LoadError struct {
	// File is the path that failed to load (empty for Parse).
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	prefix := e.File
	if prefix == "" {
		prefix = "config"
	}
	if e.Line > 0 {
		prefix += ":" + strconv.Itoa(e.Line)
	}
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return prefix + ": " + e.Message + ": " + e.Cause.Error()
	}
	return prefix + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

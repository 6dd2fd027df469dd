// Package apperr defines the error taxonomy shared by every layer.
package apperr

import "errors"

var (
	// ErrInvalidKeyword is a client input error: the keyword is empty after normalization.
	ErrInvalidKeyword = errors.New("invalid keyword")
	// ErrNotFound means the requested artifact does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by create-if-absent writes that lost the race.
	ErrAlreadyExists = errors.New("already exists")
	// ErrStorage wraps any persistence failure.
	ErrStorage = errors.New("storage error")
	// ErrAIBackend is a transient AI backend failure. It never escapes the composer.
	ErrAIBackend = errors.New("ai backend error")
	// ErrParse means the AI output did not have the expected structure.
	ErrParse = errors.New("parse error")
	// ErrGeneration means neither the AI branch nor the fallback produced valid content.
	ErrGeneration = errors.New("content generation failed")
)

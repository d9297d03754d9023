package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrPromptNotFound is returned when neither the baseline nor the overlay knows an id.
	ErrPromptNotFound = errors.New("prompt not found")
	// ErrTagNotFound is returned for registry operations on a tag that is not registered.
	ErrTagNotFound = errors.New("tag not found")
)

// StorageError represents errors accessing the key/value medium
type StorageError struct {
	Path string
	Op   string // "open", "get", "set", "remove", "keys"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents a malformed baseline or imported document
type ParseError struct {
	Source string // "baseline", "import"
	Key    string // file path or document location
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports a missing or malformed field on create/update
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

// DuplicateTagError is returned when a tag name is already registered
type DuplicateTagError struct {
	Tag string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("tag %q already exists", e.Tag)
}

// TagInUseError is returned when removing a tag that prompts still use
type TagInUseError struct {
	Tag   string
	Count int
}

func (e *TagInUseError) Error() string {
	return fmt.Sprintf("tag %q is used by %d prompt(s)", e.Tag, e.Count)
}

// ProtectedVersionError is returned when deleting a version that may not be deleted
type ProtectedVersionError struct {
	PromptID  string
	VersionID string
	Reason    string // "base version", "baseline version"
}

func (e *ProtectedVersionError) Error() string {
	return fmt.Sprintf("cannot delete %s of %s: %s", e.VersionID, e.PromptID, e.Reason)
}

// LastVersionError is returned when deleting the only remaining version
type LastVersionError struct {
	PromptID  string
	VersionID string
}

func (e *LastVersionError) Error() string {
	return fmt.Sprintf("cannot delete %s: it is the last version of %s", e.VersionID, e.PromptID)
}

// UnknownVersionError is returned when a version id is not in a prompt's merged version map
type UnknownVersionError struct {
	PromptID  string
	VersionID string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("prompt %s has no version %s", e.PromptID, e.VersionID)
}

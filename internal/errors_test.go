package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageError(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := &StorageError{
		Path: "/test/store.db",
		Op:   "open",
		Err:  originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "storage error") {
		t.Errorf("StorageError.Error() should contain 'storage error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/test/store.db") {
		t.Errorf("StorageError.Error() should contain path, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("StorageError.Unwrap() should return original error")
	}
}

func TestParseError(t *testing.T) {
	originalErr := errors.New("invalid YAML")
	err := &ParseError{
		Source: "baseline",
		Key:    "data.yml",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "parse error") {
		t.Errorf("ParseError.Error() should contain 'parse error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "baseline") {
		t.Errorf("ParseError.Error() should contain source, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("ParseError.Unwrap() should return original error")
	}
}

func TestDomainErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "validation",
			err:  &ValidationError{Field: "name", Reason: "is required"},
			want: []string{"validation error", "name", "is required"},
		},
		{
			name: "duplicate tag",
			err:  &DuplicateTagError{Tag: "草稿"},
			want: []string{"草稿", "already exists"},
		},
		{
			name: "tag in use",
			err:  &TagInUseError{Tag: "使用中", Count: 3},
			want: []string{"使用中", "3 prompt"},
		},
		{
			name: "protected version",
			err:  &ProtectedVersionError{PromptID: "p1", VersionID: "v1", Reason: "base version"},
			want: []string{"v1", "p1", "base version"},
		},
		{
			name: "last version",
			err:  &LastVersionError{PromptID: "p1", VersionID: "v2"},
			want: []string{"last version", "p1"},
		},
		{
			name: "unknown version",
			err:  &UnknownVersionError{PromptID: "p1", VersionID: "v9"},
			want: []string{"p1", "v9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, w := range tt.want {
				if !strings.Contains(msg, w) {
					t.Errorf("Error() = %q, should contain %q", msg, w)
				}
			}
		})
	}
}

func TestTagInUseError_As(t *testing.T) {
	var err error = &TagInUseError{Tag: "x", Count: 2}
	wrapped := errors.Join(errors.New("remove failed"), err)

	var inUse *TagInUseError
	if !errors.As(wrapped, &inUse) {
		t.Fatal("errors.As should find TagInUseError")
	}
	if inUse.Count != 2 {
		t.Errorf("Count = %d, want 2", inUse.Count)
	}
}

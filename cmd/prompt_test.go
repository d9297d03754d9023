package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/promptlib/internal"
	"github.com/iksnae/promptlib/testutil"
)

func TestCreateCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "create", "--id", "summary", "--title", "Summary", "--author", "me",
		"--tag", "新", "--content", "Summarize the text")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}
	if !strings.Contains(out, "Created summary (v1)") {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = env.run(t, "show", "summary", "--raw")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if out != "Summarize the text" {
		t.Errorf("content = %q", out)
	}

	out, err = env.run(t, "tags", "list")
	if err != nil {
		t.Fatalf("tags list error = %v", err)
	}
	if !strings.Contains(out, "新") {
		t.Errorf("new tag not registered:\n%s", out)
	}
}

func TestCreateCommand_FromFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "prompt.txt")
	testutil.WriteFile(t, path, []byte("content from a file"))

	if _, err := env.run(t, "create", "--id", "filed", "--title", "Filed", "--author", "me",
		"--tag", "新", "--file", path); err != nil {
		t.Fatalf("create error = %v", err)
	}
	out, err := env.run(t, "show", "filed", "--raw")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if out != "content from a file" {
		t.Errorf("content = %q", out)
	}

	if _, err := env.run(t, "create", "--id", "stdin", "--title", "Stdin", "--author", "me",
		"--tag", "新", "--file", "-"); err == nil {
		t.Error("create with empty stdin should fail validation")
	}
}

func TestCreateCommand_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{name: "missing title", args: []string{"--id", "x", "--author", "me", "--tag", "t", "--content", "long enough"}, field: "title"},
		{name: "short content", args: []string{"--id", "x", "--title", "X", "--author", "me", "--tag", "t", "--content", "abc"}, field: "content"},
		{name: "bad id", args: []string{"--id", "Bad ID", "--title", "X", "--author", "me", "--tag", "t", "--content", "long enough"}, field: "id"},
		{name: "baseline id", args: []string{"--id", "writer", "--title", "X", "--author", "me", "--tag", "t", "--content", "long enough"}, field: "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, append([]string{"create"}, tt.args...)...)
			var verr *internal.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("create error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestEditCommand(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "edit", "writer", "--title", "Renamed", "--content", "edited content"); err != nil {
		t.Fatalf("edit error = %v", err)
	}
	out, err := env.run(t, "show", "writer")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(out, "Renamed") || !strings.Contains(out, "edited content") {
		t.Errorf("edit not applied:\n%s", out)
	}

	// editing another version leaves the active one alone
	if _, err := env.run(t, "edit", "writer", "--version", "v1", "--content", "first again"); err != nil {
		t.Fatalf("edit --version error = %v", err)
	}
	if out, _ := env.run(t, "show", "writer", "--raw"); out != "edited content" {
		t.Errorf("active content = %q, want edited content", out)
	}
	if out, _ := env.run(t, "show", "writer", "--version", "v1", "--raw"); out != "first again" {
		t.Errorf("v1 content = %q, want first again", out)
	}

	if _, err := env.run(t, "edit", "writer", "--version", "v1", "--activate"); err != nil {
		t.Fatalf("edit --activate error = %v", err)
	}
	if out, _ := env.run(t, "show", "writer", "--raw"); out != "first again" {
		t.Errorf("active content = %q, want first again", out)
	}

	out, err = env.run(t, "edit", "writer")
	if err != nil {
		t.Fatalf("edit without flags error = %v", err)
	}
	if !strings.Contains(out, "Nothing to change") {
		t.Errorf("unexpected output: %q", out)
	}

	if _, err := env.run(t, "edit", "nope", "--title", "x"); !errors.Is(err, internal.ErrPromptNotFound) {
		t.Errorf("edit nope error = %v, want ErrPromptNotFound", err)
	}
}

func TestEditCommand_ShortAutosaveDelay(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("PROMPTLIB_AUTOSAVE_DELAY", "1ms")

	out, err := env.run(t, "edit", "writer", "--author", "quick", "--content", "saved before exit")
	if err != nil {
		t.Fatalf("edit error = %v", err)
	}
	if !strings.Contains(out, "✓ Saved writer") {
		t.Errorf("edit output = %q, want a save report", out)
	}
	if out, _ := env.run(t, "show", "writer", "--raw"); out != "saved before exit" {
		t.Errorf("active content = %q, want the autosaved edit", out)
	}
}

func TestResetAndDeleteCommands(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "edit", "writer", "--content", "temporary"); err != nil {
		t.Fatalf("edit error = %v", err)
	}
	if _, err := env.run(t, "reset", "writer"); err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if out, _ := env.run(t, "show", "writer", "--raw"); out != "write something well" {
		t.Errorf("content after reset = %q", out)
	}

	if _, err := env.run(t, "reset", "mine"); err == nil {
		t.Error("reset of a custom prompt should fail")
	}

	out, err := env.runWithInput(t, "n\n", "delete", "mine")
	if err != nil {
		t.Fatalf("delete error = %v", err)
	}
	if !strings.Contains(out, "Aborted") {
		t.Errorf("declined delete output = %q", out)
	}
	if _, err := env.run(t, "show", "mine"); err != nil {
		t.Errorf("mine should survive a declined delete: %v", err)
	}

	if _, err := env.run(t, "delete", "mine", "--yes"); err != nil {
		t.Fatalf("delete --yes error = %v", err)
	}
	if _, err := env.run(t, "show", "mine"); !errors.Is(err, internal.ErrPromptNotFound) {
		t.Errorf("show after delete error = %v, want ErrPromptNotFound", err)
	}

	var verr *internal.ValidationError
	if _, err := env.run(t, "delete", "writer", "--yes"); !errors.As(err, &verr) {
		t.Errorf("delete of a baseline prompt error = %v, want *ValidationError", err)
	}
}

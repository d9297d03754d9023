package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/promptlib/internal"
)

func TestVersionsCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "versions", "add", "writer", "--name", "third", "--description", "another pass",
		"--content", "write something better", "--activate")
	if err != nil {
		t.Fatalf("versions add error = %v", err)
	}
	if !strings.Contains(out, "Added v3 to writer") {
		t.Errorf("unexpected output: %q", out)
	}
	if out, _ := env.run(t, "show", "writer", "--raw"); out != "write something better" {
		t.Errorf("active content = %q", out)
	}

	out, err = env.run(t, "versions", "list", "writer")
	if err != nil {
		t.Fatalf("versions list error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("versions list = %q, want 3 lines", out)
	}
	if !strings.HasPrefix(lines[2], "*") || !strings.Contains(lines[2], "v3") {
		t.Errorf("v3 should be listed last and active: %q", lines[2])
	}

	if _, err := env.run(t, "versions", "activate", "writer", "v1"); err != nil {
		t.Fatalf("versions activate error = %v", err)
	}
	if out, _ := env.run(t, "show", "writer", "--raw"); out != "write something" {
		t.Errorf("active content = %q, want v1", out)
	}

	out, err = env.run(t, "versions", "delete", "writer", "v3")
	if err != nil {
		t.Fatalf("versions delete error = %v", err)
	}
	if !strings.Contains(out, "Deleted v3") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestVersionsCommands_Errors(t *testing.T) {
	env := newTestEnv(t)

	var perr *internal.ProtectedVersionError
	if _, err := env.run(t, "versions", "delete", "writer", "v1"); !errors.As(err, &perr) {
		t.Errorf("deleting v1 error = %v, want *ProtectedVersionError", err)
	}

	var verr *internal.ValidationError
	if _, err := env.run(t, "versions", "add", "writer", "--content", "no name"); !errors.As(err, &verr) {
		t.Errorf("add without name error = %v, want *ValidationError", err)
	}
	if _, err := env.run(t, "versions", "add", "writer", "--vid", "v2", "--name", "n", "--description", "d",
		"--content", "dup"); !errors.As(err, &verr) {
		t.Errorf("add of an existing id error = %v, want *ValidationError", err)
	}

	var uv *internal.UnknownVersionError
	if _, err := env.run(t, "versions", "activate", "writer", "v9"); !errors.As(err, &uv) {
		t.Errorf("activate v9 error = %v, want *UnknownVersionError", err)
	}

	if _, err := env.run(t, "versions", "list", "nope"); !errors.Is(err, internal.ErrPromptNotFound) {
		t.Errorf("list nope error = %v, want ErrPromptNotFound", err)
	}
}

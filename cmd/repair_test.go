package cmd

import (
	"strings"
	"testing"
)

func TestRepairCommand_Diagnose(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "repair")
	if err != nil {
		t.Fatalf("repair error = %v", err)
	}
	for _, want := range []string{"Overlay", "Legacy prompts:", "Generations", "customPromptData"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	if _, err := env.run(t, "repair", "--diagnose", "--diff"); err != nil {
		t.Fatalf("repair --diff error = %v", err)
	}
}

func TestRepairCommand_Unify(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "repair", "--clear-legacy"); err == nil {
		t.Error("--clear-legacy without --unify should fail")
	}

	out, err := env.runWithInput(t, "n\n", "repair", "--unify", "--clear-legacy")
	if err != nil {
		t.Fatalf("declined unify error = %v", err)
	}
	if !strings.Contains(out, "Aborted") {
		t.Errorf("declined unify output = %q", out)
	}

	out, err = env.run(t, "repair", "--unify", "--clear-legacy", "--yes")
	if err != nil {
		t.Fatalf("repair --unify error = %v", err)
	}
	if !strings.Contains(out, "Legacy generation removed") {
		t.Errorf("unify output = %q", out)
	}

	out, err = env.run(t, "inspect", "--preview", "0")
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	if strings.Contains(out, "customPrompts (") {
		t.Errorf("legacy generation still stored:\n%s", out)
	}

	if out, _ := env.run(t, "show", "mine", "--raw"); out != "my own prompt" {
		t.Errorf("mine after unify = %q", out)
	}
	if out, _ := env.run(t, "show", "p1", "--raw"); out != "B" {
		t.Errorf("p1 after unify = %q", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

package cmd

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestInspectCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "inspect")
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	for _, want := range []string{"customPrompts (", "customPromptData ("} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, "inspect", "customPromptData")
	if err != nil {
		t.Fatalf("inspect key error = %v", err)
	}
	if !strings.Contains(out, "\n  \"") {
		t.Errorf("value should be indented JSON:\n%s", out)
	}

	if _, err := env.run(t, "inspect", "nope"); err == nil {
		t.Error("inspecting a missing key should fail")
	}
	if _, err := env.run(t, "inspect", "--format", "xml"); err == nil {
		t.Error("unsupported format should fail")
	}
}

func TestInspectCommand_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "inspect", "--format", "json")
	if err != nil {
		t.Fatalf("inspect --format json error = %v", err)
	}
	var values map[string]interface{}
	if err := json.Unmarshal([]byte(out), &values); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if _, ok := values["customPrompts"].(map[string]interface{}); !ok {
		t.Errorf("customPrompts should be embedded as an object: %v", values["customPrompts"])
	}
}

func TestIndentJSON(t *testing.T) {
	if got := indentJSON(`{"a":1}`); got != "{\n  \"a\": 1\n}" {
		t.Errorf("indentJSON(object) = %q", got)
	}
	if got := indentJSON("plain"); got != "plain" {
		t.Errorf("indentJSON(plain) = %q", got)
	}
}

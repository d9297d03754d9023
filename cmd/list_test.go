package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/promptlib/internal"
)

func TestListCommand(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "all prompts",
			args:    []string{"list"},
			want:    []string{"Found 3 prompt(s)", "p1", "writer", "mine", "custom"},
			notWant: []string{"hidden", "broken"},
		},
		{
			name:    "filtered by tag",
			args:    []string{"list", "--tag", "寫作"},
			want:    []string{"writer"},
			notWant: []string{"p1", "mine"},
		},
		{
			name: "unknown tag",
			args: []string{"list", "--tag", "nope"},
			want: []string{"No prompts found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, tt.args...)
			if err != nil {
				t.Fatalf("list error = %v", err)
			}
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestDisplayGroups_TruncatesTitles(t *testing.T) {
	long := strings.Repeat("x", 80)
	groups := []internal.TagGroup{{
		Tag: "t",
		Prompts: []*internal.EffectivePrompt{
			{ID: "a", Title: long, ActiveVersion: "v1", Source: internal.SourceBaseline},
		},
	}}

	var buf bytes.Buffer
	displayGroups(&buf, groups)
	if strings.Contains(buf.String(), long) {
		t.Error("long title was not truncated")
	}
	if !strings.Contains(buf.String(), strings.Repeat("x", 47)+"...") {
		t.Errorf("truncated title missing:\n%s", buf.String())
	}
}

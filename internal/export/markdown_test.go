package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/promptlib/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		doc     *internal.Document
		want    []string
		notWant []string
	}{
		{
			name: "sample document",
			want: []string{
				"# Prompt Library",
				"**Prompts:** 2",
				"## 使用中",
				"## 寫作",
				"### Writer",
				"**Author:** bob",
				"**Version:** v2",
				"write something well",
			},
			notWant: []string{"Hidden", "secret"},
		},
		{
			name: "tags outside the order follow",
			doc: internal.CreateTestDocument(nil, []string{"x"},
				internal.CreateTestPrompt("其他", "", "X", "# not a heading")),
			want: []string{"## 其他", "\\# not a heading"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.doc
			if doc == nil {
				doc = sampleDocument(t)
			}
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}
			if err := exporter.Export(doc, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Export() output missing %q\n%s", want, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("Export() output should not contain %q", nw)
				}
			}
		})
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bold", in: "a **b**", want: `a \*\*b\*\*`},
		{name: "code block untouched", in: "```\n**x**\n```", want: "```\n**x**\n```"},
		{name: "heading", in: "# h", want: `\# h`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeMarkdown(tt.in); got != tt.want {
				t.Errorf("escapeMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

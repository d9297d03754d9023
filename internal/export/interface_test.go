package export

import (
	"strings"
	"testing"

	"github.com/iksnae/promptlib/internal"
	"github.com/iksnae/promptlib/testutil"
)

func sampleDocument(t *testing.T) *internal.Document {
	t.Helper()
	cat, err := internal.LoadBaseline(strings.NewReader(testutil.SampleBaselineYAML))
	if err != nil {
		t.Fatalf("LoadBaseline() error = %v", err)
	}
	return cat.Document
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantExt string
		wantErr bool
	}{
		{name: "yaml format", format: "yaml", wantExt: "yml"},
		{name: "yml format", format: "yml", wantExt: "yml"},
		{name: "json format", format: "json", wantExt: "json"},
		{name: "jsonl format", format: "jsonl", wantExt: "jsonl"},
		{name: "markdown format", format: "md", wantExt: "md"},
		{name: "markdown format long", format: "markdown", wantExt: "md"},
		{name: "unsupported format", format: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if exporter.Extension() != tt.wantExt {
				t.Errorf("Extension() = %v, want %v", exporter.Extension(), tt.wantExt)
			}
		})
	}
}

func TestEffectivePrompts_SkipsUnresolvable(t *testing.T) {
	var ids []string
	for _, p := range effectivePrompts(sampleDocument(t)) {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "p1,writer,hidden" {
		t.Errorf("effectivePrompts() = %v, want p1,writer,hidden", ids)
	}
}

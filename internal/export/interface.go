package export

import (
	"fmt"
	"io"

	"github.com/iksnae/promptlib/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(doc *internal.Document, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: yaml, json, jsonl, md)", format)
	}
}

// effectivePrompts resolves every prompt of doc in document order. Prompts
// that do not resolve are left out.
func effectivePrompts(doc *internal.Document) []*internal.EffectivePrompt {
	r := internal.NewResolver(doc, nil)
	var out []*internal.EffectivePrompt
	for _, id := range doc.Order {
		p, err := r.Resolve(id)
		if err != nil {
			internal.LogDebug("Not exporting %s: %v", id, err)
			continue
		}
		out = append(out, p)
	}
	return out
}

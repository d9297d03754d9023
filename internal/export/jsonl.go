package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/promptlib/internal"
)

// JSONLExporter exports one effective prompt per line
type JSONLExporter struct{}

// Export exports a document to JSONL format
func (e *JSONLExporter) Export(doc *internal.Document, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, p := range effectivePrompts(doc) {
		obj := map[string]interface{}{
			"id":            p.ID,
			"tag":           p.Tag,
			"title":         p.Title,
			"activeVersion": p.ActiveVersion,
			"content":       p.Content,
		}
		if p.Author != "" {
			obj["author"] = p.Author
		}
		if p.Draft {
			obj["draft"] = true
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode prompt %s: %w", p.ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

package export

import (
	"io"

	"github.com/iksnae/promptlib/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter writes the document in the baseline file format, so the
// output can replace data.yml or be imported again
type YAMLExporter struct{}

// Export exports a document to YAML format
func (e *YAMLExporter) Export(doc *internal.Document, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(doc)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yml"
}

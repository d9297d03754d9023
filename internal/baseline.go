package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// documentSchema describes the baseline/export document shape
const documentSchema = `{
  "type": "object",
  "required": ["prompt"],
  "properties": {
    "metadata": {
      "type": "object",
      "properties": {
        "tagOrder": {"type": "array", "items": {"type": "string"}}
      }
    },
    "prompt": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["metadata"],
        "properties": {
          "metadata": {
            "type": "object",
            "properties": {
              "tag": {"type": "string"},
              "author": {"type": "string"},
              "displayTitle": {"type": "string"},
              "activeVersion": {"type": "string"},
              "draft": {"type": "boolean"}
            }
          }
        },
        "patternProperties": {
          "^v": {
            "type": "object",
            "properties": {
              "name": {"type": "string"},
              "description": {"type": "string"},
              "content": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var compiledDocumentSchema *jsonschema.Schema

func documentValidator() (*jsonschema.Schema, error) {
	if compiledDocumentSchema != nil {
		return compiledDocumentSchema, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("document.json", bytes.NewReader([]byte(documentSchema))); err != nil {
		return nil, fmt.Errorf("failed to load document schema: %w", err)
	}
	schema, err := compiler.Compile("document.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile document schema: %w", err)
	}
	compiledDocumentSchema = schema
	return schema, nil
}

// SkippedPrompt records a baseline prompt left out of the catalog
type SkippedPrompt struct {
	ID     string
	Reason string
}

// Catalog is the read-only view of the baseline: the listable prompts plus
// the raw document they came from.
type Catalog struct {
	Document *Document
	Prompts  map[string]*FlatPrompt
	Order    []string
	Skipped  []SkippedPrompt
}

// EmptyCatalog returns a catalog with no prompts
func EmptyCatalog() *Catalog {
	return &Catalog{Document: NewDocument(), Prompts: make(map[string]*FlatPrompt)}
}

// Get returns the listable baseline prompt for id
func (c *Catalog) Get(id string) (*FlatPrompt, bool) {
	p, ok := c.Prompts[id]
	return p, ok
}

// Len returns the number of listable prompts
func (c *Catalog) Len() int {
	return len(c.Order)
}

// TagOrder returns the document's tag order
func (c *Catalog) TagOrder() []string {
	return append([]string(nil), c.Document.Metadata.TagOrder...)
}

// ParseDocument decodes and validates a document without building a catalog
func ParseDocument(data []byte, source string) (*Document, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Source: source, Key: "document", Err: err}
	}
	if err := ValidateDocument(raw); err != nil {
		return nil, &ParseError{Source: source, Key: "document", Err: err}
	}

	doc := NewDocument()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, &ParseError{Source: source, Key: "document", Err: err}
	}
	return doc, nil
}

// ValidateDocument checks a decoded YAML/JSON value against the document schema
func ValidateDocument(raw interface{}) error {
	schema, err := documentValidator()
	if err != nil {
		return err
	}

	// Round-trip through JSON so numbers and maps have the types the
	// validator expects.
	data, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return fmt.Errorf("failed to encode document for validation: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode document for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}

// LoadBaseline parses a baseline document into a catalog. Draft prompts and
// prompts whose active version is missing are skipped, not fatal.
func LoadBaseline(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return EmptyCatalog(), &ParseError{Source: "baseline", Key: "read", Err: err}
	}
	doc, err := ParseDocument(data, "baseline")
	if err != nil {
		return EmptyCatalog(), err
	}
	return NewCatalog(doc), nil
}

// LoadBaselineFile loads the baseline from path. A missing or unreadable file
// yields an empty catalog and no error.
func LoadBaselineFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogWarn("Baseline %s not found, starting with an empty catalog", path)
		} else {
			LogWarn("Baseline %s unreachable: %v", path, err)
		}
		return EmptyCatalog(), nil
	}
	defer f.Close()

	cat, err := LoadBaseline(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Key = path
		}
		return cat, err
	}
	LogInfo("Loaded %d baseline prompts from %s (%d skipped)", cat.Len(), path, len(cat.Skipped))
	return cat, nil
}

// NewCatalog builds a catalog over an already parsed document
func NewCatalog(doc *Document) *Catalog {
	cat := &Catalog{Document: doc, Prompts: make(map[string]*FlatPrompt)}
	for _, id := range doc.Order {
		p := doc.Prompts[id]
		if p == nil {
			cat.Skipped = append(cat.Skipped, SkippedPrompt{ID: id, Reason: "empty definition"})
			continue
		}
		active := p.Metadata.Active()
		if _, ok := p.Versions[active]; !ok {
			LogWarn("Skipping prompt %s: active version %s not found", id, active)
			cat.Skipped = append(cat.Skipped, SkippedPrompt{ID: id, Reason: "missing version " + active})
			continue
		}
		if p.Metadata.Draft != nil && *p.Metadata.Draft {
			LogDebug("Skipping draft prompt %s", id)
			cat.Skipped = append(cat.Skipped, SkippedPrompt{ID: id, Reason: "draft"})
			continue
		}
		cat.Prompts[id] = p
		cat.Order = append(cat.Order, id)
	}
	return cat
}

// normalizeYAML converts map[interface{}]interface{} values, which YAML
// produces for non-string keys, into JSON-encodable maps.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

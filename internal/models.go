package internal

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultVersion is the base version every prompt starts with. It can never be deleted.
const DefaultVersion = "v1"

var versionIDPattern = regexp.MustCompile(`^v(\d+)$`)

// Version is one named revision of a prompt's text
type Version struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Content     string `json:"content" yaml:"content"`
}

// Metadata holds prompt-level fields. A nil field is "not defined", which is
// different from a defined zero value: an overlay with Draft=false overrides
// a baseline Draft=true.
type Metadata struct {
	Tag           *string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Author        *string `json:"author,omitempty" yaml:"author,omitempty"`
	DisplayTitle  *string `json:"displayTitle,omitempty" yaml:"displayTitle,omitempty"`
	ActiveVersion *string `json:"activeVersion,omitempty" yaml:"activeVersion,omitempty"`
	Draft         *bool   `json:"draft,omitempty" yaml:"draft,omitempty"`
}

// IsEmpty reports whether no field is defined
func (m Metadata) IsEmpty() bool {
	return m.Tag == nil && m.Author == nil && m.DisplayTitle == nil && m.ActiveVersion == nil && m.Draft == nil
}

// Merge returns m with every field defined in o taking precedence
func (m Metadata) Merge(o Metadata) Metadata {
	out := m
	if o.Tag != nil {
		out.Tag = stringPtr(*o.Tag)
	}
	if o.Author != nil {
		out.Author = stringPtr(*o.Author)
	}
	if o.DisplayTitle != nil {
		out.DisplayTitle = stringPtr(*o.DisplayTitle)
	}
	if o.ActiveVersion != nil {
		out.ActiveVersion = stringPtr(*o.ActiveVersion)
	}
	if o.Draft != nil {
		out.Draft = boolPtr(*o.Draft)
	}
	return out
}

// Active returns the active version id, defaulting to v1
func (m Metadata) Active() string {
	if m.ActiveVersion == nil || *m.ActiveVersion == "" {
		return DefaultVersion
	}
	return *m.ActiveVersion
}

// FlatPrompt is the flat record shape shared by the baseline document and the
// legacy overlay generation: a metadata block plus v1, v2, ... as sibling keys.
type FlatPrompt struct {
	Metadata Metadata
	Versions map[string]Version
}

// Clone returns a deep copy
func (p *FlatPrompt) Clone() *FlatPrompt {
	if p == nil {
		return nil
	}
	return &FlatPrompt{
		Metadata: Metadata{}.Merge(p.Metadata),
		Versions: cloneVersions(p.Versions),
	}
}

// UnmarshalJSON decodes the flat shape. Keys that are neither metadata nor
// version-like are ignored.
func (p *FlatPrompt) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Versions = make(map[string]Version)
	for key, value := range raw {
		switch {
		case key == "metadata":
			if err := json.Unmarshal(value, &p.Metadata); err != nil {
				return fmt.Errorf("metadata: %w", err)
			}
		case isVersionKey(key):
			var v Version
			if err := json.Unmarshal(value, &v); err != nil {
				LogDebug("Ignoring malformed version %s: %v", key, err)
				continue
			}
			p.Versions[key] = v
		}
	}
	return nil
}

// MarshalJSON encodes the flat shape
func (p FlatPrompt) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Versions)+1)
	out["metadata"] = p.Metadata
	for id, v := range p.Versions {
		out[id] = v
	}
	return json.Marshal(out)
}

// UnmarshalYAML decodes the flat shape from a YAML mapping
func (p *FlatPrompt) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: prompt must be a mapping", node.Line)
	}
	p.Versions = make(map[string]Version)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch {
		case key == "metadata":
			if err := value.Decode(&p.Metadata); err != nil {
				return fmt.Errorf("metadata: %w", err)
			}
		case isVersionKey(key):
			var v Version
			if err := value.Decode(&v); err != nil {
				return fmt.Errorf("version %s: %w", key, err)
			}
			p.Versions[key] = v
		}
	}
	return nil
}

// MarshalYAML writes metadata first, then versions in numeric order
func (p FlatPrompt) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	if err := appendYAMLPair(node, "metadata", p.Metadata); err != nil {
		return nil, err
	}
	for _, id := range SortVersionIDs(versionKeys(p.Versions), SortNumeric) {
		if err := appendYAMLPair(node, id, p.Versions[id]); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// CurrentEntry is the nested overlay record of the current generation
type CurrentEntry struct {
	Metadata  Metadata           `json:"metadata"`
	Versions  map[string]Version `json:"versions,omitempty"`
	UpdatedAt string             `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy
func (c *CurrentEntry) Clone() *CurrentEntry {
	if c == nil {
		return nil
	}
	return &CurrentEntry{
		Metadata:  Metadata{}.Merge(c.Metadata),
		Versions:  cloneVersions(c.Versions),
		UpdatedAt: c.UpdatedAt,
	}
}

// IsEmpty reports whether the entry carries neither metadata nor versions
func (c *CurrentEntry) IsEmpty() bool {
	return c.Metadata.IsEmpty() && len(c.Versions) == 0
}

// DocumentMetadata is the top-level metadata block of a baseline document
type DocumentMetadata struct {
	TagOrder []string `json:"tagOrder" yaml:"tagOrder"`
}

// Document is the baseline/export document: a tag order plus an ordered map
// of prompt id to flat prompt definition.
type Document struct {
	Metadata DocumentMetadata
	Prompts  map[string]*FlatPrompt
	Order    []string
}

// NewDocument returns an empty document
func NewDocument() *Document {
	return &Document{Prompts: make(map[string]*FlatPrompt)}
}

// Set inserts or replaces a prompt, keeping first-insertion order
func (d *Document) Set(id string, p *FlatPrompt) {
	if d.Prompts == nil {
		d.Prompts = make(map[string]*FlatPrompt)
	}
	if _, ok := d.Prompts[id]; !ok {
		d.Order = append(d.Order, id)
	}
	d.Prompts[id] = p
}

// Get returns the prompt definition for id
func (d *Document) Get(id string) (*FlatPrompt, bool) {
	if d == nil {
		return nil, false
	}
	p, ok := d.Prompts[id]
	return p, ok && p != nil
}

// Clone returns a deep copy
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d == nil {
		return out
	}
	out.Metadata.TagOrder = append([]string(nil), d.Metadata.TagOrder...)
	for _, id := range d.Order {
		out.Set(id, d.Prompts[id].Clone())
	}
	return out
}

type documentYAML struct {
	Metadata DocumentMetadata `yaml:"metadata"`
	Prompt   yaml.Node        `yaml:"prompt"`
}

// UnmarshalYAML decodes a document, preserving the prompt order
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	var raw documentYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	d.Metadata = raw.Metadata
	d.Prompts = make(map[string]*FlatPrompt)
	d.Order = nil
	if raw.Prompt.Kind == 0 {
		return nil
	}
	if raw.Prompt.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: prompt must be a mapping", raw.Prompt.Line)
	}
	for i := 0; i+1 < len(raw.Prompt.Content); i += 2 {
		id := raw.Prompt.Content[i].Value
		var p FlatPrompt
		if err := raw.Prompt.Content[i+1].Decode(&p); err != nil {
			return fmt.Errorf("prompt %s: %w", id, err)
		}
		d.Set(id, &p)
	}
	return nil
}

// MarshalYAML encodes a document, preserving the prompt order
func (d Document) MarshalYAML() (interface{}, error) {
	prompts := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range d.Order {
		if err := appendYAMLPair(prompts, id, d.Prompts[id]); err != nil {
			return nil, err
		}
	}
	root := &yaml.Node{Kind: yaml.MappingNode}
	if err := appendYAMLPair(root, "metadata", d.Metadata); err != nil {
		return nil, err
	}
	root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "prompt"}, prompts)
	return root, nil
}

// MarshalJSON encodes a document with prompts in document order
func (d Document) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return nil, err
	}
	b.WriteString(`{"metadata":`)
	b.Write(meta)
	b.WriteString(`,"prompt":{`)
	for i, id := range d.Order {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(id)
		val, err := json.Marshal(d.Prompts[id])
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", id, err)
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteString(`}}`)
	return []byte(b.String()), nil
}

// VersionSort selects how version ids are ordered in listings
type VersionSort int

const (
	// SortLexical orders ids as plain strings, so v10 sorts before v2.
	SortLexical VersionSort = iota
	// SortNumeric orders v<n> ids by n; other ids follow, lexically.
	SortNumeric
)

// ParseVersionSort maps a config string to a VersionSort
func ParseVersionSort(s string) (VersionSort, error) {
	switch strings.ToLower(s) {
	case "", "lexical":
		return SortLexical, nil
	case "numeric":
		return SortNumeric, nil
	default:
		return SortLexical, fmt.Errorf("unknown version sort %q (supported: lexical, numeric)", s)
	}
}

// SortVersionIDs sorts ids in place and returns them
func SortVersionIDs(ids []string, order VersionSort) []string {
	if order == SortLexical {
		sort.Strings(ids)
		return ids
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ni, iok := versionNumber(ids[i])
		nj, jok := versionNumber(ids[j])
		switch {
		case iok && jok:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

// ValidVersionID reports whether id has the form v<positive integer>
func ValidVersionID(id string) bool {
	n, ok := versionNumber(id)
	return ok && n > 0 && !strings.HasPrefix(id, "v0")
}

func versionNumber(id string) (int, bool) {
	m := versionIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// isVersionKey follows the stored data: any key starting with "v" is a version.
func isVersionKey(key string) bool {
	return strings.HasPrefix(key, "v")
}

func versionKeys(m map[string]Version) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func cloneVersions(m map[string]Version) map[string]Version {
	if m == nil {
		return nil
	}
	out := make(map[string]Version, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func appendYAMLPair(node *yaml.Node, key string, value interface{}) error {
	var v yaml.Node
	if err := v.Encode(value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, &v)
	return nil
}

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

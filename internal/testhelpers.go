package internal

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CreateTestPrompt creates a flat prompt with one version per content, v1 first
func CreateTestPrompt(tag, author, title string, contents ...string) *FlatPrompt {
	p := &FlatPrompt{
		Metadata: Metadata{
			Tag:          stringPtr(tag),
			Author:       stringPtr(author),
			DisplayTitle: stringPtr(title),
		},
		Versions: make(map[string]Version),
	}
	for i, content := range contents {
		vid := NextVersionID(versionKeys(p.Versions))
		p.Versions[vid] = Version{
			Name:        title,
			Description: fmt.Sprintf("version %d", i+1),
			Content:     content,
		}
	}
	return p
}

// CreateTestDocument creates a document holding prompts in the given order
func CreateTestDocument(tagOrder []string, ids []string, prompts ...*FlatPrompt) *Document {
	doc := NewDocument()
	doc.Metadata.TagOrder = append([]string(nil), tagOrder...)
	for i, id := range ids {
		doc.Set(id, prompts[i])
	}
	return doc
}

// MemoryKV is a map-backed KV for tests
type MemoryKV struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]string)}
}

// Get returns the value stored under key
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// Set overwrites the value stored under key
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

// Remove deletes key
func (m *MemoryKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Scan returns every pair whose key starts with prefix, ordered by key
func (m *MemoryKV) Scan(prefix string) ([]KeyValuePair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pairs []KeyValuePair
	for k, v := range m.items {
		if strings.HasPrefix(k, prefix) {
			pairs = append(pairs, KeyValuePair{Key: k, Value: v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}

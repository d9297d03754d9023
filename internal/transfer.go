package internal

import (
	"fmt"
	"io"
	"os"
)

// Export merges the overlay into a copy of the baseline document. The tag
// order is the current registry, so personal tags travel with it.
func (l *Library) Export() (*Document, error) {
	snap, err := l.store.Snapshot()
	if err != nil {
		return nil, err
	}
	doc := l.catalog.Document.Clone()
	doc.Metadata.TagOrder = l.tags.Tags()

	for _, id := range snap.IDs() {
		view := snap.Effective(id)
		base, ok := doc.Get(id)
		if !ok {
			doc.Set(id, ToLegacy(view))
			continue
		}
		base.Metadata = base.Metadata.Merge(view.Metadata)
		if base.Versions == nil {
			base.Versions = make(map[string]Version)
		}
		for vid, v := range view.Versions {
			base.Versions[vid] = v
		}
	}
	LogDebug("Exported %d prompts", len(doc.Order))
	return doc, nil
}

// ImportResult reports what Import did
type ImportResult struct {
	Document     *Document
	Prompts      int
	PersonalTags []string
	Tags         []string
}

// Import validates a document and, once confirm approves it, clears every
// overlay key and re-seeds the tag registry from the document's tag order.
// The imported prompts are not loaded: the document is meant to replace the
// baseline file. A nil confirm approves. A rejected confirm returns a nil
// result and changes nothing.
func (l *Library) Import(r io.Reader, confirm func(*Document) bool) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Source: "import", Key: "read", Err: err}
	}
	doc, err := ParseDocument(data, "import")
	if err != nil {
		return nil, err
	}
	if confirm != nil && !confirm(doc) {
		LogInfo("Import cancelled")
		return nil, nil
	}

	for _, key := range []string{KeyLegacyPrompts, KeyCurrentPrompts, KeyCustomVersions, KeyModifiedPrompts} {
		if err := l.store.Remove(key); err != nil {
			return nil, err
		}
	}
	ids, err := l.store.LegacyRecordIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := l.store.Remove(KeyLegacyRecordPrefix + id); err != nil {
			return nil, err
		}
	}

	known := BaselineTags(l.catalog.Document)
	var personal []string
	for _, tag := range doc.Metadata.TagOrder {
		if !containsString(known, tag) {
			personal = appendUnique(personal, tag)
		}
	}
	if err := l.tags.Replace(append(known, personal...)); err != nil {
		return nil, err
	}
	if err := l.store.SavePersonalTags(personal); err != nil {
		return nil, err
	}

	LogInfo("Imported document with %d prompts, %d personal tags", len(doc.Order), len(personal))
	return &ImportResult{
		Document:     doc,
		Prompts:      len(doc.Order),
		PersonalTags: personal,
		Tags:         l.tags.Tags(),
	}, nil
}

// ImportFile imports the document at path
func (l *Library) ImportFile(path string, confirm func(*Document) bool) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	res, err := l.Import(f, confirm)
	if perr, ok := err.(*ParseError); ok {
		perr.Key = path
	}
	return res, err
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

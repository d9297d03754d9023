package internal

import (
	"fmt"
	"strings"
)

// DefaultTags seed every registry
var DefaultTags = []string{"使用中", "Gemini 生成"}

// Direction is a reorder direction
type Direction int

const (
	Up Direction = iota
	Down
)

// ParseDirection maps "up"/"down" to a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return Up, fmt.Errorf("unknown direction %q (supported: up, down)", s)
	}
}

// BaselineTags returns the tags known without any overlay: the defaults
// followed by the document's tag order, deduplicated.
func BaselineTags(doc *Document) []string {
	tags := appendUnique(nil, DefaultTags...)
	if doc != nil {
		tags = appendUnique(tags, doc.Metadata.TagOrder...)
	}
	return tags
}

// TagRegistry is the ordered, deduplicated list of tag names
type TagRegistry struct {
	store  *OverlayStore
	doc    *Document
	repair *Repairer
	tags   []string
}

// LoadTagRegistry seeds the registry. A persisted order replaces the
// baseline order entirely; otherwise the old personal tag list is merged in.
// Tags used by overlay prompts but not registered are appended.
func LoadTagRegistry(store *OverlayStore, doc *Document, repair *Repairer) (*TagRegistry, error) {
	if doc == nil {
		doc = NewDocument()
	}
	t := &TagRegistry{store: store, doc: doc, repair: repair, tags: BaselineTags(doc)}

	persisted, ok, err := store.LoadTagOrder()
	if err != nil {
		return nil, err
	}
	if ok {
		LogDebug("Loaded tag order from store: %v", persisted)
		t.tags = appendUnique(nil, persisted...)
	} else {
		personal, _, err := store.LoadPersonalTags()
		if err != nil {
			return nil, err
		}
		t.tags = appendUnique(t.tags, personal...)
	}

	snap, err := store.Snapshot()
	if err != nil {
		return nil, err
	}
	for _, id := range snap.IDs() {
		if tag := deref(snap.View(id).Metadata.Tag); tag != "" && !t.Contains(tag) {
			LogDebug("Registering tag %q used by %s", tag, id)
			t.tags = append(t.tags, tag)
		}
	}
	return t, nil
}

// Tags returns a copy of the registry in order
func (t *TagRegistry) Tags() []string {
	return append([]string(nil), t.tags...)
}

// Contains reports whether name is registered
func (t *TagRegistry) Contains(name string) bool {
	return t.index(name) >= 0
}

// Add appends name
func (t *TagRegistry) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "tag", Reason: "is required"}
	}
	if t.Contains(name) {
		return &DuplicateTagError{Tag: name}
	}
	t.tags = append(t.tags, name)
	return t.save()
}

// Ensure registers name if missing and reports whether it was added
func (t *TagRegistry) Ensure(name string) (bool, error) {
	if name == "" || t.Contains(name) {
		return false, nil
	}
	t.tags = append(t.tags, name)
	return true, t.save()
}

// Rename replaces oldName in place and retags every prompt using it, in both
// overlay generations. Baseline prompts whose effective tag is oldName get a
// current-generation override.
func (t *TagRegistry) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &ValidationError{Field: "tag", Reason: "is required"}
	}
	if oldName == newName {
		return nil
	}
	if t.Contains(newName) {
		return &DuplicateTagError{Tag: newName}
	}

	snap, err := t.store.Snapshot()
	if err != nil {
		return err
	}
	stamp := t.store.timestamp()
	renamed := 0
	for _, p := range snap.Legacy {
		if deref(p.Metadata.Tag) == oldName {
			p.Metadata.Tag = stringPtr(newName)
			renamed++
		}
	}
	for _, c := range snap.Current {
		if deref(c.Metadata.Tag) == oldName {
			c.Metadata.Tag = stringPtr(newName)
			c.UpdatedAt = stamp
			renamed++
		}
	}
	for _, id := range t.doc.Order {
		base := t.doc.Prompts[id]
		if base == nil || deref(base.Metadata.Tag) != oldName {
			continue
		}
		if view := snap.View(id); view != nil && view.Metadata.Tag != nil {
			continue
		}
		c, ok := snap.Current[id]
		if !ok {
			c = &CurrentEntry{}
			snap.Current[id] = c
		}
		c.Metadata.Tag = stringPtr(newName)
		c.UpdatedAt = stamp
		renamed++
	}

	if i := t.index(oldName); i >= 0 {
		t.tags[i] = newName
	} else {
		t.tags = append(t.tags, newName)
	}

	if err := t.store.SaveSnapshot(snap); err != nil {
		return err
	}
	LogInfo("Renamed tag %q to %q on %d overlay entries", oldName, newName, renamed)
	return t.save()
}

// Remove deletes name if no prompt uses it
func (t *TagRegistry) Remove(name string) error {
	i := t.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	count, err := t.UsageCount(name)
	if err != nil {
		return err
	}
	if count > 0 {
		return &TagInUseError{Tag: name, Count: count}
	}
	t.tags = append(t.tags[:i], t.tags[i+1:]...)
	return t.save()
}

// Reorder swaps name with its neighbor; at either end it does nothing
func (t *TagRegistry) Reorder(name string, dir Direction) error {
	i := t.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(t.tags) {
		return nil
	}
	t.tags[i], t.tags[j] = t.tags[j], t.tags[i]
	return t.save()
}

// UsageCount counts distinct non-draft effective prompts tagged name
func (t *TagRegistry) UsageCount(name string) (int, error) {
	r, err := t.resolver()
	if err != nil {
		return 0, err
	}
	return r.UsageCount(name), nil
}

// UnusedTags returns registered tags no prompt uses, in registry order
func (t *TagRegistry) UnusedTags() ([]string, error) {
	r, err := t.resolver()
	if err != nil {
		return nil, err
	}
	counts := r.UsageCounts()
	var unused []string
	for _, tag := range t.tags {
		if counts[tag] == 0 {
			unused = append(unused, tag)
		}
	}
	return unused, nil
}

// CleanUnused removes every unused tag once confirm approves the list.
// A nil confirm approves.
func (t *TagRegistry) CleanUnused(confirm func([]string) bool) ([]string, error) {
	unused, err := t.UnusedTags()
	if err != nil || len(unused) == 0 {
		return nil, err
	}
	if confirm != nil && !confirm(unused) {
		return nil, nil
	}
	drop := make(map[string]bool, len(unused))
	for _, tag := range unused {
		drop[tag] = true
	}
	kept := t.tags[:0]
	for _, tag := range t.tags {
		if !drop[tag] {
			kept = append(kept, tag)
		}
	}
	t.tags = kept
	return unused, t.save()
}

// Replace sets the whole registry and persists it
func (t *TagRegistry) Replace(tags []string) error {
	t.tags = appendUnique(nil, tags...)
	return t.save()
}

func (t *TagRegistry) index(name string) int {
	for i, tag := range t.tags {
		if tag == name {
			return i
		}
	}
	return -1
}

func (t *TagRegistry) resolver() (*Resolver, error) {
	snap, err := t.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return NewResolver(t.doc, snap), nil
}

func (t *TagRegistry) save() error {
	if err := t.store.SaveTagOrder(t.tags); err != nil {
		return err
	}
	// Kept for stores written before the tag order was unified.
	if err := t.store.SavePersonalTags(nil); err != nil {
		return err
	}
	if t.repair != nil {
		if _, err := t.repair.Reconcile(); err != nil {
			return err
		}
	}
	return nil
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, d := range dst {
			if d == item {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}

package internal

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var promptIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// minContentLength is the shortest content accepted for a new prompt
const minContentLength = 5

// Options configures a Library
type Options struct {
	VersionSort VersionSort
}

// Library owns the baseline catalog and the overlay, and is the single entry
// point callers read and write through.
type Library struct {
	catalog  *Catalog
	store    *OverlayStore
	repair   *Repairer
	tags     *TagRegistry
	versions *VersionManager
}

// NewLibrary wires a library over a loaded catalog and a KV medium. The
// overlay is reconciled once before the tag registry is seeded.
func NewLibrary(catalog *Catalog, kv KV, opts Options) (*Library, error) {
	if catalog == nil {
		catalog = EmptyCatalog()
	}
	store := NewOverlayStore(kv)
	repair := NewRepairer(store, catalog.Document)
	if _, err := repair.Reconcile(); err != nil {
		return nil, fmt.Errorf("failed to reconcile overlay: %w", err)
	}
	tags, err := LoadTagRegistry(store, catalog.Document, repair)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	return &Library{
		catalog:  catalog,
		store:    store,
		repair:   repair,
		tags:     tags,
		versions: NewVersionManager(store, catalog.Document, repair, opts.VersionSort),
	}, nil
}

// Catalog returns the baseline catalog
func (l *Library) Catalog() *Catalog { return l.catalog }

// Store returns the overlay store
func (l *Library) Store() *OverlayStore { return l.store }

// Tags returns the tag registry
func (l *Library) Tags() *TagRegistry { return l.tags }

// Versions returns the version manager
func (l *Library) Versions() *VersionManager { return l.versions }

// Repair returns the consistency repairer
func (l *Library) Repair() *Repairer { return l.repair }

// Resolver returns a resolver over the current overlay state
func (l *Library) Resolver() (*Resolver, error) {
	snap, err := l.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return NewResolver(l.catalog.Document, snap), nil
}

// Resolve returns the effective prompt for id
func (l *Library) Resolve(id string) (*EffectivePrompt, error) {
	r, err := l.Resolver()
	if err != nil {
		return nil, err
	}
	return r.Resolve(id)
}

// Prompt resolves id and, for a baseline prompt with no overlay entry,
// applies the oldest per-prompt record if one was saved.
func (l *Library) Prompt(id string) (*EffectivePrompt, error) {
	snap, err := l.store.Snapshot()
	if err != nil {
		return nil, err
	}
	p, err := NewResolver(l.catalog.Document, snap).Resolve(id)
	if err != nil || snap.Has(id) {
		return p, err
	}
	rec, ok, err := l.store.LegacyRecord(id)
	if err != nil || !ok {
		return p, err
	}
	LogDebug("Using per-prompt record for %s", id)
	if rec.Title != "" {
		p.Title = rec.Title
	}
	if rec.Author != "" {
		p.Author = rec.Author
	}
	if rec.Content != "" {
		p.Content = rec.Content
	}
	return p, nil
}

// List returns every non-draft prompt that resolves
func (l *Library) List() ([]*EffectivePrompt, error) {
	r, err := l.Resolver()
	if err != nil {
		return nil, err
	}
	return r.Listed(), nil
}

// TagGroup is the prompts sharing one tag
type TagGroup struct {
	Tag     string
	Prompts []*EffectivePrompt
}

// Grouped lists prompts grouped by tag in registry order. Tags outside the
// registry follow, sorted; empty groups are left out.
func (l *Library) Grouped() ([]TagGroup, error) {
	prompts, err := l.List()
	if err != nil {
		return nil, err
	}
	byTag := make(map[string][]*EffectivePrompt)
	for _, p := range prompts {
		byTag[p.Tag] = append(byTag[p.Tag], p)
	}

	var groups []TagGroup
	for _, tag := range l.tags.Tags() {
		if ps := byTag[tag]; len(ps) > 0 {
			groups = append(groups, TagGroup{Tag: tag, Prompts: ps})
			delete(byTag, tag)
		}
	}
	rest := make([]string, 0, len(byTag))
	for tag := range byTag {
		rest = append(rest, tag)
	}
	sort.Strings(rest)
	for _, tag := range rest {
		groups = append(groups, TagGroup{Tag: tag, Prompts: byTag[tag]})
	}
	return groups, nil
}

// NewPrompt is the input of CreatePrompt
type NewPrompt struct {
	ID          string
	Title       string
	Author      string
	Tag         string
	Description string
	Content     string
}

// CreatePrompt adds a fully custom prompt with a single v1
func (l *Library) CreatePrompt(in NewPrompt) (*EffectivePrompt, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Tag = strings.TrimSpace(in.Tag)
	in.Content = strings.TrimSpace(in.Content)
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		in.Description = "初版"
	}

	required := []struct{ field, value string }{
		{"id", in.ID}, {"title", in.Title}, {"author", in.Author}, {"tag", in.Tag}, {"content", in.Content},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, &ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	if len([]rune(in.Content)) < minContentLength {
		return nil, &ValidationError{Field: "content", Reason: fmt.Sprintf("must be at least %d characters", minContentLength)}
	}
	if !promptIDPattern.MatchString(in.ID) {
		return nil, &ValidationError{Field: "id", Reason: "may only contain lowercase letters, digits and hyphens"}
	}

	snap, err := l.store.Snapshot()
	if err != nil {
		return nil, err
	}
	if _, ok := l.catalog.Document.Get(in.ID); ok || snap.Has(in.ID) {
		return nil, &ValidationError{Field: "id", Reason: fmt.Sprintf("%s already exists", in.ID)}
	}

	entry := &FlatPrompt{
		Metadata: Metadata{
			Tag:           stringPtr(in.Tag),
			Author:        stringPtr(in.Author),
			DisplayTitle:  stringPtr(in.Title),
			ActiveVersion: stringPtr(DefaultVersion),
			Draft:         boolPtr(false),
		},
		Versions: map[string]Version{
			DefaultVersion: {Name: in.Title, Description: in.Description, Content: in.Content},
		},
	}
	snap.Legacy[in.ID] = entry
	cur := ToCurrent(entry)
	cur.UpdatedAt = l.store.timestamp()
	snap.Current[in.ID] = cur
	if err := l.commit(snap); err != nil {
		return nil, err
	}
	if added, err := l.tags.Ensure(in.Tag); err != nil {
		return nil, err
	} else if added {
		LogInfo("Registered new tag %q", in.Tag)
	}
	LogInfo("Created prompt %s", in.ID)
	return l.Resolve(in.ID)
}

// PromptUpdate carries the fields of an edit. Nil fields are left as they are.
type PromptUpdate struct {
	Tag          *string
	Author       *string
	DisplayTitle *string
	Draft        *bool
	// Version is the version being edited; empty means the active one.
	Version     string
	Name        *string
	Description *string
	Content     *string
	// Activate makes Version the active version.
	Activate bool
}

// IsEmpty reports whether the update changes nothing
func (u PromptUpdate) IsEmpty() bool {
	return u.Tag == nil && u.Author == nil && u.DisplayTitle == nil && u.Draft == nil &&
		u.Name == nil && u.Description == nil && u.Content == nil && !u.Activate
}

// UpdatePrompt merges an edit into the current generation, mirroring it into
// the legacy generation when the prompt has a legacy entry.
func (l *Library) UpdatePrompt(id string, u PromptUpdate) error {
	if u.IsEmpty() {
		return nil
	}
	snap, err := l.store.Snapshot()
	if err != nil {
		return err
	}
	p, err := NewResolver(l.catalog.Document, snap).Resolve(id)
	if err != nil {
		var uv *UnknownVersionError
		if !errors.As(err, &uv) || u.Version == "" {
			return err
		}
		p = nil
	}

	vid := u.Version
	if vid == "" {
		vid = p.ActiveVersion
	}
	versions, _, err := l.versions.merged(snap, id)
	if err != nil {
		return err
	}
	v, ok := versions[vid]
	if !ok {
		return &UnknownVersionError{PromptID: id, VersionID: vid}
	}

	var meta Metadata
	if u.Tag != nil {
		if strings.TrimSpace(*u.Tag) == "" {
			return &ValidationError{Field: "tag", Reason: "is required"}
		}
		meta.Tag = stringPtr(strings.TrimSpace(*u.Tag))
	}
	meta.Author = u.Author
	meta.DisplayTitle = u.DisplayTitle
	meta.Draft = u.Draft
	if u.Activate {
		meta.ActiveVersion = stringPtr(vid)
	}
	versionChanged := u.Name != nil || u.Description != nil || u.Content != nil
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Description != nil {
		v.Description = *u.Description
	}
	if u.Content != nil {
		v.Content = *u.Content
	}

	cur := currentFor(snap, id)
	cur.Metadata = cur.Metadata.Merge(meta)
	if versionChanged {
		cur.Versions[vid] = v
	}
	cur.UpdatedAt = l.store.timestamp()
	if legacy, ok := snap.Legacy[id]; ok {
		legacy.Metadata = legacy.Metadata.Merge(meta)
		if versionChanged {
			legacy.Versions[vid] = v
		}
	}
	pruneEntry(snap, id)
	if err := l.commit(snap); err != nil {
		return err
	}
	if meta.Tag != nil {
		if _, err := l.tags.Ensure(*meta.Tag); err != nil {
			return err
		}
	}
	LogDebug("Saved prompt %s (version %s)", id, vid)
	return nil
}

// ResetPrompt drops every overlay representation of a baseline prompt
func (l *Library) ResetPrompt(id string) error {
	if _, ok := l.catalog.Document.Get(id); !ok {
		return fmt.Errorf("%w: %s is not a baseline prompt", ErrPromptNotFound, id)
	}
	if err := l.store.Delete(id); err != nil {
		return err
	}
	LogInfo("Reset prompt %s to baseline", id)
	return nil
}

// DeletePrompt removes a custom prompt from both generations
func (l *Library) DeletePrompt(id string) error {
	if _, ok := l.catalog.Document.Get(id); ok {
		return &ValidationError{Field: "id", Reason: fmt.Sprintf("%s is a baseline prompt; reset it instead", id)}
	}
	snap, err := l.store.Snapshot()
	if err != nil {
		return err
	}
	if !snap.Has(id) {
		return fmt.Errorf("%w: %s", ErrPromptNotFound, id)
	}
	return l.store.Delete(id)
}

// Stats counts what the store holds
type Stats struct {
	BaselinePrompts int
	SkippedPrompts  int
	LegacyPrompts   int
	CurrentPrompts  int
	LegacyRecords   int
	CustomPrompts   int
	Overrides       int
	PersonalTags    int
	Tags            int
}

// Stats reports item counts per store
func (l *Library) Stats() (*Stats, error) {
	snap, err := l.store.Snapshot()
	if err != nil {
		return nil, err
	}
	records, err := l.store.LegacyRecordIDs()
	if err != nil {
		return nil, err
	}
	personal, _, err := l.store.LoadPersonalTags()
	if err != nil {
		return nil, err
	}
	st := &Stats{
		BaselinePrompts: l.catalog.Len(),
		SkippedPrompts:  len(l.catalog.Skipped),
		LegacyPrompts:   len(snap.Legacy),
		CurrentPrompts:  len(snap.Current),
		LegacyRecords:   len(records),
		PersonalTags:    len(personal),
		Tags:            len(l.tags.Tags()),
	}
	for _, id := range snap.IDs() {
		if _, ok := l.catalog.Document.Get(id); ok {
			st.Overrides++
		} else {
			st.CustomPrompts++
		}
	}
	return st, nil
}

// ClearLegacy removes the legacy aggregate
func (l *Library) ClearLegacy() error {
	LogInfo("Clearing %s", KeyLegacyPrompts)
	return l.store.Remove(KeyLegacyPrompts)
}

// ClearCurrent removes the current-generation aggregate
func (l *Library) ClearCurrent() error {
	LogInfo("Clearing %s", KeyCurrentPrompts)
	return l.store.Remove(KeyCurrentPrompts)
}

// ClearPersonalTags removes the pre-unification personal tag list
func (l *Library) ClearPersonalTags() error {
	LogInfo("Clearing %s", KeyPersonalTags)
	return l.store.Remove(KeyPersonalTags)
}

// ClearAll removes every overlay key and restores the baseline registry
func (l *Library) ClearAll() error {
	for _, key := range []string{
		KeyLegacyPrompts, KeyCurrentPrompts, KeyPersonalTags,
		KeyTagOrder, KeyCustomVersions, KeyModifiedPrompts,
	} {
		if err := l.store.Remove(key); err != nil {
			return err
		}
	}
	ids, err := l.store.LegacyRecordIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := l.store.Remove(KeyLegacyRecordPrefix + id); err != nil {
			return err
		}
	}
	l.tags.tags = BaselineTags(l.catalog.Document)
	LogInfo("Cleared all overlay data")
	return nil
}

func (l *Library) commit(snap *OverlaySnapshot) error {
	if err := l.store.SaveSnapshot(snap); err != nil {
		return err
	}
	_, err := l.repair.Reconcile()
	return err
}

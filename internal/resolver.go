package internal

import (
	"sort"
)

// PromptSource tells where an effective prompt's data came from
type PromptSource string

const (
	SourceBaseline   PromptSource = "baseline"
	SourceOverridden PromptSource = "overridden"
	SourceCustom     PromptSource = "custom"
)

// EffectivePrompt is the merged view of one prompt used for display and editing
type EffectivePrompt struct {
	ID            string
	Tag           string
	Author        string
	Title         string
	ActiveVersion string
	Draft         bool
	Content       string
	Versions      map[string]Version
	Source        PromptSource
}

// Custom reports whether the prompt has no baseline counterpart
func (p *EffectivePrompt) Custom() bool {
	return p.Source == SourceCustom
}

// Active returns the active version
func (p *EffectivePrompt) Active() Version {
	return p.Versions[p.ActiveVersion]
}

// Resolver layers overlay data over the baseline document. It holds no
// state of its own and never writes.
type Resolver struct {
	doc     *Document
	overlay *OverlaySnapshot
}

// NewResolver creates a resolver over a baseline document and an overlay snapshot
func NewResolver(doc *Document, overlay *OverlaySnapshot) *Resolver {
	if doc == nil {
		doc = NewDocument()
	}
	if overlay == nil {
		overlay = NewOverlaySnapshot()
	}
	return &Resolver{doc: doc, overlay: overlay}
}

// Resolve computes the effective prompt for id. It returns ErrPromptNotFound
// when neither layer knows id, and *UnknownVersionError when the active
// version is absent from the merged version map.
func (r *Resolver) Resolve(id string) (*EffectivePrompt, error) {
	view := r.overlay.Effective(id)
	base, hasBase := r.doc.Get(id)

	switch {
	case !hasBase && view != nil:
		return buildEffective(id, view.Metadata, view.Versions, SourceCustom)
	case hasBase && view == nil:
		return buildEffective(id, base.Metadata, base.Versions, SourceBaseline)
	case hasBase:
		meta := base.Metadata.Merge(view.Metadata)
		versions := cloneVersions(base.Versions)
		if versions == nil {
			versions = make(map[string]Version)
		}
		for vid, v := range view.Versions {
			versions[vid] = v
		}
		return buildEffective(id, meta, versions, SourceOverridden)
	default:
		return nil, ErrPromptNotFound
	}
}

// IDs returns every resolvable id: baseline document order first, then
// overlay-only ids sorted.
func (r *Resolver) IDs() []string {
	ids := append([]string(nil), r.doc.Order...)
	var extra []string
	for _, id := range r.overlay.IDs() {
		if _, ok := r.doc.Get(id); !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}

// Listed returns every non-draft prompt that resolves, in IDs order.
// Prompts that fail to resolve are logged and left out.
func (r *Resolver) Listed() []*EffectivePrompt {
	var out []*EffectivePrompt
	for _, id := range r.IDs() {
		p, err := r.Resolve(id)
		if err != nil {
			LogDebug("Not listing %s: %v", id, err)
			continue
		}
		if p.Draft {
			continue
		}
		out = append(out, p)
	}
	return out
}

// UsageCount counts distinct non-draft effective prompts tagged name
func (r *Resolver) UsageCount(name string) int {
	count := 0
	for _, p := range r.Listed() {
		if p.Tag == name {
			count++
		}
	}
	return count
}

// UsageCounts returns the usage count of every tag in use
func (r *Resolver) UsageCounts() map[string]int {
	counts := make(map[string]int)
	for _, p := range r.Listed() {
		counts[p.Tag]++
	}
	return counts
}

func buildEffective(id string, meta Metadata, versions map[string]Version, source PromptSource) (*EffectivePrompt, error) {
	active := meta.Active()
	v, ok := versions[active]
	if !ok {
		return nil, &UnknownVersionError{PromptID: id, VersionID: active}
	}
	title := deref(meta.DisplayTitle)
	if title == "" {
		title = v.Name
	}
	return &EffectivePrompt{
		ID:            id,
		Tag:           deref(meta.Tag),
		Author:        deref(meta.Author),
		Title:         title,
		ActiveVersion: active,
		Draft:         meta.Draft != nil && *meta.Draft,
		Content:       v.Content,
		Versions:      cloneVersions(versions),
		Source:        source,
	}, nil
}

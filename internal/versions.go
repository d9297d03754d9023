package internal

import (
	"fmt"
	"strings"
)

// AddVersionOptions tunes AddVersion
type AddVersionOptions struct {
	SetActive bool
}

// DeleteResult reports the side effects of DeleteVersion
type DeleteResult struct {
	Deleted string
	// ActiveReset is set when the deleted version was active and the
	// active pointer moved to NewActive.
	ActiveReset bool
	NewActive   string
}

// VersionManager adds, deletes and promotes versions of a single prompt
type VersionManager struct {
	store  *OverlayStore
	doc    *Document
	repair *Repairer
	order  VersionSort
}

// NewVersionManager creates a version manager
func NewVersionManager(store *OverlayStore, doc *Document, repair *Repairer, order VersionSort) *VersionManager {
	if doc == nil {
		doc = NewDocument()
	}
	return &VersionManager{store: store, doc: doc, repair: repair, order: order}
}

// NextVersionID returns v<max+1> over the ids of the form v<digits>
func NextVersionID(existing []string) string {
	max := 0
	for _, id := range existing {
		if n, ok := versionNumber(id); ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("v%d", max+1)
}

// ListVersions returns the merged version ids of id
func (m *VersionManager) ListVersions(id string) ([]string, error) {
	snap, err := m.store.Snapshot()
	if err != nil {
		return nil, err
	}
	versions, _, err := m.merged(snap, id)
	if err != nil {
		return nil, err
	}
	return SortVersionIDs(versionKeys(versions), m.order), nil
}

// AddVersion writes a new version into the overlay and returns its id. An
// empty vid takes the next free id.
func (m *VersionManager) AddVersion(id, vid string, data Version, opts AddVersionOptions) (string, error) {
	if strings.TrimSpace(data.Name) == "" {
		return "", &ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(data.Description) == "" {
		return "", &ValidationError{Field: "description", Reason: "is required"}
	}

	snap, err := m.store.Snapshot()
	if err != nil {
		return "", err
	}
	versions, _, err := m.merged(snap, id)
	if err != nil {
		return "", err
	}
	if vid == "" {
		vid = NextVersionID(versionKeys(versions))
	}
	if !ValidVersionID(vid) {
		return "", &ValidationError{Field: "version", Reason: fmt.Sprintf("%q must look like v<positive integer>", vid)}
	}
	if _, exists := versions[vid]; exists {
		return "", &ValidationError{Field: "version", Reason: fmt.Sprintf("%s already exists", vid)}
	}

	stamp := m.store.timestamp()
	cur := currentFor(snap, id)
	cur.Versions[vid] = data
	if opts.SetActive {
		cur.Metadata.ActiveVersion = stringPtr(vid)
	}
	cur.UpdatedAt = stamp
	if legacy, ok := snap.Legacy[id]; ok {
		legacy.Versions[vid] = data
		if opts.SetActive {
			legacy.Metadata.ActiveVersion = stringPtr(vid)
		}
	}

	if err := m.commit(snap); err != nil {
		return "", err
	}
	LogInfo("Added version %s to %s", vid, id)
	return vid, nil
}

// DeleteVersion removes an overlay version. v1 and versions that exist only
// in the baseline are protected, and the last version cannot be removed.
func (m *VersionManager) DeleteVersion(id, vid string) (*DeleteResult, error) {
	if vid == DefaultVersion {
		return nil, &ProtectedVersionError{PromptID: id, VersionID: vid, Reason: "base version"}
	}
	snap, err := m.store.Snapshot()
	if err != nil {
		return nil, err
	}
	versions, meta, err := m.merged(snap, id)
	if err != nil {
		return nil, err
	}
	if _, ok := versions[vid]; !ok {
		return nil, &UnknownVersionError{PromptID: id, VersionID: vid}
	}
	if len(versions) == 1 {
		return nil, &LastVersionError{PromptID: id, VersionID: vid}
	}
	view := snap.View(id)
	if view == nil || !hasVersion(view.Versions, vid) {
		return nil, &ProtectedVersionError{PromptID: id, VersionID: vid, Reason: "baseline version"}
	}

	res := &DeleteResult{Deleted: vid}
	delete(versions, vid)
	if meta.Active() == vid {
		res.ActiveReset = true
		res.NewActive = DefaultVersion
		if _, ok := versions[DefaultVersion]; !ok {
			res.NewActive = SortVersionIDs(versionKeys(versions), SortNumeric)[0]
		}
	}

	stamp := m.store.timestamp()
	if cur, ok := snap.Current[id]; ok {
		delete(cur.Versions, vid)
		if res.ActiveReset {
			cur.Metadata.ActiveVersion = stringPtr(res.NewActive)
		}
		cur.UpdatedAt = stamp
	} else if res.ActiveReset {
		cur := currentFor(snap, id)
		cur.Metadata.ActiveVersion = stringPtr(res.NewActive)
		cur.UpdatedAt = stamp
	}
	if legacy, ok := snap.Legacy[id]; ok {
		delete(legacy.Versions, vid)
		if res.ActiveReset {
			legacy.Metadata.ActiveVersion = stringPtr(res.NewActive)
		}
	}
	pruneEntry(snap, id)

	if err := m.commit(snap); err != nil {
		return nil, err
	}
	if res.ActiveReset {
		LogWarn("Deleted active version %s of %s; active version is now %s", vid, id, res.NewActive)
	} else {
		LogInfo("Deleted version %s of %s", vid, id)
	}
	return res, nil
}

// SetActiveVersion points the active version of id at vid in both generations
func (m *VersionManager) SetActiveVersion(id, vid string) error {
	snap, err := m.store.Snapshot()
	if err != nil {
		return err
	}
	versions, _, err := m.merged(snap, id)
	if err != nil {
		return err
	}
	if _, ok := versions[vid]; !ok {
		return &UnknownVersionError{PromptID: id, VersionID: vid}
	}

	cur := currentFor(snap, id)
	cur.Metadata.ActiveVersion = stringPtr(vid)
	cur.UpdatedAt = m.store.timestamp()
	if legacy, ok := snap.Legacy[id]; ok {
		legacy.Metadata.ActiveVersion = stringPtr(vid)
	}
	if err := m.commit(snap); err != nil {
		return err
	}
	LogInfo("Active version of %s set to %s", id, vid)
	return nil
}

// merged returns the baseline ∪ overlay version map and merged metadata of id
func (m *VersionManager) merged(snap *OverlaySnapshot, id string) (map[string]Version, Metadata, error) {
	view := snap.Effective(id)
	base, hasBase := m.doc.Get(id)
	if !hasBase && view == nil {
		return nil, Metadata{}, fmt.Errorf("%w: %s", ErrPromptNotFound, id)
	}
	versions := make(map[string]Version)
	var meta Metadata
	if hasBase {
		for vid, v := range base.Versions {
			versions[vid] = v
		}
		meta = base.Metadata
	}
	if view != nil {
		for vid, v := range view.Versions {
			versions[vid] = v
		}
		meta = meta.Merge(view.Metadata)
	}
	return versions, meta, nil
}

func (m *VersionManager) commit(snap *OverlaySnapshot) error {
	if err := m.store.SaveSnapshot(snap); err != nil {
		return err
	}
	if m.repair != nil {
		if _, err := m.repair.Reconcile(); err != nil {
			return err
		}
	}
	return nil
}

// currentFor returns the current-generation entry of id, creating it
func currentFor(snap *OverlaySnapshot, id string) *CurrentEntry {
	cur, ok := snap.Current[id]
	if !ok {
		cur = &CurrentEntry{}
		snap.Current[id] = cur
	}
	if cur.Versions == nil {
		cur.Versions = make(map[string]Version)
	}
	if legacy, ok := snap.Legacy[id]; ok && legacy.Versions == nil {
		legacy.Versions = make(map[string]Version)
	}
	return cur
}

// pruneEntry drops overlay wrappers of id left with nothing in them
func pruneEntry(snap *OverlaySnapshot, id string) {
	if cur, ok := snap.Current[id]; ok {
		if len(cur.Versions) == 0 {
			cur.Versions = nil
		}
		if cur.IsEmpty() {
			delete(snap.Current, id)
		}
	}
	if legacy, ok := snap.Legacy[id]; ok {
		if len(legacy.Versions) == 0 && legacy.Metadata.IsEmpty() {
			delete(snap.Legacy, id)
		}
	}
}

func hasVersion(m map[string]Version, vid string) bool {
	_, ok := m[vid]
	return ok
}

package internal

import (
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// Repairer keeps the two overlay generations consistent
type Repairer struct {
	store *OverlayStore
	doc   *Document
}

// NewRepairer creates a repairer over store. doc is only used by Diagnose to
// tell custom prompts from overrides.
func NewRepairer(store *OverlayStore, doc *Document) *Repairer {
	if doc == nil {
		doc = NewDocument()
	}
	return &Repairer{store: store, doc: doc}
}

// Reconcile makes sure every legacy entry has a current-generation entry
// holding all of its versions. When the generations disagree on the active
// version, the legacy value is copied over. It writes only if something changed.
func (r *Repairer) Reconcile() (bool, error) {
	snap, err := r.store.Snapshot()
	if err != nil {
		return false, err
	}
	if !reconcileSnapshot(snap, r.store.timestamp()) {
		return false, nil
	}
	if err := r.store.SaveCurrent(snap.Current); err != nil {
		return false, err
	}
	logKV("Reconciled overlay generations", "legacy", len(snap.Legacy), "current", len(snap.Current))
	return true, nil
}

func reconcileSnapshot(snap *OverlaySnapshot, stamp string) bool {
	changed := false
	for id, legacy := range snap.Legacy {
		cur, ok := snap.Current[id]
		if !ok {
			cur = ToCurrent(legacy)
			cur.UpdatedAt = stamp
			snap.Current[id] = cur
			LogDebug("Created current entry for legacy prompt %s", id)
			changed = true
			continue
		}
		touched := false
		for vid, v := range legacy.Versions {
			if _, ok := cur.Versions[vid]; ok {
				continue
			}
			if cur.Versions == nil {
				cur.Versions = make(map[string]Version)
			}
			cur.Versions[vid] = v
			LogDebug("Copied version %s of %s into current entry", vid, id)
			touched = true
		}
		if la := legacy.Metadata.ActiveVersion; la != nil {
			if ca := cur.Metadata.ActiveVersion; ca == nil || *ca != *la {
				cur.Metadata.ActiveVersion = stringPtr(*la)
				LogDebug("Active version of %s set to %s from legacy entry", id, *la)
				touched = true
			}
		}
		if touched {
			cur.UpdatedAt = stamp
			changed = true
		}
	}
	return changed
}

// FieldMismatch is one field on which the two generations disagree
type FieldMismatch struct {
	ID      string
	Field   string
	Legacy  string
	Current string
}

// Report is a read-only audit of the overlay
type Report struct {
	LegacyCount       int
	CurrentCount      int
	LegacyRecordCount int
	TagOrderCount     int
	PersonalTagCount  int
	Overlapping       []string
	LegacyOnly        []string
	CurrentOnly       []string
	Mismatches        []FieldMismatch
	// Diffs holds a unified diff of the two generations per mismatching id.
	Diffs map[string]string
	// IncompleteCustom lists custom prompts missing tag, author, title or versions.
	IncompleteCustom []string
	Sizes            map[string]int
}

// Redundant reports whether any id is stored in both generations
func (rep *Report) Redundant() bool {
	return len(rep.Overlapping) > 0
}

// Diagnose audits the overlay without mutating it
func (r *Repairer) Diagnose() (*Report, error) {
	snap, err := r.store.Snapshot()
	if err != nil {
		return nil, err
	}
	rep := &Report{
		LegacyCount:  len(snap.Legacy),
		CurrentCount: len(snap.Current),
		Diffs:        make(map[string]string),
	}

	if rep.Sizes, err = r.store.Sizes(); err != nil {
		return nil, err
	}
	records, err := r.store.LegacyRecordIDs()
	if err != nil {
		return nil, err
	}
	rep.LegacyRecordCount = len(records)
	if tags, _, err := r.store.LoadTagOrder(); err == nil {
		rep.TagOrderCount = len(tags)
	}
	if tags, _, err := r.store.LoadPersonalTags(); err == nil {
		rep.PersonalTagCount = len(tags)
	}

	for _, id := range snap.IDs() {
		legacy, inLegacy := snap.Legacy[id]
		current, inCurrent := snap.Current[id]
		switch {
		case inLegacy && inCurrent:
			rep.Overlapping = append(rep.Overlapping, id)
			mismatches := compareGenerations(id, legacy, current)
			if len(mismatches) > 0 {
				rep.Mismatches = append(rep.Mismatches, mismatches...)
				diff, err := generationDiff(id, legacy, current)
				if err != nil {
					return nil, err
				}
				rep.Diffs[id] = diff
			}
		case inLegacy:
			rep.LegacyOnly = append(rep.LegacyOnly, id)
		default:
			rep.CurrentOnly = append(rep.CurrentOnly, id)
		}

		if _, ok := r.doc.Get(id); !ok && !customComplete(snap.View(id)) {
			rep.IncompleteCustom = append(rep.IncompleteCustom, id)
		}
	}
	return rep, nil
}

func customComplete(c *CurrentEntry) bool {
	m := c.Metadata
	return deref(m.Tag) != "" && deref(m.Author) != "" && deref(m.DisplayTitle) != "" && len(c.Versions) > 0
}

func compareGenerations(id string, legacy *FlatPrompt, current *CurrentEntry) []FieldMismatch {
	var out []FieldMismatch
	add := func(field, l, c string) {
		if l != c {
			out = append(out, FieldMismatch{ID: id, Field: field, Legacy: l, Current: c})
		}
	}
	lm, cm := legacy.Metadata, current.Metadata
	add("tag", deref(lm.Tag), deref(cm.Tag))
	add("author", deref(lm.Author), deref(cm.Author))
	add("displayTitle", deref(lm.DisplayTitle), deref(cm.DisplayTitle))
	add("activeVersion", lm.Active(), cm.Active())
	add("draft", fmt.Sprint(lm.Draft != nil && *lm.Draft), fmt.Sprint(cm.Draft != nil && *cm.Draft))

	seen := make(map[string]bool)
	for vid := range legacy.Versions {
		seen[vid] = true
	}
	for vid := range current.Versions {
		seen[vid] = true
	}
	ids := make([]string, 0, len(seen))
	for vid := range seen {
		ids = append(ids, vid)
	}
	for _, vid := range SortVersionIDs(ids, SortNumeric) {
		lv, lok := legacy.Versions[vid]
		cv, cok := current.Versions[vid]
		switch {
		case !lok:
			add(vid, "<missing>", "<present>")
		case !cok:
			add(vid, "<present>", "<missing>")
		default:
			add(vid+".name", lv.Name, cv.Name)
			add(vid+".description", lv.Description, cv.Description)
			add(vid+".content", lv.Content, cv.Content)
		}
	}
	return out
}

func generationDiff(id string, legacy *FlatPrompt, current *CurrentEntry) (string, error) {
	a, err := yaml.Marshal(legacy)
	if err != nil {
		return "", fmt.Errorf("failed to render legacy %s: %w", id, err)
	}
	b, err := yaml.Marshal(ToLegacy(current))
	if err != nil {
		return "", fmt.Errorf("failed to render current %s: %w", id, err)
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: KeyLegacyPrompts + "/" + id,
		ToFile:   KeyCurrentPrompts + "/" + id,
		Context:  2,
	})
}

// UnifyResult reports what Unify did
type UnifyResult struct {
	Migrated      []string
	Skipped       []string
	ClearedLegacy bool
}

// Unify migrates legacy-only prompts into the current generation. Ids
// already present there are left alone. With clearLegacy the legacy
// aggregate is removed afterwards.
func (r *Repairer) Unify(clearLegacy bool) (*UnifyResult, error) {
	snap, err := r.store.Snapshot()
	if err != nil {
		return nil, err
	}
	res := &UnifyResult{}
	stamp := r.store.timestamp()
	for id, legacy := range snap.Legacy {
		if _, ok := snap.Current[id]; ok {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		cur := ToCurrent(legacy)
		cur.UpdatedAt = stamp
		snap.Current[id] = cur
		res.Migrated = append(res.Migrated, id)
	}
	sort.Strings(res.Migrated)
	sort.Strings(res.Skipped)

	if len(res.Migrated) > 0 {
		if err := r.store.SaveCurrent(snap.Current); err != nil {
			return nil, err
		}
	}
	if clearLegacy {
		if err := r.store.Remove(KeyLegacyPrompts); err != nil {
			return nil, err
		}
		res.ClearedLegacy = true
	}
	LogInfo("Unified overlay: %d migrated, %d already current", len(res.Migrated), len(res.Skipped))
	return res, nil
}

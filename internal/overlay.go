package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Persisted keys. The names are those written by earlier versions of the
// library, so old stores keep loading.
const (
	KeyLegacyRecordPrefix = "gpts_prompt_"
	KeyLegacyPrompts      = "customPrompts"
	KeyCurrentPrompts     = "customPromptData"
	KeyTagOrder           = "allTags"
	KeyPersonalTags       = "personalTags"
	KeyCustomVersions     = "customVersions"
	KeyModifiedPrompts    = "modifiedPrompts"
)

// Generation identifies which overlay schema an entry is stored in
type Generation int

const (
	// Legacy entries are flat: metadata plus v1, v2, ... siblings.
	Legacy Generation = iota
	// Current entries nest versions under a versions map and carry updatedAt.
	Current
)

func (g Generation) String() string {
	switch g {
	case Legacy:
		return "legacy"
	case Current:
		return "current"
	default:
		return fmt.Sprintf("generation(%d)", int(g))
	}
}

// OverlayEntry is one overlay record tagged with its schema generation.
// Exactly one of Legacy or Current is set, matching Kind.
type OverlayEntry struct {
	Kind    Generation
	Legacy  *FlatPrompt
	Current *CurrentEntry
}

// NewLegacyEntry wraps a flat record
func NewLegacyEntry(p *FlatPrompt) OverlayEntry {
	return OverlayEntry{Kind: Legacy, Legacy: p}
}

// NewCurrentEntry wraps a nested record
func NewCurrentEntry(c *CurrentEntry) OverlayEntry {
	return OverlayEntry{Kind: Current, Current: c}
}

// AsCurrent returns the entry in the current shape, converting legacy data
func (e OverlayEntry) AsCurrent() *CurrentEntry {
	if e.Kind == Legacy {
		return ToCurrent(e.Legacy)
	}
	return e.Current.Clone()
}

// ToCurrent migrates a legacy flat record into the nested shape
func ToCurrent(p *FlatPrompt) *CurrentEntry {
	if p == nil {
		return nil
	}
	return &CurrentEntry{
		Metadata: Metadata{}.Merge(p.Metadata),
		Versions: cloneVersions(p.Versions),
	}
}

// ToLegacy flattens a nested record
func ToLegacy(c *CurrentEntry) *FlatPrompt {
	if c == nil {
		return nil
	}
	versions := cloneVersions(c.Versions)
	if versions == nil {
		versions = make(map[string]Version)
	}
	return &FlatPrompt{Metadata: Metadata{}.Merge(c.Metadata), Versions: versions}
}

// LegacyRecord is the oldest per-prompt record, kept under gpts_prompt_<id>
type LegacyRecord struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

// OverlayStore reads and writes the user's overlay over a KV medium. Every
// mutation rewrites the whole serialized blob of its generation.
type OverlayStore struct {
	kv  KV
	now func() time.Time
}

// NewOverlayStore creates an overlay store over kv
func NewOverlayStore(kv KV) *OverlayStore {
	return &OverlayStore{kv: kv, now: time.Now}
}

// LoadLegacy returns the legacy aggregate map. A corrupt blob is removed and
// reported as empty.
func (s *OverlayStore) LoadLegacy() (map[string]*FlatPrompt, error) {
	var out map[string]*FlatPrompt
	loaded, err := s.loadBlob(KeyLegacyPrompts, &out)
	if err != nil {
		return nil, err
	}
	if !loaded || out == nil {
		out = make(map[string]*FlatPrompt)
	}
	for id, p := range out {
		if p == nil {
			delete(out, id)
		}
	}
	return out, nil
}

// LoadCurrent returns the current-generation aggregate map
func (s *OverlayStore) LoadCurrent() (map[string]*CurrentEntry, error) {
	var out map[string]*CurrentEntry
	loaded, err := s.loadBlob(KeyCurrentPrompts, &out)
	if err != nil {
		return nil, err
	}
	if !loaded || out == nil {
		out = make(map[string]*CurrentEntry)
	}
	for id, c := range out {
		if c == nil {
			delete(out, id)
		}
	}
	return out, nil
}

// SaveLegacy overwrites the legacy aggregate map
func (s *OverlayStore) SaveLegacy(m map[string]*FlatPrompt) error {
	return s.saveBlob(KeyLegacyPrompts, m)
}

// SaveCurrent overwrites the current-generation aggregate map
func (s *OverlayStore) SaveCurrent(m map[string]*CurrentEntry) error {
	return s.saveBlob(KeyCurrentPrompts, m)
}

// Get returns the authoritative entry for id: current generation first, then legacy.
func (s *OverlayStore) Get(id string) (OverlayEntry, bool, error) {
	current, err := s.LoadCurrent()
	if err != nil {
		return OverlayEntry{}, false, err
	}
	if c, ok := current[id]; ok {
		return NewCurrentEntry(c), true, nil
	}
	legacy, err := s.LoadLegacy()
	if err != nil {
		return OverlayEntry{}, false, err
	}
	if p, ok := legacy[id]; ok {
		return NewLegacyEntry(p), true, nil
	}
	return OverlayEntry{}, false, nil
}

// Put writes entry into the generation named by its Kind. Current entries
// are stamped with updatedAt.
func (s *OverlayStore) Put(id string, entry OverlayEntry) error {
	switch entry.Kind {
	case Legacy:
		if entry.Legacy == nil {
			return fmt.Errorf("put %s: nil legacy entry", id)
		}
		legacy, err := s.LoadLegacy()
		if err != nil {
			return err
		}
		legacy[id] = entry.Legacy.Clone()
		return s.SaveLegacy(legacy)
	case Current:
		if entry.Current == nil {
			return fmt.Errorf("put %s: nil current entry", id)
		}
		current, err := s.LoadCurrent()
		if err != nil {
			return err
		}
		c := entry.Current.Clone()
		c.UpdatedAt = s.timestamp()
		current[id] = c
		return s.SaveCurrent(current)
	default:
		return fmt.Errorf("put %s: unknown generation %v", id, entry.Kind)
	}
}

// Delete removes every overlay representation of id: both aggregate
// generations and the per-prompt legacy record.
func (s *OverlayStore) Delete(id string) error {
	legacy, err := s.LoadLegacy()
	if err != nil {
		return err
	}
	if _, ok := legacy[id]; ok {
		delete(legacy, id)
		if err := s.SaveLegacy(legacy); err != nil {
			return err
		}
	}
	current, err := s.LoadCurrent()
	if err != nil {
		return err
	}
	if _, ok := current[id]; ok {
		delete(current, id)
		if err := s.SaveCurrent(current); err != nil {
			return err
		}
	}
	return s.kv.Remove(KeyLegacyRecordPrefix + id)
}

// AllIDs returns every id present in either generation, sorted
func (s *OverlayStore) AllIDs() ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.IDs(), nil
}

// Snapshot loads both generations at once
func (s *OverlayStore) Snapshot() (*OverlaySnapshot, error) {
	legacy, err := s.LoadLegacy()
	if err != nil {
		return nil, err
	}
	current, err := s.LoadCurrent()
	if err != nil {
		return nil, err
	}
	return &OverlaySnapshot{Legacy: legacy, Current: current}, nil
}

// SaveSnapshot writes both generations back. An empty legacy map is only
// written when the legacy key already exists.
func (s *OverlayStore) SaveSnapshot(snap *OverlaySnapshot) error {
	_, hasLegacy, err := s.kv.Get(KeyLegacyPrompts)
	if err != nil {
		return err
	}
	if hasLegacy || len(snap.Legacy) > 0 {
		if err := s.SaveLegacy(snap.Legacy); err != nil {
			return err
		}
	}
	return s.SaveCurrent(snap.Current)
}

// LegacyRecord returns the per-prompt record stored under gpts_prompt_<id>
func (s *OverlayStore) LegacyRecord(id string) (*LegacyRecord, bool, error) {
	var rec *LegacyRecord
	key := KeyLegacyRecordPrefix + id
	raw, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec == nil {
		LogWarn("Removing corrupt record %s: %v", key, err)
		return nil, false, s.kv.Remove(key)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, true, nil
}

// PutLegacyRecord writes a per-prompt record
func (s *OverlayStore) PutLegacyRecord(rec LegacyRecord) error {
	return s.saveBlob(KeyLegacyRecordPrefix+rec.ID, rec)
}

// LegacyRecordIDs lists the ids that have a per-prompt record
func (s *OverlayStore) LegacyRecordIDs() ([]string, error) {
	pairs, err := s.kv.Scan(KeyLegacyRecordPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pairs))
	for _, p := range pairs {
		ids = append(ids, strings.TrimPrefix(p.Key, KeyLegacyRecordPrefix))
	}
	return ids, nil
}

// LoadTagOrder returns the persisted registry order and whether it was set
func (s *OverlayStore) LoadTagOrder() ([]string, bool, error) {
	return s.loadStrings(KeyTagOrder)
}

// SaveTagOrder persists the registry order
func (s *OverlayStore) SaveTagOrder(tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return s.saveBlob(KeyTagOrder, tags)
}

// LoadPersonalTags returns the pre-unification personal tag list
func (s *OverlayStore) LoadPersonalTags() ([]string, bool, error) {
	return s.loadStrings(KeyPersonalTags)
}

// SavePersonalTags persists the personal tag list
func (s *OverlayStore) SavePersonalTags(tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return s.saveBlob(KeyPersonalTags, tags)
}

// Sizes returns the stored byte size of every key
func (s *OverlayStore) Sizes() (map[string]int, error) {
	pairs, err := s.kv.Scan("")
	if err != nil {
		return nil, err
	}
	sizes := make(map[string]int, len(pairs))
	for _, p := range pairs {
		sizes[p.Key] = len(p.Value)
	}
	return sizes, nil
}

// Remove deletes a raw key
func (s *OverlayStore) Remove(key string) error {
	return s.kv.Remove(key)
}

func (s *OverlayStore) loadStrings(key string) ([]string, bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		LogWarn("Removing corrupt key %s: %v", key, err)
		return nil, false, s.kv.Remove(key)
	}
	return out, true, nil
}

// loadBlob decodes key into v and reports whether it did. A blob that does
// not decode is deleted; v must then be discarded by the caller.
func (s *OverlayStore) loadBlob(key string, v interface{}) (bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		LogWarn("Removing corrupt key %s: %v", key, err)
		return false, s.kv.Remove(key)
	}
	return true, nil
}

func (s *OverlayStore) saveBlob(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.kv.Set(key, string(data))
}

func (s *OverlayStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// OverlaySnapshot is both overlay generations held in memory for one
// read-modify-write cycle.
type OverlaySnapshot struct {
	Legacy  map[string]*FlatPrompt
	Current map[string]*CurrentEntry
}

// NewOverlaySnapshot returns an empty snapshot
func NewOverlaySnapshot() *OverlaySnapshot {
	return &OverlaySnapshot{
		Legacy:  make(map[string]*FlatPrompt),
		Current: make(map[string]*CurrentEntry),
	}
}

// IDs returns every id present in either generation, sorted
func (o *OverlaySnapshot) IDs() []string {
	seen := make(map[string]bool, len(o.Legacy)+len(o.Current))
	for id := range o.Legacy {
		seen[id] = true
	}
	for id := range o.Current {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether either generation holds id
func (o *OverlaySnapshot) Has(id string) bool {
	_, l := o.Legacy[id]
	_, c := o.Current[id]
	return l || c
}

// Effective returns the overlay record that reads use for id: the current
// generation when it holds id, the migrated legacy entry otherwise, nil when
// id has no overlay.
func (o *OverlaySnapshot) Effective(id string) *CurrentEntry {
	if current, ok := o.Current[id]; ok {
		return current.Clone()
	}
	if legacy, ok := o.Legacy[id]; ok {
		return ToCurrent(legacy)
	}
	return nil
}

// View merges both generations of id into one nested record; fields defined
// in the current generation win. It returns nil when id has no overlay.
// Reads go through Effective; View serves audits and tag cleanup.
func (o *OverlaySnapshot) View(id string) *CurrentEntry {
	legacy, hasLegacy := o.Legacy[id]
	current, hasCurrent := o.Current[id]
	switch {
	case hasLegacy && hasCurrent:
		view := ToCurrent(legacy)
		view.Metadata = view.Metadata.Merge(current.Metadata)
		if view.Versions == nil {
			view.Versions = make(map[string]Version)
		}
		for vid, v := range current.Versions {
			view.Versions[vid] = v
		}
		view.UpdatedAt = current.UpdatedAt
		return view
	case hasCurrent:
		return current.Clone()
	case hasLegacy:
		return ToCurrent(legacy)
	default:
		return nil
	}
}

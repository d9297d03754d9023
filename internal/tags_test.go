package internal

import (
	"errors"
	"reflect"
	"testing"
)

func TestTagRegistry_AddAndReorder(t *testing.T) {
	store, kv := newTestOverlayStore(t)
	reg, err := LoadTagRegistry(store, nil, nil)
	if err != nil {
		t.Fatalf("LoadTagRegistry() error = %v", err)
	}
	if !reflect.DeepEqual(reg.Tags(), []string{"使用中", "Gemini 生成"}) {
		t.Fatalf("Tags() = %v, want defaults", reg.Tags())
	}

	if err := reg.Add("草稿"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if want := []string{"使用中", "Gemini 生成", "草稿"}; !reflect.DeepEqual(reg.Tags(), want) {
		t.Errorf("Tags() = %v, want %v", reg.Tags(), want)
	}

	if err := reg.Reorder("草稿", Up); err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	want := []string{"使用中", "草稿", "Gemini 生成"}
	if !reflect.DeepEqual(reg.Tags(), want) {
		t.Errorf("Tags() = %v, want %v", reg.Tags(), want)
	}

	persisted, ok, _ := store.LoadTagOrder()
	if !ok || !reflect.DeepEqual(persisted, want) {
		t.Errorf("persisted order = %v, want %v", persisted, want)
	}
	if raw, _, _ := kv.Get(KeyPersonalTags); raw != "[]" {
		t.Errorf("personalTags = %q, want []", raw)
	}
}

func TestTagRegistry_ReorderAtBoundaries(t *testing.T) {
	store, _ := newTestOverlayStore(t)
	reg, _ := LoadTagRegistry(store, nil, nil)

	tests := []struct {
		name string
		tag  string
		dir  Direction
	}{
		{name: "first up", tag: "使用中", dir: Up},
		{name: "last down", tag: "Gemini 生成", dir: Down},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Reorder(tt.tag, tt.dir); err != nil {
				t.Fatalf("Reorder() error = %v", err)
			}
			if !reflect.DeepEqual(reg.Tags(), DefaultTags) {
				t.Errorf("Tags() = %v, want unchanged", reg.Tags())
			}
		})
	}

	if err := reg.Reorder("missing", Up); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Reorder(missing) error = %v, want ErrTagNotFound", err)
	}
}

func TestTagRegistry_AddErrors(t *testing.T) {
	store, _ := newTestOverlayStore(t)
	reg, _ := LoadTagRegistry(store, nil, nil)

	var dup *DuplicateTagError
	if err := reg.Add("使用中"); !errors.As(err, &dup) {
		t.Errorf("Add(duplicate) error = %v, want *DuplicateTagError", err)
	}
	var verr *ValidationError
	if err := reg.Add("   "); !errors.As(err, &verr) {
		t.Errorf("Add(blank) error = %v, want *ValidationError", err)
	}
}

func TestLoadTagRegistry_Seeding(t *testing.T) {
	doc := CreateTestDocument([]string{"寫作"}, nil)

	t.Run("personal tags merged without persisted order", func(t *testing.T) {
		store, _ := newTestOverlayStore(t)
		_ = store.SavePersonalTags([]string{"個人", "寫作"})
		_ = store.Put("c", NewCurrentEntry(ToCurrent(CreateTestPrompt("孤兒", "me", "C", "content"))))

		reg, err := LoadTagRegistry(store, doc, nil)
		if err != nil {
			t.Fatalf("LoadTagRegistry() error = %v", err)
		}
		want := []string{"使用中", "Gemini 生成", "寫作", "個人", "孤兒"}
		if !reflect.DeepEqual(reg.Tags(), want) {
			t.Errorf("Tags() = %v, want %v", reg.Tags(), want)
		}
	})

	t.Run("persisted order replaces baseline", func(t *testing.T) {
		store, _ := newTestOverlayStore(t)
		_ = store.SaveTagOrder([]string{"寫作", "使用中"})
		_ = store.SavePersonalTags([]string{"ignored"})

		reg, err := LoadTagRegistry(store, doc, nil)
		if err != nil {
			t.Fatalf("LoadTagRegistry() error = %v", err)
		}
		if want := []string{"寫作", "使用中"}; !reflect.DeepEqual(reg.Tags(), want) {
			t.Errorf("Tags() = %v, want %v", reg.Tags(), want)
		}
	})
}

func TestTagRegistry_RenameCascades(t *testing.T) {
	store, _ := newSampleStore(t)
	doc := sampleDocument(t)
	repair := NewRepairer(store, doc)
	reg, err := LoadTagRegistry(store, doc, repair)
	if err != nil {
		t.Fatalf("LoadTagRegistry() error = %v", err)
	}

	if err := reg.Rename("寫作", "文字"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if want := []string{"使用中", "Gemini 生成", "文字", "個人"}; !reflect.DeepEqual(reg.Tags(), want) {
		t.Errorf("Tags() = %v, want %v", reg.Tags(), want)
	}

	snap, _ := store.Snapshot()
	p, err := NewResolver(doc, snap).Resolve("writer")
	if err != nil {
		t.Fatalf("Resolve(writer) error = %v", err)
	}
	if p.Tag != "文字" {
		t.Errorf("writer tag = %q, want 文字", p.Tag)
	}
	if n, _ := reg.UsageCount("寫作"); n != 0 {
		t.Errorf("UsageCount(寫作) = %d after rename", n)
	}

	if err := reg.Rename("個人", "個人"); err != nil {
		t.Errorf("Rename() to the same name error = %v", err)
	}
	var dup *DuplicateTagError
	if err := reg.Rename("文字", "個人"); !errors.As(err, &dup) {
		t.Errorf("Rename() onto existing tag error = %v, want *DuplicateTagError", err)
	}
}

func TestTagRegistry_RenameRetagsOverlay(t *testing.T) {
	store, _ := newSampleStore(t)
	reg, _ := LoadTagRegistry(store, nil, nil)

	if err := reg.Rename("個人", "私人"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	legacy, _ := store.LoadLegacy()
	if deref(legacy["mine"].Metadata.Tag) != "私人" {
		t.Errorf("legacy tag = %q, want 私人", deref(legacy["mine"].Metadata.Tag))
	}
}

func TestTagRegistry_Remove(t *testing.T) {
	store, _ := newSampleStore(t)
	reg, _ := LoadTagRegistry(store, sampleDocument(t), nil)

	var inUse *TagInUseError
	if err := reg.Remove("使用中"); !errors.As(err, &inUse) {
		t.Fatalf("Remove(used) error = %v, want *TagInUseError", err)
	}
	if inUse.Count != 1 {
		t.Errorf("TagInUseError.Count = %d, want 1", inUse.Count)
	}

	if err := reg.Remove("Gemini 生成"); err != nil {
		t.Fatalf("Remove(unused) error = %v", err)
	}
	if reg.Contains("Gemini 生成") {
		t.Error("tag still registered after Remove()")
	}
	if err := reg.Remove("nope"); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Remove(missing) error = %v, want ErrTagNotFound", err)
	}
}

func TestTagRegistry_CleanUnused(t *testing.T) {
	store, _ := newSampleStore(t)
	reg, _ := LoadTagRegistry(store, sampleDocument(t), nil)

	unused, err := reg.UnusedTags()
	if err != nil {
		t.Fatalf("UnusedTags() error = %v", err)
	}
	if !reflect.DeepEqual(unused, []string{"Gemini 生成"}) {
		t.Fatalf("UnusedTags() = %v, want [Gemini 生成]", unused)
	}

	removed, err := reg.CleanUnused(func([]string) bool { return false })
	if err != nil || removed != nil {
		t.Errorf("CleanUnused(declined) = %v, %v", removed, err)
	}
	if !reg.Contains("Gemini 生成") {
		t.Error("declined CleanUnused() removed tags")
	}

	removed, err = reg.CleanUnused(nil)
	if err != nil {
		t.Fatalf("CleanUnused() error = %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"Gemini 生成"}) || reg.Contains("Gemini 生成") {
		t.Errorf("CleanUnused() = %v, tags = %v", removed, reg.Tags())
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("UP"); err != nil || d != Up {
		t.Errorf("ParseDirection(UP) = %v, %v", d, err)
	}
	if d, err := ParseDirection("down"); err != nil || d != Down {
		t.Errorf("ParseDirection(down) = %v, %v", d, err)
	}
	if _, err := ParseDirection("left"); err == nil {
		t.Error("ParseDirection(left) should fail")
	}
}

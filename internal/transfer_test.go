package internal

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/iksnae/promptlib/testutil"
	"gopkg.in/yaml.v3"
)

func TestLibrary_Export(t *testing.T) {
	lib, _ := newSampleLibrary(t)

	doc, err := lib.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if want := []string{"p1", "writer", "hidden", "broken", "mine"}; !reflect.DeepEqual(doc.Order, want) {
		t.Errorf("Order = %v, want %v", doc.Order, want)
	}
	if want := []string{"使用中", "Gemini 生成", "寫作", "個人"}; !reflect.DeepEqual(doc.Metadata.TagOrder, want) {
		t.Errorf("TagOrder = %v, want %v", doc.Metadata.TagOrder, want)
	}
	p1, _ := doc.Get("p1")
	if p1.Metadata.Active() != "v2" || p1.Versions["v1"].Content != "A" || p1.Versions["v2"].Content != "B" {
		t.Errorf("exported p1 = %+v, want baseline v1 plus overlay v2 active", p1)
	}
	if base, _ := lib.Catalog().Document.Get("p1"); len(base.Versions) != 1 {
		t.Error("Export() modified the baseline document")
	}
}

func TestLibrary_ExportWithoutOverlayResolvesLikeBaseline(t *testing.T) {
	cat, err := LoadBaseline(strings.NewReader(testutil.SampleBaselineYAML))
	if err != nil {
		t.Fatalf("LoadBaseline() error = %v", err)
	}
	lib, err := NewLibrary(cat, NewMemoryKV(), Options{})
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	doc, err := lib.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	exported, err := ParseDocument(data, "export")
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	before := NewResolver(cat.Document, nil)
	after := NewResolver(exported, nil)
	if !reflect.DeepEqual(after.IDs(), before.IDs()) {
		t.Fatalf("IDs() = %v, want %v", after.IDs(), before.IDs())
	}
	for _, id := range before.IDs() {
		t.Run(id, func(t *testing.T) {
			want, wantErr := before.Resolve(id)
			got, gotErr := after.Resolve(id)
			if (wantErr == nil) != (gotErr == nil) {
				t.Fatalf("Resolve() error = %v, want %v", gotErr, wantErr)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Resolve() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestLibrary_ExportImportRoundTrip(t *testing.T) {
	lib, kv := newSampleLibrary(t)
	doc, err := lib.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}

	var confirmed *Document
	res, err := lib.Import(bytes.NewReader(data), func(d *Document) bool {
		confirmed = d
		return true
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if confirmed == nil || res.Prompts != 5 {
		t.Errorf("Import() prompts = %d, confirm called = %v", res.Prompts, confirmed != nil)
	}
	if !reflect.DeepEqual(res.PersonalTags, []string{"個人"}) {
		t.Errorf("PersonalTags = %v, want [個人]", res.PersonalTags)
	}
	if want := []string{"使用中", "Gemini 生成", "寫作", "個人"}; !reflect.DeepEqual(res.Tags, want) {
		t.Errorf("Tags = %v, want %v", res.Tags, want)
	}

	for _, key := range []string{KeyLegacyPrompts, KeyCurrentPrompts, KeyLegacyRecordPrefix + "writer"} {
		if _, ok, _ := kv.Get(key); ok {
			t.Errorf("%s survived Import()", key)
		}
	}
	personal, _, _ := lib.Store().LoadPersonalTags()
	if !reflect.DeepEqual(personal, []string{"個人"}) {
		t.Errorf("persisted personal tags = %v", personal)
	}

	imported, ok := res.Document.Get("mine")
	if !ok || imported.Versions["v1"].Content != "my own prompt" {
		t.Error("custom prompt lost in the round trip")
	}
}

func TestLibrary_ImportRejected(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		confirm func(*Document) bool
		wantErr bool
	}{
		{name: "declined", data: testutil.SampleBaselineYAML, confirm: func(*Document) bool { return false }},
		{name: "malformed", data: "prompt: nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, kv := newSampleLibrary(t)
			before, _, _ := kv.Get(KeyCurrentPrompts)

			res, err := lib.Import(strings.NewReader(tt.data), tt.confirm)
			if tt.wantErr {
				var perr *ParseError
				if !errors.As(err, &perr) || perr.Source != "import" {
					t.Fatalf("Import() error = %v, want import ParseError", err)
				}
			} else if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if res != nil {
				t.Errorf("Import() result = %+v, want nil", res)
			}
			after, _, _ := kv.Get(KeyCurrentPrompts)
			if before != after {
				t.Error("rejected Import() modified the store")
			}
		})
	}
}

func TestLibrary_ImportFile(t *testing.T) {
	lib, _ := newSampleLibrary(t)
	dir := testutil.CreateTempDir(t)

	bad := filepath.Join(dir, "bad.yml")
	testutil.WriteFile(t, bad, []byte("metadata: {}\n"))
	_, err := lib.ImportFile(bad, nil)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Key != bad {
		t.Errorf("ImportFile(bad) error = %v, want ParseError keyed by path", err)
	}

	if _, err := lib.ImportFile(filepath.Join(dir, "missing.yml"), nil); err == nil {
		t.Error("ImportFile(missing) should fail")
	}

	good := testutil.CreateBaselineFixture(t, dir)
	res, err := lib.ImportFile(good, nil)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if res.Prompts != 4 || len(res.PersonalTags) != 0 {
		t.Errorf("ImportFile() = %d prompts, personal %v", res.Prompts, res.PersonalTags)
	}
}

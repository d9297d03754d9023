package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SampleBaselineYAML is a baseline document with a listable prompt per tag,
// a draft and a prompt whose active version is missing.
const SampleBaselineYAML = `metadata:
  tagOrder:
    - 使用中
    - 寫作
prompt:
  p1:
    metadata:
      tag: 使用中
      author: alice
      displayTitle: First
      activeVersion: v1
    v1:
      name: one
      description: first version
      content: A
  writer:
    metadata:
      tag: 寫作
      author: bob
      displayTitle: Writer
      activeVersion: v2
    v1:
      name: draft text
      description: initial
      content: write something
    v2:
      name: polished
      description: second pass
      content: write something well
  hidden:
    metadata:
      tag: 寫作
      author: carol
      displayTitle: Hidden
      draft: true
    v1:
      name: hidden
      description: not listed
      content: secret
  broken:
    metadata:
      tag: 寫作
      author: dave
      activeVersion: v3
    v1:
      name: broken
      description: active version is missing
      content: never shown
`

// SampleLegacyJSON is a legacy aggregate holding one custom prompt and one
// override of a baseline prompt
const SampleLegacyJSON = `{
  "mine": {
    "metadata": {"tag": "個人", "author": "me", "displayTitle": "Mine", "activeVersion": "v1", "draft": false},
    "v1": {"name": "Mine", "description": "初版", "content": "my own prompt"}
  },
  "p1": {
    "metadata": {"activeVersion": "v2"},
    "v2": {"name": "two", "description": "second", "content": "B"}
  }
}`

// SampleCurrentJSON is a current-generation aggregate that disagrees with
// SampleLegacyJSON on the active version of p1
const SampleCurrentJSON = `{
  "p1": {
    "metadata": {"activeVersion": "v1"},
    "versions": {},
    "updatedAt": "2024-01-01T00:00:00Z"
  }
}`

// CreateBaselineFixture writes SampleBaselineYAML to dir/data.yml
func CreateBaselineFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "data.yml")
	WriteFile(t, path, []byte(SampleBaselineYAML))
	return path
}

// CreateSQLiteFixture creates an on-disk store at dbPath with the sample overlay
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(createItemTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	InsertItem(t, db, "customPrompts", SampleLegacyJSON)
	InsertItem(t, db, "customPromptData", SampleCurrentJSON)
}

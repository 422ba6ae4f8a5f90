package fileid

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "aoe2-bot", "files_id.json"))
}

func readStore(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read store: %v", err)
	}
	var ids map[string]string
	if err := json.Unmarshal(data, &ids); err != nil {
		t.Fatalf("Store is not a JSON object of strings: %v", err)
	}
	return ids
}

func TestCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files_id.json")

	pairs := map[string]string{
		"11 wololo.mp3": "AwADBAADbAADBREAAagQ",
		"Britons.mp3":   "AwADBAADcAADBREAAagQ",
		"laugh.wav":     "CQACAgQAAxkDAAIB",
	}

	first := New(path)
	if err := first.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for name, id := range pairs {
		if err := first.Put(name, id); err != nil {
			t.Fatalf("Put(%q) failed: %v", name, err)
		}
	}

	// A fresh instance stands in for a process restart.
	second := New(path)
	if err := second.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for name, want := range pairs {
		got, ok := second.Get(name)
		if !ok {
			t.Errorf("Get(%q) missing after reload", name)
			continue
		}
		if got != want {
			t.Errorf("Get(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestCache_OverwriteKeepsSingleEntry(t *testing.T) {
	c := newTestCache(t)

	if err := c.Put("Celts.mp3", "id1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Put("Celts.mp3", "id2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if got, _ := c.Get("Celts.mp3"); got != "id2" {
		t.Errorf("Get = %q, want id2", got)
	}

	stored := readStore(t, c.Path())
	if len(stored) != 1 {
		t.Errorf("Store has %d entries, want 1: %v", len(stored), stored)
	}
	if stored["Celts.mp3"] != "id2" {
		t.Errorf("Stored value = %q, want id2", stored["Celts.mp3"])
	}
}

func TestCache_Miss(t *testing.T) {
	c := newTestCache(t)
	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	id, ok := c.Get("nonexistent.mp3")
	if ok {
		t.Errorf("Get returned ok for missing key, id %q", id)
	}
	if id != "" {
		t.Errorf("Get returned %q for missing key", id)
	}
}

func TestCache_LoadToleratesCorruptStore(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "not valid json"},
		{"empty file", ""},
		{"array", `["a", "b"]`},
		{"non string values", `{"a.mp3": 12}`},
		{"truncated", `{"a.mp3": "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "files_id.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			c := New(path)
			if err := c.Load(); err != nil {
				t.Fatalf("Load returned error for corrupt store: %v", err)
			}
			if c.Len() != 0 {
				t.Errorf("Cache has %d entries after corrupt load, want 0", c.Len())
			}
			if !c.Loaded() {
				t.Error("Cache not marked loaded")
			}
		})
	}
}

func TestCache_LoadNullStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files_id.json")
	if err := os.WriteFile(path, []byte("null"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// The map must be usable after decoding null.
	if err := c.Put("a.mp3", "x"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
}

func TestCache_LoadMissingStore(t *testing.T) {
	c := newTestCache(t)

	if c.Loaded() {
		t.Fatal("New cache should not be loaded")
	}
	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !c.Loaded() {
		t.Error("Cache not marked loaded")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if _, err := os.Stat(c.Path()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load should not create the store, stat error: %v", err)
	}
}

func TestCache_LoadIsNoOpWhenPopulated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files_id.json")
	if err := os.WriteFile(path, []byte(`{"disk.mp3": "from-disk"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	c.ids["memory.mp3"] = "from-memory"

	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := c.Get("disk.mp3"); ok {
		t.Error("Load overwrote populated in-memory state")
	}
	if got, _ := c.Get("memory.mp3"); got != "from-memory" {
		t.Errorf("Get(memory.mp3) = %q", got)
	}
}

func TestCache_LoadReadError(t *testing.T) {
	// A directory at the store path cannot be read as a file.
	path := t.TempDir()

	c := New(path)
	err := c.Load()
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("Load error = %v, want ErrStorage", err)
	}
	if c.Loaded() {
		t.Error("Cache marked loaded after read failure")
	}
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache(t)

	if err := c.Put("a.mp3", "x"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, ok := c.Get("a.mp3"); ok {
		t.Error("Entry still present after Clear")
	}
	if _, err := os.Stat(c.Path()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Store still exists after Clear, stat error: %v", err)
	}

	// Clearing again with no store on disk is fine.
	if err := c.Clear(); err != nil {
		t.Errorf("Second Clear failed: %v", err)
	}
}

func TestCache_PutCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeply", "nested", "files_id.json")
	c := New(path)

	if err := c.Put("a.mp3", "x"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got := readStore(t, path); got["a.mp3"] != "x" {
		t.Errorf("Store = %v", got)
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("Temporary files left behind: %v", leftovers)
	}
}

func TestCache_PutFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The parent of the store is a regular file, so the directory cannot be created.
	c := New(filepath.Join(blocker, "files_id.json"))
	c.ids["kept.mp3"] = "old"

	err := c.Put("new.mp3", "x")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("Put error = %v, want ErrStorage", err)
	}
	if _, ok := c.Get("new.mp3"); ok {
		t.Error("Failed Put left the new entry in memory")
	}

	err = c.Put("kept.mp3", "replacement")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("Put error = %v, want ErrStorage", err)
	}
	if got, _ := c.Get("kept.mp3"); got != "old" {
		t.Errorf("Failed overwrite not rolled back: got %q, want old", got)
	}
}

func TestCache_KeysByBaseName(t *testing.T) {
	c := newTestCache(t)

	if err := c.Put("/srv/audio/Britons.mp3", "id-from-srv"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if got, ok := c.Get("Britons.mp3"); !ok || got != "id-from-srv" {
		t.Errorf("Get(Britons.mp3) = %q, %v", got, ok)
	}

	// Same base name in another directory collides with the first entry.
	if got, ok := c.Get("/home/user/other/Britons.mp3"); !ok || got != "id-from-srv" {
		t.Errorf("Get(other/Britons.mp3) = %q, %v", got, ok)
	}

	if _, ok := c.All()["Britons.mp3"]; !ok {
		t.Errorf("All() keys = %v, want base names", c.All())
	}
}

func TestCache_Scenario(t *testing.T) {
	c := newTestCache(t)

	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after first load", c.Len())
	}

	if err := c.Put("Celts.mp3", "ABC123"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	stored := readStore(t, c.Path())
	if len(stored) != 1 || stored["Celts.mp3"] != "ABC123" {
		t.Fatalf("Store = %v, want {Celts.mp3: ABC123}", stored)
	}

	if got, ok := c.Get("Celts.mp3"); !ok || got != "ABC123" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	all := c.All()
	if len(all) != 1 || all["Celts.mp3"] != "ABC123" {
		t.Fatalf("All = %v", all)
	}
	all["Celts.mp3"] = "tampered"
	all["Vikings.mp3"] = "injected"
	if got, _ := c.Get("Celts.mp3"); got != "ABC123" {
		t.Errorf("Mutating All() copy changed the cache: %q", got)
	}
	if _, ok := c.Get("Vikings.mp3"); ok {
		t.Error("Mutating All() copy added an entry")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("Celts.mp3"); ok {
		t.Error("Entry present after Clear")
	}
	if _, err := os.Stat(c.Path()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Store present after Clear: %v", err)
	}
}

func TestCache_ConcurrentPuts(t *testing.T) {
	c := newTestCache(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("%02d taunt.mp3", i)
			if err := c.Put(name, fmt.Sprintf("id-%d", i)); err != nil {
				t.Errorf("Put(%q) failed: %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	stored := readStore(t, c.Path())
	if len(stored) != n {
		t.Errorf("Store has %d entries, want %d", len(stored), n)
	}
	if c.Len() != n {
		t.Errorf("Len = %d, want %d", c.Len(), n)
	}
}

func TestDecode(t *testing.T) {
	ids, err := decode([]byte(`{"Celts.mp3": "ABC123"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ids["Celts.mp3"] != "ABC123" {
		t.Errorf("decode = %v", ids)
	}

	if _, err := decode([]byte("not valid json")); !errors.Is(err, ErrCorrupt) {
		t.Errorf("decode error = %v, want ErrCorrupt", err)
	}
}

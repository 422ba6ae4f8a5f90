package fileid

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// Common errors for file id store operations
var (
	// ErrCorrupt is returned by decode when the persisted store cannot be parsed.
	// Load recovers from it by starting empty.
	ErrCorrupt = errors.New("file id store corrupted")

	// ErrStorage wraps failures to read, write or delete the persisted store.
	ErrStorage = errors.New("file id store i/o")
)

// Cache maps audio file base names to Telegram file identifiers.
type Cache struct {
	path string

	mu     sync.RWMutex
	ids    map[string]string
	loaded bool
}

// New returns an empty, unloaded cache persisted at path.
func New(path string) *Cache {
	return &Cache{
		path: path,
		ids:  make(map[string]string),
	}
}

// Path returns the location of the persisted store.
func (c *Cache) Path() string {
	return c.path
}

// Load populates the cache from the persisted store. It does nothing when the
// cache already holds entries. A missing store leaves the cache empty, and so
// does a store that cannot be parsed.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.ids) > 0 {
		c.loaded = true
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.loaded = true
			return nil
		}
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	ids, err := decode(data)
	switch {
	case errors.Is(err, ErrCorrupt):
		log.Warn("Ignoring unreadable file id store", "path", c.path, "error", err)
		ids = make(map[string]string)
	case err != nil:
		return err
	}

	c.ids = ids
	c.loaded = true
	return nil
}

// Loaded reports whether Load has completed.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loaded
}

// Get returns the file id stored for the base name of name.
func (c *Cache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.ids[key(name)]
	return id, ok
}

// Put stores id for the base name of name and rewrites the whole store.
// When the rewrite fails the previous value is restored and the error is
// returned.
func (c *Cache) Put(name, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(name)
	prev, existed := c.ids[k]
	c.ids[k] = id

	if err := c.save(); err != nil {
		if existed {
			c.ids[k] = prev
		} else {
			delete(c.ids, k)
		}
		return err
	}
	return nil
}

// Clear drops every entry and deletes the persisted store.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ids = make(map[string]string)

	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// All returns a copy of every entry.
func (c *Cache) All() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maps.Clone(c.ids)
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.ids)
}

// save writes the full mapping next to the store and renames it into place.
// Callers must hold the write lock.
func (c *Cache) save() error {
	data, err := json.MarshalIndent(c.ids, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(append(data, '\n'))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, c.path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// decode parses a persisted store. Anything that is not a JSON object of
// strings is reported as ErrCorrupt.
func decode(data []byte) (map[string]string, error) {
	var ids map[string]string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if ids == nil {
		// "null" decodes without error.
		ids = make(map[string]string)
	}
	return ids, nil
}

func key(name string) string {
	return filepath.Base(name)
}

package buildcache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/vk/buildgridgo/internal/ctxlog"
)

// indexFile is the name of the JSON index inside the cache directory.
const indexFile = "index.json"

func (c *Cache) indexPath() string {
	return filepath.Join(c.dir, indexFile)
}

// load reads the whole index from disk. Absence is normal on first run;
// anything unparseable degrades to an empty index with a warning.
func (c *Cache) load(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Cache index unreadable, starting empty.", "path", c.indexPath(), "error", err)
		}
		return
	}

	var index map[string]Record
	if err := json.Unmarshal(data, &index); err != nil {
		logger.Warn("Cache index corrupt, starting empty.", "path", c.indexPath(), "error", err)
		return
	}

	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
	logger.Debug("Cache index loaded.", "records", len(index))
}

// lookup returns the record stored under the given string key.
func (c *Cache) lookup(key string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.index[key]
	return rec, ok
}

// store applies one record and persists the whole index while still holding
// the lock, so two lanes finishing together can never overwrite each
// other's unrelated entries.
func (c *Cache) store(ctx context.Context, key string, rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index[key] = rec
	c.persistLocked(ctx)
}

// reset drops every record and writes out the empty index.
func (c *Cache) reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = map[string]Record{}
	c.persistLocked(ctx)
}

// len returns the current record count.
func (c *Cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// persistLocked serializes the index to disk. Callers hold c.mu. A write
// failure is logged and swallowed: the artifact this record describes was
// already produced, so a broken index must not fail the build.
func (c *Cache) persistLocked(ctx context.Context) {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Cache index not persisted: marshal failed.", "error", err)
		return
	}
	if err := os.WriteFile(c.indexPath(), data, 0o644); err != nil {
		ctxlog.FromContext(ctx).Warn("Cache index not persisted: write failed.", "path", c.indexPath(), "error", err)
	}
}

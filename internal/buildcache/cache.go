package buildcache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vk/buildgridgo/internal/ctxlog"
	"github.com/vk/buildgridgo/internal/fingerprint"
)

// Key identifies one build target: a toolchain-qualified artifact name plus
// the canonicalized list of its input files. Two requests with the same
// inputs but different artifact names are distinct keys, and vice versa.
type Key struct {
	Target string
	Inputs []string
}

// NewKey canonicalizes the input paths (absolute, sorted) and returns the
// resulting key. Paths that cannot be made absolute are kept as given; they
// will simply never match a record built from resolvable paths.
func NewKey(target string, inputs []string) Key {
	canonical := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if abs, err := filepath.Abs(in); err == nil {
			canonical = append(canonical, abs)
		} else {
			canonical = append(canonical, in)
		}
	}
	sort.Strings(canonical)
	return Key{Target: target, Inputs: canonical}
}

// String renders the stable index key: the artifact name followed by the
// sorted input paths.
func (k Key) String() string {
	return k.Target + "|" + strings.Join(k.Inputs, "|")
}

// Record is the persisted value for a key. Field names are part of the
// on-disk index format.
type Record struct {
	Hash         string    `json:"hash"`
	ArtifactPath string    `json:"artifact_path"`
	Timestamp    time.Time `json:"timestamp"`
	Files        []string  `json:"files"`
}

// Stats summarizes the cache for reporting.
type Stats struct {
	Count          int   `json:"count"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// Cache is the durable artifact index. All mutations are serialized under
// one mutex and flushed to disk before returning; see the package comment
// for the validity model.
type Cache struct {
	mu      sync.Mutex
	index   map[string]Record
	dir     string
	enabled bool
}

// New opens (or creates) the cache rooted at dir. An unreadable or corrupt
// index file is logged and treated as empty. A disabled cache accepts every
// call and reports every lookup as a miss.
func New(ctx context.Context, dir string, enabled bool) *Cache {
	c := &Cache{dir: dir, enabled: enabled}
	c.index = map[string]Record{}
	if !enabled {
		return c
	}

	logger := ctxlog.FromContext(ctx)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("Cache directory could not be created, caching disabled for this run.", "dir", dir, "error", err)
		c.enabled = false
		return c
	}
	c.load(ctx)
	return c
}

// Dir returns the cache-managed storage directory.
func (c *Cache) Dir() string { return c.dir }

// Enabled reports whether the cache participates in builds.
func (c *Cache) Enabled() bool { return c.enabled }

// IsValid reports whether key has a record that still holds: the recorded
// artifact exists and the digest over the key's current input contents
// matches the digest stored at record time. The digest is recomputed
// outside the index lock so slow hashing never serializes sibling lanes.
func (c *Cache) IsValid(ctx context.Context, key Key) bool {
	if !c.enabled {
		return false
	}
	rec, ok := c.lookup(key.String())
	if !ok {
		return false
	}
	if _, err := os.Stat(rec.ArtifactPath); err != nil {
		ctxlog.FromContext(ctx).Debug("Cache record invalid: artifact missing.", "target", key.Target, "artifact", rec.ArtifactPath)
		return false
	}
	if fingerprint.Digest(key.Inputs) != rec.Hash {
		ctxlog.FromContext(ctx).Debug("Cache record invalid: input contents changed.", "target", key.Target)
		return false
	}
	return true
}

// Artifact returns the recorded artifact path for key, or "" when no record
// exists. Only meaningful after IsValid reported true.
func (c *Cache) Artifact(key Key) string {
	rec, ok := c.lookup(key.String())
	if !ok {
		return ""
	}
	return rec.ArtifactPath
}

// Record stores a fresh entry for key pointing at artifactPath. The digest
// is recomputed from the current file contents at call time, never taken
// from an earlier validity check, so the stored hash always describes what
// was actually built. The updated index is persisted before returning; a
// persist failure is logged and does not fail the build, since the
// artifact was already produced.
func (c *Cache) Record(ctx context.Context, key Key, artifactPath string) {
	if !c.enabled {
		return
	}
	rec := Record{
		Hash:         fingerprint.Digest(key.Inputs),
		ArtifactPath: artifactPath,
		Timestamp:    time.Now(),
		Files:        key.Inputs,
	}
	c.store(ctx, key.String(), rec)
}

// InvalidateAll clears every record, removes the cache-managed directory,
// and recreates an empty index.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	c.reset(ctx)
	ctxlog.FromContext(ctx).Debug("Cache index reset.", "dir", c.dir)
	return nil
}

// Stats returns the record count and the recursive size of the cache
// directory.
func (c *Cache) Stats() Stats {
	s := Stats{Count: c.len()}
	if !c.enabled {
		return s
	}
	filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			s.TotalSizeBytes += info.Size()
		}
		return nil
	})
	return s
}

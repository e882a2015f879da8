// Package buildcache provides a persistent, content-addressed index of
// produced build artifacts.
//
// Each entry maps a cache key (artifact name plus the canonicalized input
// file set) to the artifact it produced and the content digest of the
// inputs at build time. Validity is always re-derived from current file
// contents: a record whose artifact vanished or whose inputs changed simply
// reads as a miss and is overwritten by the next successful build of the
// same key. The index therefore self-heals after being copied between
// machines or edited out of band: a stale index yields extra misses,
// never wrong hits.
//
// The whole index lives in one JSON document inside the cache directory.
// It is persisted synchronously after every mutation, and every mutation is
// serialized under a single lock so concurrent build lanes cannot lose each
// other's entries. An absent or corrupt index degrades to an empty cache.
package buildcache

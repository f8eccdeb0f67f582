// Package cache stores computed layout results and rendered artifacts.
//
// Relayout is deterministic: the same snapshot and settings always produce
// the same geometry. That makes layouts cacheable by content hash, which is
// what the pipeline does - the snapshot hash plus the layout settings form
// the key, the laid-out document JSON forms the value.
//
// Four backends implement the same interface: file (default for CLI usage),
// null (disabled), redis, and mongo (for long-running serve deployments).
// [Open] selects the backend from a URL-style string.
package cache

import (
	"context"
	"strings"
	"time"
)

// Default TTLs per stage. Layouts are tiny and cheap to keep; artifacts are
// larger, so they expire sooner.
const (
	TTLLayout   = 30 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the shared storage contract. Implementations must be safe for
// concurrent use. A miss is (nil, false, nil); errors are reserved for
// backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts are the settings a layout result depends on. Any field
// change must produce a different key.
type LayoutKeyOpts struct {
	Algorithm   string
	Margin      int
	LabelMargin int
	EnforceLeaf bool
	LeafW       int
	LeafH       int
}

// ArtifactKeyOpts are the settings a rendered artifact depends on.
type ArtifactKeyOpts struct {
	Format     string // svg | dot
	GridUnitPx int
}

// Keyer derives cache keys for the two cacheable stages.
type Keyer interface {
	// LayoutKey keys a laid-out document by input snapshot hash + settings.
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by layout hash + render settings.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into the key so that every settings
// change invalidates naturally.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (k *DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}

// ArtifactKey implements Keyer.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Open selects a cache backend from a URL-style spec:
//
//	""            -> null
//	"null"        -> null
//	"file"        -> file cache in dir
//	"redis://..." -> redis
//	"mongodb://..." (or mongodb+srv://) -> mongo
//
// dir is the directory the file backend uses; remote backends ignore it.
func Open(ctx context.Context, spec, dir string) (Cache, error) {
	switch {
	case spec == "" || spec == "null":
		return NewNullCache(), nil
	case spec == "file":
		return NewFileCache(dir)
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		return NewRedisCache(spec)
	case strings.HasPrefix(spec, "mongodb://"), strings.HasPrefix(spec, "mongodb+srv://"):
		return NewMongoCache(ctx, spec)
	}
	return nil, ErrUnknownBackend
}

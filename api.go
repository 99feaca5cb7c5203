package doccache

import (
	"context"
	"time"

	ov "github.com/unkn0wn-root/doccache/objversion"
	"github.com/unkn0wn-root/doccache/repository"
)

// Backend is the extended cache-backend contract a caching front-end drives.
// Payloads are opaque; ok=false with a nil error is a miss, never a failure.
type Backend interface {
	// Records
	Load(ctx context.Context, id string, skipValidity bool) (data []byte, ok bool, err error)
	Save(ctx context.Context, data []byte, id string, tags []string, lifetime time.Duration) error
	Remove(ctx context.Context, id string) (bool, error)
	Test(ctx context.Context, id string) (mtime time.Time, ok bool, err error)
	Touch(ctx context.Context, id string, extra time.Duration) (bool, error)

	// Bulk invalidation
	Clean(ctx context.Context, mode CleanMode, tags ...string) error

	// Listing (ids in cache id order, tags sorted)
	GetIds(ctx context.Context) ([]string, error)
	GetTags(ctx context.Context) ([]string, error)
	GetIdsMatchingTags(ctx context.Context, tags ...string) ([]string, error)
	GetIdsNotMatchingTags(ctx context.Context, tags ...string) ([]string, error)
	GetIdsMatchingAnyTags(ctx context.Context, tags ...string) ([]string, error)

	// Introspection
	GetMetadatas(ctx context.Context, id string) (Metadata, bool, error)
	GetFillingPercentage() int
	GetCapabilities() Capabilities

	// BumpObjectVersion makes every stored record stale at once.
	BumpObjectVersion(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// Options configure a Backend. StoreTarget and Store are required; others have
// documented defaults.
type Options struct {
	// Required
	StoreTarget string            // e.g. "app.cache" for Mongo, "sessions" for Redis
	Store       repository.Opener // opens StoreTarget

	DefaultLifetime time.Duration    // 0 => 1h; InfiniteLifetime => records never expire
	Versions        ov.Source        // nil => objversion.Static(objversion.Base)
	Logger          Logger           // nil => NopLogger
	Hooks           Hooks            // nil => NopHooks
	Clock           func() time.Time // nil => time.Now
}

// Metadata describes one record without reading its payload.
type Metadata struct {
	Expire   time.Time // MTime + lifetime; equals MTime when Infinite
	Tags     []string
	MTime    time.Time
	Infinite bool
}

// Capabilities reports what the backend supports.
type Capabilities struct {
	AutomaticCleaning bool
	Tags              bool
	ExpiredRead       bool
	Priority          bool
	InfiniteLifetime  bool
	GetList           bool
}

// New validates opts, opens the store and returns a ready Backend.
// Configuration problems are reported as *ConfigError.
func New(ctx context.Context, opts Options) (Backend, error) {
	b, err := newBackend(ctx, opts)
	if err != nil {
		return nil, err
	}
	return b, nil
}

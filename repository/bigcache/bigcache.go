// Package bigcache is an in-process Repository on top of allegro/bigcache.
// Records are encoded with a codec and framed with the doccache wire envelope,
// so the GC never scans payload bytes.
package bigcache

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/doccache/codec"
	"github.com/unkn0wn-root/doccache/internal/wire"
	"github.com/unkn0wn-root/doccache/repository"
)

// defaultRetention keeps bigcache from evicting on its own. Record expiry is
// handled by doccache lifetimes and clean passes.
const (
	defaultRetention   = 10 * 365 * 24 * time.Hour
	defaultShards      = 64
	defaultWindowCount = 10_000
	defaultEntrySize   = 512
)

type Config struct {
	// Retention is bigcache's LifeWindow: entries older than this may be
	// evicted by bigcache regardless of their doccache lifetime. 0 => ~10y.
	Retention          time.Duration
	Shards             int // power of two; 0 => 64
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int          // ~ memory limit; 0 = unlimited
	Codec              codec.Record // nil => codec.Default()
}

type Repository struct {
	c     *bc.BigCache
	codec codec.Record

	// serializes read-modify-write sequences (hit counting, upsert keeping hits)
	mu sync.Mutex
}

var _ repository.Repository = (*Repository)(nil)

func New(cfg Config) (*Repository, error) {
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	conf := bc.DefaultConfig(cfg.Retention)
	conf.CleanWindow = 0 // no background eviction
	conf.Verbose = false
	conf.Shards = coalesce(cfg.Shards, defaultShards)
	conf.MaxEntriesInWindow = coalesce(cfg.MaxEntriesInWindow, defaultWindowCount)
	conf.MaxEntrySize = coalesce(cfg.MaxEntrySize, defaultEntrySize)
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	cd := cfg.Codec
	if cd == nil {
		cd = codec.Default()
	}
	return &Repository{c: c, codec: cd}, nil
}

func (r *Repository) FindByCacheID(_ context.Context, id string) (repository.Record, bool, error) {
	raw, ok, err := r.raw(id)
	if err != nil || !ok {
		return repository.Record{}, false, err
	}
	rec, err := r.decode(raw)
	if errors.Is(err, wire.ErrCorrupt) {
		r.dropIfUnchanged(id, raw)
		return repository.Record{}, false, nil
	}
	if err != nil {
		return repository.Record{}, false, err
	}
	return rec, true, nil
}

// dropIfUnchanged self-heals a corrupt entry unless it was rewritten since
// it was read.
func (r *Repository) dropIfUnchanged(id string, seen []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, err := r.c.Get(id)
	if err == nil && bytes.Equal(cur, seen) {
		_ = r.c.Delete(id)
	}
}

// Upsert keeps the stored hit count. An unreadable previous entry (corrupt or
// refused by the codec) is overwritten with hits 0.
func (r *Repository) Upsert(_ context.Context, rec repository.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.Hits = 0
	cur, ok, err := r.get(rec.CacheID)
	if err != nil && !unreadable(err) {
		return err
	}
	if ok {
		rec.Hits = cur.Hits
	}
	return r.put(rec)
}

func (r *Repository) DeleteByCacheID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	err := r.c.Delete(id)
	r.mu.Unlock()
	if errors.Is(err, bc.ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) DeleteAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c.Reset()
}

func (r *Repository) IncrementHits(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok, err := r.get(id)
	if err != nil || !ok {
		if errors.Is(err, wire.ErrCorrupt) {
			return false, nil
		}
		return false, err
	}
	rec.Hits++
	return true, r.put(rec)
}

// Query walks every shard; undecodable entries are skipped.
func (r *Repository) Query(ctx context.Context, p repository.Predicate) ([]repository.Record, error) {
	var out []repository.Record
	it := r.c.Iterator()
	for it.SetNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := it.Value()
		if err != nil {
			continue // entry vanished between SetNext and Value
		}
		rec, err := r.decode(e.Value())
		if err != nil {
			continue
		}
		if p.Matches(rec) {
			out = append(out, repository.Project(rec, p.Fields))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CacheID < out[j].CacheID })
	return out, nil
}

func (r *Repository) Close(context.Context) error {
	return r.c.Close()
}

func (r *Repository) raw(id string) ([]byte, bool, error) {
	b, err := r.c.Get(id)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Repository) get(id string) (repository.Record, bool, error) {
	b, ok, err := r.raw(id)
	if err != nil || !ok {
		return repository.Record{}, false, err
	}
	rec, err := r.decode(b)
	if err != nil {
		return repository.Record{}, false, err
	}
	return rec, true, nil
}

// decode reports frame and codec failures as wire.ErrCorrupt, except
// codec.ErrTooLarge: an entry over the codec's limit is intact, just unreadable
// under the current configuration.
func (r *Repository) decode(b []byte) (repository.Record, error) {
	payload, err := wire.DecodeRecord(b)
	if err != nil {
		return repository.Record{}, err
	}
	rec, err := r.codec.Decode(payload)
	if errors.Is(err, codec.ErrTooLarge) {
		return repository.Record{}, err
	}
	if err != nil {
		return repository.Record{}, errors.Join(wire.ErrCorrupt, err)
	}
	return rec.UTC(), nil
}

func unreadable(err error) bool {
	return errors.Is(err, wire.ErrCorrupt) || errors.Is(err, codec.ErrTooLarge)
}

func (r *Repository) put(rec repository.Record) error {
	payload, err := r.codec.Encode(rec)
	if err != nil {
		return err
	}
	return r.c.Set(rec.CacheID, wire.EncodeRecord(payload))
}

func coalesce(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Opener creates one bigcache instance per target and hands it out again on
// later opens of the same target.
type Opener struct {
	Config Config

	mu    sync.Mutex
	repos map[string]*Repository
}

var _ repository.Opener = (*Opener)(nil)

func (o *Opener) Open(_ context.Context, target string) (repository.Repository, error) {
	if target == "" {
		return nil, repository.ErrEmptyTarget
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if r, ok := o.repos[target]; ok {
		return r, nil
	}
	r, err := New(o.Config)
	if err != nil {
		return nil, err
	}
	if o.repos == nil {
		o.repos = make(map[string]*Repository)
	}
	o.repos[target] = r
	return r, nil
}

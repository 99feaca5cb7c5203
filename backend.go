package doccache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	ov "github.com/unkn0wn-root/doccache/objversion"
	"github.com/unkn0wn-root/doccache/repository"
)

const (
	reasonVersionMismatch = "version_mismatch"
	reasonExpired         = "expired"
)

type backend struct {
	repo            repository.Repository
	versions        ov.Source
	log             Logger
	hooks           Hooks
	clock           func() time.Time
	defaultLifetime time.Duration

	// id of the most recent Load; Save falls back to it
	lastID atomic.Pointer[string]
}

var _ Backend = (*backend)(nil)

func newBackend(ctx context.Context, opts Options) (*backend, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	opts = withDefaults(opts)

	repo, err := opts.Store.Open(ctx, opts.StoreTarget)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyTarget) {
			return nil, &ConfigError{Field: "StoreTarget", Reason: "rejected by store", Err: err}
		}
		return nil, fmt.Errorf("doccache: open store %q: %w", opts.StoreTarget, err)
	}
	if repo == nil {
		return nil, &ConfigError{Field: "Store", Reason: "opener returned no repository"}
	}

	return &backend{
		repo:            repo,
		versions:        opts.Versions,
		log:             opts.Logger,
		hooks:           opts.Hooks,
		clock:           opts.Clock,
		defaultLifetime: opts.DefaultLifetime,
	}, nil
}

// now is the backend's notion of time: whole seconds, UTC.
func (b *backend) now() time.Time {
	return b.clock().Truncate(time.Second).UTC()
}

func (b *backend) Load(ctx context.Context, id string, skipValidity bool) ([]byte, bool, error) {
	b.lastID.Store(&id)

	rec, ok, err := b.repo.FindByCacheID(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	ver, err := b.currentVersion(ctx)
	if err != nil {
		return nil, false, err
	}
	if rec.ObjectVersion != ver {
		return nil, false, b.reclaimIfStale(ctx, id, reasonVersionMismatch)
	}
	if !skipValidity && !isValid(rec, b.now()) {
		return nil, false, b.reclaimIfStale(ctx, id, reasonExpired)
	}

	counted, err := b.repo.IncrementHits(ctx, id)
	if err != nil {
		b.hooks.HitNotRecorded(id, err)
		return nil, false, err
	}
	if !counted {
		// removed between find and increment; the payload we hold is still
		// the last valid one
		b.hooks.HitNotRecorded(id, nil)
	}
	return rec.Data, true, nil
}

// isValid applies the expiry rules. A stored ttl wins; without one, only
// date_added + lifetime is consulted.
func isValid(rec repository.Record, now time.Time) bool {
	if rec.TTL != nil {
		return now.Before(*rec.TTL)
	}
	exp, ok := rec.Expiry()
	return !ok || now.Before(exp)
}

// reclaimIfStale deletes a record Load refused to return. A concurrent re-save
// may be deleted with it; last write wins.
func (b *backend) reclaimIfStale(ctx context.Context, id, reason string) error {
	if _, err := b.repo.DeleteByCacheID(ctx, id); err != nil {
		return err
	}
	b.hooks.ReclaimedOnRead(id, reason)
	b.log.Debug("reclaimed stale record", Fields{fieldCacheID: id, fieldReason: reason})
	return nil
}

func (b *backend) Save(ctx context.Context, data []byte, id string, tags []string, lifetime time.Duration) error {
	if id == "" {
		last := b.lastID.Load()
		if last == nil || *last == "" {
			return ErrMissingCacheID
		}
		id = *last
	}
	ver, err := b.currentVersion(ctx)
	if err != nil {
		return err
	}

	now := b.now()
	rec := repository.Record{
		CacheID:       id,
		Data:          data,
		DateAdded:     now,
		Tags:          uniqueTags(tags),
		ObjectVersion: ver,
	}
	if secs := lifetimeSeconds(resolveLifetime(b.defaultLifetime, lifetime), now); secs != nil {
		ttl := expiryOf(now, *secs)
		rec.Lifetime, rec.TTL = secs, &ttl
	}
	return b.repo.Upsert(ctx, rec)
}

func (b *backend) Remove(ctx context.Context, id string) (bool, error) {
	return b.repo.DeleteByCacheID(ctx, id)
}

// Test reports the last save time without checking validity or counting a hit.
func (b *backend) Test(ctx context.Context, id string) (time.Time, bool, error) {
	rec, ok, err := b.repo.FindByCacheID(ctx, id)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return rec.DateAdded, true, nil
}

// Touch extends a record's lifetime by extra, measured from its original
// date_added. An infinite record becomes one that expires after extra.
func (b *backend) Touch(ctx context.Context, id string, extra time.Duration) (bool, error) {
	rec, ok, err := b.repo.FindByCacheID(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	var secs int64
	if rec.Lifetime != nil {
		secs = *rec.Lifetime
	}
	secs += ceilSeconds(extra)
	ttl := expiryOf(rec.DateAdded, secs)
	rec.Lifetime, rec.TTL = &secs, &ttl

	if err := b.repo.Upsert(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

func (b *backend) BumpObjectVersion(ctx context.Context) (int64, error) {
	v, err := b.versions.Bump(ctx)
	if err != nil {
		if !errors.Is(err, ov.ErrFixed) {
			b.hooks.VersionSourceError("bump", err)
			b.log.Warn("object version bump failed", Fields{fieldErr: err})
		}
		return 0, err
	}
	b.log.Info("object version bumped", Fields{"version": v})
	return v, nil
}

func (b *backend) currentVersion(ctx context.Context) (int64, error) {
	v, err := b.versions.Current(ctx)
	if err != nil {
		b.hooks.VersionSourceError("current", err)
		b.log.Warn("object version lookup failed", Fields{fieldErr: err})
		return 0, err
	}
	return v, nil
}

// Close releases the version source (best effort) and then the repository.
func (b *backend) Close(ctx context.Context) error {
	_ = b.versions.Close(ctx)
	return b.repo.Close(ctx)
}

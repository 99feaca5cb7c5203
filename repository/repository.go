// Package repository defines the storage abstraction used by doccache.
//
// A Repository persists one Record per cache id. The cache id is the logical
// primary key: implementations MUST keep it unique even when the underlying
// store has its own identity (e.g. a Mongo _id).
//
// Implementations MUST treat Record.Data as opaque bytes and return exactly what
// was stored. Hit counting MUST be atomic at the store: concurrent IncrementHits
// calls on the same id must never lose an increment.
package repository

import (
	"context"
	"errors"
	"time"
)

// Field names shared by every store. They are also the Mongo document keys.
const (
	FieldCacheID       = "cache_id"
	FieldData          = "data"
	FieldDateAdded     = "date_added"
	FieldLifetime      = "lifetime"
	FieldTTL           = "ttl"
	FieldHits          = "hits"
	FieldTags          = "tags"
	FieldObjectVersion = "object_version"
)

var ErrEmptyTarget = errors.New("repository: empty store target")

// Record is one cached entry.
type Record struct {
	CacheID       string     `bson:"cache_id" json:"cache_id" msgpack:"cache_id" cbor:"cache_id"`
	Data          []byte     `bson:"data" json:"data" msgpack:"data" cbor:"data"`
	DateAdded     time.Time  `bson:"date_added" json:"date_added" msgpack:"date_added" cbor:"date_added"`
	Lifetime      *int64     `bson:"lifetime,omitempty" json:"lifetime,omitempty" msgpack:"lifetime,omitempty" cbor:"lifetime,omitempty"` // seconds; nil => infinite
	TTL           *time.Time `bson:"ttl,omitempty" json:"ttl,omitempty" msgpack:"ttl,omitempty" cbor:"ttl,omitempty"`
	Hits          int64      `bson:"hits" json:"hits" msgpack:"hits" cbor:"hits"`
	Tags          []string   `bson:"tags" json:"tags" msgpack:"tags" cbor:"tags"`
	ObjectVersion int64      `bson:"object_version" json:"object_version" msgpack:"object_version" cbor:"object_version"`
}

// HasLifetime reports whether the record expires at all.
func (r Record) HasLifetime() bool { return r.Lifetime != nil }

// Expiry returns date_added + lifetime. ok is false for infinite records.
func (r Record) Expiry() (t time.Time, ok bool) {
	if r.Lifetime == nil {
		return time.Time{}, false
	}
	return r.DateAdded.Add(time.Duration(*r.Lifetime) * time.Second), true
}

// UTC returns rec with its times in UTC. Drivers and codecs that decode into
// time.Local go through it so every store reports the same instants the same way.
func (r Record) UTC() Record {
	r.DateAdded = r.DateAdded.UTC()
	if r.TTL != nil {
		t := r.TTL.UTC()
		r.TTL = &t
	}
	return r
}

// Clone returns a deep copy so in-process stores never share slices with callers.
func (r Record) Clone() Record {
	out := r
	if r.Data != nil {
		out.Data = append([]byte(nil), r.Data...)
	}
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.Lifetime != nil {
		l := *r.Lifetime
		out.Lifetime = &l
	}
	if r.TTL != nil {
		t := *r.TTL
		out.TTL = &t
	}
	return out
}

// Repository is the narrow store contract the backend is written against.
type Repository interface {
	// FindByCacheID returns (rec, true, nil) on hit and (Record{}, false, nil) on miss.
	FindByCacheID(ctx context.Context, cacheID string) (Record, bool, error)

	// Upsert writes data, date_added, lifetime, ttl, tags and object_version.
	// A nil Lifetime/TTL removes those fields. Hits is never written: existing
	// records keep their counter and new records start at 0.
	Upsert(ctx context.Context, rec Record) error

	// DeleteByCacheID reports whether a record was deleted.
	DeleteByCacheID(ctx context.Context, cacheID string) (bool, error)

	// DeleteAll removes every record; the store itself (collection, indexes) stays.
	DeleteAll(ctx context.Context) error

	// IncrementHits atomically adds 1 to hits. It reports false when the record
	// does not exist and never creates one.
	IncrementHits(ctx context.Context, cacheID string) (bool, error)

	// Query returns the records matching p. When p.Fields is set, only those
	// fields are guaranteed to be populated.
	Query(ctx context.Context, p Predicate) ([]Record, error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Opener opens the repository named by a store target.
type Opener interface {
	Open(ctx context.Context, target string) (Repository, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, target string) (Repository, error)

func (f OpenerFunc) Open(ctx context.Context, target string) (Repository, error) {
	return f(ctx, target)
}

// Package doccache is a cache backend that keeps opaque payloads as records in
// a document store and implements the extended contract a caching front-end
// drives: load, save, test, remove, touch, tag queries, five-mode cleaning,
// metadata and capability reporting.
//
// Components:
//   - repository.Repository: narrow store contract (Mongo, Redis, BigCache, memory).
//   - objversion.Source: the current object version. Records written with any
//     other version are misses and get reclaimed on read.
//   - Logger / Hooks: optional observability.
//
// Record lifecycle:
//
//	Save   upsert by cache_id; lifetime seconds and ttl = date_added + lifetime
//	Load   version gate, validity check, atomic hits += 1; stale => reclaimIfStale
//	Touch  lifetime += extra, ttl recomputed from date_added
//	Clean  ALL | OLD (sweepExpired) | MATCHING_TAG | NOT_MATCHING_TAG | MATCHING_ANY_TAG
//
// Usage:
//
//	b, err := doccache.New(ctx, doccache.Options{
//		StoreTarget: "app.cache",
//		Store:       mongo.Opener{Client: client},
//	})
//	_ = b.Save(ctx, payload, "page:home", []string{"pages"}, doccache.DefaultLifetime)
//	data, ok, err := b.Load(ctx, "page:home", false)
package doccache

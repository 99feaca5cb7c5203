// Package repotest provides a conformance test suite for Repository
// implementations.
//
// Example usage:
//
//	func TestConformance(t *testing.T) {
//	    repotest.TestSuite(t, func(t *testing.T) repository.Repository {
//	        return myrepo.New()
//	    })
//	}
package repotest

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/doccache/repository"
)

// base is a whole-second UTC instant; every store keeps at least second precision.
var base = time.Unix(1_700_000_000, 0).UTC()

// TestSuite runs every conformance test. newRepo must return a fresh, empty
// repository for each call.
func TestSuite(t *testing.T, newRepo func(t *testing.T) repository.Repository) {
	tests := []struct {
		name string
		fn   func(t *testing.T, r repository.Repository)
	}{
		{"FindMissing", testFindMissing},
		{"UpsertAndFind", testUpsertAndFind},
		{"UpsertPreservesHits", testUpsertPreservesHits},
		{"UpsertClearsLifetime", testUpsertClearsLifetime},
		{"Delete", testDelete},
		{"DeleteAll", testDeleteAll},
		{"IncrementMissing", testIncrementMissing},
		{"ConcurrentIncrement", testConcurrentIncrement},
		{"QueryTags", testQueryTags},
		{"QueryLifetimeAndAge", testQueryLifetimeAndAge},
		{"QueryProjection", testQueryProjection},
		{"TimesAreUTC", testTimesAreUTC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRepo(t)
			t.Cleanup(func() { _ = r.Close(context.Background()) })
			tt.fn(t, r)
		})
	}
}

// NewRecord builds a finite record added at base.
func NewRecord(id string, lifetime int64, tags ...string) repository.Record {
	ttl := base.Add(time.Duration(lifetime) * time.Second)
	return repository.Record{
		CacheID:       id,
		Data:          []byte("payload:" + id),
		DateAdded:     base,
		Lifetime:      &lifetime,
		TTL:           &ttl,
		Tags:          tags,
		ObjectVersion: 1,
	}
}

func ids(recs []repository.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.CacheID)
	}
	sort.Strings(out)
	return out
}

func testFindMissing(t *testing.T, r repository.Repository) {
	_, ok, err := r.FindByCacheID(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testUpsertAndFind(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	want := NewRecord("k1", 50, "a", "b")
	require.NoError(t, r.Upsert(ctx, want))

	got, ok, err := r.FindByCacheID(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, want.CacheID, got.CacheID)
	assert.Equal(t, want.Data, got.Data)
	assert.True(t, want.DateAdded.Equal(got.DateAdded), "date_added %v != %v", got.DateAdded, want.DateAdded)
	require.NotNil(t, got.Lifetime)
	assert.Equal(t, int64(50), *got.Lifetime)
	require.NotNil(t, got.TTL)
	assert.True(t, want.TTL.Equal(*got.TTL))
	assert.ElementsMatch(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, int64(1), got.ObjectVersion)
	assert.Zero(t, got.Hits)
}

func testUpsertPreservesHits(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, NewRecord("k1", 50)))

	for i := 0; i < 3; i++ {
		ok, err := r.IncrementHits(ctx, "k1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	next := NewRecord("k1", 10, "x")
	next.Data = []byte("second")
	next.Hits = 99 // ignored by Upsert
	require.NoError(t, r.Upsert(ctx, next))

	got, ok, err := r.FindByCacheID(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), got.Hits)
	assert.Equal(t, "second", string(got.Data))
	assert.Equal(t, int64(10), *got.Lifetime)
}

func testUpsertClearsLifetime(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, NewRecord("k1", 50)))

	inf := NewRecord("k1", 0)
	inf.Lifetime = nil
	inf.TTL = nil
	require.NoError(t, r.Upsert(ctx, inf))

	got, ok, err := r.FindByCacheID(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, got.Lifetime)
	assert.Nil(t, got.TTL)
}

func testDelete(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, NewRecord("k1", 50)))

	deleted, err := r.DeleteByCacheID(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = r.DeleteByCacheID(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testDeleteAll(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.Upsert(ctx, NewRecord(id, 50)))
	}
	require.NoError(t, r.DeleteAll(ctx))

	recs, err := r.Query(ctx, repository.Predicate{})
	require.NoError(t, err)
	assert.Empty(t, recs)

	// the store stays usable
	require.NoError(t, r.Upsert(ctx, NewRecord("d", 50)))
	_, ok, err := r.FindByCacheID(ctx, "d")
	require.NoError(t, err)
	assert.True(t, ok)
}

func testIncrementMissing(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	ok, err := r.IncrementHits(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := r.FindByCacheID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found, "IncrementHits must not create records")
}

func testConcurrentIncrement(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, NewRecord("k1", 50)))

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.IncrementHits(ctx, "k1"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, _, err := r.FindByCacheID(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.Hits)
}

func testQueryTags(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, NewRecord("ab", 50, "a", "b")))
	require.NoError(t, r.Upsert(ctx, NewRecord("a", 50, "a")))
	require.NoError(t, r.Upsert(ctx, NewRecord("bc", 50, "b", "c")))
	require.NoError(t, r.Upsert(ctx, NewRecord("none", 50)))

	query := func(m repository.TagMatch, tags ...string) []string {
		recs, err := r.Query(ctx, repository.Predicate{Tags: repository.TagFilter{Match: m, Tags: tags}})
		require.NoError(t, err)
		return ids(recs)
	}

	assert.Equal(t, []string{"ab"}, query(repository.MatchAll, "a", "b"))
	assert.Equal(t, []string{"bc", "none"}, query(repository.MatchNone, "a"))
	assert.Equal(t, []string{"ab", "bc"}, query(repository.MatchAny, "b"))
	assert.Empty(t, query(repository.MatchAll))
	assert.Empty(t, query(repository.MatchAny))
	assert.Equal(t, []string{"a", "ab", "bc", "none"}, query(repository.MatchNone))
}

func testQueryLifetimeAndAge(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, NewRecord("finite", 10)))

	inf := NewRecord("infinite", 0)
	inf.Lifetime, inf.TTL = nil, nil
	require.NoError(t, r.Upsert(ctx, inf))

	later := NewRecord("later", 10)
	later.DateAdded = base.Add(time.Hour)
	require.NoError(t, r.Upsert(ctx, later))

	recs, err := r.Query(ctx, repository.Predicate{HasLifetime: true, AddedAtOrBefore: base})
	require.NoError(t, err)
	assert.Equal(t, []string{"finite"}, ids(recs))
}

func testQueryProjection(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, NewRecord("k1", 10, "t")))

	recs, err := r.Query(ctx, repository.Predicate{Fields: []string{repository.FieldTags}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "k1", recs[0].CacheID)
	assert.Equal(t, []string{"t"}, recs[0].Tags)
}

// testTimesAreUTC runs under a non-UTC time.Local so decoders that restore
// times in the local zone are caught.
func testTimesAreUTC(t *testing.T, r repository.Repository) {
	prev := time.Local
	time.Local = time.FixedZone("UTC+3", 3*3600)
	t.Cleanup(func() { time.Local = prev })

	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, NewRecord("k1", 10)))

	got, ok, err := r.FindByCacheID(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.DateAdded.Location())
	require.NotNil(t, got.TTL)
	assert.Equal(t, time.UTC, got.TTL.Location())

	recs, err := r.Query(ctx, repository.Predicate{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, time.UTC, recs[0].DateAdded.Location())
}

package mongo

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unkn0wn-root/doccache/internal/testutil"
	"github.com/unkn0wn-root/doccache/repository"
	"github.com/unkn0wn-root/doccache/repository/repotest"
)

func TestFilter(t *testing.T) {
	at := time.Unix(1_700_000_000, 0).UTC()

	tests := []struct {
		name string
		p    repository.Predicate
		want bson.D
	}{
		{"empty", repository.Predicate{}, bson.D{}},
		{
			"all of",
			repository.Predicate{Tags: repository.TagFilter{Match: repository.MatchAll, Tags: []string{"a", "b"}}},
			bson.D{{Key: "tags", Value: bson.D{{Key: "$all", Value: []string{"a", "b"}}}}},
		},
		{
			"none of",
			repository.Predicate{Tags: repository.TagFilter{Match: repository.MatchNone, Tags: []string{"a"}}},
			bson.D{{Key: "tags", Value: bson.D{{Key: "$nin", Value: []string{"a"}}}}},
		},
		{
			"any of nil tags",
			repository.Predicate{Tags: repository.TagFilter{Match: repository.MatchAny}},
			bson.D{{Key: "tags", Value: bson.D{{Key: "$in", Value: []string{}}}}},
		},
		{
			"old sweep",
			repository.Predicate{HasLifetime: true, AddedAtOrBefore: at},
			bson.D{
				{Key: "lifetime", Value: bson.D{{Key: "$exists", Value: true}}},
				{Key: "date_added", Value: bson.D{{Key: "$lte", Value: at}}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filter(tt.p))
		})
	}
}

func TestOpenerSplitTarget(t *testing.T) {
	o := Opener{Database: "app"}

	db, coll, err := o.split("cache.entries")
	require.NoError(t, err)
	assert.Equal(t, "cache", db)
	assert.Equal(t, "entries", coll)

	db, coll, err = o.split("entries")
	require.NoError(t, err)
	assert.Equal(t, "app", db)
	assert.Equal(t, "entries", coll)

	_, _, err = Opener{}.split("entries")
	assert.ErrorIs(t, err, ErrNoDatabase)

	_, _, err = o.split("")
	assert.ErrorIs(t, err, repository.ErrEmptyTarget)

	_, err = Opener{}.Open(context.Background(), "db.c")
	assert.ErrorIs(t, err, ErrNilClient)

	_, err = New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrNilCollection)
}

func newClient(t *testing.T) *mongo.Client {
	t.Helper()
	srv := testutil.StartMongo(t)
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://"+srv.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	require.NoError(t, client.Ping(ctx, nil))
	return client
}

func TestIntegration_Conformance(t *testing.T) {
	client := newClient(t)

	var n atomic.Int64
	repotest.TestSuite(t, func(t *testing.T) repository.Repository {
		r, err := Opener{Client: client}.Open(context.Background(), fmt.Sprintf("doccache.suite%d", n.Add(1)))
		require.NoError(t, err)
		return r
	})
}

func TestIntegration_UniqueCacheID(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	r, err := Opener{Client: client, Database: "doccache"}.Open(ctx, "unique")
	require.NoError(t, err)

	require.NoError(t, r.Upsert(ctx, repotest.NewRecord("k", 10)))
	require.NoError(t, r.Upsert(ctx, repotest.NewRecord("k", 20)))

	coll := client.Database("doccache").Collection("unique")
	n, err := coll.CountDocuments(ctx, bson.D{{Key: "cache_id", Value: "k"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = coll.InsertOne(ctx, bson.D{{Key: "cache_id", Value: "k"}})
	assert.True(t, mongo.IsDuplicateKeyError(err), "expected duplicate key error, got %v", err)
}

// Documents written without lifetime/ttl (infinite records) must read back
// with nil pointers, not zero values.
func TestIntegration_InfiniteDocumentShape(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	r, err := Opener{Client: client}.Open(ctx, "doccache.shape")
	require.NoError(t, err)

	rec := repotest.NewRecord("inf", 0)
	rec.Lifetime, rec.TTL = nil, nil
	require.NoError(t, r.Upsert(ctx, rec))

	raw, err := client.Database("doccache").Collection("shape").
		FindOne(ctx, bson.D{{Key: "cache_id", Value: "inf"}}).Raw()
	require.NoError(t, err)
	_, err = raw.LookupErr("lifetime")
	assert.Error(t, err, "lifetime must be absent")
	_, err = raw.LookupErr("ttl")
	assert.Error(t, err, "ttl must be absent")
}

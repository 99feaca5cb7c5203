// Package mongo stores one document per record in a MongoDB collection.
//
// cache_id carries a unique index; the document _id is never used by doccache.
// Tag predicates run in the server as $all / $nin / $in over the inline tags
// array, and hits is maintained with $inc.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unkn0wn-root/doccache/repository"
)

var (
	ErrNilClient     = errors.New("mongo repository: nil client")
	ErrNilCollection = errors.New("mongo repository: nil collection")
	ErrNoDatabase    = errors.New("mongo repository: no database in target and no default database")
)

type Repository struct {
	coll        *mongo.Collection
	closeClient bool
}

var _ repository.Repository = (*Repository)(nil)

type Config struct {
	Collection  *mongo.Collection
	CloseClient bool // disconnect the collection's client on Close
	// SkipIndex disables creating the unique cache_id index (e.g. when the
	// deploy user lacks createIndex and the index is managed elsewhere).
	SkipIndex bool
}

// New wraps a collection and ensures the unique cache_id index.
func New(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.Collection == nil {
		return nil, ErrNilCollection
	}
	if !cfg.SkipIndex {
		_, err := cfg.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: repository.FieldCacheID, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("cache_id_unique"),
		})
		if err != nil {
			return nil, fmt.Errorf("create cache_id index: %w", err)
		}
	}
	return &Repository{coll: cfg.Collection, closeClient: cfg.CloseClient}, nil
}

func byCacheID(id string) bson.D {
	return bson.D{{Key: repository.FieldCacheID, Value: id}}
}

func (r *Repository) FindByCacheID(ctx context.Context, id string) (repository.Record, bool, error) {
	var rec repository.Record
	err := r.coll.FindOne(ctx, byCacheID(id)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.Record{}, false, nil
	}
	if err != nil {
		return repository.Record{}, false, err
	}
	return rec.UTC(), true, nil
}

func (r *Repository) Upsert(ctx context.Context, rec repository.Record) error {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	set := bson.D{
		{Key: repository.FieldData, Value: rec.Data},
		{Key: repository.FieldDateAdded, Value: rec.DateAdded},
		{Key: repository.FieldTags, Value: tags},
		{Key: repository.FieldObjectVersion, Value: rec.ObjectVersion},
	}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: repository.FieldHits, Value: int64(0)}}}}

	if rec.Lifetime != nil && rec.TTL != nil {
		set = append(set,
			bson.E{Key: repository.FieldLifetime, Value: *rec.Lifetime},
			bson.E{Key: repository.FieldTTL, Value: *rec.TTL},
		)
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{
			{Key: repository.FieldLifetime, Value: ""},
			{Key: repository.FieldTTL, Value: ""},
		}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	_, err := r.coll.UpdateOne(ctx, byCacheID(rec.CacheID), update, options.Update().SetUpsert(true))
	return err
}

func (r *Repository) DeleteByCacheID(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, byCacheID(id))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DeleteAll empties the collection. The collection is not dropped so the
// cache_id index survives.
func (r *Repository) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{})
	return err
}

func (r *Repository) IncrementHits(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx, byCacheID(id),
		bson.D{{Key: "$inc", Value: bson.D{{Key: repository.FieldHits, Value: int64(1)}}}},
		options.Update().SetUpsert(false),
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *Repository) Query(ctx context.Context, p repository.Predicate) ([]repository.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: repository.FieldCacheID, Value: 1}})
	if len(p.Fields) > 0 {
		proj := bson.D{{Key: repository.FieldCacheID, Value: 1}}
		for _, f := range p.Fields {
			if f != repository.FieldCacheID {
				proj = append(proj, bson.E{Key: f, Value: 1})
			}
		}
		opts.SetProjection(proj)
	}

	cur, err := r.coll.Find(ctx, Filter(p), opts)
	if err != nil {
		return nil, err
	}
	var out []repository.Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = out[i].UTC()
	}
	return out, nil
}

func (r *Repository) Close(ctx context.Context) error {
	if r.closeClient {
		return r.coll.Database().Client().Disconnect(ctx)
	}
	return nil
}

// Filter translates a predicate into a Mongo query document.
func Filter(p repository.Predicate) bson.D {
	f := bson.D{}
	if p.HasLifetime {
		f = append(f, bson.E{Key: repository.FieldLifetime, Value: bson.D{{Key: "$exists", Value: true}}})
	}
	if !p.AddedAtOrBefore.IsZero() {
		f = append(f, bson.E{Key: repository.FieldDateAdded, Value: bson.D{{Key: "$lte", Value: p.AddedAtOrBefore}}})
	}

	var op string
	switch p.Tags.Match {
	case repository.MatchAll:
		op = "$all"
	case repository.MatchNone:
		op = "$nin"
	case repository.MatchAny:
		op = "$in"
	default:
		return f
	}
	tags := p.Tags.Tags
	if tags == nil {
		tags = []string{}
	}
	return append(f, bson.E{Key: repository.FieldTags, Value: bson.D{{Key: op, Value: tags}}})
}


// Opener resolves a target of the form "database.collection", or a bare
// collection name inside Database.
type Opener struct {
	Client      *mongo.Client
	Database    string
	CloseClient bool
	SkipIndex   bool
}

var _ repository.Opener = Opener{}

func (o Opener) Open(ctx context.Context, target string) (repository.Repository, error) {
	if o.Client == nil {
		return nil, ErrNilClient
	}
	db, coll, err := o.split(target)
	if err != nil {
		return nil, err
	}
	r, err := New(ctx, Config{
		Collection:  o.Client.Database(db).Collection(coll),
		CloseClient: o.CloseClient,
		SkipIndex:   o.SkipIndex,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (o Opener) split(target string) (db, coll string, err error) {
	if target == "" {
		return "", "", repository.ErrEmptyTarget
	}
	if i := strings.IndexByte(target, '.'); i > 0 && i < len(target)-1 {
		return target[:i], target[i+1:], nil
	}
	if o.Database == "" {
		return "", "", fmt.Errorf("%w: %q", ErrNoDatabase, target)
	}
	return o.Database, target, nil
}

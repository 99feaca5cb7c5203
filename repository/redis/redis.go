// Package redis stores records in Redis hashes.
//
// Each record is one hash at <prefix>:<target>:rec:<cache_id> with two fields:
// "body" holds the framed, codec-encoded record and "hits" holds the counter,
// so hit counting is a server-side HINCRBY.
//
// Listing queries SCAN the record keyspace and filter client-side. With a
// cluster client SCAN only covers the node it is sent to; use one repository
// per shard or a single-node deployment for listing and clean operations.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/doccache/codec"
	"github.com/unkn0wn-root/doccache/internal/util"
	"github.com/unkn0wn-root/doccache/internal/wire"
	"github.com/unkn0wn-root/doccache/repository"
)

const (
	fieldBody = "body"
	fieldHits = "hits"

	scanBatch     = 500
	DefaultPrefix = "doccache"
)

var ErrNilClient = errors.New("redis repository: nil client")

// incrHits bumps hits only on existing records; HINCRBY alone would create one.
var incrHits = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
end
return -1
`)

// dropIfBody deletes a record only while its body still equals ARGV[2], so a
// concurrent Upsert is never erased by a self-heal. A missing body compares as "".
var dropIfBody = goredis.NewScript(`
local body = redis.call('HGET', KEYS[1], ARGV[1]) or ''
if body == ARGV[2] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type Repository struct {
	rdb         goredis.UniversalClient
	ns          string
	codec       codec.Record
	closeClient bool
}

var _ repository.Repository = (*Repository)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Namespace   string       // key prefix owned by this repository
	Codec       codec.Record // nil => codec.Default()
	CloseClient bool         // set true only if this repository exclusively owns the client
}

func New(cfg Config) (*Repository, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Namespace == "" {
		return nil, repository.ErrEmptyTarget
	}
	cd := cfg.Codec
	if cd == nil {
		cd = codec.Default()
	}
	return &Repository{rdb: cfg.Client, ns: cfg.Namespace, codec: cd, closeClient: cfg.CloseClient}, nil
}

func (r *Repository) key(id string) string { return util.RecordKey(r.ns, id) }

func (r *Repository) FindByCacheID(ctx context.Context, id string) (repository.Record, bool, error) {
	k := r.key(id)
	h, err := r.rdb.HGetAll(ctx, k).Result()
	if err != nil {
		return repository.Record{}, false, err
	}
	if len(h) == 0 {
		return repository.Record{}, false, nil
	}
	rec, err := r.decode(k, h)
	if errors.Is(err, wire.ErrCorrupt) {
		_ = dropIfBody.Run(ctx, r.rdb, []string{k}, fieldBody, h[fieldBody]).Err() // self-heal
		return repository.Record{}, false, nil
	}
	if err != nil {
		return repository.Record{}, false, err
	}
	return rec, true, nil
}

func (r *Repository) Upsert(ctx context.Context, rec repository.Record) error {
	rec.Hits = 0
	payload, err := r.codec.Encode(rec)
	if err != nil {
		return err
	}
	body := wire.EncodeRecord(payload)
	k := r.key(rec.CacheID)

	_, err = r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, k, fieldBody, body)
		p.HSetNX(ctx, k, fieldHits, 0)
		return nil
	})
	return err
}

func (r *Repository) DeleteByCacheID(ctx context.Context, id string) (bool, error) {
	n, err := r.rdb.Del(ctx, r.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) DeleteAll(ctx context.Context) error {
	return r.scan(ctx, func(keys []string) error {
		return r.rdb.Del(ctx, keys...).Err()
	})
}

func (r *Repository) IncrementHits(ctx context.Context, id string) (bool, error) {
	n, err := incrHits.Run(ctx, r.rdb, []string{r.key(id)}, fieldHits).Int64()
	if err != nil {
		return false, err
	}
	return n >= 0, nil
}

// Query fetches matching candidates in pipelined batches. Records deleted or
// corrupted mid-scan are skipped.
func (r *Repository) Query(ctx context.Context, p repository.Predicate) ([]repository.Record, error) {
	var out []repository.Record
	err := r.scan(ctx, func(keys []string) error {
		cmds := make([]*goredis.MapStringStringCmd, len(keys))
		_, err := r.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
			for i, k := range keys {
				cmds[i] = pipe.HGetAll(ctx, k)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for i, cmd := range cmds {
			h := cmd.Val()
			if len(h) == 0 {
				continue
			}
			rec, err := r.decode(keys[i], h)
			if err != nil {
				continue
			}
			if p.Matches(rec) {
				out = append(out, repository.Project(rec, p.Fields))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CacheID < out[j].CacheID })
	return out, nil
}

// Close releases the underlying client only when this repository owns it.
func (r *Repository) Close(context.Context) error {
	if r.closeClient {
		if err := r.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// scan calls fn with batches of record keys.
func (r *Repository) scan(ctx context.Context, fn func(keys []string) error) error {
	iter := r.rdb.Scan(ctx, 0, util.RecordPattern(r.ns), scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := fn(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// decode rebuilds the record stored under key. A body whose cache_id is not
// the id encoded in key is corrupt.
func (r *Repository) decode(key string, h map[string]string) (repository.Record, error) {
	body, ok := h[fieldBody]
	if !ok {
		return repository.Record{}, wire.ErrCorrupt
	}
	payload, err := wire.DecodeRecord([]byte(body))
	if err != nil {
		return repository.Record{}, err
	}
	rec, err := r.codec.Decode(payload)
	if errors.Is(err, codec.ErrTooLarge) {
		return repository.Record{}, err // intact, only over the codec limit
	}
	if err != nil {
		return repository.Record{}, errors.Join(wire.ErrCorrupt, err)
	}
	if id, ok := util.CacheID(r.ns, key); !ok || id != rec.CacheID {
		return repository.Record{}, fmt.Errorf("%w: body of %q holds cache_id %q", wire.ErrCorrupt, key, rec.CacheID)
	}
	rec = rec.UTC()
	if s, ok := h[fieldHits]; ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return repository.Record{}, fmt.Errorf("%w: hits %q", wire.ErrCorrupt, s)
		}
		rec.Hits = n
	}
	return rec, nil
}

// Opener maps a store target to the namespace <Prefix>:<target>.
type Opener struct {
	Client      goredis.UniversalClient
	Prefix      string // "" => DefaultPrefix
	Codec       codec.Record
	CloseClient bool
}

var _ repository.Opener = Opener{}

func (o Opener) Open(_ context.Context, target string) (repository.Repository, error) {
	if target == "" {
		return nil, repository.ErrEmptyTarget
	}
	prefix := o.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	r, err := New(Config{
		Client:      o.Client,
		Namespace:   prefix + ":" + target,
		Codec:       o.Codec,
		CloseClient: o.CloseClient,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

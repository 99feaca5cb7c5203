package objversion

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis shares the version across processes and survives restarts.
// A missing key reads as Base.
type Redis struct {
	rdb redis.UniversalClient
	key string
}

var _ Source = (*Redis)(nil)

// NewRedis stores the version at "objversion:<namespace>".
func NewRedis(client redis.UniversalClient, namespace string) *Redis {
	return &Redis{rdb: client, key: "objversion:" + namespace}
}

func (s *Redis) Current(ctx context.Context) (int64, error) {
	res, err := s.rdb.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return Base, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis objversion parse: %w", err)
	}
	return v, nil
}

// Bump seeds the key with Base when missing, then increments, in one
// MULTI/EXEC round-trip.
func (s *Redis) Bump(ctx context.Context) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, s.key, Base, 0)
		incr = p.Incr(ctx, s.key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Close is a no-op; the client belongs to the caller.
func (s *Redis) Close(context.Context) error { return nil }

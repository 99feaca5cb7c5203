package objversion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/doccache/internal/testutil"
)

func TestStaticIsFixed(t *testing.T) {
	ctx := context.Background()
	s := Static(3)
	if v, err := s.Current(ctx); err != nil || v != 3 {
		t.Fatalf("Current = %d, %v", v, err)
	}
	if _, err := s.Bump(ctx); !errors.Is(err, ErrFixed) {
		t.Fatalf("Bump: want ErrFixed, got %v", err)
	}
}

func TestLocalBumpIsAtomic(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(0)
	if v, _ := l.Current(ctx); v != Base {
		t.Fatalf("start = %d, want %d", v, Base)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Bump(ctx)
		}()
	}
	wg.Wait()

	if v, _ := l.Current(ctx); v != Base+20 {
		t.Fatalf("after bumps = %d, want %d", v, Base+20)
	}
}

func TestIntegration_RedisSharedVersion(t *testing.T) {
	srv := testutil.StartRedis(t)
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := NewRedis(rdb, "app")
	b := NewRedis(rdb, "app")

	if v, err := a.Current(ctx); err != nil || v != Base {
		t.Fatalf("missing key: Current = %d, %v", v, err)
	}
	v, err := a.Bump(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v != Base+1 {
		t.Fatalf("Bump = %d, want %d", v, Base+1)
	}
	if got, err := b.Current(ctx); err != nil || got != v {
		t.Fatalf("other replica sees %d, %v; want %d", got, err, v)
	}

	other := NewRedis(rdb, "other")
	if got, _ := other.Current(ctx); got != Base {
		t.Fatalf("namespaces leak: %d", got)
	}
}

// Package asynchook moves doccache hook calls off the load and clean paths
// onto a bounded worker queue. Events are dropped when the queue is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    ReclaimEvery: 10, // sample logs: ~every 10th reclaim
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	b, _ := doccache.New(ctx, doccache.Options{
//	    StoreTarget: "app.cache",
//	    Store:       mongo.Opener{Client: client},
//	    Hooks:       hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/doccache"
)

type Hooks struct {
	inner   doccache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards sends against Close
	closed  bool
	dropped atomic.Uint64
}

var _ doccache.Hooks = (*Hooks)(nil)

func New(inner doccache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) ReclaimedOnRead(id, reason string) {
	h.try(func() { h.inner.ReclaimedOnRead(id, reason) })
}
func (h *Hooks) HitNotRecorded(id string, err error) {
	h.try(func() { h.inner.HitNotRecorded(id, err) })
}
func (h *Hooks) CleanCompleted(mode doccache.CleanMode, matched, deleted int) {
	h.try(func() { h.inner.CleanCompleted(mode, matched, deleted) })
}
func (h *Hooks) VersionSourceError(op string, err error) {
	h.try(func() { h.inner.VersionSourceError(op, err) })
}

// Package memory is an in-process Repository. Records live in a map guarded by
// a mutex; every read returns a copy.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/unkn0wn-root/doccache/repository"
)

type Repository struct {
	mu   sync.RWMutex
	recs map[string]repository.Record
}

var _ repository.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{recs: make(map[string]repository.Record)}
}

func (r *Repository) FindByCacheID(_ context.Context, id string) (repository.Record, bool, error) {
	r.mu.RLock()
	rec, ok := r.recs[id]
	r.mu.RUnlock()
	if !ok {
		return repository.Record{}, false, nil
	}
	return rec.Clone(), true, nil
}

func (r *Repository) Upsert(_ context.Context, rec repository.Record) error {
	rec = rec.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.recs[rec.CacheID]; ok {
		rec.Hits = cur.Hits
	} else {
		rec.Hits = 0
	}
	r.recs[rec.CacheID] = rec
	return nil
}

func (r *Repository) DeleteByCacheID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	_, ok := r.recs[id]
	delete(r.recs, id)
	r.mu.Unlock()
	return ok, nil
}

func (r *Repository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	r.recs = make(map[string]repository.Record)
	r.mu.Unlock()
	return nil
}

func (r *Repository) IncrementHits(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return false, nil
	}
	rec.Hits++
	r.recs[id] = rec
	return true, nil
}

// Query returns matches ordered by cache id.
func (r *Repository) Query(_ context.Context, p repository.Predicate) ([]repository.Record, error) {
	r.mu.RLock()
	out := make([]repository.Record, 0, len(r.recs))
	for _, rec := range r.recs {
		if p.Matches(rec) {
			out = append(out, repository.Project(rec.Clone(), p.Fields))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CacheID < out[j].CacheID })
	return out, nil
}

// Len returns the number of stored records.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recs)
}

func (r *Repository) Close(context.Context) error { return nil }

// Opener hands out one shared Repository per target, so backends opened on the
// same target see the same records.
type Opener struct {
	mu    sync.Mutex
	repos map[string]*Repository
}

var _ repository.Opener = (*Opener)(nil)

func NewOpener() *Opener {
	return &Opener{repos: make(map[string]*Repository)}
}

func (o *Opener) Open(_ context.Context, target string) (repository.Repository, error) {
	if target == "" {
		return nil, repository.ErrEmptyTarget
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.repos == nil {
		o.repos = make(map[string]*Repository)
	}
	r, ok := o.repos[target]
	if !ok {
		r = New()
		o.repos[target] = r
	}
	return r, nil
}

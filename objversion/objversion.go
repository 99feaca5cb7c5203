// Package objversion supplies the current supported object version.
//
// Every record carries the object_version it was written with; a record whose
// version differs from Source.Current is unreadable and gets reclaimed. Bumping
// the version therefore invalidates every cached record at once without a sweep.
package objversion

import (
	"context"
	"errors"
	"sync/atomic"
)

// Base is the version records are written with when nothing was bumped.
const Base int64 = 1

var ErrFixed = errors.New("objversion: source does not support bumping")

// Source abstracts where the current version lives.
type Source interface {
	// Current returns the version new records are written with and loads accept.
	Current(ctx context.Context) (int64, error)
	// Bump atomically increments and returns the new version, or ErrFixed.
	Bump(ctx context.Context) (int64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

// Static is a fixed version compiled into the program.
type Static int64

var _ Source = Static(0)

func (s Static) Current(context.Context) (int64, error) { return int64(s), nil }
func (Static) Bump(context.Context) (int64, error)      { return 0, ErrFixed }
func (Static) Close(context.Context) error              { return nil }

// Local keeps a bumpable version in-process. Replicas do not see each other's
// bumps; use Redis for that.
type Local struct {
	v atomic.Int64
}

var _ Source = (*Local)(nil)

// NewLocal starts at start (<= 0 => Base).
func NewLocal(start int64) *Local {
	if start <= 0 {
		start = Base
	}
	l := &Local{}
	l.v.Store(start)
	return l
}

func (l *Local) Current(context.Context) (int64, error) { return l.v.Load(), nil }
func (l *Local) Bump(context.Context) (int64, error)    { return l.v.Add(1), nil }
func (l *Local) Close(context.Context) error            { return nil }

// Package sloghooks logs doccache hook events to a *slog.Logger with cache
// id redaction and per-event sampling.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/doccache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	ReclaimEvery uint64
	HitMissEvery uint64
	// Optional cache id redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	reclaimCtr atomic.Uint64
	hitMissCtr atomic.Uint64
}

var _ doccache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(id string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(id)
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ReclaimedOnRead(cacheID, reason string) {
	if h.l == nil || !sample(h.opts.ReclaimEvery, &h.reclaimCtr) {
		return
	}
	h.l.Debug("doccache.reclaimed_on_read",
		"cache_id", h.redact(cacheID),
		"reason", reason)
}

func (h *Hooks) HitNotRecorded(cacheID string, err error) {
	if h.l == nil {
		return
	}
	if err != nil {
		h.l.Warn("doccache.hit_not_recorded",
			"cache_id", h.redact(cacheID),
			"err", err)
		return
	}
	if !sample(h.opts.HitMissEvery, &h.hitMissCtr) {
		return
	}
	h.l.Debug("doccache.hit_not_recorded",
		"cache_id", h.redact(cacheID),
		"reason", "deleted_concurrently")
}

func (h *Hooks) CleanCompleted(mode doccache.CleanMode, matched, deleted int) {
	if h.l == nil {
		return
	}
	h.l.Info("doccache.clean_completed",
		"mode", string(mode),
		"matched", matched,
		"deleted", deleted)
}

func (h *Hooks) VersionSourceError(op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("doccache.version_source_error",
		"op", op,
		"err", err)
}

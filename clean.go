package doccache

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/doccache/repository"
)

// CleanMode selects which records Clean removes.
type CleanMode string

const (
	CleanAll            CleanMode = "all"
	CleanOld            CleanMode = "old"
	CleanMatchingTag    CleanMode = "matchingTag"
	CleanNotMatchingTag CleanMode = "notMatchingTag"
	CleanMatchingAnyTag CleanMode = "matchingAnyTag"
)

func (m CleanMode) valid() bool {
	switch m {
	case CleanAll, CleanOld, CleanMatchingTag, CleanNotMatchingTag, CleanMatchingAnyTag:
		return true
	}
	return false
}

// Clean removes records by mode. Tag modes take the tag set as variadic
// arguments; other modes ignore them. Deletes are independent: the first
// store error stops the pass and is returned as is, leaving later matches for
// the next call.
func (b *backend) Clean(ctx context.Context, mode CleanMode, tags ...string) error {
	if !mode.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCleanMode, mode)
	}

	switch mode {
	case CleanAll:
		if err := b.repo.DeleteAll(ctx); err != nil {
			return err
		}
		b.hooks.CleanCompleted(mode, -1, -1)
		b.log.Debug("cleaned all records", nil)
		return nil
	case CleanOld:
		return b.sweepExpired(ctx)
	case CleanMatchingTag:
		return b.deleteWhere(ctx, mode, tagPredicate(repository.MatchAll, tags, idOnly))
	case CleanNotMatchingTag:
		return b.deleteWhere(ctx, mode, tagPredicate(repository.MatchNone, tags, idOnly))
	default: // CleanMatchingAnyTag
		return b.deleteWhere(ctx, mode, tagPredicate(repository.MatchAny, tags, idOnly))
	}
}

// sweepExpired deletes every record with a lifetime whose expiry has passed.
// Records without a lifetime are never swept.
func (b *backend) sweepExpired(ctx context.Context) error {
	now := b.now()
	recs, err := b.repo.Query(ctx, repository.Predicate{
		HasLifetime:     true,
		AddedAtOrBefore: now,
		Fields:          []string{repository.FieldDateAdded, repository.FieldLifetime},
	})
	if err != nil {
		return err
	}

	deleted := 0
	for _, r := range recs {
		exp, ok := r.Expiry()
		if !ok || now.Before(exp) {
			continue
		}
		removed, err := b.repo.DeleteByCacheID(ctx, r.CacheID)
		if err != nil {
			return err
		}
		if removed {
			deleted++
		}
	}
	b.hooks.CleanCompleted(CleanOld, len(recs), deleted)
	b.log.Debug("swept expired records", Fields{"candidates": len(recs), "deleted": deleted})
	return nil
}

func (b *backend) deleteWhere(ctx context.Context, mode CleanMode, p repository.Predicate) error {
	recs, err := b.repo.Query(ctx, p)
	if err != nil {
		return err
	}
	deleted := 0
	for _, r := range recs {
		removed, err := b.repo.DeleteByCacheID(ctx, r.CacheID)
		if err != nil {
			return err
		}
		if removed {
			deleted++
		}
	}
	b.hooks.CleanCompleted(mode, len(recs), deleted)
	b.log.Debug("cleaned records by tag", Fields{fieldMode: string(mode), "tags": p.Tags.Tags, "deleted": deleted})
	return nil
}

package doccache

import (
	"context"
	"sort"

	"github.com/unkn0wn-root/doccache/repository"
)

var (
	idOnly   = []string{repository.FieldCacheID}
	tagsOnly = []string{repository.FieldTags}
)

func (b *backend) GetIds(ctx context.Context) ([]string, error) {
	return b.ids(ctx, repository.Predicate{Fields: idOnly})
}

// GetTags returns the sorted union of every record's tags.
func (b *backend) GetTags(ctx context.Context) ([]string, error) {
	recs, err := b.repo.Query(ctx, repository.Predicate{Fields: tagsOnly})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range recs {
		for _, t := range r.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

// GetIdsMatchingTags lists records carrying every one of tags.
func (b *backend) GetIdsMatchingTags(ctx context.Context, tags ...string) ([]string, error) {
	return b.ids(ctx, tagPredicate(repository.MatchAll, tags, idOnly))
}

// GetIdsNotMatchingTags lists records carrying none of tags.
func (b *backend) GetIdsNotMatchingTags(ctx context.Context, tags ...string) ([]string, error) {
	return b.ids(ctx, tagPredicate(repository.MatchNone, tags, idOnly))
}

// GetIdsMatchingAnyTags lists records carrying at least one of tags.
func (b *backend) GetIdsMatchingAnyTags(ctx context.Context, tags ...string) ([]string, error) {
	return b.ids(ctx, tagPredicate(repository.MatchAny, tags, idOnly))
}

func tagPredicate(m repository.TagMatch, tags, fields []string) repository.Predicate {
	return repository.Predicate{
		Tags:   repository.TagFilter{Match: m, Tags: uniqueTags(tags)},
		Fields: fields,
	}
}

func (b *backend) ids(ctx context.Context, p repository.Predicate) ([]string, error) {
	recs, err := b.repo.Query(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.CacheID
	}
	return out, nil
}

// uniqueTags drops duplicates, keeping first-seen order. Never returns nil.
func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

package repository

import "time"

// TagMatch selects how a TagFilter compares a record's tags to the given set.
type TagMatch int

const (
	MatchNothing TagMatch = iota // filter disabled
	MatchAll                     // record tags are a superset of Tags
	MatchNone                    // record tags share nothing with Tags
	MatchAny                     // record tags share at least one tag with Tags
)

func (m TagMatch) String() string {
	switch m {
	case MatchAll:
		return "all"
	case MatchNone:
		return "none"
	case MatchAny:
		return "any"
	default:
		return "off"
	}
}

// TagFilter is a set predicate over Record.Tags.
//
// An empty Tags list follows the document store: MatchAll and MatchAny match
// no record, MatchNone matches every record.
type TagFilter struct {
	Match TagMatch
	Tags  []string
}

// Predicate is the query shape supported by every Repository.
// All set conditions must hold (logical AND).
type Predicate struct {
	Tags TagFilter

	// HasLifetime keeps only records with a lifetime.
	HasLifetime bool
	// AddedAtOrBefore keeps only records with date_added <= this instant. Zero disables.
	AddedAtOrBefore time.Time

	// Fields is an optional projection (Field* constants). cache_id is always returned.
	Fields []string
}

// Matches evaluates p against rec. Stores without a query language filter with it.
func (p Predicate) Matches(rec Record) bool {
	if p.HasLifetime && rec.Lifetime == nil {
		return false
	}
	if !p.AddedAtOrBefore.IsZero() && rec.DateAdded.After(p.AddedAtOrBefore) {
		return false
	}
	return p.Tags.Matches(rec.Tags)
}

// Matches evaluates the tag predicate against a record's tag set.
func (f TagFilter) Matches(tags []string) bool {
	if f.Match == MatchNothing {
		return true
	}
	have := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		have[t] = struct{}{}
	}

	switch f.Match {
	case MatchAll:
		if len(f.Tags) == 0 {
			return false
		}
		for _, t := range f.Tags {
			if _, ok := have[t]; !ok {
				return false
			}
		}
		return true
	case MatchNone:
		for _, t := range f.Tags {
			if _, ok := have[t]; ok {
				return false
			}
		}
		return true
	case MatchAny:
		for _, t := range f.Tags {
			if _, ok := have[t]; ok {
				return true
			}
		}
		return false
	}
	return false
}

// Project clears every field not listed in fields. Nil fields keeps everything.
func Project(rec Record, fields []string) Record {
	if len(fields) == 0 {
		return rec
	}
	out := Record{CacheID: rec.CacheID}
	for _, f := range fields {
		switch f {
		case FieldData:
			out.Data = rec.Data
		case FieldDateAdded:
			out.DateAdded = rec.DateAdded
		case FieldLifetime:
			out.Lifetime = rec.Lifetime
		case FieldTTL:
			out.TTL = rec.TTL
		case FieldHits:
			out.Hits = rec.Hits
		case FieldTags:
			out.Tags = rec.Tags
		case FieldObjectVersion:
			out.ObjectVersion = rec.ObjectVersion
		}
	}
	return out
}

package util

import "strings"

const recordSegment = ":rec:"

// RecordKey returns the store key of one record: <prefix>:rec:<cacheID>.
func RecordKey(prefix, cacheID string) string {
	return prefix + recordSegment + cacheID
}

// RecordPattern returns a SCAN MATCH pattern covering every record under prefix.
// Glob metacharacters in prefix are escaped; cache ids are not part of the pattern.
func RecordPattern(prefix string) string {
	return escapeGlob(prefix) + recordSegment + "*"
}

// CacheID extracts the cache id from a key built by RecordKey.
func CacheID(prefix, key string) (string, bool) {
	p := prefix + recordSegment
	if !strings.HasPrefix(key, p) {
		return "", false
	}
	return key[len(p):], true
}

func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

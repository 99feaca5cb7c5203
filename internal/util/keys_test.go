package util

import "testing"

func TestRecordKeyRoundTrip(t *testing.T) {
	k := RecordKey("doccache:app", "user:42")
	if k != "doccache:app:rec:user:42" {
		t.Fatalf("RecordKey = %q", k)
	}
	id, ok := CacheID("doccache:app", k)
	if !ok || id != "user:42" {
		t.Fatalf("CacheID = %q, %v", id, ok)
	}
	if _, ok := CacheID("other", k); ok {
		t.Fatalf("CacheID accepted a foreign prefix")
	}
}

func TestRecordPatternEscapesPrefix(t *testing.T) {
	if got := RecordPattern("plain"); got != "plain:rec:*" {
		t.Fatalf("RecordPattern(plain) = %q", got)
	}
	if got := RecordPattern("a*b[1]"); got != `a\*b\[1\]:rec:*` {
		t.Fatalf("RecordPattern(glob) = %q", got)
	}
}

package wire

import (
	"bytes"
	"testing"
)

func TestRecordEmptyAndNonEmpty(t *testing.T) {
	for _, payload := range [][]byte{nil, []byte("hello"), {0, 1, 2, 3, 4}} {
		got, err := DecodeRecord(EncodeRecord(payload))
		if err != nil {
			t.Fatalf("DecodeRecord(%x): %v", payload, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("payload mismatch: got %x want %x", got, payload)
		}
	}
}

func TestRecordRejectsTrailingBytes(t *testing.T) {
	enc := append(EncodeRecord([]byte("x")), 0xDE, 0xAD)
	if _, err := DecodeRecord(enc); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestRecordCorruptHeaders(t *testing.T) {
	good := EncodeRecord([]byte("abc"))

	cases := map[string][]byte{
		"empty":     nil,
		"short":     good[:5],
		"truncated": good[:len(good)-1],
		"foreign":   []byte("plain redis value"),
	}

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'
	cases["magic"] = badMagic

	badVer := append([]byte(nil), good...)
	badVer[4] = 99
	cases["version"] = badVer

	badKind := append([]byte(nil), good...)
	badKind[5] = 2
	cases["kind"] = badKind

	for name, b := range cases {
		if _, err := DecodeRecord(b); err != ErrCorrupt {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

//go:build go1.21

package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/doccache"
)

func TestLoggerSortsAttrsAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("dropped", doccache.Fields{"x": 1})
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered: %q", buf.String())
	}

	l.Info("object version bumped", doccache.Fields{"version": 2, "b": "y", "a": "x"})
	out := buf.String()
	if !strings.Contains(out, "component=doccache") {
		t.Fatalf("missing component attr: %q", out)
	}
	if ia, ib, iv := strings.Index(out, "a=x"), strings.Index(out, "b=y"), strings.Index(out, "version=2"); ia < 0 || ia > ib || ib > iv {
		t.Fatalf("attrs not sorted: %q", out)
	}
}

package doccache

import (
	"testing"
	"time"
)

func TestResolveLifetime(t *testing.T) {
	cases := []struct {
		name          string
		def, override time.Duration
		want          time.Duration
	}{
		{"unset uses default", time.Hour, DefaultLifetime, time.Hour},
		{"override wins", time.Hour, time.Minute, time.Minute},
		{"infinite override", time.Hour, InfiniteLifetime, InfiniteLifetime},
		{"infinite default", InfiniteLifetime, DefaultLifetime, InfiniteLifetime},
	}
	for _, tc := range cases {
		if got := resolveLifetime(tc.def, tc.override); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLifetimeSeconds(t *testing.T) {
	now := epoch
	cases := []struct {
		name string
		in   time.Duration
		want int64 // -1 => infinite
	}{
		{"whole seconds", 90 * time.Second, 90},
		{"partial rounds up", 1100 * time.Millisecond, 2},
		{"sub-second", time.Nanosecond, 1},
		{"infinite", InfiniteLifetime, -1},
		{"any negative is infinite", -time.Hour, -1},
		{"absolute deadline", ExpireAt(now.Add(30 * time.Second)), 30},
		{"deadline equal to now", ExpireAt(now), 0},
		{"deadline in the past", ExpireAt(now.Add(-time.Hour)), 0},
		{"deadline before floor", ExpireAt(time.Unix(0, 0)), 0},
		{"long relative lifetime", 20 * 365 * 24 * time.Hour, 20 * 365 * 24 * 3600},
	}
	for _, tc := range cases {
		got := lifetimeSeconds(tc.in, now)
		switch {
		case tc.want < 0 && got != nil:
			t.Errorf("%s: got %d, want infinite", tc.name, *got)
		case tc.want >= 0 && (got == nil || *got != tc.want):
			t.Errorf("%s: got %v, want %d", tc.name, got, tc.want)
		}
	}
}

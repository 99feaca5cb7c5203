package doccache

import "time"

const (
	// DefaultLifetime passed to Save means "use Options.DefaultLifetime".
	DefaultLifetime time.Duration = 0
	// InfiniteLifetime (or any negative duration) stores a record that never expires.
	InfiniteLifetime time.Duration = -1

	defaultLifetime = time.Hour

	// absoluteFloor (2000-01-01T00:00:00Z) splits lifetimes: second counts at
	// or above it are Unix deadlines, below it durations. Relative lifetimes
	// beyond ~30 years need InfiniteLifetime.
	absoluteFloor int64 = 946_684_800
)

// ExpireAt turns an absolute deadline into a lifetime Save accepts. A deadline
// at or before the save time stores an already expired record.
func ExpireAt(t time.Time) time.Duration {
	secs := t.Unix()
	if secs < absoluteFloor {
		secs = absoluteFloor
	}
	return time.Duration(secs) * time.Second
}

func resolveLifetime(def, override time.Duration) time.Duration {
	if override == DefaultLifetime {
		return def
	}
	return override
}

// lifetimeSeconds returns nil for infinite lifetimes.
func lifetimeSeconds(d time.Duration, now time.Time) *int64 {
	if d < 0 {
		return nil
	}
	secs := ceilSeconds(d)
	if secs >= absoluteFloor {
		secs = max(secs-now.Unix(), 0)
	}
	return &secs
}

func ceilSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	return secs
}

func expiryOf(dateAdded time.Time, secs int64) time.Time {
	return dateAdded.Add(time.Duration(secs) * time.Second)
}

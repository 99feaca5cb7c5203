package doccache

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the backend calls them
// inline on load and clean paths.
type Hooks interface {
	// A record was deleted by Load instead of being returned.
	// reason ∈ {"version_mismatch", "expired"}
	ReclaimedOnRead(cacheID, reason string)

	// A valid record was returned but its hit could not be counted
	// (deleted concurrently, or the increment failed).
	HitNotRecorded(cacheID string, err error)

	// A Clean pass finished. matched is the number of candidates the pass
	// selected, deleted the number actually removed (-1 when unknown).
	CleanCompleted(mode CleanMode, matched, deleted int)

	// The object version source failed to answer or to bump.
	VersionSourceError(op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) ReclaimedOnRead(string, string)     {}
func (NopHooks) HitNotRecorded(string, error)       {}
func (NopHooks) CleanCompleted(CleanMode, int, int) {}
func (NopHooks) VersionSourceError(string, error)   {}

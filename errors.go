package doccache

import (
	"errors"
	"fmt"

	ov "github.com/unkn0wn-root/doccache/objversion"
)

var (
	// ErrConfig matches every *ConfigError via errors.Is.
	ErrConfig = errors.New("doccache: invalid configuration")

	ErrInvalidCleanMode = errors.New("doccache: invalid clean mode")
	ErrMissingCacheID   = errors.New("doccache: no cache id given and no previous load")
	ErrVersionFixed     = ov.ErrFixed
)

// ConfigError reports an unusable Options value. New returns it instead of
// proceeding with a partially configured backend.
type ConfigError struct {
	Field  string
	Reason string
	Err    error // underlying cause, e.g. the store refusing the target
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("doccache: config %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("doccache: config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func (e *ConfigError) Unwrap() error { return e.Err }

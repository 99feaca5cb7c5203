package doccache

import (
	"time"

	ov "github.com/unkn0wn-root/doccache/objversion"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// withDefaults fills every optional field. Required fields are left to validate.
func withDefaults(opts Options) Options {
	opts.DefaultLifetime = coalesce[time.Duration](opts.DefaultLifetime, defaultLifetime)
	opts.Logger = coalesce[Logger](opts.Logger, NopLogger{})
	if opts.Versions == nil {
		opts.Versions = ov.Static(ov.Base)
	}
	if opts.Hooks == nil {
		opts.Hooks = NopHooks{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return opts
}

func validate(opts Options) error {
	if opts.StoreTarget == "" {
		return &ConfigError{Field: "StoreTarget", Reason: "required"}
	}
	if opts.Store == nil {
		return &ConfigError{Field: "Store", Reason: "required"}
	}
	return nil
}

// Package lock provides short-lived mutual exclusion keyed by string.
//
// Redis backs multi-instance deployments; Local serves a single process and
// Noop disables locking entirely.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DriverRedis selects the Redis backend.
	DriverRedis = "redis"
	// DriverLocal selects the in-process backend.
	DriverLocal = "local"
	// DriverNone disables locking.
	DriverNone = "none"
)

var (
	// ErrNotAcquired is returned when the lock stays held past the wait deadline.
	ErrNotAcquired = errors.New("lock: not acquired")
	// ErrUnknownDriver indicates an unsupported lock driver.
	ErrUnknownDriver = errors.New("lock: unknown driver")
)

// Release frees a held lock. Releasing twice is harmless.
type Release func(ctx context.Context) error

// Locker acquires exclusive leases.
type Locker interface {
	// Lock blocks until key is held by the caller, ctx ends, or the wait
	// deadline passes. The lease expires on its own after ttl.
	Lock(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Options tunes acquisition polling.
type Options struct {
	// Wait bounds how long Lock blocks. Zero means 3s.
	Wait time.Duration
	// Poll is the delay between attempts. Zero means 25ms.
	Poll time.Duration
}

func (o Options) withDefaults() Options {
	if o.Wait <= 0 {
		o.Wait = 3 * time.Second
	}
	if o.Poll <= 0 {
		o.Poll = 25 * time.Millisecond
	}
	return o
}

// FactoryOptions groups backend configuration.
type FactoryOptions struct {
	Redis   RedisOptions
	Options Options
}

// NewFromDriver constructs a Locker by driver name.
func NewFromDriver(driver string, opts FactoryOptions) (Locker, error) {
	switch strings.TrimSpace(driver) {
	case DriverRedis:
		return NewRedis(opts.Redis, opts.Options)
	case DriverLocal:
		return NewLocal(opts.Options), nil
	case DriverNone, "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// Noop grants every lock immediately.
type Noop struct{}

func (Noop) Lock(context.Context, string, time.Duration) (Release, error) {
	return func(context.Context) error { return nil }, nil
}

func waitFor(ctx context.Context, deadline <-chan time.Time, poll time.Duration) error {
	t := time.NewTimer(poll)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline:
		return ErrNotAcquired
	case <-t.C:
		return nil
	}
}

package config

import (
	"io"
	"time"
)

// DurationConfig reads integer values and scales them to a time unit.
// A missing key yields zero.
type DurationConfig interface {
	// GetMillisecond reads key as a number of milliseconds.
	GetMillisecond(key string) time.Duration
	// GetSecond reads key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads key as a number of minutes.
	GetMinute(key string) time.Duration
}

// Config retrieves typed configuration values by dotted key.
//
// Lookups never fail; a missing or unconvertible key yields the zero value,
// so callers pick their own defaults.
type Config interface {
	io.Closer
	DurationConfig

	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetFloat64(key string) float64
	GetString(key string) string

	// GetArray reads key as a list. Both YAML sequences and comma separated
	// strings are accepted. Blank elements are dropped.
	GetArray(key string) []string
}

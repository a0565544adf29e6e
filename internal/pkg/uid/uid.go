// Package uid generates identifiers: time ordered UUIDs for entities and
// correlation ids, and snowflake numbers for monotonic sequencing.
package uid

import "github.com/google/uuid"

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// UUIDGenerator generates typed UUIDs.
type UUIDGenerator interface {
	GenerateUUID() uuid.UUID
}

// NumberID generates unique, monotonically increasing numbers.
type NumberID interface {
	Generate() int64
}

// Package clock provides a tiny time abstraction.
//
// Business code depends on Clocker instead of calling time.Now directly, so
// expiry rules can be exercised with a Frozen clock in tests.
package clock

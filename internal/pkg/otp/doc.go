// Package otp generates the secrets handed out with a session: an opaque
// URL-safe bearer token and a short numeric one-time passcode.
//
// Both draw from crypto/rand. Business code depends on the Generator
// interface so tests can inject deterministic values.
package otp

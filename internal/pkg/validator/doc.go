// Package validator provides a small validation abstraction for request and
// dependency structs, backed by go-playground/validator v10.
package validator

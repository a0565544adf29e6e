package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
)

const maxBodyBytes = 1 << 20 // 1MB

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// GetParam reads a path parameter from the request context (as stored by httprouter).
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// DecodeBody decodes a single JSON value into dst. Unknown fields are
// ignored. An empty body, malformed JSON or trailing data yield
// goerror.NewInvalidFormat; well formed JSON holding a value of the wrong
// type for a field yields goerror.NewInvalidInput.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	var typeErr *json.UnmarshalTypeError
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.As(err, &typeErr) {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	if typeErr != nil {
		return goerror.NewInvalidInput(typeErr)
	}

	return nil
}

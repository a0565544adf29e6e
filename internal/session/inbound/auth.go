package inbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/router"
)

type authSessionKey struct{}

// bearerGate stores the id of the session owning the bearer token in the
// request context.
func bearerGate(uc uc) router.Authenticator {
	return router.AuthenticatorFunc(func(ctx context.Context, token string) (context.Context, error) {
		id, err := uc.Authenticate(ctx, token)
		if err != nil {
			return ctx, err
		}
		return context.WithValue(ctx, authSessionKey{}, id), nil
	})
}

// authSessionID returns uuid.Nil when the request did not pass the gate.
func authSessionID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(authSessionKey{}).(uuid.UUID)
	return id
}

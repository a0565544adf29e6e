package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
)

// Authenticate resolves a bearer token to the id of the session it belongs
// to. It does not check expiry.
func (s *Usecase) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return uuid.Nil, errUnauthorized
	}

	ss, err := s.repoDB.GetSessionByToken(ctx, token)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "bearer token does not match any session")
		return uuid.Nil, errUnauthorized
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session by token", "error", err)
		return uuid.Nil, goerror.NewServer(err)
	}

	if ss.User.ID == uuid.Nil {
		slog.WarnContext(ctx, "session has no user", "session_id", ss.PrefixedID())
		return uuid.Nil, errUnauthorized
	}

	return ss.ID, nil
}

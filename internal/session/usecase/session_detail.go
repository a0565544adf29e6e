package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

type SessionDetailInput struct {
	SessionID     uuid.UUID
	AuthSessionID uuid.UUID
}

// SessionDetail returns the stored session as is. Expiry is not evaluated.
func (s *Usecase) SessionDetail(ctx context.Context, in SessionDetailInput) (*entity.Session, error) {
	ctx, span := s.startSpan(ctx, "SessionDetail")
	defer span.End()

	return s.ownedSession(ctx, in.SessionID, in.AuthSessionID)
}

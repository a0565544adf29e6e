package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/pkg/otp"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

type ConfirmSessionInput struct {
	SessionID uuid.UUID
	// AuthSessionID is the session resolved from the bearer token.
	AuthSessionID uuid.UUID
	OTPCode       string
}

// ConfirmSession moves a pending session to confirmed when the right OTP is
// presented inside the confirmation window by the session's own token.
// Confirming twice inside the window succeeds both times.
func (s *Usecase) ConfirmSession(ctx context.Context, in ConfirmSessionInput) (*entity.Session, error) {
	ctx, span := s.startSpan(ctx, "ConfirmSession")
	defer span.End()

	ss, err := s.ownedSession(ctx, in.SessionID, in.AuthSessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !s.policy.WithinConfirmWindow(now, *ss) {
		if _, err := s.expire(ctx, ss, now); err != nil {
			return nil, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "session confirmation window elapsed", "session_id", ss.PrefixedID(), "status", ss.Status.String())
		return nil, errSessionExpired
	}

	if ss.Status == entity.SessionStatusExpired {
		return nil, errSessionExpired
	}

	if !otp.Equal(ss.OTPCode, in.OTPCode) {
		slog.WarnContext(ctx, "session otp code mismatch", "session_id", ss.PrefixedID())
		return nil, errInvalidOTPCode
	}

	if ss.Status == entity.SessionStatusConfirmed {
		return ss, nil
	}

	err = s.repoDB.UpdateSessionStatus(ctx, ss.ID, entity.SessionStatusPending, entity.SessionStatusConfirmed, now)
	if errors.Is(err, goerror.ErrConflict) {
		return s.settled(ctx, ss.ID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update session status", "session_id", ss.PrefixedID(), "to", entity.SessionStatusConfirmed.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	ss.Status = entity.SessionStatusConfirmed
	ss.UpdatedAt = now
	s.publish(ctx, "session.confirmed", s.repoMessaging.PublishSessionConfirmed, SessionEvent{Session: *ss, OccurredAt: now})

	return ss, nil
}

// settled answers a confirmation that lost a race against another status
// write by the status that write left behind.
func (s *Usecase) settled(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	fresh, err := s.repoDB.GetSessionByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session by id after conflict", "session_id", entity.FormatID(entity.PrefixSession, id), "error", err)
		return nil, goerror.NewServer(err)
	}

	switch fresh.Status {
	case entity.SessionStatusConfirmed:
		return fresh, nil
	case entity.SessionStatusExpired:
		return nil, errSessionExpired
	default:
		slog.ErrorContext(ctx, "session status conflict without transition", "session_id", fresh.PrefixedID(), "status", fresh.Status.String())
		return nil, goerror.NewServer(goerror.ErrConflict)
	}
}

// ownedSession loads id and checks it is the session the caller
// authenticated with. A mismatch is reported as not found so a token cannot
// probe for other sessions.
func (s *Usecase) ownedSession(ctx context.Context, id, authID uuid.UUID) (*entity.Session, error) {
	ss, err := s.repoDB.GetSessionByID(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "session not found", "session_id", entity.FormatID(entity.PrefixSession, id))
		return nil, errSessionNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session by id", "session_id", entity.FormatID(entity.PrefixSession, id), "error", err)
		return nil, goerror.NewServer(err)
	}

	if authID == uuid.Nil || ss.ID != authID {
		slog.WarnContext(ctx, "session accessed with a foreign token",
			"session_id", ss.PrefixedID(),
			"auth_session_id", entity.FormatID(entity.PrefixSession, authID),
		)
		return nil, errSessionNotFound
	}

	return ss, nil
}

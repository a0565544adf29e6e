package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

const maxConflictRetries = 3

func conflictBackoff() retry.Backoff {
	return retry.WithMaxRetries(maxConflictRetries, retry.NewExponential(5*time.Millisecond))
}

// retryOnConflict turns goerror.ErrConflict into a retryable error.
func retryOnConflict(err error) error {
	if errors.Is(err, goerror.ErrConflict) {
		return retry.RetryableError(err)
	}
	return err
}

// resolveUser returns the user owning email, creating it on first sight.
// A concurrent insert of the same email loses the unique constraint, re-reads
// the winner and reports it as not new.
func (s *Usecase) resolveUser(ctx context.Context, email string) (user *entity.User, created bool, err error) {
	err = retry.Do(ctx, conflictBackoff(), func(ctx context.Context) error {
		found, err := s.repoDB.GetUserByEmail(ctx, email)
		if err == nil {
			user, created = found, false
			return nil
		}
		if !errors.Is(err, goerror.ErrNotFound) {
			return err
		}

		nu := entity.User{ID: s.uuid.GenerateUUID(), Email: email, CreatedAt: s.clock.Now()}
		if err := s.repoDB.CreateUser(ctx, nu); err != nil {
			return retryOnConflict(err)
		}
		user, created = &nu, true
		return nil
	})
	return user, created, err
}

// resolveDevice returns the device with natural key (owner, kind, vendor),
// creating it when missing, with the same conflict handling as resolveUser.
func (s *Usecase) resolveDevice(ctx context.Context, ownerID uuid.UUID, kind entity.DeviceKind, vendorID *uuid.UUID) (device *entity.Device, created bool, err error) {
	err = retry.Do(ctx, conflictBackoff(), func(ctx context.Context) error {
		found, err := s.repoDB.GetDevice(ctx, ownerID, kind, vendorID)
		if err == nil {
			device, created = found, false
			return nil
		}
		if !errors.Is(err, goerror.ErrNotFound) {
			return err
		}

		owner := ownerID
		nd := entity.Device{
			ID:        s.uuid.GenerateUUID(),
			OwnerID:   &owner,
			VendorID:  vendorID,
			Kind:      kind,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repoDB.CreateDevice(ctx, nd); err != nil {
			return retryOnConflict(err)
		}
		device, created = &nd, true
		return nil
	})
	return device, created, err
}

// lockPair serializes obtain calls for one (user, device). When the lock
// cannot be taken the caller proceeds unlocked.
func (s *Usecase) lockPair(ctx context.Context, userID, deviceID uuid.UUID) func() {
	key := "session:pair:" + userID.String() + ":" + deviceID.String()

	release, err := s.locker.Lock(ctx, key, s.lockTTL)
	if err != nil {
		slog.WarnContext(ctx, "failed to acquire session pair lock, continuing unlocked", "lock_key", key, "error", err)
		return func() {}
	}

	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "failed to release session pair lock", "lock_key", key, "error", err)
		}
	}
}

// expire moves a pending session to expired. It reports whether this call
// made the write; a session whose status already moved on is left alone.
func (s *Usecase) expire(ctx context.Context, ss *entity.Session, now time.Time) (bool, error) {
	if ss.Status != entity.SessionStatusPending {
		return false, nil
	}

	err := s.repoDB.UpdateSessionStatus(ctx, ss.ID, entity.SessionStatusPending, entity.SessionStatusExpired, now)
	if errors.Is(err, goerror.ErrConflict) {
		slog.InfoContext(ctx, "session status changed before expiry", "session_id", ss.PrefixedID())
		return false, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update session status", "session_id", ss.PrefixedID(), "to", entity.SessionStatusExpired.String(), "error", err)
		return false, err
	}

	ss.Status = entity.SessionStatusExpired
	ss.UpdatedAt = now
	s.publish(ctx, "session.expired", s.repoMessaging.PublishSessionExpired, SessionEvent{Session: *ss, OccurredAt: now})
	return true, nil
}

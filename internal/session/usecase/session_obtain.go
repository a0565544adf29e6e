package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

type ObtainSessionInput struct {
	Email      string `validate:"required,notblank,max=254"`
	DeviceKind string `validate:"required,oneof=mobi othr"`
	VendorID   string `validate:"required_if=DeviceKind mobi"`
}

type ObtainSessionOutput struct {
	Session entity.Session
	// Created is false when an existing session was handed out again.
	Created bool
}

// ObtainSession returns the live session of the (user, device) pair, or
// mints a new pending one when none is reusable. Users and devices are
// created on first sight.
func (s *Usecase) ObtainSession(ctx context.Context, in ObtainSessionInput) (*ObtainSessionOutput, error) {
	ctx, span := s.startSpan(ctx, "ObtainSession")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.VendorID = strings.TrimSpace(in.VendorID)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	kind := entity.DeviceKind(in.DeviceKind)
	var vendorID *uuid.UUID
	if kind == entity.DeviceKindMobile {
		id, err := uuid.Parse(in.VendorID)
		if err != nil {
			return nil, goerror.NewInvalidInput(err)
		}
		vendorID = &id
	}

	user, isNewUser, err := s.resolveUser(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve user by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	device, isNewDevice, err := s.resolveDevice(ctx, user.ID, kind, vendorID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve device", "user_id", user.PrefixedID(), "device_type", kind.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	unlock := s.lockPair(ctx, user.ID, device.ID)
	defer unlock()

	now := s.clock.Now()

	latest, err := s.repoDB.GetLatestSession(ctx, user.ID, device.ID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get latest session", "user_id", user.PrefixedID(), "device_id", device.PrefixedID(), "error", err)
		return nil, goerror.NewServer(err)
	}

	if latest != nil {
		if s.policy.Reusable(now, *latest) {
			s.emitOTP(ctx, latest, false)
			return &ObtainSessionOutput{Session: *latest, Created: false}, nil
		}

		if _, err := s.expire(ctx, latest, now); err != nil {
			return nil, goerror.NewServer(err)
		}
	}

	ss, err := s.createSession(ctx, *user, *device, isNewUser, isNewDevice, now)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	s.emitOTP(ctx, ss, true)
	s.publish(ctx, "session.created", s.repoMessaging.PublishSessionCreated, SessionEvent{Session: *ss, OccurredAt: now})

	return &ObtainSessionOutput{Session: *ss, Created: true}, nil
}

// createSession inserts a pending session, drawing a fresh token when the
// previous one collided.
func (s *Usecase) createSession(ctx context.Context, user entity.User, device entity.Device, isNewUser, isNewDevice bool, now time.Time) (*entity.Session, error) {
	code, err := s.secret.Code()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, err
	}

	ns := entity.NewSession{
		ID:          s.uuid.GenerateUUID(),
		Seq:         s.seq.Generate(),
		OTPCode:     code,
		IsNewUser:   isNewUser,
		IsNewDevice: isNewDevice,
		UserID:      user.ID,
		DeviceID:    device.ID,
		CreatedAt:   now,
	}

	err = retry.Do(ctx, conflictBackoff(), func(ctx context.Context) error {
		token, err := s.secret.Token()
		if err != nil {
			return err
		}
		ns.Token = token
		return retryOnConflict(s.repoDB.CreateSession(ctx, ns))
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create session", "user_id", user.PrefixedID(), "device_id", device.PrefixedID(), "error", err)
		return nil, err
	}

	return &entity.Session{
		ID:          ns.ID,
		Seq:         ns.Seq,
		Token:       ns.Token,
		OTPCode:     ns.OTPCode,
		Status:      entity.SessionStatusPending,
		IsNewUser:   ns.IsNewUser,
		IsNewDevice: ns.IsNewDevice,
		User:        user,
		Device:      device,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

package db

import (
	"context"

	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

func (s *DB) CreateUser(ctx context.Context, in entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO session_users (id, email, created_at) VALUES ($1, $2, $3)`,
		in.ID, in.Email, in.CreatedAt,
	)
	return s.mapError(err)
}

func (s *DB) CreateDevice(ctx context.Context, in entity.Device) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDevice")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO session_devices (id, user_id, vendor_id, kind, created_at) VALUES ($1, $2, $3, $4, $5)`,
		in.ID, in.OwnerID, in.VendorID, in.Kind, in.CreatedAt,
	)
	return s.mapError(err)
}

func (s *DB) CreateSession(ctx context.Context, in entity.NewSession) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO session_sessions
			(id, seq, token, otp_code, status, is_new_user, is_new_device, user_id, device_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		in.ID, in.Seq, in.Token, in.OTPCode, entity.SessionStatusPending,
		in.IsNewUser, in.IsNewDevice, in.UserID, in.DeviceID, in.CreatedAt,
	)
	return s.mapError(err)
}

package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

const selectSession = `
SELECT s.id, s.seq, s.token, s.otp_code, s.status, s.is_new_user, s.is_new_device,
       s.created_at, s.updated_at,
       u.id, u.email, u.created_at,
       d.id, d.user_id, d.vendor_id, d.kind, d.created_at
FROM session_sessions s
JOIN session_users u ON u.id = s.user_id
JOIN session_devices d ON d.id = s.device_id
`

func scanSession(row pgx.Row) (*entity.Session, error) {
	var ss entity.Session
	if err := row.Scan(
		&ss.ID, &ss.Seq, &ss.Token, &ss.OTPCode, &ss.Status, &ss.IsNewUser, &ss.IsNewDevice,
		&ss.CreatedAt, &ss.UpdatedAt,
		&ss.User.ID, &ss.User.Email, &ss.User.CreatedAt,
		&ss.Device.ID, &ss.Device.OwnerID, &ss.Device.VendorID, &ss.Device.Kind, &ss.Device.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ss, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.conn.QueryRow(ctx,
		`SELECT id, email, created_at FROM session_users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

// GetDevice matches a null vendor_id against a nil vendorID.
func (s *DB) GetDevice(ctx context.Context, ownerID uuid.UUID, kind entity.DeviceKind, vendorID *uuid.UUID) (_ *entity.Device, err error) {
	ctx, span := s.startSpan(ctx, "GetDevice")
	defer func() { s.endSpan(span, err) }()

	var d entity.Device
	err = s.conn.QueryRow(ctx,
		`SELECT id, user_id, vendor_id, kind, created_at
		FROM session_devices
		WHERE user_id = $1 AND kind = $2 AND vendor_id IS NOT DISTINCT FROM $3`,
		ownerID, kind, vendorID,
	).Scan(&d.ID, &d.OwnerID, &d.VendorID, &d.Kind, &d.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &d, nil
}

func (s *DB) GetLatestSession(ctx context.Context, userID, deviceID uuid.UUID) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestSession")
	defer func() { s.endSpan(span, err) }()

	ss, err := scanSession(s.conn.QueryRow(ctx,
		selectSession+`WHERE s.user_id = $1 AND s.device_id = $2
		ORDER BY s.created_at DESC, s.seq DESC
		LIMIT 1`,
		userID, deviceID,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return ss, nil
}

func (s *DB) GetSessionByID(ctx context.Context, id uuid.UUID) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionByID")
	defer func() { s.endSpan(span, err) }()

	ss, err := scanSession(s.conn.QueryRow(ctx, selectSession+`WHERE s.id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return ss, nil
}

func (s *DB) GetSessionByToken(ctx context.Context, token string) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionByToken")
	defer func() { s.endSpan(span, err) }()

	ss, err := scanSession(s.conn.QueryRow(ctx, selectSession+`WHERE s.token = $1`, token))
	if err != nil {
		return nil, s.mapError(err)
	}

	return ss, nil
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
}

type Device struct {
	ID uuid.UUID
	// OwnerID is nil once the owning user is gone.
	OwnerID *uuid.UUID
	// VendorID is set for mobile devices only.
	VendorID  *uuid.UUID
	Kind      DeviceKind
	CreatedAt time.Time
}

// Session binds a user and a device with a bearer token and a one-time code.
// Token and OTPCode are written once at creation.
type Session struct {
	ID uuid.UUID
	// Seq breaks created_at ties when picking the latest session of a pair.
	Seq         int64
	Token       string
	OTPCode     string
	Status      SessionStatus
	IsNewUser   bool
	IsNewDevice bool
	User        User
	Device      Device
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSession is the insert payload for a session.
type NewSession struct {
	ID          uuid.UUID
	Seq         int64
	Token       string
	OTPCode     string
	IsNewUser   bool
	IsNewDevice bool
	UserID      uuid.UUID
	DeviceID    uuid.UUID
	CreatedAt   time.Time
}

package event

import "time"

const (
	SessionCreatedDestination   string = "session.created"
	SessionConfirmedDestination string = "session.confirmed"
	SessionExpiredDestination   string = "session.expired"
)

// SessionMessage is the payload of every session lifecycle event. It never
// carries the bearer token or the OTP code.
type SessionMessage struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	DeviceID    string    `json:"device_id"`
	DeviceType  string    `json:"device_type"`
	Status      string    `json:"status"`
	IsNewUser   bool      `json:"is_new_user"`
	IsNewDevice bool      `json:"is_new_device"`
	OccurredAt  time.Time `json:"occurred_at"`
}

package entity

import "time"

// Policy holds the durations that drive lazy expiry.
type Policy struct {
	// ReuseTTL bounds how long a non-mobile session may be handed out again.
	ReuseTTL time.Duration
	// PendingTTL bounds how long an unconfirmed non-mobile session may be reused.
	PendingTTL time.Duration
	// ConfirmWindow bounds how long after creation an OTP is accepted.
	ConfirmWindow time.Duration
}

// DefaultPolicy is 2h reuse, 5m pending reuse, 5m confirmation.
func DefaultPolicy() Policy {
	return Policy{
		ReuseTTL:      2 * time.Hour,
		PendingTTL:    5 * time.Minute,
		ConfirmWindow: 5 * time.Minute,
	}
}

// WithDefaults fills zero durations from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	def := DefaultPolicy()
	if p.ReuseTTL <= 0 {
		p.ReuseTTL = def.ReuseTTL
	}
	if p.PendingTTL <= 0 {
		p.PendingTTL = def.PendingTTL
	}
	if p.ConfirmWindow <= 0 {
		p.ConfirmWindow = def.ConfirmWindow
	}
	return p
}

// Reusable reports whether s may be returned again at now instead of minting
// a new session. Expired sessions never are; mobile sessions always are
// otherwise; other sessions must be within ReuseTTL and, while pending,
// within PendingTTL.
func (p Policy) Reusable(now time.Time, s Session) bool {
	if s.Status == SessionStatusExpired {
		return false
	}
	if s.Device.Kind == DeviceKindMobile {
		return true
	}

	elapsed := now.Sub(s.CreatedAt)
	if elapsed > p.ReuseTTL {
		return false
	}
	return s.Status != SessionStatusPending || elapsed <= p.PendingTTL
}

// WithinConfirmWindow reports whether an OTP for s is still accepted at now.
func (p Policy) WithinConfirmWindow(now time.Time, s Session) bool {
	return now.Sub(s.CreatedAt) <= p.ConfirmWindow
}

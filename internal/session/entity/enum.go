package entity

// DeviceKind classifies a device. Mobile devices are durable channels and
// carry a vendor id; everything else is "other".
type DeviceKind string

const (
	DeviceKindMobile DeviceKind = "mobi"
	DeviceKindOther  DeviceKind = "othr"
)

func (k DeviceKind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k DeviceKind) IsValid() bool {
	return k == DeviceKindMobile || k == DeviceKindOther
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	// SessionStatusPending mean the OTP has been issued but not yet confirmed.
	SessionStatusPending SessionStatus = "pending"

	// SessionStatusConfirmed mean the OTP was presented within the window. Terminal.
	SessionStatusConfirmed SessionStatus = "confirmed"

	// SessionStatusExpired mean the session can no longer be reused or confirmed. Terminal.
	SessionStatusExpired SessionStatus = "expired"
)

func (s SessionStatus) String() string {
	return string(s)
}

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusPending, SessionStatusConfirmed, SessionStatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusConfirmed || s == SessionStatusExpired
}

// CanTransition reports whether moving from s to next is a forward step.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	return s == SessionStatusPending && next.IsTerminal()
}

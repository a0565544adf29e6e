package entity

import (
	"testing"
	"time"
)

func TestPolicyReusable(t *testing.T) {
	p := DefaultPolicy()
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		kind    DeviceKind
		status  SessionStatus
		elapsed time.Duration
		want    bool
	}{
		{name: "other pending fresh", kind: DeviceKindOther, status: SessionStatusPending, elapsed: time.Minute, want: true},
		{name: "other pending at pending ttl", kind: DeviceKindOther, status: SessionStatusPending, elapsed: 5 * time.Minute, want: true},
		{name: "other pending stale", kind: DeviceKindOther, status: SessionStatusPending, elapsed: 5*time.Minute + time.Second, want: false},
		{name: "other confirmed within reuse", kind: DeviceKindOther, status: SessionStatusConfirmed, elapsed: 90 * time.Minute, want: true},
		{name: "other confirmed at reuse ttl", kind: DeviceKindOther, status: SessionStatusConfirmed, elapsed: 2 * time.Hour, want: true},
		{name: "other confirmed past reuse", kind: DeviceKindOther, status: SessionStatusConfirmed, elapsed: 2*time.Hour + time.Second, want: false},
		{name: "other expired", kind: DeviceKindOther, status: SessionStatusExpired, elapsed: 0, want: false},
		{name: "mobile pending far future", kind: DeviceKindMobile, status: SessionStatusPending, elapsed: 30 * 24 * time.Hour, want: true},
		{name: "mobile confirmed far future", kind: DeviceKindMobile, status: SessionStatusConfirmed, elapsed: 365 * 24 * time.Hour, want: true},
		{name: "mobile expired", kind: DeviceKindMobile, status: SessionStatusExpired, elapsed: time.Second, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{Status: tt.status, Device: Device{Kind: tt.kind}, CreatedAt: created}
			if got := p.Reusable(created.Add(tt.elapsed), s); got != tt.want {
				t.Fatalf("Reusable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicyConfirmWindow(t *testing.T) {
	p := DefaultPolicy()
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{CreatedAt: created, Device: Device{Kind: DeviceKindMobile}}

	if !p.WithinConfirmWindow(created.Add(5*time.Minute), s) {
		t.Fatalf("boundary must be inside the window")
	}
	if p.WithinConfirmWindow(created.Add(5*time.Minute+time.Nanosecond), s) {
		t.Fatalf("window applies to mobile sessions too")
	}
}

func TestPolicyWithDefaults(t *testing.T) {
	p := Policy{PendingTTL: time.Minute}.WithDefaults()
	if p.PendingTTL != time.Minute || p.ReuseTTL != 2*time.Hour || p.ConfirmWindow != 5*time.Minute {
		t.Fatalf("WithDefaults() = %+v", p)
	}
}

func TestSessionStatusTransitions(t *testing.T) {
	if !SessionStatusPending.CanTransition(SessionStatusConfirmed) || !SessionStatusPending.CanTransition(SessionStatusExpired) {
		t.Fatalf("pending must move to both terminal states")
	}
	for _, from := range []SessionStatus{SessionStatusConfirmed, SessionStatusExpired} {
		for _, to := range []SessionStatus{SessionStatusPending, SessionStatusConfirmed, SessionStatusExpired} {
			if from.CanTransition(to) {
				t.Fatalf("%s -> %s must be rejected", from, to)
			}
		}
	}
	if SessionStatusPending.CanTransition(SessionStatusPending) {
		t.Fatalf("pending -> pending is not a transition")
	}
	if SessionStatus("unknown").IsValid() || !DeviceKindOther.IsValid() || DeviceKind("tabl").IsValid() {
		t.Fatalf("validity checks are off")
	}
}

package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

func TestConfirmSession(t *testing.T) {
	ctx := context.Background()

	t.Run("correct code inside window", func(t *testing.T) {
		f := newFixture(t)
		ss := f.obtain(t, ObtainSessionInput{Email: "a@x.com", DeviceKind: "othr"}).Session

		f.clock.Advance(4 * time.Minute)
		got, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: "042917"})
		if err != nil {
			t.Fatalf("ConfirmSession: %v", err)
		}
		if got.Status != entity.SessionStatusConfirmed || f.stored(t, ss).Status != entity.SessionStatusConfirmed {
			t.Fatalf("status = %s", got.Status)
		}

		again, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: "042917"})
		if err != nil || again.Status != entity.SessionStatusConfirmed {
			t.Fatalf("second confirmation = %v %v", again, err)
		}

		if got := unordered(f.events(t)); got["confirmed"] != 1 {
			t.Fatalf("events = %v, want exactly one confirmation", got)
		}
	})

	t.Run("wrong code leaves pending and allows retry", func(t *testing.T) {
		f := newFixture(t)
		ss := f.obtain(t, ObtainSessionInput{Email: "a@x.com", DeviceKind: "othr"}).Session

		for _, code := range []string{"000000", "", "0429170", "42917"} {
			_, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: code})
			assertBusiness(t, err, goerror.CodeInvalidInput, "Invalid OTP code")
		}
		if f.stored(t, ss).Status != entity.SessionStatusPending {
			t.Fatalf("mismatch changed status")
		}

		if _, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: "042917"}); err != nil {
			t.Fatalf("correct code after mismatches: %v", err)
		}
	})

	t.Run("window elapsed persists expiry", func(t *testing.T) {
		f := newFixture(t)
		ss := f.obtain(t, ObtainSessionInput{Email: "m@x.com", DeviceKind: "mobi", VendorID: uuid.NewString()}).Session

		f.clock.Advance(5*time.Minute + time.Second)
		_, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: "042917"})
		assertBusiness(t, err, goerror.CodeUnauthorized, "Session expired")

		if got := f.stored(t, ss); got.Status != entity.SessionStatusExpired || !got.UpdatedAt.Equal(f.clock.Now()) {
			t.Fatalf("stored = %+v", got)
		}

		_, err = f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: "042917"})
		assertBusiness(t, err, goerror.CodeUnauthorized, "Session expired")

		if got := unordered(f.events(t)); got["expired"] != 1 {
			t.Fatalf("events = %v, want a single expiry", got)
		}
	})

	t.Run("confirmed session past window stays confirmed", func(t *testing.T) {
		f := newFixture(t)
		ss := f.obtain(t, ObtainSessionInput{Email: "a@x.com", DeviceKind: "othr"}).Session
		if _, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: "042917"}); err != nil {
			t.Fatalf("confirm: %v", err)
		}

		f.clock.Advance(10 * time.Minute)
		_, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: "042917"})
		assertBusiness(t, err, goerror.CodeUnauthorized, "Session expired")
		if f.stored(t, ss).Status != entity.SessionStatusConfirmed {
			t.Fatalf("terminal status overwritten")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)
		id := uuid.New()
		_, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: id, AuthSessionID: id, OTPCode: "042917"})
		assertBusiness(t, err, goerror.CodeNotFound, "Session not found")
	})

	t.Run("foreign token", func(t *testing.T) {
		f := newFixture(t)
		target := f.obtain(t, ObtainSessionInput{Email: "a@x.com", DeviceKind: "othr"}).Session
		other := f.obtain(t, ObtainSessionInput{Email: "b@x.com", DeviceKind: "othr"}).Session

		_, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: target.ID, AuthSessionID: other.ID, OTPCode: "042917"})
		assertBusiness(t, err, goerror.CodeNotFound, "Session not found")

		f.clock.Advance(time.Hour)
		_, err = f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: target.ID, AuthSessionID: other.ID, OTPCode: "042917"})
		assertBusiness(t, err, goerror.CodeNotFound, "Session not found")
		if f.stored(t, target).Status != entity.SessionStatusPending {
			t.Fatalf("foreign token mutated the target")
		}
	})
}

// conflictingDB reports a lost compare-and-set on the first status write and
// lets the wrapped store decide the outcome.
type conflictingDB struct {
	repoDB
	settle func(id uuid.UUID)
}

func (c *conflictingDB) UpdateSessionStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, at time.Time) error {
	if c.settle != nil {
		settle := c.settle
		c.settle = nil
		settle(id)
		return goerror.ErrConflict
	}
	return c.repoDB.UpdateSessionStatus(ctx, id, from, to, at)
}

func TestConfirmSessionLostRace(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		winner  entity.SessionStatus
		wantErr bool
	}{
		{name: "concurrent confirmation", winner: entity.SessionStatusConfirmed},
		{name: "concurrent expiry", winner: entity.SessionStatusExpired, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ss := f.obtain(t, ObtainSessionInput{Email: "a@x.com", DeviceKind: "othr"}).Session

			f.uc.repoDB = &conflictingDB{repoDB: f.db, settle: func(id uuid.UUID) {
				if err := f.db.UpdateSessionStatus(ctx, id, entity.SessionStatusPending, tt.winner, f.clock.Now()); err != nil {
					t.Fatalf("settle: %v", err)
				}
			}}

			got, err := f.uc.ConfirmSession(ctx, ConfirmSessionInput{SessionID: ss.ID, AuthSessionID: ss.ID, OTPCode: "042917"})
			if tt.wantErr {
				assertBusiness(t, err, goerror.CodeUnauthorized, "Session expired")
				return
			}
			if err != nil || got.Status != entity.SessionStatusConfirmed {
				t.Fatalf("got %v %v", got, err)
			}
		})
	}
}

func TestSessionDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ss := f.obtain(t, ObtainSessionInput{Email: "a@x.com", DeviceKind: "othr"}).Session

	got, err := f.uc.SessionDetail(ctx, SessionDetailInput{SessionID: ss.ID, AuthSessionID: ss.ID})
	if err != nil || got.ID != ss.ID || got.User.Email != "a@x.com" {
		t.Fatalf("detail = %v %v", got, err)
	}

	f.clock.Advance(time.Hour)
	got, err = f.uc.SessionDetail(ctx, SessionDetailInput{SessionID: ss.ID, AuthSessionID: ss.ID})
	if err != nil || got.Status != entity.SessionStatusPending {
		t.Fatalf("detail must not evaluate expiry: %v %v", got, err)
	}

	_, err = f.uc.SessionDetail(ctx, SessionDetailInput{SessionID: ss.ID, AuthSessionID: uuid.New()})
	assertBusiness(t, err, goerror.CodeNotFound, "Session not found")
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ss := f.obtain(t, ObtainSessionInput{Email: "a@x.com", DeviceKind: "othr"}).Session

	id, err := f.uc.Authenticate(ctx, ss.Token)
	if err != nil || id != ss.ID {
		t.Fatalf("Authenticate = %s %v", id, err)
	}

	f.clock.Advance(24 * time.Hour)
	if id, err := f.uc.Authenticate(ctx, ss.Token); err != nil || id != ss.ID {
		t.Fatalf("gate must not check expiry: %s %v", id, err)
	}

	for _, token := range []string{"", "  ", "unknown"} {
		_, err := f.uc.Authenticate(ctx, token)
		assertBusiness(t, err, goerror.CodeUnauthorized, "Unauthorized")
	}
}

package memdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

func seed(t *testing.T, db *DB) (entity.User, entity.Device) {
	t.Helper()
	ctx := context.Background()

	u := entity.User{ID: uuid.New(), Email: "a@x.com", CreatedAt: time.Now()}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	d := entity.Device{ID: uuid.New(), OwnerID: &u.ID, Kind: entity.DeviceKindOther, CreatedAt: time.Now()}
	if err := db.CreateDevice(ctx, d); err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	return u, d
}

func TestIdentityConflicts(t *testing.T) {
	ctx := context.Background()
	db := New()
	u, d := seed(t, db)

	if err := db.CreateUser(ctx, entity.User{ID: uuid.New(), Email: u.Email}); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("duplicate email error = %v", err)
	}
	if err := db.CreateDevice(ctx, entity.Device{ID: uuid.New(), OwnerID: &u.ID, Kind: entity.DeviceKindOther}); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("duplicate device error = %v", err)
	}

	vendor := uuid.New()
	mobile := entity.Device{ID: uuid.New(), OwnerID: &u.ID, VendorID: &vendor, Kind: entity.DeviceKindMobile}
	if err := db.CreateDevice(ctx, mobile); err != nil {
		t.Fatalf("mobile device: %v", err)
	}

	got, err := db.GetDevice(ctx, u.ID, entity.DeviceKindOther, nil)
	if err != nil || got.ID != d.ID {
		t.Fatalf("GetDevice other = %v %v", got, err)
	}
	got, err = db.GetDevice(ctx, u.ID, entity.DeviceKindMobile, &vendor)
	if err != nil || got.ID != mobile.ID {
		t.Fatalf("GetDevice mobile = %v %v", got, err)
	}
	other := uuid.New()
	if _, err := db.GetDevice(ctx, u.ID, entity.DeviceKindMobile, &other); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("unknown vendor error = %v", err)
	}
	if _, err := db.GetUserByEmail(ctx, "nobody@x.com"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("unknown email error = %v", err)
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	db := New()
	u, d := seed(t, db)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := entity.NewSession{ID: uuid.New(), Seq: 1, Token: "t1", OTPCode: "000001", UserID: u.ID, DeviceID: d.ID, CreatedAt: at}
	second := entity.NewSession{ID: uuid.New(), Seq: 2, Token: "t2", OTPCode: "000002", UserID: u.ID, DeviceID: d.ID, CreatedAt: at}
	for _, ns := range []entity.NewSession{first, second} {
		if err := db.CreateSession(ctx, ns); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	dup := first
	dup.ID = uuid.New()
	if err := db.CreateSession(ctx, dup); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("token collision error = %v", err)
	}

	latest, err := db.GetLatestSession(ctx, u.ID, d.ID)
	if err != nil || latest.ID != second.ID {
		t.Fatalf("latest = %v %v, want seq tie-break to second", latest, err)
	}
	if latest.User.Email != u.Email || latest.Device.ID != d.ID || latest.Status != entity.SessionStatusPending {
		t.Fatalf("latest not assembled: %+v", latest)
	}

	byToken, err := db.GetSessionByToken(ctx, "t1")
	if err != nil || byToken.ID != first.ID {
		t.Fatalf("by token = %v %v", byToken, err)
	}

	if err := db.UpdateSessionStatus(ctx, first.ID, entity.SessionStatusPending, entity.SessionStatusConfirmed, at.Add(time.Minute)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := db.UpdateSessionStatus(ctx, first.ID, entity.SessionStatusPending, entity.SessionStatusExpired, at.Add(time.Hour)); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("terminal overwrite error = %v", err)
	}

	got, err := db.GetSessionByID(ctx, first.ID)
	if err != nil || got.Status != entity.SessionStatusConfirmed || !got.UpdatedAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("by id = %+v %v", got, err)
	}
	if _, err := db.GetSessionByID(ctx, uuid.New()); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("unknown id error = %v", err)
	}
}

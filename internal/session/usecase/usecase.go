package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/clock"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpsession/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsession/internal/pkg/lock"
	"github.com/shandysiswandi/otpsession/internal/pkg/otp"
	"github.com/shandysiswandi/otpsession/internal/pkg/uid"
	"github.com/shandysiswandi/otpsession/internal/pkg/validator"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
	"go.opentelemetry.io/otel/trace"
)

const defaultLockTTL = 10 * time.Second

var (
	errUnauthorized    = goerror.NewBusiness("Unauthorized", goerror.CodeUnauthorized)
	errSessionNotFound = goerror.NewBusiness("Session not found", goerror.CodeNotFound)
	errSessionExpired  = goerror.NewBusiness("Session expired", goerror.CodeUnauthorized)
	errInvalidOTPCode  = goerror.NewBusiness("Invalid OTP code", goerror.CodeInvalidInput)
)

// SessionEvent is handed to the publisher after a lifecycle transition.
type SessionEvent struct {
	Session    entity.Session
	OccurredAt time.Time
}

type repoMessaging interface {
	PublishSessionCreated(ctx context.Context, ev SessionEvent) error
	PublishSessionConfirmed(ctx context.Context, ev SessionEvent) error
	PublishSessionExpired(ctx context.Context, ev SessionEvent) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetDevice(ctx context.Context, ownerID uuid.UUID, kind entity.DeviceKind, vendorID *uuid.UUID) (*entity.Device, error)
	GetLatestSession(ctx context.Context, userID, deviceID uuid.UUID) (*entity.Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*entity.Session, error)

	CreateUser(ctx context.Context, in entity.User) error
	CreateDevice(ctx context.Context, in entity.Device) error
	CreateSession(ctx context.Context, in entity.NewSession) error

	UpdateSessionStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, at time.Time) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	locker        lock.Locker
	validator     validator.Validator
	clock         clock.Clocker
	uuid          uid.UUIDGenerator
	seq           uid.NumberID
	secret        otp.Generator
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
	policy        entity.Policy
	lockTTL       time.Duration
	logOTP        bool
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Locker        lock.Locker
	Validator     validator.Validator
	Clock         clock.Clocker
	UUID          uid.UUIDGenerator
	Seq           uid.NumberID
	Secret        otp.Generator
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
	Policy        entity.Policy
	// LockTTL is the lease of the pair lock. Zero means 10s.
	LockTTL time.Duration
	// LogOTP writes every issued or reused OTP code to the log, which is the
	// only delivery channel this service has.
	LogOTP bool
}

func New(dep Dependency) *Usecase {
	if dep.Locker == nil {
		dep.Locker = lock.Noop{}
	}
	if dep.RepoMessaging == nil {
		dep.RepoMessaging = noopMessaging{}
	}
	if dep.LockTTL <= 0 {
		dep.LockTTL = defaultLockTTL
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		locker:        dep.Locker,
		validator:     dep.Validator,
		clock:         dep.Clock,
		uuid:          dep.UUID,
		seq:           dep.Seq,
		secret:        dep.Secret,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		policy:        dep.Policy.WithDefaults(),
		lockTTL:       dep.LockTTL,
		logOTP:        dep.LogOTP,
	}
}

type noopMessaging struct{}

func (noopMessaging) PublishSessionCreated(context.Context, SessionEvent) error   { return nil }
func (noopMessaging) PublishSessionConfirmed(context.Context, SessionEvent) error { return nil }
func (noopMessaging) PublishSessionExpired(context.Context, SessionEvent) error   { return nil }

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("session.usecase").Start(ctx, name)
}

// publish hands the event to the goroutine manager so a slow or broken
// broker never fails the request.
func (s *Usecase) publish(ctx context.Context, name string, fn func(context.Context, SessionEvent) error, ev SessionEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := fn(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish session event", "event", name, "session_id", ev.Session.PrefixedID(), "error", err)
			return err
		}
		return nil
	})
}

func (s *Usecase) emitOTP(ctx context.Context, ss *entity.Session, created bool) {
	if !s.logOTP {
		return
	}

	slog.InfoContext(ctx, "session otp code",
		"session_id", ss.PrefixedID(),
		"device_type", ss.Device.Kind.String(),
		"created", created,
		"code", ss.OTPCode,
	)
}

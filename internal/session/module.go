package session

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpsession/internal/pkg/clock"
	"github.com/shandysiswandi/otpsession/internal/pkg/config"
	"github.com/shandysiswandi/otpsession/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpsession/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsession/internal/pkg/lock"
	"github.com/shandysiswandi/otpsession/internal/pkg/messaging"
	"github.com/shandysiswandi/otpsession/internal/pkg/otp"
	"github.com/shandysiswandi/otpsession/internal/pkg/router"
	"github.com/shandysiswandi/otpsession/internal/pkg/uid"
	"github.com/shandysiswandi/otpsession/internal/pkg/validator"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
	"github.com/shandysiswandi/otpsession/internal/session/inbound"
	"github.com/shandysiswandi/otpsession/internal/session/outbound/db"
	"github.com/shandysiswandi/otpsession/internal/session/outbound/memdb"
	"github.com/shandysiswandi/otpsession/internal/session/outbound/mq"
	"github.com/shandysiswandi/otpsession/internal/session/usecase"
)

// ErrDBConnRequired is returned when the postgres driver is selected without a pool.
var ErrDBConnRequired = errors.New("session: postgres driver needs a db connection")

type Dependency struct {
	// DBConn is nil when database.driver is memory.
	DBConn     *pgxpool.Pool
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Locker     lock.Locker                `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.UUIDGenerator          `validate:"required"`
	Seq        uid.NumberID               `validate:"required"`
	Secret     otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Locker:        dep.Locker,
		Validator:     dep.Validator,
		Clock:         dep.Clock,
		UUID:          dep.UUID,
		Seq:           dep.Seq,
		Secret:        dep.Secret,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
		Policy: entity.Policy{
			ReuseTTL:      dep.Config.GetMinute("modules.session.reuse_ttl_minutes"),
			PendingTTL:    dep.Config.GetMinute("modules.session.pending_ttl_minutes"),
			ConfirmWindow: dep.Config.GetMinute("modules.session.confirm_window_minutes"),
		},
		LockTTL: dep.Config.GetSecond("modules.session.lock_ttl_seconds"),
		LogOTP:  dep.Config.GetBool("modules.session.log_otp"),
	}

	switch strings.TrimSpace(dep.Config.GetString("database.driver")) {
	case "memory":
		ucDep.RepoDB = memdb.New()
	default:
		if dep.DBConn == nil {
			return ErrDBConnRequired
		}
		ucDep.RepoDB = db.NewDB(dep.DBConn, dep.Instrument)
	}

	uc := usecase.New(ucDep)
	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

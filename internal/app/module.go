package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpsession/internal/session"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.session.enabled") {
		if err := session.New(session.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Locker:     a.locker,
			Goroutine:  a.goroutine,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Seq:        a.seq,
			Secret:     a.secret,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module session", "error", err)
			os.Exit(1)
		}
	}
}

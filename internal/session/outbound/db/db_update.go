package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

// UpdateSessionStatus moves the session from one status to another. When the
// stored status is no longer from, nothing is written and
// goerror.ErrConflict is returned.
func (s *DB) UpdateSessionStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateSessionStatus")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE session_sessions SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, from, to, at,
	)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}

	return nil
}

// Package migrate applies embedded SQL migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ErrDSNRequired is returned when no database URL is configured.
var ErrDSNRequired = errors.New("migrate: database url is required")

// Up applies every pending migration found in dir of fsys. An up to date
// schema is not an error.
func Up(fsys fs.FS, dir, dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return ErrDSNRequired
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, DriverURL(dsn))
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// DriverURL rewrites a postgres:// or postgresql:// URL to the pgx5:// scheme
// the golang-migrate pgx driver registers under.
func DriverURL(dsn string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

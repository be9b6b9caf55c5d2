package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Source selects where migration files are read from. Dir wins over FS.
type Source struct {
	Dir string
	FS  fs.FS
}

func (s Source) driver() (source.Driver, error) {
	fsys := s.FS
	if s.Dir != "" {
		fsys = os.DirFS(s.Dir)
	}
	if fsys == nil {
		return nil, errors.New("migration source has neither a directory nor an embedded filesystem")
	}
	d, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	return d, nil
}

// Migrator applies the PostgreSQL schema with golang-migrate
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New builds a Migrator on an open PostgreSQL connection. Close releases
// db as well.
func New(db *sql.DB, src Source, logger *zap.Logger) (*Migrator, error) {
	files, err := src.driver()
	if err != nil {
		return nil, err
	}
	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = files.Close()
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", files, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

func (m *Migrator) Up() error   { return m.apply("up", m.m.Up) }
func (m *Migrator) Down() error { return m.apply("down", m.m.Down) }

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("step %+d", n), func() error { return m.m.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.m.Migrate(version) })
}

func (m *Migrator) apply(op string, fn func() error) error {
	from, _, err := m.Version()
	if err != nil {
		return err
	}
	start := time.Now()

	err = fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema unchanged", zap.String("op", op), zap.Uint("version", from))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	to, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migrations applied",
		zap.String("op", op),
		zap.Uint("from", from),
		zap.Uint("to", to),
		zap.Bool("dirty", dirty),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Version returns the applied version; zero when nothing has run
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version without running anything; it clears a dirty flag
// left by a failed migration
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Status is one migration annotated against the database version
type Status struct {
	Migration
	Applied bool
	// Dirty marks the version a failed run stopped at
	Dirty bool
}

// Annotate marks every migration at or below current as applied
func Annotate(list []Migration, current uint, dirty bool) []Status {
	out := make([]Status, len(list))
	for i, mig := range list {
		out[i] = Status{
			Migration: mig,
			Applied:   mig.Version <= current,
			Dirty:     dirty && mig.Version == current,
		}
	}
	return out
}

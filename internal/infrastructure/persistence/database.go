package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/foodontracks/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultConnectTimeout = 10 * time.Second

// Database owns the GORM handle and its connection pool
type Database struct {
	DB     *gorm.DB
	Driver string
}

type openOptions struct {
	logger         gormlogger.Interface
	connectTimeout time.Duration
}

// OpenOption configures Open
type OpenOption func(*openOptions)

// WithGormLogger replaces the silent default
func WithGormLogger(l gormlogger.Interface) OpenOption {
	return func(o *openOptions) { o.logger = l }
}

// WithConnectTimeout bounds the initial ping
func WithConnectTimeout(d time.Duration) OpenOption {
	return func(o *openOptions) { o.connectTimeout = d }
}

// Open connects, sizes the pool and pings once so a bad DSN fails at startup
func Open(ctx context.Context, cfg config.DatabaseConfig, opts ...OpenOption) (*Database, error) {
	o := openOptions{
		logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		connectTimeout: defaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &Database{DB: db, Driver: dialector.Name()}
	pingCtx, cancel := context.WithTimeout(ctx, o.connectTimeout)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return d, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(SQLiteDSN(cfg.SQLitePath)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLiteDSN turns on foreign keys and a busy timeout, and makes write
// transactions take the lock at BEGIN so two claims serialize instead of
// failing on lock upgrade
func SQLiteDSN(path string) string {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// AutoMigrate builds the schema from the models. SQLite only; PostgreSQL
// runs the SQL migrations.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(models.All()...)
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

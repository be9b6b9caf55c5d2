// Package integration runs the FoodONtracks HTTP stack against a real
// PostgreSQL started with testcontainers. Every test is skipped under -short.
package integration

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/foodontracks/backend/internal/infrastructure/migration"
	"github.com/foodontracks/backend/internal/infrastructure/persistence"
	"github.com/foodontracks/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// postgres is started by the first test that needs it and shared by the
// rest of the package; tests get a clean schema through truncation
var postgres struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	cfg       config.DatabaseConfig
	err       error
}

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()
	if postgres.container != nil {
		if err := postgres.container.Terminate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "terminate postgres container: %v\n", err)
		}
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (config.DatabaseConfig, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("foodontracks_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("start postgres: %w", err)
	}
	postgres.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	cfg, err := databaseConfig(dsn)
	if err != nil {
		return config.DatabaseConfig{}, err
	}

	db, err := persistence.Open(ctx, cfg)
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	defer db.Close()
	sqlDB, err := db.DB.DB()
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	m, err := migration.New(sqlDB, migration.Source{FS: migrations.FS}, zap.NewNop())
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	if err := m.Up(); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("migrate: %w", err)
	}
	return cfg, nil
}

// databaseConfig splits the container URL back into the server settings
func databaseConfig(dsn string) (config.DatabaseConfig, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("container port: %w", err)
	}
	password, _ := u.User.Password()
	return config.DatabaseConfig{
		Driver:       "postgres",
		Host:         u.Hostname(),
		Port:         port,
		User:         u.User.Username(),
		Password:     password,
		DBName:       strings.TrimPrefix(u.Path, "/"),
		SSLMode:      "disable",
		MaxOpenConns: 20, // the concurrency tests fire 20 requests at once
		MaxIdleConns: 5,
	}, nil
}

// TestDB is a connection to the shared, migrated database
type TestDB struct {
	*persistence.Database
	t *testing.T
}

// NewTestDB connects to the shared container and empties every table
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	postgres.once.Do(func() {
		postgres.cfg, postgres.err = startPostgres(context.Background())
	})
	require.NoError(t, postgres.err, "PostgreSQL container unavailable")

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := persistence.Open(t.Context(), postgres.cfg,
		persistence.WithGormLogger(gormlogger.Default.LogMode(level)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tdb := &TestDB{Database: db, t: t}
	tdb.truncate()
	return tdb
}

func (tdb *TestDB) truncate() {
	tdb.t.Helper()
	var tables []string
	require.NoError(tdb.t, tdb.DB.Raw(`
		SELECT quote_ident(tablename) FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'
	`).Scan(&tables).Error)
	if len(tables) == 0 {
		return
	}
	require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE").Error)
}

// Count returns the number of rows in table matching where
func (tdb *TestDB) Count(table, where string, args ...any) int64 {
	tdb.t.Helper()
	var n int64
	require.NoError(tdb.t, tdb.DB.Table(table).Where(where, args...).Count(&n).Error)
	return n
}

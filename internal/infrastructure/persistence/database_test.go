package persistence

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	appordering "github.com/foodontracks/backend/internal/application/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB, Driver: "postgres"}, mock, mockDB
}

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(t.Context(), config.DatabaseConfig{
		Driver:          "sqlite",
		SQLitePath:      "file:open_test?mode=memory&cache=shared",
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, "sqlite", db.Driver)
	require.NoError(t, db.AutoMigrate())
	assert.True(t, db.DB.Migrator().HasTable("orders"))

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 2, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(t.Context(), config.DatabaseConfig{Driver: "mongodb"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestDatabase_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// GORM may ping during Open
	mock.ExpectPing()
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	db := &Database{DB: gormDB}

	mock.ExpectPing()
	assert.NoError(t, db.Ping(t.Context()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, db.Ping(t.Context()))
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty uses shared memory", "", "file::memory:?cache=shared&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"},
		{"plain file", "foodontracks.db", "foodontracks.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"},
		{"existing query", "file:test?mode=memory", "file:test?mode=memory&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SQLiteDSN(tt.path))
		})
	}
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(config.DatabaseConfig{Driver: "sqlite", SQLitePath: "x.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = dialectorFor(config.DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = dialectorFor(config.DatabaseConfig{Driver: "mongodb"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError("op", nil))
	assert.ErrorIs(t, translateError("op", gorm.ErrRecordNotFound), shared.ErrNotFound)
	assert.ErrorIs(t, translateError("op", gorm.ErrDuplicatedKey), shared.ErrAlreadyExists)

	var domainErr *shared.DomainError
	require.ErrorAs(t, translateError("op", gorm.ErrForeignKeyViolated), &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	require.ErrorAs(t, translateError("op", gorm.ErrCheckConstraintViolated), &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)

	cause := errors.New("connection reset by peer")
	var persistErr *shared.PersistenceError
	require.ErrorAs(t, translateError("order.update", cause), &persistErr)
	assert.Equal(t, "order.update", persistErr.Op)
	assert.ErrorIs(t, persistErr, cause)
}

func TestGormTransactionScope_Execute(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		scope := NewGormTransactionScope(db.DB)
		orderID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET .*WHERE \(id = \$\d+ AND delivery_agent_id IS NULL AND status IN`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		var claimed bool
		err := scope.Execute(t.Context(), func(repos appordering.TransactionalRepositories) error {
			var err error
			claimed, err = repos.Orders().ClaimForAgent(t.Context(), orderID, uuid.New())
			return err
		})
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		scope := NewGormTransactionScope(db.DB)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := scope.Execute(t.Context(), func(repos appordering.TransactionalRepositories) error {
			assert.NotNil(t, repos.Users())
			assert.NotNil(t, repos.Batches())
			return shared.ErrInsufficientStock
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure becomes a persistence error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		scope := NewGormTransactionScope(db.DB)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := scope.Execute(t.Context(), func(appordering.TransactionalRepositories) error { return nil })
		var persistErr *shared.PersistenceError
		assert.ErrorAs(t, err, &persistErr)
	})
}

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// startPostgresContainer starts a disposable PostgreSQL. testcontainers panics
// when no Docker daemon is reachable, so the panic is returned as an error.
func startPostgresContainer(ctx context.Context) (container *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker unavailable: %v", r)
		}
	}()

	return postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
}

// TestMain sets up the test database before running tests.
// PostgreSQL tests run against TEST_DB_HOST when set, or against a container
// when TEST_PG_CONTAINER=1; otherwise they are skipped.
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		if os.Getenv("TEST_PG_CONTAINER") != "1" {
			fmt.Printf("TEST_DB_HOST and TEST_PG_CONTAINER unset, skipping PostgreSQL tests\n")
			os.Exit(m.Run())
		}

		pgContainer, err = startPostgresContainer(ctx)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container, skipping PostgreSQL tests: %v\n", err)
			os.Exit(m.Run())
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), GormConfig(logger.Default.LogMode(logger.Silent)))
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Initialize the database schema
	err = initializeTestDatabase(testDB)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

// initializeTestDatabase runs the schema initialization and seed data
func initializeTestDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Read and execute the schema initialization SQL
	schemaPath := filepath.Join("..", "..", "db", "init_pg_db.sql")
	schemaSQL, err := os.ReadFile(schemaPath) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	_, err = sqlDB.Exec(string(schemaSQL))
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// initPGTestDB initializes a test database for each test
// This function creates a new store instance and ensures clean state
func initPGTestDB(t *testing.T) Store {
	// Start a transaction for test isolation
	tx := testDB.Begin()
	require.NotNil(t, tx)
	require.NoError(t, tx.Error)

	// Store the transaction in test context for cleanup
	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}

// cleanupPGTestDB is called after each test to clean up
// With transaction-based isolation, this is handled by the t.Cleanup rollback
func cleanupPGTestDB(t *testing.T) {
	// Cleanup is handled by transaction rollback in t.Cleanup
}

// initPGSharedDB returns a store on the shared connection pool so concurrent
// writers run in separate transactions. Tables are truncated afterwards.
func initPGSharedDB(t *testing.T) Store {
	t.Cleanup(func() {
		err := testDB.Exec("TRUNCATE pending_refunds, changes_journal, bids, auctions, territories RESTART IDENTITY CASCADE").Error
		require.NoError(t, err)
	})
	return NewPGStore(testDB)
}

func TestGormConfig(t *testing.T) {
	silent := logger.Default.LogMode(logger.Silent)

	cfg := GormConfig(silent)
	assert.True(t, cfg.TranslateError)
	assert.Equal(t, silent, cfg.Logger)

	assert.True(t, GormConfig(nil).TranslateError)
	assert.Nil(t, GormConfig(nil).Logger)
}

// TestPostgreSQLStore runs all store tests against PostgreSQL
func TestPostgreSQLStore(t *testing.T) {
	if testDB == nil {
		t.Skip("PostgreSQL test database not available")
	}

	RunStoreTests(t, initPGTestDB, cleanupPGTestDB)
}

// TestPostgreSQLStore_Concurrent races writers on separate connections
func TestPostgreSQLStore_Concurrent(t *testing.T) {
	if testDB == nil {
		t.Skip("PostgreSQL test database not available")
	}

	RunConcurrentStoreTests(t, initPGSharedDB)
}

// TestPostgreSQLStore_JournalCommitOrder checks that a journal append waits for
// an earlier uncommitted append, so cursors become visible in ascending order.
func TestPostgreSQLStore_JournalCommitOrder(t *testing.T) {
	if testDB == nil {
		t.Skip("PostgreSQL test database not available")
	}
	st := initPGSharedDB(t).(*pgStore)
	ctx := context.Background()

	entry := func(subjectID string) schema.ChangesJournal {
		return schema.ChangesJournal{
			SubjectType: schema.SubjectTypeTerritory,
			SubjectID:   subjectID,
			Kind:        schema.ChangeKindProtectionExpired,
			Version:     2,
			ChangedAt:   testNow,
		}
	}

	first := testDB.Begin()
	require.NoError(t, first.Error)
	require.NoError(t, st.appendJournal(first, entry("first")))

	done := make(chan error, 1)
	go func() {
		second := testDB.Begin()
		if second.Error != nil {
			done <- second.Error
			return
		}
		if err := st.appendJournal(second, entry("second")); err != nil {
			second.Rollback()
			done <- err
			return
		}
		done <- second.Commit().Error
	}()

	select {
	case err := <-done:
		first.Rollback()
		t.Fatalf("second append committed while the first was open: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	changes, err := st.GetChanges(ctx, ChangesQueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, changes)

	require.NoError(t, first.Commit().Error)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("second append never committed")
	}

	changes, err = st.GetChanges(ctx, ChangesQueryFilter{})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "first", changes[0].SubjectID)
	assert.Equal(t, "second", changes[1].SubjectID)
	assert.Less(t, changes[0].Cursor, changes[1].Cursor)

	t.Run("a reader at the first cursor still sees the second", func(t *testing.T) {
		after, err := st.GetChanges(ctx, ChangesQueryFilter{Since: uint64(changes[0].Cursor)})
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.Equal(t, "second", after[0].SubjectID)
	})
}

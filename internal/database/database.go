package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"ignist/internal/config"
	"ignist/internal/logging"
)

type MethodsDB interface {
	CloseDB() error
	RunMigrations(migrationFilePath string) error
	HealthCheck() error
	GetDB() *DB
}

type DB struct {
	*sqlx.DB
	logger logging.Logger
}

// NewDB wraps an open connection. Used by ConnectDB and by tests.
func NewDB(db *sqlx.DB, logger logging.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

func DSN(cfg config.DB) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DbHOST,
		cfg.DbPORT,
		cfg.DbUSER,
		cfg.DbPASSWORD,
		cfg.DbNAME,
		cfg.DbSSLMODE,
	)
}

// ConnectDB opens the Postgres pool backing the documents table, applies
// the migration file and checks the connection.
func ConnectDB(ctx context.Context, cfg config.DB, logger logging.Logger) (*DB, error) {
	logger.Info(ctx, "connecting to postgres", "host", cfg.DbHOST, "dbname", cfg.DbNAME)

	conn, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	db := NewDB(conn, logger)

	if err := db.RunMigrations(cfg.Migrations); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := db.HealthCheck(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("postgres health check: %w", err)
	}

	logger.Info(ctx, "connected to postgres")
	return db, nil
}

func (db *DB) CloseDB() error {
	return db.DB.Close()
}

func (db *DB) RunMigrations(migrationFilePath string) error {
	if _, err := os.Stat(migrationFilePath); os.IsNotExist(err) {
		return fmt.Errorf("migration file not found: %s", migrationFilePath)
	}

	migrationSQL, err := os.ReadFile(migrationFilePath)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}

	db.logger.Info(context.Background(), "applying migrations", "file", migrationFilePath)

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (db *DB) HealthCheck() error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	return db.Ping()
}

func (db *DB) GetDB() *DB {
	return db
}

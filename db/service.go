package db

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sqlite.sql schema.postgres.sql
var schemaFS embed.FS

// Tables created by the bootstrap schema.
var requiredTables = []string{
	"organizations",
	"people",
	"issues",
	"person_organizations",
	"organization_issues",
}

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier = sqlx.ExtContext

// Service represents the database service with connection management
type Service struct {
	DB      *sqlx.DB
	Dialect Dialect
	logger  logrus.FieldLogger
}

// Config holds database configuration
type Config struct {
	URL            string
	MaxOpenConns   int
	MaxIdleConns   int
	AutoInitialize bool
}

// DefaultConfig returns default database configuration
func DefaultConfig() *Config {
	return &Config{
		URL:            "./data/intake.db",
		MaxOpenConns:   1, // SQLite doesn't handle concurrent writes well
		MaxIdleConns:   1,
		AutoInitialize: true,
	}
}

// New opens the database described by config.URL.
func New(config *Config, logger logrus.FieldLogger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dialect, dsn := ParseURL(config.URL)
	if dialect.Name == SQLite.Name {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dsn = withSQLiteParams(dsn)
	}

	conn, err := sqlx.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen, maxIdle := config.MaxOpenConns, config.MaxIdleConns
	if dialect.Name == SQLite.Name {
		maxOpen, maxIdle = 1, 1
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	service := NewWithDB(conn, dialect, logger)

	if config.AutoInitialize {
		if err := service.InitializeSchema(context.Background()); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	logger.WithFields(logrus.Fields{"dialect": dialect.Name}).Info("Database service initialized")
	return service, nil
}

// NewWithDB wraps an already opened connection pool.
func NewWithDB(conn *sqlx.DB, dialect Dialect, logger logrus.FieldLogger) *Service {
	return &Service{
		DB:      conn,
		Dialect: dialect,
		logger:  logger,
	}
}

// InitializeSchema executes the embedded bootstrap DDL for the active dialect.
// Every statement is idempotent.
func (s *Service) InitializeSchema(ctx context.Context) error {
	schemaSQL, err := schemaFS.ReadFile(s.Dialect.schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	for _, stmt := range strings.Split(string(schemaSQL), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	return nil
}

// VerifySchema checks if the database schema is properly initialized
func (s *Service) VerifySchema(ctx context.Context) error {
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
	if s.Dialect.Name == Postgres.Name {
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	}

	for _, table := range requiredTables {
		var exists int
		if err := s.DB.GetContext(ctx, &exists, query, table); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if exists == 0 {
			return fmt.Errorf("required table missing: %s", table)
		}
	}

	s.logger.Debug("Schema verification successful - all required tables present")
	return nil
}

// Transaction runs fn inside one transaction on one pooled connection. The
// transaction is rolled back when fn returns an error or panics, and the
// connection is always returned to the pool.
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	conn, err := s.DB.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.WithError(rbErr).Error("Failed to roll back transaction")
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Health checks the database connection health
func (s *Service) Health(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.DB.PingContext(ctx)
}

// Close closes the database connection
func (s *Service) Close() error {
	if s.DB != nil {
		s.logger.Info("Closing database connection...")
		return s.DB.Close()
	}
	return nil
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func withSQLiteParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "_foreign_keys") {
		dsn += sep + "_foreign_keys=on"
		sep = "&"
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		dsn += sep + "_busy_timeout=5000"
	}
	return dsn
}

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/logger"
)

// Service wraps the database connection and provides methods for database operations
type Service struct {
	db     *sql.DB
	driver DatabaseDriver
}

// NewService creates a new database service instance and ensures the schema exists
func NewService(cfg *config.Config) (*Service, error) {
	db, driver, err := OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Service{
		db:     db,
		driver: driver,
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database service initialized",
		"driver", string(driver),
		"url", cfg.DatabaseURL)

	return s, nil
}

// Migrate creates the linked_accounts table if it does not exist. The SQL is
// kept portable across SQLite and PostgreSQL.
func (s *Service) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS linked_accounts (
		strava_athlete_id BIGINT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create linked_accounts table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection
func (s *Service) DB() *sql.DB {
	return s.db
}

// Driver returns the database driver type
func (s *Service) Driver() DatabaseDriver {
	return s.driver
}

// IsPostgreSQL returns true if using PostgreSQL
func (s *Service) IsPostgreSQL() bool {
	return s.driver == PostgreSQL
}

// IsSQLite returns true if using SQLite
func (s *Service) IsSQLite() bool {
	return s.driver == SQLite
}

// WithTx executes a function within a database transaction
func (s *Service) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

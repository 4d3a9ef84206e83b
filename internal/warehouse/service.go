// Package warehouse registers catalog definitions against the data
// warehouse and runs routine tests in throwaway sessions.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake"

	"sqldeck/internal/catalog"
	"sqldeck/pkg/errors"
)

// Config holds warehouse connection configuration
type Config struct {
	Account    string
	Username   string
	Password   string
	Database   string
	Schema     string
	Warehouse  string
	Role       string
	Timeout    time.Duration
	MaxRetries int // Connection retry attempts; 0 uses the default
}

// Service provides warehouse operations for catalog definitions
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
}

// NewService creates a new warehouse service
func NewService(config Config) *Service {
	return &Service{config: config}
}

// NewServiceWithDB creates a service over an existing database handle.
// Used by tests to inject a mock connection.
func NewServiceWithDB(db *sql.DB, config Config) *Service {
	return &Service{db: db, config: config, connected: true}
}

// Connect establishes a connection to the warehouse
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	retryCfg := errors.DefaultRetryConfig()
	if s.config.MaxRetries > 0 {
		retryCfg.MaxRetries = s.config.MaxRetries
	}

	return errors.Retry(context.Background(), retryCfg, func(ctx context.Context) error {
		dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
			s.config.Username,
			s.config.Password,
			s.config.Account,
			s.config.Database,
			s.config.Schema,
			s.config.Warehouse,
			s.config.Role,
		)

		db, err := sql.Open("snowflake", dsn)
		if err != nil {
			return errors.ConnectionError("Failed to open warehouse connection", err).
				WithContext("account", s.config.Account)
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(10 * time.Minute)

		connCtx, cancel := s.getContext()
		defer cancel()

		if err := db.PingContext(connCtx); err != nil {
			db.Close()

			if strings.Contains(err.Error(), "authentication") {
				return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
					WithContext("user", s.config.Username).
					WithSuggestions(
						"Verify your username and password",
						"Check if your account is locked",
					)
			}

			return errors.ConnectionError("Failed to connect to warehouse", err).
				WithContext("account", s.config.Account).
				AsRecoverable()
		}

		s.db = db
		s.connected = true
		return nil
	})
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	s.connected = false
	return nil
}

// Ping tests the database connection
func (s *Service) Ping() error {
	if !s.connected {
		if err := s.Connect(); err != nil {
			return err
		}
	}

	ctx, cancel := s.getContext()
	defer cancel()

	return s.db.PingContext(ctx)
}

// ExecuteSQL executes SQL statements in a transaction within the given
// database and schema.
func (s *Service) ExecuteSQL(sqlText, database, schema string) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to warehouse").
			WithSuggestions("Call Connect() before executing SQL")
	}

	ctx, cancel := s.getContext()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}

	if err := s.executeIn(ctx, tx, sqlText, database, schema); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction")
	}

	return nil
}

func (s *Service) executeIn(ctx context.Context, tx *sql.Tx, sqlText, database, schema string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("USE DATABASE %s", database)); err != nil {
		return errors.SQLError(
			fmt.Sprintf("Failed to use database %s", database),
			fmt.Sprintf("USE DATABASE %s", database),
			err,
		).WithContext("database", database)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("USE SCHEMA %s", schema)); err != nil {
		return errors.SQLError(
			fmt.Sprintf("Failed to use schema %s", schema),
			fmt.Sprintf("USE SCHEMA %s", schema),
			err,
		).WithContext("schema", schema)
	}

	statements := catalog.SplitStatements(sqlText)

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			sqlErr := errors.SQLError(
				fmt.Sprintf("Failed to execute statement %d", i+1),
				stmt,
				err,
			).WithContext("statement_index", i+1).
				WithContext("total_statements", len(statements))

			errStr := err.Error()
			if strings.Contains(errStr, "does not exist") || strings.Contains(errStr, "not found") {
				sqlErr.Code = errors.ErrCodeSQLObjectNotFound
				sqlErr.WithSuggestions(
					"Verify the object exists in the target database/schema",
					"Check for typos in object names",
				)
			}

			return sqlErr
		}
	}

	return nil
}

// Helper methods

func (s *Service) getContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// ValidateConfig validates the warehouse configuration
func ValidateConfig(config Config) error {
	if config.Account == "" {
		return fmt.Errorf("account is required")
	}
	if config.Username == "" {
		return fmt.Errorf("username is required")
	}
	if config.Password == "" {
		return fmt.Errorf("password is required")
	}
	if config.Warehouse == "" {
		return fmt.Errorf("warehouse is required")
	}
	if config.Role == "" {
		return fmt.Errorf("role is required")
	}
	return nil
}

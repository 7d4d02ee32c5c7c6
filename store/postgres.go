package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/docsum/document"
)

// PostgresStore keeps reports in a JSONB column keyed by artifact name.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// DSN overrides the individual fields when set.
	DSN string
}

// DefaultPostgresConfig returns default PostgreSQL configuration.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "docsum",
		SSLMode:  "disable",
	}
}

func (c *PostgresConfig) dsn() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewPostgresStore connects to PostgreSQL and creates the reports table.
func NewPostgresStore(ctx context.Context, config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	db, err := sql.Open("postgres", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS reports (
		artifact VARCHAR(255) PRIMARY KEY,
		file_name TEXT NOT NULL,
		total_chunks INTEGER NOT NULL,
		report JSONB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save upserts report and returns its artifact name.
func (s *PostgresStore) Save(ctx context.Context, source string, report *document.Report) (string, error) {
	if report == nil {
		return "", errNilReport
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	artifact := ArtifactName(source)
	query := `
	INSERT INTO reports (artifact, file_name, total_chunks, report, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (artifact) DO UPDATE SET
		file_name = EXCLUDED.file_name,
		total_chunks = EXCLUDED.total_chunks,
		report = EXCLUDED.report,
		updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query,
		artifact,
		report.SourceName,
		report.TotalChunks,
		string(raw),
		time.Now(),
	); err != nil {
		return "", fmt.Errorf("failed to save report to PostgreSQL: %w", err)
	}
	return artifact, nil
}

// Load fetches a report by artifact name.
func (s *PostgresStore) Load(ctx context.Context, artifact string) (*document.Report, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT report FROM reports WHERE artifact = $1`, artifact).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, artifact)
		}
		return nil, fmt.Errorf("failed to load report from PostgreSQL: %w", err)
	}

	var report document.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

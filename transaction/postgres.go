package transaction

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool defines the interface for the database connection pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for the Postgres connection.
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "transactions"
}

// NewPostgresStore creates a connection pool and the store.
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "transactions"
	}
	return &PostgresStore{pool: pool, tableName: tableName}, nil
}

// NewPostgresStoreWithPool creates a store on an existing pool.
// Useful for testing with mocks.
func NewPostgresStoreWithPool(pool DBPool, tableName string) *PostgresStore {
	if tableName == "" {
		tableName = "transactions"
	}
	return &PostgresStore{pool: pool, tableName: tableName}
}

// InitSchema creates the necessary table if it doesn't exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			amount DOUBLE PRECISION NOT NULL,
			category TEXT NOT NULL,
			date TEXT NOT NULL
		);
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Create inserts a transaction and fills in its assigned ID.
func (s *PostgresStore) Create(ctx context.Context, t *Transaction) error {
	query := fmt.Sprintf("INSERT INTO %s (amount, category, date) VALUES ($1, $2, $3) RETURNING id", s.tableName)
	if err := s.pool.QueryRow(ctx, query, t.Amount, t.Category, t.Date).Scan(&t.ID); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// List returns transactions ordered by ID.
func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]Transaction, error) {
	limit = clampLimit(limit)
	query := fmt.Sprintf("SELECT id, amount, category, date FROM %s ORDER BY id LIMIT $1 OFFSET $2", s.tableName)
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Category, &t.Date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

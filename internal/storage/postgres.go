// internal/storage/postgres.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// pqUniqueViolation is the Postgres error code for unique-constraint violations.
const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Migrate creates the record tables if they do not exist yet.
//
// Loans reference books and customers by id only. Book deletion removes its
// loans explicitly inside the delete transaction; customer deletion leaves
// loan history behind, so no foreign keys are declared here.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS books (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			author TEXT NOT NULL,
			year_published INT NOT NULL,
			type INT NOT NULL,
			img TEXT
		);

		CREATE TABLE IF NOT EXISTS customers (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			city TEXT NOT NULL,
			age INT NOT NULL,
			mail TEXT UNIQUE,
			gender TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS loans (
			id BIGSERIAL PRIMARY KEY,
			cust_id BIGINT NOT NULL,
			book_id BIGINT NOT NULL,
			loan_date TIMESTAMPTZ NOT NULL,
			return_date TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_loans_book_id ON loans (book_id);
		CREATE INDEX IF NOT EXISTS idx_loans_cust_id ON loans (cust_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

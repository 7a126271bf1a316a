// Package database owns the pooled postgres connection and the transaction
// scope every multi-statement sequence runs in.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute

	connectRetries = 10
	retryDelay     = 2 * time.Second
	pingTimeout    = 5 * time.Second
)

// Open dials postgres with a bounded pool. The initial ping is retried so
// the service survives starting before the database is ready.
func Open(ctx context.Context, postgresURL string) (*sql.DB, error) {
	db, err := otelsql.Open("postgres", postgresURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	var lastErr error
	for i := 0; i < connectRetries; i++ {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pctx)
		cancel()
		if lastErr == nil {
			return db, nil
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("connect canceled: %w", ctx.Err())
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", connectRetries, lastErr)
}

// WithTx runs fn inside one transaction on one pooled connection. It commits
// when fn returns nil and rolls back otherwise, propagating fn's error. The
// deferred rollback is the single release path; after a successful commit it
// is a no-op. Statements inside fn must go through the passed *sql.Tx --
// touching the pool directly from inside fn would escape the transaction.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Package database opens the preference store and applies its schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DB is a connection pool together with the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the configured backend and verifies connectivity.
// SQLite is limited to a single connection so writes are serialized.
func Open(ctx context.Context, driver, dsn string, log *slog.Logger) (*DB, error) {
	dialect := Dialect(strings.ToLower(strings.TrimSpace(driver)))
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	ping := func() error {
		if err := sqlDB.PingContext(ctx); err != nil {
			if log != nil {
				log.Warn("database ping failed", slog.String("driver", string(dialect)), slog.Any("error", err))
			}
			return apperrors.NewStorageError("ping", err)
		}
		return nil
	}

	if err := apperrors.WithRetry(ctx, apperrors.DefaultRetryPolicy(), ping); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

// HealthCheck pings the database.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Rebind rewrites '?' placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

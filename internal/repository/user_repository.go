package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Proton-105/cryptoassist-bot/internal/database"
	"github.com/Proton-105/cryptoassist-bot/internal/domain"
)

// ErrNotFound is returned when no user row matches.
var ErrNotFound = errors.New("user not found")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Upsert(ctx context.Context, identity domain.Identity, lang domain.Language, now time.Time) (*domain.User, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	TouchActivity(ctx context.Context, telegramID int64, at time.Time) (bool, error)
	UpdateLanguage(ctx context.Context, telegramID int64, lang domain.Language) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db      *sql.DB
	dialect database.Dialect
	log     *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *database.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:      db.DB,
		dialect: db.Dialect,
		log:     log,
	}
}

const selectUser = `
	SELECT id, telegram_id, username, full_name, language, is_active, first_seen, last_activity
	FROM users
	WHERE telegram_id = ?
`

// Upsert inserts the user unless it already exists and returns the stored row.
// Both statements run in one transaction which is rolled back on any failure.
func (r *userRepository) Upsert(ctx context.Context, identity domain.Identity, lang domain.Language, now time.Time) (user *domain.User, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert user: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && r.log != nil {
				r.log.Error("rollback upsert user", slog.Int64("telegram_id", identity.TelegramID), slog.Any("error", rbErr))
			}
		}
	}()

	const insert = `
		INSERT INTO users (telegram_id, username, full_name, language, is_active, first_seen, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO NOTHING
	`

	if _, err = tx.ExecContext(ctx, r.dialect.Rebind(insert),
		identity.TelegramID,
		nullString(identity.Username),
		nullString(identity.FullName),
		string(lang),
		true,
		now,
		now,
	); err != nil {
		r.logError("upsert.insert", identity.TelegramID, err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	user, err = scanUser(tx.QueryRowContext(ctx, r.dialect.Rebind(selectUser), identity.TelegramID))
	if err != nil {
		r.logError("upsert.select", identity.TelegramID, err)
		return nil, fmt.Errorf("select upserted user: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert user: %w", err)
	}

	return user, nil
}

// FindByTelegramID retrieves a user by their Telegram identifier.
func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, r.dialect.Rebind(selectUser), telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		r.logError("find", telegramID, err)
		return nil, fmt.Errorf("select user by telegram id: %w", err)
	}

	return user, nil
}

// TouchActivity sets last_activity and reports whether a row was updated.
func (r *userRepository) TouchActivity(ctx context.Context, telegramID int64, at time.Time) (bool, error) {
	const query = `UPDATE users SET last_activity = ? WHERE telegram_id = ?`

	return r.update(ctx, "touch_activity", telegramID, query, at, telegramID)
}

// UpdateLanguage stores lang and reports whether a row was updated.
func (r *userRepository) UpdateLanguage(ctx context.Context, telegramID int64, lang domain.Language) (bool, error) {
	const query = `UPDATE users SET language = ? WHERE telegram_id = ?`

	return r.update(ctx, "update_language", telegramID, query, string(lang), telegramID)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

func (r *userRepository) update(ctx context.Context, op string, telegramID int64, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		r.logError(op, telegramID, err)
		return false, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}

	return affected > 0, nil
}

func (r *userRepository) logError(op string, telegramID int64, err error) {
	if r.log == nil {
		return
	}

	r.log.Error("user repository operation failed",
		slog.String("operation", op),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user     domain.User
		username sql.NullString
		fullName sql.NullString
		language string
	)

	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&username,
		&fullName,
		&language,
		&user.IsActive,
		&user.FirstSeen,
		&user.LastActivity,
	); err != nil {
		return nil, err
	}

	user.Username = username.String
	user.FullName = fullName.String
	user.Language = domain.Language(language)

	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

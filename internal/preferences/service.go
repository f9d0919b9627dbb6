// Package preferences keeps per-user language and activity state.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/internal/repository"
	"github.com/Proton-105/cryptoassist-bot/internal/usercache"
)

// ErrUnsupportedLanguage is wrapped in the validation error SetLanguage returns
// for codes outside domain.SupportedLanguages.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Service provides preference operations over users.
type Service struct {
	repo     repository.UserRepository
	cache    *usercache.Cache
	fallback domain.Language
	log      *slog.Logger
	now      func() time.Time
}

// NewService constructs a new Service. cache may be nil.
func NewService(repo repository.UserRepository, cache *usercache.Cache, fallback domain.Language, log *slog.Logger) *Service {
	if !fallback.IsSupported() {
		fallback = domain.DefaultLanguage
	}

	return &Service{
		repo:     repo,
		cache:    cache,
		fallback: fallback,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DefaultLanguage is the language served to unknown users.
func (s *Service) DefaultLanguage() domain.Language {
	return s.fallback
}

// GetOrCreateUser returns the stored user, creating it with the default language when missing.
func (s *Service) GetOrCreateUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.repo.Upsert(ctx, identity, s.fallback, s.now())
	if err != nil {
		s.logError("get_or_create", identity.TelegramID, err)
		return nil, apperrors.NewStorageError("get or create user", err)
	}

	return user, nil
}

// TouchActivity records that the user was just active. Unknown users are ignored.
func (s *Service) TouchActivity(ctx context.Context, telegramID int64) error {
	updated, err := s.repo.TouchActivity(ctx, telegramID, s.now())
	if err != nil {
		s.logError("touch_activity", telegramID, err)
		return apperrors.NewStorageError("touch activity", err)
	}

	if !updated && s.log != nil {
		s.log.Warn("touch activity for unknown user", slog.Int64("telegram_id", telegramID))
	}

	return nil
}

// GetLanguage returns the stored language, or the default for unknown users.
func (s *Service) GetLanguage(ctx context.Context, telegramID int64) (domain.Language, error) {
	if lang, ok, err := s.cache.GetLanguage(ctx, telegramID); err != nil {
		if s.log != nil {
			s.log.Warn("language cache read failed", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		}
	} else if ok {
		return lang, nil
	}

	user, err := s.repo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.fallback, nil
		}

		s.logError("get_language", telegramID, err)
		return s.fallback, apperrors.NewStorageError("get language", err)
	}

	lang := user.Language
	if !lang.IsSupported() {
		lang = s.fallback
	}

	if _, err := s.cache.FillLanguage(ctx, telegramID, lang); err != nil {
		s.logCacheError("fill", telegramID, err)
	}
	return lang, nil
}

// SetLanguage stores code for an existing user; unknown users are ignored.
func (s *Service) SetLanguage(ctx context.Context, telegramID int64, code string) error {
	lang, ok := domain.ParseLanguage(code)
	if !ok {
		return apperrors.NewInvalid(fmt.Errorf("set language %q: %w", code, ErrUnsupportedLanguage))
	}

	// drop the cached value first so a failed write below cannot leave it stale
	if err := s.cache.Invalidate(ctx, telegramID); err != nil {
		s.logCacheError("invalidate", telegramID, err)
	}

	updated, err := s.repo.UpdateLanguage(ctx, telegramID, lang)
	if err != nil {
		s.logError("set_language", telegramID, err)
		return apperrors.NewStorageError("set language", err)
	}

	if !updated {
		if s.log != nil {
			s.log.Warn("set language for unknown user", slog.Int64("telegram_id", telegramID))
		}
		return nil
	}

	if err := s.cache.SetLanguage(ctx, telegramID, lang); err != nil {
		s.logCacheError("write", telegramID, err)
	}
	return nil
}

// Count reports the number of stored users.
func (s *Service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError("count users", err)
	}

	return count, nil
}

func (s *Service) logCacheError(operation string, telegramID int64, err error) {
	if s.log == nil {
		return
	}

	s.log.Warn("language cache "+operation+" failed", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
}

func (s *Service) logError(operation string, telegramID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("preference operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}

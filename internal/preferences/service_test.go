package preferences

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/internal/repository"
	"github.com/Proton-105/cryptoassist-bot/internal/testutil"
	"github.com/Proton-105/cryptoassist-bot/internal/usercache"
)

func newSQLiteService(t *testing.T, cache *usercache.Cache) *Service {
	t.Helper()

	repo := repository.NewUserRepository(testutil.SQLite(t), testutil.Logger())
	return NewService(repo, cache, domain.LangRU, testutil.Logger())
}

func TestGetOrCreateUserIdempotent(t *testing.T) {
	t.Parallel()

	svc := newSQLiteService(t, nil)
	ctx := context.Background()

	first, err := svc.GetOrCreateUser(ctx, domain.Identity{TelegramID: 100, Username: "bob"})
	require.NoError(t, err)
	second, err := svc.GetOrCreateUser(ctx, domain.Identity{TelegramID: 100, Username: "bob"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(100), second.TelegramID)
	assert.Equal(t, domain.LangRU, second.Language)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSetLanguageThenGet(t *testing.T) {
	t.Parallel()

	svc := newSQLiteService(t, nil)
	ctx := context.Background()

	_, err := svc.GetOrCreateUser(ctx, domain.Identity{TelegramID: 5})
	require.NoError(t, err)

	require.NoError(t, svc.SetLanguage(ctx, 5, "en"))
	lang, err := svc.GetLanguage(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.LangEN, lang)

	err = svc.SetLanguage(ctx, 5, "fr")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.False(t, errors.Is(apperrors.NewValidationError("bad input"), ErrUnsupportedLanguage))

	lang, err = svc.GetLanguage(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.LangEN, lang)
}

func TestUnknownUserDefaults(t *testing.T) {
	t.Parallel()

	svc := newSQLiteService(t, nil)
	ctx := context.Background()

	lang, err := svc.GetLanguage(ctx, 404)
	require.NoError(t, err)
	assert.Equal(t, domain.LangRU, lang)

	assert.NoError(t, svc.TouchActivity(ctx, 404))
	assert.NoError(t, svc.SetLanguage(ctx, 404, "en"))

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLanguageServedFromCache(t *testing.T) {
	client, _ := testutil.Redis(t)
	cache := usercache.NewCache(client, time.Minute)
	svc := newSQLiteService(t, cache)
	ctx := context.Background()

	_, err := svc.GetOrCreateUser(ctx, domain.Identity{TelegramID: 9})
	require.NoError(t, err)
	require.NoError(t, svc.SetLanguage(ctx, 9, "en"))

	cached, ok, err := cache.GetLanguage(ctx, 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.LangEN, cached)

	lang, err := svc.GetLanguage(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, domain.LangEN, lang)
}

// staleReadRepo lets a language change commit between the read and the cache fill.
type staleReadRepo struct {
	repository.UserRepository
	afterRead func()
}

func (r *staleReadRepo) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := r.UserRepository.FindByTelegramID(ctx, telegramID)
	if r.afterRead != nil {
		r.afterRead()
		r.afterRead = nil
	}
	return user, err
}

func TestConcurrentSetLanguageWinsOverCacheFill(t *testing.T) {
	client, _ := testutil.Redis(t)
	cache := usercache.NewCache(client, time.Hour)
	repo := &staleReadRepo{UserRepository: repository.NewUserRepository(testutil.SQLite(t), testutil.Logger())}
	svc := NewService(repo, cache, domain.LangRU, testutil.Logger())
	ctx := context.Background()

	_, err := svc.GetOrCreateUser(ctx, domain.Identity{TelegramID: 21})
	require.NoError(t, err)

	repo.afterRead = func() {
		require.NoError(t, svc.SetLanguage(ctx, 21, "en"))
	}

	lang, err := svc.GetLanguage(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, domain.LangRU, lang)

	cached, ok, err := cache.GetLanguage(ctx, 21)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.LangEN, cached)

	lang, err = svc.GetLanguage(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, domain.LangEN, lang)
}

func TestSetLanguageDropsCachedValueBeforeWriting(t *testing.T) {
	client, _ := testutil.Redis(t)
	cache := usercache.NewCache(client, time.Hour)
	repo := &repoMock{}
	svc := NewService(repo, cache, domain.LangRU, testutil.Logger())
	ctx := context.Background()

	require.NoError(t, cache.SetLanguage(ctx, 8, domain.LangRU))
	repo.On("UpdateLanguage", mock.Anything, int64(8), domain.LangEN).Return(false, errors.New("database is locked"))

	err := svc.SetLanguage(ctx, 8, "en")
	assert.True(t, errors.Is(err, apperrors.ErrStorage))

	_, ok, err := cache.GetLanguage(ctx, 8)
	require.NoError(t, err)
	assert.False(t, ok)
	repo.AssertExpectations(t)
}

type repoMock struct {
	mock.Mock
}

func (m *repoMock) Upsert(ctx context.Context, identity domain.Identity, lang domain.Language, now time.Time) (*domain.User, error) {
	args := m.Called(ctx, identity, lang, now)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *repoMock) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	args := m.Called(ctx, telegramID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *repoMock) TouchActivity(ctx context.Context, telegramID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, telegramID, at)
	return args.Bool(0), args.Error(1)
}

func (m *repoMock) UpdateLanguage(ctx context.Context, telegramID int64, lang domain.Language) (bool, error) {
	args := m.Called(ctx, telegramID, lang)
	return args.Bool(0), args.Error(1)
}

func (m *repoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestStorageFailuresAreDistinguishable(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection refused")
	repo := new(repoMock)
	repo.On("Upsert", mock.Anything, mock.Anything, domain.LangRU, mock.Anything).Return(nil, dbErr)
	repo.On("FindByTelegramID", mock.Anything, int64(1)).Return(nil, dbErr)
	repo.On("TouchActivity", mock.Anything, int64(1), mock.Anything).Return(false, dbErr)
	repo.On("UpdateLanguage", mock.Anything, int64(1), domain.LangEN).Return(false, dbErr)

	svc := NewService(repo, nil, domain.LangRU, testutil.Logger())
	ctx := context.Background()

	_, err := svc.GetOrCreateUser(ctx, domain.Identity{TelegramID: 1})
	assert.True(t, errors.Is(err, apperrors.ErrStorage))

	lang, err := svc.GetLanguage(ctx, 1)
	assert.True(t, errors.Is(err, apperrors.ErrStorage))
	assert.Equal(t, domain.LangRU, lang)

	assert.True(t, errors.Is(svc.TouchActivity(ctx, 1), apperrors.ErrStorage))
	assert.True(t, errors.Is(svc.SetLanguage(ctx, 1, "EN"), apperrors.ErrStorage))

	repo.AssertExpectations(t)
}

func TestInvalidFallbackIsReplaced(t *testing.T) {
	t.Parallel()

	svc := NewService(new(repoMock), nil, "de", nil)
	assert.Equal(t, domain.DefaultLanguage, svc.DefaultLanguage())
}

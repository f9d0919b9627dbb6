package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
	"github.com/Proton-105/cryptoassist-bot/internal/testutil"
	"github.com/Proton-105/cryptoassist-bot/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.MarketConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, testutil.Logger())
}

func TestFetchPricesOmitsMissingSymbols(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,nosuchcoin,ethereum", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		fmt.Fprint(w, `{"bitcoin":{"usd":65000.5},"ethereum":{"usd":3200}}`)
	})

	prices, err := client.FetchPrices(context.Background(), []string{"bitcoin", "nosuchcoin", "ethereum"}, "USD")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"bitcoin": 65000.5, "ethereum": 3200}, prices)
}

func TestFetchPricesFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "non-200", handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{name: "malformed body", handler: func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"bitcoin":`)
		}},
		{name: "unexpected shape", handler: func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `["not","an","object"]`)
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, tc.handler)
			_, err := client.FetchPrices(context.Background(), []string{"bitcoin"}, "usd")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrUpstream))
		})
	}
}

func TestFetchPriceHistoryIsChronological(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		fmt.Fprint(w, `{"prices":[[1700000200000,102.5],[1700000000000,100],[1700000100000,101]]}`)
	})

	points, err := client.FetchPriceHistory(context.Background(), "bitcoin", "usd", 7)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 100.0, points[0].Price)
	assert.Equal(t, 102.5, points[2].Price)
	assert.True(t, points[0].Time.Before(points[1].Time))
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), points[0].Time)
}

func TestFetchDescription(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("я", MaxDescriptionRunes+50)

	cases := []struct {
		name string
		body string
		lang string
		want string
	}{
		{name: "localized", body: `{"description":{"ru":"  Биткоин  ","en":"Bitcoin"}}`, lang: "ru", want: "Биткоин"},
		{name: "english fallback", body: `{"description":{"ru":"","en":"Bitcoin"}}`, lang: "ru", want: "Bitcoin"},
		{name: "none", body: `{"description":{}}`, lang: "en", want: ""},
		{name: "truncated", body: `{"description":{"en":"` + long + `"}}`, lang: "en", want: strings.Repeat("я", MaxDescriptionRunes) + "..."},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/coins/bitcoin", r.URL.Path)
				assert.Equal(t, "true", r.URL.Query().Get("localization"))
				fmt.Fprint(w, tc.body)
			})

			got, err := client.FetchDescription(context.Background(), "bitcoin", tc.lang)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTruncateKeepsShortText(t *testing.T) {
	t.Parallel()

	exact := strings.Repeat("a", MaxDescriptionRunes)
	assert.Equal(t, exact, truncate(exact, MaxDescriptionRunes))

	cut := truncate(exact+"b", MaxDescriptionRunes)
	assert.Equal(t, MaxDescriptionRunes+3, utf8.RuneCountInString(cut))
	assert.True(t, strings.HasSuffix(cut, "..."))
}

func TestRequestTimeoutIsUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.MarketConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, testutil.Logger())
	_, err := client.FetchPrices(context.Background(), []string{"bitcoin"}, "usd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestLookupToken(t *testing.T) {
	t.Parallel()

	token, err := LookupToken("binancecoin")
	require.NoError(t, err)
	assert.Equal(t, "BNB", token.Symbol)

	_, err = LookupToken("shiba-inu")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLookupMiss))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, i18n.KeyChartTokenNotFound, appErr.MessageKey)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	ok := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		fmt.Fprint(w, `{"gecko_says":"(V3) To the Moon!"}`)
	})
	assert.NoError(t, ok.HealthCheck(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.ErrorIs(t, down.HealthCheck(context.Background()), apperrors.ErrUpstream)
}

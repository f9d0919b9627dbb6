// Package market fetches prices, history and coin metadata from CoinGecko.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/pkg/config"
	"github.com/Proton-105/cryptoassist-bot/pkg/metrics"
)

const (
	apiName = "coingecko"

	// MaxDescriptionRunes bounds FetchDescription output, excluding the ellipsis.
	MaxDescriptionRunes = 1000
	ellipsis            = "..."
)

// PricePoint is one sample of a price history.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// Client talks to the CoinGecko public REST API.
// Calls are throttled client side and guarded by a circuit breaker; they are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
}

// NewClient builds a client from the market config section.
func NewClient(cfg config.MarketConfig, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
		burst = cfg.RequestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
	}

	settings := apperrors.DefaultBreakerSettings()
	if cfg.BreakerCooldown > 0 {
		settings.Cooldown = cfg.BreakerCooldown
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    apperrors.NewCircuitBreaker(settings),
		log:        log,
	}
}

// FetchPrices returns the current price of every symbol found upstream.
// Symbols missing from the response are omitted.
func (c *Client) FetchPrices(ctx context.Context, symbols []string, currency string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	currency = strings.ToLower(currency)

	query := url.Values{}
	query.Set("ids", strings.Join(symbols, ","))
	query.Set("vs_currencies", currency)

	var body map[string]map[string]float64
	if err := c.getJSON(ctx, "simple_price", "/simple/price", query, &body); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if quotes, ok := body[symbol]; ok {
			if price, ok := quotes[currency]; ok {
				prices[symbol] = price
			}
		}
	}

	return prices, nil
}

// FetchPriceHistory returns the chronological price series for the last days days.
func (c *Client) FetchPriceHistory(ctx context.Context, symbol, currency string, days int) ([]PricePoint, error) {
	if days <= 0 {
		days = 7
	}

	query := url.Values{}
	query.Set("vs_currency", strings.ToLower(currency))
	query.Set("days", strconv.Itoa(days))

	var body struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := c.getJSON(ctx, "market_chart", "/coins/"+url.PathEscape(symbol)+"/market_chart", query, &body); err != nil {
		return nil, err
	}

	points := make([]PricePoint, 0, len(body.Prices))
	for _, sample := range body.Prices {
		if len(sample) < 2 {
			return nil, apperrors.NewUpstreamError(apiName, fmt.Errorf("malformed price sample for %s", symbol))
		}
		points = append(points, PricePoint{
			Time:  time.UnixMilli(int64(sample[0])).UTC(),
			Price: sample[1],
		})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

// FetchDescription returns the coin description in lang, falling back to English.
// The result is trimmed and cut to MaxDescriptionRunes with an ellipsis when longer.
// An empty string means no description exists.
func (c *Client) FetchDescription(ctx context.Context, symbol, lang string) (string, error) {
	query := url.Values{}
	query.Set("localization", "true")
	query.Set("tickers", "false")
	query.Set("market_data", "false")
	query.Set("community_data", "false")
	query.Set("developer_data", "false")

	var body struct {
		Description map[string]string `json:"description"`
	}
	if err := c.getJSON(ctx, "coin", "/coins/"+url.PathEscape(symbol), query, &body); err != nil {
		return "", err
	}

	desc := strings.TrimSpace(body.Description[lang])
	if desc == "" {
		desc = strings.TrimSpace(body.Description["en"])
	}

	return truncate(desc, MaxDescriptionRunes), nil
}

// HealthCheck calls the API's ping endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	var body struct {
		GeckoSays string `json:"gecko_says"`
	}
	return c.getJSON(ctx, "ping", "/ping", nil, &body)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return string(runes[:limit]) + ellipsis
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordUpstream(endpoint, "throttled", 0)
		return apperrors.NewUpstreamError(apiName, fmt.Errorf("wait for rate limiter: %w", err))
	}

	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordUpstream(endpoint, status, time.Since(start))
	}()

	err := c.breaker.Call(func() error {
		return c.do(ctx, path, query, dst)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrCircuitOpen) {
			status = "circuit_open"
		}
		if c.log != nil {
			c.log.Warn("price api request failed", slog.String("endpoint", endpoint), slog.Any("error", err))
		}
		return apperrors.NewUpstreamError(apiName, err)
	}

	status = "ok"
	return nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", apiName, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%s status %d", apiName, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s decode: %w", apiName, err)
	}

	return nil
}

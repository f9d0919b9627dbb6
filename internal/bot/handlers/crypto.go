package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Proton-105/cryptoassist-bot/internal/calculator"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
)

// NewCryptoHandler answers /crypto [ids...] with current prices.
func NewCryptoHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)

		symbols := make([]string, 0, len(req.Update.Args))
		for _, arg := range req.Update.Args {
			symbols = append(symbols, strings.ToLower(arg))
		}
		if len(symbols) == 0 {
			symbols = append(symbols, deps.DefaultSymbols...)
		}

		prices, err := deps.Market.FetchPrices(ctx, symbols, deps.Currency)
		if err != nil {
			deps.logger().Warn("crypto handler: failed to fetch prices",
				slog.Int64("telegram_id", req.Update.UserID),
				slog.Any("symbols", symbols),
				slog.Any("error", err),
			)
			return req.Reply.Send(ctx, Message{Text: t.T(i18n.KeyErrorFormat, errorDetail(err))})
		}

		lines := []string{t.T(i18n.KeyCryptoPrices)}
		currency := strings.ToUpper(deps.Currency)
		for _, symbol := range symbols {
			price, ok := prices[symbol]
			if !ok || price == 0 {
				continue
			}
			lines = append(lines, t.T(i18n.KeyCryptoLine, strings.ToUpper(symbol), formatNumber(price), currency))
		}

		return req.Reply.Send(ctx, Message{Text: strings.Join(lines, "\n")})
	}
}

// NewCalcHandler answers /calc <entry> <leverage> <balance>.
func NewCalcHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)
		usage := Message{Text: t.T(i18n.KeyErrorFormat, t.T(i18n.KeyCalcUsage))}

		values, ok := parseFloats(req.Update.Args, 3)
		if !ok {
			return req.Reply.Send(ctx, usage)
		}

		position := calculator.ComputePosition(values[0], values[1], values[2])
		text := t.T(i18n.KeyCalcPositionSize, formatNumber(position.Size)) + "\n" +
			t.T(i18n.KeyCalcLiquidationPrice, position.LiquidationPrice)

		return req.Reply.Send(ctx, Message{Text: text})
	}
}

func parseFloats(args []string, want int) ([]float64, bool) {
	if len(args) != want {
		return nil, false
	}

	values := make([]float64, 0, want)
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

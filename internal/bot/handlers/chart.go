package handlers

import (
	"context"
	"log/slog"

	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
	"github.com/Proton-105/cryptoassist-bot/internal/market"
)

// NewChartHandler offers the popular tokens to chart.
func NewChartHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)
		return req.Reply.Send(ctx, Message{
			Text:    t.T(i18n.KeyChartSelectToken),
			Buttons: deps.Keyboard.Tokens(market.PopularTokens),
		})
	}
}

// NewChartCallback answers a chart_<coin id> button with a chart and the coin description.
func NewChartCallback(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)
		coinID := req.Update.Callback.Arg

		if _, err := market.LookupToken(coinID); err != nil {
			if err := req.Reply.Send(ctx, Message{Text: t.T(messageKey(err))}); err != nil {
				return err
			}
			return req.Reply.Ack(ctx)
		}

		photo, description, err := buildChart(ctx, deps, req, coinID)
		if err != nil {
			deps.logger().Warn("chart callback: failed to build chart",
				slog.Int64("telegram_id", req.Update.UserID),
				slog.String("coin_id", coinID),
				slog.Any("error", err),
			)
			if sendErr := req.Reply.Send(ctx, Message{Text: t.T(i18n.KeyChartError, errorDetail(err))}); sendErr != nil {
				return sendErr
			}
			return req.Reply.Ack(ctx)
		}

		if err := req.Reply.SendPhoto(ctx, photo); err != nil {
			return err
		}

		if description == "" {
			description = t.T(i18n.KeyChartDescriptionUnavailable)
		}
		if err := req.Reply.Send(ctx, Message{Text: t.T(i18n.KeyChartDescription) + "\n" + description}); err != nil {
			return err
		}

		return req.Reply.Ack(ctx)
	}
}

func buildChart(ctx context.Context, deps Deps, req *Request, coinID string) (Photo, string, error) {
	history, err := deps.Market.FetchPriceHistory(ctx, coinID, deps.Currency, deps.Charts.Days())
	if err != nil {
		return Photo{}, "", err
	}

	png, err := deps.Charts.Render(history, coinID, deps.Currency, req.Lang)
	if err != nil {
		return Photo{}, "", err
	}

	description, err := deps.Market.FetchDescription(ctx, coinID, req.Lang.String())
	if err != nil {
		return Photo{}, "", err
	}

	return Photo{
		Data:    png,
		Caption: deps.Charts.Caption(coinID, req.Lang),
	}, description, nil
}

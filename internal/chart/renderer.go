// Package chart renders price history as a PNG line chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
	"github.com/Proton-105/cryptoassist-bot/internal/market"
)

// ErrNotEnoughPoints is returned when a series cannot be drawn as a line.
var ErrNotEnoughPoints = errors.New("chart: at least two price points are required")

const (
	width  = 800
	height = 400
)

// Texts is the subset of the catalog the renderer needs.
type Texts interface {
	Text(lang domain.Language, key string, args ...any) string
}

// Renderer draws localized price charts.
type Renderer struct {
	texts Texts
	days  int
}

func NewRenderer(texts Texts, days int) *Renderer {
	if days <= 0 {
		days = 7
	}

	return &Renderer{texts: texts, days: days}
}

// Days is the history window the renderer labels its charts with.
func (r *Renderer) Days() int {
	return r.days
}

// Caption is the text sent alongside a rendered chart.
func (r *Renderer) Caption(symbol string, lang domain.Language) string {
	return r.texts.Text(lang, i18n.KeyChartCaption, strings.ToUpper(symbol), r.days)
}

// Render draws history and returns PNG bytes.
func (r *Renderer) Render(history []market.PricePoint, symbol, currency string, lang domain.Language) ([]byte, error) {
	if len(history) < 2 {
		return nil, ErrNotEnoughPoints
	}

	xs := make([]time.Time, len(history))
	ys := make([]float64, len(history))
	for i, point := range history {
		xs[i] = point.Time
		ys[i] = point.Price
	}

	upperSymbol := strings.ToUpper(symbol)
	upperCurrency := strings.ToUpper(currency)

	graph := gochart.Chart{
		Title:  r.texts.Text(lang, i18n.KeyChartTitle, upperSymbol, r.days),
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           r.texts.Text(lang, i18n.KeyChartAxisDate),
			ValueFormatter: gochart.TimeValueFormatterWithFormat("Jan 02"),
			GridMajorStyle: gochart.Style{StrokeColor: drawing.ColorFromHex("dddddd"), StrokeWidth: 1},
		},
		YAxis: gochart.YAxis{
			Name:           r.texts.Text(lang, i18n.KeyChartAxisPrice, upperCurrency),
			GridMajorStyle: gochart.Style{StrokeColor: drawing.ColorFromHex("dddddd"), StrokeWidth: 1},
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    upperSymbol,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", symbol, err)
	}

	return buf.Bytes(), nil
}

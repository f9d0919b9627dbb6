package market

import (
	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
)

// Token pairs a ticker shown to users with its CoinGecko coin id.
type Token struct {
	Symbol string
	ID     string
}

// PopularTokens are offered by the chart picker, in display order.
var PopularTokens = []Token{
	{Symbol: "BTC", ID: "bitcoin"},
	{Symbol: "ETH", ID: "ethereum"},
	{Symbol: "SOL", ID: "solana"},
	{Symbol: "BNB", ID: "binancecoin"},
	{Symbol: "DOGE", ID: "dogecoin"},
}

// LookupToken finds a popular token by coin id. Unknown ids are lookup misses.
func LookupToken(id string) (Token, error) {
	for _, token := range PopularTokens {
		if token.ID == id {
			return token, nil
		}
	}
	return Token{}, apperrors.NewLookupMiss("coin "+id, i18n.KeyChartTokenNotFound)
}

// Package dashboard turns gateway results and watchlist state into the data a
// presentation layer renders: coin table rows, detail stats, chart points and
// transient notices.
package dashboard

import (
	"math"
	"strings"

	"coinlook-api/pkg/format"
	"coinlook-api/pkg/market"
)

// NoResults is shown in place of an empty coin table.
const NoResults = "No results found."

// CoinRow is one formatted line of a coin table.
type CoinRow struct {
	ID              string  `json:"id"`
	Rank            string  `json:"rank"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Image           string  `json:"image,omitempty"`
	Price           string  `json:"price"`
	PriceValue      float64 `json:"price_value"`
	Change24h       string  `json:"change_24h"`
	ChangeDirection string  `json:"change_direction"`
	MarketCap       string  `json:"market_cap"`
	Volume          string  `json:"volume"`
	Watched         bool    `json:"watched"`
}

// Direction labels for a price change.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// FilterCoins keeps coins whose name or symbol contains term, ignoring case.
// An empty term keeps everything.
func FilterCoins(coins []market.CoinMarket, term string) []market.CoinMarket {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return coins
	}
	out := make([]market.CoinMarket, 0, len(coins))
	for _, coin := range coins {
		if strings.Contains(strings.ToLower(coin.Name), term) || strings.Contains(strings.ToLower(coin.Symbol), term) {
			out = append(out, coin)
		}
	}
	return out
}

// BuildRows formats coins for display. watched may be nil.
func BuildRows(coins []market.CoinMarket, watched func(id string) bool) []CoinRow {
	rows := make([]CoinRow, 0, len(coins))
	for _, coin := range coins {
		row := CoinRow{
			ID:              coin.ID,
			Rank:            format.Rank(coin.MarketCapRank),
			Name:            coin.Name,
			Symbol:          strings.ToUpper(coin.Symbol),
			Image:           coin.Image,
			Price:           format.Currency(coin.CurrentPrice),
			PriceValue:      coin.CurrentPrice,
			Change24h:       format.Percentage(math.Abs(coin.PriceChangePercentage24h)),
			ChangeDirection: direction(coin.PriceChangePercentage24h),
			MarketCap:       format.LargeNumber(coin.MarketCap),
			Volume:          format.LargeNumber(coin.TotalVolume),
		}
		if watched != nil {
			row.Watched = watched(coin.ID)
		}
		rows = append(rows, row)
	}
	return rows
}

func direction(change float64) string {
	if change < 0 {
		return DirectionDown
	}
	return DirectionUp
}

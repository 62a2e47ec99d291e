package market

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChartRanges lists the supported chart lookback windows in days.
var ChartRanges = []int{1, 7, 30, 90}

// MarketsPageSize is the number of coins requested per markets page.
const MarketsPageSize = 50

// CoinMarket is a per-coin market snapshot as returned by the markets listing.
type CoinMarket struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             float64  `json:"current_price"`
	MarketCap                float64  `json:"market_cap"`
	MarketCapRank            int      `json:"market_cap_rank"`
	TotalVolume              float64  `json:"total_volume"`
	High24h                  float64  `json:"high_24h"`
	Low24h                   float64  `json:"low_24h"`
	PriceChange24h           float64  `json:"price_change_24h"`
	PriceChangePercentage24h float64  `json:"price_change_percentage_24h"`
	CirculatingSupply        float64  `json:"circulating_supply"`
	TotalSupply              *float64 `json:"total_supply"`
	MaxSupply                *float64 `json:"max_supply"`
	LastUpdated              string   `json:"last_updated"`
}

// CurrencyMap holds a value per quote currency, e.g. {"usd": 67000}.
type CurrencyMap map[string]float64

// In returns the value for currency, or zero when absent.
func (m CurrencyMap) In(currency string) float64 {
	if m == nil {
		return 0
	}
	return m[currency]
}

// CoinDetail is the full record for one coin.
type CoinDetail struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	GenesisDate string `json:"genesis_date"`
	Image       struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	Description struct {
		En string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage       []string `json:"homepage"`
		BlockchainSite []string `json:"blockchain_site"`
	} `json:"links"`
	MarketData CoinMarketData `json:"market_data"`
}

// CoinMarketData carries the extended metrics of a coin detail.
type CoinMarketData struct {
	CurrentPrice             CurrencyMap `json:"current_price"`
	MarketCap                CurrencyMap `json:"market_cap"`
	TotalVolume              CurrencyMap `json:"total_volume"`
	High24h                  CurrencyMap `json:"high_24h"`
	Low24h                   CurrencyMap `json:"low_24h"`
	ATH                      CurrencyMap `json:"ath"`
	MarketCapRank            int         `json:"market_cap_rank"`
	PriceChangePercentage24h float64     `json:"price_change_percentage_24h"`
	CirculatingSupply        float64     `json:"circulating_supply"`
	TotalSupply              *float64    `json:"total_supply"`
	MaxSupply                *float64    `json:"max_supply"`
}

// ChartPoint is one sample of a chart series.
type ChartPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ChartSeries is a historical series for a lookback window, oldest first.
type ChartSeries struct {
	CoinID       string       `json:"coin_id"`
	Days         int          `json:"days"`
	Prices       []ChartPoint `json:"prices"`
	MarketCaps   []ChartPoint `json:"market_caps"`
	TotalVolumes []ChartPoint `json:"total_volumes"`
}

// RawChart mirrors the provider payload: arrays of [unix millis, value] pairs.
type RawChart struct {
	Prices       [][]json.Number `json:"prices"`
	MarketCaps   [][]json.Number `json:"market_caps"`
	TotalVolumes [][]json.Number `json:"total_volumes"`
}

// Series converts the raw pairs into a ChartSeries.
func (r RawChart) Series(coinID string, days int) (*ChartSeries, error) {
	prices, err := convertPairs(r.Prices)
	if err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}
	caps, err := convertPairs(r.MarketCaps)
	if err != nil {
		return nil, fmt.Errorf("market_caps: %w", err)
	}
	volumes, err := convertPairs(r.TotalVolumes)
	if err != nil {
		return nil, fmt.Errorf("total_volumes: %w", err)
	}
	return &ChartSeries{
		CoinID:       coinID,
		Days:         days,
		Prices:       prices,
		MarketCaps:   caps,
		TotalVolumes: volumes,
	}, nil
}

func convertPairs(pairs [][]json.Number) ([]ChartPoint, error) {
	points := make([]ChartPoint, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) < 2 {
			return nil, fmt.Errorf("sample %d: expected [time, value], got %d fields", i, len(pair))
		}
		// The provider reports gaps as null values.
		if pair[1] == "" {
			continue
		}
		ms, err := pair[0].Float64()
		if err != nil {
			return nil, fmt.Errorf("sample %d: time: %w", i, err)
		}
		value, err := pair[1].Float64()
		if err != nil {
			return nil, fmt.Errorf("sample %d: value: %w", i, err)
		}
		points = append(points, ChartPoint{
			Time:  time.UnixMilli(int64(ms)).UTC(),
			Value: value,
		})
	}
	return points, nil
}

// ValidChartRange reports whether days is one of ChartRanges.
func ValidChartRange(days int) bool {
	for _, d := range ChartRanges {
		if d == days {
			return true
		}
	}
	return false
}

package dashboard

import (
	"context"
	"strings"
	"sync"

	"coinlook-api/pkg/market"
)

type marketsCall struct {
	page int
	ids  []string
}

// fakeGateway serves canned data. Hooks override the default handlers.
type fakeGateway struct {
	mu    sync.Mutex
	calls []marketsCall
	coins []market.CoinMarket

	markets func(ctx context.Context, page int, ids []string) market.Result[[]market.CoinMarket]
	detail  func(ctx context.Context, id string) market.Result[*market.CoinDetail]
	chart   func(ctx context.Context, id string, days int) market.Result[*market.ChartSeries]
}

func (f *fakeGateway) FetchMarkets(ctx context.Context, page int, ids []string) market.Result[[]market.CoinMarket] {
	f.mu.Lock()
	f.calls = append(f.calls, marketsCall{page: page, ids: append([]string(nil), ids...)})
	hook := f.markets
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx, page, ids)
	}
	if len(ids) == 0 {
		return market.Ok(f.coins)
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []market.CoinMarket
	for _, c := range f.coins {
		if wanted[c.ID] {
			out = append(out, c)
		}
	}
	return market.Ok(out)
}

func (f *fakeGateway) FetchCoinDetail(ctx context.Context, id string) market.Result[*market.CoinDetail] {
	if f.detail != nil {
		return f.detail(ctx, id)
	}
	return market.Fail[*market.CoinDetail](market.KindUpstream, "coin not found")
}

func (f *fakeGateway) FetchChart(ctx context.Context, id string, days int) market.Result[*market.ChartSeries] {
	if f.chart != nil {
		return f.chart(ctx, id, days)
	}
	return market.Fail[*market.ChartSeries](market.KindUpstream, "no chart")
}

func (f *fakeGateway) marketsCalls() []marketsCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]marketsCall(nil), f.calls...)
}

func coin(id, symbol string, rank int, price, change float64) market.CoinMarket {
	return market.CoinMarket{
		ID:                       id,
		Symbol:                   symbol,
		Name:                     strings.ToUpper(id[:1]) + id[1:],
		MarketCapRank:            rank,
		CurrentPrice:             price,
		PriceChangePercentage24h: change,
		MarketCap:                price * 1e7,
		TotalVolume:              price * 1e6,
	}
}

var sampleCoins = []market.CoinMarket{
	coin("bitcoin", "btc", 1, 67000.5, -1.25),
	coin("ethereum", "eth", 2, 3500.25, 2.5),
	coin("bitcoin-cash", "bch", 20, 450, 0.1),
	coin("solana", "sol", 5, 150.75, 4.2),
}

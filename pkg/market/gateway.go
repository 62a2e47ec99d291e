package market

import "context"

// Gateway exposes the provider's read endpoints. Implementations never return
// bare errors: every outcome is a Result.
type Gateway interface {
	// FetchMarkets returns one page of coins ordered by market cap, optionally
	// restricted to ids.
	FetchMarkets(ctx context.Context, page int, ids []string) Result[[]CoinMarket]
	// FetchCoinDetail returns the full record for one coin.
	FetchCoinDetail(ctx context.Context, id string) Result[*CoinDetail]
	// FetchChart returns a price history covering the last days days.
	FetchChart(ctx context.Context, id string, days int) Result[*ChartSeries]
}

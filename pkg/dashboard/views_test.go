package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinlook-api/pkg/market"
	"coinlook-api/pkg/watchlist"
)

func newStore(t *testing.T, ids ...string) *watchlist.Store {
	t.Helper()
	ctx := context.Background()
	store := watchlist.NewStore(watchlist.NewMemoryStorage())
	store.Initialize(ctx)
	for _, id := range ids {
		store.Toggle(ctx, id)
	}
	return store
}

func rowIDs(rows []CoinRow) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestMarketsViewLoadAndWatchedFlag(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	view := NewMarketsView(gw, newStore(t, "solana"))
	defer view.Close()

	view.Load(context.Background())
	state := view.State()
	assert.Equal(t, 1, state.Page)
	assert.False(t, state.Loading)
	assert.False(t, state.CanPrev)
	require.Len(t, state.Rows, 4)
	assert.True(t, state.Rows[3].Watched)
	assert.False(t, state.Rows[0].Watched)
}

func TestMarketsViewLoadingUntilWatchlistInitialized(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	store := watchlist.NewStore(nil)
	view := NewMarketsView(gw, store)
	defer view.Close()

	view.Load(context.Background())
	assert.True(t, view.State().Loading)
	store.Initialize(context.Background())
	assert.False(t, view.State().Loading)
}

func TestMarketsViewDebouncedSearch(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	var changes atomic.Int32
	view := NewMarketsView(gw, nil,
		WithSearchDelay(40*time.Millisecond),
		WithOnChange(func() { changes.Add(1) }))
	defer view.Close()
	view.Load(context.Background())
	before := view.FilterPasses()

	view.SetSearch("b")
	view.SetSearch("bi")
	view.SetSearch("bit")
	assert.Equal(t, "bit", view.State().Search, "typed input is visible immediately")
	assert.Len(t, view.State().Rows, 4, "rows are unfiltered until the quiet period ends")

	require.Eventually(t, func() bool { return changes.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, before+1, view.FilterPasses(), "one filter pass for the whole burst")
	assert.EqualValues(t, 1, changes.Load())

	state := view.State()
	assert.Equal(t, "bit", state.Applied)
	assert.Equal(t, []string{"bitcoin", "bitcoin-cash"}, rowIDs(state.Rows))
	assert.Len(t, gw.marketsCalls(), 1, "search never hits the gateway")
}

func TestMarketsViewSearchNoResults(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	view := NewMarketsView(gw, nil, WithSearchDelay(0))
	defer view.Close()
	view.Load(context.Background())

	view.SetSearch("zzz")
	state := view.State()
	assert.True(t, state.Empty)
	assert.Empty(t, state.Rows)
}

func TestMarketsViewChangePageResetsSearch(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	view := NewMarketsView(gw, nil, WithSearchDelay(time.Hour))
	defer view.Close()
	view.Load(context.Background())

	view.SetSearch("bit")
	view.FlushSearch()
	view.SetSearch("eth")

	view.Next(context.Background())
	state := view.State()
	assert.Equal(t, 2, state.Page)
	assert.True(t, state.CanPrev)
	assert.Empty(t, state.Search)
	assert.Empty(t, state.Applied)
	assert.Len(t, state.Rows, 4)
	assert.False(t, view.FlushSearch(), "pending input was dropped by the page change")

	calls := gw.marketsCalls()
	assert.Equal(t, 2, calls[len(calls)-1].page)
}

func TestMarketsViewStaleSearchAfterPageChange(t *testing.T) {
	var events atomic.Int32
	gw := &fakeGateway{coins: sampleCoins}
	view := NewMarketsView(gw, nil, WithSearchDelay(time.Hour), WithOnChange(func() { events.Add(1) }))
	defer view.Close()
	view.Load(context.Background())

	view.SetSearch("bit")
	view.Next(context.Background())
	// A debounce callback that fired before the page change but reached the
	// lock after it.
	view.applySearch("bit")

	state := view.State()
	assert.Equal(t, 2, state.Page)
	assert.Empty(t, state.Search)
	assert.Empty(t, state.Applied)
	assert.Len(t, state.Rows, len(sampleCoins))
	assert.Zero(t, events.Load())
}

func TestMarketsViewPrevOnFirstPageIsNoop(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	view := NewMarketsView(gw, nil)
	defer view.Close()
	view.Load(context.Background())

	view.Prev(context.Background())
	assert.Len(t, gw.marketsCalls(), 1)
	assert.Equal(t, 1, view.Page())
}

func TestMarketsViewPageFailureKeepsCoins(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	view := NewMarketsView(gw, nil)
	defer view.Close()
	view.Load(context.Background())

	gw.mu.Lock()
	gw.markets = func(context.Context, int, []string) market.Result[[]market.CoinMarket] {
		return market.Fail[[]market.CoinMarket](market.KindUpstream, "You've exceeded the Rate Limit.")
	}
	gw.mu.Unlock()

	view.Next(context.Background())
	state := view.State()
	assert.Equal(t, 1, state.Page)
	assert.Len(t, state.Rows, 4)
	require.NotNil(t, state.Notice)
	assert.Equal(t, TitleMarkets, state.Notice.Title)
	assert.Equal(t, "You've exceeded the Rate Limit.", state.Notice.Message)
	assert.Empty(t, state.Error)

	view.DismissNotice()
	assert.Nil(t, view.State().Notice)
}

func TestMarketsViewInitialFailureIsInline(t *testing.T) {
	gw := &fakeGateway{markets: func(context.Context, int, []string) market.Result[[]market.CoinMarket] {
		return market.Fail[[]market.CoinMarket](market.KindConfig, market.MsgMissingAPIKey)
	}}
	view := NewMarketsView(gw, nil)
	defer view.Close()

	view.Load(context.Background())
	state := view.State()
	assert.Equal(t, market.MsgMissingAPIKey, state.Error)
	assert.Empty(t, state.Rows)
	assert.Nil(t, state.Notice)
}

func TestMarketsViewDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := &fakeGateway{}
	gw.markets = func(_ context.Context, page int, _ []string) market.Result[[]market.CoinMarket] {
		if page == 2 {
			close(started)
			// Resolves late regardless of cancellation.
			<-release
			return market.Ok([]market.CoinMarket{coin("stale", "old", 51, 1, 0)})
		}
		return market.Ok([]market.CoinMarket{coin(fmt.Sprintf("page%d", page), "new", 101, 1, 0)})
	}
	view := NewMarketsView(gw, nil)
	defer view.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		view.ChangePage(context.Background(), 2)
	}()
	<-started

	view.ChangePage(context.Background(), 3)
	assert.Equal(t, 3, view.Page())

	close(release)
	wg.Wait()

	state := view.State()
	assert.Equal(t, 3, state.Page)
	assert.Equal(t, []string{"page3"}, rowIDs(state.Rows))
	assert.False(t, state.Loading)
}

func TestSequencerCancelsPrevious(t *testing.T) {
	var seq Sequencer
	first, t1 := seq.Begin(context.Background())
	second, t2 := seq.Begin(context.Background())

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.False(t, seq.Current(t1))
	assert.True(t, seq.Current(t2))

	seq.Finish(t1)
	assert.NoError(t, second.Err(), "finishing a stale ticket leaves the current request alone")
	seq.Finish(t2)
	assert.ErrorIs(t, second.Err(), context.Canceled)

	seq.Stop()
	assert.False(t, seq.Current(t2))
}

func TestLoadWatchlistSkipsMissingCoins(t *testing.T) {
	gw := &fakeGateway{coins: []market.CoinMarket{coin("bitcoin", "btc", 1, 67000, 1)}}
	store := newStore(t, "bitcoin", "ethereum")

	page, failure := LoadWatchlist(context.Background(), gw, store)
	assert.Nil(t, failure)
	assert.Empty(t, page.Error)
	assert.False(t, page.Empty)
	assert.Equal(t, []string{"bitcoin"}, rowIDs(page.Rows))
	assert.True(t, page.Rows[0].Watched)
	calls := gw.marketsCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"bitcoin", "ethereum"}, calls[0].ids)
}

func TestLoadWatchlistEmptySkipsGateway(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	page, failure := LoadWatchlist(context.Background(), gw, newStore(t))
	assert.Nil(t, failure)
	assert.True(t, page.Empty)
	assert.Empty(t, page.Rows)
	assert.Empty(t, gw.marketsCalls())
}

func TestLoadWatchlistBatchesLargeLists(t *testing.T) {
	ids := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		ids = append(ids, fmt.Sprintf("coin-%03d", i))
	}
	gw := &fakeGateway{}
	page, failure := LoadWatchlist(context.Background(), gw, newStore(t, ids...))
	assert.Nil(t, failure)
	assert.Empty(t, page.Error)

	calls := gw.marketsCalls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[0].ids, 50)
	assert.Len(t, calls[1].ids, 50)
	assert.Len(t, calls[2].ids, 20)
	for _, c := range calls {
		assert.Equal(t, 1, c.page)
	}
}

func TestWatchlistViewFailureKeepsRows(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	store := newStore(t, "bitcoin")
	view := NewWatchlistView(gw, store)
	defer view.Close()

	view.Refresh(context.Background())
	require.Equal(t, []string{"bitcoin"}, rowIDs(view.State().Rows))

	gw.mu.Lock()
	gw.markets = func(context.Context, int, []string) market.Result[[]market.CoinMarket] {
		return market.Fail[[]market.CoinMarket](market.KindNetwork, market.MsgNetwork)
	}
	gw.mu.Unlock()

	view.Toggle(context.Background(), "ethereum")
	state := view.State()
	assert.Equal(t, market.MsgNetwork, state.Error)
	assert.Equal(t, []string{"bitcoin"}, rowIDs(state.Rows))
	assert.Equal(t, []string{"bitcoin", "ethereum"}, state.IDs)
	assert.False(t, state.Loading)
}

func TestWatchlistViewToggleToEmpty(t *testing.T) {
	gw := &fakeGateway{coins: sampleCoins}
	store := newStore(t, "bitcoin")
	view := NewWatchlistView(gw, store)
	defer view.Close()
	view.Refresh(context.Background())

	view.Toggle(context.Background(), "bitcoin")
	state := view.State()
	assert.True(t, state.Empty)
	assert.Empty(t, state.Rows)
}

func sampleDetail() *market.CoinDetail {
	total := 21000000.0
	detail := &market.CoinDetail{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", GenesisDate: "2009-01-03"}
	detail.Image.Large = "https://img.example/btc.png"
	detail.Description.En = `Bitcoin is <a href="https://bitcoin.org">peer-to-peer</a> cash.`
	detail.Links.Homepage = []string{"", "https://bitcoin.org"}
	detail.MarketData = market.CoinMarketData{
		CurrentPrice:             market.CurrencyMap{"usd": 67000.5},
		MarketCap:                market.CurrencyMap{"usd": 1.32e12},
		TotalVolume:              market.CurrencyMap{"usd": 2.1e10},
		MarketCapRank:            1,
		PriceChangePercentage24h: 2.345,
		CirculatingSupply:        19687543,
		TotalSupply:              &total,
	}
	return detail
}

func TestBuildCoinPage(t *testing.T) {
	page := BuildCoinPage(sampleDetail(), "usd", true)
	assert.Equal(t, "BTC", page.Symbol)
	assert.Equal(t, "$67,000.50", page.Price)
	assert.Equal(t, "2.35%", page.Change24h)
	assert.Equal(t, DirectionUp, page.ChangeDirection)
	assert.True(t, page.Watched)
	assert.Equal(t, "https://bitcoin.org", page.Homepage)
	assert.Equal(t, []Stat{
		{"Market Cap Rank", "#1"},
		{"Market Cap", "$1.32T"},
		{"24h Trading Vol", "$21.00B"},
		{"Circulating Supply", "19,687,543"},
		{"Total Supply", "21,000,000"},
		{"Max Supply", "∞"},
	}, page.Stats)
	assert.Equal(t,
		`Bitcoin is <a target="_blank" rel="noopener noreferrer" href="https://bitcoin.org">peer-to-peer</a> cash.`,
		page.DescriptionHTML)
}

func TestDetailViewWatchedFollowsStore(t *testing.T) {
	gw := &fakeGateway{detail: func(context.Context, string) market.Result[*market.CoinDetail] {
		return market.Ok(sampleDetail())
	}}
	store := newStore(t)
	view := NewDetailView(gw, store, "")
	defer view.Close()

	view.Load(context.Background(), "bitcoin")
	require.NotNil(t, view.State().Coin)
	assert.False(t, view.State().Coin.Watched)

	view.Toggle(context.Background())
	assert.True(t, view.State().Coin.Watched)
	assert.True(t, store.Contains("bitcoin"))
}

func TestDetailViewFailure(t *testing.T) {
	view := NewDetailView(&fakeGateway{}, newStore(t), "usd")
	defer view.Close()

	view.Load(context.Background(), "nope")
	state := view.State()
	assert.Nil(t, state.Coin)
	assert.Equal(t, "coin not found", state.Error)

	view.Toggle(context.Background())
}

func series(id string, days int, values ...float64) *market.ChartSeries {
	start := time.Date(2024, 3, 1, 15, 4, 0, 0, time.UTC)
	s := &market.ChartSeries{CoinID: id, Days: days}
	for i, v := range values {
		s.Prices = append(s.Prices, market.ChartPoint{Time: start.Add(time.Duration(i) * time.Hour), Value: v})
	}
	return s
}

func TestBuildChartPage(t *testing.T) {
	intraday := BuildChartPage(series("bitcoin", 1, 100, 110))
	assert.Equal(t, "24H", intraday.Range)
	require.Len(t, intraday.Points, 2)
	assert.Equal(t, "3:04 PM", intraday.Points[0].Label)
	assert.Equal(t, "$100.00", intraday.Points[0].Text)
	assert.InDelta(t, 10.0, intraday.Summary.ChangePct, 1e-9)

	weekly := BuildChartPage(series("bitcoin", 7, 0.5))
	assert.Equal(t, "7D", weekly.Range)
	assert.Equal(t, "Mar 1", weekly.Points[0].Label)
	assert.Equal(t, "$0.50", weekly.Points[0].Text)
}

func TestChartViewRangeFailureKeepsPreviousRange(t *testing.T) {
	gw := &fakeGateway{chart: func(_ context.Context, id string, days int) market.Result[*market.ChartSeries] {
		if days == 90 {
			return market.Fail[*market.ChartSeries](market.KindNetwork, market.MsgNetwork)
		}
		return market.Ok(series(id, days, 1, 2, 3))
	}}
	view := NewChartView(gw, "bitcoin")
	defer view.Close()

	view.Load(context.Background())
	state := view.State()
	assert.Equal(t, DefaultChartDays, state.Days)
	assert.Equal(t, []int{1, 7, 30, 90}, state.Ranges)
	require.NotNil(t, state.Chart)

	view.SetRange(context.Background(), 30)
	assert.Equal(t, 30, view.State().Chart.Days)

	view.SetRange(context.Background(), 90)
	state = view.State()
	assert.Equal(t, 30, state.Days)
	assert.Equal(t, 30, state.Chart.Days)
	require.NotNil(t, state.Notice)
	assert.Equal(t, TitleChart, state.Notice.Title)

	view.DismissNotice()
	assert.Nil(t, view.State().Notice)
}

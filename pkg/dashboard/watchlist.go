package dashboard

import (
	"context"
	"sync"

	"coinlook-api/pkg/market"
	"coinlook-api/pkg/watchlist"
)

// Empty watchlist copy.
const (
	EmptyWatchlistTitle = "Your watchlist is empty"
	EmptyWatchlistHint  = "Add coins from the markets page to see them here."
)

// WatchlistPage is the rendered watchlist.
type WatchlistPage struct {
	IDs   []string  `json:"ids"`
	Rows  []CoinRow `json:"rows"`
	Empty bool      `json:"empty"`
	Error string    `json:"error,omitempty"`
}

// LoadWatchlist resolves the store's ids into market rows. Ids the provider
// does not return are skipped. More ids than one markets page holds are
// fetched in several calls. On failure the page carries the message and no rows.
func LoadWatchlist(ctx context.Context, gateway market.Gateway, store *watchlist.Store) (WatchlistPage, *market.Failure) {
	ids := store.IDs()
	page := WatchlistPage{IDs: ids, Rows: []CoinRow{}}
	if len(ids) == 0 {
		page.Empty = true
		return page, nil
	}

	var coins []market.CoinMarket
	for start := 0; start < len(ids); start += market.MarketsPageSize {
		end := min(start+market.MarketsPageSize, len(ids))
		res := gateway.FetchMarkets(ctx, 1, ids[start:end])
		if !res.OK() {
			page.Error = res.Failure.Message
			return page, res.Failure
		}
		coins = append(coins, res.Data...)
	}
	page.Rows = BuildRows(coins, store.Contains)
	return page, nil
}

// WatchlistState is a point-in-time copy of a WatchlistView.
type WatchlistState struct {
	WatchlistPage
	Loading bool `json:"loading"`
}

// WatchlistView keeps the last loaded watchlist page. While a reload is in
// flight or fails, the previous rows stay visible.
type WatchlistView struct {
	gateway market.Gateway
	store   *watchlist.Store
	seq     Sequencer

	mu      sync.Mutex
	page    WatchlistPage
	loading bool
}

func NewWatchlistView(gateway market.Gateway, store *watchlist.Store) *WatchlistView {
	return &WatchlistView{
		gateway: gateway,
		store:   store,
		page:    WatchlistPage{Rows: []CoinRow{}},
		loading: true,
	}
}

// Refresh reloads rows for the current ids.
func (v *WatchlistView) Refresh(ctx context.Context) {
	ctx, ticket := v.seq.Begin(ctx)
	defer v.seq.Finish(ticket)
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	page, failure := LoadWatchlist(ctx, v.gateway, v.store)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seq.Current(ticket) {
		return
	}
	v.loading = false
	if failure != nil {
		v.page.IDs = page.IDs
		v.page.Error = page.Error
		return
	}
	v.page = page
}

// Toggle flips id and reloads the page.
func (v *WatchlistView) Toggle(ctx context.Context, id string) {
	v.store.Toggle(ctx, id)
	v.Refresh(ctx)
}

func (v *WatchlistView) State() WatchlistState {
	v.mu.Lock()
	defer v.mu.Unlock()
	page := v.page
	page.Rows = append([]CoinRow{}, v.page.Rows...)
	page.IDs = append([]string{}, v.page.IDs...)
	return WatchlistState{WatchlistPage: page, Loading: v.loading || !v.store.Initialized()}
}

func (v *WatchlistView) Close() {
	v.seq.Stop()
}

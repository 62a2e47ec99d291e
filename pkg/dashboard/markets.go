package dashboard

import (
	"context"
	"sync"
	"time"

	"coinlook-api/pkg/debounce"
	"coinlook-api/pkg/market"
	"coinlook-api/pkg/watchlist"
)

// SearchDelay is the quiet period before typed search input is applied.
const SearchDelay = 300 * time.Millisecond

// MarketsState is a point-in-time copy of a MarketsView.
type MarketsState struct {
	Page    int       `json:"page"`
	Search  string    `json:"search"`
	Applied string    `json:"applied_search"`
	Rows    []CoinRow `json:"rows"`
	Empty   bool      `json:"empty"`
	Loading bool      `json:"loading"`
	CanPrev bool      `json:"can_prev"`
	Error   string    `json:"error,omitempty"`
	Notice  *Notice   `json:"notice,omitempty"`
}

// MarketsView pages through the markets listing and filters the loaded page
// by a debounced search term.
type MarketsView struct {
	gateway market.Gateway
	store   *watchlist.Store
	seq     Sequencer
	search  *debounce.Debouncer[string]
	onEvent func()

	mu       sync.Mutex
	page     int
	coins    []market.CoinMarket
	filtered []market.CoinMarket
	term     string
	applied  string
	loading  bool
	errMsg   string
	notice   *Notice
	passes   int
}

type marketsConfig struct {
	delay    time.Duration
	onChange func()
}

// MarketsOption customises a MarketsView.
type MarketsOption func(*marketsConfig)

// WithSearchDelay overrides SearchDelay.
func WithSearchDelay(d time.Duration) MarketsOption {
	return func(c *marketsConfig) { c.delay = d }
}

// WithOnChange registers a callback invoked after asynchronous state changes,
// such as a debounced search being applied.
func WithOnChange(fn func()) MarketsOption {
	return func(c *marketsConfig) { c.onChange = fn }
}

// NewMarketsView returns a view on page 1 with nothing loaded. store may be nil.
func NewMarketsView(gateway market.Gateway, store *watchlist.Store, opts ...MarketsOption) *MarketsView {
	cfg := marketsConfig{delay: SearchDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	v := &MarketsView{
		gateway: gateway,
		store:   store,
		onEvent: cfg.onChange,
		page:    1,
	}
	v.search = debounce.New(cfg.delay, v.applySearch)
	return v
}

// Load fetches the first page. A failure replaces the table with an inline error.
func (v *MarketsView) Load(ctx context.Context) {
	ctx, ticket := v.seq.Begin(ctx)
	defer v.seq.Finish(ticket)
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	res := v.gateway.FetchMarkets(ctx, 1, nil)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seq.Current(ticket) {
		return
	}
	v.loading = false
	v.page = 1
	if !res.OK() {
		v.errMsg = res.Failure.Message
		v.setCoins(nil)
		return
	}
	v.errMsg = ""
	v.setCoins(res.Data)
}

// ChangePage loads page and clears the search on success. A failure leaves the
// current page and coins in place and raises a notice. Pages below 1 are ignored.
func (v *MarketsView) ChangePage(ctx context.Context, page int) {
	if page < 1 {
		return
	}
	ctx, ticket := v.seq.Begin(ctx)
	defer v.seq.Finish(ticket)
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	res := v.gateway.FetchMarkets(ctx, page, nil)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seq.Current(ticket) {
		return
	}
	v.loading = false
	if !res.OK() {
		v.notice = noticeFrom(TitleMarkets, res.Failure)
		return
	}
	v.page = page
	v.errMsg = ""
	v.search.Cancel()
	v.term, v.applied = "", ""
	v.setCoins(res.Data)
}

// Next loads the following page.
func (v *MarketsView) Next(ctx context.Context) {
	v.ChangePage(ctx, v.Page()+1)
}

// Prev loads the previous page; it does nothing on page 1.
func (v *MarketsView) Prev(ctx context.Context) {
	v.ChangePage(ctx, v.Page()-1)
}

// SetSearch records typed input. Filtering runs once the input has been quiet
// for the search delay.
func (v *MarketsView) SetSearch(term string) {
	v.mu.Lock()
	v.term = term
	v.mu.Unlock()
	v.search.Trigger(term)
}

// FlushSearch applies pending search input immediately.
func (v *MarketsView) FlushSearch() bool {
	return v.search.Flush()
}

// applySearch runs when the debounce fires. A term that no longer matches the
// input was superseded, either by newer typing or by a page change clearing it.
func (v *MarketsView) applySearch(term string) {
	v.mu.Lock()
	if term != v.term {
		v.mu.Unlock()
		return
	}
	v.applied = term
	v.refilter()
	v.mu.Unlock()
	if v.onEvent != nil {
		v.onEvent()
	}
}

// Toggle flips id in the watchlist.
func (v *MarketsView) Toggle(ctx context.Context, id string) {
	if v.store != nil {
		v.store.Toggle(ctx, id)
	}
}

// DismissNotice clears the current notice.
func (v *MarketsView) DismissNotice() {
	v.mu.Lock()
	v.notice = nil
	v.mu.Unlock()
}

func (v *MarketsView) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// FilterPasses counts how many times the filter has been evaluated.
func (v *MarketsView) FilterPasses() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.passes
}

// State returns a snapshot for rendering. The table reads as loading until the
// watchlist has been initialised.
func (v *MarketsView) State() MarketsState {
	v.mu.Lock()
	defer v.mu.Unlock()
	var watched func(string) bool
	initialized := true
	if v.store != nil {
		watched = v.store.Contains
		initialized = v.store.Initialized()
	}
	state := MarketsState{
		Page:    v.page,
		Search:  v.term,
		Applied: v.applied,
		Rows:    BuildRows(v.filtered, watched),
		Loading: v.loading || !initialized,
		CanPrev: v.page > 1,
		Error:   v.errMsg,
	}
	state.Empty = len(state.Rows) == 0 && !state.Loading
	if v.notice != nil {
		n := *v.notice
		state.Notice = &n
	}
	return state
}

// Close cancels pending search input and any in-flight request.
func (v *MarketsView) Close() {
	v.search.Stop()
	v.seq.Stop()
}

// setCoins must run with v.mu held.
func (v *MarketsView) setCoins(coins []market.CoinMarket) {
	v.coins = coins
	v.refilter()
}

// refilter must run with v.mu held.
func (v *MarketsView) refilter() {
	v.filtered = FilterCoins(v.coins, v.applied)
	v.passes++
}

package dashboard

import (
	"context"
	"strings"
	"sync"

	"coinlook-api/pkg/format"
	"coinlook-api/pkg/market"
	"coinlook-api/pkg/watchlist"
)

// Stat is one labelled line of the market stats card.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CoinPage is the rendered coin detail.
type CoinPage struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Image           string `json:"image,omitempty"`
	Price           string `json:"price"`
	Change24h       string `json:"change_24h"`
	ChangeDirection string `json:"change_direction"`
	Watched         bool   `json:"watched"`
	Stats           []Stat `json:"stats"`
	DescriptionHTML string `json:"description_html,omitempty"`
	Homepage        string `json:"homepage,omitempty"`
	GenesisDate     string `json:"genesis_date,omitempty"`
}

// BuildCoinPage formats detail for display, reading values in currency.
func BuildCoinPage(detail *market.CoinDetail, currency string, watched bool) CoinPage {
	md := detail.MarketData
	page := CoinPage{
		ID:              detail.ID,
		Name:            detail.Name,
		Symbol:          strings.ToUpper(detail.Symbol),
		Image:           detail.Image.Large,
		Price:           format.Currency(md.CurrentPrice.In(currency)),
		Change24h:       format.Percentage(md.PriceChangePercentage24h),
		ChangeDirection: direction(md.PriceChangePercentage24h),
		Watched:         watched,
		Stats: []Stat{
			{Label: "Market Cap Rank", Value: format.Rank(md.MarketCapRank)},
			{Label: "Market Cap", Value: format.LargeNumber(md.MarketCap.In(currency))},
			{Label: "24h Trading Vol", Value: format.LargeNumber(md.TotalVolume.In(currency))},
			{Label: "Circulating Supply", Value: format.Grouped(md.CirculatingSupply)},
			{Label: "Total Supply", Value: format.Supply(md.TotalSupply, "N/A")},
			{Label: "Max Supply", Value: format.Supply(md.MaxSupply, "∞")},
		},
		DescriptionHTML: ExternalLinks(detail.Description.En),
		GenesisDate:     detail.GenesisDate,
	}
	for _, link := range detail.Links.Homepage {
		if link = strings.TrimSpace(link); link != "" {
			page.Homepage = link
			break
		}
	}
	return page
}

// ExternalLinks makes every anchor in html open in a new tab without an opener.
func ExternalLinks(html string) string {
	return strings.ReplaceAll(html, "<a href", `<a target="_blank" rel="noopener noreferrer" href`)
}

// DetailState is a point-in-time copy of a DetailView.
type DetailState struct {
	Coin    *CoinPage `json:"coin,omitempty"`
	Loading bool      `json:"loading"`
	Error   string    `json:"error,omitempty"`
}

// DetailView shows one coin. The watched flag is read live from the store.
type DetailView struct {
	gateway  market.Gateway
	store    *watchlist.Store
	currency string
	seq      Sequencer

	mu      sync.Mutex
	coin    *CoinPage
	loading bool
	errMsg  string
}

func NewDetailView(gateway market.Gateway, store *watchlist.Store, currency string) *DetailView {
	if currency == "" {
		currency = "usd"
	}
	return &DetailView{gateway: gateway, store: store, currency: currency}
}

// Load fetches id. A failure replaces the page with an inline error.
func (v *DetailView) Load(ctx context.Context, id string) {
	ctx, ticket := v.seq.Begin(ctx)
	defer v.seq.Finish(ticket)
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	res := v.gateway.FetchCoinDetail(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seq.Current(ticket) {
		return
	}
	v.loading = false
	if !res.OK() {
		v.coin = nil
		v.errMsg = res.Failure.Message
		return
	}
	page := BuildCoinPage(res.Data, v.currency, false)
	v.coin = &page
	v.errMsg = ""
}

// Toggle flips the shown coin in the watchlist.
func (v *DetailView) Toggle(ctx context.Context) {
	v.mu.Lock()
	coin := v.coin
	v.mu.Unlock()
	if coin != nil {
		v.store.Toggle(ctx, coin.ID)
	}
}

func (v *DetailView) State() DetailState {
	v.mu.Lock()
	defer v.mu.Unlock()
	state := DetailState{Loading: v.loading, Error: v.errMsg}
	if v.coin != nil {
		page := *v.coin
		page.Stats = append([]Stat{}, v.coin.Stats...)
		page.Watched = v.store.Contains(page.ID)
		state.Coin = &page
	}
	return state
}

func (v *DetailView) Close() {
	v.seq.Stop()
}

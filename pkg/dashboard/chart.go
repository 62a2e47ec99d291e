package dashboard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"coinlook-api/pkg/format"
	"coinlook-api/pkg/market"
	"coinlook-api/pkg/market/indicators"
)

// DefaultChartDays is the range a chart opens with.
const DefaultChartDays = 1

// RangeLabel names a chart range for its toggle button.
func RangeLabel(days int) string {
	if days == 1 {
		return "24H"
	}
	return strconv.Itoa(days) + "D"
}

// ChartRow is one plotted sample.
type ChartRow struct {
	Time  time.Time `json:"time"`
	Label string    `json:"label"`
	Price float64   `json:"price"`
	Text  string    `json:"text"`
}

// ChartPage is the rendered chart for one range.
type ChartPage struct {
	CoinID  string             `json:"coin_id"`
	Days    int                `json:"days"`
	Range   string             `json:"range"`
	Points  []ChartRow         `json:"points"`
	Summary indicators.Summary `json:"summary"`
}

// BuildChartPage formats series. Axis labels show the time of day for the
// 24 hour range and the date otherwise.
func BuildChartPage(series *market.ChartSeries) ChartPage {
	layout := "Jan 2"
	if series.Days == 1 {
		layout = "3:04 PM"
	}
	rows := make([]ChartRow, len(series.Prices))
	for i, p := range series.Prices {
		rows[i] = ChartRow{
			Time:  p.Time,
			Label: p.Time.Format(layout),
			Price: p.Value,
			Text:  format.Currency(p.Value),
		}
	}
	return ChartPage{
		CoinID:  series.CoinID,
		Days:    series.Days,
		Range:   RangeLabel(series.Days),
		Points:  rows,
		Summary: indicators.Summarize(series.Prices),
	}
}

// ChartState is a point-in-time copy of a ChartView.
type ChartState struct {
	Days    int        `json:"days"`
	Ranges  []int      `json:"ranges"`
	Chart   *ChartPage `json:"chart,omitempty"`
	Loading bool       `json:"loading"`
	Notice  *Notice    `json:"notice,omitempty"`
}

// ChartView shows the price history of one coin for a selectable range.
type ChartView struct {
	gateway market.Gateway
	coinID  string
	seq     Sequencer

	mu      sync.Mutex
	days    int
	chart   *ChartPage
	loading bool
	notice  *Notice
}

func NewChartView(gateway market.Gateway, coinID string) *ChartView {
	return &ChartView{gateway: gateway, coinID: coinID, days: DefaultChartDays}
}

// Load fetches the current range.
func (v *ChartView) Load(ctx context.Context) {
	v.mu.Lock()
	days := v.days
	v.mu.Unlock()
	v.SetRange(ctx, days)
}

// SetRange switches to days. On failure a notice is raised and the previous
// range stays on screen.
func (v *ChartView) SetRange(ctx context.Context, days int) {
	ctx, ticket := v.seq.Begin(ctx)
	defer v.seq.Finish(ticket)
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	res := v.gateway.FetchChart(ctx, v.coinID, days)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seq.Current(ticket) {
		return
	}
	v.loading = false
	if !res.OK() {
		v.notice = noticeFrom(TitleChart, res.Failure)
		return
	}
	page := BuildChartPage(res.Data)
	v.chart = &page
	v.days = days
	v.notice = nil
}

func (v *ChartView) DismissNotice() {
	v.mu.Lock()
	v.notice = nil
	v.mu.Unlock()
}

func (v *ChartView) State() ChartState {
	v.mu.Lock()
	defer v.mu.Unlock()
	state := ChartState{
		Days:    v.days,
		Ranges:  append([]int{}, market.ChartRanges...),
		Chart:   v.chart,
		Loading: v.loading,
	}
	if v.notice != nil {
		n := *v.notice
		state.Notice = &n
	}
	return state
}

func (v *ChartView) Close() {
	v.seq.Stop()
}

package main

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"text/tabwriter"

	"coinlook-api/pkg/dashboard"
	"coinlook-api/pkg/market"
	"coinlook-api/pkg/watchlist"
)

const helpText = `commands:
  /<term>          filter the loaded page by name or symbol ("/" clears)
  n, p             next and previous markets page
  m                show the markets page again
  w <id>           add or remove a coin from the watchlist
  wl               show the watchlist
  d <id>           coin detail
  c <id> [days]    price chart, days one of 1, 7, 30, 90
  x                dismiss the current notice
  q                quit`

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// terminal drives the dashboard views from line commands.
type terminal struct {
	gateway  market.Gateway
	store    *watchlist.Store
	currency string
	out      io.Writer

	markets *dashboard.MarketsView
	chart   *dashboard.ChartView
	changes chan struct{}
}

func newTerminal(gw market.Gateway, store *watchlist.Store, currency string, out io.Writer, opts ...dashboard.MarketsOption) *terminal {
	t := &terminal{
		gateway:  gw,
		store:    store,
		currency: currency,
		out:      out,
		changes:  make(chan struct{}, 1),
	}
	opts = append([]dashboard.MarketsOption{dashboard.WithOnChange(t.notify)}, opts...)
	t.markets = dashboard.NewMarketsView(gw, store, opts...)
	return t
}

// notify runs on the search timer goroutine; the main loop renders.
func (t *terminal) notify() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}

// Start loads the watchlist and the first markets page.
func (t *terminal) Start(ctx context.Context) {
	t.store.Initialize(ctx)
	t.markets.Load(ctx)
	t.renderMarkets()
	fmt.Fprintln(t.out, `type "help" for commands`)
}

func (t *terminal) Close() {
	t.markets.Close()
	if t.chart != nil {
		t.chart.Close()
	}
}

func (t *terminal) prompt() {
	fmt.Fprint(t.out, "> ")
}

// Handle runs one command line and reports whether the session continues.
func (t *terminal) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "/") {
		t.markets.SetSearch(strings.TrimPrefix(line, "/"))
		return true
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "q", "quit", "exit":
		return false
	case "help", "h", "?":
		fmt.Fprintln(t.out, helpText)
	case "n", "next":
		t.markets.Next(ctx)
		t.renderMarkets()
	case "p", "prev":
		t.markets.Prev(ctx)
		t.renderMarkets()
	case "m", "markets":
		t.markets.FlushSearch()
		t.renderMarkets()
	case "x":
		t.markets.DismissNotice()
		if t.chart != nil {
			t.chart.DismissNotice()
		}
	case "w", "watch":
		if len(args) != 1 {
			fmt.Fprintln(t.out, "usage: w <id>")
			return true
		}
		t.markets.Toggle(ctx, args[0])
		if t.store.Contains(args[0]) {
			fmt.Fprintf(t.out, "added %s to the watchlist\n", args[0])
		} else {
			fmt.Fprintf(t.out, "removed %s from the watchlist\n", args[0])
		}
	case "wl", "watchlist":
		t.renderWatchlist(ctx)
	case "d", "detail":
		if len(args) != 1 {
			fmt.Fprintln(t.out, "usage: d <id>")
			return true
		}
		t.renderDetail(ctx, args[0])
	case "c", "chart":
		t.handleChart(ctx, args)
	default:
		fmt.Fprintf(t.out, "unknown command %q, type \"help\"\n", cmd)
	}
	return true
}

func (t *terminal) handleChart(ctx context.Context, args []string) {
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(t.out, "usage: c <id> [days]")
		return
	}
	days := dashboard.DefaultChartDays
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(t.out, "invalid days %q\n", args[1])
			return
		}
		days = n
	}
	if t.chart == nil || t.chart.State().Chart == nil || t.chart.State().Chart.CoinID != args[0] {
		if t.chart != nil {
			t.chart.Close()
		}
		t.chart = dashboard.NewChartView(t.gateway, args[0])
	}
	t.chart.SetRange(ctx, days)
	t.renderChart()
}

func (t *terminal) renderMarkets() {
	state := t.markets.State()
	fmt.Fprintf(t.out, "\nMarkets, page %d", state.Page)
	if state.Applied != "" {
		fmt.Fprintf(t.out, ", search %q", state.Applied)
	}
	fmt.Fprintln(t.out)
	switch {
	case state.Loading:
		fmt.Fprintln(t.out, "loading...")
	case state.Error != "":
		fmt.Fprintf(t.out, "Error: %s\n", state.Error)
	case state.Empty:
		fmt.Fprintln(t.out, dashboard.NoResults)
	default:
		t.renderRows(state.Rows)
	}
	t.renderNotice(state.Notice)
}

func (t *terminal) renderWatchlist(ctx context.Context) {
	page, _ := dashboard.LoadWatchlist(ctx, t.gateway, t.store)
	fmt.Fprintln(t.out, "\nWatchlist")
	switch {
	case page.Empty:
		fmt.Fprintln(t.out, dashboard.EmptyWatchlistTitle)
		fmt.Fprintln(t.out, dashboard.EmptyWatchlistHint)
	case page.Error != "":
		fmt.Fprintf(t.out, "Error: %s\n", page.Error)
	default:
		t.renderRows(page.Rows)
	}
}

func (t *terminal) renderRows(rows []dashboard.CoinRow) {
	tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\t#\tCOIN\tPRICE\t24H\tMARKET CAP\tVOLUME")
	for _, row := range rows {
		star := " "
		if row.Watched {
			star = "*"
		}
		change := row.Change24h
		if row.ChangeDirection == dashboard.DirectionDown {
			change = "-" + change
		} else {
			change = "+" + change
		}
		fmt.Fprintf(tw, "%s\t%s\t%s (%s) [%s]\t%s\t%s\t%s\t%s\n",
			star, row.Rank, row.Name, row.Symbol, row.ID, row.Price, change, row.MarketCap, row.Volume)
	}
	tw.Flush()
}

func (t *terminal) renderDetail(ctx context.Context, id string) {
	view := dashboard.NewDetailView(t.gateway, t.store, t.currency)
	defer view.Close()
	view.Load(ctx, id)
	state := view.State()
	if state.Coin == nil {
		fmt.Fprintf(t.out, "%s: %s\n", dashboard.TitleDetail, state.Error)
		return
	}
	coin := state.Coin
	watched := ""
	if coin.Watched {
		watched = " *"
	}
	fmt.Fprintf(t.out, "\n%s (%s)%s  %s  %s\n", coin.Name, coin.Symbol, watched, coin.Price, coin.Change24h)
	tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	for _, stat := range coin.Stats {
		fmt.Fprintf(tw, "  %s\t%s\n", stat.Label, stat.Value)
	}
	tw.Flush()
	if coin.Homepage != "" {
		fmt.Fprintf(t.out, "  Homepage: %s\n", coin.Homepage)
	}
	if desc := plainText(coin.DescriptionHTML, 280); desc != "" {
		fmt.Fprintf(t.out, "  %s\n", desc)
	}
}

func (t *terminal) renderChart() {
	state := t.chart.State()
	labels := make([]string, 0, len(state.Ranges))
	for _, days := range state.Ranges {
		label := dashboard.RangeLabel(days)
		if days == state.Days {
			label = "[" + label + "]"
		}
		labels = append(labels, label)
	}
	fmt.Fprintf(t.out, "\nRange: %s\n", strings.Join(labels, " "))
	if chart := state.Chart; chart != nil {
		s := chart.Summary
		fmt.Fprintf(t.out, "%s %s: %d points, open %.2f close %.2f high %.2f low %.2f, change %.2f%%\n",
			chart.CoinID, chart.Range, s.Samples, s.Open, s.Close, s.High, s.Low, s.ChangePct)
		if s.RSI != nil {
			fmt.Fprintf(t.out, "RSI %.2f\n", *s.RSI)
		}
		if s.EMA != nil {
			fmt.Fprintf(t.out, "EMA %.2f\n", *s.EMA)
		}
		step := len(chart.Points) / 12
		if step < 1 {
			step = 1
		}
		for i := 0; i < len(chart.Points); i += step {
			p := chart.Points[i]
			fmt.Fprintf(t.out, "  %-8s %s\n", p.Label, p.Text)
		}
	}
	t.renderNotice(state.Notice)
}

func (t *terminal) renderNotice(n *dashboard.Notice) {
	if n == nil {
		return
	}
	fmt.Fprintf(t.out, "! %s: %s (x to dismiss)\n", n.Title, n.Message)
}

func plainText(html string, max int) string {
	text := strings.Join(strings.Fields(tagPattern.ReplaceAllString(html, "")), " ")
	if runes := []rune(text); len(runes) > max {
		text = strings.TrimSpace(string(runes[:max])) + "..."
	}
	return text
}

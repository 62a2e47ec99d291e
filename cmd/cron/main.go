package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"coinlook-api/internal/cli"
	"coinlook-api/internal/config"
	"coinlook-api/pkg/format"
	"coinlook-api/pkg/market"
	"coinlook-api/pkg/market/indicators"
)

const (
	marketsInterval = 2 * time.Minute  // Markets listing probe interval
	coinsInterval   = 10 * time.Minute // Per-coin detail and chart probe interval
	apiTimeout      = 15 * time.Second // Timeout for individual gateway calls
	shutdownTimeout = 10 * time.Second // Grace period for shutdown
)

var (
	configFile = flag.String("f", "etc/coinlook.yaml", "the config file")
	coinsFlag  = flag.String("coins", "bitcoin,ethereum,solana", "comma-separated coin ids to probe")

	vsCurrency = "usd"
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting upstream monitor...")

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("[main] Warning: Failed to load app config: %v", err)
		log.Printf("[main] Using etc/gateway.yaml only")
		appCfg = &config.Config{Env: "test"}
	}
	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	gatewayCfg := appCfg.Gateway.Value
	if gatewayCfg == nil {
		gatewayCfg = config.MustLoadGateway()
	}
	gateway, err := gatewayCfg.DefaultProvider()
	if err != nil {
		log.Fatalf("[main] Failed to build gateway: %v", err)
	}

	if p := gatewayCfg.Providers[gatewayCfg.DefaultName()]; p != nil && p.VsCurrency != "" {
		vsCurrency = strings.ToLower(p.VsCurrency)
	}

	coins := parseCoins(*coinsFlag)
	log.Printf("  - Monitored Coins: %v", coins)
	log.Printf("  - Monitoring Intervals: markets=%s, coins=%s", marketsInterval, coinsInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		every(ctx, marketsInterval, func() { probeMarkets(ctx, gateway) })
	}()
	go func() {
		defer wg.Done()
		every(ctx, coinsInterval, func() { probeCoins(ctx, gateway, coins) })
	}()

	log.Println("[main] Upstream monitor started. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping tasks...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("[main] All tasks stopped cleanly")
	case <-time.After(shutdownTimeout):
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}
}

func parseCoins(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if _, exists := seen[field]; exists || field == "" {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}

// every runs fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func probeMarkets(parentCtx context.Context, gw market.Gateway) {
	if parentCtx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
	defer cancel()

	start := time.Now()
	res := gw.FetchMarkets(ctx, 1, nil)
	elapsed := time.Since(start)
	if !res.OK() {
		log.Printf("[markets] [ERROR] %v, took %dms", res.Failure, elapsed.Milliseconds())
		return
	}
	log.Printf("[markets] [OK] %d coins, took %dms", len(res.Data), elapsed.Milliseconds())
	for i, coin := range res.Data {
		if i == 3 {
			break
		}
		log.Printf("  - #%d %s: %s (%s)", coin.MarketCapRank, coin.Symbol,
			format.Currency(coin.CurrentPrice), format.Percentage(coin.PriceChangePercentage24h))
	}
}

func probeCoins(parentCtx context.Context, gw market.Gateway, coins []string) {
	for _, id := range coins {
		if parentCtx.Err() != nil {
			return
		}
		probeDetail(parentCtx, gw, id)
		probeChart(parentCtx, gw, id)
	}
}

func probeDetail(parentCtx context.Context, gw market.Gateway, id string) {
	ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
	defer cancel()

	start := time.Now()
	res := gw.FetchCoinDetail(ctx, id)
	elapsed := time.Since(start)
	if !res.OK() {
		log.Printf("[detail.%s] [ERROR] %v, took %dms", id, res.Failure, elapsed.Milliseconds())
		return
	}
	md := res.Data.MarketData
	log.Printf("[detail.%s] [OK] market_cap=%s, supply=%s, took %dms", id,
		format.LargeNumber(md.MarketCap.In(vsCurrency)), format.Grouped(md.CirculatingSupply), elapsed.Milliseconds())
}

func probeChart(parentCtx context.Context, gw market.Gateway, id string) {
	ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
	defer cancel()

	start := time.Now()
	res := gw.FetchChart(ctx, id, 1)
	elapsed := time.Since(start)
	if !res.OK() {
		log.Printf("[chart.%s] [ERROR] %v, took %dms", id, res.Failure, elapsed.Milliseconds())
		return
	}
	s := indicators.Summarize(res.Data.Prices)
	log.Printf("[chart.%s] [OK] %d points, change=%s, took %dms", id, s.Samples,
		format.Percentage(s.ChangePct), elapsed.Milliseconds())
	if s.RSI != nil {
		log.Printf("  - RSI(%d): %.2f", indicators.DefaultRSIPeriod, *s.RSI)
	}
	if s.EMA != nil {
		log.Printf("  - EMA(%d): %s", indicators.DefaultEMAPeriod, format.Currency(*s.EMA))
	}
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/cache"
	"coinlook-api/internal/config"
	"coinlook-api/pkg/confkit"
	"coinlook-api/pkg/market"
	"coinlook-api/pkg/watchlist"
)

var (
	gatewayFile = flag.String("gateway", "", "gateway config file (default etc/gateway.yaml under the project root)")
	dataDir     = flag.String("data", "", "directory holding the watchlist file (default data under the project root)")
)

func main() {
	flag.Parse()
	logx.MustSetup(logx.LogConf{Mode: "file", Path: filepath.Join(os.TempDir(), "coinlook-term"), Level: "error"})
	logx.DisableStat()

	gw, currency, err := buildGateway(*gatewayFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}

	dir := *dataDir
	if dir == "" {
		dir = confkit.MustProjectPath("data")
	}
	storage, err := watchlist.NewFileStorage(dir, ".json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "watchlist: %v\n", err)
		os.Exit(1)
	}
	store := watchlist.NewStore(storage, watchlist.WithKey(cache.LegacyWatchlistKey))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := newTerminal(gw, store, currency, os.Stdout)
	defer term.Close()
	term.Start(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	term.prompt()
	for {
		select {
		case <-ctx.Done():
			return
		case <-term.changes:
			term.renderMarkets()
			term.prompt()
		case line, ok := <-lines:
			if !ok || !term.Handle(ctx, line) {
				return
			}
			term.prompt()
		}
	}
}

func buildGateway(path string) (market.Gateway, string, error) {
	var cfg *market.Config
	if path == "" {
		cfg = config.MustLoadGateway()
	} else {
		loaded, err := market.LoadConfig(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}
	gw, err := cfg.DefaultProvider()
	if err != nil {
		return nil, "", err
	}
	currency := "usd"
	if p := cfg.Providers[cfg.DefaultName()]; p != nil && p.VsCurrency != "" {
		currency = strings.ToLower(p.VsCurrency)
	}
	return gw, currency, nil
}

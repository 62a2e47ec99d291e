package market_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	market "coinlook-api/pkg/market"
	_ "coinlook-api/pkg/market/coingecko"
)

func TestLoadGatewayConfig(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
default: coingecko
providers:
  coingecko:
    type: coingecko
    base_url: https://api.coingecko.com/api/v3
    plan: demo
    timeout: 6s
    http_timeout: 12s
    max_retries: 4
    markets_ttl: 30s
    chart_ttl: -1s
`
	path := filepath.Join(dir, "gateway.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := market.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Default != "coingecko" {
		t.Fatalf("unexpected default: %s", cfg.Default)
	}
	p := cfg.Providers["coingecko"]
	if p.MaxRetries != 4 || p.MarketsTTL != 30*time.Second || p.ChartTTL != -time.Second || p.DetailTTL != 0 {
		t.Fatalf("unexpected provider settings: %+v", p)
	}

	providers, err := cfg.BuildProviders()
	if err != nil {
		t.Fatalf("BuildProviders error: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(providers))
	}
	if _, ok := providers["coingecko"]; !ok {
		t.Fatalf("provider map missing coingecko")
	}
}

func TestGatewayConfigInvalidType(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
providers:
  demo:
    type: foobar
`
	path := filepath.Join(dir, "gateway.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := market.LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
}

func TestGatewayConfigValidation(t *testing.T) {
	cases := map[string]string{
		"empty providers":  "providers: {}\n",
		"unknown default":  "default: missing\nproviders:\n  cg:\n    type: coingecko\n",
		"missing type":     "providers:\n  cg:\n    base_url: https://x\n",
		"bad timeout":      "providers:\n  cg:\n    type: coingecko\n    timeout: soon\n",
		"negative timeout": "providers:\n  cg:\n    type: coingecko\n    timeout: -2s\n",
		"negative retries": "providers:\n  cg:\n    type: coingecko\n    max_retries: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := market.LoadConfigFromReader(strings.NewReader(body)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestDefaultProviderSingle(t *testing.T) {
	cfg, err := market.LoadConfigFromReader(strings.NewReader("providers:\n  only:\n    type: coingecko\n"))
	if err != nil {
		t.Fatalf("LoadConfigFromReader: %v", err)
	}
	gw, err := cfg.DefaultProvider()
	if err != nil || gw == nil {
		t.Fatalf("expected the single provider to be the default, err=%v", err)
	}
}

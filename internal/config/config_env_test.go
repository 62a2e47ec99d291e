package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoad_mainConfigWithSections goes through go-zero conf.Load and checks
// that env placeholders and the gateway sub-file are resolved.
func TestLoad_mainConfigWithSections(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("COINLOOK_PORT", "18888")
	t.Setenv("CG_KEY", "from-env")

	mainYAML := []byte(`
Name: coinlook-api
Host: 127.0.0.1
Port: ${COINLOOK_PORT}
Env: dev
Watchlist:
  Backend: file
  Dir: state/watchlists
  Codec: msgpack
Gateway:
  File: gateway.yaml
`)
	gatewayYAML := []byte(`
providers:
  coingecko:
    type: coingecko
    api_key: ${CG_KEY}
`)
	if err := os.WriteFile(filepath.Join(dir, "coinlook.yaml"), mainYAML, 0o600); err != nil {
		t.Fatalf("write main: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gateway.yaml"), gatewayYAML, 0o600); err != nil {
		t.Fatalf("write gateway: %v", err)
	}

	cfg, err := Load(filepath.Join(dir, "coinlook.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 18888 {
		t.Fatalf("port not expanded, got %d", cfg.Port)
	}
	if cfg.Env != "dev" || cfg.IsTestEnv() {
		t.Fatalf("unexpected env %q", cfg.Env)
	}
	if cfg.Watchlist.Backend != BackendFile || cfg.Watchlist.Codec != "msgpack" {
		t.Fatalf("watchlist block not parsed: %+v", cfg.Watchlist)
	}
	if got, want := cfg.WatchlistDir(), filepath.Join(dir, "state/watchlists"); got != want {
		t.Fatalf("WatchlistDir = %q, want %q", got, want)
	}
	if cfg.MainPath() != filepath.Join(dir, "coinlook.yaml") || cfg.BaseDir() != dir {
		t.Fatalf("paths not recorded: main=%q base=%q", cfg.MainPath(), cfg.BaseDir())
	}
	if cfg.Gateway.Value == nil || cfg.Gateway.Value.Providers["coingecko"].APIKey != "from-env" {
		t.Fatalf("gateway section not hydrated")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

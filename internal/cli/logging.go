package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/config"
	"coinlook-api/pkg/confkit"
	"coinlook-api/pkg/market"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Listen: %s:%d", cfg.Host, cfg.Port),
		fmt.Sprintf("Watchlist: backend=%s codec=%s", cfg.Watchlist.Backend, codecName(cfg.Watchlist.Codec)),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		sectionLine("Gateway config", cfg.Gateway),
	}
	if gw := cfg.Gateway.Value; gw != nil {
		lines = append(lines, providerLines(gw)...)
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

// providerLines never prints the credential itself, only whether one is set.
func providerLines(cfg *market.Config) []string {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		p := cfg.Providers[name]
		marker := ""
		if name == cfg.Default {
			marker = " (default)"
		}
		lines = append(lines, fmt.Sprintf("Provider %s%s: type=%s plan=%s api key %s",
			name, marker, p.Type, orDefault(p.Plan, "demo"), presence(p.APIKey != "")))
	}
	return lines
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func codecName(name string) string {
	return orDefault(strings.ToLower(strings.TrimSpace(name)), "json")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}

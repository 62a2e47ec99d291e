package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"coinlook-api/pkg/confkit"
)

// Config lists the market data gateways available to the application.
type Config struct {
	Default   string                     `yaml:"default"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig configures a single upstream provider.
//
// APIKey may be empty: a missing credential is reported on every request as a
// config failure instead of preventing startup.
type ProviderConfig struct {
	Type string `yaml:"type"`

	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Plan       string `yaml:"plan"`
	VsCurrency string `yaml:"vs_currency"`
	MaxRetries int    `yaml:"max_retries"`

	TimeoutRaw     string        `yaml:"timeout"`
	Timeout        time.Duration `yaml:"-"`
	HTTPTimeoutRaw string        `yaml:"http_timeout"`
	HTTPTimeout    time.Duration `yaml:"-"`

	// Revalidation windows for the in-process response cache. Zero keeps the
	// provider defaults; a negative value such as "-1s" disables caching.
	MarketsTTLRaw string        `yaml:"markets_ttl"`
	MarketsTTL    time.Duration `yaml:"-"`
	DetailTTLRaw  string        `yaml:"detail_ttl"`
	DetailTTL     time.Duration `yaml:"-"`
	ChartTTLRaw   string        `yaml:"chart_ttl"`
	ChartTTL      time.Duration `yaml:"-"`
}

// ProviderBuilder constructs a Gateway from configuration.
type ProviderBuilder func(name string, cfg *ProviderConfig) (Gateway, error)

var (
	providerRegistry   = make(map[string]ProviderBuilder)
	providerRegistryMu sync.RWMutex
)

// RegisterProvider registers a gateway constructor under typeName.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[normaliseType(typeName)] = builder
}

func lookupProviderBuilder(typeName string) (ProviderBuilder, bool) {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()
	builder, ok := providerRegistry[normaliseType(typeName)]
	return builder, ok
}

func normaliseType(typeName string) string {
	return strings.ToLower(strings.TrimSpace(typeName))
}

// LoadConfig reads gateway configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gateway config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads etc/gateway.yaml from the project root and panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(confkit.MustProjectPath("etc/gateway.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader parses, normalises and validates a gateway config.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gateway config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal gateway config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	c.Default = strings.TrimSpace(os.ExpandEnv(c.Default))
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	for name, provider := range c.Providers {
		if provider == nil {
			provider = &ProviderConfig{}
			c.Providers[name] = provider
		}
		provider.expandEnv()
		if err := provider.parseDurations(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) expandEnv() {
	for _, field := range []*string{
		&p.Type, &p.BaseURL, &p.APIKey, &p.Plan, &p.VsCurrency,
		&p.TimeoutRaw, &p.HTTPTimeoutRaw,
		&p.MarketsTTLRaw, &p.DetailTTLRaw, &p.ChartTTLRaw,
	} {
		*field = strings.TrimSpace(os.ExpandEnv(*field))
	}
}

func (p *ProviderConfig) parseDurations(name string) error {
	timeouts := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"timeout", p.TimeoutRaw, &p.Timeout},
		{"http_timeout", p.HTTPTimeoutRaw, &p.HTTPTimeout},
	}
	for _, f := range timeouts {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("gateway provider %s: invalid %s %q: %w", name, f.key, f.raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("gateway provider %s: %s must be positive, got %s", name, f.key, d)
		}
		*f.dst = d
	}

	ttls := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"markets_ttl", p.MarketsTTLRaw, &p.MarketsTTL},
		{"detail_ttl", p.DetailTTLRaw, &p.DetailTTL},
		{"chart_ttl", p.ChartTTLRaw, &p.ChartTTL},
	}
	for _, f := range ttls {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("gateway provider %s: invalid %s %q: %w", name, f.key, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("gateway config: providers cannot be empty")
	}
	if c.Default != "" {
		if _, ok := c.Providers[c.Default]; !ok {
			return fmt.Errorf("gateway config: default provider %q not defined", c.Default)
		}
	}
	for name, provider := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("gateway config: provider name cannot be empty")
		}
		if err := provider.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) validate(name string) error {
	if p == nil {
		return fmt.Errorf("gateway config: provider %s is nil", name)
	}
	if p.Type == "" {
		return fmt.Errorf("gateway config: provider %s must specify type", name)
	}
	if _, ok := lookupProviderBuilder(p.Type); !ok {
		return fmt.Errorf("gateway config: provider %s has unsupported type %q", name, p.Type)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("gateway config: provider %s max_retries must not be negative", name)
	}
	return nil
}

// BuildProviders instantiates every configured gateway.
func (c *Config) BuildProviders() (map[string]Gateway, error) {
	result := make(map[string]Gateway, len(c.Providers))
	for name, providerCfg := range c.Providers {
		builder, ok := lookupProviderBuilder(providerCfg.Type)
		if !ok {
			return nil, fmt.Errorf("gateway provider %s: unsupported type %q", name, providerCfg.Type)
		}
		gw, err := builder(name, providerCfg)
		if err != nil {
			return nil, fmt.Errorf("gateway provider %s: %w", name, err)
		}
		result[name] = gw
	}
	return result, nil
}

// DefaultName returns the provider DefaultProvider would build. When no
// default is named and exactly one provider exists, that provider is used.
func (c *Config) DefaultName() string {
	if c.Default != "" || len(c.Providers) != 1 {
		return c.Default
	}
	for only := range c.Providers {
		return only
	}
	return ""
}

// DefaultProvider builds all providers and returns the default one.
func (c *Config) DefaultProvider() (Gateway, error) {
	providers, err := c.BuildProviders()
	if err != nil {
		return nil, err
	}
	gw, ok := providers[c.DefaultName()]
	if !ok {
		return nil, fmt.Errorf("gateway config: no default provider selected")
	}
	return gw, nil
}

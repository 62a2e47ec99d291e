package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/pkg/market"
)

const (
	defaultGatewayTimeout = 8 * time.Second
	defaultMarketsTTL     = 60 * time.Second
	defaultDetailTTL      = 5 * time.Minute
	defaultChartTTL       = 5 * time.Minute
	responseCacheLimit    = 512
)

// Gateway implements market.Gateway on top of Client, normalising every failure
// into a market.Failure and holding responses for the provider's revalidation window.
type Gateway struct {
	client     *Client
	timeout    time.Duration
	providerID string
	ttl        cacheTTLs
	cache      *collection.Cache
}

type cacheTTLs struct {
	markets time.Duration
	detail  time.Duration
	chart   time.Duration
}

type gatewayConfig struct {
	timeout      time.Duration
	ttl          cacheTTLs
	providerID   string
	clientConfig []Option
}

// GatewayOption customises the gateway.
type GatewayOption func(*gatewayConfig)

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) GatewayOption {
	return func(cfg *gatewayConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithCacheTTLs overrides the revalidation windows. Zero keeps a default and a
// negative duration disables caching for that call.
func WithCacheTTLs(markets, detail, chart time.Duration) GatewayOption {
	return func(cfg *gatewayConfig) {
		for _, pair := range []struct {
			dst *time.Duration
			v   time.Duration
		}{{&cfg.ttl.markets, markets}, {&cfg.ttl.detail, detail}, {&cfg.ttl.chart, chart}} {
			if pair.v != 0 {
				*pair.dst = pair.v
			}
		}
	}
}

// WithProviderID names the gateway in logs.
func WithProviderID(id string) GatewayOption {
	return func(cfg *gatewayConfig) {
		cfg.providerID = id
	}
}

// WithClientOptions passes options to the underlying Client.
func WithClientOptions(options ...Option) GatewayOption {
	return func(cfg *gatewayConfig) {
		cfg.clientConfig = append(cfg.clientConfig, options...)
	}
}

// NewGateway constructs a CoinGecko gateway.
func NewGateway(opts ...GatewayOption) (*Gateway, error) {
	cfg := &gatewayConfig{
		timeout:    defaultGatewayTimeout,
		providerID: "coingecko",
		ttl: cacheTTLs{
			markets: defaultMarketsTTL,
			detail:  defaultDetailTTL,
			chart:   defaultChartTTL,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	cache, err := collection.NewCache(defaultDetailTTL,
		collection.WithLimit(responseCacheLimit),
		collection.WithName(cfg.providerID))
	if err != nil {
		return nil, fmt.Errorf("coingecko: response cache: %w", err)
	}
	return &Gateway{
		client:     NewClient(cfg.clientConfig...),
		timeout:    cfg.timeout,
		providerID: cfg.providerID,
		ttl:        cfg.ttl,
		cache:      cache,
	}, nil
}

func init() {
	market.RegisterProvider("coingecko", func(name string, cfg *market.ProviderConfig) (market.Gateway, error) {
		clientOptions := []Option{
			WithAPIKey(cfg.APIKey),
			WithPlan(cfg.Plan),
			WithVsCurrency(cfg.VsCurrency),
			WithBaseURL(cfg.BaseURL),
		}
		if cfg.HTTPTimeout > 0 {
			clientOptions = append(clientOptions, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if cfg.MaxRetries > 0 {
			clientOptions = append(clientOptions, WithMaxRetries(cfg.MaxRetries))
		}
		return NewGateway(
			WithProviderID(name),
			WithTimeout(cfg.Timeout),
			WithCacheTTLs(cfg.MarketsTTL, cfg.DetailTTL, cfg.ChartTTL),
			WithClientOptions(clientOptions...),
		)
	})
}

// FetchMarkets implements market.Gateway.
func (g *Gateway) FetchMarkets(ctx context.Context, page int, ids []string) market.Result[[]market.CoinMarket] {
	if !g.client.HasAPIKey() {
		return market.FailWith[[]market.CoinMarket](g.missingKey(ctx, "markets"))
	}
	if page < 1 {
		page = 1
	}
	ids = cleanIDs(ids)
	key := "markets:" + strconv.Itoa(page) + ":" + strings.Join(ids, ",")
	if cached, ok := g.cache.Get(key); ok {
		return market.Ok(cloneCoins(cached.([]market.CoinMarket)))
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	coins, err := g.client.Markets(ctx, page, ids)
	if err != nil {
		return market.FailWith[[]market.CoinMarket](g.normalise(ctx, "markets", err))
	}
	if coins == nil {
		coins = []market.CoinMarket{}
	}
	g.store(key, cloneCoins(coins), g.ttl.markets)
	return market.Ok(coins)
}

// FetchCoinDetail implements market.Gateway. The returned detail may be shared
// with the response cache and must not be modified.
func (g *Gateway) FetchCoinDetail(ctx context.Context, id string) market.Result[*market.CoinDetail] {
	if !g.client.HasAPIKey() {
		return market.FailWith[*market.CoinDetail](g.missingKey(ctx, "coin detail"))
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return market.Fail[*market.CoinDetail](market.KindInvalid, "A coin id is required.")
	}
	key := "coin:" + id
	if cached, ok := g.cache.Get(key); ok {
		return market.Ok(cached.(*market.CoinDetail))
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	detail, err := g.client.CoinDetail(ctx, id)
	if err != nil {
		return market.FailWith[*market.CoinDetail](g.normalise(ctx, "coin detail", err))
	}
	g.store(key, detail, g.ttl.detail)
	return market.Ok(detail)
}

// FetchChart implements market.Gateway.
func (g *Gateway) FetchChart(ctx context.Context, id string, days int) market.Result[*market.ChartSeries] {
	if !g.client.HasAPIKey() {
		return market.FailWith[*market.ChartSeries](g.missingKey(ctx, "chart"))
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return market.Fail[*market.ChartSeries](market.KindInvalid, "A coin id is required.")
	}
	if !market.ValidChartRange(days) {
		return market.Fail[*market.ChartSeries](market.KindInvalid,
			fmt.Sprintf("Unsupported chart range of %d days; use one of %s.", days, rangeList()))
	}
	key := "chart:" + id + ":" + strconv.Itoa(days)
	if cached, ok := g.cache.Get(key); ok {
		return market.Ok(cached.(*market.ChartSeries))
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	raw, err := g.client.MarketChart(ctx, id, days)
	if err != nil {
		return market.FailWith[*market.ChartSeries](g.normalise(ctx, "chart", err))
	}
	series, err := raw.Series(id, days)
	if err != nil {
		return market.FailWith[*market.ChartSeries](g.normalise(ctx, "chart", fmt.Errorf("%w: %v", ErrDecode, err)))
	}
	g.store(key, series, g.ttl.chart)
	return market.Ok(series)
}

func (g *Gateway) store(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	g.cache.SetWithExpire(key, value, ttl)
}

func (g *Gateway) missingKey(ctx context.Context, op string) *market.Failure {
	logx.WithContext(ctx).Errorf("%s: %s request skipped: %v", g.providerID, op, ErrMissingAPIKey)
	return &market.Failure{Kind: market.KindConfig, Message: market.MsgMissingAPIKey}
}

// normalise maps client errors onto the failure taxonomy.
func (g *Gateway) normalise(ctx context.Context, op string, err error) *market.Failure {
	var (
		apiErr  *APIError
		failure *market.Failure
	)
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		failure = &market.Failure{Kind: market.KindConfig, Message: market.MsgMissingAPIKey}
	case errors.As(err, &apiErr):
		failure = &market.Failure{Kind: market.KindUpstream, Message: apiErr.Message, Status: apiErr.StatusCode}
	case errors.Is(err, ErrDecode):
		failure = &market.Failure{Kind: market.KindUpstream, Message: market.MsgDecode}
	default:
		failure = &market.Failure{Kind: market.KindNetwork, Message: market.MsgNetwork}
	}
	logx.WithContext(ctx).Errorf("%s: %s request failed kind=%s err=%v", g.providerID, op, failure.Kind, err)
	return failure
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, g.timeout)
}

// cleanIDs trims ids and drops blanks and duplicates, keeping first occurrence.
func cleanIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cloneCoins(coins []market.CoinMarket) []market.CoinMarket {
	out := make([]market.CoinMarket, len(coins))
	copy(out, coins)
	return out
}

func rangeList() string {
	parts := make([]string, len(market.ChartRanges))
	for i, d := range market.ChartRanges {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ", ")
}

package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coinlook-api/pkg/market"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	ProBaseURL     = "https://pro-api.coingecko.com/api/v3"

	PlanDemo = "demo"
	PlanPro  = "pro"

	demoKeyHeader = "x-cg-demo-api-key"
	proKeyHeader  = "x-cg-pro-api-key"

	defaultVsCurrency       = "usd"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 150 * time.Millisecond
	maxErrorBodyBytes       = 4 << 10
)

var (
	// ErrMissingAPIKey is returned before any request is sent when no key is configured.
	ErrMissingAPIKey = errors.New("coingecko: api key is missing")
	// ErrDecode wraps failures to parse a successful response body.
	ErrDecode = errors.New("coingecko: decode response")
)

// APIError is a non-success HTTP response from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko: http status %d: %s", e.StatusCode, e.Message)
}

// Client wraps the CoinGecko v3 REST API.
type Client struct {
	baseURL    string
	apiKey     string
	plan       string
	vsCurrency string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API root. Without it the root follows the plan.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIKey sets the credential sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithPlan selects the demo or pro credential header.
func WithPlan(plan string) Option {
	return func(c *Client) {
		if p := strings.ToLower(strings.TrimSpace(plan)); p != "" {
			c.plan = p
		}
	}
}

// WithVsCurrency sets the quote currency for prices.
func WithVsCurrency(currency string) Option {
	return func(c *Client) {
		if cur := strings.ToLower(strings.TrimSpace(currency)); cur != "" {
			c.vsCurrency = cur
		}
	}
}

// WithMaxRetries adjusts the retry budget for transport errors and 5xx responses.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithRetryBackoff sets the first retry delay; it doubles on every attempt.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// NewClient constructs a CoinGecko client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		plan:       PlanDemo,
		vsCurrency: defaultVsCurrency,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoffBase,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = DefaultBaseURL
		if client.plan == PlanPro {
			client.baseURL = ProBaseURL
		}
	}
	return client
}

// HasAPIKey reports whether a credential is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// VsCurrency returns the quote currency used for requests.
func (c *Client) VsCurrency() string {
	return c.vsCurrency
}

// Markets lists one page of coins ordered by market cap, optionally restricted to ids.
func (c *Client) Markets(ctx context.Context, page int, ids []string) ([]market.CoinMarket, error) {
	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(market.MarketsPageSize))
	query.Set("page", strconv.Itoa(page))
	query.Set("sparkline", "false")
	query.Set("price_change_percentage", "24h")
	if len(ids) > 0 {
		query.Set("ids", strings.Join(ids, ","))
	}

	var coins []market.CoinMarket
	if err := c.get(ctx, "/coins/markets", query, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// CoinDetail fetches the full record for id.
func (c *Client) CoinDetail(ctx context.Context, id string) (*market.CoinDetail, error) {
	query := url.Values{}
	query.Set("localization", "false")
	query.Set("tickers", "false")
	query.Set("community_data", "false")
	query.Set("developer_data", "false")

	var detail market.CoinDetail
	if err := c.get(ctx, "/coins/"+url.PathEscape(id), query, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// MarketChart fetches the historical series for id over the last days days.
func (c *Client) MarketChart(ctx context.Context, id string, days int) (*market.RawChart, error) {
	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("days", strconv.Itoa(days))

	var chart market.RawChart
	if err := c.get(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", query, &chart); err != nil {
		return nil, err
	}
	return &chart, nil
}

func (c *Client) keyHeader() string {
	if c.plan == PlanPro {
		return proKeyHeader
	}
	return demoKeyHeader
}

// get issues a GET against path and decodes the JSON body into result.
// Transport errors and 5xx responses are retried with doubling backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	if !c.HasAPIKey() {
		return ErrMissingAPIKey
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("coingecko: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(c.keyHeader(), c.apiKey)

		retryable, err := c.do(req, result)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable {
			return err
		}
		lastErr = err

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}
	return lastErr
}

// do performs a single attempt and reports whether a failure is worth retrying.
func (c *Client) do(req *http.Request, result any) (bool, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
		return resp.StatusCode >= 500, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("coingecko: read response: %w", err)
	}
	if result == nil {
		return false, nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return false, nil
}

type errorBody struct {
	Status struct {
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Error json.RawMessage `json:"error"`
}

// errorMessage extracts the provider's message from an error body, falling back
// to a status-based message.
func errorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := strings.TrimSpace(eb.Status.ErrorMessage); msg != "" {
			return msg
		}
		var msg string
		if len(eb.Error) > 0 && json.Unmarshal(eb.Error, &msg) == nil && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

package osmosis

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
	"sync/atomic"
	"time"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
	"github.com/shopspring/decimal"
)

// Quote is a priced swap along a fixed pool route
type Quote struct {
	Coin         wasm.Coin
	PriceImpact  decimal.Decimal
	EffectiveFee decimal.Decimal
}

// Quoter prices swaps along an explicit route
type Quoter interface {
	QuoteExactIn(ctx context.Context, tokenIn wasm.Coin, routes []swap.OsmosisSwapAmountInRoute) (Quote, error)
	QuoteExactOut(ctx context.Context, tokenOut wasm.Coin, routes []swap.OsmosisSwapAmountOutRoute) (Quote, error)
}

// SQSClient talks to the Osmosis sidecar query server. endpoints[0] is the
// primary, the rest are backups tried in order once the active endpoint keeps
// failing. While a backup is active the primary is checked and restored as soon
// as it answers its healthcheck.
type SQSClient struct {
	httpClient *http.Client
	endpoints  []string
	active     atomic.Int32
	config     FailoverConfig

	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// FailoverConfig controls failover behavior
type FailoverConfig struct {
	// MaxRetries is the number of times to retry a failed request on the current endpoint
	MaxRetries int
	// RetryDelay is the initial delay between retries, doubled on every retry
	RetryDelay time.Duration
	// HealthCheckInterval is how often the primary is checked while on a backup
	HealthCheckInterval time.Duration
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		MaxRetries:          2,
		RetryDelay:          500 * time.Millisecond,
		HealthCheckInterval: 30 * time.Second,
		Timeout:             10 * time.Second,
	}
}

// NewSQSClient validates the endpoints. Invalid backups are skipped, an
// invalid primary is an error.
func NewSQSClient(primaryURL string, backupURLs []string, config FailoverConfig) (*SQSClient, error) {
	if err := validateEndpoint(primaryURL); err != nil {
		return nil, fmt.Errorf("invalid primary sqs url: %w", err)
	}

	endpoints := []string{strings.TrimRight(primaryURL, "/")}
	for _, u := range backupURLs {
		if err := validateEndpoint(u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("Invalid backup URL, skipping")
			continue
		}
		endpoints = append(endpoints, strings.TrimRight(u, "/"))
	}

	c := &SQSClient{
		httpClient: &http.Client{Timeout: config.Timeout},
		endpoints:  endpoints,
		config:     config,
	}
	if len(endpoints) > 1 && config.HealthCheckInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		c.stopWatch = cancel
		c.watchDone = make(chan struct{})
		go c.watchPrimary(ctx)
	}

	log.Info().
		Str("primary", endpoints[0]).
		Int("backups", len(endpoints)-1).
		Msg("SQS client initialized")
	return c, nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// CurrentURL is the endpoint requests go to right now
func (c *SQSClient) CurrentURL() string {
	return c.endpoints[c.active.Load()]
}

// Close stops the primary watcher
func (c *SQSClient) Close() {
	if c.stopWatch != nil {
		c.stopWatch()
		<-c.watchDone
		c.stopWatch = nil
	}
}

func (c *SQSClient) watchPrimary(ctx context.Context) {
	defer close(c.watchDone)
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.active.Load() == 0 {
				continue
			}
			checkCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
			healthy := c.healthy(checkCtx, c.endpoints[0])
			cancel()
			if healthy {
				c.active.Store(0)
				log.Info().Str("url", c.endpoints[0]).Msg("Restored primary endpoint")
			}
		}
	}
}

func (c *SQSClient) healthy(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/healthcheck", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", endpoint).Msg("Health check failed")
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// switchEndpoint moves to the next endpoint after the active one that passes
// its healthcheck
func (c *SQSClient) switchEndpoint(ctx context.Context) bool {
	from := int(c.active.Load())
	n := len(c.endpoints)
	for step := 1; step < n; step++ {
		next := (from + step) % n
		if c.healthy(ctx, c.endpoints[next]) {
			// another request may have switched already
			if c.active.CompareAndSwap(int32(from), int32(next)) {
				log.Info().Str("url", c.endpoints[next]).Msg("Failover to endpoint")
			}
			return true
		}
	}
	log.Warn().Str("url", c.endpoints[from]).Msg("All endpoints unhealthy, staying on current")
	return false
}

func (c *SQSClient) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// fetch retries the active endpoint with exponential backoff, then makes one
// attempt on the next healthy endpoint
func (c *SQSClient) fetch(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	delay := c.config.RetryDelay
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		body, err := c.get(ctx, c.CurrentURL(), path)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}

	if len(c.endpoints) > 1 && c.switchEndpoint(ctx) {
		body, err := c.get(ctx, c.CurrentURL(), path)
		if err != nil {
			return nil, fmt.Errorf("failover request failed: %w (after: %w)", err, lastErr)
		}
		return body, nil
	}
	return nil, fmt.Errorf("sqs request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func joinPoolIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

// QuoteExactIn prices tokenIn through the given pools in order
func (c *SQSClient) QuoteExactIn(ctx context.Context, tokenIn wasm.Coin, routes []swap.OsmosisSwapAmountInRoute) (Quote, error) {
	if len(routes) == 0 {
		return Quote{}, swap.ErrSwapOperationsEmpty
	}
	ids := make([]uint64, len(routes))
	denoms := make([]string, len(routes))
	for i, r := range routes {
		ids[i] = r.PoolID
		denoms[i] = r.TokenOutDenom
	}

	path := fmt.Sprintf(
		"/router/custom-direct-quote?tokenIn=%s&tokenOutDenom=%s&poolID=%s",
		url.QueryEscape(tokenIn.String()), url.QueryEscape(strings.Join(denoms, ",")), joinPoolIDs(ids),
	)
	resp, err := c.quote(ctx, path)
	if err != nil {
		return Quote{}, err
	}

	amount, ok := math.NewIntFromString(resp.AmountOut)
	if !ok {
		return Quote{}, fmt.Errorf("invalid amount_out %q", resp.AmountOut)
	}
	return newQuote(wasm.NewCoin(routes[len(routes)-1].TokenOutDenom, amount), resp)
}

// QuoteExactOut prices how much of the first token in is needed for tokenOut
func (c *SQSClient) QuoteExactOut(ctx context.Context, tokenOut wasm.Coin, routes []swap.OsmosisSwapAmountOutRoute) (Quote, error) {
	if len(routes) == 0 {
		return Quote{}, swap.ErrSwapOperationsEmpty
	}
	ids := make([]uint64, len(routes))
	denoms := make([]string, len(routes))
	for i, r := range routes {
		ids[i] = r.PoolID
		denoms[i] = r.TokenInDenom
	}

	path := fmt.Sprintf(
		"/router/custom-direct-quote-in-based?tokenOut=%s&tokenInDenom=%s&poolID=%s",
		url.QueryEscape(tokenOut.String()), url.QueryEscape(strings.Join(denoms, ",")), joinPoolIDs(ids),
	)
	resp, err := c.quote(ctx, path)
	if err != nil {
		return Quote{}, err
	}

	amount, ok := math.NewIntFromString(resp.AmountIn.Amount)
	if !ok {
		return Quote{}, fmt.Errorf("invalid amount_in %q", resp.AmountIn.Amount)
	}
	return newQuote(wasm.NewCoin(routes[0].TokenInDenom, amount), resp)
}

func (c *SQSClient) quote(ctx context.Context, path string) (QuoteResponse, error) {
	body, err := c.fetch(ctx, path)
	if err != nil {
		return QuoteResponse{}, err
	}
	var resp QuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return QuoteResponse{}, fmt.Errorf("failed to parse quote response: %w", err)
	}
	return resp, nil
}

func newQuote(coin wasm.Coin, resp QuoteResponse) (Quote, error) {
	q := Quote{Coin: coin, PriceImpact: decimal.Zero, EffectiveFee: decimal.Zero}
	var err error
	if resp.PriceImpact != "" {
		if q.PriceImpact, err = decimal.NewFromString(resp.PriceImpact); err != nil {
			return Quote{}, fmt.Errorf("invalid price_impact %q: %w", resp.PriceImpact, err)
		}
	}
	if resp.EffectiveFee != "" {
		if q.EffectiveFee, err = decimal.NewFromString(resp.EffectiveFee); err != nil {
			return Quote{}, fmt.Errorf("invalid effective_fee %q: %w", resp.EffectiveFee, err)
		}
	}
	return q, nil
}

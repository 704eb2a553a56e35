package astroport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

// ErrRemoteExecution is returned when something tries to execute a contract
// that only exists on a remote chain
var ErrRemoteExecution = errors.New("remote contracts can only be queried")

// LCDClient runs cosmwasm smart queries against a chain's LCD endpoint
type LCDClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLCDClient(baseURL string) *LCDClient {
	return &LCDClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type lcdSmartQueryResponse struct {
	Data json.RawMessage `json:"data"`
}

// QuerySmart returns the raw json answer of a smart query
func (c *LCDClient) QuerySmart(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	encoded := base64.StdEncoding.EncodeToString(msg)
	url := fmt.Sprintf("%s/cosmwasm/wasm/v1/contract/%s/smart/%s", c.baseURL, contract, encoded)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lcd: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lcd: failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("lcd: unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var lcdResp lcdSmartQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&lcdResp); err != nil {
		return nil, fmt.Errorf("lcd: failed to decode response: %w", err)
	}
	return lcdResp.Data, nil
}

// RemoteRouter stands in for a router contract deployed on another chain.
// Queries are forwarded to the LCD, executions are rejected.
type RemoteRouter struct {
	client  *LCDClient
	address string
}

// NewRemoteRouter proxies queries to the contract at address
func NewRemoteRouter(client *LCDClient, address string) *RemoteRouter {
	return &RemoteRouter{client: client, address: address}
}

func (r *RemoteRouter) Execute(context.Context, wasm.Deps, wasm.Env, wasm.MessageInfo, []byte) (*wasm.Response, error) {
	return nil, fmt.Errorf("%s: %w", r.address, ErrRemoteExecution)
}

func (r *RemoteRouter) Query(ctx context.Context, _ wasm.Deps, _ wasm.Env, msg []byte) ([]byte, error) {
	return r.client.QuerySmart(ctx, r.address, msg)
}

// Package ton holds the TON chain collaborators: the tonapi blockchain
// client feeding the ingestor and the toncenter top-holder providers
// feeding discovery.
package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whalewire/internal/domain"
)

// DefaultTimeout bounds every outbound HTTP call.
const DefaultTimeout = 30 * time.Second

// Client fetches account transactions from a tonapi-compatible endpoint.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new tonapi client.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chain returns the chain identifier.
func (c *Client) Chain() string { return "ton" }

// Provider returns the provider identifier.
func (c *Client) Provider() string { return "tonapi" }

// tonTransaction is the raw tonapi transaction item.
type tonTransaction struct {
	Lt    int64  `json:"lt"`
	Hash  string `json:"hash"`
	Utime int64  `json:"utime"`
}

// transactionsResponse is the raw tonapi response envelope.
type transactionsResponse struct {
	Transactions []json.RawMessage `json:"transactions"`
}

// GetEvents fetches up to limit transactions for address strictly after
// the cursor position, converting each into a raw chain event.
func (c *Client) GetEvents(ctx context.Context, address string, after *domain.Cursor, limit int) ([]domain.RawChainEvent, error) {
	url := fmt.Sprintf("%s/v2/blockchain/accounts/%s/transactions?limit=%d", c.endpoint, address, limit)
	if after != nil {
		url += fmt.Sprintf("&after_lt=%d", after.Primary)
	}

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp transactionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal transactions for %s: %w", address, err)
	}

	events := make([]domain.RawChainEvent, 0, len(resp.Transactions))
	for _, raw := range resp.Transactions {
		var tx tonTransaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("unmarshal transaction for %s: %w", address, err)
		}

		events = append(events, domain.RawChainEvent{
			Chain:      c.Chain(),
			Provider:   c.Provider(),
			Address:    address,
			Cursor:     domain.Cursor{Primary: tx.Lt, Secondary: tx.Hash},
			Hash:       tx.Hash,
			OccurredAt: time.Unix(tx.Utime, 0).UTC(),
			RawJSON:    SanitizeJSON(string(raw)),
		})
	}

	return events, nil
}

// get performs one GET request and returns the body on HTTP 200.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// jsonSanitizer strips NUL and 0x01 control characters, escaped
// or literal, that Postgres rejects inside JSONB values.
var jsonSanitizer = strings.NewReplacer(
	`\u0000`, "",
	"\x00", "",
	`\u0001`, "",
	"\x01", "",
)

// SanitizeJSON removes control characters the storage layer cannot hold.
func SanitizeJSON(s string) string {
	return jsonSanitizer.Replace(s)
}

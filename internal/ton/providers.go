package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"whalewire/internal/domain"
)

// NativeTopHoldersProvider fetches the largest TON balances from a
// toncenter-compatible index.
type NativeTopHoldersProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// ProviderOption configures the toncenter providers.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	apiKey string
	client *http.Client
}

// WithProviderAPIKey sets the X-API-Key header sent with every request.
func WithProviderAPIKey(key string) ProviderOption {
	return func(c *providerConfig) {
		c.apiKey = key
	}
}

// WithProviderHTTPClient sets custom http.Client.
func WithProviderHTTPClient(client *http.Client) ProviderOption {
	return func(c *providerConfig) {
		c.client = client
	}
}

func newProviderConfig(opts []ProviderOption) providerConfig {
	cfg := providerConfig{client: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewNativeTopHoldersProvider creates a provider for native TON balances.
func NewNativeTopHoldersProvider(endpoint string, opts ...ProviderOption) *NativeTopHoldersProvider {
	cfg := newProviderConfig(opts)
	return &NativeTopHoldersProvider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   cfg.apiKey,
		client:   cfg.client,
	}
}

// GetTopHolders fetches the top accounts by TON balance.
func (p *NativeTopHoldersProvider) GetTopHolders(ctx context.Context, limit int) (*domain.AssetTopHolders, error) {
	url := fmt.Sprintf("%s/api/v3/topAccountsByBalance?limit=%d", p.endpoint, limit)

	var accounts []struct {
		Account string `json:"account"`
		Balance string `json:"balance"`
	}
	if err := getJSON(ctx, p.client, p.apiKey, url, &accounts); err != nil {
		return nil, err
	}

	snapshot := &domain.AssetTopHolders{AssetIdentifier: "TON", AssetType: "native"}
	for _, a := range accounts {
		snapshot.Holders = append(snapshot.Holders, domain.WalletHolder{
			Address: a.Account,
			Balance: parseBalance(a.Balance),
		})
	}
	return snapshot, nil
}

// JettonTopHoldersProvider fetches the largest holders of one jetton
// from a toncenter-compatible index.
type JettonTopHoldersProvider struct {
	endpoint      string
	masterAddress string
	symbol        string
	apiKey        string
	client        *http.Client
}

// NewJettonTopHoldersProvider creates a provider for one jetton master.
func NewJettonTopHoldersProvider(endpoint, masterAddress, symbol string, opts ...ProviderOption) *JettonTopHoldersProvider {
	cfg := newProviderConfig(opts)
	return &JettonTopHoldersProvider{
		endpoint:      strings.TrimSuffix(endpoint, "/"),
		masterAddress: masterAddress,
		symbol:        symbol,
		apiKey:        cfg.apiKey,
		client:        cfg.client,
	}
}

// GetTopHolders fetches the top jetton wallets, excluding zero balances.
func (p *JettonTopHoldersProvider) GetTopHolders(ctx context.Context, limit int) (*domain.AssetTopHolders, error) {
	url := fmt.Sprintf("%s/api/v3/jetton/wallets?jetton_address=%s&sort=desc&exclude_zero_balance=true&limit=%d",
		p.endpoint, p.masterAddress, limit)

	var resp struct {
		JettonWallets []struct {
			Owner   string `json:"owner"`
			Balance string `json:"balance"`
		} `json:"jetton_wallets"`
	}
	if err := getJSON(ctx, p.client, p.apiKey, url, &resp); err != nil {
		return nil, err
	}

	snapshot := &domain.AssetTopHolders{AssetIdentifier: p.symbol, AssetType: "jetton"}
	for _, w := range resp.JettonWallets {
		snapshot.Holders = append(snapshot.Holders, domain.WalletHolder{
			Address: w.Owner,
			Balance: parseBalance(w.Balance),
		})
	}
	return snapshot, nil
}

// parseBalance reads an arbitrary-precision decimal string; anything
// unparseable counts as zero.
func parseBalance(s string) *big.Int {
	balance, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return balance
}

// getJSON performs one GET request and decodes the JSON body.
func getJSON(ctx context.Context, client *http.Client, apiKey, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

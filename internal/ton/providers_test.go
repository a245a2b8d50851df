package ton

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeTopHoldersProvider_GetTopHolders(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`[
			{"account": "EQbig", "balance": "100000000000000000000000"},
			{"account": "EQsmall", "balance": "9"}
		]`))
	}))
	defer server.Close()

	p := NewNativeTopHoldersProvider(server.URL, WithProviderAPIKey("tc-key"))
	snapshot, err := p.GetTopHolders(context.Background(), 500)
	require.NoError(t, err)

	assert.Equal(t, "/api/v3/topAccountsByBalance", gotPath)
	assert.Equal(t, "limit=500", gotQuery)
	assert.Equal(t, "tc-key", gotKey)

	assert.Equal(t, "TON", snapshot.AssetIdentifier)
	assert.Equal(t, "native", snapshot.AssetType)
	require.Len(t, snapshot.Holders, 2)

	huge, ok := new(big.Int).SetString("100000000000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "EQbig", snapshot.Holders[0].Address)
	assert.Zero(t, snapshot.Holders[0].Balance.Cmp(huge))
	assert.Equal(t, int64(9), snapshot.Holders[1].Balance.Int64())
}

func TestJettonTopHoldersProvider_GetTopHolders(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"jetton_wallets": [
				{"owner": "EQholder1", "balance": "5000"},
				{"owner": "EQholder2", "balance": "not-a-number"}
			]
		}`))
	}))
	defer server.Close()

	p := NewJettonTopHoldersProvider(server.URL, "EQjettonmaster", "USDT")
	snapshot, err := p.GetTopHolders(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, "jetton_address=EQjettonmaster&sort=desc&exclude_zero_balance=true&limit=100", gotQuery)
	assert.Equal(t, "USDT", snapshot.AssetIdentifier)
	assert.Equal(t, "jetton", snapshot.AssetType)
	require.Len(t, snapshot.Holders, 2)
	assert.Equal(t, int64(5000), snapshot.Holders[0].Balance.Int64())

	// Unparseable balances count as zero, not an error.
	assert.Equal(t, int64(0), snapshot.Holders[1].Balance.Int64())
}

func TestProviders_HTTPErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	native := NewNativeTopHoldersProvider(server.URL)
	_, err := native.GetTopHolders(context.Background(), 10)
	require.Error(t, err)

	jetton := NewJettonTopHoldersProvider(server.URL, "EQmaster", "USDT")
	_, err = jetton.GetTopHolders(context.Background(), 10)
	require.Error(t, err)
}

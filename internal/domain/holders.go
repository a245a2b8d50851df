package domain

import "math/big"

// WalletHolder is one holder within a top-holders snapshot.
// Balance is arbitrary precision; jetton supplies overflow int64.
type WalletHolder struct {
	Address string
	Balance *big.Int
}

// AssetTopHolders is a transient snapshot of the largest holders of one
// asset, produced fresh each discovery cycle.
type AssetTopHolders struct {
	AssetIdentifier string
	AssetType       string
	Holders         []WalletHolder
}

// TopAccount is a merged discovery candidate: an address ranked by its
// single largest holding across all asset snapshots.
type TopAccount struct {
	Address string
	Balance *big.Int
}

// Package chain defines the provider-neutral contract for fetching
// Bitcoin block and transaction data.
package chain

import "context"

// PrevOut carries the previous output a transaction input spends. Both
// sighash algorithms need the script and, for segwit, the amount.
type PrevOut struct {
	PkScript []byte
	Value    int64
}

// Transaction is a raw transaction together with its resolved previous
// outputs, one per input (nil entry for coinbase inputs).
type Transaction struct {
	TxID     string
	Raw      []byte
	PrevOuts []*PrevOut
}

// BlockchainSource is the capability contract every upstream provider
// adapter implements. Calls fail with one of the sentinel errors in
// errors.go wrapped around the provider-specific cause.
type BlockchainSource interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// CurrentHeight returns the provider's best chain tip height.
	CurrentHeight(ctx context.Context) (uint64, error)
	// BlockHash returns the hash of the block at the given height.
	BlockHash(ctx context.Context, height uint64) (string, error)
	// BlockTransactions returns the txids of the block with the given hash.
	BlockTransactions(ctx context.Context, blockHash string) ([]string, error)
	// RawTransaction returns the raw transaction with prevouts resolved.
	RawTransaction(ctx context.Context, txid string) (*Transaction, error)
}

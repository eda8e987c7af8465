package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/chain"
	"github.com/goodnatureofminers/keyinsight7000-backend/pkg/safe"
)

const prevTxCacheLimit = 2048

// CoreRPC is the subset of the btcd rpcclient used by the adapter.
// *rpcclient.Client satisfies it.
type CoreRPC interface {
	GetBlockCount() (int64, error)
	GetBlockHash(height int64) (*chainhash.Hash, error)
	GetBlockVerbose(hash *chainhash.Hash) (*btcjson.GetBlockVerboseResult, error)
	GetRawTransaction(hash *chainhash.Hash) (*btcutil.Tx, error)
}

// CoreRPCSource adapts a Bitcoin Core JSON-RPC node to the
// chain.BlockchainSource contract. Core does not inline prevouts, so
// the adapter resolves them by fetching the referenced transactions,
// with a bounded cache since inputs of one block frequently spend the
// same funding transactions.
type CoreRPCSource struct {
	name string
	rpc  CoreRPC

	mu      sync.Mutex
	prevTxs map[string]*wire.MsgTx
}

// NewCoreRPCSource constructs an adapter around a Core RPC client.
func NewCoreRPCSource(name string, rpc CoreRPC) *CoreRPCSource {
	return &CoreRPCSource{
		name:    name,
		rpc:     rpc,
		prevTxs: make(map[string]*wire.MsgTx),
	}
}

// Name identifies the provider in logs and metrics.
func (s *CoreRPCSource) Name() string {
	return s.name
}

// CurrentHeight returns the node's best block height.
func (s *CoreRPCSource) CurrentHeight(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := s.rpc.GetBlockCount()
	if err != nil {
		return 0, wrapRPCError("get block count", err)
	}
	height, err := safe.Uint64(count)
	if err != nil {
		return 0, fmt.Errorf("block count: %v: %w", err, chain.ErrSourceMalformed)
	}
	return height, nil
}

// BlockHash returns the block hash at the given height.
func (s *CoreRPCSource) BlockHash(ctx context.Context, height uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hash, err := s.rpc.GetBlockHash(int64(height))
	if err != nil {
		return "", wrapRPCError(fmt.Sprintf("get block hash at height %d", height), err)
	}
	return hash.String(), nil
}

// BlockTransactions returns the txids of a block.
func (s *CoreRPCSource) BlockTransactions(ctx context.Context, blockHash string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := chainhash.NewHashFromStr(blockHash)
	if err != nil {
		return nil, fmt.Errorf("parse block hash %s: %w", blockHash, chain.ErrSourceMalformed)
	}
	block, err := s.rpc.GetBlockVerbose(hash)
	if err != nil {
		return nil, wrapRPCError(fmt.Sprintf("get block %s", blockHash), err)
	}
	return append([]string(nil), block.Tx...), nil
}

// RawTransaction fetches a transaction and resolves its prevouts from
// the referenced funding transactions.
func (s *CoreRPCSource) RawTransaction(ctx context.Context, txid string) (*chain.Transaction, error) {
	msgTx, err := s.fetchTx(ctx, txid)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := msgTx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serialize tx %s: %w", txid, chain.ErrSourceMalformed)
	}

	prevOuts := make([]*chain.PrevOut, 0, len(msgTx.TxIn))
	for i, txIn := range msgTx.TxIn {
		if isCoinbaseIn(txIn) {
			prevOuts = append(prevOuts, nil)
			continue
		}
		prevTx, err := s.fetchTx(ctx, txIn.PreviousOutPoint.Hash.String())
		if err != nil {
			return nil, fmt.Errorf("resolve prevout for tx %s input %d: %w", txid, i, err)
		}
		voutIdx := txIn.PreviousOutPoint.Index
		if int(voutIdx) >= len(prevTx.TxOut) {
			return nil, fmt.Errorf("tx %s input %d references missing vout %d: %w", txid, i, voutIdx, chain.ErrSourceMalformed)
		}
		out := prevTx.TxOut[voutIdx]
		prevOuts = append(prevOuts, &chain.PrevOut{
			PkScript: append([]byte(nil), out.PkScript...),
			Value:    out.Value,
		})
	}

	return &chain.Transaction{
		TxID:     txid,
		Raw:      buf.Bytes(),
		PrevOuts: prevOuts,
	}, nil
}

func (s *CoreRPCSource) fetchTx(ctx context.Context, txid string) (*wire.MsgTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	cached, ok := s.prevTxs[txid]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("parse txid %s: %w", txid, chain.ErrSourceMalformed)
	}
	tx, err := s.rpc.GetRawTransaction(hash)
	if err != nil {
		return nil, wrapRPCError(fmt.Sprintf("get raw transaction %s", txid), err)
	}
	msgTx := tx.MsgTx()

	s.mu.Lock()
	if len(s.prevTxs) >= prevTxCacheLimit {
		s.prevTxs = make(map[string]*wire.MsgTx)
	}
	s.prevTxs[txid] = msgTx
	s.mu.Unlock()

	return msgTx, nil
}

func isCoinbaseIn(txIn *wire.TxIn) bool {
	return txIn.PreviousOutPoint.Index == wire.MaxPrevOutIndex &&
		txIn.PreviousOutPoint.Hash == (chainhash.Hash{})
}

func wrapRPCError(op string, err error) error {
	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		// btcjson.ErrRPCNoTxInfo is the same constant (-5), so this case covers both.
		case btcjson.ErrRPCBlockNotFound:
			return fmt.Errorf("%s: %v: %w", op, err, chain.ErrNotFound)
		default:
			return fmt.Errorf("%s: %v: %w", op, err, chain.ErrSourceMalformed)
		}
	}
	return fmt.Errorf("%s: %v: %w", op, err, chain.ErrSourceUnavailable)
}

// Package source implements blockchain data providers and the pool
// that rotates between them.
package source

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/chain"
)

const maxResponseBytes = 32 << 20

// EsploraSource adapts an Esplora-style REST API (Blockstream,
// Mempool.space) to the chain.BlockchainSource contract.
type EsploraSource struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewEsploraSource constructs an adapter for one Esplora endpoint.
func NewEsploraSource(name, baseURL string, client *http.Client) *EsploraSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &EsploraSource{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Name identifies the provider in logs and metrics.
func (s *EsploraSource) Name() string {
	return s.name
}

// CurrentHeight returns the chain tip height.
func (s *EsploraSource) CurrentHeight(ctx context.Context) (uint64, error) {
	body, err := s.get(ctx, "/blocks/tip/height")
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse tip height %q: %w", body, chain.ErrSourceMalformed)
	}
	return height, nil
}

// BlockHash returns the block hash at the given height.
func (s *EsploraSource) BlockHash(ctx context.Context, height uint64) (string, error) {
	body, err := s.get(ctx, fmt.Sprintf("/block-height/%d", height))
	if err != nil {
		return "", err
	}
	hash := strings.TrimSpace(string(body))
	if len(hash) != 64 {
		return "", fmt.Errorf("block hash %q at height %d: %w", hash, height, chain.ErrSourceMalformed)
	}
	return hash, nil
}

// BlockTransactions returns the txids contained in a block.
func (s *EsploraSource) BlockTransactions(ctx context.Context, blockHash string) ([]string, error) {
	body, err := s.get(ctx, fmt.Sprintf("/block/%s/txids", blockHash))
	if err != nil {
		return nil, err
	}
	var txids []string
	if err := json.Unmarshal(body, &txids); err != nil {
		return nil, fmt.Errorf("decode txids for block %s: %w", blockHash, chain.ErrSourceMalformed)
	}
	return txids, nil
}

type esploraVin struct {
	IsCoinbase bool `json:"is_coinbase"`
	Prevout    *struct {
		ScriptPubKey string `json:"scriptpubkey"`
		Value        int64  `json:"value"`
	} `json:"prevout"`
}

type esploraTx struct {
	TxID string       `json:"txid"`
	Vin  []esploraVin `json:"vin"`
}

// RawTransaction fetches the raw transaction plus its prevouts. Esplora
// inlines prevout scripts and values in the verbose tx document, so two
// requests cover everything the sighash computation needs.
func (s *EsploraSource) RawTransaction(ctx context.Context, txid string) (*chain.Transaction, error) {
	body, err := s.get(ctx, fmt.Sprintf("/tx/%s", txid))
	if err != nil {
		return nil, err
	}
	var verbose esploraTx
	if err := json.Unmarshal(body, &verbose); err != nil {
		return nil, fmt.Errorf("decode tx %s: %w", txid, chain.ErrSourceMalformed)
	}

	rawHex, err := s.get(ctx, fmt.Sprintf("/tx/%s/hex", txid))
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(rawHex)))
	if err != nil {
		return nil, fmt.Errorf("decode raw tx %s: %w", txid, chain.ErrSourceMalformed)
	}

	prevOuts := make([]*chain.PrevOut, 0, len(verbose.Vin))
	for i, vin := range verbose.Vin {
		if vin.IsCoinbase || vin.Prevout == nil {
			prevOuts = append(prevOuts, nil)
			continue
		}
		script, err := hex.DecodeString(vin.Prevout.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("decode prevout script for tx %s input %d: %w", txid, i, chain.ErrSourceMalformed)
		}
		prevOuts = append(prevOuts, &chain.PrevOut{
			PkScript: script,
			Value:    vin.Prevout.Value,
		})
	}

	return &chain.Transaction{
		TxID:     verbose.TxID,
		Raw:      raw,
		PrevOuts: prevOuts,
	}, nil
}

func (s *EsploraSource) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s %s: %v: %w", s.name, path, err, chain.ErrSourceUnavailable)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s %s: status %d: %w", s.name, path, resp.StatusCode, chain.ErrSourceThrottled)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", s.name, path, chain.ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%s %s: status %d: %w", s.name, path, resp.StatusCode, chain.ErrSourceUnavailable)
	default:
		return nil, fmt.Errorf("%s %s: status %d: %w", s.name, path, resp.StatusCode, chain.ErrSourceMalformed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: read body: %v: %w", s.name, path, err, chain.ErrSourceUnavailable)
	}
	return body, nil
}

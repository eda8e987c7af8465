// Package balance looks up current address balances, used to triage
// recovered keys worth sweeping.
package balance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/chain"
)

const maxResponseBytes = 1 << 20

// AddressBalance is the confirmed and mempool position of one address.
type AddressBalance struct {
	Address     string         `json:"address"`
	Confirmed   btcutil.Amount `json:"confirmed_sats"`
	Unconfirmed btcutil.Amount `json:"unconfirmed_sats"`
	TxCount     uint64         `json:"tx_count"`
	CheckedAt   time.Time      `json:"checked_at"`
}

// Total returns the spendable balance assuming mempool txs confirm.
func (b AddressBalance) Total() btcutil.Amount {
	return b.Confirmed + b.Unconfirmed
}

// Checker queries an Esplora endpoint for address balances.
type Checker struct {
	baseURL string
	params  *chaincfg.Params
	client  *http.Client
}

func NewChecker(baseURL string, params *chaincfg.Params, client *http.Client) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{
		baseURL: strings.TrimRight(baseURL, "/"),
		params:  params,
		client:  client,
	}
}

type esploraStats struct {
	FundedSum uint64 `json:"funded_txo_sum"`
	SpentSum  uint64 `json:"spent_txo_sum"`
	TxCount   uint64 `json:"tx_count"`
}

type esploraAddress struct {
	Address      string       `json:"address"`
	ChainStats   esploraStats `json:"chain_stats"`
	MempoolStats esploraStats `json:"mempool_stats"`
}

// Check returns the balance of one address. The address must parse for
// the configured network.
func (c *Checker) Check(ctx context.Context, address string) (AddressBalance, error) {
	if _, err := btcutil.DecodeAddress(address, c.params); err != nil {
		return AddressBalance{}, fmt.Errorf("address %q: %w", address, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/address/"+address, nil)
	if err != nil {
		return AddressBalance{}, fmt.Errorf("build balance request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return AddressBalance{}, ctx.Err()
		}
		return AddressBalance{}, fmt.Errorf("address %s: %v: %w", address, err, chain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return AddressBalance{}, fmt.Errorf("read balance response: %w", chain.ErrSourceUnavailable)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return AddressBalance{}, fmt.Errorf("address %s: %w", address, chain.ErrSourceThrottled)
	case resp.StatusCode == http.StatusNotFound:
		return AddressBalance{}, fmt.Errorf("address %s: %w", address, chain.ErrNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return AddressBalance{}, fmt.Errorf("address %s: status %d: %w", address, resp.StatusCode, chain.ErrSourceUnavailable)
	default:
		return AddressBalance{}, fmt.Errorf("address %s: status %d: %w", address, resp.StatusCode, chain.ErrSourceMalformed)
	}

	var doc esploraAddress
	if err := json.Unmarshal(body, &doc); err != nil {
		return AddressBalance{}, fmt.Errorf("decode balance for %s: %w", address, chain.ErrSourceMalformed)
	}

	confirmed, err := txoDelta(doc.ChainStats)
	if err != nil {
		return AddressBalance{}, fmt.Errorf("address %s chain stats: %w", address, err)
	}
	// Mempool spends of confirmed outputs make this delta negative.
	unconfirmed := int64(doc.MempoolStats.FundedSum) - int64(doc.MempoolStats.SpentSum)

	return AddressBalance{
		Address:     address,
		Confirmed:   confirmed,
		Unconfirmed: btcutil.Amount(unconfirmed),
		TxCount:     doc.ChainStats.TxCount + doc.MempoolStats.TxCount,
		CheckedAt:   time.Now().UTC(),
	}, nil
}

func txoDelta(stats esploraStats) (btcutil.Amount, error) {
	if stats.SpentSum > stats.FundedSum {
		return 0, errors.New("spent sum exceeds funded sum")
	}
	return btcutil.Amount(stats.FundedSum - stats.SpentSum), nil
}

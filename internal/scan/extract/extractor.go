// Package extract lifts ECDSA signatures out of raw Bitcoin
// transactions for the supported address families.
package extract

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/chain"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

const (
	schnorrSigLen         = 64
	schnorrSigWithTypeLen = 65
)

// Extractor parses input scripts and witnesses and yields normalized
// signature records with the sighash each signature committed to.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract decodes the raw transaction and returns one record per input
// whose script family is requested and parseable. Malformed inputs are
// skipped, never fatal; the skip count feeds the soft-error counter.
func (e *Extractor) Extract(tx *chain.Transaction, addressTypes []model.AddressType) (records []model.SignatureRecord, skipped int, err error) {
	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(tx.Raw)); err != nil {
		return nil, 0, fmt.Errorf("deserialize tx %s: %w", tx.TxID, err)
	}

	txid := tx.TxID
	if txid == "" {
		txid = msgTx.TxHash().String()
	}

	// Every non-coinbase input must carry a resolved prevout before the
	// sighash midstate cache is built: NewTxSigHashes dereferences each
	// one, so a hole from a degraded provider would otherwise panic the
	// worker instead of skipping the transaction.
	for i, txIn := range msgTx.TxIn {
		if isCoinbaseIn(txIn) {
			continue
		}
		if i >= len(tx.PrevOuts) || tx.PrevOuts[i] == nil {
			return nil, 0, fmt.Errorf("tx %s input %d missing prevout: %w", txid, i, chain.ErrSourceMalformed)
		}
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, prevOut := range tx.PrevOuts {
		if prevOut == nil || i >= len(msgTx.TxIn) {
			continue
		}
		fetcher.AddPrevOut(msgTx.TxIn[i].PreviousOutPoint, &wire.TxOut{
			Value:    prevOut.Value,
			PkScript: prevOut.PkScript,
		})
	}
	sigHashes := txscript.NewTxSigHashes(&msgTx, fetcher)

	for i, txIn := range msgTx.TxIn {
		if i >= len(tx.PrevOuts) || tx.PrevOuts[i] == nil {
			continue
		}
		prevOut := tx.PrevOuts[i]

		var (
			record *model.SignatureRecord
			inErr  error
		)
		switch txscript.GetScriptClass(prevOut.PkScript) {
		case txscript.PubKeyHashTy:
			if !wantsType(addressTypes, model.Legacy) {
				continue
			}
			record, inErr = e.extractLegacy(&msgTx, txid, i, txIn, prevOut)
		case txscript.WitnessV0PubKeyHashTy:
			if !wantsType(addressTypes, model.Segwit) {
				continue
			}
			record, inErr = e.extractSegwit(&msgTx, sigHashes, txid, i, txIn, prevOut)
		case txscript.WitnessV1TaprootTy:
			if !wantsType(addressTypes, model.Taproot) {
				continue
			}
			record, inErr = e.extractTaproot(&msgTx, sigHashes, fetcher, txid, i, txIn, prevOut)
		default:
			continue
		}
		if inErr != nil || record == nil {
			skipped++
			continue
		}
		records = append(records, *record)
	}

	return records, skipped, nil
}

// extractLegacy handles P2PKH: scriptSig is <DER sig + hashtype byte> <pubkey>.
func (e *Extractor) extractLegacy(msgTx *wire.MsgTx, txid string, idx int, txIn *wire.TxIn, prevOut *chain.PrevOut) (*model.SignatureRecord, error) {
	pushes, err := scriptPushes(txIn.SignatureScript)
	if err != nil || len(pushes) < 2 {
		return nil, fmt.Errorf("scriptSig shape: %w", err)
	}

	r, s, hashType, err := parseDERWithHashType(pushes[0])
	if err != nil {
		return nil, err
	}
	pubKey := pushes[len(pushes)-1]
	if !plausiblePubKey(pubKey) {
		return nil, fmt.Errorf("pubkey push of %d bytes", len(pubKey))
	}

	digest, err := txscript.CalcSignatureHash(prevOut.PkScript, hashType, msgTx, idx)
	if err != nil {
		return nil, fmt.Errorf("legacy sighash: %w", err)
	}

	return &model.SignatureRecord{
		R:           r,
		S:           s,
		MessageHash: digest,
		TxID:        txid,
		InputIndex:  uint32(idx),
		PublicKey:   append([]byte(nil), pubKey...),
		AddressType: model.Legacy,
	}, nil
}

// extractSegwit handles P2WPKH: witness is [DER sig + hashtype byte, pubkey],
// digested per BIP-143.
func (e *Extractor) extractSegwit(msgTx *wire.MsgTx, sigHashes *txscript.TxSigHashes, txid string, idx int, txIn *wire.TxIn, prevOut *chain.PrevOut) (*model.SignatureRecord, error) {
	if len(txIn.Witness) < 2 {
		return nil, fmt.Errorf("witness has %d items", len(txIn.Witness))
	}

	r, s, hashType, err := parseDERWithHashType(txIn.Witness[0])
	if err != nil {
		return nil, err
	}
	pubKey := txIn.Witness[1]
	if !plausiblePubKey(pubKey) {
		return nil, fmt.Errorf("pubkey push of %d bytes", len(pubKey))
	}

	digest, err := txscript.CalcWitnessSigHash(prevOut.PkScript, sigHashes, hashType, msgTx, idx, prevOut.Value)
	if err != nil {
		return nil, fmt.Errorf("segwit sighash: %w", err)
	}

	return &model.SignatureRecord{
		R:           r,
		S:           s,
		MessageHash: digest,
		TxID:        txid,
		InputIndex:  uint32(idx),
		PublicKey:   append([]byte(nil), pubKey...),
		AddressType: model.Segwit,
	}, nil
}

// extractTaproot handles P2TR key-path spends: a single 64/65-byte
// Schnorr signature. The record is kept for statistics but its nonce
// scheme does not satisfy the linear recovery equation.
func (e *Extractor) extractTaproot(msgTx *wire.MsgTx, sigHashes *txscript.TxSigHashes, fetcher txscript.PrevOutputFetcher, txid string, idx int, txIn *wire.TxIn, prevOut *chain.PrevOut) (*model.SignatureRecord, error) {
	if len(txIn.Witness) == 0 {
		return nil, fmt.Errorf("empty witness")
	}
	sig := txIn.Witness[0]

	hashType := txscript.SigHashDefault
	switch len(sig) {
	case schnorrSigLen:
	case schnorrSigWithTypeLen:
		hashType = txscript.SigHashType(sig[schnorrSigLen])
		sig = sig[:schnorrSigLen]
	default:
		// Script-path spend or unknown shape.
		return nil, fmt.Errorf("schnorr signature of %d bytes", len(txIn.Witness[0]))
	}

	if len(prevOut.PkScript) != 34 {
		return nil, fmt.Errorf("taproot script of %d bytes", len(prevOut.PkScript))
	}
	// Output key is the x-only key after OP_1 <32 bytes>.
	pubKey := prevOut.PkScript[2:]

	digest, err := txscript.CalcTaprootSignatureHash(sigHashes, hashType, msgTx, idx, fetcher)
	if err != nil {
		return nil, fmt.Errorf("taproot sighash: %w", err)
	}

	return &model.SignatureRecord{
		R:           new(big.Int).SetBytes(sig[:32]),
		S:           new(big.Int).SetBytes(sig[32:64]),
		MessageHash: digest,
		TxID:        txid,
		InputIndex:  uint32(idx),
		PublicKey:   append([]byte(nil), pubKey...),
		AddressType: model.Taproot,
	}, nil
}

// parseDERWithHashType splits a script push into the DER body and the
// trailing sighash type byte and decodes (r, s).
func parseDERWithHashType(push []byte) (r, s *big.Int, hashType txscript.SigHashType, err error) {
	if len(push) < 9 {
		return nil, nil, 0, fmt.Errorf("signature push of %d bytes", len(push))
	}
	hashType = txscript.SigHashType(push[len(push)-1])
	sig, err := ecdsa.ParseDERSignature(push[:len(push)-1])
	if err != nil {
		return nil, nil, 0, fmt.Errorf("parse DER signature: %w", err)
	}

	rScalar := sig.R()
	sScalar := sig.S()
	rBytes := rScalar.Bytes()
	sBytes := sScalar.Bytes()
	return new(big.Int).SetBytes(rBytes[:]), new(big.Int).SetBytes(sBytes[:]), hashType, nil
}

// scriptPushes returns the data pushes of a script in order.
func scriptPushes(script []byte) ([][]byte, error) {
	var pushes [][]byte
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		if data := tokenizer.Data(); data != nil {
			pushes = append(pushes, data)
		}
	}
	if err := tokenizer.Err(); err != nil {
		return nil, err
	}
	return pushes, nil
}

func isCoinbaseIn(txIn *wire.TxIn) bool {
	return txIn.PreviousOutPoint.Index == wire.MaxPrevOutIndex &&
		txIn.PreviousOutPoint.Hash == (chainhash.Hash{})
}

func plausiblePubKey(b []byte) bool {
	switch len(b) {
	case 33:
		return b[0] == 0x02 || b[0] == 0x03
	case 65:
		return b[0] == 0x04
	}
	return false
}

func wantsType(types []model.AddressType, t model.AddressType) bool {
	for _, at := range types {
		if at == t {
			return true
		}
	}
	return false
}

package model

import (
	"fmt"
	"math/big"
)

// ValidationStatus describes whether a recovered key reproduces the
// public key observed in the signatures it was derived from.
type ValidationStatus string

var (
	// ValidationValid means the re-derived public key matched.
	ValidationValid ValidationStatus = "valid"
	// ValidationInvalid means the re-derived public key did not match.
	// Invalid results are still reported; they point at extraction bugs.
	ValidationInvalid ValidationStatus = "invalid"
	// ValidationUnverified means no public key was available to check against.
	ValidationUnverified ValidationStatus = "unverified"
)

// SignatureRef points at one half of a colliding signature pair.
type SignatureRef struct {
	TxID       string `json:"tx_id"`
	InputIndex uint32 `json:"input_index"`
	S          string `json:"s"`
	Z          string `json:"z"`
}

// RecoveredKey is the outcome of processing one collision pair.
type RecoveredKey struct {
	PrivateKey           *big.Int         `json:"-"`
	PrivateKeyHex        string           `json:"private_key"`
	CompressedAddress    string           `json:"compressed_address"`
	UncompressedAddress  string           `json:"uncompressed_address"`
	R                    string           `json:"r"`
	PublicKey            string           `json:"public_key"`
	Tx1                  SignatureRef     `json:"tx1"`
	Tx2                  SignatureRef     `json:"tx2"`
	ValidationStatus     ValidationStatus `json:"validation_status"`
}

// EncodePrivateKey renders a scalar as a zero-padded 64-char hex string,
// the conventional display form for secp256k1 private keys.
func EncodePrivateKey(d *big.Int) string {
	return fmt.Sprintf("%064x", d)
}

// Package model defines domain models for reused-R scanning.
package model

import (
	"encoding/hex"
	"math/big"
)

// AddressType identifies the script family a signature was extracted from.
type AddressType string

var (
	// Legacy covers P2PKH inputs signed with the pre-segwit sighash.
	Legacy AddressType = "legacy"
	// Segwit covers P2WPKH inputs signed with the BIP-143 digest.
	Segwit AddressType = "segwit"
	// Taproot covers P2TR key-path spends. Their Schnorr nonces do not
	// satisfy the linear ECDSA recovery equation, so these records are
	// reported but never fed to recovery.
	Taproot AddressType = "taproot"
)

// ParseAddressType maps the wire name of an address family to its type.
func ParseAddressType(raw string) (AddressType, bool) {
	switch AddressType(raw) {
	case Legacy, Segwit, Taproot:
		return AddressType(raw), true
	}
	return "", false
}

// SignatureRecord is one signature lifted from a transaction input.
// Immutable once extracted; owned by the R-value index after insertion.
type SignatureRecord struct {
	R           *big.Int
	S           *big.Int
	MessageHash []byte
	TxID        string
	InputIndex  uint32
	PublicKey   []byte
	AddressType AddressType
}

// Z returns the message hash as an integer, the form the recovery
// equations operate on.
func (r SignatureRecord) Z() *big.Int {
	return new(big.Int).SetBytes(r.MessageHash)
}

// Recoverable reports whether the record can participate in linear
// nonce-reuse recovery.
func (r SignatureRecord) Recoverable() bool {
	return r.AddressType != Taproot
}

// RHex returns the R value as a lowercase hex string.
func (r SignatureRecord) RHex() string {
	return hexInt(r.R)
}

// SHex returns the S value as a lowercase hex string.
func (r SignatureRecord) SHex() string {
	return hexInt(r.S)
}

// PublicKeyHex returns the hex encoding of the signing public key.
func (r SignatureRecord) PublicKeyHex() string {
	return hex.EncodeToString(r.PublicKey)
}

func hexInt(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.Text(16)
}

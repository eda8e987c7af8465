// Package recovery turns colliding signature pairs into private keys
// via the linear nonce-reuse relation.
package recovery

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/rindex"
)

// Anomalies: a pair that cannot produce a key. These are reported and
// counted, never silently dropped.
var (
	// ErrDuplicateSignature means both signatures are byte-identical, a
	// relay duplicate rather than a nonce-reuse leak.
	ErrDuplicateSignature = errors.New("duplicate signature pair")
	// ErrNonInvertible means a modular inverse required by the recovery
	// equation does not exist.
	ErrNonInvertible = errors.New("non-invertible recovery step")
	// ErrUnsupportedScheme means the pair uses a signature scheme whose
	// nonces do not satisfy the linear recovery equation (Schnorr).
	ErrUnsupportedScheme = errors.New("unsupported signature scheme")
	// ErrPairProcessed means this pair was already resolved once.
	ErrPairProcessed = errors.New("pair already processed")
)

// Recoverer computes private keys from colliding pairs and validates
// them against the observed public key.
type Recoverer struct {
	params *chaincfg.Params
	order  *big.Int

	mu   sync.Mutex
	seen map[pairKey]struct{}
}

type pairKey struct {
	tx1 string
	in1 uint32
	tx2 string
	in2 uint32
}

// NewRecoverer returns a Recoverer deriving addresses for the given
// network.
func NewRecoverer(params *chaincfg.Params) *Recoverer {
	return &Recoverer{
		params: params,
		order:  new(big.Int).Set(btcec.S256().N),
		seen:   make(map[pairKey]struct{}),
	}
}

// Recover processes one collision pair and returns exactly one
// RecoveredKey, or an anomaly error. A given unordered pair is
// processed at most once per Recoverer.
func (rc *Recoverer) Recover(pair rindex.Collision) (*model.RecoveredKey, error) {
	first, second := pair.Existing, pair.New

	if !first.Recoverable() || !second.Recoverable() {
		return nil, fmt.Errorf("tx %s input %d: %w", second.TxID, second.InputIndex, ErrUnsupportedScheme)
	}
	if err := rc.markSeen(first, second); err != nil {
		return nil, err
	}

	n := rc.order
	s1, s2 := new(big.Int).Mod(first.S, n), new(big.Int).Mod(second.S, n)
	z1, z2 := new(big.Int).Mod(first.Z(), n), new(big.Int).Mod(second.Z(), n)
	r := new(big.Int).Mod(first.R, n)

	if s1.Cmp(s2) == 0 && z1.Cmp(z2) == 0 {
		return nil, fmt.Errorf("tx %s/%s: %w", first.TxID, second.TxID, ErrDuplicateSignature)
	}
	if r.Sign() == 0 {
		return nil, fmt.Errorf("zero r value: %w", ErrNonInvertible)
	}

	// k = (z1 - z2) * (s1 - s2)^-1 mod n for signatures as produced,
	// but low-S normalization may have replaced either s with n - s,
	// in which case the shared nonce satisfies the same relation over
	// s1 + s2 instead. Collect nonce candidates from both denominators
	// (and their negations, covering a flipped s1) and keep whichever
	// private key reproduces the observed public key.
	zDiff := new(big.Int).Sub(z1, z2)
	zDiff.Mod(zDiff, n)

	var candidates []*big.Int
	for _, den := range []*big.Int{new(big.Int).Sub(s1, s2), new(big.Int).Add(s1, s2)} {
		den.Mod(den, n)
		denInv := new(big.Int).ModInverse(den, n)
		if denInv == nil {
			continue
		}
		k := new(big.Int).Mul(zDiff, denInv)
		k.Mod(k, n)
		candidates = append(candidates, k, new(big.Int).Sub(n, k))
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("neither s1 - s2 nor s1 + s2 invertible mod n: %w", ErrNonInvertible)
	}

	rInv := new(big.Int).ModInverse(r, n)
	if rInv == nil {
		return nil, fmt.Errorf("r not invertible mod n: %w", ErrNonInvertible)
	}

	d := privateKeyFor(s1, candidates[0], z1, rInv, n)
	status := rc.validate(d, first.PublicKey)
	if status == model.ValidationInvalid {
		for _, k := range candidates[1:] {
			if cand := privateKeyFor(s1, k, z1, rInv, n); rc.validate(cand, first.PublicKey) == model.ValidationValid {
				d, status = cand, model.ValidationValid
				break
			}
		}
	}
	if d.Sign() == 0 {
		return nil, fmt.Errorf("recovered zero key: %w", ErrNonInvertible)
	}

	compressed, uncompressed := rc.addresses(d, first.AddressType)

	return &model.RecoveredKey{
		PrivateKey:          d,
		PrivateKeyHex:       model.EncodePrivateKey(d),
		CompressedAddress:   compressed,
		UncompressedAddress: uncompressed,
		R:                   first.RHex(),
		PublicKey:           first.PublicKeyHex(),
		Tx1: model.SignatureRef{
			TxID:       first.TxID,
			InputIndex: first.InputIndex,
			S:          first.SHex(),
			Z:          z1.Text(16),
		},
		Tx2: model.SignatureRef{
			TxID:       second.TxID,
			InputIndex: second.InputIndex,
			S:          second.SHex(),
			Z:          z2.Text(16),
		},
		ValidationStatus: status,
	}, nil
}

func (rc *Recoverer) markSeen(first, second model.SignatureRecord) error {
	key := pairKey{tx1: first.TxID, in1: first.InputIndex, tx2: second.TxID, in2: second.InputIndex}
	if key.tx2 < key.tx1 || (key.tx2 == key.tx1 && key.in2 < key.in1) {
		key = pairKey{tx1: key.tx2, in1: key.in2, tx2: key.tx1, in2: key.in1}
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, ok := rc.seen[key]; ok {
		return ErrPairProcessed
	}
	rc.seen[key] = struct{}{}
	return nil
}

// privateKeyFor computes d = (s*k - z) * r^-1 mod n.
func privateKeyFor(s, k, z, rInv, n *big.Int) *big.Int {
	d := new(big.Int).Mul(s, k)
	d.Sub(d, z)
	d.Mul(d, rInv)
	d.Mod(d, n)
	return d
}

// validate re-derives the public key from d and compares both encodings
// against the observed key.
func (rc *Recoverer) validate(d *big.Int, observed []byte) model.ValidationStatus {
	if len(observed) == 0 {
		return model.ValidationUnverified
	}
	if d.Sign() <= 0 || d.Cmp(rc.order) >= 0 {
		return model.ValidationInvalid
	}

	priv, _ := btcec.PrivKeyFromBytes(paddedBytes(d))
	pub := priv.PubKey()
	if bytes.Equal(pub.SerializeCompressed(), observed) ||
		bytes.Equal(pub.SerializeUncompressed(), observed) {
		return model.ValidationValid
	}
	return model.ValidationInvalid
}

// addresses derives the compressed and uncompressed address encodings.
// The uncompressed form only exists as base58 P2PKH; the compressed
// form follows the address family the signatures were seen under.
func (rc *Recoverer) addresses(d *big.Int, addressType model.AddressType) (compressed, uncompressed string) {
	priv, _ := btcec.PrivKeyFromBytes(paddedBytes(d))
	pub := priv.PubKey()

	if addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeUncompressed()), rc.params); err == nil {
		uncompressed = addr.EncodeAddress()
	}

	compressedSer := pub.SerializeCompressed()
	switch addressType {
	case model.Segwit:
		if addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(compressedSer), rc.params); err == nil {
			compressed = addr.EncodeAddress()
		}
	default:
		if addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(compressedSer), rc.params); err == nil {
			compressed = addr.EncodeAddress()
		}
	}
	return compressed, uncompressed
}

func paddedBytes(v *big.Int) []byte {
	out := make([]byte, 32)
	b := v.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out
}

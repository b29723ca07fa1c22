package crypto

import (
	"encoding/binary"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ErrNoValidBump is returned when no bump seed yields an off-curve address for
// the supplied seed tuple. With 256 candidates and an independent ~50% success
// probability per probe this is not expected to occur in practice.
var ErrNoValidBump = errors.New("crypto: no valid bump seed for derivation")

var derivationDomain = []byte("nftlend/derived-address/v1")

// DeriveAddress deterministically derives a protocol-owned address from the
// supplied seed tuple. The derivation probes bump seeds from 255 downward and
// rejects any candidate digest that corresponds to a point on the secp256k1
// curve: an off-curve digest cannot be the image of a public key, so no private
// key can ever control the derived address. The winning bump is returned so
// callers can reproduce the derivation without re-probing.
func DeriveAddress(seeds ...[]byte) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		digest := deriveDigest(seeds, uint8(bump))
		if onCurve(digest) {
			continue
		}
		return NewAddress(LendPrefix, digest[12:]), uint8(bump), nil
	}
	return Address{}, 0, ErrNoValidBump
}

// DeriveRecordID derives a 32-byte record identifier from the seed tuple. Record
// identifiers locate state records (loan requests, loans, multisig
// transactions) without a discovery index; unlike addresses they never need to
// be off-curve because no value can be held at them.
func DeriveRecordID(seeds ...[]byte) [32]byte {
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256(encodeSeeds(seeds, nil)))
	return id
}

func deriveDigest(seeds [][]byte, bump uint8) [32]byte {
	var digest [32]byte
	copy(digest[:], ethcrypto.Keccak256(encodeSeeds(seeds, []byte{bump})))
	return digest
}

// encodeSeeds length-prefixes every seed so distinct tuples can never produce
// the same preimage (e.g. ["ab","c"] vs ["a","bc"]).
func encodeSeeds(seeds [][]byte, suffix []byte) []byte {
	buf := make([]byte, 0, len(derivationDomain)+len(suffix)+16*len(seeds))
	buf = append(buf, derivationDomain...)
	for _, seed := range seeds {
		buf = binary.AppendUvarint(buf, uint64(len(seed)))
		buf = append(buf, seed...)
	}
	buf = append(buf, suffix...)
	return buf
}

// onCurve reports whether the digest, read as a big-endian X coordinate, lies
// on secp256k1 (y^2 = x^3 + 7). Digests at or above the field prime cannot be
// coordinates and are therefore off-curve.
func onCurve(digest [32]byte) bool {
	params := ethcrypto.S256().Params()
	x := new(big.Int).SetBytes(digest[:])
	if x.Cmp(params.P) >= 0 {
		return false
	}
	ySq := new(big.Int).Exp(x, big.NewInt(3), params.P)
	ySq.Add(ySq, params.B)
	ySq.Mod(ySq, params.P)
	// Jacobi symbol -1 means y^2 has no square root mod P, so no point with
	// this X coordinate exists. 0 (y = 0) and 1 both admit a point.
	return big.Jacobi(ySq, params.P) != -1
}

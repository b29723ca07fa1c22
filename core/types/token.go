package types

import "encoding/hex"

// TokenID identifies a fungible token mint on the ledger. The zero value is
// the sentinel for the native platform currency rather than a specific mint.
type TokenID [32]byte

// NativeToken is the sentinel token identifier for the native currency.
var NativeToken TokenID

// IsNative reports whether the identifier denotes the native currency.
func (t TokenID) IsNative() bool {
	return t == NativeToken
}

func (t TokenID) String() string {
	if t.IsNative() {
		return "native"
	}
	return hex.EncodeToString(t[:])
}

// MintID identifies a unique (NFT) mint. Every mint has supply one and a
// single owner record on the ledger.
type MintID [32]byte

func (m MintID) String() string {
	return hex.EncodeToString(m[:])
}

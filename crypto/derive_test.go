package crypto

import (
	"testing"
)

func TestDeriveAddressDeterministic(t *testing.T) {
	addr1, bump1, err := DeriveAddress([]byte("platform_fees"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	addr2, bump2, err := DeriveAddress([]byte("platform_fees"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if addr1.String() != addr2.String() || bump1 != bump2 {
		t.Fatalf("derivation not deterministic: %s/%d vs %s/%d", addr1, bump1, addr2, bump2)
	}
}

func TestDeriveAddressDistinctSeeds(t *testing.T) {
	seen := make(map[string]struct{})
	tuples := [][][]byte{
		{[]byte("multisig")},
		{[]byte("platform_fees")},
		{[]byte("nft_escrow"), []byte("request-1")},
		{[]byte("nft_escrow"), []byte("request-2")},
		// Length-prefixing must keep these apart.
		{[]byte("ab"), []byte("c")},
		{[]byte("a"), []byte("bc")},
	}
	for _, seeds := range tuples {
		addr, _, err := DeriveAddress(seeds...)
		if err != nil {
			t.Fatalf("derive %q: %v", seeds, err)
		}
		key := addr.String()
		if _, dup := seen[key]; dup {
			t.Fatalf("seed tuple %q collided with a previous derivation", seeds)
		}
		seen[key] = struct{}{}
	}
}

func TestDeriveAddressOffCurve(t *testing.T) {
	for i := byte(0); i < 32; i++ {
		_, bump, err := DeriveAddress([]byte{i})
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		if onCurve(deriveDigest([][]byte{{i}}, bump)) {
			t.Fatalf("winning bump %d produced an on-curve digest", bump)
		}
	}
}

func TestDeriveRecordIDDeterministic(t *testing.T) {
	a := DeriveRecordID([]byte("loan"), []byte("x"))
	b := DeriveRecordID([]byte("loan"), []byte("x"))
	if a != b {
		t.Fatal("record id derivation not deterministic")
	}
	c := DeriveRecordID([]byte("loan"), []byte("y"))
	if a == c {
		t.Fatal("distinct seed tuples must produce distinct record ids")
	}
}

func TestPublicKeyAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.String() != addr.String() {
		t.Fatalf("round-trip mismatch: %s vs %s", decoded, addr)
	}
}

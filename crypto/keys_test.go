package crypto

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcutil/bech32"
)

func TestDecodeAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode %q: %v", addr.String(), err)
	}
	if decoded.Prefix() != addr.Prefix() || !bytes.Equal(decoded.Bytes(), addr.Bytes()) {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, addr)
	}
}

func TestDecodeAddressRejectsWrongLength(t *testing.T) {
	for _, size := range []int{19, 21, 32} {
		conv, err := bech32.ConvertBits(make([]byte, size), 8, 5, true)
		if err != nil {
			t.Fatalf("convert bits: %v", err)
		}
		encoded, err := bech32.Encode(string(LendPrefix), conv)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if _, err := DecodeAddress(encoded); err == nil {
			t.Fatalf("decoded %d-byte payload %q without error", size, encoded)
		}
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-an-address"); err == nil {
		t.Fatal("decoded malformed string without error")
	}
}

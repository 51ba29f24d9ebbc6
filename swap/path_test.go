package swap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func pathAddr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func TestEncodeDecodePathRoundTrip(t *testing.T) {
	tokens := []common.Address{pathAddr(0x01), pathAddr(0x02), pathAddr(0x03)}
	fees := []uint32{500, 3000}

	encoded, err := EncodePath(tokens, fees)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) != 20*3+3*2 {
		t.Fatalf("unexpected encoded length %d", len(encoded))
	}

	gotTokens, gotFees, err := DecodePath(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(gotTokens) != 3 || len(gotFees) != 2 {
		t.Fatalf("unexpected shape: %d tokens, %d fees", len(gotTokens), len(gotFees))
	}
	for i := range tokens {
		if gotTokens[i] != tokens[i] {
			t.Fatalf("token %d mismatch: %s", i, gotTokens[i])
		}
	}
	for i := range fees {
		if gotFees[i] != fees[i] {
			t.Fatalf("fee %d mismatch: %d", i, gotFees[i])
		}
	}
}

func TestEncodePathRejectsShapeMismatch(t *testing.T) {
	if _, err := EncodePath([]common.Address{pathAddr(0x01)}, nil); !errors.Is(err, ErrPathTooShort) {
		t.Fatalf("expected ErrPathTooShort, got %v", err)
	}
	tokens := []common.Address{pathAddr(0x01), pathAddr(0x02)}
	if _, err := EncodePath(tokens, []uint32{500, 3000}); !errors.Is(err, ErrMalformedPath) {
		t.Fatalf("expected ErrMalformedPath, got %v", err)
	}
	if _, err := EncodePath(tokens, []uint32{0x1000000}); !errors.Is(err, ErrMalformedPath) {
		t.Fatalf("expected ErrMalformedPath for oversize fee, got %v", err)
	}
}

func TestDecodePathRejectsTruncation(t *testing.T) {
	tokens := []common.Address{pathAddr(0x01), pathAddr(0x02)}
	encoded, err := EncodePath(tokens, []uint32{500})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, _, err := DecodePath(encoded[:len(encoded)-1]); !errors.Is(err, ErrMalformedPath) {
		t.Fatalf("expected ErrMalformedPath, got %v", err)
	}
	if _, _, err := DecodePath(encoded[:10]); !errors.Is(err, ErrPathTooShort) {
		t.Fatalf("expected ErrPathTooShort, got %v", err)
	}
}

func TestReversePath(t *testing.T) {
	tokens := []common.Address{pathAddr(0x01), pathAddr(0x02), pathAddr(0x03)}
	fees := []uint32{500, 3000}
	encoded, err := EncodePath(tokens, fees)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	reversed, err := ReversePath(encoded)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	expected, err := EncodePath(
		[]common.Address{pathAddr(0x03), pathAddr(0x02), pathAddr(0x01)},
		[]uint32{3000, 500},
	)
	if err != nil {
		t.Fatalf("encode expected: %v", err)
	}
	if !bytes.Equal(reversed, expected) {
		t.Fatalf("unexpected reversed path %x", reversed)
	}
}

func TestPathEndpoints(t *testing.T) {
	encoded, err := EncodePath([]common.Address{pathAddr(0x01), pathAddr(0x02), pathAddr(0x03)}, []uint32{500, 3000})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	first, last, err := PathEndpoints(encoded)
	if err != nil {
		t.Fatalf("endpoints: %v", err)
	}
	if first != pathAddr(0x01) || last != pathAddr(0x03) {
		t.Fatalf("unexpected endpoints %s %s", first, last)
	}
}

package swap

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

const (
	addressLength = 20
	feeLength     = 3
	hopLength     = addressLength + feeLength
)

var (
	// ErrMalformedPath indicates the encoded hop sequence does not decompose
	// into token/fee pairs.
	ErrMalformedPath = errors.New("swap: malformed path")
	// ErrPathTooShort indicates the path holds fewer than two tokens.
	ErrPathTooShort = errors.New("swap: path requires at least two tokens")
)

// EncodePath packs an ordered token sequence with intermediate fee tiers into
// the wire layout consumed by the router: 20-byte token address followed by a
// 3-byte fee tier, repeating, terminated by the final token address.
func EncodePath(tokens []common.Address, fees []uint32) ([]byte, error) {
	if len(tokens) < 2 {
		return nil, ErrPathTooShort
	}
	if len(fees) != len(tokens)-1 {
		return nil, ErrMalformedPath
	}
	encoded := make([]byte, 0, len(tokens)*addressLength+len(fees)*feeLength)
	for i, token := range tokens {
		encoded = append(encoded, token.Bytes()...)
		if i < len(fees) {
			fee := fees[i]
			if fee > 0xFFFFFF {
				return nil, ErrMalformedPath
			}
			encoded = append(encoded, byte(fee>>16), byte(fee>>8), byte(fee))
		}
	}
	return encoded, nil
}

// DecodePath unpacks an encoded hop sequence back into tokens and fee tiers.
func DecodePath(path []byte) ([]common.Address, []uint32, error) {
	if len(path) < 2*addressLength+feeLength {
		return nil, nil, ErrPathTooShort
	}
	if (len(path)-addressLength)%hopLength != 0 {
		return nil, nil, ErrMalformedPath
	}
	hops := (len(path) - addressLength) / hopLength
	tokens := make([]common.Address, 0, hops+1)
	fees := make([]uint32, 0, hops)
	offset := 0
	for i := 0; i < hops; i++ {
		tokens = append(tokens, common.BytesToAddress(path[offset:offset+addressLength]))
		offset += addressLength
		fees = append(fees, uint32(path[offset])<<16|uint32(path[offset+1])<<8|uint32(path[offset+2]))
		offset += feeLength
	}
	tokens = append(tokens, common.BytesToAddress(path[offset:offset+addressLength]))
	return tokens, fees, nil
}

// PathEndpoints returns the first and last token of an encoded path without
// fully decoding it.
func PathEndpoints(path []byte) (common.Address, common.Address, error) {
	tokens, _, err := DecodePath(path)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return tokens[0], tokens[len(tokens)-1], nil
}

// ReversePath returns the same route traversed in the opposite direction,
// which is the layout exact-output routers expect.
func ReversePath(path []byte) ([]byte, error) {
	tokens, fees, err := DecodePath(path)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}
	for i, j := 0, len(fees)-1; i < j; i, j = i+1, j-1 {
		fees[i], fees[j] = fees[j], fees[i]
	}
	return EncodePath(tokens, fees)
}

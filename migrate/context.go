package migrate

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// CallbackContext carries one in-flight migration through the flash loan
// round-trip. The engine hashes the encoded context before requesting the
// loan and accepts exactly one callback carrying the matching payload.
type CallbackContext struct {
	User          common.Address
	Adapter       common.Address
	Comet         common.Address
	MigrationData []byte
	FlashAmount   *big.Int
}

// EncodeCallbackContext serialises the context for the flash pool's data
// parameter.
func EncodeCallbackContext(ctx *CallbackContext) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("encode callback context: %w", err)
	}
	return encoded, nil
}

// DecodeCallbackContext parses a flash pool data payload.
func DecodeCallbackContext(data []byte) (*CallbackContext, error) {
	ctx := new(CallbackContext)
	if err := rlp.DecodeBytes(data, ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCallbackHash, err)
	}
	return ctx, nil
}

// CallbackHash returns the commitment stored while a migration is in flight.
func CallbackHash(data []byte) common.Hash {
	return ethcrypto.Keccak256Hash(data)
}

package ledger

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/ethereum/go-ethereum/common"
)

// markerAddress derives a deterministic pseudo-token address for internal
// position accounting. Marker balances never leave the reference ledger that
// minted them.
func markerAddress(tag string, seed []byte) common.Address {
	digest := ethcrypto.Keccak256([]byte(tag), seed)
	return common.BytesToAddress(digest[12:])
}

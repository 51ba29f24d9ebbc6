package migrate

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	adapterKeyPrefix   = "adapter/"
	flashKeyPrefix     = "flash/"
	migrationKeyPrefix = "migration/"
)

// adapterRecord persists one adapter registration.
type adapterRecord struct {
	Address common.Address
	AddedAt uint64
}

// flashRecord persists the flash wiring for one destination market.
type flashRecord struct {
	Comet   common.Address
	Pool    common.Address
	Token0  common.Address
	Token1  common.Address
	Base    common.Address
	AddedAt uint64
}

// MigrationRecord journals one executed migration. The read surface serves
// these back out of storage.
type MigrationRecord struct {
	ID          [16]byte
	User        common.Address
	Adapter     common.Address
	Comet       common.Address
	FlashAmount *big.Int
	Fee         *big.Int
	Timestamp   uint64
}

func adapterKey(addr common.Address) []byte {
	return []byte(adapterKeyPrefix + addr.Hex())
}

func flashKey(addr common.Address) []byte {
	return []byte(flashKeyPrefix + addr.Hex())
}

func migrationKey(id [16]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", migrationKeyPrefix, id))
}

// DecodeMigrationRecord parses a journaled migration.
func DecodeMigrationRecord(data []byte) (*MigrationRecord, error) {
	record := new(MigrationRecord)
	if err := rlp.DecodeBytes(data, record); err != nil {
		return nil, fmt.Errorf("decode migration record: %w", err)
	}
	return record, nil
}

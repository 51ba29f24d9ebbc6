package migrate

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Event describes one completed migration. Subscribers receive it after the
// flash loan settled and the record was journaled.
type Event struct {
	ID          uuid.UUID
	User        common.Address
	Adapter     common.Address
	Comet       common.Address
	FlashAmount *big.Int
	Fee         *big.Int
	Timestamp   time.Time
}

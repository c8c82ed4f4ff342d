package data

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrFillClosed   = errors.New("order fill is closed")
	ErrFillExceeded = errors.New("fill exceeds order capacity")
)

// LogID identifies a chain log by its transaction and position in the block.
type LogID struct {
	TxHash common.Hash
	Index  uint
}

// Fill is the settlement bookkeeping of one order. Nothing else about an order
// is retained.
type Fill struct {
	Key    types.OrderKey
	Filled *big.Int
	Closed bool
}

type Fills interface {
	// Get returns nil when the order was never filled.
	Get(key types.OrderKey) (*Fill, error)
	// Settle adds quantity to the filled counter and runs apply as a single
	// atomic step. It fails with ErrFillClosed or ErrFillExceeded without
	// calling apply, and leaves the counter untouched when apply fails.
	Settle(key types.OrderKey, quantity, capacity *big.Int, apply func(filled *big.Int) error) (*Fill, error)
	// Record mirrors a fill observed on chain, without capacity checks. A log
	// that was recorded before is skipped, so replays do not count twice.
	Record(key types.OrderKey, quantity *big.Int, log LogID) error
	Close(key types.OrderKey) error
}

// Blocks keeps the last block processed by the indexer.
type Blocks interface {
	Set(block uint64) error
	// Get returns nil when nothing was indexed yet.
	Get() (*uint64, error)
}

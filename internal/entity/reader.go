package entity

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoCode is matched by reads of a contract that has no code at the
// requested block, e.g. one deployed later.
var ErrNoCode = bind.ErrNoCode

// ERC20Reader reads token state at a given block.
type ERC20Reader interface {
	Name(ctx context.Context, block uint64, token common.Address) (string, error)
	Symbol(ctx context.Context, block uint64, token common.Address) (string, error)
	Decimals(ctx context.Context, block uint64, token common.Address) (uint8, error)
	TotalSupply(ctx context.Context, block uint64, token common.Address) (*big.Int, error)
	Allowance(ctx context.Context, block uint64, token, owner, spender common.Address) (*big.Int, error)
}

// Reserves is the result of getReserves() on a pair.
type Reserves struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// PairReader reads liquidity pair state at a given block.
type PairReader interface {
	Token0(ctx context.Context, block uint64, pair common.Address) (common.Address, error)
	Token1(ctx context.Context, block uint64, pair common.Address) (common.Address, error)
	GetReserves(ctx context.Context, block uint64, pair common.Address) (Reserves, error)
	TotalSupply(ctx context.Context, block uint64, token common.Address) (*big.Int, error)
}

// AuctionHouseReader reads auction-house parameters at a given block.
type AuctionHouseReader interface {
	BidIncrease(ctx context.Context, block uint64, house common.Address) (*big.Int, error)
	BidDuration(ctx context.Context, block uint64, house common.Address) (uint64, error)
	TotalAuctionLength(ctx context.Context, block uint64, house common.Address) (uint64, error)
}

// ContractReader is the read-only on-chain call facility.
type ContractReader interface {
	ERC20Reader
	PairReader
	AuctionHouseReader
}

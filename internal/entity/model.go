package entity

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/matrixise/geb-ledger/internal/event"
)

// Token is an ERC-20 contract.
type Token struct {
	ID          string
	Address     common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply decimal.Decimal
}

// TokenBalance is the running balance of one holder for one token.
type TokenBalance struct {
	ID           string
	TokenAddress common.Address
	Address      common.Address
	Balance      decimal.Decimal
	Modified     event.Stamp
}

// TokenAllowance is what ApprovedAddress may spend from Address.
type TokenAllowance struct {
	ID              string
	TokenAddress    common.Address
	Address         common.Address
	BalanceID       string
	ApprovedAddress common.Address
	Amount          decimal.Decimal
	Modified        event.Stamp
}

// TransferRecord is the immutable history row of a Transfer event.
type TransferRecord struct {
	ID           string
	TokenAddress common.Address
	Source       common.Address
	Destination  common.Address
	Amount       decimal.Decimal
	Created      event.Stamp
}

// LiquidityPool is a constant-product pair.
type LiquidityPool struct {
	ID          string
	Address     common.Address
	Token0      common.Address
	Token1      common.Address
	Reserve0    decimal.Decimal
	Reserve1    decimal.Decimal
	Token0Price decimal.Decimal
	Token1Price decimal.Decimal
	TotalSupply decimal.Decimal
	Created     event.Stamp
	Modified    event.Stamp
}

// SwapRecord is the immutable history row of a Swap event.
type SwapRecord struct {
	ID         string
	PoolID     string
	Amount0In  decimal.Decimal
	Amount1In  decimal.Decimal
	Amount0Out decimal.Decimal
	Amount1Out decimal.Decimal
	Sender     common.Address
	Created    event.Stamp
}

// SyncRecord is the immutable history row of a Sync event.
type SyncRecord struct {
	ID       string
	PoolID   string
	Reserve0 decimal.Decimal
	Reserve1 decimal.Decimal
	Created  event.Stamp
}

// SaviorBalance is the LP stake a savior holds for one SAFE handler.
type SaviorBalance struct {
	ID            string
	SaviorAddress common.Address
	Address       common.Address
	Balance       decimal.Decimal
	Created       event.Stamp
}

// SaviorBalanceChange is one append-only delta of a SaviorBalance.
type SaviorBalanceChange struct {
	ID            string
	SaviorAddress common.Address
	Address       common.Address
	DeltaBalance  decimal.Decimal
	Created       event.Stamp
}

// AuctionConfiguration holds the auction-house parameters for one auction type.
type AuctionConfiguration struct {
	ID                 string
	BidIncrease        decimal.Decimal
	BidDuration        uint64
	TotalAuctionLength uint64
}

// Auction is one English auction.
type Auction struct {
	ID                 string
	AuctionID          *big.Int
	NumberOfBids       uint64
	EnglishAuctionType string
	BuyToken           string
	SellToken          string
	SellInitialAmount  decimal.Decimal
	BuyInitialAmount   decimal.Decimal
	SellAmount         decimal.Decimal
	BuyAmount          decimal.Decimal
	Price              decimal.NullDecimal
	Winner             *common.Address
	AuctionDeadline    uint64
	IsClaimed          bool
	StartedBy          common.Address
	ConfigurationID    string
	Created            event.Stamp
}

// AuctionBid is the immutable record of an accepted bid.
type AuctionBid struct {
	ID         string
	BidNumber  uint64
	Type       string
	AuctionID  string
	SellAmount decimal.Decimal
	BuyAmount  decimal.Decimal
	Price      decimal.Decimal
	Bidder     common.Address
	Created    event.Stamp
}

// Cursor tracks ingestion progress so that every event is applied once.
type Cursor struct {
	ID        string
	NextBlock uint64
	LastEvent event.Position
	HasEvent  bool
	UpdatedAt time.Time
}

// Applied reports whether the event at pos was already applied.
func (c *Cursor) Applied(pos event.Position) bool {
	return c.HasEvent && pos.Compare(c.LastEvent) <= 0
}

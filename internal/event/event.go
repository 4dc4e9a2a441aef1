// Package event defines the decoded on-chain events consumed by the ledger.
package event

import (
	"cmp"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Position is the consensus ordering key of a log.
type Position struct {
	BlockNumber uint64
	TxIndex     uint
	LogIndex    uint
}

// Compare orders positions by block, then transaction, then log index.
func (p Position) Compare(o Position) int {
	if c := cmp.Compare(p.BlockNumber, o.BlockNumber); c != 0 {
		return c
	}
	if c := cmp.Compare(p.TxIndex, o.TxIndex); c != 0 {
		return c
	}
	return cmp.Compare(p.LogIndex, o.LogIndex)
}

func (p Position) String() string {
	return fmt.Sprintf("%d/%d/%d", p.BlockNumber, p.TxIndex, p.LogIndex)
}

// Stamp records where and when an entity was created or modified.
type Stamp struct {
	Block       uint64
	Transaction common.Hash
	Timestamp   time.Time
}

// Meta is carried by every event.
type Meta struct {
	Position
	Contract  common.Address
	Timestamp time.Time
	TxHash    common.Hash
	TxFrom    common.Address
}

// EventMeta returns the event coordinates.
func (m Meta) EventMeta() Meta { return m }

// Stamp returns the block/transaction/time triple of the event.
func (m Meta) Stamp() Stamp {
	return Stamp{Block: m.BlockNumber, Transaction: m.TxHash, Timestamp: m.Timestamp}
}

// UID identifies the event globally: transaction hash and log index.
func (m Meta) UID() string {
	return strings.ToLower(m.TxHash.Hex()) + "-" + fmt.Sprint(m.LogIndex)
}

// Event is implemented by every decoded event.
type Event interface {
	EventMeta() Meta
	Name() string
}

// Transfer is an ERC-20 Transfer(src, dst, amount).
type Transfer struct {
	Meta
	From  common.Address
	To    common.Address
	Value *big.Int
}

func (*Transfer) Name() string { return "Transfer" }

// Approval is an ERC-20 Approval(owner, spender, amount).
type Approval struct {
	Meta
	Owner   common.Address
	Spender common.Address
	Value   *big.Int
}

func (*Approval) Name() string { return "Approval" }

// Sync carries the reserves of a pair after a liquidity change.
type Sync struct {
	Meta
	Reserve0 *big.Int
	Reserve1 *big.Int
}

func (*Sync) Name() string { return "Sync" }

// Swap is emitted by a pair for every trade.
type Swap struct {
	Meta
	Sender     common.Address
	To         common.Address
	Amount0In  *big.Int
	Amount1In  *big.Int
	Amount0Out *big.Int
	Amount1Out *big.Int
}

func (*Swap) Name() string { return "Swap" }

// AuctionHouseModified covers the administrative auction-house events
// (AddAuthorization, ModifyParameters) that require re-reading its settings.
type AuctionHouseModified struct {
	Meta
	Reason string
}

func (*AuctionHouseModified) Name() string { return "AuctionHouseModified" }

// StartAuction opens a new surplus auction.
type StartAuction struct {
	Meta
	ID           *big.Int
	AmountToSell *big.Int
	InitialBid   *big.Int
}

func (*StartAuction) Name() string { return "StartAuction" }

// IncreaseBidSize records an accepted bid.
type IncreaseBidSize struct {
	Meta
	ID         *big.Int
	HighBidder common.Address
	Bid        *big.Int
	BidExpiry  uint64
}

func (*IncreaseBidSize) Name() string { return "IncreaseBidSize" }

// RestartAuction moves the deadline of an auction that received no bids.
type RestartAuction struct {
	Meta
	ID              *big.Int
	AuctionDeadline uint64
}

func (*RestartAuction) Name() string { return "RestartAuction" }

// SettleAuction closes an auction.
type SettleAuction struct {
	Meta
	ID *big.Int
}

func (*SettleAuction) Name() string { return "SettleAuction" }

// SaviorDeposit adds LP tokens to the savior position of a SAFE handler.
type SaviorDeposit struct {
	Meta
	SafeHandler   common.Address
	LPTokenAmount *big.Int
}

func (*SaviorDeposit) Name() string { return "Deposit" }

// SaviorWithdraw removes LP tokens from the savior position of a SAFE handler.
type SaviorWithdraw struct {
	Meta
	SafeHandler   common.Address
	LPTokenAmount *big.Int
}

func (*SaviorWithdraw) Name() string { return "Withdraw" }

// SaveSAFE is emitted when the savior spends a position to rescue a SAFE.
type SaveSAFE struct {
	Meta
	SafeHandler   common.Address
	LPTokenAmount *big.Int
}

func (*SaveSAFE) Name() string { return "SaveSAFE" }

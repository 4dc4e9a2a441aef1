package entity

import "context"

// Store persists entities. Every Update call is one transaction: either all
// writes made by fn are committed or none are.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes load (by id) and save (upsert) per entity kind.
type Tx interface {
	LoadToken(ctx context.Context, id string) (Result[Token], error)
	SaveToken(ctx context.Context, t *Token) error

	LoadBalance(ctx context.Context, id string) (Result[TokenBalance], error)
	SaveBalance(ctx context.Context, b *TokenBalance) error

	LoadAllowance(ctx context.Context, id string) (Result[TokenAllowance], error)
	SaveAllowance(ctx context.Context, a *TokenAllowance) error

	LoadTransfer(ctx context.Context, id string) (Result[TransferRecord], error)
	SaveTransfer(ctx context.Context, r *TransferRecord) error

	LoadPool(ctx context.Context, id string) (Result[LiquidityPool], error)
	SavePool(ctx context.Context, p *LiquidityPool) error

	LoadSwap(ctx context.Context, id string) (Result[SwapRecord], error)
	SaveSwap(ctx context.Context, r *SwapRecord) error

	LoadSync(ctx context.Context, id string) (Result[SyncRecord], error)
	SaveSync(ctx context.Context, r *SyncRecord) error

	LoadSaviorBalance(ctx context.Context, id string) (Result[SaviorBalance], error)
	SaveSaviorBalance(ctx context.Context, b *SaviorBalance) error

	LoadSaviorBalanceChange(ctx context.Context, id string) (Result[SaviorBalanceChange], error)
	SaveSaviorBalanceChange(ctx context.Context, c *SaviorBalanceChange) error

	LoadAuctionConfiguration(ctx context.Context, id string) (Result[AuctionConfiguration], error)
	SaveAuctionConfiguration(ctx context.Context, c *AuctionConfiguration) error

	LoadAuction(ctx context.Context, id string) (Result[Auction], error)
	SaveAuction(ctx context.Context, a *Auction) error

	LoadAuctionBid(ctx context.Context, id string) (Result[AuctionBid], error)
	SaveAuctionBid(ctx context.Context, b *AuctionBid) error

	LoadCursor(ctx context.Context, id string) (Result[Cursor], error)
	SaveCursor(ctx context.Context, c *Cursor) error
}

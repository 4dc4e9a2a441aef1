// Package auction follows surplus-recycling English auctions from start to
// settlement, together with the auction-house configuration.
package auction

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/fixedpoint"
)

const (
	// TypeRecyclingSurplus tags the auctions and configuration of the
	// surplus auction house.
	TypeRecyclingSurplus = "RECYCLING_SURPLUS"
	// BidIncreaseBuy tags bids that compete on the buy amount.
	BidIncreaseBuy = "INCREASE_BUY"

	TokenProtocol = "PROTOCOL_TOKEN"
	TokenCoin     = "COIN"
)

// HandleAuctionHouseModified rereads the auction-house parameters and
// overwrites the configuration. Last write wins.
func HandleAuctionHouseModified(ctx context.Context, l *entity.Lookup, ev *event.AuctionHouseModified) error {
	meta := ev.EventMeta()
	house := meta.Contract

	bidIncrease, err := l.Reader().BidIncrease(ctx, meta.BlockNumber, house)
	if err != nil {
		return fmt.Errorf("bidIncrease of %s: %w", entity.Hex(house), err)
	}
	bidDuration, err := l.Reader().BidDuration(ctx, meta.BlockNumber, house)
	if err != nil {
		return fmt.Errorf("bidDuration of %s: %w", entity.Hex(house), err)
	}
	totalLength, err := l.Reader().TotalAuctionLength(ctx, meta.BlockNumber, house)
	if err != nil {
		return fmt.Errorf("totalAuctionLength of %s: %w", entity.Hex(house), err)
	}

	res, err := l.Tx().LoadAuctionConfiguration(ctx, TypeRecyclingSurplus)
	if err != nil {
		return fmt.Errorf("load auction configuration %s: %w", TypeRecyclingSurplus, err)
	}
	cfg, ok := res.Get()
	if !ok {
		cfg = &entity.AuctionConfiguration{ID: TypeRecyclingSurplus}
		slog.Info("Auction configuration created",
			"entity_id", cfg.ID,
			"house", entity.Hex(house),
			"reason", ev.Reason,
			"block", meta.BlockNumber)
	}
	cfg.BidIncrease = fixedpoint.FromWad(bidIncrease)
	cfg.BidDuration = bidDuration
	cfg.TotalAuctionLength = totalLength

	if err := l.Tx().SaveAuctionConfiguration(ctx, cfg); err != nil {
		return fmt.Errorf("save auction configuration %s: %w", cfg.ID, err)
	}
	return nil
}

// HandleStart opens an auction. The configuration must already exist.
func HandleStart(ctx context.Context, l *entity.Lookup, ev *event.StartAuction) error {
	meta := ev.EventMeta()

	cfg, err := l.AuctionConfiguration(ctx, TypeRecyclingSurplus)
	if err != nil {
		return err
	}

	sell := fixedpoint.FromWad(ev.AmountToSell)
	buy := fixedpoint.FromWad(ev.InitialBid)

	auction := &entity.Auction{
		ID:                 entity.AuctionID(TypeRecyclingSurplus, ev.ID),
		AuctionID:          new(big.Int).Set(ev.ID),
		NumberOfBids:       0,
		EnglishAuctionType: TypeRecyclingSurplus,
		BuyToken:           TokenProtocol,
		SellToken:          TokenCoin,
		SellInitialAmount:  sell,
		BuyInitialAmount:   buy,
		SellAmount:         sell,
		BuyAmount:          buy,
		AuctionDeadline:    cfg.TotalAuctionLength + uint64(meta.Timestamp.Unix()),
		IsClaimed:          false,
		StartedBy:          meta.Contract,
		ConfigurationID:    cfg.ID,
		Created:            meta.Stamp(),
	}
	if err := l.Tx().SaveAuction(ctx, auction); err != nil {
		return fmt.Errorf("save auction %s: %w", auction.ID, err)
	}
	return nil
}

// HandleIncreaseBidSize records a bid numbered by the bids already placed,
// then moves the auction to the new buy amount, winner and deadline.
func HandleIncreaseBidSize(ctx context.Context, l *entity.Lookup, ev *event.IncreaseBidSize) error {
	meta := ev.EventMeta()

	auction, err := l.Auction(ctx, entity.AuctionID(TypeRecyclingSurplus, ev.ID))
	if err != nil {
		return err
	}

	buy := fixedpoint.FromWad(ev.Bid)
	sell := auction.SellInitialAmount
	price := decimal.Zero
	if buy.IsZero() {
		slog.Warn("Zero bid, recording zero price",
			"entity_id", auction.ID,
			"block", meta.BlockNumber,
			"tx", meta.TxHash.Hex(),
			"log_index", meta.LogIndex)
	} else {
		price = fixedpoint.Div(sell, buy)
	}

	bid := &entity.AuctionBid{
		ID:         entity.AuctionBidID(TypeRecyclingSurplus, ev.ID, auction.NumberOfBids),
		BidNumber:  auction.NumberOfBids,
		Type:       BidIncreaseBuy,
		AuctionID:  auction.ID,
		SellAmount: sell,
		BuyAmount:  buy,
		Price:      price,
		Bidder:     ev.HighBidder,
		Created:    meta.Stamp(),
	}
	if err := l.Tx().SaveAuctionBid(ctx, bid); err != nil {
		return fmt.Errorf("save auction bid %s: %w", bid.ID, err)
	}

	winner := ev.HighBidder
	auction.NumberOfBids++
	auction.SellAmount = sell
	auction.BuyAmount = buy
	auction.Price = decimal.NewNullDecimal(price)
	auction.Winner = &winner
	auction.AuctionDeadline = ev.BidExpiry

	if err := l.Tx().SaveAuction(ctx, auction); err != nil {
		return fmt.Errorf("save auction %s: %w", auction.ID, err)
	}
	return nil
}

// HandleRestart sets the deadline of an auction and nothing else.
func HandleRestart(ctx context.Context, l *entity.Lookup, ev *event.RestartAuction) error {
	auction, err := l.Auction(ctx, entity.AuctionID(TypeRecyclingSurplus, ev.ID))
	if err != nil {
		return err
	}
	auction.AuctionDeadline = ev.AuctionDeadline
	if err := l.Tx().SaveAuction(ctx, auction); err != nil {
		return fmt.Errorf("save auction %s: %w", auction.ID, err)
	}
	return nil
}

// HandleSettle marks the auction claimed.
func HandleSettle(ctx context.Context, l *entity.Lookup, ev *event.SettleAuction) error {
	auction, err := l.Auction(ctx, entity.AuctionID(TypeRecyclingSurplus, ev.ID))
	if err != nil {
		return err
	}
	auction.IsClaimed = true
	if err := l.Tx().SaveAuction(ctx, auction); err != nil {
		return fmt.Errorf("save auction %s: %w", auction.ID, err)
	}
	return nil
}

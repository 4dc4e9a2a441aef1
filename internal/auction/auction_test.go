package auction

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/entity/entitytest"
	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/fixedpoint"
	"github.com/matrixise/geb-ledger/internal/storage"
)

var (
	house  = common.HexToAddress("0x4ee7000000000000000000000000000000000001")
	first  = common.HexToAddress("0xf100000000000000000000000000000000000001")
	second = common.HexToAddress("0xf200000000000000000000000000000000000002")
)

const startTime = 1_620_000_000

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.Wad())
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *storage.MemoryStore
	reader *entitytest.Reader
	block  uint64
}

func newFixture(t *testing.T) *fixture {
	reader := entitytest.NewReader()
	reader.SetHouse(house, entitytest.HouseInfo{
		BidIncrease:        new(big.Int).Div(new(big.Int).Mul(big.NewInt(105), fixedpoint.Wad()), big.NewInt(100)),
		BidDuration:        3 * 3600,
		TotalAuctionLength: 2 * 24 * 3600,
	})
	return &fixture{t: t, ctx: context.Background(), store: storage.NewMemoryStore(), reader: reader, block: 1000}
}

func (f *fixture) meta() event.Meta {
	f.block++
	return event.Meta{
		Position:  event.Position{BlockNumber: f.block},
		Contract:  house,
		Timestamp: time.Unix(startTime, 0).UTC(),
		TxHash:    common.BigToHash(new(big.Int).SetUint64(f.block)),
	}
}

func (f *fixture) apply(fn func(ctx context.Context, l *entity.Lookup) error) error {
	return f.store.Update(f.ctx, func(tx entity.Tx) error {
		return fn(f.ctx, entity.NewLookup(tx, f.reader))
	})
}

func (f *fixture) configure() {
	ev := &event.AuctionHouseModified{Meta: f.meta(), Reason: "AddAuthorization"}
	require.NoError(f.t, f.apply(func(ctx context.Context, l *entity.Lookup) error {
		return HandleAuctionHouseModified(ctx, l, ev)
	}))
}

func (f *fixture) start(id, sell, bid int64) error {
	ev := &event.StartAuction{Meta: f.meta(), ID: big.NewInt(id), AmountToSell: wad(sell), InitialBid: wad(bid)}
	return f.apply(func(ctx context.Context, l *entity.Lookup) error {
		return HandleStart(ctx, l, ev)
	})
}

func (f *fixture) bid(id int64, bidder common.Address, amount int64, expiry uint64) error {
	ev := &event.IncreaseBidSize{Meta: f.meta(), ID: big.NewInt(id), HighBidder: bidder, Bid: wad(amount), BidExpiry: expiry}
	return f.apply(func(ctx context.Context, l *entity.Lookup) error {
		return HandleIncreaseBidSize(ctx, l, ev)
	})
}

func (f *fixture) auction(id int64) *entity.Auction {
	var a *entity.Auction
	err := f.store.View(f.ctx, func(tx entity.Tx) error {
		res, err := tx.LoadAuction(f.ctx, entity.AuctionID(TypeRecyclingSurplus, big.NewInt(id)))
		found, ok := res.Get()
		require.True(f.t, ok)
		a = found
		return err
	})
	require.NoError(f.t, err)
	return a
}

func (f *fixture) auctionBid(id int64, n uint64) *entity.AuctionBid {
	var b *entity.AuctionBid
	err := f.store.View(f.ctx, func(tx entity.Tx) error {
		res, err := tx.LoadAuctionBid(f.ctx, entity.AuctionBidID(TypeRecyclingSurplus, big.NewInt(id), n))
		found, ok := res.Get()
		require.True(f.t, ok)
		b = found
		return err
	})
	require.NoError(f.t, err)
	return b
}

func TestAuctionHouseModifiedOverwritesConfiguration(t *testing.T) {
	f := newFixture(t)
	f.configure()

	f.reader.SetHouse(house, entitytest.HouseInfo{BidIncrease: wad(1), BidDuration: 60, TotalAuctionLength: 600})
	f.configure()

	err := f.store.View(f.ctx, func(tx entity.Tx) error {
		cfg, err := entity.NewLookup(tx, f.reader).AuctionConfiguration(f.ctx, TypeRecyclingSurplus)
		require.NoError(t, err)
		assert.Equal(t, "1", cfg.BidIncrease.String())
		assert.Equal(t, uint64(60), cfg.BidDuration)
		assert.Equal(t, uint64(600), cfg.TotalAuctionLength)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Count("auction_configuration"))
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	f.configure()

	require.NoError(t, f.start(7, 1000, 10))

	a := f.auction(7)
	assert.Equal(t, "RECYCLING_SURPLUS-7", a.ID)
	assert.Equal(t, int64(7), a.AuctionID.Int64())
	assert.Equal(t, uint64(0), a.NumberOfBids)
	assert.Equal(t, "1000", a.SellInitialAmount.String())
	assert.Equal(t, "10", a.BuyInitialAmount.String())
	assert.Equal(t, "1000", a.SellAmount.String())
	assert.Equal(t, "10", a.BuyAmount.String())
	assert.Equal(t, uint64(startTime+2*24*3600), a.AuctionDeadline)
	assert.Equal(t, TokenProtocol, a.BuyToken)
	assert.Equal(t, TokenCoin, a.SellToken)
	assert.Equal(t, house, a.StartedBy)
	assert.Equal(t, TypeRecyclingSurplus, a.ConfigurationID)
	assert.False(t, a.IsClaimed)
	assert.False(t, a.Price.Valid)
	assert.Nil(t, a.Winner)
}

type bidStep struct {
	bidder common.Address
	amount int64
	expiry uint64
}

func TestHandleIncreaseBidSize(t *testing.T) {
	const t1, t2 = startTime + 100, startTime + 50

	tests := []struct {
		name         string
		bids         []bidStep
		wantBuy      string
		wantPrice    string
		wantWinner   common.Address
		wantDeadline uint64
	}{
		{
			name:         "first bid",
			bids:         []bidStep{{first, 20, t1}},
			wantBuy:      "20",
			wantPrice:    "50",
			wantWinner:   first,
			wantDeadline: t1,
		},
		{
			// bid expiry is trusted even when earlier
			name:         "outbid",
			bids:         []bidStep{{first, 20, t1}, {second, 30, t2}},
			wantBuy:      "30",
			wantPrice:    "33.333333333333333333",
			wantWinner:   second,
			wantDeadline: t2,
		},
		{
			name:         "zero bid records zero price",
			bids:         []bidStep{{first, 0, t1}},
			wantBuy:      "0",
			wantPrice:    "0",
			wantWinner:   first,
			wantDeadline: t1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.configure()
			require.NoError(t, f.start(1, 1000, 10))

			for _, b := range tt.bids {
				require.NoError(t, f.bid(1, b.bidder, b.amount, b.expiry))
			}

			for n, b := range tt.bids {
				rec := f.auctionBid(1, uint64(n))
				assert.Equal(t, uint64(n), rec.BidNumber)
				assert.Equal(t, b.bidder, rec.Bidder)
				assert.Equal(t, "1000", rec.SellAmount.String())
				assert.Equal(t, BidIncreaseBuy, rec.Type)
			}
			last := f.auctionBid(1, uint64(len(tt.bids)-1))
			assert.Equal(t, tt.wantBuy, last.BuyAmount.String())
			assert.Equal(t, tt.wantPrice, last.Price.String())

			a := f.auction(1)
			assert.Equal(t, uint64(len(tt.bids)), a.NumberOfBids)
			assert.Equal(t, tt.wantBuy, a.BuyAmount.String())
			assert.Equal(t, "1000", a.SellAmount.String())
			require.NotNil(t, a.Winner)
			assert.Equal(t, tt.wantWinner, *a.Winner)
			assert.Equal(t, tt.wantDeadline, a.AuctionDeadline)
			require.True(t, a.Price.Valid)
			assert.Equal(t, tt.wantPrice, a.Price.Decimal.String())
		})
	}
}

func TestMissingAuctionIsFatal(t *testing.T) {
	tests := []struct {
		name   string
		apply  func(f *fixture) error
		wantID string
	}{
		{
			name:   "start without configuration",
			apply:  func(f *fixture) error { return f.start(1, 1000, 10) },
			wantID: TypeRecyclingSurplus,
		},
		{
			name: "bid on unknown auction",
			apply: func(f *fixture) error {
				f.configure()
				return f.bid(9, first, 20, startTime)
			},
			wantID: "RECYCLING_SURPLUS-9",
		},
		{
			name: "settle unknown auction",
			apply: func(f *fixture) error {
				ev := &event.SettleAuction{Meta: f.meta(), ID: big.NewInt(3)}
				return f.apply(func(ctx context.Context, l *entity.Lookup) error {
					return HandleSettle(ctx, l, ev)
				})
			},
			wantID: "RECYCLING_SURPLUS-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			err := tt.apply(f)

			var me *entity.MissingEntityError
			require.ErrorAs(t, err, &me)
			assert.ErrorIs(t, err, entity.ErrMissingEntity)
			assert.Equal(t, tt.wantID, me.ID)
			assert.Equal(t, 0, f.store.Count("auction"))
		})
	}
}

func TestRestartOnlyMovesDeadline(t *testing.T) {
	f := newFixture(t)
	f.configure()
	require.NoError(t, f.start(1, 1000, 10))
	require.NoError(t, f.bid(1, first, 20, startTime+10))

	ev := &event.RestartAuction{Meta: f.meta(), ID: big.NewInt(1), AuctionDeadline: startTime + 9999}
	require.NoError(t, f.apply(func(ctx context.Context, l *entity.Lookup) error {
		return HandleRestart(ctx, l, ev)
	}))

	a := f.auction(1)
	assert.Equal(t, uint64(startTime+9999), a.AuctionDeadline)
	assert.Equal(t, uint64(1), a.NumberOfBids)
	assert.Equal(t, "50", a.Price.Decimal.String())
}

func TestSettle(t *testing.T) {
	f := newFixture(t)
	f.configure()
	require.NoError(t, f.start(1, 1000, 10))

	ev := &event.SettleAuction{Meta: f.meta(), ID: big.NewInt(1)}
	require.NoError(t, f.apply(func(ctx context.Context, l *entity.Lookup) error {
		return HandleSettle(ctx, l, ev)
	}))

	assert.True(t, f.auction(1).IsClaimed)
}

package uniswap

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
	pair   = common.HexToAddress("0x8ae720a71622e824f576b4a8c03031066548a3b1")
	rai    = common.HexToAddress("0x03ab458634910aad20ef5f1c8ee96f1d6ac54919")
	weth   = common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	trader = common.HexToAddress("0x7a00000000000000000000000000000000000001")
)

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.Wad())
}

func meta(block uint64, logIndex uint) event.Meta {
	return event.Meta{
		Position:  event.Position{BlockNumber: block, LogIndex: logIndex},
		Contract:  pair,
		Timestamp: time.Unix(1_650_000_000, 0).UTC(),
		TxHash:    common.HexToHash("0xbeef"),
		TxFrom:    trader,
	}
}

func setup() (*storage.MemoryStore, *entitytest.Reader) {
	reader := entitytest.NewReader()
	reader.SetPair(pair, entitytest.PairInfo{
		Token0:   rai,
		Token1:   weth,
		Reserves: entity.Reserves{Reserve0: wad(1000), Reserve1: wad(2)},
		Supply:   wad(10),
	})
	return storage.NewMemoryStore(), reader
}

func loadPool(t *testing.T, store *storage.MemoryStore) *entity.LiquidityPool {
	t.Helper()
	var pool *entity.LiquidityPool
	err := store.View(context.Background(), func(tx entity.Tx) error {
		res, err := tx.LoadPool(context.Background(), entity.PoolID(pair))
		p, ok := res.Get()
		require.True(t, ok)
		pool = p
		return err
	})
	require.NoError(t, err)
	return pool
}

func TestHandleSync(t *testing.T) {
	tests := []struct {
		name     string
		reserve0 int64
		reserve1 int64
		price0   string
		price1   string
	}{
		{"regular", 400, 100, "4", "0.25"},
		{"empty reserve0", 0, 100, "0", "0"},
		{"empty reserve1", 100, 0, "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, reader := setup()

			ev := &event.Sync{Meta: meta(50, 1), Reserve0: wad(tt.reserve0), Reserve1: wad(tt.reserve1)}
			err := store.Update(ctx, func(tx entity.Tx) error {
				return HandleSync(ctx, entity.NewLookup(tx, reader), ev)
			})
			require.NoError(t, err)

			pool := loadPool(t, store)
			assert.Equal(t, rai, pool.Token0)
			assert.Equal(t, weth, pool.Token1)
			assert.Equal(t, big.NewInt(tt.reserve0).String(), pool.Reserve0.String())
			assert.Equal(t, big.NewInt(tt.reserve1).String(), pool.Reserve1.String())
			assert.Equal(t, tt.price0, pool.Token0Price.String())
			assert.Equal(t, tt.price1, pool.Token1Price.String())
			assert.Equal(t, "10", pool.TotalSupply.String())
			assert.Equal(t, uint64(50), pool.Modified.Block)
			assert.Equal(t, 1, store.Count("sync"))
		})
	}
}

func TestHandleSyncRereadsSupply(t *testing.T) {
	ctx := context.Background()
	store, reader := setup()

	for i, supply := range []int64{10, 12} {
		reader.SetPair(pair, entitytest.PairInfo{
			Token0:   rai,
			Token1:   weth,
			Reserves: entity.Reserves{Reserve0: wad(1000), Reserve1: wad(2)},
			Supply:   wad(supply),
		})
		ev := &event.Sync{Meta: meta(uint64(60+i), 0), Reserve0: wad(1000), Reserve1: wad(2)}
		err := store.Update(ctx, func(tx entity.Tx) error {
			return HandleSync(ctx, entity.NewLookup(tx, reader), ev)
		})
		require.NoError(t, err)
	}

	pool := loadPool(t, store)
	assert.Equal(t, "12", pool.TotalSupply.String())
	assert.Equal(t, uint64(60), pool.Created.Block)
	assert.Equal(t, uint64(61), pool.Modified.Block)
	assert.Equal(t, 1, reader.CallCount("token0"), "pair tokens are read once")
}

func TestHandleSwapLeavesReserves(t *testing.T) {
	ctx := context.Background()
	store, reader := setup()

	ev := &event.Swap{
		Meta:       meta(70, 3),
		Sender:     trader,
		To:         trader,
		Amount0In:  wad(5),
		Amount1In:  new(big.Int),
		Amount0Out: new(big.Int),
		Amount1Out: big.NewInt(1),
	}
	err := store.Update(ctx, func(tx entity.Tx) error {
		return HandleSwap(ctx, entity.NewLookup(tx, reader), ev)
	})
	require.NoError(t, err)

	pool := loadPool(t, store)
	assert.Equal(t, "1000", pool.Reserve0.String())
	assert.Equal(t, "500", pool.Token0Price.String())

	err = store.View(ctx, func(tx entity.Tx) error {
		res, err := tx.LoadSwap(ctx, ev.UID())
		swap, ok := res.Get()
		require.True(t, ok)
		assert.Equal(t, "5", swap.Amount0In.String())
		assert.Equal(t, "0.000000000000000001", swap.Amount1Out.String())
		assert.Equal(t, trader, swap.Sender)
		assert.Equal(t, pool.ID, swap.PoolID)
		return err
	})
	require.NoError(t, err)
}

func TestHandleSyncInPairDeploymentBlock(t *testing.T) {
	ctx := context.Background()
	store, reader := setup()
	reader.SetDeployBlock(pair, 500)

	ev := &event.Sync{Meta: meta(500, 2), Reserve0: wad(400), Reserve1: wad(100)}
	err := store.Update(ctx, func(tx entity.Tx) error {
		return HandleSync(ctx, entity.NewLookup(tx, reader), ev)
	})
	require.NoError(t, err)

	pool := loadPool(t, store)
	assert.Equal(t, rai, pool.Token0)
	assert.Equal(t, "400", pool.Reserve0.String())
	assert.Equal(t, "4", pool.Token0Price.String())
	assert.Equal(t, uint64(500), pool.Created.Block)
	assert.Equal(t, 1, store.Count("sync"))
}

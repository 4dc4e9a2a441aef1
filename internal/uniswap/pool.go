// Package uniswap tracks liquidity pair reserves, prices and supply.
package uniswap

import (
	"context"
	"fmt"

	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/fixedpoint"
)

// HandleSync overwrites the pool reserves with the event values, recomputes
// the prices and rereads the LP supply.
func HandleSync(ctx context.Context, l *entity.Lookup, ev *event.Sync) error {
	meta := ev.EventMeta()

	pool, err := l.Pool(ctx, meta, meta.Contract)
	if err != nil {
		return err
	}

	pool.SetReserves(fixedpoint.FromWad(ev.Reserve0), fixedpoint.FromWad(ev.Reserve1))

	supply, err := l.Reader().TotalSupply(ctx, meta.BlockNumber, meta.Contract)
	if err != nil {
		return fmt.Errorf("totalSupply of %s: %w", pool.ID, err)
	}
	pool.TotalSupply = fixedpoint.FromWad(supply)
	pool.Modified = meta.Stamp()

	if err := l.Tx().SavePool(ctx, pool); err != nil {
		return fmt.Errorf("save pool %s: %w", pool.ID, err)
	}

	record := &entity.SyncRecord{
		ID:       meta.UID(),
		PoolID:   pool.ID,
		Reserve0: pool.Reserve0,
		Reserve1: pool.Reserve1,
		Created:  meta.Stamp(),
	}
	if err := l.Tx().SaveSync(ctx, record); err != nil {
		return fmt.Errorf("save sync %s: %w", record.ID, err)
	}
	return nil
}

// HandleSwap records the swap. Reserves move with the Sync emitted alongside.
func HandleSwap(ctx context.Context, l *entity.Lookup, ev *event.Swap) error {
	meta := ev.EventMeta()

	pool, err := l.Pool(ctx, meta, meta.Contract)
	if err != nil {
		return err
	}

	record := &entity.SwapRecord{
		ID:         meta.UID(),
		PoolID:     pool.ID,
		Amount0In:  fixedpoint.FromWad(ev.Amount0In),
		Amount1In:  fixedpoint.FromWad(ev.Amount1In),
		Amount0Out: fixedpoint.FromWad(ev.Amount0Out),
		Amount1Out: fixedpoint.FromWad(ev.Amount1Out),
		Sender:     ev.Sender,
		Created:    meta.Stamp(),
	}
	if err := l.Tx().SaveSwap(ctx, record); err != nil {
		return fmt.Errorf("save swap %s: %w", record.ID, err)
	}
	return nil
}

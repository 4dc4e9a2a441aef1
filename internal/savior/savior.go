// Package savior keeps the LP-token balances that savior contracts hold for
// SAFE handlers, with an append-only history of every change.
package savior

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/fixedpoint"
	"github.com/matrixise/geb-ledger/internal/metrics"
)

func HandleDeposit(ctx context.Context, l *entity.Lookup, ev *event.SaviorDeposit) error {
	return apply(ctx, l, ev.EventMeta(), ev.SafeHandler, func(decimal.Decimal) decimal.Decimal {
		return fixedpoint.FromWad(ev.LPTokenAmount)
	})
}

func HandleWithdraw(ctx context.Context, l *entity.Lookup, ev *event.SaviorWithdraw) error {
	return apply(ctx, l, ev.EventMeta(), ev.SafeHandler, func(decimal.Decimal) decimal.Decimal {
		return fixedpoint.FromWad(ev.LPTokenAmount).Neg()
	})
}

// HandleSaveSAFE empties the position: the savior spends all of it.
func HandleSaveSAFE(ctx context.Context, l *entity.Lookup, ev *event.SaveSAFE) error {
	return apply(ctx, l, ev.EventMeta(), ev.SafeHandler, func(previous decimal.Decimal) decimal.Decimal {
		return previous.Neg()
	})
}

// apply adds the delta computed from the current balance and records it.
func apply(ctx context.Context, l *entity.Lookup, meta event.Meta, handler common.Address, delta func(decimal.Decimal) decimal.Decimal) error {
	balance, err := l.SaviorBalance(ctx, meta, meta.Contract, handler)
	if err != nil {
		return err
	}

	d := delta(balance.Balance)
	balance.Balance = balance.Balance.Add(d)
	if balance.Balance.IsNegative() {
		slog.Warn("Savior balance went negative",
			"entity_id", balance.ID,
			"balance", balance.Balance.String(),
			"block", meta.BlockNumber,
			"tx", meta.TxHash.Hex(),
			"log_index", meta.LogIndex)
		metrics.RecordNegativeBalance("savior")
	}
	if err := l.Tx().SaveSaviorBalance(ctx, balance); err != nil {
		return fmt.Errorf("save savior balance %s: %w", balance.ID, err)
	}

	change := &entity.SaviorBalanceChange{
		ID:            meta.UID(),
		SaviorAddress: meta.Contract,
		Address:       handler,
		DeltaBalance:  d,
		Created:       meta.Stamp(),
	}
	if err := l.Tx().SaveSaviorBalanceChange(ctx, change); err != nil {
		return fmt.Errorf("save savior balance change %s: %w", change.ID, err)
	}
	return nil
}

// Package erc20 maintains token balances and allowances from Transfer and
// Approval events.
package erc20

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/fixedpoint"
	"github.com/matrixise/geb-ledger/internal/metrics"
)

// HandleTransfer applies a Transfer: credit or burn, debit or mint, then
// resync the allowances the transfer may have consumed and record it.
func HandleTransfer(ctx context.Context, l *entity.Lookup, ev *event.Transfer) error {
	meta := ev.EventMeta()
	amount := fixedpoint.FromWad(ev.Value)

	token, err := l.Token(ctx, meta, meta.Contract)
	if err != nil {
		return err
	}
	// a token first seen in its deployment block was read after this event
	adjustSupply := !l.TokenSeededAfterEvent(token.ID)

	if ev.To == (common.Address{}) {
		if adjustSupply {
			token.TotalSupply = token.TotalSupply.Sub(amount)
		}
	} else {
		dst, err := l.Balance(ctx, meta, meta.Contract, ev.To, entity.MayCreate)
		if err != nil {
			return err
		}
		dst.Balance = dst.Balance.Add(amount)
		dst.Modified = meta.Stamp()
		if err := l.Tx().SaveBalance(ctx, dst); err != nil {
			return fmt.Errorf("save balance %s: %w", dst.ID, err)
		}
	}

	if ev.From == (common.Address{}) {
		if adjustSupply {
			token.TotalSupply = token.TotalSupply.Add(amount)
		}
	} else {
		src, err := l.Balance(ctx, meta, meta.Contract, ev.From, entity.MustExist)
		if err != nil {
			return err
		}
		src.Balance = src.Balance.Sub(amount)
		src.Modified = meta.Stamp()
		if src.Balance.IsNegative() {
			slog.Warn("Balance went negative",
				"entity_id", src.ID,
				"balance", src.Balance.String(),
				"block", meta.BlockNumber,
				"tx", meta.TxHash.Hex(),
				"log_index", meta.LogIndex)
			metrics.RecordNegativeBalance("token")
		}
		if err := l.Tx().SaveBalance(ctx, src); err != nil {
			return fmt.Errorf("save balance %s: %w", src.ID, err)
		}
	}

	if err := l.Tx().SaveToken(ctx, token); err != nil {
		return fmt.Errorf("save token %s: %w", token.ID, err)
	}

	for _, spender := range Spenders(ev) {
		if err := resyncAllowance(ctx, l, meta, ev.From, spender); err != nil {
			return err
		}
	}

	record := &entity.TransferRecord{
		ID:           meta.UID(),
		TokenAddress: meta.Contract,
		Source:       ev.From,
		Destination:  ev.To,
		Amount:       amount,
		Created:      meta.Stamp(),
	}
	if err := l.Tx().SaveTransfer(ctx, record); err != nil {
		return fmt.Errorf("save transfer %s: %w", record.ID, err)
	}
	return nil
}

// Spenders returns the candidate spenders whose allowance on the transfer
// source may have been consumed: the destination, the token contract and the
// transaction originator. The true spender is not observable from the log,
// so a stale allowance may remain when none of them is the caller. Mints
// have no owner and yield no candidate.
func Spenders(ev *event.Transfer) []common.Address {
	if ev.From == (common.Address{}) {
		return nil
	}
	candidates := []common.Address{ev.To, ev.Contract, ev.TxFrom}
	out := make([]common.Address, 0, len(candidates))
	seen := make(map[common.Address]bool, len(candidates))
	for _, c := range candidates {
		if c == (common.Address{}) || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// resyncAllowance overwrites the allowance with the on-chain value after the event.
func resyncAllowance(ctx context.Context, l *entity.Lookup, meta event.Meta, owner, spender common.Address) error {
	allowance, err := l.Allowance(ctx, meta, meta.Contract, owner, spender, entity.MayCreate)
	if err != nil {
		return err
	}
	amount, err := l.Reader().Allowance(ctx, meta.BlockNumber, meta.Contract, owner, spender)
	if err != nil {
		return fmt.Errorf("allowance of %s: %w", allowance.ID, err)
	}
	allowance.Amount = fixedpoint.FromWad(amount)
	allowance.Modified = meta.Stamp()
	if err := l.Tx().SaveAllowance(ctx, allowance); err != nil {
		return fmt.Errorf("save allowance %s: %w", allowance.ID, err)
	}
	return nil
}

// HandleApproval overwrites the allowance with the approved amount.
func HandleApproval(ctx context.Context, l *entity.Lookup, ev *event.Approval) error {
	meta := ev.EventMeta()

	allowance, err := l.Allowance(ctx, meta, meta.Contract, ev.Owner, ev.Spender, entity.MayCreate)
	if err != nil {
		return err
	}
	allowance.Amount = fixedpoint.FromWad(ev.Value)
	allowance.Modified = meta.Stamp()
	if err := l.Tx().SaveAllowance(ctx, allowance); err != nil {
		return fmt.Errorf("save allowance %s: %w", allowance.ID, err)
	}
	return nil
}

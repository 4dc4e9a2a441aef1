// Package indexer applies decoded events to the ledger in consensus order,
// each exactly once, and drives ingestion over block ranges.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matrixise/geb-ledger/internal/auction"
	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/erc20"
	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/metrics"
	"github.com/matrixise/geb-ledger/internal/savior"
	"github.com/matrixise/geb-ledger/internal/uniswap"
)

// DefaultCursorID names the cursor of a single-stream deployment.
const DefaultCursorID = "default"

// Dispatcher routes events to their component inside one store transaction
// per event and advances the cursor in that same transaction.
type Dispatcher struct {
	store    entity.Store
	reader   entity.ContractReader
	cursorID string
}

func NewDispatcher(store entity.Store, reader entity.ContractReader, cursorID string) *Dispatcher {
	if cursorID == "" {
		cursorID = DefaultCursorID
	}
	return &Dispatcher{store: store, reader: reader, cursorID: cursorID}
}

// Apply applies ev unless the cursor shows it was already applied. It
// reports whether the event was applied. On error the event is not applied
// and the error is an *EventError.
func (d *Dispatcher) Apply(ctx context.Context, ev event.Event) (bool, error) {
	meta := ev.EventMeta()
	applied := false

	err := d.store.Update(ctx, func(tx entity.Tx) error {
		cursor, err := loadCursor(ctx, tx, d.cursorID)
		if err != nil {
			return err
		}
		if cursor.Applied(meta.Position) {
			return nil
		}

		if err := route(ctx, entity.NewLookup(tx, d.reader), ev); err != nil {
			return err
		}

		cursor.LastEvent = meta.Position
		cursor.HasEvent = true
		cursor.UpdatedAt = time.Now().UTC()
		if err := tx.SaveCursor(ctx, cursor); err != nil {
			return fmt.Errorf("save cursor %s: %w", cursor.ID, err)
		}
		applied = true
		return nil
	})
	if err != nil {
		metrics.EventFailures.WithLabelValues(ev.Name()).Inc()
		return false, &EventError{
			Position: meta.Position,
			TxHash:   meta.TxHash,
			Contract: meta.Contract,
			Name:     ev.Name(),
			Err:      err,
		}
	}

	if !applied {
		metrics.EventsSkipped.Inc()
		slog.Debug("Event already applied", "event", ev.Name(), "position", meta.Position.String())
		return false, nil
	}
	metrics.RecordApplied(ev.Name(), meta.BlockNumber)
	slog.Debug("Event applied",
		"event", ev.Name(),
		"block", meta.BlockNumber,
		"tx", meta.TxHash.Hex(),
		"log_index", meta.LogIndex)
	return true, nil
}

// Cursor returns the stored cursor, or a fresh one when none was saved yet.
func (d *Dispatcher) Cursor(ctx context.Context) (*entity.Cursor, error) {
	var cursor *entity.Cursor
	err := d.store.View(ctx, func(tx entity.Tx) error {
		c, err := loadCursor(ctx, tx, d.cursorID)
		cursor = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return cursor, nil
}

// MarkScanned records that every block below next has been fully processed.
func (d *Dispatcher) MarkScanned(ctx context.Context, next uint64) error {
	return d.store.Update(ctx, func(tx entity.Tx) error {
		cursor, err := loadCursor(ctx, tx, d.cursorID)
		if err != nil {
			return err
		}
		if next <= cursor.NextBlock {
			return nil
		}
		cursor.NextBlock = next
		cursor.UpdatedAt = time.Now().UTC()
		if err := tx.SaveCursor(ctx, cursor); err != nil {
			return fmt.Errorf("save cursor %s: %w", cursor.ID, err)
		}
		return nil
	})
}

func loadCursor(ctx context.Context, tx entity.Tx, id string) (*entity.Cursor, error) {
	res, err := tx.LoadCursor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load cursor %s: %w", id, err)
	}
	if cursor, ok := res.Get(); ok {
		return cursor, nil
	}
	return &entity.Cursor{ID: id}, nil
}

func route(ctx context.Context, l *entity.Lookup, ev event.Event) error {
	switch e := ev.(type) {
	case *event.Transfer:
		return erc20.HandleTransfer(ctx, l, e)
	case *event.Approval:
		return erc20.HandleApproval(ctx, l, e)
	case *event.Sync:
		return uniswap.HandleSync(ctx, l, e)
	case *event.Swap:
		return uniswap.HandleSwap(ctx, l, e)
	case *event.AuctionHouseModified:
		return auction.HandleAuctionHouseModified(ctx, l, e)
	case *event.StartAuction:
		return auction.HandleStart(ctx, l, e)
	case *event.IncreaseBidSize:
		return auction.HandleIncreaseBidSize(ctx, l, e)
	case *event.RestartAuction:
		return auction.HandleRestart(ctx, l, e)
	case *event.SettleAuction:
		return auction.HandleSettle(ctx, l, e)
	case *event.SaviorDeposit:
		return savior.HandleDeposit(ctx, l, e)
	case *event.SaviorWithdraw:
		return savior.HandleWithdraw(ctx, l, e)
	case *event.SaveSAFE:
		return savior.HandleSaveSAFE(ctx, l, e)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

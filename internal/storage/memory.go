package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/matrixise/geb-ledger/internal/entity"
)

// ErrReadOnly is returned when a View transaction tries to write.
var ErrReadOnly = errors.New("read-only transaction")

const (
	kindToken               = "token"
	kindBalance             = "balance"
	kindAllowance           = "allowance"
	kindTransfer            = "transfer"
	kindPool                = "pool"
	kindSwap                = "swap"
	kindSync                = "sync"
	kindSaviorBalance       = "savior_balance"
	kindSaviorBalanceChange = "savior_balance_change"
	kindAuctionConfig       = "auction_configuration"
	kindAuction             = "auction"
	kindAuctionBid          = "auction_bid"
	kindCursor              = "cursor"
)

// MemoryStore keeps entities in process memory. Updates are serialized and
// staged, so a failing update leaves no trace.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]any)}
}

// Update runs fn against a staged view and commits it when fn returns nil.
func (m *MemoryStore) Update(ctx context.Context, fn func(tx entity.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{base: m.tables, staged: make(map[string]map[string]any)}
	if err := fn(tx); err != nil {
		return err
	}
	for kind, rows := range tx.staged {
		table, ok := m.tables[kind]
		if !ok {
			table = make(map[string]any, len(rows))
			m.tables[kind] = table
		}
		for id, row := range rows {
			table[id] = row
		}
	}
	return nil
}

func (m *MemoryStore) View(ctx context.Context, fn func(tx entity.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memoryTx{base: m.tables, readOnly: true})
}

// Count returns the number of committed rows of kind.
func (m *MemoryStore) Count(kind string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[kind])
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() {}

type memoryTx struct {
	base     map[string]map[string]any
	staged   map[string]map[string]any
	readOnly bool
}

func (tx *memoryTx) get(kind, id string) (any, bool) {
	if rows, ok := tx.staged[kind]; ok {
		if v, ok := rows[id]; ok {
			return v, true
		}
	}
	v, ok := tx.base[kind][id]
	return v, ok
}

func (tx *memoryTx) put(kind, id string, v any) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	rows, ok := tx.staged[kind]
	if !ok {
		rows = make(map[string]any)
		tx.staged[kind] = rows
	}
	rows[id] = v
	return nil
}

// Rows are stored by value so later mutation of a loaded entity stays
// invisible until it is saved again.
func load[T any](tx *memoryTx, kind, id string) (entity.Result[T], error) {
	v, ok := tx.get(kind, id)
	if !ok {
		return entity.NotFound[T](), nil
	}
	row := v.(T)
	return entity.Found(&row), nil
}

func save[T any](tx *memoryTx, kind, id string, v *T) error {
	return tx.put(kind, id, *v)
}

func (tx *memoryTx) LoadToken(_ context.Context, id string) (entity.Result[entity.Token], error) {
	return load[entity.Token](tx, kindToken, id)
}

func (tx *memoryTx) SaveToken(_ context.Context, t *entity.Token) error {
	return save(tx, kindToken, t.ID, t)
}

func (tx *memoryTx) LoadBalance(_ context.Context, id string) (entity.Result[entity.TokenBalance], error) {
	return load[entity.TokenBalance](tx, kindBalance, id)
}

func (tx *memoryTx) SaveBalance(_ context.Context, b *entity.TokenBalance) error {
	return save(tx, kindBalance, b.ID, b)
}

func (tx *memoryTx) LoadAllowance(_ context.Context, id string) (entity.Result[entity.TokenAllowance], error) {
	return load[entity.TokenAllowance](tx, kindAllowance, id)
}

func (tx *memoryTx) SaveAllowance(_ context.Context, a *entity.TokenAllowance) error {
	return save(tx, kindAllowance, a.ID, a)
}

func (tx *memoryTx) LoadTransfer(_ context.Context, id string) (entity.Result[entity.TransferRecord], error) {
	return load[entity.TransferRecord](tx, kindTransfer, id)
}

func (tx *memoryTx) SaveTransfer(_ context.Context, r *entity.TransferRecord) error {
	return save(tx, kindTransfer, r.ID, r)
}

func (tx *memoryTx) LoadPool(_ context.Context, id string) (entity.Result[entity.LiquidityPool], error) {
	return load[entity.LiquidityPool](tx, kindPool, id)
}

func (tx *memoryTx) SavePool(_ context.Context, p *entity.LiquidityPool) error {
	return save(tx, kindPool, p.ID, p)
}

func (tx *memoryTx) LoadSwap(_ context.Context, id string) (entity.Result[entity.SwapRecord], error) {
	return load[entity.SwapRecord](tx, kindSwap, id)
}

func (tx *memoryTx) SaveSwap(_ context.Context, r *entity.SwapRecord) error {
	return save(tx, kindSwap, r.ID, r)
}

func (tx *memoryTx) LoadSync(_ context.Context, id string) (entity.Result[entity.SyncRecord], error) {
	return load[entity.SyncRecord](tx, kindSync, id)
}

func (tx *memoryTx) SaveSync(_ context.Context, r *entity.SyncRecord) error {
	return save(tx, kindSync, r.ID, r)
}

func (tx *memoryTx) LoadSaviorBalance(_ context.Context, id string) (entity.Result[entity.SaviorBalance], error) {
	return load[entity.SaviorBalance](tx, kindSaviorBalance, id)
}

func (tx *memoryTx) SaveSaviorBalance(_ context.Context, b *entity.SaviorBalance) error {
	return save(tx, kindSaviorBalance, b.ID, b)
}

func (tx *memoryTx) LoadSaviorBalanceChange(_ context.Context, id string) (entity.Result[entity.SaviorBalanceChange], error) {
	return load[entity.SaviorBalanceChange](tx, kindSaviorBalanceChange, id)
}

func (tx *memoryTx) SaveSaviorBalanceChange(_ context.Context, c *entity.SaviorBalanceChange) error {
	return save(tx, kindSaviorBalanceChange, c.ID, c)
}

func (tx *memoryTx) LoadAuctionConfiguration(_ context.Context, id string) (entity.Result[entity.AuctionConfiguration], error) {
	return load[entity.AuctionConfiguration](tx, kindAuctionConfig, id)
}

func (tx *memoryTx) SaveAuctionConfiguration(_ context.Context, c *entity.AuctionConfiguration) error {
	return save(tx, kindAuctionConfig, c.ID, c)
}

func (tx *memoryTx) LoadAuction(_ context.Context, id string) (entity.Result[entity.Auction], error) {
	return load[entity.Auction](tx, kindAuction, id)
}

func (tx *memoryTx) SaveAuction(_ context.Context, a *entity.Auction) error {
	return save(tx, kindAuction, a.ID, a)
}

func (tx *memoryTx) LoadAuctionBid(_ context.Context, id string) (entity.Result[entity.AuctionBid], error) {
	return load[entity.AuctionBid](tx, kindAuctionBid, id)
}

func (tx *memoryTx) SaveAuctionBid(_ context.Context, b *entity.AuctionBid) error {
	return save(tx, kindAuctionBid, b.ID, b)
}

func (tx *memoryTx) LoadCursor(_ context.Context, id string) (entity.Result[entity.Cursor], error) {
	return load[entity.Cursor](tx, kindCursor, id)
}

func (tx *memoryTx) SaveCursor(_ context.Context, c *entity.Cursor) error {
	return save(tx, kindCursor, c.ID, c)
}

var (
	_ entity.Store = (*MemoryStore)(nil)
	_ entity.Tx    = (*memoryTx)(nil)
)

package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/fixedpoint"
)

// CreatePolicy tells a lookup what to do when the entity is absent.
type CreatePolicy int

const (
	// MayCreate materializes the entity with its defaults.
	MayCreate CreatePolicy = iota
	// MustExist fails with a MissingEntityError.
	MustExist
)

// Lookup resolves entities inside one store transaction, creating them on
// first reference. Contract reads happen only when an entity is created.
type Lookup struct {
	tx     Tx
	reader ContractReader
	// entities seeded from state that already includes the event
	postEvent map[string]bool
}

func NewLookup(tx Tx, reader ContractReader) *Lookup {
	return &Lookup{tx: tx, reader: reader}
}

func (l *Lookup) Tx() Tx { return l.tx }

func (l *Lookup) Reader() ContractReader { return l.reader }

// snapshot runs read at the parent of the event block, so the event itself
// is not counted twice. A contract deployed in the event block has no code
// there: read then runs at the event block and postEvent is true.
func snapshot(meta event.Meta, read func(block uint64) error) (postEvent bool, err error) {
	if meta.BlockNumber > 0 {
		err := read(meta.BlockNumber - 1)
		if !errors.Is(err, ErrNoCode) {
			return false, err
		}
	}
	return true, read(meta.BlockNumber)
}

func (l *Lookup) markPostEvent(kind, id string, meta event.Meta) {
	if l.postEvent == nil {
		l.postEvent = make(map[string]bool)
	}
	l.postEvent[kind+Separator+id] = true
	slog.Debug("Entity seeded at its deployment block",
		"kind", kind,
		"entity_id", id,
		"block", meta.BlockNumber,
		"tx", meta.TxHash.Hex(),
		"log_index", meta.LogIndex)
}

// TokenSeededAfterEvent reports whether the token was created by this lookup
// from state read at the event block, which already reflects the event.
func (l *Lookup) TokenSeededAfterEvent(id string) bool {
	return l.postEvent["token"+Separator+id]
}

// Token returns the token at address, reading its metadata on creation.
func (l *Lookup) Token(ctx context.Context, meta event.Meta, address common.Address) (*Token, error) {
	id := TokenID(address)
	res, err := l.tx.LoadToken(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load token %s: %w", id, err)
	}
	if token, ok := res.Get(); ok {
		return token, nil
	}

	var (
		name, symbol string
		decimals     uint8
		supply       *big.Int
	)
	postEvent, err := snapshot(meta, func(block uint64) error {
		var err error
		if name, err = l.reader.Name(ctx, block, address); err != nil {
			return fmt.Errorf("name of %s: %w", id, err)
		}
		if symbol, err = l.reader.Symbol(ctx, block, address); err != nil {
			return fmt.Errorf("symbol of %s: %w", id, err)
		}
		if decimals, err = l.reader.Decimals(ctx, block, address); err != nil {
			return fmt.Errorf("decimals of %s: %w", id, err)
		}
		if supply, err = l.reader.TotalSupply(ctx, block, address); err != nil {
			return fmt.Errorf("totalSupply of %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if postEvent {
		l.markPostEvent("token", id, meta)
	}

	token := &Token{
		ID:          id,
		Address:     address,
		Name:        name,
		Symbol:      symbol,
		Decimals:    decimals,
		TotalSupply: fixedpoint.FromWad(supply),
	}
	if err := l.tx.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("save token %s: %w", id, err)
	}
	return token, nil
}

// Balance returns the balance of holder for token. With MustExist an absent
// balance is a fatal MissingEntityError instead of a phantom zero balance.
func (l *Lookup) Balance(ctx context.Context, meta event.Meta, token, holder common.Address, policy CreatePolicy) (*TokenBalance, error) {
	id := BalanceID(token, holder)
	res, err := l.tx.LoadBalance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load balance %s: %w", id, err)
	}
	if balance, ok := res.Get(); ok {
		return balance, nil
	}
	if policy == MustExist {
		return nil, missing("balance", id)
	}

	balance := &TokenBalance{
		ID:           id,
		TokenAddress: token,
		Address:      holder,
		Balance:      fixedpoint.Zero,
		Modified:     meta.Stamp(),
	}
	if err := l.tx.SaveBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("save balance %s: %w", id, err)
	}
	return balance, nil
}

// Allowance returns what spender may move from owner. Creating an allowance
// also creates the owner's balance, since approving an empty balance is legal.
func (l *Lookup) Allowance(ctx context.Context, meta event.Meta, token, owner, spender common.Address, policy CreatePolicy) (*TokenAllowance, error) {
	id := AllowanceID(token, owner, spender)
	res, err := l.tx.LoadAllowance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load allowance %s: %w", id, err)
	}
	if allowance, ok := res.Get(); ok {
		return allowance, nil
	}
	if policy == MustExist {
		return nil, missing("allowance", id)
	}

	balance, err := l.Balance(ctx, meta, token, owner, MayCreate)
	if err != nil {
		return nil, err
	}

	allowance := &TokenAllowance{
		ID:              id,
		TokenAddress:    token,
		Address:         owner,
		BalanceID:       balance.ID,
		ApprovedAddress: spender,
		Amount:          fixedpoint.Zero,
		Modified:        meta.Stamp(),
	}
	if err := l.tx.SaveAllowance(ctx, allowance); err != nil {
		return nil, fmt.Errorf("save allowance %s: %w", id, err)
	}
	return allowance, nil
}

// Pool returns the pair at address, reading tokens, reserves and supply on creation.
func (l *Lookup) Pool(ctx context.Context, meta event.Meta, pair common.Address) (*LiquidityPool, error) {
	id := PoolID(pair)
	res, err := l.tx.LoadPool(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", id, err)
	}
	if pool, ok := res.Get(); ok {
		return pool, nil
	}

	var (
		token0, token1 common.Address
		reserves       Reserves
		supply         *big.Int
	)
	postEvent, err := snapshot(meta, func(block uint64) error {
		var err error
		if token0, err = l.reader.Token0(ctx, block, pair); err != nil {
			return fmt.Errorf("token0 of %s: %w", id, err)
		}
		if token1, err = l.reader.Token1(ctx, block, pair); err != nil {
			return fmt.Errorf("token1 of %s: %w", id, err)
		}
		if reserves, err = l.reader.GetReserves(ctx, block, pair); err != nil {
			return fmt.Errorf("reserves of %s: %w", id, err)
		}
		if supply, err = l.reader.TotalSupply(ctx, block, pair); err != nil {
			return fmt.Errorf("totalSupply of %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if postEvent {
		l.markPostEvent("pool", id, meta)
	}

	pool := &LiquidityPool{
		ID:          id,
		Address:     pair,
		Token0:      token0,
		Token1:      token1,
		TotalSupply: fixedpoint.FromWad(supply),
		Created:     meta.Stamp(),
		Modified:    meta.Stamp(),
	}
	pool.SetReserves(fixedpoint.FromWad(reserves.Reserve0), fixedpoint.FromWad(reserves.Reserve1))
	if err := l.tx.SavePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("save pool %s: %w", id, err)
	}
	return pool, nil
}

// SaviorBalance returns the savior stake of safeHandler, zero on creation.
func (l *Lookup) SaviorBalance(ctx context.Context, meta event.Meta, savior, safeHandler common.Address) (*SaviorBalance, error) {
	id := SaviorBalanceID(savior, safeHandler)
	res, err := l.tx.LoadSaviorBalance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load savior balance %s: %w", id, err)
	}
	if balance, ok := res.Get(); ok {
		return balance, nil
	}

	balance := &SaviorBalance{
		ID:            id,
		SaviorAddress: savior,
		Address:       safeHandler,
		Balance:       fixedpoint.Zero,
		Created:       meta.Stamp(),
	}
	if err := l.tx.SaveSaviorBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("save savior balance %s: %w", id, err)
	}
	return balance, nil
}

// AuctionConfiguration returns the configuration of an auction type. It is
// written by administrative events only, so absence is fatal.
func (l *Lookup) AuctionConfiguration(ctx context.Context, auctionType string) (*AuctionConfiguration, error) {
	res, err := l.tx.LoadAuctionConfiguration(ctx, auctionType)
	if err != nil {
		return nil, fmt.Errorf("load auction configuration %s: %w", auctionType, err)
	}
	cfg, ok := res.Get()
	if !ok {
		return nil, missing("auction configuration", auctionType)
	}
	return cfg, nil
}

// Auction returns a started auction; absence is fatal.
func (l *Lookup) Auction(ctx context.Context, id string) (*Auction, error) {
	res, err := l.tx.LoadAuction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load auction %s: %w", id, err)
	}
	auction, ok := res.Get()
	if !ok {
		return nil, missing("auction", id)
	}
	return auction, nil
}

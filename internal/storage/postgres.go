package storage

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/event"
)

// Store manages PostgreSQL operations
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL store with connection pooling
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	// NUMERIC <-> decimal.Decimal
	config.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Update runs fn inside a database transaction, committed when fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx entity.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

// View runs fn inside a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx entity.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	return fn(&pgTx{tx: tx})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

func loadRow[T any](ctx context.Context, t *pgTx, sql, id string, scan func(row pgx.Row, v *T) error) (entity.Result[T], error) {
	var v T
	err := scan(t.tx.QueryRow(ctx, sql, id), &v)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.NotFound[T](), nil
	}
	if err != nil {
		return entity.NotFound[T](), err
	}
	return entity.Found(&v), nil
}

// stampCols scans the (at, block, transaction) column triple.
type stampCols struct {
	at    time.Time
	block int64
	tx    string
}

func (s *stampCols) dest() []any {
	return []any{&s.at, &s.block, &s.tx}
}

func (s *stampCols) stamp() event.Stamp {
	return event.Stamp{
		Block:       uint64(s.block),
		Transaction: common.HexToHash(s.tx),
		Timestamp:   s.at.UTC(),
	}
}

func stampArgs(s event.Stamp) []any {
	return []any{s.Timestamp, int64(s.Block), s.Transaction.Hex()}
}

func scanInto(row pgx.Row, head []any, tail ...[]any) error {
	dest := head
	for _, t := range tail {
		dest = append(dest, t...)
	}
	return row.Scan(dest...)
}

func args(head []any, tail ...[]any) []any {
	out := head
	for _, t := range tail {
		out = append(out, t...)
	}
	return out
}

// Tokens

func (t *pgTx) LoadToken(ctx context.Context, id string) (entity.Result[entity.Token], error) {
	return loadRow(ctx, t, `
		SELECT id, address, name, symbol, decimals, total_supply
		FROM tokens WHERE id = $1`, id,
		func(row pgx.Row, v *entity.Token) error {
			var addr string
			var decimals int16
			if err := row.Scan(&v.ID, &addr, &v.Name, &v.Symbol, &decimals, &v.TotalSupply); err != nil {
				return err
			}
			v.Address = common.HexToAddress(addr)
			v.Decimals = uint8(decimals)
			return nil
		})
}

func (t *pgTx) SaveToken(ctx context.Context, v *entity.Token) error {
	return t.exec(ctx, `
		INSERT INTO tokens (id, address, name, symbol, decimals, total_supply)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals,
			total_supply = EXCLUDED.total_supply`,
		v.ID, entity.Hex(v.Address), v.Name, v.Symbol, int16(v.Decimals), v.TotalSupply)
}

// Balances and allowances

func (t *pgTx) LoadBalance(ctx context.Context, id string) (entity.Result[entity.TokenBalance], error) {
	return loadRow(ctx, t, `
		SELECT id, token_address, address, balance,
			modified_at, modified_at_block, modified_at_transaction
		FROM token_balances WHERE id = $1`, id,
		func(row pgx.Row, v *entity.TokenBalance) error {
			var token, holder string
			var mod stampCols
			if err := scanInto(row, []any{&v.ID, &token, &holder, &v.Balance}, mod.dest()); err != nil {
				return err
			}
			v.TokenAddress = common.HexToAddress(token)
			v.Address = common.HexToAddress(holder)
			v.Modified = mod.stamp()
			return nil
		})
}

func (t *pgTx) SaveBalance(ctx context.Context, v *entity.TokenBalance) error {
	return t.exec(ctx, `
		INSERT INTO token_balances
			(id, token_address, address, balance, modified_at, modified_at_block, modified_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			modified_at = EXCLUDED.modified_at,
			modified_at_block = EXCLUDED.modified_at_block,
			modified_at_transaction = EXCLUDED.modified_at_transaction`,
		args([]any{v.ID, entity.Hex(v.TokenAddress), entity.Hex(v.Address), v.Balance}, stampArgs(v.Modified))...)
}

func (t *pgTx) LoadAllowance(ctx context.Context, id string) (entity.Result[entity.TokenAllowance], error) {
	return loadRow(ctx, t, `
		SELECT id, token_address, address, balance_id, approved_address, amount,
			modified_at, modified_at_block, modified_at_transaction
		FROM token_allowances WHERE id = $1`, id,
		func(row pgx.Row, v *entity.TokenAllowance) error {
			var token, owner, spender string
			var mod stampCols
			if err := scanInto(row, []any{&v.ID, &token, &owner, &v.BalanceID, &spender, &v.Amount}, mod.dest()); err != nil {
				return err
			}
			v.TokenAddress = common.HexToAddress(token)
			v.Address = common.HexToAddress(owner)
			v.ApprovedAddress = common.HexToAddress(spender)
			v.Modified = mod.stamp()
			return nil
		})
}

func (t *pgTx) SaveAllowance(ctx context.Context, v *entity.TokenAllowance) error {
	return t.exec(ctx, `
		INSERT INTO token_allowances
			(id, token_address, address, balance_id, approved_address, amount,
			 modified_at, modified_at_block, modified_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			modified_at = EXCLUDED.modified_at,
			modified_at_block = EXCLUDED.modified_at_block,
			modified_at_transaction = EXCLUDED.modified_at_transaction`,
		args([]any{v.ID, entity.Hex(v.TokenAddress), entity.Hex(v.Address), v.BalanceID,
			entity.Hex(v.ApprovedAddress), v.Amount}, stampArgs(v.Modified))...)
}

func (t *pgTx) LoadTransfer(ctx context.Context, id string) (entity.Result[entity.TransferRecord], error) {
	return loadRow(ctx, t, `
		SELECT id, token_address, source, destination, amount,
			created_at, created_at_block, created_at_transaction
		FROM token_transfers WHERE id = $1`, id,
		func(row pgx.Row, v *entity.TransferRecord) error {
			var token, src, dst string
			var created stampCols
			if err := scanInto(row, []any{&v.ID, &token, &src, &dst, &v.Amount}, created.dest()); err != nil {
				return err
			}
			v.TokenAddress = common.HexToAddress(token)
			v.Source = common.HexToAddress(src)
			v.Destination = common.HexToAddress(dst)
			v.Created = created.stamp()
			return nil
		})
}

func (t *pgTx) SaveTransfer(ctx context.Context, v *entity.TransferRecord) error {
	return t.exec(ctx, `
		INSERT INTO token_transfers
			(id, token_address, source, destination, amount,
			 created_at, created_at_block, created_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		args([]any{v.ID, entity.Hex(v.TokenAddress), entity.Hex(v.Source), entity.Hex(v.Destination), v.Amount},
			stampArgs(v.Created))...)
}

// Liquidity pools

func (t *pgTx) LoadPool(ctx context.Context, id string) (entity.Result[entity.LiquidityPool], error) {
	return loadRow(ctx, t, `
		SELECT id, address, token0, token1, reserve0, reserve1, token0_price, token1_price, total_supply,
			created_at, created_at_block, created_at_transaction,
			modified_at, modified_at_block, modified_at_transaction
		FROM liquidity_pools WHERE id = $1`, id,
		func(row pgx.Row, v *entity.LiquidityPool) error {
			var addr, t0, t1 string
			var created, mod stampCols
			err := scanInto(row,
				[]any{&v.ID, &addr, &t0, &t1, &v.Reserve0, &v.Reserve1, &v.Token0Price, &v.Token1Price, &v.TotalSupply},
				created.dest(), mod.dest())
			if err != nil {
				return err
			}
			v.Address = common.HexToAddress(addr)
			v.Token0 = common.HexToAddress(t0)
			v.Token1 = common.HexToAddress(t1)
			v.Created = created.stamp()
			v.Modified = mod.stamp()
			return nil
		})
}

func (t *pgTx) SavePool(ctx context.Context, v *entity.LiquidityPool) error {
	return t.exec(ctx, `
		INSERT INTO liquidity_pools
			(id, address, token0, token1, reserve0, reserve1, token0_price, token1_price, total_supply,
			 created_at, created_at_block, created_at_transaction,
			 modified_at, modified_at_block, modified_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			reserve0 = EXCLUDED.reserve0,
			reserve1 = EXCLUDED.reserve1,
			token0_price = EXCLUDED.token0_price,
			token1_price = EXCLUDED.token1_price,
			total_supply = EXCLUDED.total_supply,
			modified_at = EXCLUDED.modified_at,
			modified_at_block = EXCLUDED.modified_at_block,
			modified_at_transaction = EXCLUDED.modified_at_transaction`,
		args([]any{v.ID, entity.Hex(v.Address), entity.Hex(v.Token0), entity.Hex(v.Token1),
			v.Reserve0, v.Reserve1, v.Token0Price, v.Token1Price, v.TotalSupply},
			stampArgs(v.Created), stampArgs(v.Modified))...)
}

func (t *pgTx) LoadSwap(ctx context.Context, id string) (entity.Result[entity.SwapRecord], error) {
	return loadRow(ctx, t, `
		SELECT id, pool_id, amount0_in, amount1_in, amount0_out, amount1_out, sender,
			created_at, created_at_block, created_at_transaction
		FROM pool_swaps WHERE id = $1`, id,
		func(row pgx.Row, v *entity.SwapRecord) error {
			var sender string
			var created stampCols
			err := scanInto(row,
				[]any{&v.ID, &v.PoolID, &v.Amount0In, &v.Amount1In, &v.Amount0Out, &v.Amount1Out, &sender},
				created.dest())
			if err != nil {
				return err
			}
			v.Sender = common.HexToAddress(sender)
			v.Created = created.stamp()
			return nil
		})
}

func (t *pgTx) SaveSwap(ctx context.Context, v *entity.SwapRecord) error {
	return t.exec(ctx, `
		INSERT INTO pool_swaps
			(id, pool_id, amount0_in, amount1_in, amount0_out, amount1_out, sender,
			 created_at, created_at_block, created_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		args([]any{v.ID, v.PoolID, v.Amount0In, v.Amount1In, v.Amount0Out, v.Amount1Out, entity.Hex(v.Sender)},
			stampArgs(v.Created))...)
}

func (t *pgTx) LoadSync(ctx context.Context, id string) (entity.Result[entity.SyncRecord], error) {
	return loadRow(ctx, t, `
		SELECT id, pool_id, reserve0, reserve1, created_at, created_at_block, created_at_transaction
		FROM pool_syncs WHERE id = $1`, id,
		func(row pgx.Row, v *entity.SyncRecord) error {
			var created stampCols
			if err := scanInto(row, []any{&v.ID, &v.PoolID, &v.Reserve0, &v.Reserve1}, created.dest()); err != nil {
				return err
			}
			v.Created = created.stamp()
			return nil
		})
}

func (t *pgTx) SaveSync(ctx context.Context, v *entity.SyncRecord) error {
	return t.exec(ctx, `
		INSERT INTO pool_syncs
			(id, pool_id, reserve0, reserve1, created_at, created_at_block, created_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		args([]any{v.ID, v.PoolID, v.Reserve0, v.Reserve1}, stampArgs(v.Created))...)
}

// Savior stakes

func (t *pgTx) LoadSaviorBalance(ctx context.Context, id string) (entity.Result[entity.SaviorBalance], error) {
	return loadRow(ctx, t, `
		SELECT id, savior_address, address, balance, created_at, created_at_block, created_at_transaction
		FROM savior_balances WHERE id = $1`, id,
		func(row pgx.Row, v *entity.SaviorBalance) error {
			var savior, handler string
			var created stampCols
			if err := scanInto(row, []any{&v.ID, &savior, &handler, &v.Balance}, created.dest()); err != nil {
				return err
			}
			v.SaviorAddress = common.HexToAddress(savior)
			v.Address = common.HexToAddress(handler)
			v.Created = created.stamp()
			return nil
		})
}

func (t *pgTx) SaveSaviorBalance(ctx context.Context, v *entity.SaviorBalance) error {
	return t.exec(ctx, `
		INSERT INTO savior_balances
			(id, savior_address, address, balance, created_at, created_at_block, created_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance`,
		args([]any{v.ID, entity.Hex(v.SaviorAddress), entity.Hex(v.Address), v.Balance}, stampArgs(v.Created))...)
}

func (t *pgTx) LoadSaviorBalanceChange(ctx context.Context, id string) (entity.Result[entity.SaviorBalanceChange], error) {
	return loadRow(ctx, t, `
		SELECT id, savior_address, address, delta_balance, created_at, created_at_block, created_at_transaction
		FROM savior_balance_changes WHERE id = $1`, id,
		func(row pgx.Row, v *entity.SaviorBalanceChange) error {
			var savior, handler string
			var created stampCols
			if err := scanInto(row, []any{&v.ID, &savior, &handler, &v.DeltaBalance}, created.dest()); err != nil {
				return err
			}
			v.SaviorAddress = common.HexToAddress(savior)
			v.Address = common.HexToAddress(handler)
			v.Created = created.stamp()
			return nil
		})
}

func (t *pgTx) SaveSaviorBalanceChange(ctx context.Context, v *entity.SaviorBalanceChange) error {
	return t.exec(ctx, `
		INSERT INTO savior_balance_changes
			(id, savior_address, address, delta_balance, created_at, created_at_block, created_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		args([]any{v.ID, entity.Hex(v.SaviorAddress), entity.Hex(v.Address), v.DeltaBalance}, stampArgs(v.Created))...)
}

// Auctions

func (t *pgTx) LoadAuctionConfiguration(ctx context.Context, id string) (entity.Result[entity.AuctionConfiguration], error) {
	return loadRow(ctx, t, `
		SELECT id, bid_increase, bid_duration, total_auction_length
		FROM auction_configurations WHERE id = $1`, id,
		func(row pgx.Row, v *entity.AuctionConfiguration) error {
			var duration, length int64
			if err := row.Scan(&v.ID, &v.BidIncrease, &duration, &length); err != nil {
				return err
			}
			v.BidDuration = uint64(duration)
			v.TotalAuctionLength = uint64(length)
			return nil
		})
}

func (t *pgTx) SaveAuctionConfiguration(ctx context.Context, v *entity.AuctionConfiguration) error {
	return t.exec(ctx, `
		INSERT INTO auction_configurations (id, bid_increase, bid_duration, total_auction_length)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			bid_increase = EXCLUDED.bid_increase,
			bid_duration = EXCLUDED.bid_duration,
			total_auction_length = EXCLUDED.total_auction_length`,
		v.ID, v.BidIncrease, int64(v.BidDuration), int64(v.TotalAuctionLength))
}

func (t *pgTx) LoadAuction(ctx context.Context, id string) (entity.Result[entity.Auction], error) {
	return loadRow(ctx, t, `
		SELECT id, auction_id, number_of_bids, english_auction_type, buy_token, sell_token,
			sell_initial_amount, buy_initial_amount, sell_amount, buy_amount, price, winner,
			auction_deadline, is_claimed, started_by, configuration_id,
			created_at, created_at_block, created_at_transaction
		FROM auctions WHERE id = $1`, id,
		func(row pgx.Row, v *entity.Auction) error {
			var (
				auctionID      decimal.Decimal
				bids, deadline int64
				winner         *string
				startedBy      string
				created        stampCols
			)
			err := scanInto(row,
				[]any{&v.ID, &auctionID, &bids, &v.EnglishAuctionType, &v.BuyToken, &v.SellToken,
					&v.SellInitialAmount, &v.BuyInitialAmount, &v.SellAmount, &v.BuyAmount, &v.Price, &winner,
					&deadline, &v.IsClaimed, &startedBy, &v.ConfigurationID},
				created.dest())
			if err != nil {
				return err
			}
			v.AuctionID = auctionID.BigInt()
			v.NumberOfBids = uint64(bids)
			v.AuctionDeadline = uint64(deadline)
			v.StartedBy = common.HexToAddress(startedBy)
			if winner != nil {
				w := common.HexToAddress(*winner)
				v.Winner = &w
			}
			v.Created = created.stamp()
			return nil
		})
}

func (t *pgTx) SaveAuction(ctx context.Context, v *entity.Auction) error {
	var winner *string
	if v.Winner != nil {
		w := entity.Hex(*v.Winner)
		winner = &w
	}
	return t.exec(ctx, `
		INSERT INTO auctions
			(id, auction_id, number_of_bids, english_auction_type, buy_token, sell_token,
			 sell_initial_amount, buy_initial_amount, sell_amount, buy_amount, price, winner,
			 auction_deadline, is_claimed, started_by, configuration_id,
			 created_at, created_at_block, created_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			number_of_bids = EXCLUDED.number_of_bids,
			sell_amount = EXCLUDED.sell_amount,
			buy_amount = EXCLUDED.buy_amount,
			price = EXCLUDED.price,
			winner = EXCLUDED.winner,
			auction_deadline = EXCLUDED.auction_deadline,
			is_claimed = EXCLUDED.is_claimed`,
		args([]any{v.ID, bigToDecimal(v.AuctionID), int64(v.NumberOfBids), v.EnglishAuctionType, v.BuyToken, v.SellToken,
			v.SellInitialAmount, v.BuyInitialAmount, v.SellAmount, v.BuyAmount, v.Price, winner,
			int64(v.AuctionDeadline), v.IsClaimed, entity.Hex(v.StartedBy), v.ConfigurationID},
			stampArgs(v.Created))...)
}

func (t *pgTx) LoadAuctionBid(ctx context.Context, id string) (entity.Result[entity.AuctionBid], error) {
	return loadRow(ctx, t, `
		SELECT id, bid_number, type, auction_id, sell_amount, buy_amount, price, bidder,
			created_at, created_at_block, created_at_transaction
		FROM auction_bids WHERE id = $1`, id,
		func(row pgx.Row, v *entity.AuctionBid) error {
			var number int64
			var bidder string
			var created stampCols
			err := scanInto(row,
				[]any{&v.ID, &number, &v.Type, &v.AuctionID, &v.SellAmount, &v.BuyAmount, &v.Price, &bidder},
				created.dest())
			if err != nil {
				return err
			}
			v.BidNumber = uint64(number)
			v.Bidder = common.HexToAddress(bidder)
			v.Created = created.stamp()
			return nil
		})
}

func (t *pgTx) SaveAuctionBid(ctx context.Context, v *entity.AuctionBid) error {
	return t.exec(ctx, `
		INSERT INTO auction_bids
			(id, bid_number, type, auction_id, sell_amount, buy_amount, price, bidder,
			 created_at, created_at_block, created_at_transaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		args([]any{v.ID, int64(v.BidNumber), v.Type, v.AuctionID, v.SellAmount, v.BuyAmount, v.Price,
			entity.Hex(v.Bidder)}, stampArgs(v.Created))...)
}

// Cursor

func (t *pgTx) LoadCursor(ctx context.Context, id string) (entity.Result[entity.Cursor], error) {
	return loadRow(ctx, t, `
		SELECT id, next_block, has_event, last_block, last_tx_index, last_log_index, updated_at
		FROM indexer_cursors WHERE id = $1`, id,
		func(row pgx.Row, v *entity.Cursor) error {
			var next, block, txIndex, logIndex int64
			if err := row.Scan(&v.ID, &next, &v.HasEvent, &block, &txIndex, &logIndex, &v.UpdatedAt); err != nil {
				return err
			}
			v.NextBlock = uint64(next)
			v.LastEvent = event.Position{BlockNumber: uint64(block), TxIndex: uint(txIndex), LogIndex: uint(logIndex)}
			v.UpdatedAt = v.UpdatedAt.UTC()
			return nil
		})
}

func (t *pgTx) SaveCursor(ctx context.Context, v *entity.Cursor) error {
	return t.exec(ctx, `
		INSERT INTO indexer_cursors
			(id, next_block, has_event, last_block, last_tx_index, last_log_index, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			next_block = EXCLUDED.next_block,
			has_event = EXCLUDED.has_event,
			last_block = EXCLUDED.last_block,
			last_tx_index = EXCLUDED.last_tx_index,
			last_log_index = EXCLUDED.last_log_index,
			updated_at = EXCLUDED.updated_at`,
		v.ID, int64(v.NextBlock), v.HasEvent, int64(v.LastEvent.BlockNumber),
		int64(v.LastEvent.TxIndex), int64(v.LastEvent.LogIndex), v.UpdatedAt)
}

func bigToDecimal(b *big.Int) decimal.Decimal {
	if b == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(b, 0)
}

var (
	_ entity.Store = (*Store)(nil)
	_ entity.Tx    = (*pgTx)(nil)
)

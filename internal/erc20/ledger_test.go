package erc20

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/entity/entitytest"
	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/fixedpoint"
	"github.com/matrixise/geb-ledger/internal/storage"
)

var (
	coin   = common.HexToAddress("0xc000000000000000000000000000000000000001")
	alice  = common.HexToAddress("0xa000000000000000000000000000000000000001")
	bob    = common.HexToAddress("0xb000000000000000000000000000000000000002")
	carol  = common.HexToAddress("0xcc00000000000000000000000000000000000003")
	router = common.HexToAddress("0xd000000000000000000000000000000000000004")
	zero   = common.Address{}
)

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.Wad())
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *storage.MemoryStore
	reader *entitytest.Reader
	log    uint
}

func newFixture(t *testing.T) *fixture {
	reader := entitytest.NewReader()
	reader.SetToken(coin, entitytest.TokenInfo{Name: "Coin", Symbol: "COIN", Decimals: 18})
	return &fixture{t: t, ctx: context.Background(), store: storage.NewMemoryStore(), reader: reader}
}

func (f *fixture) meta(from common.Address) event.Meta {
	f.log++
	return event.Meta{
		Position:  event.Position{BlockNumber: 100, LogIndex: f.log},
		Contract:  coin,
		Timestamp: time.Unix(1_700_000_000, 0).UTC(),
		TxHash:    common.HexToHash("0xfeed"),
		TxFrom:    from,
	}
}

func (f *fixture) transfer(from, to common.Address, amount int64) error {
	ev := &event.Transfer{Meta: f.meta(from), From: from, To: to, Value: wad(amount)}
	return f.store.Update(f.ctx, func(tx entity.Tx) error {
		return HandleTransfer(f.ctx, entity.NewLookup(tx, f.reader), ev)
	})
}

func (f *fixture) approve(owner, spender common.Address, amount int64) error {
	ev := &event.Approval{Meta: f.meta(owner), Owner: owner, Spender: spender, Value: wad(amount)}
	return f.store.Update(f.ctx, func(tx entity.Tx) error {
		return HandleApproval(f.ctx, entity.NewLookup(tx, f.reader), ev)
	})
}

func (f *fixture) balance(holder common.Address) (decimal.Decimal, bool) {
	var (
		bal   decimal.Decimal
		found bool
	)
	err := f.store.View(f.ctx, func(tx entity.Tx) error {
		res, err := tx.LoadBalance(f.ctx, entity.BalanceID(coin, holder))
		if b, ok := res.Get(); ok {
			bal, found = b.Balance, true
		}
		return err
	})
	require.NoError(f.t, err)
	return bal, found
}

func (f *fixture) supply() decimal.Decimal {
	var supply decimal.Decimal
	err := f.store.View(f.ctx, func(tx entity.Tx) error {
		res, err := tx.LoadToken(f.ctx, entity.TokenID(coin))
		tok, ok := res.Get()
		require.True(f.t, ok)
		supply = tok.TotalSupply
		return err
	})
	require.NoError(f.t, err)
	return supply
}

func (f *fixture) allowance(owner, spender common.Address) (decimal.Decimal, bool) {
	var (
		amount decimal.Decimal
		found  bool
	)
	err := f.store.View(f.ctx, func(tx entity.Tx) error {
		res, err := tx.LoadAllowance(f.ctx, entity.AllowanceID(coin, owner, spender))
		if a, ok := res.Get(); ok {
			amount, found = a.Amount, true
		}
		return err
	})
	require.NoError(f.t, err)
	return amount, found
}

type transferStep struct {
	from, to common.Address
	amount   int64
}

func TestHandleTransfer(t *testing.T) {
	tests := []struct {
		name         string
		deployBlock  uint64
		deploySupply int64
		steps        []transferStep
		wantBalances map[common.Address]string
		wantSupply   string
	}{
		{
			name:         "mint credits and grows supply",
			steps:        []transferStep{{zero, alice, 100}},
			wantBalances: map[common.Address]string{alice: "100"},
			wantSupply:   "100",
		},
		{
			name:         "burn shrinks supply",
			steps:        []transferStep{{zero, alice, 100}, {alice, zero, 40}},
			wantBalances: map[common.Address]string{alice: "60"},
			wantSupply:   "60",
		},
		{
			name: "transfers conserve supply",
			steps: []transferStep{
				{zero, alice, 100},
				{zero, bob, 50},
				{alice, bob, 30},
				{bob, carol, 70},
				{carol, zero, 20},
			},
			wantBalances: map[common.Address]string{alice: "70", bob: "10", carol: "50"},
			wantSupply:   "130",
		},
		{
			name:         "self transfer keeps balance",
			steps:        []transferStep{{zero, alice, 100}, {alice, alice, 40}},
			wantBalances: map[common.Address]string{alice: "100"},
			wantSupply:   "100",
		},
		{
			name:         "negative balance passes through",
			steps:        []transferStep{{zero, alice, 10}, {alice, bob, 15}},
			wantBalances: map[common.Address]string{alice: "-5", bob: "15"},
			wantSupply:   "10",
		},
		{
			// supply read at the deployment block already holds the first mint
			name:         "mint in deployment block is counted once",
			deployBlock:  100,
			deploySupply: 100,
			steps:        []transferStep{{zero, alice, 100}, {zero, bob, 20}},
			wantBalances: map[common.Address]string{alice: "100", bob: "20"},
			wantSupply:   "120",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.deployBlock > 0 {
				f.reader.SetToken(coin, entitytest.TokenInfo{Name: "Coin", Symbol: "COIN", Decimals: 18, Supply: wad(tt.deploySupply)})
				f.reader.SetDeployBlock(coin, tt.deployBlock)
			}

			for _, step := range tt.steps {
				require.NoError(t, f.transfer(step.from, step.to, step.amount))
			}

			total := decimal.Zero
			for holder, want := range tt.wantBalances {
				bal, ok := f.balance(holder)
				require.True(t, ok)
				assert.Equal(t, want, bal.String())
				total = total.Add(bal)
			}
			assert.Equal(t, tt.wantSupply, f.supply().String())
			assert.True(t, total.Equal(f.supply()), "sum %s != supply %s", total, f.supply())

			_, ok := f.balance(zero)
			assert.False(t, ok, "mint and burn never create a zero-address balance")
			assert.Equal(t, len(tt.steps), f.store.Count("transfer"))
		})
	}
}

func TestHandleTransferFailureRollsBack(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fixture)
		wantAlice string
		check     func(t *testing.T, err error)
	}{
		{
			name: "unknown source is fatal",
			check: func(t *testing.T, err error) {
				var me *entity.MissingEntityError
				require.ErrorAs(t, err, &me)
				assert.Equal(t, entity.BalanceID(coin, alice), me.ID)
			},
		},
		{
			name: "upstream read failure",
			setup: func(f *fixture) {
				require.NoError(f.t, f.transfer(zero, alice, 100))
				f.reader.Err = errors.New("execution reverted")
			},
			wantAlice: "100",
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "execution reverted")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			transfers := f.store.Count("transfer")

			err := f.transfer(alice, bob, 10)
			tt.check(t, err)

			if tt.wantAlice != "" {
				bal, _ := f.balance(alice)
				assert.Equal(t, tt.wantAlice, bal.String())
			}
			_, ok := f.balance(bob)
			assert.False(t, ok, "failed event must not leave a credited destination")
			assert.Equal(t, transfers, f.store.Count("transfer"))
		})
	}
}

func TestApprovalOverwrites(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.approve(alice, bob, 5))
	require.NoError(t, f.approve(alice, bob, 3))

	amount, ok := f.allowance(alice, bob)
	require.True(t, ok)
	assert.Equal(t, "3", amount.String())

	_, ok = f.balance(alice)
	assert.True(t, ok, "approval creates the owner balance")
}

func TestTransferResyncsCandidateAllowances(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.transfer(zero, alice, 100))
	require.NoError(t, f.approve(alice, router, 50))

	f.reader.SetAllowance(coin, alice, router, wad(20))
	ev := &event.Transfer{Meta: f.meta(router), From: alice, To: bob, Value: wad(30)}
	err := f.store.Update(f.ctx, func(tx entity.Tx) error {
		return HandleTransfer(f.ctx, entity.NewLookup(tx, f.reader), ev)
	})
	require.NoError(t, err)

	amount, ok := f.allowance(alice, router)
	require.True(t, ok)
	assert.Equal(t, "20", amount.String())

	amount, ok = f.allowance(alice, bob)
	require.True(t, ok)
	assert.True(t, amount.IsZero())

	_, ok = f.allowance(alice, coin)
	assert.True(t, ok)
}

func TestSpenders(t *testing.T) {
	tests := []struct {
		name string
		ev   *event.Transfer
		want []common.Address
	}{
		{
			name: "distinct candidates",
			ev:   &event.Transfer{Meta: event.Meta{Contract: coin, TxFrom: router}, From: alice, To: bob},
			want: []common.Address{bob, coin, router},
		},
		{
			name: "originator is destination",
			ev:   &event.Transfer{Meta: event.Meta{Contract: coin, TxFrom: bob}, From: alice, To: bob},
			want: []common.Address{bob, coin},
		},
		{
			name: "burn skips zero spender",
			ev:   &event.Transfer{Meta: event.Meta{Contract: coin, TxFrom: alice}, From: alice, To: zero},
			want: []common.Address{coin, alice},
		},
		{
			name: "mint has no owner",
			ev:   &event.Transfer{Meta: event.Meta{Contract: coin, TxFrom: alice}, From: zero, To: alice},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Spenders(tt.ev))
		})
	}
}

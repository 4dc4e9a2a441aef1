// Package entitytest provides an in-memory ContractReader for handler tests.
package entitytest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matrixise/geb-ledger/internal/entity"
)

// TokenInfo is the static metadata of a fake token.
type TokenInfo struct {
	Name     string
	Symbol   string
	Decimals uint8
	Supply   *big.Int
}

// PairInfo is the state of a fake liquidity pair.
type PairInfo struct {
	Token0   common.Address
	Token1   common.Address
	Reserves entity.Reserves
	Supply   *big.Int
}

// HouseInfo is the parameter set of a fake auction house.
type HouseInfo struct {
	BidIncrease        *big.Int
	BidDuration        uint64
	TotalAuctionLength uint64
}

type allowanceKey struct {
	token, owner, spender common.Address
}

// Reader answers contract reads from maps. The block argument is recorded
// and only checked against deployment blocks. When Err is set every call
// fails with it.
type Reader struct {
	mu         sync.Mutex
	tokens     map[common.Address]TokenInfo
	pairs      map[common.Address]PairInfo
	houses     map[common.Address]HouseInfo
	allowances map[allowanceKey]*big.Int
	deployed   map[common.Address]uint64

	Err   error
	Calls []Call
}

// Call is one recorded read.
type Call struct {
	Method  string
	Block   uint64
	Address common.Address
}

func NewReader() *Reader {
	return &Reader{
		tokens:     make(map[common.Address]TokenInfo),
		pairs:      make(map[common.Address]PairInfo),
		houses:     make(map[common.Address]HouseInfo),
		allowances: make(map[allowanceKey]*big.Int),
		deployed:   make(map[common.Address]uint64),
	}
}

// SetDeployBlock makes reads of addr below block fail with entity.ErrNoCode.
func (r *Reader) SetDeployBlock(addr common.Address, block uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deployed[addr] = block
}

func (r *Reader) SetToken(addr common.Address, info TokenInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[addr] = info
}

func (r *Reader) SetPair(addr common.Address, info PairInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[addr] = info
}

func (r *Reader) SetHouse(addr common.Address, info HouseInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.houses[addr] = info
}

func (r *Reader) SetAllowance(token, owner, spender common.Address, amount *big.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowances[allowanceKey{token, owner, spender}] = amount
}

// CallCount returns how many reads of method were made.
func (r *Reader) CallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (r *Reader) record(method string, block uint64, addr common.Address) error {
	r.Calls = append(r.Calls, Call{Method: method, Block: block, Address: addr})
	if r.Err != nil {
		return r.Err
	}
	if deployed, ok := r.deployed[addr]; ok && block < deployed {
		return fmt.Errorf("%s: %w", method, entity.ErrNoCode)
	}
	return nil
}

func (r *Reader) token(method string, block uint64, addr common.Address) (TokenInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(method, block, addr); err != nil {
		return TokenInfo{}, err
	}
	info, ok := r.tokens[addr]
	if !ok {
		return TokenInfo{}, fmt.Errorf("no token at %s", addr.Hex())
	}
	return info, nil
}

func (r *Reader) Name(_ context.Context, block uint64, token common.Address) (string, error) {
	info, err := r.token("name", block, token)
	return info.Name, err
}

func (r *Reader) Symbol(_ context.Context, block uint64, token common.Address) (string, error) {
	info, err := r.token("symbol", block, token)
	return info.Symbol, err
}

func (r *Reader) Decimals(_ context.Context, block uint64, token common.Address) (uint8, error) {
	info, err := r.token("decimals", block, token)
	return info.Decimals, err
}

// TotalSupply answers for tokens first, then for pairs.
func (r *Reader) TotalSupply(_ context.Context, block uint64, token common.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("totalSupply", block, token); err != nil {
		return nil, err
	}
	var supply *big.Int
	if info, ok := r.tokens[token]; ok {
		supply = info.Supply
	} else if info, ok := r.pairs[token]; ok {
		supply = info.Supply
	} else {
		return nil, fmt.Errorf("no token at %s", token.Hex())
	}
	if supply == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(supply), nil
}

func (r *Reader) Allowance(_ context.Context, block uint64, token, owner, spender common.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("allowance", block, token); err != nil {
		return nil, err
	}
	amount, ok := r.allowances[allowanceKey{token, owner, spender}]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(amount), nil
}

func (r *Reader) pair(method string, block uint64, addr common.Address) (PairInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(method, block, addr); err != nil {
		return PairInfo{}, err
	}
	info, ok := r.pairs[addr]
	if !ok {
		return PairInfo{}, fmt.Errorf("no pair at %s", addr.Hex())
	}
	return info, nil
}

func (r *Reader) Token0(_ context.Context, block uint64, pair common.Address) (common.Address, error) {
	info, err := r.pair("token0", block, pair)
	return info.Token0, err
}

func (r *Reader) Token1(_ context.Context, block uint64, pair common.Address) (common.Address, error) {
	info, err := r.pair("token1", block, pair)
	return info.Token1, err
}

func (r *Reader) GetReserves(_ context.Context, block uint64, pair common.Address) (entity.Reserves, error) {
	info, err := r.pair("getReserves", block, pair)
	if err != nil {
		return entity.Reserves{}, err
	}
	res := entity.Reserves{Reserve0: new(big.Int), Reserve1: new(big.Int)}
	if info.Reserves.Reserve0 != nil {
		res.Reserve0.Set(info.Reserves.Reserve0)
	}
	if info.Reserves.Reserve1 != nil {
		res.Reserve1.Set(info.Reserves.Reserve1)
	}
	return res, nil
}

func (r *Reader) house(method string, block uint64, addr common.Address) (HouseInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(method, block, addr); err != nil {
		return HouseInfo{}, err
	}
	info, ok := r.houses[addr]
	if !ok {
		return HouseInfo{}, fmt.Errorf("no auction house at %s", addr.Hex())
	}
	return info, nil
}

func (r *Reader) BidIncrease(_ context.Context, block uint64, house common.Address) (*big.Int, error) {
	info, err := r.house("bidIncrease", block, house)
	if err != nil {
		return nil, err
	}
	if info.BidIncrease == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(info.BidIncrease), nil
}

func (r *Reader) BidDuration(_ context.Context, block uint64, house common.Address) (uint64, error) {
	info, err := r.house("bidDuration", block, house)
	return info.BidDuration, err
}

func (r *Reader) TotalAuctionLength(_ context.Context, block uint64, house common.Address) (uint64, error) {
	info, err := r.house("totalAuctionLength", block, house)
	return info.TotalAuctionLength, err
}

var _ entity.ContractReader = (*Reader)(nil)

package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matrixise/geb-ledger/internal/entity"
)

// Contract reads pinned at a block. Name, symbol, decimals, totalSupply and
// allowance share one signature across the coin and the pairs.

func (c *Client) Name(ctx context.Context, block uint64, token common.Address) (string, error) {
	out, err := c.call(ctx, block, token, c.abis.coin, "name")
	if err != nil {
		return "", err
	}
	return asString(out[0])
}

func (c *Client) Symbol(ctx context.Context, block uint64, token common.Address) (string, error) {
	out, err := c.call(ctx, block, token, c.abis.coin, "symbol")
	if err != nil {
		return "", err
	}
	return asString(out[0])
}

func (c *Client) Decimals(ctx context.Context, block uint64, token common.Address) (uint8, error) {
	out, err := c.call(ctx, block, token, c.abis.coin, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", out[0])
	}
	return d, nil
}

func (c *Client) TotalSupply(ctx context.Context, block uint64, token common.Address) (*big.Int, error) {
	out, err := c.call(ctx, block, token, c.abis.coin, "totalSupply")
	if err != nil {
		return nil, err
	}
	return asBigInt(out[0])
}

func (c *Client) Allowance(ctx context.Context, block uint64, token, owner, spender common.Address) (*big.Int, error) {
	out, err := c.call(ctx, block, token, c.abis.coin, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return asBigInt(out[0])
}

func (c *Client) Token0(ctx context.Context, block uint64, pair common.Address) (common.Address, error) {
	out, err := c.call(ctx, block, pair, c.abis.pair, "token0")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(out[0])
}

func (c *Client) Token1(ctx context.Context, block uint64, pair common.Address) (common.Address, error) {
	out, err := c.call(ctx, block, pair, c.abis.pair, "token1")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(out[0])
}

func (c *Client) GetReserves(ctx context.Context, block uint64, pair common.Address) (entity.Reserves, error) {
	out, err := c.call(ctx, block, pair, c.abis.pair, "getReserves")
	if err != nil {
		return entity.Reserves{}, err
	}
	if len(out) < 2 {
		return entity.Reserves{}, fmt.Errorf("getReserves: %d outputs", len(out))
	}
	r0, err := asBigInt(out[0])
	if err != nil {
		return entity.Reserves{}, err
	}
	r1, err := asBigInt(out[1])
	if err != nil {
		return entity.Reserves{}, err
	}
	return entity.Reserves{Reserve0: r0, Reserve1: r1}, nil
}

func (c *Client) BidIncrease(ctx context.Context, block uint64, house common.Address) (*big.Int, error) {
	out, err := c.call(ctx, block, house, c.abis.house, "bidIncrease")
	if err != nil {
		return nil, err
	}
	return asBigInt(out[0])
}

func (c *Client) BidDuration(ctx context.Context, block uint64, house common.Address) (uint64, error) {
	out, err := c.call(ctx, block, house, c.abis.house, "bidDuration")
	if err != nil {
		return 0, err
	}
	return asUint64(out[0])
}

func (c *Client) TotalAuctionLength(ctx context.Context, block uint64, house common.Address) (uint64, error) {
	out, err := c.call(ctx, block, house, c.abis.house, "totalAuctionLength")
	if err != nil {
		return 0, err
	}
	return asUint64(out[0])
}

var _ entity.ContractReader = (*Client)(nil)

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type %T, want string", v)
	}
	return s, nil
}

func asAddress(v any) (common.Address, error) {
	a, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected type %T, want address", v)
	}
	return a, nil
}

func asBigInt(v any) (*big.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T, want *big.Int", v)
	}
	return b, nil
}

// asUint64 accepts the Go types the ABI decoder yields for unsigned integers.
func asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case *big.Int:
		if !n.IsUint64() {
			return 0, fmt.Errorf("value %s overflows uint64", n)
		}
		return n.Uint64(), nil
	}
	return 0, fmt.Errorf("unexpected type %T, want unsigned integer", v)
}

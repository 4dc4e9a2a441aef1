package entity

import (
	"github.com/shopspring/decimal"

	"github.com/matrixise/geb-ledger/internal/fixedpoint"
)

// SetReserves overwrites both reserves and recomputes the cross prices.
// A price is zero when the opposing reserve is zero.
func (p *LiquidityPool) SetReserves(reserve0, reserve1 decimal.Decimal) {
	p.Reserve0 = reserve0
	p.Reserve1 = reserve1
	p.Token0Price = ratio(reserve0, reserve1)
	p.Token1Price = ratio(reserve1, reserve0)
}

func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return fixedpoint.Zero
	}
	return fixedpoint.Div(num, den)
}

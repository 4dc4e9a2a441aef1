package entity

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Separator joins the parts of composite identifiers.
const Separator = "-"

// Hex renders an address the way identifiers and stored columns use it.
func Hex(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func join(parts ...string) string {
	return strings.Join(parts, Separator)
}

func TokenID(token common.Address) string {
	return Hex(token)
}

func BalanceID(token, holder common.Address) string {
	return join(Hex(token), Hex(holder))
}

func AllowanceID(token, owner, spender common.Address) string {
	return join(Hex(token), Hex(owner), Hex(spender))
}

func PoolID(pair common.Address) string {
	return Hex(pair)
}

func SaviorBalanceID(savior, safeHandler common.Address) string {
	return join(Hex(savior), Hex(safeHandler))
}

func AuctionID(auctionType string, id *big.Int) string {
	return join(auctionType, id.String())
}

func AuctionBidID(auctionType string, id *big.Int, bidNumber uint64) string {
	return join(auctionType, id.String(), strconv.FormatUint(bidNumber, 10))
}

package blockchain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ContractKind selects the ABI a watched contract is decoded with.
type ContractKind string

const (
	KindCoin         ContractKind = "coin"
	KindUniswapPair  ContractKind = "uniswap_pair"
	KindAuctionHouse ContractKind = "auction_house"
	KindSavior       ContractKind = "savior"
)

// Kinds lists every supported contract kind.
var Kinds = []ContractKind{KindCoin, KindUniswapPair, KindAuctionHouse, KindSavior}

// ParseKind validates a configured contract kind.
func ParseKind(s string) (ContractKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown contract kind %q", s)
}

const coinABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"src","type":"address"},{"name":"guy","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"src","type":"address"},{"indexed":true,"name":"dst","type":"address"},{"indexed":false,"name":"amount","type":"uint256"}],"name":"Transfer","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"src","type":"address"},{"indexed":true,"name":"guy","type":"address"},{"indexed":false,"name":"amount","type":"uint256"}],"name":"Approval","type":"event"}
]`

const pairABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"token0","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"token1","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"getReserves","outputs":[{"name":"_reserve0","type":"uint112"},{"name":"_reserve1","type":"uint112"},{"name":"_blockTimestampLast","type":"uint32"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Transfer","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"owner","type":"address"},{"indexed":true,"name":"spender","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Approval","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":false,"name":"reserve0","type":"uint112"},{"indexed":false,"name":"reserve1","type":"uint112"}],"name":"Sync","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":false,"name":"amount0In","type":"uint256"},{"indexed":false,"name":"amount1In","type":"uint256"},{"indexed":false,"name":"amount0Out","type":"uint256"},{"indexed":false,"name":"amount1Out","type":"uint256"},{"indexed":true,"name":"to","type":"address"}],"name":"Swap","type":"event"}
]`

const auctionHouseABI = `[
	{"inputs":[],"name":"bidIncrease","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"bidDuration","outputs":[{"name":"","type":"uint48"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"totalAuctionLength","outputs":[{"name":"","type":"uint48"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":false,"name":"account","type":"address"}],"name":"AddAuthorization","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":false,"name":"parameter","type":"bytes32"},{"indexed":false,"name":"data","type":"uint256"}],"name":"ModifyParameters","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":false,"name":"parameter","type":"bytes32"},{"indexed":false,"name":"addr","type":"address"}],"name":"ModifyParameters","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"},{"indexed":false,"name":"auctionsStarted","type":"uint256"},{"indexed":false,"name":"amountToSell","type":"uint256"},{"indexed":false,"name":"initialBid","type":"uint256"},{"indexed":false,"name":"auctionDeadline","type":"uint256"}],"name":"StartAuction","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":false,"name":"id","type":"uint256"},{"indexed":false,"name":"highBidder","type":"address"},{"indexed":false,"name":"amountToBuy","type":"uint256"},{"indexed":false,"name":"bid","type":"uint256"},{"indexed":false,"name":"bidExpiry","type":"uint256"}],"name":"IncreaseBidSize","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":false,"name":"id","type":"uint256"},{"indexed":false,"name":"auctionDeadline","type":"uint256"}],"name":"RestartAuction","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"}],"name":"SettleAuction","type":"event"}
]`

const saviorABI = `[
	{"anonymous":false,"inputs":[{"indexed":true,"name":"caller","type":"address"},{"indexed":true,"name":"safeHandler","type":"address"},{"indexed":false,"name":"lpTokenAmount","type":"uint256"}],"name":"Deposit","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"caller","type":"address"},{"indexed":true,"name":"safeHandler","type":"address"},{"indexed":false,"name":"dst","type":"address"},{"indexed":false,"name":"lpTokenAmount","type":"uint256"}],"name":"Withdraw","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"keeper","type":"address"},{"indexed":true,"name":"collateralType","type":"bytes32"},{"indexed":true,"name":"safeHandler","type":"address"},{"indexed":false,"name":"lpTokenAmount","type":"uint256"}],"name":"SaveSAFE","type":"event"}
]`

type contractABIs struct {
	coin   abi.ABI
	pair   abi.ABI
	house  abi.ABI
	savior abi.ABI
}

func parseABIs() (*contractABIs, error) {
	var out contractABIs
	for _, def := range []struct {
		kind ContractKind
		json string
		dst  *abi.ABI
	}{
		{KindCoin, coinABI, &out.coin},
		{KindUniswapPair, pairABI, &out.pair},
		{KindAuctionHouse, auctionHouseABI, &out.house},
		{KindSavior, saviorABI, &out.savior},
	} {
		parsed, err := abi.JSON(strings.NewReader(def.json))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s ABI: %w", def.kind, err)
		}
		*def.dst = parsed
	}
	return &out, nil
}

func (a *contractABIs) forKind(kind ContractKind) (abi.ABI, error) {
	switch kind {
	case KindCoin:
		return a.coin, nil
	case KindUniswapPair:
		return a.pair, nil
	case KindAuctionHouse:
		return a.house, nil
	case KindSavior:
		return a.savior, nil
	}
	return abi.ABI{}, fmt.Errorf("unknown contract kind %q", kind)
}

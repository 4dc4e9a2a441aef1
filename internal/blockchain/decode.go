package blockchain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/matrixise/geb-ledger/internal/event"
)

// ErrUnknownTopic is returned for logs the ledger does not consume.
var ErrUnknownTopic = errors.New("unknown log topic")

// Contract is a watched contract.
type Contract struct {
	Label   string
	Kind    ContractKind
	Address common.Address
}

// Decoder turns raw logs of the watched contracts into typed events.
type Decoder struct {
	abis      *contractABIs
	contracts map[common.Address]Contract
	addresses []common.Address
}

func NewDecoder(contracts []Contract) (*Decoder, error) {
	abis, err := parseABIs()
	if err != nil {
		return nil, err
	}
	d := &Decoder{abis: abis, contracts: make(map[common.Address]Contract, len(contracts))}
	for _, c := range contracts {
		if _, err := abis.forKind(c.Kind); err != nil {
			return nil, fmt.Errorf("contract %s: %w", c.Label, err)
		}
		if prev, ok := d.contracts[c.Address]; ok {
			return nil, fmt.Errorf("contract %s: address %s already watched as %s", c.Label, c.Address.Hex(), prev.Label)
		}
		d.contracts[c.Address] = c
		d.addresses = append(d.addresses, c.Address)
	}
	return d, nil
}

// Addresses returns the watched contract addresses in configuration order.
func (d *Decoder) Addresses() []common.Address {
	return d.addresses
}

// Topics returns the signature hash of every event the watched kinds emit.
func (d *Decoder) Topics() []common.Hash {
	seen := make(map[common.Hash]bool)
	var out []common.Hash
	for _, c := range d.contracts {
		a, _ := d.abis.forKind(c.Kind)
		for _, ev := range a.Events {
			if !seen[ev.ID] {
				seen[ev.ID] = true
				out = append(out, ev.ID)
			}
		}
	}
	return out
}

// Decode decodes log with the ABI of its emitting contract. Meta must carry
// the block timestamp and transaction originator; position, contract and
// transaction hash are taken from the log.
func (d *Decoder) Decode(log types.Log, meta event.Meta) (event.Event, error) {
	c, ok := d.contracts[log.Address]
	if !ok || len(log.Topics) == 0 {
		return nil, ErrUnknownTopic
	}
	contractABI, err := d.abis.forKind(c.Kind)
	if err != nil {
		return nil, err
	}
	ev, err := contractABI.EventByID(log.Topics[0])
	if err != nil {
		return nil, ErrUnknownTopic
	}

	values := make(map[string]any)
	if err := ev.Inputs.UnpackIntoMap(values, log.Data); err != nil {
		return nil, fmt.Errorf("unpack %s data: %w", ev.Name, err)
	}
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("parse %s topics: %w", ev.Name, err)
	}

	meta.Position = event.Position{BlockNumber: log.BlockNumber, TxIndex: log.TxIndex, LogIndex: log.Index}
	meta.Contract = log.Address
	meta.TxHash = log.TxHash

	args := eventArgs{name: ev.RawName, values: values}
	switch c.Kind {
	case KindCoin, KindUniswapPair:
		return decodeToken(meta, ev, args)
	case KindAuctionHouse:
		return decodeAuctionHouse(meta, ev, args)
	case KindSavior:
		return decodeSavior(meta, ev, args)
	}
	return nil, ErrUnknownTopic
}

func decodeToken(meta event.Meta, ev *abi.Event, args eventArgs) (event.Event, error) {
	in := ev.Inputs
	switch ev.RawName {
	case "Transfer":
		// src/dst/amount on the coin, from/to/value on pairs
		e := &event.Transfer{Meta: meta}
		e.From = args.address(in[0].Name)
		e.To = args.address(in[1].Name)
		e.Value = args.bigInt(in[2].Name)
		return e, args.err
	case "Approval":
		e := &event.Approval{Meta: meta}
		e.Owner = args.address(in[0].Name)
		e.Spender = args.address(in[1].Name)
		e.Value = args.bigInt(in[2].Name)
		return e, args.err
	case "Sync":
		e := &event.Sync{Meta: meta}
		e.Reserve0 = args.bigInt("reserve0")
		e.Reserve1 = args.bigInt("reserve1")
		return e, args.err
	case "Swap":
		e := &event.Swap{Meta: meta}
		e.Sender = args.address("sender")
		e.To = args.address("to")
		e.Amount0In = args.bigInt("amount0In")
		e.Amount1In = args.bigInt("amount1In")
		e.Amount0Out = args.bigInt("amount0Out")
		e.Amount1Out = args.bigInt("amount1Out")
		return e, args.err
	}
	return nil, ErrUnknownTopic
}

func decodeAuctionHouse(meta event.Meta, ev *abi.Event, args eventArgs) (event.Event, error) {
	switch ev.RawName {
	case "AddAuthorization", "ModifyParameters":
		return &event.AuctionHouseModified{Meta: meta, Reason: ev.Sig}, nil
	case "StartAuction":
		e := &event.StartAuction{Meta: meta}
		e.ID = args.bigInt("id")
		e.AmountToSell = args.bigInt("amountToSell")
		e.InitialBid = args.bigInt("initialBid")
		return e, args.err
	case "IncreaseBidSize":
		e := &event.IncreaseBidSize{Meta: meta}
		e.ID = args.bigInt("id")
		e.HighBidder = args.address("highBidder")
		e.Bid = args.bigInt("bid")
		e.BidExpiry = args.uint64("bidExpiry")
		return e, args.err
	case "RestartAuction":
		e := &event.RestartAuction{Meta: meta}
		e.ID = args.bigInt("id")
		e.AuctionDeadline = args.uint64("auctionDeadline")
		return e, args.err
	case "SettleAuction":
		e := &event.SettleAuction{Meta: meta}
		e.ID = args.bigInt("id")
		return e, args.err
	}
	return nil, ErrUnknownTopic
}

func decodeSavior(meta event.Meta, ev *abi.Event, args eventArgs) (event.Event, error) {
	switch ev.RawName {
	case "Deposit":
		e := &event.SaviorDeposit{Meta: meta}
		e.SafeHandler = args.address("safeHandler")
		e.LPTokenAmount = args.bigInt("lpTokenAmount")
		return e, args.err
	case "Withdraw":
		e := &event.SaviorWithdraw{Meta: meta}
		e.SafeHandler = args.address("safeHandler")
		e.LPTokenAmount = args.bigInt("lpTokenAmount")
		return e, args.err
	case "SaveSAFE":
		e := &event.SaveSAFE{Meta: meta}
		e.SafeHandler = args.address("safeHandler")
		e.LPTokenAmount = args.bigInt("lpTokenAmount")
		return e, args.err
	}
	return nil, ErrUnknownTopic
}

// eventArgs reads typed values out of an unpacked log, keeping the first error.
type eventArgs struct {
	name   string
	values map[string]any
	err    error
}

func (a *eventArgs) fail(field string, v any) {
	if a.err == nil {
		a.err = fmt.Errorf("%s: field %q has unexpected type %T", a.name, field, v)
	}
}

func (a *eventArgs) address(field string) common.Address {
	v, ok := a.values[field].(common.Address)
	if !ok {
		a.fail(field, a.values[field])
	}
	return v
}

func (a *eventArgs) bigInt(field string) *big.Int {
	v, ok := a.values[field].(*big.Int)
	if !ok {
		a.fail(field, a.values[field])
		return new(big.Int)
	}
	return v
}

func (a *eventArgs) uint64(field string) uint64 {
	v := a.bigInt(field)
	if !v.IsUint64() {
		if a.err == nil {
			a.err = fmt.Errorf("%s: field %q overflows uint64: %s", a.name, field, v)
		}
		return 0
	}
	return v.Uint64()
}

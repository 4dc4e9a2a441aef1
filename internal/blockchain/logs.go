package blockchain

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/matrixise/geb-ledger/internal/event"
)

// ChainReader is the part of Client the log source needs.
type ChainReader interface {
	HeadBlock(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockTime(ctx context.Context, hash common.Hash) (time.Time, error)
	TransactionSender(ctx context.Context, block common.Hash, index uint) (common.Address, error)
}

// LogSource fetches and decodes the logs of the watched contracts.
type LogSource struct {
	chain   ChainReader
	decoder *Decoder
}

func NewLogSource(chain ChainReader, decoder *Decoder) *LogSource {
	return &LogSource{chain: chain, decoder: decoder}
}

func (s *LogSource) HeadBlock(ctx context.Context) (uint64, error) {
	return s.chain.HeadBlock(ctx)
}

// FetchEvents returns the decoded events of blocks [from, to] ordered by
// block, transaction index and log index. Logs of events the ledger does
// not consume are dropped.
func (s *LogSource) FetchEvents(ctx context.Context, from, to uint64) ([]event.Event, error) {
	logs, err := s.chain.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: s.decoder.Addresses(),
		Topics:    [][]common.Hash{s.decoder.Topics()},
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(logs, func(a, b types.Log) int {
		if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TxIndex, b.TxIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	blockTimes := make(map[common.Hash]time.Time)
	senders := make(map[common.Hash]common.Address)
	events := make([]event.Event, 0, len(logs))

	for _, log := range logs {
		if log.Removed {
			continue
		}

		ts, ok := blockTimes[log.BlockHash]
		if !ok {
			ts, err = s.chain.BlockTime(ctx, log.BlockHash)
			if err != nil {
				return nil, fmt.Errorf("block %d time: %w", log.BlockNumber, err)
			}
			blockTimes[log.BlockHash] = ts
		}

		sender, ok := senders[log.TxHash]
		if !ok {
			sender, err = s.chain.TransactionSender(ctx, log.BlockHash, log.TxIndex)
			if err != nil {
				return nil, fmt.Errorf("sender of tx %s: %w", log.TxHash.Hex(), err)
			}
			senders[log.TxHash] = sender
		}

		ev, err := s.decoder.Decode(log, event.Meta{Timestamp: ts, TxFrom: sender})
		if errors.Is(err, ErrUnknownTopic) {
			slog.Debug("Skipping unknown log", "contract", log.Address.Hex(), "block", log.BlockNumber, "log_index", log.Index)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decode log %d of tx %s: %w", log.Index, log.TxHash.Hex(), err)
		}
		events = append(events, ev)
	}

	return events, nil
}

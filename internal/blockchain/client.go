package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	rpcTimeout    = 10 * time.Second
	maxRetries    = 3
	retryInterval = 500 * time.Millisecond
)

// Client wraps Ethereum RPC client functionality with failover support
type Client struct {
	failoverClient *FailoverClient
	abis           *contractABIs
}

// NewClient creates a new blockchain client with failover support.
// chainID 0 skips the chain check.
func NewClient(rpcURLs []string, chainID uint64) (*Client, error) {
	failoverClient, err := NewFailoverClient(rpcURLs, chainID)
	if err != nil {
		return nil, err
	}

	abis, err := parseABIs()
	if err != nil {
		failoverClient.Close()
		return nil, err
	}

	return &Client{
		failoverClient: failoverClient,
		abis:           abis,
	}, nil
}

// Close closes all RPC client connections
func (c *Client) Close() {
	c.failoverClient.Close()
}

// GetHealthyEndpoint returns the endpoint calls are currently routed to
func (c *Client) GetHealthyEndpoint() (*ethclient.Client, string, error) {
	return c.failoverClient.GetClient()
}

// GetEndpointsHealth reports the health of every configured endpoint by URL
func (c *Client) GetEndpointsHealth() map[string]bool {
	return c.failoverClient.EndpointsHealth()
}

// revertCode is the JSON-RPC error code nodes use for reverted calls.
const revertCode = 3

// contractError wraps a failure the contract itself produced. Another
// endpoint would answer the same, so it is neither retried nor failed over.
type contractError struct {
	err error
}

func (e *contractError) Error() string { return e.err.Error() }
func (e *contractError) Unwrap() error { return e.err }

// isContractError reports whether err came from executing the call rather
// than from the transport.
func isContractError(err error) bool {
	if errors.Is(err, bind.ErrNoCode) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertCode {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

// retryWithBackoff executes a function with exponential backoff and automatic failover
func (c *Client) retryWithBackoff(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := range maxRetries {
		if attempt > 0 {
			backoff := retryInterval * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		// Get current RPC URL
		_, currentURL, _ := c.failoverClient.GetClient()

		if err := fn(); err != nil {
			var ce *contractError
			if errors.As(err, &ce) {
				return ce.err
			}
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if currentURL != "" {
				c.failoverClient.MarkUnhealthy(currentURL, err)
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// withClient runs fn against a healthy endpoint, retrying on another one on failure
func (c *Client) withClient(ctx context.Context, fn func(ctx context.Context, ec *ethclient.Client) error) error {
	return c.retryWithBackoff(ctx, func() error {
		ec, _, err := c.failoverClient.GetClient()
		if err != nil {
			return fmt.Errorf("no RPC endpoint available: %w", err)
		}
		rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
		defer cancel()
		return fn(rpcCtx, ec)
	})
}

// call invokes a view method of contract as of block. Reverts, missing code
// and undecodable output fail at once and leave the endpoint healthy.
func (c *Client) call(ctx context.Context, block uint64, contract common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: pack: %w", method, err)
	}

	var output []byte
	err = c.withClient(ctx, func(ctx context.Context, ec *ethclient.Client) error {
		bound := bind.NewBoundContract(contract, contractABI, ec, ec, ec)
		var err error
		output, err = bound.CallRaw(&bind.CallOpts{Context: ctx, BlockNumber: new(big.Int).SetUint64(block)}, input)
		if err != nil && isContractError(err) {
			return &contractError{err: err}
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	out, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("%s: unpack: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out, nil
}

// ChainID returns the chain id of the current endpoint
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.withClient(ctx, func(ctx context.Context, ec *ethclient.Client) error {
		var err error
		id, err = ec.ChainID(ctx)
		return err
	})
	return id, err
}

// HeadBlock returns the latest block number
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	var head uint64
	err := c.withClient(ctx, func(ctx context.Context, ec *ethclient.Client) error {
		var err error
		head, err = ec.BlockNumber(ctx)
		return err
	})
	return head, err
}

// FilterLogs returns the logs matching q
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.withClient(ctx, func(ctx context.Context, ec *ethclient.Client) error {
		var err error
		logs, err = ec.FilterLogs(ctx, q)
		return err
	})
	return logs, err
}

// BlockTime returns the timestamp of the block with the given hash
func (c *Client) BlockTime(ctx context.Context, hash common.Hash) (time.Time, error) {
	var header *types.Header
	err := c.withClient(ctx, func(ctx context.Context, ec *ethclient.Client) error {
		var err error
		header, err = ec.HeaderByHash(ctx, hash)
		return err
	})
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

// TransactionSender returns the originator of the transaction at index in block
func (c *Client) TransactionSender(ctx context.Context, block common.Hash, index uint) (common.Address, error) {
	var from common.Address
	err := c.withClient(ctx, func(ctx context.Context, ec *ethclient.Client) error {
		tx, err := ec.TransactionInBlock(ctx, block, index)
		if err != nil {
			return err
		}
		from, err = ec.TransactionSender(ctx, tx, block, index)
		return err
	})
	return from, err
}

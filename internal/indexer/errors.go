package indexer

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matrixise/geb-ledger/internal/event"
)

// ErrUnknownEvent is returned for an event no component handles.
var ErrUnknownEvent = errors.New("unknown event")

// EventError identifies the event whose application failed. Nothing the
// event touched was committed.
type EventError struct {
	Position event.Position
	TxHash   common.Hash
	Contract common.Address
	Name     string
	Err      error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("apply %s at %s (tx %s, contract %s): %v",
		e.Name, e.Position, e.TxHash.Hex(), e.Contract.Hex(), e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

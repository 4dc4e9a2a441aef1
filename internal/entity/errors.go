package entity

import (
	"errors"
	"fmt"
)

// ErrMissingEntity is matched by every MissingEntityError.
var ErrMissingEntity = errors.New("required entity does not exist")

// MissingEntityError reports an entity that must already exist but does not.
type MissingEntityError struct {
	Kind string
	ID   string
}

func (e *MissingEntityError) Error() string {
	return fmt.Sprintf("%s %q does not exist and can't be created", e.Kind, e.ID)
}

func (e *MissingEntityError) Unwrap() error {
	return ErrMissingEntity
}

func missing(kind, id string) error {
	return &MissingEntityError{Kind: kind, ID: id}
}

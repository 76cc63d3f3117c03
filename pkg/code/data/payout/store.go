package payout

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("payout record not found")
	ErrAlreadyExists = errors.New("payout record already exists")
	ErrStaleState    = errors.New("payout record is not in the expected state")
)

type Store interface {
	// Put creates a payout record
	//
	// Returns ErrAlreadyExists if a record already exists.
	Put(ctx context.Context, record *Record) error

	// Update applies the state, error count and settlement proof of a payout
	// record in a single write
	//
	// Returns ErrNotFound if no record exists.
	Update(ctx context.Context, record *Record) error

	// Get finds the payout record for a given payout ID
	//
	// Returns ErrNotFound if no record is found.
	Get(ctx context.Context, payoutId string) (*Record, error)

	// TransitionState moves a payout record from one state to another, only if
	// it's currently in the expected state
	//
	// Returns ErrNotFound if no record exists, and ErrStaleState if the record
	// is in any other state.
	TransitionState(ctx context.Context, payoutId string, from, to State) error

	// GetAllByState gets payout records in a provided state, oldest first
	//
	// Returns ErrNotFound if no record is found.
	GetAllByState(ctx context.Context, state State, limit uint64) ([]*Record, error)

	// CountByState counts all payout records in a provided state
	CountByState(ctx context.Context, state State) (uint64, error)
}

package payout

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/code-payments/code-payout-server/pkg/pointer"
)

type State uint8

const (
	StateUnknown         State = iota
	StateAwaitingPayment       // Eligible for a payment attempt
	StateInProgress            // A payment was submitted and its outcome isn't known yet
	StateCompleted             // Settled, terminal
	StateCancelled             // Abandoned, terminal
)

type Record struct {
	Id uint64

	PayoutId    string
	Amount      decimal.Decimal // BTC
	Currency    string
	Destination string

	State      State
	ErrorCount uint32

	// Settlement proof
	PaymentHash *string
	Preimage    *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.PayoutId) == 0 {
		return errors.New("payout id is required")
	}

	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}

	if len(r.Currency) == 0 {
		return errors.New("currency is required")
	}

	if len(r.Destination) == 0 {
		return errors.New("destination is required")
	}

	if r.State == StateUnknown {
		return errors.New("state is required")
	}

	if r.PaymentHash != nil && len(*r.PaymentHash) == 0 {
		return errors.New("payment hash cannot be empty")
	}

	if r.Preimage != nil && r.PaymentHash == nil {
		return errors.New("preimage requires a payment hash")
	}

	return nil
}

// HasProof reports whether any settlement evidence has been recorded
func (r *Record) HasProof() bool {
	return r.PaymentHash != nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		PayoutId:    r.PayoutId,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Destination: r.Destination,

		State:      r.State,
		ErrorCount: r.ErrorCount,

		PaymentHash: pointer.StringCopy(r.PaymentHash),
		Preimage:    pointer.StringCopy(r.Preimage),

		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.PayoutId = r.PayoutId
	dst.Amount = r.Amount
	dst.Currency = r.Currency
	dst.Destination = r.Destination

	dst.State = r.State
	dst.ErrorCount = r.ErrorCount

	dst.PaymentHash = pointer.StringCopy(r.PaymentHash)
	dst.Preimage = pointer.StringCopy(r.Preimage)

	dst.CreatedAt = r.CreatedAt
	dst.UpdatedAt = r.UpdatedAt
}

func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

func (s State) String() string {
	switch s {
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

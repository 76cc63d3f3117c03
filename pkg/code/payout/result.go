package payout

import (
	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
)

type Outcome uint8

const (
	OutcomeUnknown Outcome = iota
	OutcomeOk
	OutcomeError
	OutcomeCouldNotFindRoute
)

// ErrorKind classifies why an attempt didn't settle a payout
type ErrorKind uint8

const (
	KindNone ErrorKind = iota

	// The payout wasn't eligible for processing, or another attempt holds it.
	// The payout isn't modified.
	KindInvalidState

	// The destination, invoice or endpoint bounds can never be paid. The
	// payout is cancelled.
	KindTerminalValidation

	// A collaborator failed in a way a later attempt may not
	KindTransientClientFault

	// The node couldn't find a route to the destination
	KindNoRoute

	// The node has no record of the payment after it was submitted. The
	// payout is cancelled since retrying risks paying twice.
	KindIndeterminate

	// The attempt was cancelled while submitting or confirming. The payout is
	// left in progress for later reconciliation.
	KindTimedOut
)

// AttemptResult is the outcome of a single attempt at paying out a payout
type AttemptResult struct {
	PayoutId    string
	Outcome     Outcome
	Kind        ErrorKind
	Message     string
	Destination string

	// State is the payout's state after the attempt
	State payout_data.State

	// Settlement evidence gathered during the attempt, even when it wasn't
	// recorded on the payout
	PaymentHash *string
	Preimage    *string
}

func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeError:
		return "error"
	case OutcomeCouldNotFindRoute:
		return "could_not_find_route"
	}
	return "unknown"
}

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidState:
		return "invalid_state"
	case KindTerminalValidation:
		return "terminal_validation"
	case KindTransientClientFault:
		return "transient_client_fault"
	case KindNoRoute:
		return "no_route"
	case KindIndeterminate:
		return "indeterminate"
	case KindTimedOut:
		return "timed_out"
	}
	return "unknown"
}

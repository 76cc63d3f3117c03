package lightning

import (
	"context"
)

type PayResult uint8

const (
	PayResultUnknown PayResult = iota
	PayResultOk
	PayResultError
	PayResultCouldNotFindRoute
)

type PaymentStatus uint8

const (
	PaymentStatusUnknown PaymentStatus = iota
	PaymentStatusPending
	PaymentStatusComplete
	PaymentStatusFailed
)

// PayResponse is what the node reported back when a payment was submitted
type PayResponse struct {
	Result      PayResult
	ErrorDetail string
}

// Payment is the node's view of a previously submitted payment
type Payment struct {
	Status     PaymentStatus
	Preimage   *string
	AmountSent *MilliSatoshi
}

// Client is the capability the payout processor needs from a Lightning node.
//
// Implementations must return the context's error when a call is abandoned
// because the context was cancelled or hit its deadline, so callers can tell
// cancellation apart from failures reported by the node.
type Client interface {
	// Pay submits a payment for the invoice. The amount is only honoured for
	// invoices that don't specify one.
	Pay(ctx context.Context, paymentRequest string, amount MilliSatoshi) (*PayResponse, error)

	// GetPayment returns the payment with the provided hex-encoded hash, or
	// nil when the node has no record of it.
	GetPayment(ctx context.Context, paymentHash string) (*Payment, error)
}

func (r PayResult) String() string {
	switch r {
	case PayResultOk:
		return "ok"
	case PayResultError:
		return "error"
	case PayResultCouldNotFindRoute:
		return "could_not_find_route"
	}
	return "unknown"
}

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusPending:
		return "pending"
	case PaymentStatusComplete:
		return "complete"
	case PaymentStatusFailed:
		return "failed"
	}
	return "unknown"
}

package lnurl

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/code-payments/code-payout-server/pkg/lightning"
)

const (
	PayRequestTag = "payRequest"
)

var (
	ErrUnexpectedTag    = errors.New("endpoint is not a pay request")
	ErrInvalidResponse  = errors.New("invalid lnurl response")
	ErrRateLimited      = errors.New("lnurl host is rate limited")
	ErrAmountNotAllowed = errors.New("amount is outside the endpoint's sendable range")
)

// PayParams are the parameters a pay endpoint publishes for payers
type PayParams struct {
	Callback    *url.URL
	MinSendable lightning.MilliSatoshi
	MaxSendable lightning.MilliSatoshi
	Metadata    string
	Tag         string
}

// Accepts reports whether the endpoint will issue an invoice for amount
func (p *PayParams) Accepts(amount lightning.MilliSatoshi) bool {
	return amount >= p.MinSendable && amount <= p.MaxSendable
}

// Error is an ERROR status reply from an lnurl service
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Client talks to LNURL pay endpoints
type Client interface {
	// FetchPayParams discovers the pay parameters served at endpoint
	FetchPayParams(ctx context.Context, endpoint *url.URL) (*PayParams, error)

	// RequestInvoice asks the endpoint's callback for an invoice of amount,
	// returning the encoded payment request
	RequestInvoice(ctx context.Context, params *PayParams, amount lightning.MilliSatoshi) (string, error)
}

package payout

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/lnurl"
)

// Claim is what a payout's destination resolves to. It's one of
// ClaimDirectInvoice, ClaimPayEndpoint or ClaimUnresolvable.
type Claim interface {
	isClaim()
}

// ClaimDirectInvoice is a destination that is itself a payable invoice
type ClaimDirectInvoice struct {
	Invoice *lightning.Invoice
}

// ClaimPayEndpoint is a destination that issues invoices on demand
type ClaimPayEndpoint struct {
	Identifier string
	Endpoint   *url.URL
}

// ClaimUnresolvable is a destination that can't be paid
type ClaimUnresolvable struct {
	Reason string
}

func (ClaimDirectInvoice) isClaim() {}
func (ClaimPayEndpoint) isClaim()   {}
func (ClaimUnresolvable) isClaim()  {}

// ResolveClaim classifies a payout destination. It has no side effects.
func ResolveClaim(decoder lightning.InvoiceDecoder, destination string) Claim {
	destination = strings.TrimSpace(destination)
	if len(destination) == 0 {
		return ClaimUnresolvable{Reason: "The destination is empty"}
	}

	endpoint, err := lnurl.ParseIdentifier(destination)
	if err == nil {
		return ClaimPayEndpoint{
			Identifier: destination,
			Endpoint:   endpoint,
		}
	}

	invoice, err := decoder.Decode(destination)
	switch {
	case err == nil:
		return ClaimDirectInvoice{Invoice: invoice}
	case errors.Is(err, lightning.ErrNetworkMismatch):
		return ClaimUnresolvable{Reason: "The BOLT11 invoice is for a different network"}
	}
	return ClaimUnresolvable{Reason: "The destination isn't a valid BOLT11 invoice or LNURL"}
}

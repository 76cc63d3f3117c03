package payout

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-payout-server/pkg/lightning"
	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
)

var (
	ErrAmountMismatch = errors.New("invoice amount does not match payout amount")
	ErrInvoiceExpired = errors.New("invoice has expired")
)

// InvalidInvoiceError describes why an invoice can't be used to pay a payout
type InvalidInvoiceError struct {
	reason  error
	message string
}

func (e *InvalidInvoiceError) Error() string {
	return e.message
}

func (e *InvalidInvoiceError) Unwrap() error {
	return e.reason
}

// ValidateInvoice checks an invoice against the payout it would pay. A zero
// amount invoice accepts any amount. The amount is checked before expiry.
func ValidateInvoice(invoice *lightning.Invoice, record *payout_data.Record, amount lightning.MilliSatoshi, now time.Time) error {
	if !invoice.IsAnyAmount() && invoice.Amount != amount {
		return &InvalidInvoiceError{
			reason: ErrAmountMismatch,
			message: fmt.Sprintf(
				"The BOLT11 invoice amount (%s %s) did not match the payout's amount (%s %s)",
				invoice.Amount.ToBTC().String(),
				record.Currency,
				record.Amount.String(),
				record.Currency,
			),
		}
	}

	if invoice.IsExpired(now) {
		return &InvalidInvoiceError{
			reason:  ErrInvoiceExpired,
			message: fmt.Sprintf("The BOLT11 invoice expiry date (%s) has expired", invoice.Expiry.UTC().Format(time.RFC3339)),
		}
	}

	return nil
}

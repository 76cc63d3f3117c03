package payout

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/lnurl"
	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
)

// fetchInvoiceFromEndpoint performs the LNURL pay handshake for amount.
// Exactly one of the return values is set.
func (p *Processor) fetchInvoiceFromEndpoint(
	ctx context.Context,
	log *logrus.Entry,
	claim ClaimPayEndpoint,
	record *payout_data.Record,
	amount lightning.MilliSatoshi,
) (*lightning.Invoice, *AttemptResult) {
	log = log.WithField("endpoint", claim.Endpoint.String())

	params, err := p.endpoints.FetchPayParams(ctx, claim.Endpoint)
	if err != nil {
		log.WithError(err).Info("failure fetching lnurl pay parameters")

		record.State = payout_data.StateAwaitingPayment
		return nil, newResult(record, OutcomeError, KindTransientClientFault, endpointErrorMessage(err))
	}

	if !params.Accepts(amount) {
		log.WithFields(logrus.Fields{
			"min_sendable": params.MinSendable,
			"max_sendable": params.MaxSendable,
		}).Info("payout amount is outside the endpoint's bounds")

		record.State = payout_data.StateCancelled
		return nil, newResult(
			record,
			OutcomeError,
			KindTerminalValidation,
			fmt.Sprintf("The LNURL provided would not generate an invoice of %s sats", amount.ToSatoshis().String()),
		)
	}

	paymentRequest, err := p.endpoints.RequestInvoice(ctx, params, amount)
	if err != nil {
		log.WithError(err).Info("failure requesting invoice from lnurl callback")

		record.State = payout_data.StateAwaitingPayment
		return nil, newResult(record, OutcomeError, KindTransientClientFault, endpointErrorMessage(err))
	}

	invoice, err := p.decoder.Decode(paymentRequest)
	if err != nil {
		log.WithError(err).Info("lnurl callback returned an invalid invoice")

		record.State = payout_data.StateAwaitingPayment
		return nil, newResult(record, OutcomeError, KindTransientClientFault, "The LNURL endpoint returned an invalid BOLT11 invoice")
	}

	return invoice, nil
}

func endpointErrorMessage(err error) string {
	var lnurlErr *lnurl.Error
	if errors.As(err, &lnurlErr) && len(lnurlErr.Reason) > 0 {
		return lnurlErr.Reason
	}
	return err.Error()
}

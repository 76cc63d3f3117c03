package payout

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/metrics"
	"github.com/code-payments/code-payout-server/pkg/pointer"
	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
)

const (
	noRouteMessage  = "Unable to find a route for the payment, check your channel liquidity"
	inFlightMessage = "The payment has been initiated but is still in-flight."
	timedOutMessage = "The payment timed out. We will verify if it completed later."
)

type submitResult struct {
	resp *lightning.PayResponse
	err  error

	cancelled bool
}

type confirmResult struct {
	payment *lightning.Payment
	err     error

	cancelled bool
}

// classification is the state transition an executed payment maps to
type classification struct {
	state   payout_data.State
	outcome Outcome
	kind    ErrorKind
	message string

	// recordProof attaches the payment hash and any preimage to the payout
	recordProof bool
	preimage    *string
}

// payInvoice submits the invoice, then independently asks the node what
// happened to the payment. Confirmation is skipped when no route was found
// or submission was cancelled.
func (p *Processor) payInvoice(
	ctx context.Context,
	log *logrus.Entry,
	client lightning.Client,
	invoice *lightning.Invoice,
	record *payout_data.Record,
	amount lightning.MilliSatoshi,
) *AttemptResult {
	log = log.WithField("payment_hash", invoice.PaymentHash)

	submit := submitPayment(ctx, client, invoice, amount)

	var confirm *confirmResult
	if !submit.cancelled && !isNoRoute(submit) {
		confirm = confirmPayment(ctx, client, invoice.PaymentHash)
	}

	c := classifyPayment(submit, confirm, record.Currency)

	entry := log.WithFields(logrus.Fields{
		"outcome": c.outcome.String(),
		"kind":    c.kind.String(),
	})
	if submit.err != nil {
		entry = entry.WithField("submit_error", submit.err.Error())
	}
	if confirm != nil && confirm.err != nil {
		entry = entry.WithField("confirm_error", confirm.err.Error())
	}
	entry.Debug("payment attempt classified")

	record.State = c.state
	if c.recordProof {
		record.PaymentHash = pointer.String(invoice.PaymentHash)
		if c.preimage != nil {
			record.Preimage = pointer.StringCopy(c.preimage)
		}
	}

	res := newResult(record, c.outcome, c.kind, c.message)
	res.PaymentHash = pointer.String(invoice.PaymentHash)
	res.Preimage = pointer.StringCopy(c.preimage)
	return res
}

func submitPayment(ctx context.Context, client lightning.Client, invoice *lightning.Invoice, amount lightning.MilliSatoshi) submitResult {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "submitPayment")
	defer tracer.End()

	resp, err := client.Pay(ctx, invoice.PaymentRequest, amount)
	tracer.OnError(err)

	return submitResult{
		resp:      resp,
		err:       err,
		cancelled: isCancellation(ctx, err),
	}
}

func confirmPayment(ctx context.Context, client lightning.Client, paymentHash string) *confirmResult {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "confirmPayment")
	defer tracer.End()

	payment, err := client.GetPayment(ctx, paymentHash)
	tracer.OnError(err)

	return &confirmResult{
		payment:   payment,
		err:       err,
		cancelled: isCancellation(ctx, err),
	}
}

// classifyPayment maps the submit and confirm results to the payout's next
// state. A nil confirm means confirmation wasn't attempted.
func classifyPayment(submit submitResult, confirm *confirmResult, currency string) classification {
	if submit.cancelled {
		return timedOut()
	}

	if isNoRoute(submit) {
		return classification{
			state:   payout_data.StateAwaitingPayment,
			outcome: OutcomeCouldNotFindRoute,
			kind:    KindNoRoute,
			message: noRouteMessage,
		}
	}

	if confirm == nil {
		return classification{
			state:   payout_data.StateCancelled,
			outcome: OutcomeError,
			kind:    KindIndeterminate,
			message: unconfirmedMessage(submit, nil),
		}
	}

	if confirm.cancelled {
		return timedOut()
	}

	payment := confirm.payment
	if payment == nil {
		return classification{
			state:   payout_data.StateCancelled,
			outcome: OutcomeError,
			kind:    KindIndeterminate,
			message: unconfirmedMessage(submit, confirm.err),
		}
	}

	preimage := pointer.StringCopy(payment.Preimage)

	switch payment.Status {
	case lightning.PaymentStatusComplete:
		message := "Paid out"
		if payment.AmountSent != nil {
			message = fmt.Sprintf("Paid out %s %s", payment.AmountSent.ToBTC().String(), currency)
		}

		return classification{
			state:       payout_data.StateCompleted,
			outcome:     OutcomeOk,
			kind:        KindNone,
			message:     message,
			recordProof: true,
			preimage:    preimage,
		}
	case lightning.PaymentStatusFailed:
		message := "The payment failed"
		if submit.resp != nil && len(submit.resp.ErrorDetail) > 0 {
			message = fmt.Sprintf("The payment failed (%s)", submit.resp.ErrorDetail)
		}

		return classification{
			state:    payout_data.StateAwaitingPayment,
			outcome:  OutcomeError,
			kind:     KindTransientClientFault,
			message:  message,
			preimage: preimage,
		}
	default:
		return classification{
			state:    payout_data.StateInProgress,
			outcome:  OutcomeUnknown,
			kind:     KindNone,
			message:  inFlightMessage,
			preimage: preimage,
		}
	}
}

func timedOut() classification {
	return classification{
		state:       payout_data.StateInProgress,
		outcome:     OutcomeOk,
		kind:        KindTimedOut,
		message:     timedOutMessage,
		recordProof: true,
	}
}

// unconfirmedMessage picks the best available diagnostic: the submit error,
// then the confirm error, then the node's own error detail
func unconfirmedMessage(submit submitResult, confirmErr error) string {
	var detail string
	switch {
	case submit.err != nil:
		detail = submit.err.Error()
	case confirmErr != nil:
		detail = confirmErr.Error()
	case submit.resp != nil:
		detail = submit.resp.ErrorDetail
	}
	return fmt.Sprintf("Unable to confirm the payment of the invoice (%s)", detail)
}

func isNoRoute(submit submitResult) bool {
	return submit.err == nil && submit.resp != nil && submit.resp.Result == lightning.PayResultCouldNotFindRoute
}

// isCancellation distinguishes the caller giving up from a failure the node
// reported
func isCancellation(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil
}

package payout

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-payout-server/pkg/inflight"
	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/lnurl"
	"github.com/code-payments/code-payout-server/pkg/metrics"
	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
)

const (
	metricsStructName = "payout.processor"

	// MaxErrorCount is the number of failed attempts after which a payout is
	// cancelled
	MaxErrorCount = 10

	invalidStateMessage = "The payout isn't in a valid state"
)

// AdmissionHook runs once a payout is admitted, before anything is done to pay
// it. An error rejects the attempt with KindInvalidState.
type AdmissionHook func(ctx context.Context, record *payout_data.Record) error

type conf struct {
	admissionHook AdmissionHook
	now           func() time.Time
}

// Option configures a Processor with an overrided configuration value
type Option func(c *conf)

// WithAdmissionHook sets a hook that must succeed for an admitted payout to
// be processed. It's typically used to move the payout to the in progress
// state in the store, so it isn't selected again.
func WithAdmissionHook(hook AdmissionHook) Option {
	return func(c *conf) {
		c.admissionHook = hook
	}
}

// WithClock overrides the time source used to check invoice expiry
func WithClock(now func() time.Time) Option {
	return func(c *conf) {
		c.now = now
	}
}

// Processor drives payouts through a single payment attempt each
type Processor struct {
	log       *logrus.Entry
	conf      conf
	decoder   lightning.InvoiceDecoder
	endpoints lnurl.Client
	tracker   inflight.Tracker
}

func NewProcessor(
	decoder lightning.InvoiceDecoder,
	endpoints lnurl.Client,
	tracker inflight.Tracker,
	opts ...Option,
) *Processor {
	c := conf{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}

	return &Processor{
		log:       logrus.StandardLogger().WithField("type", "payout/processor"),
		conf:      c,
		decoder:   decoder,
		endpoints: endpoints,
		tracker:   tracker,
	}
}

// Process makes one attempt at paying out record using client. The record is
// mutated in place with its next state, error count and settlement proof,
// which the caller is responsible for persisting. Collaborator failures are
// reported through the result and never returned.
func (p *Processor) Process(ctx context.Context, client lightning.Client, record *payout_data.Record) *AttemptResult {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Process")
	defer tracer.End()

	log := p.log.WithFields(logrus.Fields{
		"method":      "Process",
		"payout":      record.PayoutId,
		"destination": record.Destination,
	})

	if record.State != payout_data.StateAwaitingPayment {
		return invalidState(record)
	}

	release, ok, err := p.tracker.TryTrack(ctx, record.PayoutId)
	if err != nil {
		log.WithError(err).Warn("failure tracking payout")
		return invalidState(record)
	} else if !ok {
		log.Debug("payout is already being processed")
		return invalidState(record)
	}
	defer release()

	if p.conf.admissionHook != nil {
		if err := p.conf.admissionHook(ctx, record); err != nil {
			log.WithError(err).Info("payout was not admitted")
			return invalidState(record)
		}
	}
	record.State = payout_data.StateInProgress

	res := p.attempt(ctx, log, client, record)
	p.applyErrorCount(log, record, res)

	res.State = record.State
	log.WithFields(logrus.Fields{
		"outcome":     res.Outcome.String(),
		"kind":        res.Kind.String(),
		"state":       record.State.String(),
		"error_count": record.ErrorCount,
	}).Debug("payout attempt completed")

	return res
}

// ProcessBatch processes records concurrently. Results are in the same order
// as records, and a failure for one record never affects another. Only the
// first record for a payout is attempted; repeats are reported as being in an
// invalid state.
func (p *Processor) ProcessBatch(ctx context.Context, client lightning.Client, records []*payout_data.Record) []*AttemptResult {
	results := make([]*AttemptResult, len(records))

	seen := make(map[string]struct{}, len(records))
	var duplicates []int

	var wg sync.WaitGroup
	for i, record := range records {
		if _, ok := seen[record.PayoutId]; ok {
			duplicates = append(duplicates, i)
			continue
		}
		seen[record.PayoutId] = struct{}{}

		wg.Add(1)

		go func(i int, record *payout_data.Record) {
			defer wg.Done()

			results[i] = p.Process(ctx, client, record)
		}(i, record)
	}
	wg.Wait()

	for _, i := range duplicates {
		results[i] = invalidState(records[i])
	}

	return results
}

func (p *Processor) attempt(ctx context.Context, log *logrus.Entry, client lightning.Client, record *payout_data.Record) *AttemptResult {
	amount, err := lightning.FromBTC(record.Amount)
	if err != nil {
		log.WithError(err).Info("payout amount can't be paid over lightning")

		record.State = payout_data.StateCancelled
		return newResult(record, OutcomeError, KindTerminalValidation, "The payout amount can't be paid over lightning")
	}

	var invoice *lightning.Invoice
	switch claim := ResolveClaim(p.decoder, record.Destination).(type) {
	case ClaimDirectInvoice:
		invoice = claim.Invoice
	case ClaimPayEndpoint:
		var res *AttemptResult
		invoice, res = p.fetchInvoiceFromEndpoint(ctx, log, claim, record, amount)
		if res != nil {
			return res
		}
	case ClaimUnresolvable:
		record.State = payout_data.StateCancelled
		return newResult(record, OutcomeError, KindTerminalValidation, claim.Reason)
	}

	if err := ValidateInvoice(invoice, record, amount, p.conf.now()); err != nil {
		log.WithError(err).Info("invoice failed validation")

		record.State = payout_data.StateCancelled
		return newResult(record, OutcomeError, KindTerminalValidation, err.Error())
	}

	return p.payInvoice(ctx, log, client, invoice, record, amount)
}

// applyErrorCount counts failures that leave the payout retryable, cancelling
// it on the attempt that reaches MaxErrorCount
func (p *Processor) applyErrorCount(log *logrus.Entry, record *payout_data.Record, res *AttemptResult) {
	if res.Outcome != OutcomeError && res.Outcome != OutcomeCouldNotFindRoute {
		return
	}
	if record.State != payout_data.StateAwaitingPayment {
		return
	}

	record.ErrorCount++
	if record.ErrorCount >= MaxErrorCount {
		log.WithField("error_count", record.ErrorCount).Info("payout reached the maximum error count and is cancelled")
		record.State = payout_data.StateCancelled
	}
}

func newResult(record *payout_data.Record, outcome Outcome, kind ErrorKind, message string) *AttemptResult {
	return &AttemptResult{
		PayoutId:    record.PayoutId,
		Outcome:     outcome,
		Kind:        kind,
		Message:     message,
		Destination: record.Destination,
		State:       record.State,
	}
}

func invalidState(record *payout_data.Record) *AttemptResult {
	return &AttemptResult{
		PayoutId: record.PayoutId,
		Outcome:  OutcomeError,
		Kind:     KindInvalidState,
		Message:  invalidStateMessage,
		State:    record.State,
	}
}

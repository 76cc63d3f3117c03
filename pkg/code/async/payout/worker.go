package async_payout

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
	"github.com/code-payments/code-payout-server/pkg/code/payout"
	"github.com/code-payments/code-payout-server/pkg/metrics"
	"github.com/code-payments/code-payout-server/pkg/retry"
)

const persistTimeout = 5 * time.Second

func (p *service) worker(serviceCtx context.Context, interval time.Duration) error {
	delay := interval

	err := retry.Loop(
		func() (err error) {
			time.Sleep(delay)

			if err := serviceCtx.Err(); err != nil {
				return err
			}

			tracedCtx, end := metrics.StartTransaction(serviceCtx, "async__payout_service__handle_"+payout_data.StateAwaitingPayment.String())
			defer func() {
				end(err)
			}()

			err = p.processAwaitingPayment(tracedCtx)
			if err != nil {
				p.log.WithError(err).Warn("failure processing payouts")
			}
			return err
		},
		retry.NonRetriableErrors(context.Canceled),
	)

	return err
}

// processAwaitingPayment makes one attempt at every payout in the next batch
// awaiting payment, and saves the results
func (p *service) processAwaitingPayment(ctx context.Context) error {
	records, err := p.data.GetAllByState(ctx, payout_data.StateAwaitingPayment, p.conf.workerBatchSize.Get(ctx))
	if err == payout_data.ErrNotFound {
		return nil
	} else if err != nil {
		return err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.conf.paymentTimeout.Get(ctx))
	results := p.processor.ProcessBatch(attemptCtx, p.client, records)
	cancel()

	var errs []error
	for i, res := range results {
		if err := p.onAttemptCompleted(ctx, records[i], res); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("failed to save %d of %d payout attempts: %v", len(errs), len(records), errs[0])
	}
	return nil
}

func (p *service) onAttemptCompleted(ctx context.Context, record *payout_data.Record, res *payout.AttemptResult) error {
	log := p.log.WithFields(logrus.Fields{
		"method":  "onAttemptCompleted",
		"payout":  record.PayoutId,
		"outcome": res.Outcome.String(),
		"kind":    res.Kind.String(),
		"state":   record.State.String(),
	})

	p.recordAttempt(ctx, res)

	// Another attempt owns the payout, or it was never eligible
	if res.Kind == payout.KindInvalidState {
		return nil
	}

	// The admission hook already saved the in progress state, and there's
	// nothing new to add to it
	if record.State == payout_data.StateInProgress && !record.HasProof() {
		log.Debug("payout remains in progress")
		return nil
	}

	// The attempt's context may have expired, but its result must still be
	// saved
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	err := p.updatePayoutRecord(persistCtx, record)
	if err != nil {
		log.WithError(err).Warn("failure saving payout attempt")
		return errors.Wrapf(err, "error saving payout %s", record.PayoutId)
	}

	log.WithField("message", res.Message).Info("payout attempt saved")
	return nil
}

func (p *service) updatePayoutRecord(ctx context.Context, record *payout_data.Record) error {
	mu := p.payoutLocks.Get([]byte(record.PayoutId))
	mu.Lock()
	defer mu.Unlock()

	currentRecord, err := p.data.Get(ctx, record.PayoutId)
	if err != nil {
		return err
	}

	// Payout already settled or abandoned elsewhere, so the attempt is stale
	if currentRecord.State.IsTerminal() {
		return nil
	}

	return p.data.Update(ctx, record)
}

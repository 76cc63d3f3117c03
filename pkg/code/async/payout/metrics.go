package async_payout

import (
	"context"
	"time"

	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
	"github.com/code-payments/code-payout-server/pkg/code/payout"
	"github.com/code-payments/code-payout-server/pkg/metrics"
)

const (
	payoutCountEventName    = "PayoutCountPollingCheck"
	payoutAttemptsEventName = "PayoutAttemptsPollingCheck"
	payoutAttemptEventName  = "PayoutAttempt"
)

func (p *service) metricsGaugeWorker(ctx context.Context) error {
	delay := time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			start := time.Now()

			for _, state := range []payout_data.State{
				payout_data.StateAwaitingPayment,
				payout_data.StateInProgress,
			} {
				p.recordPayoutCountEvent(ctx, state)
			}
			p.recordPayoutAttemptsEvent(ctx)

			delay = time.Second - time.Since(start)
		}
	}
}

func (p *service) recordPayoutCountEvent(ctx context.Context, state payout_data.State) {
	count, err := p.data.CountByState(ctx, state)
	if err != nil {
		return
	}

	metrics.RecordEvent(ctx, payoutCountEventName, map[string]interface{}{
		"count": count,
		"state": state.String(),
	})
}

func (p *service) recordAttempt(ctx context.Context, res *payout.AttemptResult) {
	p.metricsMu.Lock()
	p.attemptsByResult[res.Outcome]++
	p.attemptsByKind[res.Kind]++
	p.metricsMu.Unlock()

	metrics.RecordEvent(ctx, payoutAttemptEventName, map[string]interface{}{
		"payout":  res.PayoutId,
		"outcome": res.Outcome.String(),
		"kind":    res.Kind.String(),
		"state":   res.State.String(),
	})
}

func (p *service) recordPayoutAttemptsEvent(ctx context.Context) {
	p.metricsMu.Lock()
	byResult := p.attemptsByResult
	byKind := p.attemptsByKind
	p.attemptsByResult = make(map[payout.Outcome]int)
	p.attemptsByKind = make(map[payout.ErrorKind]int)
	p.metricsMu.Unlock()

	kvPairs := make(map[string]interface{})
	for outcome, count := range byResult {
		kvPairs["outcome_"+outcome.String()] = count
	}
	for kind, count := range byKind {
		kvPairs["kind_"+kind.String()] = count
	}

	metrics.RecordEvent(ctx, payoutAttemptsEventName, kvPairs)
}

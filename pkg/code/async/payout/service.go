package async_payout

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-payout-server/pkg/code/async"
	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
	"github.com/code-payments/code-payout-server/pkg/code/payout"
	"github.com/code-payments/code-payout-server/pkg/inflight"
	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/lnurl"
	sync_util "github.com/code-payments/code-payout-server/pkg/sync"
)

type service struct {
	log       *logrus.Entry
	conf      *conf
	data      payout_data.Store
	client    lightning.Client
	processor *payout.Processor

	payoutLocks *sync_util.StripedLock

	metricsMu        sync.Mutex
	attemptsByKind   map[payout.ErrorKind]int
	attemptsByResult map[payout.Outcome]int
}

func New(
	data payout_data.Store,
	client lightning.Client,
	decoder lightning.InvoiceDecoder,
	tracker inflight.Tracker,
	endpoints lnurl.Client,
	configProvider ConfigProvider,
) async.Service {
	return &service{
		log:    logrus.StandardLogger().WithField("service", "payout"),
		conf:   configProvider(),
		data:   data,
		client: client,
		processor: payout.NewProcessor(
			decoder,
			endpoints,
			tracker,
			payout.WithAdmissionHook(func(ctx context.Context, record *payout_data.Record) error {
				// Marked in progress up front, so the payout isn't picked up
				// by the next poll or another worker
				return data.TransitionState(ctx, record.PayoutId, payout_data.StateAwaitingPayment, payout_data.StateInProgress)
			}),
		),
		payoutLocks:      sync_util.NewStripedLock(1024),
		attemptsByKind:   make(map[payout.ErrorKind]int),
		attemptsByResult: make(map[payout.Outcome]int),
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	go func() {
		err := p.worker(ctx, interval)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("payout processing loop terminated unexpectedly")
		}
	}()

	go func() {
		err := p.metricsGaugeWorker(ctx)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("payout metrics gauge loop terminated unexpectedly")
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}

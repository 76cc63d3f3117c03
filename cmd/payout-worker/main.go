package main

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"sync"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	x_rate "golang.org/x/time/rate"

	"github.com/code-payments/code-payout-server/pkg/app"
	async_payout "github.com/code-payments/code-payout-server/pkg/code/async/payout"
	payout_postgres "github.com/code-payments/code-payout-server/pkg/code/data/payout/postgres"
	pg "github.com/code-payments/code-payout-server/pkg/database/postgres"
	"github.com/code-payments/code-payout-server/pkg/database/redis"
	"github.com/code-payments/code-payout-server/pkg/inflight"
	inflight_memory "github.com/code-payments/code-payout-server/pkg/inflight/memory"
	inflight_redis "github.com/code-payments/code-payout-server/pkg/inflight/redis"
	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/lightning/lnd"
	"github.com/code-payments/code-payout-server/pkg/lnurl"
	"github.com/code-payments/code-payout-server/pkg/metrics"
	"github.com/code-payments/code-payout-server/pkg/rate"
)

type payoutWorker struct {
	log *logrus.Entry

	db      *sql.DB
	closers []io.Closer

	cancel     context.CancelFunc
	shutdownCh chan struct{}
	stopOnce   sync.Once
}

func (w *payoutWorker) Init(rawConfig app.Config, metricsProvider *newrelic.Application) error {
	config, err := decodeConfig(rawConfig)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(metrics.WithNewRelic(context.Background(), metricsProvider))
	w.cancel = cancel

	network, err := lightning.ParseNetwork(config.Network)
	if err != nil {
		return err
	}
	decoder := lightning.NewBolt11Decoder(network)

	w.db, err = pg.New(config.Postgres)
	if err != nil {
		return err
	}
	w.closers = append(w.closers, w.db)

	client, lndConn, err := lnd.Dial(config.Lnd, decoder)
	if err != nil {
		return errors.Wrap(err, "error connecting to lnd")
	}
	w.closers = append(w.closers, lndConn)

	var tracker inflight.Tracker
	if len(config.Redis.Addr) > 0 {
		redisClient, err := redis.New(ctx, config.Redis)
		if err != nil {
			return err
		}
		w.closers = append(w.closers, redisClient)

		tracker = inflight_redis.New(redisClient, config.InflightTTL)
	} else {
		tracker = inflight_memory.New()
	}

	endpoints := lnurl.NewClient(
		&http.Client{Timeout: config.Lnurl.Timeout},
		rate.NewLocalRateLimiter(x_rate.Limit(config.Lnurl.RequestsPerHost)),
		config.Lnurl.ClientConfig,
	)

	service := async_payout.New(
		payout_postgres.New(w.db),
		client,
		decoder,
		tracker,
		endpoints,
		async_payout.WithEnvConfigs(),
	)

	go func() {
		err := service.Start(ctx, config.WorkerInterval)
		if err != nil && err != context.Canceled {
			w.log.WithError(err).Warn("payout service terminated unexpectedly")
		}
		w.Stop()
	}()

	w.log.WithField("network", network.Name).Info("payout worker started")
	return nil
}

func (w *payoutWorker) ShutdownChan() <-chan struct{} {
	return w.shutdownCh
}

func (w *payoutWorker) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}

		for i := len(w.closers) - 1; i >= 0; i-- {
			if err := w.closers[i].Close(); err != nil {
				w.log.WithError(err).Warn("failure releasing resource")
			}
		}

		close(w.shutdownCh)
	})
}

func main() {
	worker := &payoutWorker{
		log:        logrus.StandardLogger().WithField("type", "payout-worker"),
		shutdownCh: make(chan struct{}),
	}

	if err := app.Run(worker); err != nil {
		logrus.StandardLogger().WithError(err).Fatal("error running payout worker")
	}
}

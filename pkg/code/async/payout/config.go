package async_payout

import (
	"time"

	"github.com/code-payments/code-payout-server/pkg/config"
	"github.com/code-payments/code-payout-server/pkg/config/env"
	"github.com/code-payments/code-payout-server/pkg/config/memory"
	"github.com/code-payments/code-payout-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "PAYOUT_SERVICE_"

	WorkerBatchSizeConfigEnvName = envConfigPrefix + "WORKER_BATCH_SIZE"
	defaultWorkerBatchSize       = 50

	PaymentTimeoutConfigEnvName = envConfigPrefix + "PAYMENT_TIMEOUT"
	defaultPaymentTimeout       = 30 * time.Second
)

type conf struct {
	workerBatchSize config.Uint64
	paymentTimeout  config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			workerBatchSize: env.NewUint64Config(WorkerBatchSizeConfigEnvName, defaultWorkerBatchSize),
			paymentTimeout:  env.NewDurationConfig(PaymentTimeoutConfigEnvName, defaultPaymentTimeout),
		}
	}
}

type testOverrides struct {
	workerBatchSize uint64
	paymentTimeout  time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			workerBatchSize: wrapper.NewUint64Config(memory.NewConfig(overrides.workerBatchSize), defaultWorkerBatchSize),
			paymentTimeout:  wrapper.NewDurationConfig(memory.NewConfig(overrides.paymentTimeout), defaultPaymentTimeout),
		}
	}
}

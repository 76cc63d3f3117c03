package main

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/code-payments/code-payout-server/pkg/app"
	pg "github.com/code-payments/code-payout-server/pkg/database/postgres"
	"github.com/code-payments/code-payout-server/pkg/database/redis"
	"github.com/code-payments/code-payout-server/pkg/lightning/lnd"
	"github.com/code-payments/code-payout-server/pkg/lnurl"
)

type lnurlConfig struct {
	lnurl.ClientConfig `mapstructure:",squash"`

	// RequestsPerHost bounds requests per second to any single LNURL host
	RequestsPerHost float64 `mapstructure:"requests_per_host"`
}

type workerConfig struct {
	// Network is the chain invoices must be issued for
	Network string `mapstructure:"network"`

	WorkerInterval time.Duration `mapstructure:"worker_interval"`

	Postgres pg.Config   `mapstructure:"postgres"`
	Lnd      lnd.Config  `mapstructure:"lnd"`
	Lnurl    lnurlConfig `mapstructure:"lnurl"`

	// Redis enables tracking in-flight payouts across worker processes. Only
	// the local process is tracked when no address is set.
	Redis       redis.Config  `mapstructure:"redis"`
	InflightTTL time.Duration `mapstructure:"inflight_ttl"`
}

var defaultWorkerConfig = workerConfig{
	Network:        "mainnet",
	WorkerInterval: time.Second,
	Lnurl: lnurlConfig{
		ClientConfig:    lnurl.DefaultClientConfig,
		RequestsPerHost: 5,
	},
	InflightTTL: 10 * time.Minute,
}

func decodeConfig(raw app.Config) (workerConfig, error) {
	config := defaultWorkerConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return config, err
	}

	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return config, errors.Wrap(err, "invalid app config")
	}

	if config.WorkerInterval <= 0 {
		return config, errors.New("worker interval must be positive")
	}
	if config.Lnurl.RequestsPerHost <= 0 {
		return config, errors.New("lnurl requests per host must be positive")
	}
	return config, nil
}

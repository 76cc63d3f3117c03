package lnd

import (
	"time"
)

const (
	defaultPaymentTimeout  = time.Minute
	defaultFeeLimitPpm     = 5_000
	defaultMinFeeLimitMsat = 10_000
)

// Config holds the settings needed to reach an lnd node
type Config struct {
	Host         string `mapstructure:"host"`
	TLSCertPath  string `mapstructure:"tls_cert_path"`
	MacaroonPath string `mapstructure:"macaroon_path"`

	// PaymentTimeout bounds how long lnd keeps trying routes for a payment
	PaymentTimeout time.Duration `mapstructure:"payment_timeout"`

	// FeeLimitPpm is the routing fee budget in parts per million of the
	// payment amount. It never goes below MinFeeLimitMsat.
	FeeLimitPpm     uint64 `mapstructure:"fee_limit_ppm"`
	MinFeeLimitMsat uint64 `mapstructure:"min_fee_limit_msat"`
}

func (c *Config) withDefaults() Config {
	res := *c
	if res.PaymentTimeout <= 0 {
		res.PaymentTimeout = defaultPaymentTimeout
	}
	if res.FeeLimitPpm == 0 {
		res.FeeLimitPpm = defaultFeeLimitPpm
	}
	if res.MinFeeLimitMsat == 0 {
		res.MinFeeLimitMsat = defaultMinFeeLimitMsat
	}
	return res
}

package lnurl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/metrics"
	"github.com/code-payments/code-payout-server/pkg/rate"
	"github.com/code-payments/code-payout-server/pkg/retry"
	"github.com/code-payments/code-payout-server/pkg/retry/backoff"
)

const (
	metricsStructName = "lnurl.client"

	maxResponseBytes = 64 * 1024
	statusError      = "ERROR"
)

type ClientConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts uint          `mapstructure:"max_attempts"`
	UserAgent   string        `mapstructure:"user_agent"`
}

var DefaultClientConfig = ClientConfig{
	Timeout:     10 * time.Second,
	MaxAttempts: 3,
	UserAgent:   "code-payout-server",
}

type httpClient struct {
	log     *logrus.Entry
	config  ClientConfig
	client  *http.Client
	limiter rate.Limiter
	retrier retry.Retrier
}

// NewClient returns an HTTP backed Client. Requests are rate limited per host.
func NewClient(hc *http.Client, limiter rate.Limiter, config ClientConfig) Client {
	if hc == nil {
		hc = &http.Client{Timeout: config.Timeout}
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = DefaultClientConfig.MaxAttempts
	}

	return &httpClient{
		log:     logrus.StandardLogger().WithField("type", "lnurl/client"),
		config:  config,
		client:  hc,
		limiter: limiter,
		retrier: retry.NewRetrier(
			retry.NonRetriableContextErrors(),
			isRetriable,
			retry.Limit(config.MaxAttempts),
			retry.BackoffWithJitter(backoff.BinaryExponential(250*time.Millisecond), 2*time.Second, 0.1),
		),
	}
}

type payParamsResponse struct {
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	Tag         string `json:"tag"`
	Callback    string `json:"callback"`
	MinSendable uint64 `json:"minSendable"`
	MaxSendable uint64 `json:"maxSendable"`
	Metadata    string `json:"metadata"`
}

type invoiceResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Pr     string `json:"pr"`
}

// FetchPayParams implements Client.FetchPayParams
func (c *httpClient) FetchPayParams(ctx context.Context, endpoint *url.URL) (*PayParams, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "FetchPayParams")
	defer tracer.End()

	var resp payParamsResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		tracer.OnError(err)
		return nil, err
	}

	if strings.EqualFold(resp.Status, statusError) {
		return nil, &Error{Reason: resp.Reason}
	}
	if resp.Tag != PayRequestTag {
		return nil, errors.Wrapf(ErrUnexpectedTag, "tag %q", resp.Tag)
	}

	callback, err := url.Parse(resp.Callback)
	if err != nil || len(callback.Host) == 0 {
		return nil, errors.Wrap(ErrInvalidResponse, "invalid callback")
	}
	if callback.Scheme != "https" && !(callback.Scheme == "http" && isOnion(callback.Hostname())) {
		return nil, errors.Wrap(ErrInvalidResponse, "callback must use https")
	}
	if resp.MinSendable > resp.MaxSendable {
		return nil, errors.Wrap(ErrInvalidResponse, "minSendable exceeds maxSendable")
	}

	return &PayParams{
		Callback:    callback,
		MinSendable: lightning.MilliSatoshi(resp.MinSendable),
		MaxSendable: lightning.MilliSatoshi(resp.MaxSendable),
		Metadata:    resp.Metadata,
		Tag:         resp.Tag,
	}, nil
}

// RequestInvoice implements Client.RequestInvoice
func (c *httpClient) RequestInvoice(ctx context.Context, params *PayParams, amount lightning.MilliSatoshi) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RequestInvoice")
	defer tracer.End()

	if !params.Accepts(amount) {
		return "", ErrAmountNotAllowed
	}

	callback := *params.Callback
	query := callback.Query()
	query.Set("amount", strconv.FormatUint(uint64(amount), 10))
	callback.RawQuery = query.Encode()

	var resp invoiceResponse
	if err := c.get(ctx, &callback, &resp); err != nil {
		tracer.OnError(err)
		return "", err
	}

	if strings.EqualFold(resp.Status, statusError) {
		return "", &Error{Reason: resp.Reason}
	}
	if len(resp.Pr) == 0 {
		return "", errors.Wrap(ErrInvalidResponse, "missing payment request")
	}
	return resp.Pr, nil
}

func (c *httpClient) get(ctx context.Context, target *url.URL, dst interface{}) error {
	log := c.log.WithFields(logrus.Fields{
		"method": "get",
		"host":   target.Host,
	})

	_, err := c.retrier.RetryWithContext(ctx, func() error {
		allowed, err := c.limiter.Allow(target.Host)
		if err != nil {
			return err
		} else if !allowed {
			return &retriableError{err: ErrRateLimited}
		}

		err = c.doGet(ctx, target, dst)
		if err != nil {
			log.WithError(err).Debug("lnurl request failed")
		}
		return err
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var re *retriableError
	if errors.As(err, &re) {
		return re.err
	}
	return err
}

func (c *httpClient) doGet(ctx context.Context, target *url.URL, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if len(c.config.UserAgent) > 0 {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &retriableError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &retriableError{err: err}
	}

	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return &retriableError{err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		// Services commonly pair 4xx codes with an ERROR body
		var envelope invoiceResponse
		if json.Unmarshal(body, &envelope) == nil && strings.EqualFold(envelope.Status, statusError) {
			return &Error{Reason: envelope.Reason}
		}
		return errors.Wrapf(ErrInvalidResponse, "unexpected status code %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Wrap(ErrInvalidResponse, err.Error())
	}
	return nil
}

type retriableError struct {
	err error
}

func (e *retriableError) Error() string {
	return e.err.Error()
}

func (e *retriableError) Unwrap() error {
	return e.err
}

func isRetriable(attempts uint, err error) bool {
	var re *retriableError
	return errors.As(err, &re)
}

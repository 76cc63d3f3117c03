package lnd

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/macaroons"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
	"gopkg.in/macaroon.v2"

	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/metrics"
	"github.com/code-payments/code-payout-server/pkg/retry"
	"github.com/code-payments/code-payout-server/pkg/retry/backoff"
)

const (
	metricsStructName = "lightning.lnd.client"
)

var (
	ErrStreamClosed = errors.New("payment stream closed before reaching a final status")
)

type client struct {
	log     *logrus.Entry
	config  Config
	decoder lightning.InvoiceDecoder
	router  routerrpc.RouterClient
}

// Dial connects to an lnd node using TLS and macaroon credentials. The decoder
// must be configured for the same network as the node.
func Dial(config Config, decoder lightning.InvoiceDecoder) (lightning.Client, io.Closer, error) {
	creds, err := credentials.NewClientTLSFromFile(config.TLSCertPath, "")
	if err != nil {
		return nil, nil, errors.Wrap(err, "error loading tls certificate")
	}

	macBytes, err := os.ReadFile(config.MacaroonPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error reading macaroon")
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return nil, nil, errors.Wrap(err, "error unmarshalling macaroon")
	}

	macCreds, err := macaroons.NewMacaroonCredential(mac)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error creating macaroon credential")
	}

	conn, err := grpc.Dial(
		config.Host,
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(macCreds),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error dialing lnd")
	}

	return newClient(config, decoder, routerrpc.NewRouterClient(conn)), conn, nil
}

func newClient(config Config, decoder lightning.InvoiceDecoder, router routerrpc.RouterClient) *client {
	return &client{
		log:     logrus.StandardLogger().WithField("type", "lightning/lnd/client"),
		config:  config.withDefaults(),
		decoder: decoder,
		router:  router,
	}
}

// Pay implements lightning.Client.Pay
func (c *client) Pay(ctx context.Context, paymentRequest string, amount lightning.MilliSatoshi) (*lightning.PayResponse, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Pay")
	defer tracer.End()

	log := c.log.WithField("method", "Pay")

	req := &routerrpc.SendPaymentRequest{
		PaymentRequest:    lightning.TrimScheme(paymentRequest),
		TimeoutSeconds:    int32(c.config.PaymentTimeout.Seconds()),
		FeeLimitMsat:      int64(c.feeLimit(amount)),
		NoInflightUpdates: true,
	}

	invoice, err := c.decoder.Decode(req.PaymentRequest)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	// lnd refuses an explicit amount for invoices that already carry one
	if invoice.IsAnyAmount() {
		if amount == 0 {
			return nil, errors.New("amount is required for invoices without one")
		}
		req.AmtMsat = int64(amount)
	}

	stream, err := c.router.SendPaymentV2(ctx, req)
	if err != nil {
		err = contextErrOr(ctx, err)
		tracer.OnError(err)
		return nil, err
	}

	for {
		payment, err := stream.Recv()
		if err != nil {
			err = contextErrOr(ctx, err)
			if err == io.EOF {
				err = ErrStreamClosed
			}
			tracer.OnError(err)
			return nil, err
		}

		log.WithFields(logrus.Fields{
			"payment_hash": payment.PaymentHash,
			"status":       payment.Status.String(),
		}).Trace("payment update")

		switch payment.Status {
		case lnrpc.Payment_SUCCEEDED:
			return &lightning.PayResponse{Result: lightning.PayResultOk}, nil
		case lnrpc.Payment_FAILED:
			return toPayFailure(payment.FailureReason), nil
		}
	}
}

// GetPayment implements lightning.Client.GetPayment
func (c *client) GetPayment(ctx context.Context, paymentHash string) (*lightning.Payment, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetPayment")
	defer tracer.End()

	hash, err := hex.DecodeString(paymentHash)
	if err != nil {
		return nil, errors.Wrap(err, "invalid payment hash")
	}

	var res *lightning.Payment
	_, err = retry.RetryWithContext(
		ctx,
		func() error {
			streamCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			// The first update is the payment's current state, which is only
			// sent for in-flight payments when in-flight updates are enabled.
			stream, err := c.router.TrackPaymentV2(streamCtx, &routerrpc.TrackPaymentRequest{
				PaymentHash:       hash,
				NoInflightUpdates: false,
			})
			if err != nil {
				return err
			}

			payment, err := stream.Recv()
			if err != nil {
				return err
			}

			res = toPayment(payment)
			return nil
		},
		retry.NonRetriableContextErrors(),
		retry.RetriableGRPCCodes(codes.Unavailable),
		retry.Limit(3),
		retry.Backoff(backoff.BinaryExponential(100*time.Millisecond), time.Second),
	)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	} else if err != nil {
		err = contextErrOr(ctx, err)
		tracer.OnError(err)
		return nil, err
	}
	return res, nil
}

func (c *client) feeLimit(amount lightning.MilliSatoshi) uint64 {
	limit := uint64(amount)/1_000_000*c.config.FeeLimitPpm + uint64(amount)%1_000_000*c.config.FeeLimitPpm/1_000_000
	if limit < c.config.MinFeeLimitMsat {
		return c.config.MinFeeLimitMsat
	}
	return limit
}

func toPayFailure(reason lnrpc.PaymentFailureReason) *lightning.PayResponse {
	res := &lightning.PayResponse{
		Result:      lightning.PayResultError,
		ErrorDetail: reason.String(),
	}
	if reason == lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE {
		res.Result = lightning.PayResultCouldNotFindRoute
	}
	return res
}

func toPayment(payment *lnrpc.Payment) *lightning.Payment {
	res := &lightning.Payment{}

	switch payment.Status {
	case lnrpc.Payment_SUCCEEDED:
		res.Status = lightning.PaymentStatusComplete
	case lnrpc.Payment_FAILED:
		res.Status = lightning.PaymentStatusFailed
	case lnrpc.Payment_IN_FLIGHT:
		res.Status = lightning.PaymentStatusPending
	default:
		res.Status = lightning.PaymentStatusUnknown
	}

	// lnd reports an all-zero preimage until the payment settles
	if len(payment.PaymentPreimage) > 0 && strings.Trim(payment.PaymentPreimage, "0") != "" {
		preimage := payment.PaymentPreimage
		res.Preimage = &preimage
	}

	if payment.ValueMsat > 0 {
		amount := lightning.MilliSatoshi(payment.ValueMsat)
		res.AmountSent = &amount
	}

	return res
}

func contextErrOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if status.Code(err) == codes.Canceled {
		return context.Canceled
	}
	if status.Code(err) == codes.DeadlineExceeded {
		return context.DeadlineExceeded
	}
	return err
}

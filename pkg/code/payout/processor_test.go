package payout

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-payout-server/pkg/inflight"
	inflight_memory "github.com/code-payments/code-payout-server/pkg/inflight/memory"
	"github.com/code-payments/code-payout-server/pkg/lightning"
	lightning_memory "github.com/code-payments/code-payout-server/pkg/lightning/memory"
	"github.com/code-payments/code-payout-server/pkg/lnurl"
	lnurl_memory "github.com/code-payments/code-payout-server/pkg/lnurl/memory"
	"github.com/code-payments/code-payout-server/pkg/pointer"
	payout_data "github.com/code-payments/code-payout-server/pkg/code/data/payout"
	payout_memory "github.com/code-payments/code-payout-server/pkg/code/data/payout/memory"
	"github.com/code-payments/code-payout-server/pkg/testutil"
)

const (
	directInvoice   = "lnbcrt1direct"
	anyAmount       = "lnbcrt1any"
	wrongAmount     = "lnbcrt1wrong"
	expiredInvoice  = "lnbcrt1expired"
	endpointInvoice = "lnbcrt1endpoint"

	directHash   = "1111111111111111111111111111111111111111111111111111111111111111"
	endpointHash = "2222222222222222222222222222222222222222222222222222222222222222"

	lightningAddress = "satoshi@example.com"
)

func TestProcess_Success(t *testing.T) {
	env := setup(t)
	env.client.SetPayment(directHash, &lightning.Payment{
		Status:     lightning.PaymentStatusComplete,
		Preimage:   pointer.String("abc"),
		AmountSent: amountPtr(100_000_000),
	})

	record := env.newRecord(t, "0.001", directInvoice)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeOk, res.Outcome)
	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, "Paid out 0.001 BTC", res.Message)
	assert.Equal(t, directInvoice, res.Destination)
	assert.Equal(t, payout_data.StateCompleted, res.State)

	assert.Equal(t, payout_data.StateCompleted, record.State)
	require.NotNil(t, record.PaymentHash)
	assert.Equal(t, directHash, *record.PaymentHash)
	require.NotNil(t, record.Preimage)
	assert.Equal(t, "abc", *record.Preimage)
	assert.EqualValues(t, 0, record.ErrorCount)

	assert.Equal(t, []lightning_memory.PayCall{{PaymentRequest: directInvoice, Amount: 100_000_000}}, env.client.PayCalls())
	assert.Equal(t, []string{directHash}, env.client.GetPaymentCalls())

	// The admission hook moved the payout to in progress in the store
	stored, err := env.store.Get(env.ctx, record.PayoutId)
	require.NoError(t, err)
	assert.Equal(t, payout_data.StateInProgress, stored.State)

	// A second attempt against the completed payout does nothing
	res = env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, KindInvalidState, res.Kind)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, "The payout isn't in a valid state", res.Message)
	assert.Len(t, env.client.PayCalls(), 1)
}

func TestProcess_PaidOutWithoutAmount(t *testing.T) {
	env := setup(t)
	env.client.SetPayment(directHash, &lightning.Payment{Status: lightning.PaymentStatusComplete})

	record := env.newRecord(t, "0.001", directInvoice)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeOk, res.Outcome)
	assert.Equal(t, "Paid out", res.Message)
	assert.Equal(t, payout_data.StateCompleted, record.State)
	assert.NotNil(t, record.PaymentHash)
	assert.Nil(t, record.Preimage)
}

func TestProcess_InvalidStateLeavesPayoutUnmodified(t *testing.T) {
	env := setup(t)

	for _, state := range []payout_data.State{
		payout_data.StateInProgress,
		payout_data.StateCompleted,
		payout_data.StateCancelled,
		payout_data.StateUnknown,
	} {
		record := env.newRecord(t, "0.001", directInvoice)
		record.State = state
		record.ErrorCount = 3
		expected := record.Clone()

		res := env.processor.Process(env.ctx, env.client, record)
		assert.Equal(t, KindInvalidState, res.Kind)
		assert.Equal(t, OutcomeError, res.Outcome)
		assert.Equal(t, expected, *record)
	}

	assert.Empty(t, env.client.PayCalls())
	assert.Empty(t, env.client.GetPaymentCalls())
}

func TestProcess_AdmissionRejected(t *testing.T) {
	env := setup(t)

	record := env.newRecord(t, "0.001", directInvoice)
	require.NoError(t, env.store.TransitionState(env.ctx, record.PayoutId, payout_data.StateAwaitingPayment, payout_data.StateCancelled))
	expected := record.Clone()

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, KindInvalidState, res.Kind)
	assert.Equal(t, expected, *record)
	assert.Empty(t, env.client.PayCalls())
}

func TestProcess_TrackerFailure(t *testing.T) {
	env := setup(t)
	processor := NewProcessor(env.decoder, env.endpoints, &failingTracker{})

	record := env.newRecord(t, "0.001", directInvoice)
	expected := record.Clone()

	res := processor.Process(env.ctx, env.client, record)
	assert.Equal(t, KindInvalidState, res.Kind)
	assert.Equal(t, expected, *record)
}

func TestProcess_ConcurrentAdmission(t *testing.T) {
	env := setup(t)
	env.client.BlockPay(true)

	record := env.newRecord(t, "0.001", directInvoice)
	duplicate := record.Clone()

	ctx, cancel := context.WithCancel(env.ctx)
	defer cancel()

	done := make(chan *AttemptResult, 1)
	go func() {
		done <- env.processor.Process(ctx, env.client, record)
	}()

	require.Eventually(t, func() bool {
		return len(env.client.PayCalls()) == 1
	}, time.Second, time.Millisecond)

	// Bypass the store so only the in-flight tracker can reject it
	res := NewProcessor(env.decoder, env.endpoints, env.tracker).Process(env.ctx, env.client, &duplicate)
	assert.Equal(t, KindInvalidState, res.Kind)
	assert.Equal(t, payout_data.StateAwaitingPayment, duplicate.State)

	cancel()
	res = <-done
	assert.Equal(t, KindTimedOut, res.Kind)
	assert.Len(t, env.client.PayCalls(), 1)

	// Released once the first attempt finished
	release, ok, err := env.tracker.TryTrack(env.ctx, record.PayoutId)
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestProcess_NoRoute(t *testing.T) {
	env := setup(t)
	env.client.SetPayResponse(&lightning.PayResponse{Result: lightning.PayResultCouldNotFindRoute}, nil)

	record := env.newRecord(t, "0.001", directInvoice)
	record.ErrorCount = 4

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeCouldNotFindRoute, res.Outcome)
	assert.Equal(t, KindNoRoute, res.Kind)
	assert.Equal(t, "Unable to find a route for the payment, check your channel liquidity", res.Message)
	assert.Equal(t, payout_data.StateAwaitingPayment, record.State)
	assert.EqualValues(t, 5, record.ErrorCount)
	assert.Nil(t, record.PaymentHash)

	assert.Empty(t, env.client.GetPaymentCalls())
}

func TestProcess_ErrorCountCapCancelsOnSameAttempt(t *testing.T) {
	env := setup(t)
	env.client.SetPayResponse(&lightning.PayResponse{Result: lightning.PayResultError, ErrorDetail: "temporary channel failure"}, nil)
	env.client.SetPayment(directHash, &lightning.Payment{Status: lightning.PaymentStatusFailed})

	record := env.newRecord(t, "0.001", directInvoice)

	for i := 1; i < MaxErrorCount; i++ {
		res := env.processor.Process(env.ctx, env.client, record)
		assert.Equal(t, OutcomeError, res.Outcome)
		assert.Equal(t, KindTransientClientFault, res.Kind)
		assert.Equal(t, "The payment failed (temporary channel failure)", res.Message)
		assert.Equal(t, payout_data.StateAwaitingPayment, record.State)
		assert.EqualValues(t, i, record.ErrorCount)

		require.NoError(t, env.store.Update(env.ctx, record))
	}

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, payout_data.StateCancelled, res.State)
	assert.Equal(t, payout_data.StateCancelled, record.State)
	assert.EqualValues(t, MaxErrorCount, record.ErrorCount)

	res = env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, KindInvalidState, res.Kind)
	assert.EqualValues(t, MaxErrorCount, record.ErrorCount)
	assert.Len(t, env.client.PayCalls(), MaxErrorCount)
}

func TestProcess_NoRouteAtCap(t *testing.T) {
	env := setup(t)
	env.client.SetPayResponse(&lightning.PayResponse{Result: lightning.PayResultCouldNotFindRoute}, nil)

	record := env.newRecord(t, "0.001", directInvoice)
	record.ErrorCount = MaxErrorCount - 1

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeCouldNotFindRoute, res.Outcome)
	assert.Equal(t, payout_data.StateCancelled, record.State)
	assert.EqualValues(t, MaxErrorCount, record.ErrorCount)
}

func TestProcess_AnyAmountInvoice(t *testing.T) {
	env := setup(t)

	for _, amount := range []string{"0.001", "0.00000001", "1.5"} {
		env.client.Reset()
		env.client.SetPayment(directHash, &lightning.Payment{Status: lightning.PaymentStatusComplete})

		record := env.newRecord(t, amount, anyAmount)

		res := env.processor.Process(env.ctx, env.client, record)
		assert.Equal(t, OutcomeOk, res.Outcome, amount)
		assert.Equal(t, payout_data.StateCompleted, record.State, amount)

		expected, err := lightning.FromBTC(decimal.RequireFromString(amount))
		require.NoError(t, err)
		require.Len(t, env.client.PayCalls(), 1)
		assert.Equal(t, expected, env.client.PayCalls()[0].Amount)
	}
}

func TestProcess_AmountMismatch(t *testing.T) {
	env := setup(t)

	record := env.newRecord(t, "0.001", wrongAmount)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, KindTerminalValidation, res.Kind)
	assert.Equal(t, "The BOLT11 invoice amount (0.002 BTC) did not match the payout's amount (0.001 BTC)", res.Message)
	assert.Equal(t, payout_data.StateCancelled, record.State)
	assert.EqualValues(t, 0, record.ErrorCount)
	assert.Empty(t, env.client.PayCalls())
}

func TestProcess_ExpiredInvoice(t *testing.T) {
	env := setup(t)

	record := env.newRecord(t, "0.001", expiredInvoice)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, KindTerminalValidation, res.Kind)
	assert.Contains(t, res.Message, "has expired")
	assert.Equal(t, payout_data.StateCancelled, record.State)
	assert.Empty(t, env.client.PayCalls())
}

func TestProcess_Unresolvable(t *testing.T) {
	env := setup(t)

	record := env.newRecord(t, "0.001", "definitely not a destination")

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, KindTerminalValidation, res.Kind)
	assert.Equal(t, payout_data.StateCancelled, record.State)
	assert.EqualValues(t, 0, record.ErrorCount)
	assert.Empty(t, env.client.PayCalls())
}

func TestProcess_UnpayableAmount(t *testing.T) {
	env := setup(t)

	record := env.newRecord(t, "0.000000000001", anyAmount)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, KindTerminalValidation, res.Kind)
	assert.Equal(t, payout_data.StateCancelled, record.State)
	assert.Empty(t, env.client.PayCalls())
}

func TestProcess_PayEndpoint(t *testing.T) {
	env := setup(t)
	env.setEndpoint(t, 1_000, 200_000_000)
	env.client.SetPayment(endpointHash, &lightning.Payment{
		Status:   lightning.PaymentStatusComplete,
		Preimage: pointer.String("def"),
	})

	record := env.newRecord(t, "0.001", lightningAddress)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeOk, res.Outcome)
	assert.Equal(t, lightningAddress, res.Destination)
	assert.Equal(t, payout_data.StateCompleted, record.State)
	assert.Equal(t, endpointHash, *record.PaymentHash)
	assert.Equal(t, "def", *record.Preimage)

	assert.Equal(t, []string{"https://example.com/.well-known/lnurlp/satoshi"}, env.endpoints.FetchCalls())
	assert.Equal(t, []lightning.MilliSatoshi{100_000_000}, env.endpoints.RequestCalls())
	assert.Equal(t, []lightning_memory.PayCall{{PaymentRequest: endpointInvoice, Amount: 100_000_000}}, env.client.PayCalls())
}

func TestProcess_PayEndpointBoundViolation(t *testing.T) {
	env := setup(t)
	env.setEndpoint(t, 1_000, 2_000)

	for _, tc := range []struct {
		amount string
		sats   string
	}{
		{"0.000000005", "0.5"},
		{"0.00000003", "3"},
	} {
		record := env.newRecord(t, tc.amount, lightningAddress)

		res := env.processor.Process(env.ctx, env.client, record)
		assert.Equal(t, OutcomeError, res.Outcome)
		assert.Equal(t, KindTerminalValidation, res.Kind)
		assert.Equal(t, fmt.Sprintf("The LNURL provided would not generate an invoice of %s sats", tc.sats), res.Message)
		assert.Equal(t, payout_data.StateCancelled, record.State)
		assert.EqualValues(t, 0, record.ErrorCount)
	}

	assert.Empty(t, env.endpoints.RequestCalls())
	assert.Empty(t, env.client.PayCalls())
}

func TestProcess_PayEndpointFaultsAreRetryable(t *testing.T) {
	env := setup(t)
	env.setEndpoint(t, 1_000, 200_000_000)

	env.endpoints.SetRequestError(&lnurl.Error{Reason: "service temporarily unavailable"})
	record := env.newRecord(t, "0.001", lightningAddress)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, KindTransientClientFault, res.Kind)
	assert.Equal(t, "service temporarily unavailable", res.Message)
	assert.Equal(t, payout_data.StateAwaitingPayment, record.State)
	assert.EqualValues(t, 1, record.ErrorCount)

	env.endpoints.SetRequestError(nil)
	env.endpoints.SetFetchError(errors.New("connection refused"))
	require.NoError(t, env.store.Update(env.ctx, record))

	res = env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, KindTransientClientFault, res.Kind)
	assert.Equal(t, "connection refused", res.Message)
	assert.Equal(t, payout_data.StateAwaitingPayment, record.State)
	assert.EqualValues(t, 2, record.ErrorCount)

	assert.Empty(t, env.client.PayCalls())
}

func TestProcess_SubmitTimeout(t *testing.T) {
	env := setup(t)
	env.client.BlockPay(true)

	record := env.newRecord(t, "0.001", directInvoice)
	record.ErrorCount = MaxErrorCount - 1

	ctx, cancel := context.WithTimeout(env.ctx, 20*time.Millisecond)
	defer cancel()

	res := env.processor.Process(ctx, env.client, record)
	assert.Equal(t, OutcomeOk, res.Outcome)
	assert.Equal(t, KindTimedOut, res.Kind)
	assert.Equal(t, "The payment timed out. We will verify if it completed later.", res.Message)
	assert.Equal(t, payout_data.StateInProgress, record.State)
	assert.EqualValues(t, MaxErrorCount-1, record.ErrorCount)
	require.NotNil(t, record.PaymentHash)
	assert.Equal(t, directHash, *record.PaymentHash)
	assert.Nil(t, record.Preimage)

	assert.Empty(t, env.client.GetPaymentCalls())
}

func TestProcess_ConfirmTimeout(t *testing.T) {
	env := setup(t)
	env.client.BlockGetPayment(true)

	record := env.newRecord(t, "0.001", directInvoice)

	ctx, cancel := context.WithTimeout(env.ctx, 20*time.Millisecond)
	defer cancel()

	res := env.processor.Process(ctx, env.client, record)
	assert.Equal(t, OutcomeOk, res.Outcome)
	assert.Equal(t, KindTimedOut, res.Kind)
	assert.Equal(t, payout_data.StateInProgress, record.State)
	assert.Equal(t, directHash, *record.PaymentHash)
	assert.Len(t, env.client.GetPaymentCalls(), 1)
}

func TestProcess_NoPaymentRecord(t *testing.T) {
	env := setup(t)

	for _, tc := range []struct {
		payErr     error
		payResp    *lightning.PayResponse
		confirmErr error
		expected   string
	}{
		{errors.New("node offline"), nil, errors.New("still offline"), "Unable to confirm the payment of the invoice (node offline)"},
		{nil, &lightning.PayResponse{Result: lightning.PayResultOk}, errors.New("lookup failed"), "Unable to confirm the payment of the invoice (lookup failed)"},
		{nil, &lightning.PayResponse{Result: lightning.PayResultError, ErrorDetail: "invoice already paid"}, nil, "Unable to confirm the payment of the invoice (invoice already paid)"},
	} {
		env.client.Reset()
		env.client.SetPayResponse(tc.payResp, tc.payErr)
		env.client.SetGetPaymentError(tc.confirmErr)

		record := env.newRecord(t, "0.001", directInvoice)

		res := env.processor.Process(env.ctx, env.client, record)
		assert.Equal(t, OutcomeError, res.Outcome)
		assert.Equal(t, KindIndeterminate, res.Kind)
		assert.Equal(t, tc.expected, res.Message)
		assert.Equal(t, payout_data.StateCancelled, record.State)
		assert.EqualValues(t, 0, record.ErrorCount)
		assert.Nil(t, record.PaymentHash)
	}
}

func TestProcess_SubmitErrorButPaymentSettled(t *testing.T) {
	env := setup(t)
	env.client.SetPayResponse(nil, errors.New("stream reset"))
	env.client.SetPayment(directHash, &lightning.Payment{
		Status:   lightning.PaymentStatusComplete,
		Preimage: pointer.String("abc"),
	})

	record := env.newRecord(t, "0.001", directInvoice)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeOk, res.Outcome)
	assert.Equal(t, payout_data.StateCompleted, record.State)
	assert.Equal(t, "abc", *record.Preimage)
}

func TestProcess_StillInFlight(t *testing.T) {
	env := setup(t)
	env.client.SetPayment(directHash, &lightning.Payment{
		Status:   lightning.PaymentStatusPending,
		Preimage: pointer.String("early"),
	})

	record := env.newRecord(t, "0.001", directInvoice)

	res := env.processor.Process(env.ctx, env.client, record)
	assert.Equal(t, OutcomeUnknown, res.Outcome)
	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, "The payment has been initiated but is still in-flight.", res.Message)
	assert.Equal(t, payout_data.StateInProgress, record.State)
	assert.Nil(t, record.PaymentHash)
	assert.Nil(t, record.Preimage)

	require.NotNil(t, res.Preimage)
	assert.Equal(t, "early", *res.Preimage)
	assert.Equal(t, directHash, *res.PaymentHash)
}

func TestProcessBatch(t *testing.T) {
	env := setup(t)
	env.client.SetPayment(directHash, &lightning.Payment{Status: lightning.PaymentStatusComplete})

	records := []*payout_data.Record{
		env.newRecord(t, "0.001", directInvoice),
		env.newRecord(t, "0.001", wrongAmount),
		env.newRecord(t, "0.001", "not a destination"),
		env.newRecord(t, "0.001", expiredInvoice),
	}
	records[3].State = payout_data.StateCompleted

	results := env.processor.ProcessBatch(env.ctx, env.client, records)
	require.Len(t, results, len(records))

	for i, res := range results {
		assert.Equal(t, records[i].PayoutId, res.PayoutId)
	}
	assert.Equal(t, OutcomeOk, results[0].Outcome)
	assert.Equal(t, KindTerminalValidation, results[1].Kind)
	assert.Equal(t, KindTerminalValidation, results[2].Kind)
	assert.Equal(t, KindInvalidState, results[3].Kind)

	assert.Equal(t, payout_data.StateCompleted, records[0].State)
	assert.Equal(t, payout_data.StateCancelled, records[1].State)
	assert.Equal(t, payout_data.StateCancelled, records[2].State)
	assert.Equal(t, payout_data.StateCompleted, records[3].State)
}

func TestProcessBatch_RepeatedPayout(t *testing.T) {
	env := setup(t)
	env.client.SetPayment(directHash, &lightning.Payment{Status: lightning.PaymentStatusComplete})

	record := env.newRecord(t, "0.001", directInvoice)
	copied := record.Clone()

	results := env.processor.ProcessBatch(env.ctx, env.client, []*payout_data.Record{record, record, &copied})
	require.Len(t, results, 3)

	assert.Equal(t, OutcomeOk, results[0].Outcome)
	assert.Equal(t, payout_data.StateCompleted, results[0].State)
	for _, res := range results[1:] {
		assert.Equal(t, record.PayoutId, res.PayoutId)
		assert.Equal(t, KindInvalidState, res.Kind)
	}
	assert.Equal(t, payout_data.StateAwaitingPayment, copied.State)

	assert.Len(t, env.client.PayCalls(), 1)
}

type testEnv struct {
	ctx       context.Context
	store     payout_data.Store
	decoder   *lightning_memory.Decoder
	client    *lightning_memory.Client
	endpoints *lnurl_memory.Client
	tracker   inflight.Tracker
	processor *Processor

	next int
}

func setup(t *testing.T) *testEnv {
	testutil.DisableLogging()

	now := time.Now()

	env := &testEnv{
		ctx:       context.Background(),
		store:     payout_memory.New(),
		decoder:   lightning_memory.NewDecoder(),
		client:    lightning_memory.NewClient(),
		endpoints: lnurl_memory.NewClient(),
		tracker:   inflight_memory.New(),
	}

	for _, invoice := range []*lightning.Invoice{
		{PaymentRequest: directInvoice, Amount: 100_000_000, Expiry: now.Add(time.Hour), PaymentHash: directHash},
		{PaymentRequest: anyAmount, Amount: 0, Expiry: now.Add(time.Hour), PaymentHash: directHash},
		{PaymentRequest: wrongAmount, Amount: 200_000_000, Expiry: now.Add(time.Hour), PaymentHash: directHash},
		{PaymentRequest: expiredInvoice, Amount: 100_000_000, Expiry: now.Add(-time.Minute), PaymentHash: directHash},
		{PaymentRequest: endpointInvoice, Amount: 100_000_000, Expiry: now.Add(time.Hour), PaymentHash: endpointHash},
	} {
		env.decoder.Add(invoice)
	}

	env.processor = NewProcessor(
		env.decoder,
		env.endpoints,
		env.tracker,
		WithAdmissionHook(func(ctx context.Context, record *payout_data.Record) error {
			return env.store.TransitionState(ctx, record.PayoutId, payout_data.StateAwaitingPayment, payout_data.StateInProgress)
		}),
		WithClock(func() time.Time { return now }),
	)

	return env
}

func (e *testEnv) newRecord(t *testing.T, amount, destination string) *payout_data.Record {
	e.next++

	record := &payout_data.Record{
		PayoutId:    fmt.Sprintf("payout%d", e.next),
		Amount:      decimal.RequireFromString(amount),
		Currency:    "BTC",
		Destination: destination,
		State:       payout_data.StateAwaitingPayment,
	}
	require.NoError(t, e.store.Put(e.ctx, record))
	return record
}

func (e *testEnv) setEndpoint(t *testing.T, minSendable, maxSendable lightning.MilliSatoshi) {
	endpoint, err := lnurl.ParseIdentifier(lightningAddress)
	require.NoError(t, err)

	callback, err := url.Parse("https://example.com/lnurlp/satoshi/callback")
	require.NoError(t, err)

	e.endpoints.SetPayParams(endpoint, &lnurl.PayParams{
		Callback:    callback,
		MinSendable: minSendable,
		MaxSendable: maxSendable,
		Tag:         lnurl.PayRequestTag,
	}, endpointInvoice)
}

func amountPtr(amount lightning.MilliSatoshi) *lightning.MilliSatoshi {
	return &amount
}

type failingTracker struct{}

func (f *failingTracker) TryTrack(context.Context, string) (func(), bool, error) {
	return nil, false, errors.New("tracker unavailable")
}

package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-payout-server/pkg/code/data/payout"
	"github.com/code-payments/code-payout-server/pkg/pointer"
)

func RunTests(t *testing.T, s payout.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s payout.Store){
		testHappyPath,
		testTransitionState,
		testWorkerQueries,
		testValidation,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s payout.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()
		time.Sleep(time.Millisecond)

		record := &payout.Record{
			PayoutId:    "payout_id",
			Amount:      decimal.RequireFromString("0.001"),
			Currency:    "BTC",
			Destination: "satoshi@example.com",

			State: payout.StateAwaitingPayment,
		}
		cloned := record.Clone()

		_, err := s.Get(ctx, record.PayoutId)
		assert.Equal(t, payout.ErrNotFound, err)
		assert.Equal(t, payout.ErrNotFound, s.Update(ctx, record))

		require.NoError(t, s.Put(ctx, record))
		assert.Equal(t, payout.ErrAlreadyExists, s.Put(ctx, record))

		actual, err := s.Get(ctx, record.PayoutId)
		require.NoError(t, err)
		assert.True(t, actual.Id > 0)
		assert.True(t, actual.CreatedAt.After(start))
		assertEquivalentRecords(t, &cloned, actual)

		record.State = payout.StateCompleted
		record.ErrorCount = 3
		record.PaymentHash = pointer.String("hash")
		record.Preimage = pointer.String("preimage")
		cloned = record.Clone()
		require.NoError(t, s.Update(ctx, record))
		assert.True(t, record.UpdatedAt.After(start))

		actual, err = s.Get(ctx, record.PayoutId)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
		assert.True(t, actual.HasProof())
	})
}

func testTransitionState(t *testing.T, s payout.Store) {
	t.Run("testTransitionState", func(t *testing.T) {
		ctx := context.Background()

		assert.Equal(t, payout.ErrNotFound, s.TransitionState(ctx, "missing", payout.StateAwaitingPayment, payout.StateInProgress))

		record := newRecord(1, payout.StateAwaitingPayment)
		require.NoError(t, s.Put(ctx, record))

		require.NoError(t, s.TransitionState(ctx, record.PayoutId, payout.StateAwaitingPayment, payout.StateInProgress))
		assert.Equal(t, payout.ErrStaleState, s.TransitionState(ctx, record.PayoutId, payout.StateAwaitingPayment, payout.StateInProgress))

		actual, err := s.Get(ctx, record.PayoutId)
		require.NoError(t, err)
		assert.Equal(t, payout.StateInProgress, actual.State)

		require.NoError(t, s.TransitionState(ctx, record.PayoutId, payout.StateInProgress, payout.StateAwaitingPayment))

		actual, err = s.Get(ctx, record.PayoutId)
		require.NoError(t, err)
		assert.Equal(t, payout.StateAwaitingPayment, actual.State)
	})
}

func testWorkerQueries(t *testing.T, s payout.Store) {
	t.Run("testWorkerQueries", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByState(ctx, payout.StateAwaitingPayment, 10)
		assert.Equal(t, payout.ErrNotFound, err)

		states := []payout.State{
			payout.StateAwaitingPayment,
			payout.StateAwaitingPayment,
			payout.StateInProgress,
			payout.StateAwaitingPayment,
			payout.StateCompleted,
			payout.StateCancelled,
			payout.StateAwaitingPayment,
		}
		for i, state := range states {
			require.NoError(t, s.Put(ctx, newRecord(i, state)))
		}

		for state, expected := range map[payout.State]uint64{
			payout.StateAwaitingPayment: 4,
			payout.StateInProgress:      1,
			payout.StateCompleted:       1,
			payout.StateCancelled:       1,
		} {
			count, err := s.CountByState(ctx, state)
			require.NoError(t, err)
			assert.Equal(t, expected, count, state.String())
		}

		actual, err := s.GetAllByState(ctx, payout.StateAwaitingPayment, 10)
		require.NoError(t, err)
		require.Len(t, actual, 4)
		for i, expectedId := range []string{"payout0", "payout1", "payout3", "payout6"} {
			assert.Equal(t, expectedId, actual[i].PayoutId)
			assert.Equal(t, payout.StateAwaitingPayment, actual[i].State)
		}

		actual, err = s.GetAllByState(ctx, payout.StateAwaitingPayment, 2)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "payout0", actual[0].PayoutId)
		assert.Equal(t, "payout1", actual[1].PayoutId)

		actual, err = s.GetAllByState(ctx, payout.StateCompleted, 10)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, "payout4", actual[0].PayoutId)
	})
}

func testValidation(t *testing.T, s payout.Store) {
	t.Run("testValidation", func(t *testing.T) {
		ctx := context.Background()

		for _, invalid := range []*payout.Record{
			{Amount: decimal.NewFromInt(1), Currency: "BTC", Destination: "d", State: payout.StateAwaitingPayment},
			{PayoutId: "p", Currency: "BTC", Destination: "d", State: payout.StateAwaitingPayment},
			{PayoutId: "p", Amount: decimal.NewFromInt(-1), Currency: "BTC", Destination: "d", State: payout.StateAwaitingPayment},
			{PayoutId: "p", Amount: decimal.NewFromInt(1), Destination: "d", State: payout.StateAwaitingPayment},
			{PayoutId: "p", Amount: decimal.NewFromInt(1), Currency: "BTC", State: payout.StateAwaitingPayment},
			{PayoutId: "p", Amount: decimal.NewFromInt(1), Currency: "BTC", Destination: "d"},
			{PayoutId: "p", Amount: decimal.NewFromInt(1), Currency: "BTC", Destination: "d", State: payout.StateCompleted, Preimage: pointer.String("preimage")},
			{PayoutId: "p", Amount: decimal.NewFromInt(1), Currency: "BTC", Destination: "d", State: payout.StateCompleted, PaymentHash: pointer.String("")},
		} {
			assert.Error(t, s.Put(ctx, invalid))
		}

		_, err := s.Get(ctx, "p")
		assert.Equal(t, payout.ErrNotFound, err)
	})
}

func newRecord(i int, state payout.State) *payout.Record {
	return &payout.Record{
		PayoutId:    fmt.Sprintf("payout%d", i),
		Amount:      decimal.NewFromInt(int64(i + 1)).Div(decimal.NewFromInt(1000)),
		Currency:    "BTC",
		Destination: fmt.Sprintf("user%d@example.com", i),
		State:       state,
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *payout.Record) {
	assert.Equal(t, obj1.PayoutId, obj2.PayoutId)
	assert.True(t, obj1.Amount.Equal(obj2.Amount))
	assert.Equal(t, obj1.Currency, obj2.Currency)
	assert.Equal(t, obj1.Destination, obj2.Destination)
	assert.Equal(t, obj1.State, obj2.State)
	assert.Equal(t, obj1.ErrorCount, obj2.ErrorCount)
	assert.EqualValues(t, obj1.PaymentHash, obj2.PaymentHash)
	assert.EqualValues(t, obj1.Preimage, obj2.Preimage)
}

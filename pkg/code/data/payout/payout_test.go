package payout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-payout-server/pkg/pointer"
)

func TestRecord_CloneIsDeep(t *testing.T) {
	record := &Record{
		PayoutId:    "payout",
		Amount:      decimal.RequireFromString("0.001"),
		Currency:    "BTC",
		Destination: "satoshi@example.com",
		State:       StateCompleted,
		PaymentHash: pointer.String("hash"),
		Preimage:    pointer.String("preimage"),
	}
	require.NoError(t, record.Validate())

	cloned := record.Clone()
	*cloned.Preimage = "changed"
	assert.Equal(t, "preimage", *record.Preimage)

	var dst Record
	record.CopyTo(&dst)
	assert.Equal(t, record.Clone(), dst)
}

func TestState(t *testing.T) {
	assert.False(t, StateAwaitingPayment.IsTerminal())
	assert.False(t, StateInProgress.IsTerminal())
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())

	assert.Equal(t, "awaiting_payment", StateAwaitingPayment.String())
	assert.Equal(t, "unknown", State(42).String())
}
